package cache

import (
	"context"
	"sync"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

// NoopAnalyticsCache - без Redis аналитика всегда считается заново
type NoopAnalyticsCache struct{}

func (NoopAnalyticsCache) GetAnalytics(context.Context, string) (*entity.Analytics, bool, error) {
	return nil, false, nil
}

func (NoopAnalyticsCache) SetAnalytics(context.Context, string, *entity.Analytics) error { return nil }

func (NoopAnalyticsCache) Invalidate(context.Context, string) error { return nil }

// MemoryStateStore - замена RedisStateStore для одного инстанса
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStateStore) SaveState(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(ttl)
	return nil
}

func (s *MemoryStateStore) ConsumeState(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)
	return !s.now().After(exp), nil
}
