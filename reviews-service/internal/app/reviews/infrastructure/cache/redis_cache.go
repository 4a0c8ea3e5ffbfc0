package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tastyreply/pkg/metrics"
	"tastyreply/reviews-service/internal/app/reviews/entity"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName        = "reviews-service"
	analyticsKeyPrefix = "analytics"
	stateKeyPrefix     = "oauth_state"
)

func analyticsKey(userID string) string {
	return fmt.Sprintf("%s:%s", analyticsKeyPrefix, userID)
}

func stateKey(state string) string {
	return fmt.Sprintf("%s:%s", stateKeyPrefix, state)
}

// RedisAnalyticsCache кэширует агрегаты пользователя с TTL.
// Сбрасывается при импорте отзывов и публикации ответа.
type RedisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAnalyticsCache(client *redis.Client, ttl time.Duration) *RedisAnalyticsCache {
	return &RedisAnalyticsCache{client: client, ttl: ttl}
}

func (c *RedisAnalyticsCache) GetAnalytics(ctx context.Context, userID string) (*entity.Analytics, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := c.client.Get(ctx, analyticsKey(userID)).Bytes()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, analyticsKeyPrefix)
			return nil, false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, false, fmt.Errorf("failed to get analytics from redis: %w", err)
	}

	var analytics entity.Analytics
	if err := json.Unmarshal(data, &analytics); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal analytics: %w", err)
	}

	metrics.RecordCacheHit(serviceName, analyticsKeyPrefix)
	return &analytics, true, nil
}

func (c *RedisAnalyticsCache) SetAnalytics(ctx context.Context, userID string, analytics *entity.Analytics) error {
	data, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err = c.client.Set(ctx, analyticsKey(userID), data, c.ttl).Err()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set analytics in redis: %w", err)
	}
	return nil
}

func (c *RedisAnalyticsCache) Invalidate(ctx context.Context, userID string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := c.client.Del(ctx, analyticsKey(userID)).Err()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate analytics: %w", err)
	}
	return nil
}

// RedisStateStore хранит OAuth state до возврата пользователя с consent-экрана
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err := s.client.Set(ctx, stateKey(state), "1", ttl).Err()
	timer.ObserveDuration()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// ConsumeState - GETDEL, чтобы state нельзя было использовать дважды
func (s *RedisStateStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGetDel)
	err := s.client.GetDel(ctx, stateKey(state)).Err()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGetDel)
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return true, nil
}
