package mocks

import (
	"context"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"

	"github.com/stretchr/testify/mock"
)

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Upsert(ctx context.Context, review *entity.Review) (*entity.Review, bool, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.Review), args.Bool(1), args.Error(2)
}

func (m *MockReviewRepository) AttachReply(ctx context.Context, reviewID, userID string, reply entity.Reply) (*entity.Review, error) {
	args := m.Called(ctx, reviewID, userID, reply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]entity.Review, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSessionRepository мок для SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(ctx context.Context, session *entity.GenerationSession) (*entity.GenerationSession, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GenerationSession), args.Error(1)
}

func (m *MockSessionRepository) Resolve(ctx context.Context, sessionID, userID, selected string, edited bool, final string) (*entity.GenerationSession, error) {
	args := m.Called(ctx, sessionID, userID, selected, edited, final)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GenerationSession), args.Error(1)
}

func (m *MockSessionRepository) GetByReview(ctx context.Context, reviewID, userID string) (*entity.GenerationSession, error) {
	args := m.Called(ctx, reviewID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GenerationSession), args.Error(1)
}

func (m *MockSessionRepository) MarkPosted(ctx context.Context, reviewID, userID string, at time.Time) error {
	args := m.Called(ctx, reviewID, userID, at)
	return args.Error(0)
}

// MockUserRepository мок для UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) UpsertGoogleUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) ListWithTokens(ctx context.Context) ([]entity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) UpdateTokens(ctx context.Context, userID string, tokens entity.OAuthTokens) error {
	args := m.Called(ctx, userID, tokens)
	return args.Error(0)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAnalyticsCache мок для AnalyticsCache
type MockAnalyticsCache struct {
	mock.Mock
}

func (m *MockAnalyticsCache) GetAnalytics(ctx context.Context, userID string) (*entity.Analytics, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.Analytics), args.Bool(1), args.Error(2)
}

func (m *MockAnalyticsCache) SetAnalytics(ctx context.Context, userID string, analytics *entity.Analytics) error {
	args := m.Called(ctx, userID, analytics)
	return args.Error(0)
}

func (m *MockAnalyticsCache) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockStateStore мок для StateStore
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	args := m.Called(ctx, state, ttl)
	return args.Error(0)
}

func (m *MockStateStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	args := m.Called(ctx, state)
	return args.Bool(0), args.Error(1)
}

// MockReviewPlatform мок для ReviewPlatform
type MockReviewPlatform struct {
	mock.Mock
}

func (m *MockReviewPlatform) FetchReviews(ctx context.Context, tokens entity.OAuthTokens) ([]entity.ImportReviewItem, entity.OAuthTokens, error) {
	args := m.Called(ctx, tokens)
	if args.Get(0) == nil {
		return nil, args.Get(1).(entity.OAuthTokens), args.Error(2)
	}
	return args.Get(0).([]entity.ImportReviewItem), args.Get(1).(entity.OAuthTokens), args.Error(2)
}

func (m *MockReviewPlatform) ReplyToReview(ctx context.Context, tokens entity.OAuthTokens, platformReviewID, text string) error {
	args := m.Called(ctx, tokens, platformReviewID, text)
	return args.Error(0)
}
