package infrastructure

import (
	"context"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// AnalyticsCache - кэш агрегатов по пользователю
type AnalyticsCache interface {
	GetAnalytics(ctx context.Context, userID string) (*entity.Analytics, bool, error)
	SetAnalytics(ctx context.Context, userID string, analytics *entity.Analytics) error
	Invalidate(ctx context.Context, userID string) error
}

// StateStore хранит одноразовые OAuth state-значения
type StateStore interface {
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	// ConsumeState удаляет state и сообщает, существовал ли он
	ConsumeState(ctx context.Context, state string) (bool, error)
}

// ReviewPlatform - внешняя площадка отзывов (Google Business Profile).
// Возвращает токены после возможного обновления, чтобы вызывающий мог их сохранить.
type ReviewPlatform interface {
	FetchReviews(ctx context.Context, tokens entity.OAuthTokens) ([]entity.ImportReviewItem, entity.OAuthTokens, error)
	ReplyToReview(ctx context.Context, tokens entity.OAuthTokens, platformReviewID, text string) error
}
