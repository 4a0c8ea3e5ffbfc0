package repository

import (
	"context"
	"errors"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

const serviceName = "reviews-service"

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound  = errors.New("review not found")
	ErrForbidden       = errors.New("review belongs to another user")
	ErrSessionNotFound = errors.New("generation session not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ReviewRepository - хранилище отзывов.
// Реализации: MongoDB и in-memory, контракт одинаковый.
type ReviewRepository interface {
	// Upsert по ключу (platform, platform_review_id, user_id).
	// Изменяемые поля перезаписываются, replied/reply сохраняются.
	Upsert(ctx context.Context, review *entity.Review) (*entity.Review, bool, error)
	// AttachReply - атомарное условное обновление по (_id, user_id)
	AttachReply(ctx context.Context, reviewID, userID string, reply entity.Reply) (*entity.Review, error)
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	// ListByUser сортирует по дате отзыва, новые первыми. limit <= 0 - без ограничения
	ListByUser(ctx context.Context, userID string, limit int64) ([]entity.Review, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Ping(ctx context.Context) error
}

// SessionRepository - сессии генерации ответов, одна на пару (review, user)
type SessionRepository interface {
	Save(ctx context.Context, session *entity.GenerationSession) (*entity.GenerationSession, error)
	Resolve(ctx context.Context, sessionID, userID, selected string, edited bool, final string) (*entity.GenerationSession, error)
	GetByReview(ctx context.Context, reviewID, userID string) (*entity.GenerationSession, error)
	MarkPosted(ctx context.Context, reviewID, userID string, at time.Time) error
}

// UserRepository - пользователи, вошедшие через Google
type UserRepository interface {
	UpsertGoogleUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	ListWithTokens(ctx context.Context) ([]entity.User, error)
	UpdateTokens(ctx context.Context, userID string, tokens entity.OAuthTokens) error
}
