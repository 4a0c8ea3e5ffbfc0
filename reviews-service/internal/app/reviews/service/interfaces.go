package service

import (
	"context"

	"tastyreply/reviews-service/internal/app/reviews/entity"
)

type ReviewServiceInterface interface {
	ListReviews(ctx context.Context, userID string) ([]entity.Review, string, error)
	GetReview(ctx context.Context, userID, reviewID string) (*entity.Review, error)
	IngestReviews(ctx context.Context, userID string, items []entity.ImportReviewItem) (*entity.ImportResult, error)
	AttachReply(ctx context.Context, userID, author, reviewID, text string) (*entity.Review, error)
	Analytics(ctx context.Context, userID string) (*entity.Analytics, error)
	Ping(ctx context.Context) error
}

type GenerationServiceInterface interface {
	GenerateForReview(ctx context.Context, userID, reviewID string, info entity.BusinessInfo) (*entity.GenerationSession, error)
	GenerateAdHoc(ctx context.Context, req *entity.GenerateReplyRequest) ([]entity.ReplyCandidate, error)
	SaveSelection(ctx context.Context, userID, sessionID string, req *entity.SaveReplyRequest) (*entity.GenerationSession, error)
}

type SyncServiceInterface interface {
	SyncUser(ctx context.Context, userID string) (*entity.ImportResult, error)
	SyncAll(ctx context.Context) error
}

type AuthServiceInterface interface {
	LoginURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, code, state string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*entity.User, error)
}

// ReplyGenerator - генератор вариантов ответа (reply.Generator)
type ReplyGenerator interface {
	Generate(ctx context.Context, review entity.Review, info entity.BusinessInfo) ([]entity.ReplyCandidate, error)
	GenerateOne(ctx context.Context, review entity.Review, info entity.BusinessInfo, tone entity.Tone) (entity.ReplyCandidate, error)
}

// ReplyPoster публикует ответ на исходной площадке
type ReplyPoster interface {
	PostReply(ctx context.Context, userID string, review *entity.Review) error
}

// ReviewIngester сохраняет пакет отзывов с площадки
type ReviewIngester interface {
	IngestReviews(ctx context.Context, userID string, items []entity.ImportReviewItem) (*entity.ImportResult, error)
}

// OAuthProvider - обмен кода авторизации и профиль пользователя
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*entity.OAuthTokens, error)
	FetchProfile(ctx context.Context, tokens *entity.OAuthTokens) (*entity.GoogleProfile, error)
}
