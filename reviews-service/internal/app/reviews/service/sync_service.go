package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"tastyreply/pkg/logger"
	"tastyreply/pkg/metrics"
	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure"
	"tastyreply/reviews-service/internal/app/reviews/repository"

	"golang.org/x/sync/errgroup"
)

const defaultSyncConcurrency = 4

// SyncService забирает отзывы с Google Business Profile и публикует туда ответы
type SyncService struct {
	userRepo    repository.UserRepository
	platform    infrastructure.ReviewPlatform
	ingester    ReviewIngester
	concurrency int
}

func NewSyncService(
	userRepo repository.UserRepository,
	platform infrastructure.ReviewPlatform,
	ingester ReviewIngester,
	concurrency int,
) *SyncService {
	if concurrency <= 0 {
		concurrency = defaultSyncConcurrency
	}
	return &SyncService{
		userRepo:    userRepo,
		platform:    platform,
		ingester:    ingester,
		concurrency: concurrency,
	}
}

func (s *SyncService) tokensFor(ctx context.Context, userID string) (*entity.OAuthTokens, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.GoogleTokens == nil || user.GoogleTokens.AccessToken == "" {
		return nil, ErrPlatformNotConnected
	}
	return user.GoogleTokens, nil
}

// SyncUser синхронизирует отзывы одного пользователя
func (s *SyncService) SyncUser(ctx context.Context, userID string) (*entity.ImportResult, error) {
	tokens, err := s.tokensFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, refreshed, err := s.platform.FetchReviews(ctx, *tokens)
	if err != nil {
		metrics.PlatformSyncRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if refreshed.AccessToken != "" && refreshed.AccessToken != tokens.AccessToken {
		if err := s.userRepo.UpdateTokens(ctx, userID, refreshed); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to persist refreshed Google tokens")
		}
	}

	result, err := s.ingester.IngestReviews(ctx, userID, items)
	if err != nil {
		metrics.PlatformSyncRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to ingest reviews: %w", err)
	}

	metrics.PlatformSyncRuns.WithLabelValues("ok").Inc()
	return result, nil
}

// SyncAll обходит всех пользователей с токенами Google.
// Ошибка одного пользователя не останавливает остальных.
func (s *SyncService) SyncAll(ctx context.Context) error {
	users, err := s.userRepo.ListWithTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var failed atomic.Int32
	var eg errgroup.Group
	eg.SetLimit(s.concurrency)

	for _, user := range users {
		userID := user.ID.Hex()
		eg.Go(func() error {
			result, err := s.SyncUser(ctx, userID)
			if err != nil {
				failed.Add(1)
				logger.Warn().Err(err).Str("user_id", userID).Msg("Scheduled sync failed")
				return nil
			}
			logger.Debug().
				Str("user_id", userID).
				Int("created", result.Created).
				Int("updated", result.Updated).
				Msg("Scheduled sync finished")
			return nil
		})
	}
	_ = eg.Wait()

	logger.Info().
		Int("users", len(users)).
		Int32("failed", failed.Load()).
		Msg("Platform sync run completed")

	return nil
}

// PostReply публикует ответ в Google; без подключённого аккаунта ничего не делает
func (s *SyncService) PostReply(ctx context.Context, userID string, review *entity.Review) error {
	if review.Reply == nil {
		return nil
	}

	tokens, err := s.tokensFor(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlatformNotConnected) {
			return nil
		}
		return err
	}

	if err := s.platform.ReplyToReview(ctx, *tokens, review.PlatformReviewID, review.Reply.Text); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}
