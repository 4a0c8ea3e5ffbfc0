package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/repository"
)

// GenerationService - генерация вариантов ответа и сохранение выбора оператора
type GenerationService struct {
	reviewRepo  repository.ReviewRepository
	sessionRepo repository.SessionRepository
	generator   ReplyGenerator
}

func NewGenerationService(
	reviewRepo repository.ReviewRepository,
	sessionRepo repository.SessionRepository,
	generator ReplyGenerator,
) *GenerationService {
	return &GenerationService{
		reviewRepo:  reviewRepo,
		sessionRepo: sessionRepo,
		generator:   generator,
	}
}

// GenerateForReview генерирует варианты для сохранённого отзыва и перезаписывает сессию
func (s *GenerationService) GenerateForReview(ctx context.Context, userID, reviewID string, info entity.BusinessInfo) (*entity.GenerationSession, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review.UserID != userID {
		return nil, ErrForbidden
	}

	candidates, err := s.generator.Generate(ctx, *review, info)
	if err != nil {
		return nil, fmt.Errorf("failed to generate replies: %w", err)
	}

	session, err := s.sessionRepo.Save(ctx, &entity.GenerationSession{
		ReviewID:         review.ID.Hex(),
		UserID:           userID,
		GeneratedReplies: candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save generation session: %w", err)
	}

	logger.Info().
		Str("review_id", reviewID).
		Str("session_id", session.ID.Hex()).
		Int("candidates", len(candidates)).
		Msg("Replies generated")

	return session, nil
}

// GenerateAdHoc - генерация по тексту из запроса, без сохранения.
// allTones даёт все четыре тона, иначе один вариант.
func (s *GenerationService) GenerateAdHoc(ctx context.Context, req *entity.GenerateReplyRequest) ([]entity.ReplyCandidate, error) {
	if strings.TrimSpace(req.ReviewText) == "" || req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: reviewText and rating are required", ErrValidation)
	}

	review := entity.Review{
		CustomerName: req.CustomerName,
		Rating:       req.Rating,
		Text:         req.ReviewText,
	}
	info := entity.BusinessInfo{BusinessName: req.BusinessName, BusinessType: req.BusinessType}

	if req.AllTones {
		candidates, err := s.generator.Generate(ctx, review, info)
		if err != nil {
			return nil, fmt.Errorf("failed to generate replies: %w", err)
		}
		return candidates, nil
	}

	candidate, err := s.generator.GenerateOne(ctx, review, info, entity.Tone(req.Tone))
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	return []entity.ReplyCandidate{candidate}, nil
}

// SaveSelection фиксирует выбранный и, возможно, отредактированный вариант
func (s *GenerationService) SaveSelection(ctx context.Context, userID, sessionID string, req *entity.SaveReplyRequest) (*entity.GenerationSession, error) {
	final := strings.TrimSpace(req.FinalReply)
	if final == "" {
		return nil, fmt.Errorf("%w: finalReply is required", ErrValidation)
	}

	session, err := s.sessionRepo.Resolve(ctx, sessionID, userID, req.SelectedReply, req.Edited, final)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to save selection: %w", err)
	}

	return session, nil
}
