package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tastyreply/pkg/logger"
	"tastyreply/pkg/metrics"
	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure"
	"tastyreply/reviews-service/internal/app/reviews/reply"
	"tastyreply/reviews-service/internal/app/reviews/repository"
)

const (
	DefaultListLimit = 50

	SourceDemo  = "demo"
	SourceStore = "store"

	demoReviewPrefix = "demo_"
	DemoMessage      = "Connect your Google My Business account to see real reviews"
)

// demoReviews показываются новому пользователю, пока площадки не подключены
var demoReviews = []entity.ImportReviewItem{
	{
		Platform:         entity.PlatformGoogle,
		PlatformReviewID: demoReviewPrefix + "google_1",
		CustomerName:     "Sarah Johnson",
		Rating:           5,
		Text:             "Amazing food and excellent service! The pasta was perfectly cooked.",
	},
	{
		Platform:         entity.PlatformGoogle,
		PlatformReviewID: demoReviewPrefix + "google_2",
		CustomerName:     "Mike Chen",
		Rating:           4,
		Text:             "Good food overall, but the wait time was a bit long.",
	},
	{
		Platform:         entity.PlatformFacebook,
		PlatformReviewID: demoReviewPrefix + "facebook_1",
		CustomerName:     "Emma Davis",
		Rating:           3,
		Text:             "Nice atmosphere but the soup was cold and service was slow.",
	},
	{
		Platform:         entity.PlatformYelp,
		PlatformReviewID: demoReviewPrefix + "yelp_1",
		CustomerName:     "James Wilson",
		Rating:           2,
		Text:             "Waited 40 minutes for a table and the staff was rude.",
	},
}

type ReviewServiceConfig struct {
	DemoMode  bool
	ListLimit int64
}

// ReviewService обрабатывает бизнес-логику отзывов
// Координирует работу репозиториев, кэша аналитики и Kafka
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	sessionRepo   repository.SessionRepository
	kafkaProducer infrastructure.MessagePublisher
	cache         infrastructure.AnalyticsCache
	poster        ReplyPoster
	cfg           ReviewServiceConfig
	now           func() time.Time
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	sessionRepo repository.SessionRepository,
	kafkaProducer infrastructure.MessagePublisher,
	cache infrastructure.AnalyticsCache,
	cfg ReviewServiceConfig,
) *ReviewService {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = DefaultListLimit
	}
	return &ReviewService{
		reviewRepo:    reviewRepo,
		sessionRepo:   sessionRepo,
		kafkaProducer: kafkaProducer,
		cache:         cache,
		cfg:           cfg,
		now:           time.Now,
	}
}

// SetReplyPoster подключает публикацию ответов на площадке.
// Задаётся после создания, т.к. SyncService сам зависит от ReviewService.
func (s *ReviewService) SetReplyPoster(poster ReplyPoster) {
	s.poster = poster
}

// ListReviews возвращает отзывы пользователя, новые первыми.
// В демо-режиме пустой список заполняется примерами через обычный upsert,
// без событий и метрик импорта.
func (s *ReviewService) ListReviews(ctx context.Context, userID string) ([]entity.Review, string, error) {
	reviews, err := s.reviewRepo.ListByUser(ctx, userID, s.cfg.ListLimit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list reviews: %w", err)
	}

	if len(reviews) == 0 && s.cfg.DemoMode {
		if _, err := s.ingest(ctx, userID, demoItems(s.now()), false); err != nil {
			return nil, "", fmt.Errorf("failed to seed demo reviews: %w", err)
		}
		reviews, err = s.reviewRepo.ListByUser(ctx, userID, s.cfg.ListLimit)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list reviews: %w", err)
		}
	}

	return reviews, sourceOf(reviews), nil
}

func demoItems(now time.Time) []entity.ImportReviewItem {
	items := make([]entity.ImportReviewItem, len(demoReviews))
	for i, item := range demoReviews {
		date := now.Add(-time.Duration(i+1) * 24 * time.Hour).UTC().Truncate(time.Second)
		item.ReviewDate = &date
		items[i] = item
	}
	return items
}

func sourceOf(reviews []entity.Review) string {
	if len(reviews) == 0 {
		return SourceStore
	}
	for _, r := range reviews {
		if !strings.HasPrefix(r.PlatformReviewID, demoReviewPrefix) {
			return SourceStore
		}
	}
	return SourceDemo
}

// GetReview получает отзыв с проверкой владельца
func (s *ReviewService) GetReview(ctx context.Context, userID, reviewID string) (*entity.Review, error) {
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

	return review, nil
}

// IngestReviews сохраняет пакет отзывов с площадки
// 1. Считает тональность и ключевые слова
// 2. Делает upsert по (platform, platform_review_id, user_id)
// 3. Отправляет REVIEW_SYNCED для новых записей
func (s *ReviewService) IngestReviews(ctx context.Context, userID string, items []entity.ImportReviewItem) (*entity.ImportResult, error) {
	return s.ingest(ctx, userID, items, true)
}

// ingest - track=false для демо-данных: без REVIEW_SYNCED и reviews_ingested_total
func (s *ReviewService) ingest(ctx context.Context, userID string, items []entity.ImportReviewItem, track bool) (*entity.ImportResult, error) {
	result := &entity.ImportResult{}

	// Пакет проверяется целиком до первой записи
	for _, item := range items {
		if err := validateImportItem(item); err != nil {
			return result, err
		}
	}

	// Кэш сбрасываем даже при частичном импорте
	defer s.invalidateAnalytics(ctx, userID)

	for _, item := range items {
		reviewDate := s.now().UTC()
		if item.ReviewDate != nil {
			reviewDate = item.ReviewDate.UTC()
		}

		review := &entity.Review{
			UserID:           userID,
			Platform:         item.Platform,
			PlatformReviewID: item.PlatformReviewID,
			BusinessID:       item.BusinessID,
			CustomerName:     item.CustomerName,
			Rating:           item.Rating,
			Text:             item.Text,
			ReviewDate:       reviewDate,
			Sentiment:        reply.Classify(item.Rating, item.Text),
			Keywords:         reply.ExtractKeywords(item.Text),
		}

		stored, created, err := s.reviewRepo.Upsert(ctx, review)
		if err != nil {
			if track {
				metrics.RecordIngestion(string(item.Platform), "failed")
			}
			return result, fmt.Errorf("failed to upsert review %s: %w", item.PlatformReviewID, err)
		}

		if !created {
			result.Updated++
			if track {
				metrics.RecordIngestion(string(item.Platform), "updated")
			}
			continue
		}

		result.Created++
		if track {
			metrics.RecordIngestion(string(item.Platform), "created")
			s.publishReviewEvent(ctx, entity.EventReviewSynced, stored)
		}
	}

	logger.Info().
		Str("user_id", userID).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Msg("Reviews ingested")

	return result, nil
}

func validateImportItem(item entity.ImportReviewItem) error {
	switch {
	case !item.Platform.Valid():
		return fmt.Errorf("%w: unknown platform %q", ErrValidation, item.Platform)
	case strings.TrimSpace(item.PlatformReviewID) == "":
		return fmt.Errorf("%w: platformReviewId is required", ErrValidation)
	case item.Rating < 1 || item.Rating > 5:
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

// AttachReply публикует ответ оператора на отзыв
// 1. Атомарно помечает отзыв отвеченным (только владелец)
// 2. Закрывает сессию генерации, отправляет REVIEW_REPLIED
// 3. Пытается опубликовать ответ на площадке, ошибка не критична
func (s *ReviewService) AttachReply(ctx context.Context, userID, author, reviewID, text string) (*entity.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: reply is required", ErrValidation)
	}

	now := s.now().UTC()
	review, err := s.reviewRepo.AttachReply(ctx, reviewID, userID, entity.Reply{
		Text:     text,
		Date:     now,
		PostedBy: author,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			return nil, ErrReviewNotFound
		case errors.Is(err, repository.ErrForbidden):
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("failed to attach reply: %w", err)
	}

	metrics.ReviewReplies.Inc()

	if err := s.sessionRepo.MarkPosted(ctx, reviewID, userID, now); err != nil {
		logger.Warn().Err(err).Str("review_id", reviewID).Msg("Failed to mark generation session posted")
	}

	s.publishReviewEvent(ctx, entity.EventReviewReplied, review)
	s.invalidateAnalytics(ctx, userID)

	if s.poster != nil && review.Platform == entity.PlatformGoogle && !strings.HasPrefix(review.PlatformReviewID, demoReviewPrefix) {
		if err := s.poster.PostReply(ctx, userID, review); err != nil {
			logger.Warn().Err(err).Str("review_id", reviewID).Msg("Failed to post reply to platform")
		}
	}

	return review, nil
}

// Analytics - агрегаты по отзывам пользователя, кэшируются в Redis
func (s *ReviewService) Analytics(ctx context.Context, userID string) (*entity.Analytics, error) {
	cached, ok, err := s.cache.GetAnalytics(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Analytics cache read failed")
	}
	if ok {
		return cached, nil
	}

	reviews, err := s.reviewRepo.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	analytics := ComputeAnalytics(reviews)

	if err := s.cache.SetAnalytics(ctx, userID, analytics); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Analytics cache write failed")
	}

	return analytics, nil
}

func (s *ReviewService) Ping(ctx context.Context) error {
	return s.reviewRepo.Ping(ctx)
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeAnalytics считает агрегаты; все пять оценок всегда есть в распределении
func ComputeAnalytics(reviews []entity.Review) *entity.Analytics {
	analytics := &entity.Analytics{
		TotalReviews:       len(reviews),
		PlatformBreakdown:  make(map[entity.Platform]int),
		RatingDistribution: make(map[string]int, 5),
		SentimentBreakdown: make(map[entity.Sentiment]int),
	}
	for rating := 1; rating <= 5; rating++ {
		analytics.RatingDistribution[strconv.Itoa(rating)] = 0
	}

	if len(reviews) == 0 {
		return analytics
	}

	ratingSum := 0
	for _, r := range reviews {
		if r.Replied {
			analytics.RepliedReviews++
		}
		ratingSum += r.Rating
		analytics.PlatformBreakdown[r.Platform]++
		if r.Rating >= 1 && r.Rating <= 5 {
			analytics.RatingDistribution[strconv.Itoa(r.Rating)]++
		}
		sentiment := r.Sentiment
		if sentiment == "" {
			sentiment = reply.Classify(r.Rating, r.Text)
		}
		analytics.SentimentBreakdown[sentiment]++
	}

	total := float64(len(reviews))
	analytics.ResponseRate = roundOneDecimal(float64(analytics.RepliedReviews) / total * 100)
	analytics.AverageRating = roundOneDecimal(float64(ratingSum) / total)

	return analytics
}

func (s *ReviewService) invalidateAnalytics(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to invalidate analytics cache")
	}
}

// publishReviewEvent - ошибки Kafka не прерывают операцию, запись уже сохранена
func (s *ReviewService) publishReviewEvent(ctx context.Context, eventType string, review *entity.Review) {
	event := entity.ReviewEvent{
		EventType: eventType,
		ReviewID:  review.ID.Hex(),
		UserID:    review.UserID,
		Platform:  review.Platform,
		Rating:    review.Rating,
		Timestamp: s.now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal review event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, review.UserID, data); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Str("review_id", event.ReviewID).Msg("Failed to publish review event")
	}
}
