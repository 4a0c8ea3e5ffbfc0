//go:build integration

package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/messaging"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/cache"
	"tastyreply/reviews-service/internal/app/reviews/reply"
	"tastyreply/reviews-service/internal/app/reviews/repository"
	"tastyreply/reviews-service/internal/app/reviews/service"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewsIntegrationTestSuite гоняет сервисы поверх настоящей MongoDB
type ReviewsIntegrationTestSuite struct {
	suite.Suite
	client            *mongo.Client
	db                *mongo.Database
	reviewRepo        repository.ReviewRepository
	reviewService     *service.ReviewService
	generationService *service.GenerationService
	testUserID        string
}

func TestReviewsIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ReviewsIntegrationTestSuite))
}

func (s *ReviewsIntegrationTestSuite) SetupSuite() {
	mongoURI := getEnv("TEST_MONGODB_URI", "mongodb://localhost:27018")
	dbName := getEnv("TEST_MONGODB_DATABASE", "tastyreply_test_db")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	s.client, err = mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	s.Require().NoError(err)
	s.Require().NoError(s.client.Ping(ctx, nil))

	s.db = s.client.Database(dbName)
}

func (s *ReviewsIntegrationTestSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.db.Drop(ctx))

	// Индексы создаются в конструкторах, поэтому пересоздаём репозитории после Drop
	s.reviewRepo = repository.NewReviewRepository(s.db)
	sessionRepo := repository.NewSessionRepository(s.db)

	s.reviewService = service.NewReviewService(s.reviewRepo, sessionRepo, messaging.NoopPublisher{}, cache.NoopAnalyticsCache{}, service.ReviewServiceConfig{})
	s.generationService = service.NewGenerationService(s.reviewRepo, sessionRepo, reply.NewGenerator(nil, nil))
	s.testUserID = "test-user-" + primitive.NewObjectID().Hex()
}

func (s *ReviewsIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.client.Disconnect(ctx)
	}
}

func (s *ReviewsIntegrationTestSuite) item(id string, rating int) entity.ImportReviewItem {
	date := time.Now().UTC().Truncate(time.Millisecond)
	return entity.ImportReviewItem{
		Platform:         entity.PlatformGoogle,
		PlatformReviewID: id,
		CustomerName:     "Sarah",
		Rating:           rating,
		Text:             "The pasta was amazing",
		ReviewDate:       &date,
	}
}

func (s *ReviewsIntegrationTestSuite) TestIngest_Idempotent() {
	ctx := context.Background()
	items := []entity.ImportReviewItem{s.item("r1", 5), s.item("r2", 2)}

	first, err := s.reviewService.IngestReviews(ctx, s.testUserID, items)
	s.Require().NoError(err)
	s.Equal(2, first.Created)

	second, err := s.reviewService.IngestReviews(ctx, s.testUserID, items)
	s.Require().NoError(err)
	s.Equal(2, second.Updated)

	count, err := s.reviewRepo.CountByUser(ctx, s.testUserID)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *ReviewsIntegrationTestSuite) TestResyncKeepsReply() {
	ctx := context.Background()
	_, err := s.reviewService.IngestReviews(ctx, s.testUserID, []entity.ImportReviewItem{s.item("r1", 4)})
	s.Require().NoError(err)

	reviews, _, err := s.reviewService.ListReviews(ctx, s.testUserID)
	s.Require().NoError(err)
	_, err = s.reviewService.AttachReply(ctx, s.testUserID, "Owner", reviews[0].ID.Hex(), "Thank you!")
	s.Require().NoError(err)

	_, err = s.reviewService.IngestReviews(ctx, s.testUserID, []entity.ImportReviewItem{s.item("r1", 4)})
	s.Require().NoError(err)

	stored, err := s.reviewRepo.GetByID(ctx, reviews[0].ID.Hex())
	s.Require().NoError(err)
	s.True(stored.Replied)
	s.Require().NotNil(stored.Reply)
	s.Equal("Thank you!", stored.Reply.Text)
}

func (s *ReviewsIntegrationTestSuite) TestAttachReply_CrossUserAndConcurrent() {
	ctx := context.Background()
	_, err := s.reviewService.IngestReviews(ctx, s.testUserID, []entity.ImportReviewItem{s.item("r1", 2)})
	s.Require().NoError(err)
	reviews, _, err := s.reviewService.ListReviews(ctx, s.testUserID)
	s.Require().NoError(err)
	reviewID := reviews[0].ID.Hex()

	_, err = s.reviewService.AttachReply(ctx, "someone-else", "X", reviewID, "Not mine")
	s.ErrorIs(err, service.ErrForbidden)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.reviewService.AttachReply(ctx, s.testUserID, "Owner", reviewID, "Sorry about that")
			s.NoError(err)
		}()
	}
	wg.Wait()

	count, err := s.reviewRepo.CountByUser(ctx, s.testUserID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *ReviewsIntegrationTestSuite) TestGenerationSession() {
	ctx := context.Background()
	_, err := s.reviewService.IngestReviews(ctx, s.testUserID, []entity.ImportReviewItem{s.item("r1", 1)})
	s.Require().NoError(err)
	reviews, _, err := s.reviewService.ListReviews(ctx, s.testUserID)
	s.Require().NoError(err)

	session, err := s.generationService.GenerateForReview(ctx, s.testUserID, reviews[0].ID.Hex(), entity.BusinessInfo{})
	s.Require().NoError(err)
	s.Len(session.GeneratedReplies, 4)

	again, err := s.generationService.GenerateForReview(ctx, s.testUserID, reviews[0].ID.Hex(), entity.BusinessInfo{})
	s.Require().NoError(err)
	s.Equal(session.ID, again.ID)

	saved, err := s.generationService.SaveSelection(ctx, s.testUserID, again.ID.Hex(), &entity.SaveReplyRequest{FinalReply: "We are sorry"})
	s.Require().NoError(err)
	s.Equal("We are sorry", saved.FinalReply)
}

func (s *ReviewsIntegrationTestSuite) TestPing() {
	s.NoError(s.reviewService.Ping(context.Background()))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
