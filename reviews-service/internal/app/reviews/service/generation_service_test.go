package service

import (
	"context"
	"errors"
	"testing"

	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/reply"
	"tastyreply/reviews-service/internal/app/reviews/repository"
	"tastyreply/reviews-service/internal/app/reviews/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubCompleter struct {
	text string
	err  error
}

func (c stubCompleter) Complete(context.Context, reply.CompletionRequest) (string, error) {
	return c.text, c.err
}

func seedReview(t *testing.T, repo repository.ReviewRepository, userID string) *entity.Review {
	t.Helper()
	stored, _, err := repo.Upsert(context.Background(), &entity.Review{
		UserID:           userID,
		Platform:         entity.PlatformGoogle,
		PlatformReviewID: "g1",
		CustomerName:     "Maria",
		Rating:           2,
		Text:             "Cold soup",
		ReviewDate:       fixedNow,
	})
	require.NoError(t, err)
	return stored
}

func TestGenerateForReview_SavesSession(t *testing.T) {
	reviewRepo := repository.NewMemoryReviewRepository()
	sessionRepo := repository.NewMemorySessionRepository()
	generator := reply.NewGenerator(stubCompleter{text: "Sorry about the soup."}, nil)
	svc := NewGenerationService(reviewRepo, sessionRepo, generator)
	ctx := context.Background()
	review := seedReview(t, reviewRepo, "owner")

	session, err := svc.GenerateForReview(ctx, "owner", review.ID.Hex(), entity.BusinessInfo{BusinessName: "Trattoria"})

	require.NoError(t, err)
	assert.False(t, session.ID.IsZero())
	assert.Equal(t, review.ID.Hex(), session.ReviewID)
	require.Len(t, session.GeneratedReplies, len(entity.Tones()))
	for i, tone := range entity.Tones() {
		assert.Equal(t, tone, session.GeneratedReplies[i].Tone)
		assert.Equal(t, entity.SourceAI, session.GeneratedReplies[i].Source)
	}

	// повторная генерация перезаписывает ту же сессию
	again, err := svc.GenerateForReview(ctx, "owner", review.ID.Hex(), entity.BusinessInfo{})
	require.NoError(t, err)
	assert.Equal(t, session.ID, again.ID)
}

func TestGenerateForReview_FallbackWhenCompletionFails(t *testing.T) {
	reviewRepo := repository.NewMemoryReviewRepository()
	generator := reply.NewGenerator(stubCompleter{err: errors.New("quota exceeded")}, nil)
	svc := NewGenerationService(reviewRepo, repository.NewMemorySessionRepository(), generator)
	review := seedReview(t, reviewRepo, "owner")

	session, err := svc.GenerateForReview(context.Background(), "owner", review.ID.Hex(), entity.BusinessInfo{})

	require.NoError(t, err)
	for _, candidate := range session.GeneratedReplies {
		assert.Equal(t, entity.SourceFallback, candidate.Source)
		assert.Contains(t, candidate.Text, "Maria")
	}
}

func TestGenerateForReview_Errors(t *testing.T) {
	reviewRepo := repository.NewMemoryReviewRepository()
	sessionRepo := new(mocks.MockSessionRepository)
	svc := NewGenerationService(reviewRepo, sessionRepo, reply.NewGenerator(stubCompleter{text: "ok"}, nil))
	review := seedReview(t, reviewRepo, "owner")

	_, err := svc.GenerateForReview(context.Background(), "intruder", review.ID.Hex(), entity.BusinessInfo{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GenerateForReview(context.Background(), "owner", primitive.NewObjectID().Hex(), entity.BusinessInfo{})
	assert.ErrorIs(t, err, ErrReviewNotFound)

	sessionRepo.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("db error"))
	_, err = svc.GenerateForReview(context.Background(), "owner", review.ID.Hex(), entity.BusinessInfo{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestGenerateAdHoc(t *testing.T) {
	svc := NewGenerationService(nil, nil, reply.NewGenerator(stubCompleter{text: "Thank you!"}, nil))
	ctx := context.Background()

	all, err := svc.GenerateAdHoc(ctx, &entity.GenerateReplyRequest{
		ReviewText: "Lovely evening", Rating: 5, CustomerName: "Ann", AllTones: true,
	})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	one, err := svc.GenerateAdHoc(ctx, &entity.GenerateReplyRequest{
		ReviewText: "Lovely evening", Rating: 5, CustomerName: "Ann", Tone: "enthusiastic",
	})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, entity.ToneEnthusiastic, one[0].Tone)

	defaulted, err := svc.GenerateAdHoc(ctx, &entity.GenerateReplyRequest{
		ReviewText: "Awful", Rating: 1, CustomerName: "Ann",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ToneApologetic, defaulted[0].Tone)

	_, err = svc.GenerateAdHoc(ctx, &entity.GenerateReplyRequest{ReviewText: "  ", Rating: 3})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GenerateAdHoc(ctx, &entity.GenerateReplyRequest{ReviewText: "ok", Rating: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSaveSelection(t *testing.T) {
	sessionRepo := new(mocks.MockSessionRepository)
	svc := NewGenerationService(nil, sessionRepo, nil)
	ctx := context.Background()

	resolved := &entity.GenerationSession{FinalReply: "Thanks a lot", Edited: true}
	sessionRepo.On("Resolve", mock.Anything, "s1", "owner", "Thanks", true, "Thanks a lot").Return(resolved, nil)
	sessionRepo.On("Resolve", mock.Anything, "s2", "owner", "", false, "Hi").Return(nil, repository.ErrSessionNotFound)

	session, err := svc.SaveSelection(ctx, "owner", "s1", &entity.SaveReplyRequest{SelectedReply: "Thanks", Edited: true, FinalReply: " Thanks a lot "})
	require.NoError(t, err)
	assert.Same(t, resolved, session)

	_, err = svc.SaveSelection(ctx, "owner", "s2", &entity.SaveReplyRequest{FinalReply: "Hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.SaveSelection(ctx, "owner", "s1", &entity.SaveReplyRequest{FinalReply: " "})
	assert.ErrorIs(t, err, ErrValidation)

	sessionRepo.AssertExpectations(t)
}
