package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tastyreply/pkg/logger"
	"tastyreply/pkg/metrics"
	"tastyreply/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionsCollection = "ai_replies"

type sessionRepository struct {
	collection *mongo.Collection
}

// NewSessionRepository создает репозиторий сессий генерации.
// Уникальный индекс (review_id, user_id): повторная генерация перезаписывает сессию.
func NewSessionRepository(db *mongo.Database) SessionRepository {
	collection := db.Collection(sessionsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "review_id", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetName("review_user_uniq").SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Str("collection", sessionsCollection).Msg("Failed to create index")
	}

	return newSessionRepository(collection)
}

func newSessionRepository(collection *mongo.Collection) *sessionRepository {
	return &sessionRepository{collection: collection}
}

// Save заменяет варианты и сбрасывает прежний выбор оператора
func (r *sessionRepository) Save(ctx context.Context, session *entity.GenerationSession) (*entity.GenerationSession, error) {
	now := time.Now().UTC()
	filter := bson.M{"review_id": session.ReviewID, "user_id": session.UserID}
	update := bson.M{
		"$set": bson.M{
			"generated_replies": session.GeneratedReplies,
			"edited":            false,
			"posted":            false,
			"updated_at":        now,
		},
		"$unset": bson.M{
			"selected_reply": "",
			"final_reply":    "",
			"posted_at":      "",
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, sessionsCollection)
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to save generation session: %w", err)
	}

	var stored entity.GenerationSession
	if err := r.collection.FindOne(ctx, filter).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to read generation session: %w", err)
	}
	return &stored, nil
}

func (r *sessionRepository) Resolve(ctx context.Context, sessionID, userID, selected string, edited bool, final string) (*entity.GenerationSession, error) {
	objectID, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	filter := bson.M{"_id": objectID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"selected_reply": selected,
			"edited":         edited,
			"final_reply":    final,
			"updated_at":     time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, sessionsCollection)
	var session entity.GenerationSession
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			timer.Done(nil)
			return nil, ErrSessionNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to resolve generation session: %w", err)
	}
	timer.Done(nil)

	return &session, nil
}

func (r *sessionRepository) GetByReview(ctx context.Context, reviewID, userID string) (*entity.GenerationSession, error) {
	var session entity.GenerationSession
	err := r.collection.FindOne(ctx, bson.M{"review_id": reviewID, "user_id": userID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get generation session: %w", err)
	}
	return &session, nil
}

// MarkPosted - без сессии ничего не делает
func (r *sessionRepository) MarkPosted(ctx context.Context, reviewID, userID string, at time.Time) error {
	filter := bson.M{"review_id": reviewID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"posted":     true,
			"posted_at":  at,
			"updated_at": time.Now().UTC(),
		},
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, sessionsCollection)
	_, err := r.collection.UpdateOne(ctx, filter, update)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to mark session posted: %w", err)
	}
	return nil
}
