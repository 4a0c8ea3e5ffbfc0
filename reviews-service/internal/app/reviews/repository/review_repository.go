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
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const reviewsCollection = "reviews"

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает репозиторий отзывов и индексы коллекции.
// Уникальный составной индекс гарантирует отсутствие дублей при повторной синхронизации.
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection(reviewsCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "platform_review_id", Value: 1},
				{Key: "platform", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetName("platform_review_user_uniq").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "review_date", Value: -1},
			},
			Options: options.Index().SetName("user_review_date_idx"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Индексы могут уже существовать - не прерываем запуск
		logger.Warn().Err(err).Str("collection", reviewsCollection).Msg("Failed to create indexes")
	}

	return newReviewRepository(collection)
}

func newReviewRepository(collection *mongo.Collection) *reviewRepository {
	return &reviewRepository{collection: collection}
}

func (r *reviewRepository) Upsert(ctx context.Context, review *entity.Review) (*entity.Review, bool, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"platform":           review.Platform,
		"platform_review_id": review.PlatformReviewID,
		"user_id":            review.UserID,
	}
	update := bson.M{
		"$set": bson.M{
			"business_id":   review.BusinessID,
			"customer_name": review.CustomerName,
			"rating":        review.Rating,
			"text":          review.Text,
			"review_date":   review.ReviewDate,
			"sentiment":     review.Sentiment,
			"keywords":      review.Keywords,
			"synced_at":     now,
			"updated_at":    now,
		},
		// replied/reply только при вставке: повторная синхронизация не затирает ответ
		"$setOnInsert": bson.M{
			"replied":    false,
			"created_at": now,
		},
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, reviewsCollection)
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	timer.Done(err)
	if mongo.IsDuplicateKeyError(err) {
		// Параллельный upsert успел вставить документ, повтор обновит его
		timer = metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, reviewsCollection)
		result, err = r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		timer.Done(err)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert review: %w", err)
	}
	created := result.UpsertedID != nil

	timer = metrics.NewDbTimer(serviceName, metrics.DbOpFind, reviewsCollection)
	var stored entity.Review
	err = r.collection.FindOne(ctx, filter).Decode(&stored)
	timer.Done(err)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read upserted review: %w", err)
	}

	return &stored, created, nil
}

func (r *reviewRepository) AttachReply(ctx context.Context, reviewID, userID string, reply entity.Reply) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	now := time.Now().UTC()
	if reply.Date.IsZero() {
		reply.Date = now
	}

	filter := bson.M{"_id": objectID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"replied":    true,
			"reply":      reply,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsCollection)
	var updated entity.Review
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		timer.Done(nil)
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		timer.Done(err)
		return nil, fmt.Errorf("failed to attach reply: %w", err)
	}
	timer.Done(nil)

	// Совпадения нет: различаем отсутствующий отзыв и чужой
	owner := r.collection.FindOne(ctx, bson.M{"_id": objectID}, options.FindOne().SetProjection(bson.M{"user_id": 1}))
	if err := owner.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to check review owner: %w", err)
	}
	return nil, ErrForbidden
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpFind, reviewsCollection)
	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			timer.Done(nil)
			return nil, ErrReviewNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	timer.Done(nil)

	return &review, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]entity.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "review_date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpFind, reviewsCollection)
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]entity.Review, 0)
	err = cursor.All(ctx, &reviews)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpCount, reviewsCollection)
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	timer.Done(err)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

func (r *reviewRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}
