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

const usersCollection = "users"

type userRepository struct {
	collection *mongo.Collection
}

// NewUserRepository создает репозиторий пользователей с уникальным индексом по google_id
func NewUserRepository(db *mongo.Database) UserRepository {
	collection := db.Collection(usersCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "google_id", Value: 1}},
		Options: options.Index().SetName("google_id_uniq").SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Str("collection", usersCollection).Msg("Failed to create index")
	}

	return newUserRepository(collection)
}

func newUserRepository(collection *mongo.Collection) *userRepository {
	return &userRepository{collection: collection}
}

// tokenFields - refresh token Google выдаёт только при первом согласии,
// пустой не должен затирать сохранённый
func tokenFields(tokens entity.OAuthTokens) bson.M {
	fields := bson.M{
		"google_tokens.access_token": tokens.AccessToken,
		"google_tokens.token_type":   tokens.TokenType,
		"google_tokens.expiry":       tokens.Expiry,
	}
	if tokens.RefreshToken != "" {
		fields["google_tokens.refresh_token"] = tokens.RefreshToken
	}
	return fields
}

func (r *userRepository) UpsertGoogleUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	now := time.Now().UTC()
	filter := bson.M{"google_id": user.GoogleID}

	set := bson.M{
		"email":      user.Email,
		"name":       user.Name,
		"picture":    user.Picture,
		"last_login": now,
	}
	if user.GoogleTokens != nil {
		for k, v := range tokenFields(*user.GoogleTokens) {
			set[k] = v
		}
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, usersCollection)
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var stored entity.User
	if err := r.collection.FindOne(ctx, filter).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &stored, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user entity.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListWithTokens - пользователи, подключившие Google, для фоновой синхронизации
func (r *userRepository) ListWithTokens(ctx context.Context) ([]entity.User, error) {
	filter := bson.M{"google_tokens.access_token": bson.M{"$exists": true, "$ne": ""}}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpFind, usersCollection)
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]entity.User, 0)
	err = cursor.All(ctx, &users)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateTokens(ctx context.Context, userID string, tokens entity.OAuthTokens) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, usersCollection)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": tokenFields(tokens)})
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to update user tokens: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
