package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Хранилища в памяти используются, когда MongoDB недоступна.
// Контракт тот же, что у Mongo-реализаций; наружу отдаются только копии.

type reviewKey struct {
	platform         entity.Platform
	platformReviewID string
	userID           string
}

type memoryReviewRepository struct {
	mu    sync.RWMutex
	byID  map[primitive.ObjectID]*entity.Review
	byKey map[reviewKey]primitive.ObjectID
}

func NewMemoryReviewRepository() ReviewRepository {
	return &memoryReviewRepository{
		byID:  make(map[primitive.ObjectID]*entity.Review),
		byKey: make(map[reviewKey]primitive.ObjectID),
	}
}

func cloneReview(r *entity.Review) *entity.Review {
	c := *r
	if r.Reply != nil {
		reply := *r.Reply
		c.Reply = &reply
	}
	if r.Keywords != nil {
		c.Keywords = append([]string(nil), r.Keywords...)
	}
	return &c
}

func (r *memoryReviewRepository) Upsert(ctx context.Context, review *entity.Review) (*entity.Review, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	key := reviewKey{platform: review.Platform, platformReviewID: review.PlatformReviewID, userID: review.UserID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[key]; ok {
		stored := r.byID[id]
		stored.BusinessID = review.BusinessID
		stored.CustomerName = review.CustomerName
		stored.Rating = review.Rating
		stored.Text = review.Text
		stored.ReviewDate = review.ReviewDate
		stored.Sentiment = review.Sentiment
		stored.Keywords = append([]string(nil), review.Keywords...)
		stored.SyncedAt = now
		stored.UpdatedAt = now
		return cloneReview(stored), false, nil
	}

	stored := cloneReview(review)
	stored.ID = primitive.NewObjectID()
	stored.Replied = false
	stored.Reply = nil
	stored.SyncedAt = now
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byKey[key] = stored.ID
	return cloneReview(stored), true, nil
}

func (r *memoryReviewRepository) AttachReply(ctx context.Context, reviewID, userID string, reply entity.Reply) (*entity.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectID, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	now := time.Now().UTC()
	if reply.Date.IsZero() {
		reply.Date = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[objectID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	if stored.UserID != userID {
		return nil, ErrForbidden
	}

	stored.Replied = true
	stored.Reply = &reply
	stored.UpdatedAt = now
	return cloneReview(stored), nil
}

func (r *memoryReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[objectID]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return cloneReview(stored), nil
}

func (r *memoryReviewRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]entity.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	reviews := make([]entity.Review, 0)
	for _, stored := range r.byID {
		if stored.UserID == userID {
			reviews = append(reviews, *cloneReview(stored))
		}
	}
	r.mu.RUnlock()

	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].ReviewDate.Equal(reviews[j].ReviewDate) {
			return reviews[i].ReviewDate.After(reviews[j].ReviewDate)
		}
		return reviews[i].ID.Hex() > reviews[j].ID.Hex()
	})

	if limit > 0 && int64(len(reviews)) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

func (r *memoryReviewRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, stored := range r.byID {
		if stored.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memoryReviewRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

type sessionKey struct {
	reviewID string
	userID   string
}

type memorySessionRepository struct {
	mu       sync.Mutex
	byID     map[primitive.ObjectID]*entity.GenerationSession
	byReview map[sessionKey]primitive.ObjectID
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{
		byID:     make(map[primitive.ObjectID]*entity.GenerationSession),
		byReview: make(map[sessionKey]primitive.ObjectID),
	}
}

func cloneSession(s *entity.GenerationSession) *entity.GenerationSession {
	c := *s
	c.GeneratedReplies = append([]entity.ReplyCandidate(nil), s.GeneratedReplies...)
	if s.PostedAt != nil {
		at := *s.PostedAt
		c.PostedAt = &at
	}
	return &c
}

func (r *memorySessionRepository) Save(ctx context.Context, session *entity.GenerationSession) (*entity.GenerationSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	key := sessionKey{reviewID: session.ReviewID, userID: session.UserID}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[r.byReview[key]]
	if !ok {
		stored = &entity.GenerationSession{
			ID:        primitive.NewObjectID(),
			ReviewID:  session.ReviewID,
			UserID:    session.UserID,
			CreatedAt: now,
		}
		r.byID[stored.ID] = stored
		r.byReview[key] = stored.ID
	}

	stored.GeneratedReplies = append([]entity.ReplyCandidate(nil), session.GeneratedReplies...)
	stored.SelectedReply = ""
	stored.Edited = false
	stored.FinalReply = ""
	stored.Posted = false
	stored.PostedAt = nil
	stored.UpdatedAt = now
	return cloneSession(stored), nil
}

func (r *memorySessionRepository) Resolve(ctx context.Context, sessionID, userID, selected string, edited bool, final string) (*entity.GenerationSession, error) {
	objectID, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[objectID]
	if !ok || stored.UserID != userID {
		return nil, ErrSessionNotFound
	}

	stored.SelectedReply = selected
	stored.Edited = edited
	stored.FinalReply = final
	stored.UpdatedAt = time.Now().UTC()
	return cloneSession(stored), nil
}

func (r *memorySessionRepository) GetByReview(ctx context.Context, reviewID, userID string) (*entity.GenerationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[r.byReview[sessionKey{reviewID: reviewID, userID: userID}]]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(stored), nil
}

func (r *memorySessionRepository) MarkPosted(ctx context.Context, reviewID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[r.byReview[sessionKey{reviewID: reviewID, userID: userID}]]
	if !ok {
		return nil
	}
	stored.Posted = true
	stored.PostedAt = &at
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[primitive.ObjectID]*entity.User
	byGoogleID map[string]primitive.ObjectID
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:       make(map[primitive.ObjectID]*entity.User),
		byGoogleID: make(map[string]primitive.ObjectID),
	}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.GoogleTokens != nil {
		tokens := *u.GoogleTokens
		c.GoogleTokens = &tokens
	}
	return &c
}

func mergeTokens(current *entity.OAuthTokens, incoming entity.OAuthTokens) *entity.OAuthTokens {
	merged := incoming
	if merged.RefreshToken == "" && current != nil {
		merged.RefreshToken = current.RefreshToken
	}
	return &merged
}

func (r *memoryUserRepository) UpsertGoogleUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[r.byGoogleID[user.GoogleID]]
	if !ok {
		stored = &entity.User{
			ID:        primitive.NewObjectID(),
			GoogleID:  user.GoogleID,
			CreatedAt: now,
		}
		r.byID[stored.ID] = stored
		r.byGoogleID[user.GoogleID] = stored.ID
	}

	stored.Email = user.Email
	stored.Name = user.Name
	stored.Picture = user.Picture
	stored.LastLogin = now
	if user.GoogleTokens != nil {
		stored.GoogleTokens = mergeTokens(stored.GoogleTokens, *user.GoogleTokens)
	}
	return cloneUser(stored), nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[objectID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(stored), nil
}

func (r *memoryUserRepository) ListWithTokens(ctx context.Context) ([]entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]entity.User, 0)
	for _, stored := range r.byID {
		if stored.GoogleTokens != nil && stored.GoogleTokens.AccessToken != "" {
			users = append(users, *cloneUser(stored))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.Hex() < users[j].ID.Hex() })
	return users, nil
}

func (r *memoryUserRepository) UpdateTokens(ctx context.Context, userID string, tokens entity.OAuthTokens) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[objectID]
	if !ok {
		return ErrUserNotFound
	}
	stored.GoogleTokens = mergeTokens(stored.GoogleTokens, tokens)
	return nil
}
