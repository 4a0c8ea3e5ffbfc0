package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/cache"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/messaging"
	"tastyreply/reviews-service/internal/app/reviews/reply"
	"tastyreply/reviews-service/internal/app/reviews/repository"
	"tastyreply/reviews-service/internal/app/reviews/repository/mocks"
	"tastyreply/reviews-service/internal/app/reviews/service"
	"tastyreply/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testFrontendURL = "http://localhost:3000"

type stubCompleter struct{}

func (stubCompleter) Complete(_ context.Context, req reply.CompletionRequest) (string, error) {
	return "Thank you for your review!", nil
}

type stubOAuthProvider struct{}

func (stubOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (stubOAuthProvider) Exchange(_ context.Context, code string) (*entity.OAuthTokens, error) {
	return &entity.OAuthTokens{AccessToken: "access-" + code}, nil
}

func (stubOAuthProvider) FetchProfile(context.Context, *entity.OAuthTokens) (*entity.GoogleProfile, error) {
	return &entity.GoogleProfile{ID: "g-1", Email: "owner@example.com", Name: "Owner"}, nil
}

type testEnv struct {
	router     *gin.Engine
	jwt        *util.JWTManager
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	states     *cache.MemoryStateStore
}

func newTestEnv(t *testing.T, limiter *rate.Limiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reviewRepo := repository.NewMemoryReviewRepository()
	sessionRepo := repository.NewMemorySessionRepository()
	userRepo := repository.NewMemoryUserRepository()
	states := cache.NewMemoryStateStore()
	jwtManager := util.NewJWTManager("handler-test-secret", time.Hour)

	reviewService := service.NewReviewService(reviewRepo, sessionRepo, messaging.NoopPublisher{}, cache.NoopAnalyticsCache{}, service.ReviewServiceConfig{DemoMode: true})
	generationService := service.NewGenerationService(reviewRepo, sessionRepo, reply.NewGenerator(stubCompleter{}, nil))
	syncService := service.NewSyncService(userRepo, new(mocks.MockReviewPlatform), reviewService, 1)
	authService := service.NewAuthService(stubOAuthProvider{}, userRepo, states, jwtManager, time.Minute)

	router := SetupRoutes(Handlers{
		Reviews: NewReviewHandler(reviewService, syncService),
		AI:      NewAIHandler(generationService),
		Auth:    NewAuthHandler(authService, testFrontendURL),
		Health:  NewHealthHandler(reviewService),
	}, NewAuthMiddleware(jwtManager), RouterConfig{FrontendURL: testFrontendURL, Limiter: limiter})

	return &testEnv{router: router, jwt: jwtManager, reviewRepo: reviewRepo, userRepo: userRepo, states: states}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(userID, "", userID+"@example.com", "Owner "+userID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedReview(t *testing.T, userID string) *entity.Review {
	t.Helper()
	stored, _, err := e.reviewRepo.Upsert(context.Background(), &entity.Review{
		UserID:           userID,
		Platform:         entity.PlatformYelp,
		PlatformReviewID: "yelp-1",
		CustomerName:     "Sarah",
		Rating:           2,
		Text:             "Cold food",
		ReviewDate:       time.Now().UTC(),
	})
	require.NoError(t, err)
	return stored
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/reviews", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "error": "No token provided"}, decode(t, w))

	w = env.do(t, http.MethodGet, "/api/reviews", "not-a-jwt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["error"])

	foreign, err := util.NewJWTManager("other-secret", time.Hour).GenerateToken("u1", "", "", "")
	require.NoError(t, err)
	w = env.do(t, http.MethodGet, "/api/reviews", foreign, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/unknown", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "error": "Endpoint not found"}, decode(t, w))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestListReviews_Demo(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/reviews", env.token(t, "user-1"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp entity.ReviewListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, service.SourceDemo, resp.Source)
	assert.Equal(t, service.DemoMessage, resp.Message)
}

func TestPostReply_UnknownReview(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/reviews/42/reply", env.token(t, "user-1"), map[string]string{"reply": "Thanks!"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "error": "Review not found"}, decode(t, w))
}

func TestPostReply_CrossUser(t *testing.T) {
	env := newTestEnv(t, nil)
	review := env.seedReview(t, "owner")

	w := env.do(t, http.MethodPost, "/api/reviews/"+review.ID.Hex()+"/reply", env.token(t, "intruder"), map[string]string{"reply": "Hi"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["error"])

	stored, err := env.reviewRepo.GetByID(context.Background(), review.ID.Hex())
	require.NoError(t, err)
	assert.False(t, stored.Replied)
}

func TestPostReply_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	review := env.seedReview(t, "owner")

	w := env.do(t, http.MethodPost, "/api/reviews/"+review.ID.Hex()+"/reply", env.token(t, "owner"), map[string]string{"reply": "Sorry, Sarah"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Reply posted successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["replied"])
	assert.Equal(t, "Owner owner", data["reply"].(map[string]interface{})["author"])
}

func TestPostReply_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	review := env.seedReview(t, "owner")

	w := env.do(t, http.MethodPost, "/api/reviews/"+review.ID.Hex()+"/reply", env.token(t, "owner"), map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Reply is required", decode(t, w)["error"])
}

func TestImportReviews(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "user-1")
	payload := map[string]interface{}{
		"reviews": []map[string]interface{}{
			{"platform": "google", "platformReviewId": "r1", "customerName": "Ann", "rating": 5, "text": "Lovely", "reviewDate": "2024-07-20T10:00:00Z"},
			{"platform": "yelp", "platformReviewId": "r2", "customerName": "Bob", "rating": 2, "text": "Slow"},
		},
	}

	w := env.do(t, http.MethodPost, "/api/reviews/import", token, payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"created": float64(2), "updated": float64(0)}, decode(t, w)["data"])

	w = env.do(t, http.MethodPost, "/api/reviews/import", token, payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"created": float64(0), "updated": float64(2)}, decode(t, w)["data"])

	bad := map[string]interface{}{"reviews": []map[string]interface{}{{"platform": "google", "platformReviewId": "r3", "rating": 0}}}
	w = env.do(t, http.MethodPost, "/api/reviews/import", token, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Rating is required", decode(t, w)["error"])
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedReview(t, "owner")

	w := env.do(t, http.MethodGet, "/api/analytics", env.token(t, "owner"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["totalReviews"])
	assert.Equal(t, float64(2), data["averageRating"])
}

func TestGenerateReply(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, "user-1")
	req := map[string]interface{}{"reviewText": "Great pizza", "rating": 5, "customerName": "Ann"}

	w := env.do(t, http.MethodPost, "/api/ai/generate-reply", token, req)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Thank you for your review!", data["reply"])
	assert.Equal(t, "friendly", data["tone"])

	req["allTones"] = true
	w = env.do(t, http.MethodPost, "/api/ai/generate-reply", token, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp entity.RepliesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Replies, 4)
	assert.Equal(t, entity.ToneProfessional, resp.Replies[0].Tone)

	w = env.do(t, http.MethodPost, "/api/ai/generate-reply", token, map[string]interface{}{"reviewText": "x", "rating": 9, "customerName": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateForReviewAndSave(t *testing.T) {
	env := newTestEnv(t, nil)
	review := env.seedReview(t, "owner")
	token := env.token(t, "owner")

	w := env.do(t, http.MethodPost, "/api/ai/generate-reply/"+review.ID.Hex(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp entity.RepliesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Replies, 4)
	require.NotEmpty(t, resp.AIReplyID)

	w = env.do(t, http.MethodPost, "/api/ai/save-reply/"+resp.AIReplyID, token, map[string]interface{}{
		"selectedReply": resp.Replies[2].Text, "edited": true, "finalReply": "We are sorry, Sarah.",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "We are sorry, Sarah.", data["finalReply"])
	assert.Equal(t, true, data["edited"])

	w = env.do(t, http.MethodPost, "/api/ai/save-reply/"+resp.AIReplyID, env.token(t, "intruder"), map[string]interface{}{"finalReply": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "AI reply not found", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/ai/generate-reply/"+review.ID.Hex(), env.token(t, "intruder"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSyncGoogle_NotConnected(t *testing.T) {
	env := newTestEnv(t, nil)
	user, err := env.userRepo.UpsertGoogleUser(context.Background(), &entity.User{GoogleID: "g-9", Email: "x@example.com"})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/sync/google", env.token(t, user.ID.Hex()), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Google authentication required", decode(t, w)["error"])
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t, nil)
	user, err := env.userRepo.UpsertGoogleUser(context.Background(), &entity.User{GoogleID: "g-9", Email: "x@example.com", Name: "X"})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/user", env.token(t, user.ID.Hex()), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "x@example.com", decode(t, w)["user"].(map[string]interface{})["email"])

	w = env.do(t, http.MethodGet, "/api/user", env.token(t, "000000000000000000000000"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoogleOAuthFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/auth/google", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	consent, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	w = env.do(t, http.MethodGet, "/auth/google/callback?code=abc&state="+state, "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, testFrontendURL+"/dashboard?token="), location)

	redirect, err := url.Parse(location)
	require.NoError(t, err)
	claims, err := env.jwt.ValidateToken(redirect.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", claims.Email)

	// state уже использован
	w = env.do(t, http.MethodGet, "/auth/google/callback?code=abc&state="+state, "", nil)
	assert.Equal(t, testFrontendURL+"/auth-error?error=invalid_state", w.Header().Get("Location"))

	w = env.do(t, http.MethodGet, "/auth/google/callback?error=access_denied", "", nil)
	assert.Equal(t, testFrontendURL+"/auth-error?error=access_denied", w.Header().Get("Location"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, rate.NewLimiter(rate.Every(time.Hour), 1))
	token := env.token(t, "user-1")

	w := env.do(t, http.MethodGet, "/api/reviews", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/reviews", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", decode(t, w)["error"])

	// health вне лимита
	w = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRespondError_ProductionHidesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetProductionMode(true)
	defer SetProductionMode(false)

	router := gin.New()
	router.GET("/boom", func(c *gin.Context) {
		respondError(c, assert.AnError, "Failed to fetch reviews")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "error": "Failed to fetch reviews"}, decode(t, w))
}
