package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tastyreply/reviews-service/internal/app/reviews/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *GoogleClient {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	endpoints := Endpoints{Accounts: server.URL + "/acc", Info: server.URL + "/info", Reviews: server.URL + "/v4"}
	return NewGoogleClient(&oauth2.Config{ClientID: "id"}, endpoints, rate.NewLimiter(rate.Inf, 1), 0)
}

func TestStarRating(t *testing.T) {
	assert.Equal(t, 1, StarRating("ONE"))
	assert.Equal(t, 3, StarRating("THREE"))
	assert.Equal(t, 5, StarRating("FIVE"))
	assert.Equal(t, 0, StarRating("STAR_RATING_UNSPECIFIED"))
}

func TestGoogleClient_FetchReviews(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/acc/accounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"accounts": [{"name": "accounts/1"}]}`))
	})
	mux.HandleFunc("/info/accounts/1/locations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"locations": [{"name": "locations/10", "title": "Luigi"}, {"name": "locations/20"}]}`))
	})
	mux.HandleFunc("/v4/accounts/1/locations/10/reviews", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{
				"reviews": [
					{"name": "accounts/1/locations/10/reviews/a", "reviewer": {"displayName": "Sarah"}, "starRating": "FIVE", "comment": "Great!", "createTime": "2024-03-01T10:00:00Z"},
					{"name": "accounts/1/locations/10/reviews/b", "reviewer": {}, "starRating": "TWO"}
				],
				"nextPageToken": "p2"
			}`))
			return
		}
		_, _ = w.Write([]byte(`{"reviews": [{"reviewId": "c", "starRating": "STAR_RATING_UNSPECIFIED"}, {"reviewId": "d", "starRating": "THREE"}]}`))
	})
	mux.HandleFunc("/v4/accounts/1/locations/20/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client := newTestClient(t, mux)

	items, tokens, err := client.FetchReviews(context.Background(), entity.OAuthTokens{AccessToken: "access-1", RefreshToken: "refresh-1"})

	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, entity.PlatformGoogle, items[0].Platform)
	assert.Equal(t, "accounts/1/locations/10/reviews/a", items[0].PlatformReviewID)
	assert.Equal(t, "accounts/1/locations/10", items[0].BusinessID)
	assert.Equal(t, "Sarah", items[0].CustomerName)
	assert.Equal(t, 5, items[0].Rating)
	assert.Equal(t, "Great!", items[0].Text)
	require.NotNil(t, items[0].ReviewDate)
	assert.Equal(t, 2024, items[0].ReviewDate.Year())

	assert.Equal(t, "Anonymous", items[1].CustomerName)
	assert.Equal(t, 2, items[1].Rating)
	assert.Nil(t, items[1].ReviewDate)

	assert.Equal(t, "accounts/1/locations/10/reviews/d", items[2].PlatformReviewID)
	assert.Equal(t, 3, items[2].Rating)

	assert.Equal(t, "access-1", tokens.AccessToken)
	assert.Equal(t, "refresh-1", tokens.RefreshToken)
}

func TestGoogleClient_FetchReviewsAccountsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/acc/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid credentials"}`))
	})

	client := newTestClient(t, mux)

	_, _, err := client.FetchReviews(context.Background(), entity.OAuthTokens{AccessToken: "bad"})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestGoogleClient_ReplyToReview(t *testing.T) {
	var body map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/accounts/1/locations/10/reviews/a/reply", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"comment": "ok"}`))
	})

	client := newTestClient(t, mux)

	err := client.ReplyToReview(context.Background(), entity.OAuthTokens{AccessToken: "t"}, "accounts/1/locations/10/reviews/a", "Thank you!")

	require.NoError(t, err)
	assert.Equal(t, "Thank you!", body["comment"])
}

func TestGoogleClient_ReplyToReviewError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)

	err := client.ReplyToReview(context.Background(), entity.OAuthTokens{AccessToken: "t"}, "accounts/1/locations/10/reviews/a", "x")

	assert.Error(t, err)
}
