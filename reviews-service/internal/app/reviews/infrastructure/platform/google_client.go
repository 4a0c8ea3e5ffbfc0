package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/entity"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	reviewsPageSize = 50
	maxReviewPages  = 10
	anonymousName   = "Anonymous"
)

// Endpoints - базовые адреса API Google Business Profile
type Endpoints struct {
	Accounts string
	Info     string
	Reviews  string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Accounts: "https://mybusinessaccountmanagement.googleapis.com/v1",
		Info:     "https://mybusinessbusinessinformation.googleapis.com/v1",
		Reviews:  "https://mybusiness.googleapis.com/v4",
	}
}

// GoogleClient клиент Google Business Profile.
// Все запросы идут через общий лимитер, токены обновляются через oauth2.
type GoogleClient struct {
	oauth     *oauth2.Config
	endpoints Endpoints
	limiter   *rate.Limiter
	timeout   time.Duration
}

func NewGoogleClient(oauthConfig *oauth2.Config, endpoints Endpoints, limiter *rate.Limiter, timeout time.Duration) *GoogleClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleClient{
		oauth:     oauthConfig,
		endpoints: endpoints,
		limiter:   limiter,
		timeout:   timeout,
	}
}

type account struct {
	Name        string `json:"name"`
	AccountName string `json:"accountName"`
}

type location struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type googleReview struct {
	Name     string `json:"name"`
	ReviewID string `json:"reviewId"`
	Reviewer struct {
		DisplayName string `json:"displayName"`
	} `json:"reviewer"`
	StarRating string `json:"starRating"`
	Comment    string `json:"comment"`
	CreateTime string `json:"createTime"`
}

var starRatings = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

// StarRating переводит перечисление Google в число, 0 - неизвестное значение
func StarRating(value string) int {
	return starRatings[value]
}

type session struct {
	client *http.Client
	source oauth2.TokenSource
}

func (c *GoogleClient) session(ctx context.Context, tokens entity.OAuthTokens) *session {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: c.timeout})
	source := c.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		Expiry:       tokens.Expiry,
	})
	return &session{client: oauth2.NewClient(ctx, source), source: source}
}

// currentTokens - токены после возможного обновления во время запросов
func (s *session) currentTokens(fallback entity.OAuthTokens) entity.OAuthTokens {
	tok, err := s.source.Token()
	if err != nil {
		return fallback
	}
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = fallback.RefreshToken
	}
	return entity.OAuthTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: refresh,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
}

// FetchReviews обходит аккаунты -> локации -> отзывы.
// Ошибка по отдельной локации не прерывает синхронизацию остальных.
func (c *GoogleClient) FetchReviews(ctx context.Context, tokens entity.OAuthTokens) ([]entity.ImportReviewItem, entity.OAuthTokens, error) {
	s := c.session(ctx, tokens)

	accounts, err := c.listAccounts(ctx, s)
	if err != nil {
		return nil, tokens, err
	}

	items := make([]entity.ImportReviewItem, 0)
	for _, acc := range accounts {
		locations, err := c.listLocations(ctx, s, acc.Name)
		if err != nil {
			logger.Warn().Err(err).Str("account", acc.Name).Msg("Failed to list Google locations")
			continue
		}

		for _, loc := range locations {
			parent := loc.Name
			if !strings.HasPrefix(parent, "accounts/") {
				parent = acc.Name + "/" + loc.Name
			}

			reviews, err := c.listReviews(ctx, s, parent)
			if err != nil {
				logger.Warn().Err(err).Str("location", parent).Msg("Failed to list Google reviews")
				continue
			}
			items = append(items, toImportItems(parent, reviews)...)
		}
	}

	return items, s.currentTokens(tokens), nil
}

// ReplyToReview публикует ответ; platformReviewID - полное имя ресурса отзыва
func (c *GoogleClient) ReplyToReview(ctx context.Context, tokens entity.OAuthTokens, platformReviewID, text string) error {
	s := c.session(ctx, tokens)

	body, err := json.Marshal(map[string]string{"comment": text})
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/reply", c.endpoints.Reviews, platformReviewID)
	return c.do(ctx, s, http.MethodPut, endpoint, bytes.NewReader(body), nil)
}

func toImportItems(parent string, reviews []googleReview) []entity.ImportReviewItem {
	items := make([]entity.ImportReviewItem, 0, len(reviews))
	for _, r := range reviews {
		rating := StarRating(r.StarRating)
		if rating == 0 {
			logger.Debug().Str("review", r.Name).Str("star_rating", r.StarRating).Msg("Skipping review without star rating")
			continue
		}

		name := r.Name
		if name == "" {
			name = parent + "/reviews/" + r.ReviewID
		}

		customer := r.Reviewer.DisplayName
		if customer == "" {
			customer = anonymousName
		}

		item := entity.ImportReviewItem{
			Platform:         entity.PlatformGoogle,
			PlatformReviewID: name,
			BusinessID:       parent,
			CustomerName:     customer,
			Rating:           rating,
			Text:             r.Comment,
		}
		if created, err := time.Parse(time.RFC3339, r.CreateTime); err == nil {
			item.ReviewDate = &created
		}
		items = append(items, item)
	}
	return items
}

func (c *GoogleClient) listAccounts(ctx context.Context, s *session) ([]account, error) {
	var resp struct {
		Accounts []account `json:"accounts"`
	}
	if err := c.do(ctx, s, http.MethodGet, c.endpoints.Accounts+"/accounts", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return resp.Accounts, nil
}

func (c *GoogleClient) listLocations(ctx context.Context, s *session, accountName string) ([]location, error) {
	var resp struct {
		Locations []location `json:"locations"`
	}
	endpoint := fmt.Sprintf("%s/%s/locations?readMask=name,title", c.endpoints.Info, accountName)
	if err := c.do(ctx, s, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return resp.Locations, nil
}

func (c *GoogleClient) listReviews(ctx context.Context, s *session, parent string) ([]googleReview, error) {
	reviews := make([]googleReview, 0)
	pageToken := ""

	for page := 0; page < maxReviewPages; page++ {
		query := url.Values{}
		query.Set("pageSize", fmt.Sprint(reviewsPageSize))
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var resp struct {
			Reviews       []googleReview `json:"reviews"`
			NextPageToken string         `json:"nextPageToken"`
		}
		endpoint := fmt.Sprintf("%s/%s/reviews?%s", c.endpoints.Reviews, parent, query.Encode())
		if err := c.do(ctx, s, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", err)
		}

		reviews = append(reviews, resp.Reviews...)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return reviews, nil
}

// APIError - ответ Google с неуспешным статусом
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google api returned status %d: %s", e.StatusCode, e.Body)
}

func (c *GoogleClient) do(ctx context.Context, s *session, method, endpoint string, body io.Reader, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
