package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tastyreply/reviews-service/internal/app/reviews/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var Scopes = []string{
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/business.manage",
}

// NewOAuthConfig - конфигурация OAuth2 клиента Google
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// GoogleOAuth - обмен кода авторизации и чтение профиля
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleOAuth(config *oauth2.Config, userInfoURL string) *GoogleOAuth {
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	return &GoogleOAuth{
		config:      config,
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL запрашивает offline-доступ: без refresh token фоновая синхронизация невозможна
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*entity.OAuthTokens, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &entity.OAuthTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}, nil
}

func (g *GoogleOAuth) FetchProfile(ctx context.Context, tokens *entity.OAuthTokens) (*entity.GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var profile entity.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("userinfo response has no id")
	}

	return &profile, nil
}
