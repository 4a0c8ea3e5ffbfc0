package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthServiceInterface
	frontendURL string
}

func NewAuthHandler(authService service.AuthServiceInterface, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	authURL, err := h.authService.LoginURL(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to initiate OAuth")
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback всегда заканчивается редиректом на фронтенд: токен или код ошибки
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if oauthErr := c.Query("error"); oauthErr != "" {
		h.redirectError(c, oauthErr)
		return
	}

	token, err := h.authService.HandleCallback(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		logger.Warn().Err(err).Msg("Google OAuth callback failed")
		h.redirectError(c, callbackErrorCode(err))
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/dashboard?token="+url.QueryEscape(token))
}

func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, service.ErrValidation):
		return "missing_code"
	case errors.Is(err, service.ErrUpstream):
		return "google_error"
	default:
		return "server_error"
	}
}

func (h *AuthHandler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.frontendURL+"/auth-error?error="+url.QueryEscape(code))
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, _, ok := userFromContext(c)
	if !ok {
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, entity.UserResponse{Success: true, User: user})
}

// Pinger - проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// Health отвечает 200 даже без базы, состояние видно в поле database
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	database := "connected"
	if err := h.db.Ping(ctx); err != nil {
		database = "disconnected"
	}

	c.JSON(http.StatusOK, entity.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  database,
	})
}
