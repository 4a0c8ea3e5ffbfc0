package handler

import (
	"net/http"
	"strings"

	"tastyreply/reviews-service/internal/app/reviews/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// AuthMiddleware проверяет JWT токен в запросах для Gin
type AuthMiddleware struct {
	jwtManager *util.JWTManager
}

func NewAuthMiddleware(jwtManager *util.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// Authenticate проверяет Bearer токен и добавляет данные пользователя в контекст Gin.
// Нет токена - 401, токен не прошёл проверку - 403.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortWithError(c, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			_ = c.Error(err)
			abortWithError(c, http.StatusForbidden, "Invalid token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("name", claims.Name)

		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RateLimit - общий token bucket на весь сервис
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			abortWithError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
