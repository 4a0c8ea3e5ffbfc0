package handler

import (
	"errors"
	"net/http"
	"strings"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// exposeErrors - отдавать ли текст внутренних ошибок клиенту (выключено в production)
var exposeErrors = true

func SetProductionMode(production bool) {
	exposeErrors = !production
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, entity.DataResponse{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, entity.DataResponse{Success: true, Message: message, Data: data})
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, entity.ErrorResponse{Success: false, Error: message})
}

// respondError переводит ошибку сервиса в HTTP статус.
// fallback - текст для 500, детали уходят только в лог.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: validationMessage(err)})
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Review not found"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "AI reply not found"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "User not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrPlatformNotConnected):
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Google authentication required"})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid OAuth state"})
	case errors.Is(err, service.ErrUpstream):
		resp := entity.ErrorResponse{Error: fallback}
		if exposeErrors {
			resp.Message = err.Error()
		}
		c.JSON(http.StatusBadGateway, resp)
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		resp := entity.ErrorResponse{Error: fallback}
		if exposeErrors {
			resp.Message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	if msg == "" || msg == service.ErrValidation.Error() {
		return "Validation failed"
	}
	return msg
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}

// userFromContext достаёт данные, положенные AuthMiddleware
func userFromContext(c *gin.Context) (userID, name string, ok bool) {
	userID = c.GetString("user_id")
	if userID == "" {
		abortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return "", "", false
	}
	return userID, c.GetString("name"), true
}
