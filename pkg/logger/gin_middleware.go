package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// GinLoggerMiddleware пишет одну запись на каждый HTTP запрос.
// Уровень зависит от статуса ответа: 5xx - error, 4xx - warn.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()

		event := Info()
		if status >= 500 {
			event = Error()
		} else if status >= 400 {
			event = Warn()
		}

		event = event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", c.Request.URL.RawQuery).
			Str("remote_addr", c.ClientIP()).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Float64("duration_ms", float64(time.Since(start).Microseconds())/1000)

		if userID := c.GetString("user_id"); userID != "" {
			event = event.Str("user_id", userID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}
