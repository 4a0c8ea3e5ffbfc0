package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GinPrometheusMiddleware собирает http_requests_total и http_request_duration_seconds.
// Путь берётся из шаблона маршрута (/api/reviews/:id/reply), а не из URL,
// чтобы id отзывов не раздували кардинальность.
func GinPrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()

		HttpRequestsInFlight.WithLabelValues(serviceName).Inc()
		defer HttpRequestsInFlight.WithLabelValues(serviceName).Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := normalizePath(c.FullPath())

		HttpRequestsTotal.WithLabelValues(serviceName, c.Request.Method, path, status).Inc()
		HttpRequestDuration.WithLabelValues(serviceName, c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func normalizePath(route string) string {
	if route == "" {
		return "unmatched"
	}
	if len(route) > 100 {
		return route[:100]
	}
	return route
}
