package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"tastyreply/pkg/logger"
	"tastyreply/pkg/metrics"
)

const serviceName = "reviews-service"

type Handlers struct {
	Reviews *ReviewHandler
	AI      *AIHandler
	Auth    *AuthHandler
	Health  *HealthHandler
}

type RouterConfig struct {
	FrontendURL string
	Production  bool
	Limiter     *rate.Limiter
}

// SetupRoutes настраивает все маршруты сервиса
func SetupRoutes(h Handlers, authMiddleware *AuthMiddleware, cfg RouterConfig) *gin.Engine {
	SetProductionMode(cfg.Production)

	router := gin.New()

	router.Use(gin.Recovery())

	router.Use(logger.GinLoggerMiddleware())

	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Лимит не распространяется на health и metrics
	limited := router.Group("")
	if cfg.Limiter != nil {
		limited.Use(RateLimit(cfg.Limiter))
	}

	auth := limited.Group("/auth")
	{
		auth.GET("/google", h.Auth.GoogleLogin)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}

	api := limited.Group("/api")
	api.Use(authMiddleware.Authenticate())
	{
		api.GET("/user", h.Auth.Me)

		api.GET("/reviews", h.Reviews.ListReviews)
		api.POST("/reviews/import", h.Reviews.ImportReviews)
		api.GET("/reviews/:id", h.Reviews.GetReview)
		api.POST("/reviews/:id/reply", h.Reviews.PostReply)
		api.POST("/sync/google", h.Reviews.SyncGoogle)
		api.GET("/analytics", h.Reviews.Analytics)

		api.POST("/ai/generate-reply", h.AI.GenerateReply)
		api.POST("/ai/generate-reply/:reviewId", h.AI.GenerateForReview)
		api.POST("/ai/save-reply/:sessionId", h.AI.SaveReply)
	}

	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Endpoint not found")
	})

	return router
}
