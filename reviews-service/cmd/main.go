package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"tastyreply/pkg/logger"
	"tastyreply/reviews-service/internal/app/reviews/config"
	"tastyreply/reviews-service/internal/app/reviews/handler"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/cache"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/completion"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/messaging"
	"tastyreply/reviews-service/internal/app/reviews/infrastructure/platform"
	"tastyreply/reviews-service/internal/app/reviews/processor"
	"tastyreply/reviews-service/internal/app/reviews/reply"
	"tastyreply/reviews-service/internal/app/reviews/repository"
	"tastyreply/reviews-service/internal/app/reviews/service"
	"tastyreply/reviews-service/internal/app/reviews/util"
)

const serviceName = "reviews-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.App.LogLevel)

	if cfg.App.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.App.LogstashAddr, serviceName, cfg.App.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.App.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище: MongoDB, без MONGODB_URI - в памяти процесса
	var (
		reviewRepo  repository.ReviewRepository
		sessionRepo repository.SessionRepository
		userRepo    repository.UserRepository
	)
	if cfg.MongoDB.URI != "" {
		mongoClient, err := connectMongoDB(cfg.MongoDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
			}
		}()
		logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

		db := mongoClient.Database(cfg.MongoDB.Database)
		reviewRepo = repository.NewReviewRepository(db)
		sessionRepo = repository.NewSessionRepository(db)
		userRepo = repository.NewUserRepository(db)
	} else {
		logger.Warn().Msg("MONGODB_URI is not set, using in-memory storage")
		reviewRepo = repository.NewMemoryReviewRepository()
		sessionRepo = repository.NewMemorySessionRepository()
		userRepo = repository.NewMemoryUserRepository()
	}

	// Redis: кэш аналитики и OAuth state
	var (
		analyticsCache infrastructure.AnalyticsCache = cache.NoopAnalyticsCache{}
		stateStore     infrastructure.StateStore     = cache.NewMemoryStateStore()
	)
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address()).Msg("Redis unavailable, analytics cache disabled")
		} else {
			analyticsCache = cache.NewRedisAnalyticsCache(redisClient, cfg.Redis.AnalyticsTTL)
			stateStore = cache.NewRedisStateStore(redisClient)
			logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")
		}
	}

	var kafkaProducer infrastructure.MessagePublisher = messaging.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer = messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Initialized Kafka producer")
	}
	defer kafkaProducer.Close()

	// Генерация ответов: без ключа OpenAI всегда шаблоны
	var completer reply.Completer
	if cfg.OpenAI.APIKey != "" {
		completer = completion.NewOpenAIClient(completion.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
	} else {
		logger.Warn().Msg("OPENAI_API_KEY is not set, replies will use templates")
	}

	seed := cfg.Generation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator := reply.NewGenerator(
		completer,
		reply.NewCatalog(reply.NewSeededChooser(seed)),
		reply.WithTimeout(cfg.Generation.Timeout),
		reply.WithLogger(logger.Get()),
	)

	oauthConfig := platform.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	googleClient := platform.NewGoogleClient(
		oauthConfig,
		platform.DefaultEndpoints(),
		rate.NewLimiter(rate.Limit(cfg.Google.RequestsPerS), 1),
		cfg.Google.Timeout,
	)
	if !cfg.Google.Enabled() {
		logger.Warn().Msg("Google OAuth credentials are not set, login and sync will fail")
	}

	jwtManager := util.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Duration)

	reviewService := service.NewReviewService(reviewRepo, sessionRepo, kafkaProducer, analyticsCache, service.ReviewServiceConfig{
		DemoMode: cfg.App.DemoMode,
	})
	syncService := service.NewSyncService(userRepo, googleClient, reviewService, cfg.Sync.Concurrency)
	reviewService.SetReplyPoster(syncService)
	generationService := service.NewGenerationService(reviewRepo, sessionRepo, generator)
	authService := service.NewAuthService(platform.NewGoogleOAuth(oauthConfig, ""), userRepo, stateStore, jwtManager, service.DefaultStateTTL)

	var limiter *rate.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	router := handler.SetupRoutes(handler.Handlers{
		Reviews: handler.NewReviewHandler(reviewService, syncService),
		AI:      handler.NewAIHandler(generationService),
		Auth:    handler.NewAuthHandler(authService, cfg.App.FrontendURL),
		Health:  handler.NewHealthHandler(reviewService),
	}, handler.NewAuthMiddleware(jwtManager), handler.RouterConfig{
		FrontendURL: cfg.App.FrontendURL,
		Production:  cfg.IsProduction(),
		Limiter:     limiter,
	})

	var scheduler *processor.CronScheduler
	if cfg.Sync.Enabled {
		scheduler = processor.NewCronScheduler(syncService, cfg.Sync.Timeout)
		if err := scheduler.Start(ctx, cfg.Sync.Schedule, false); err != nil {
			logger.Fatal().Err(err).Str("schedule", cfg.Sync.Schedule).Msg("Failed to start sync scheduler")
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Generation.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("env", cfg.App.Env).
			Msg("Starting Reviews Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("Shutting down Reviews Service...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Reviews Service stopped gracefully")
}

func connectMongoDB(cfg config.MongoDBConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)

	var client *mongo.Client
	var err error

	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err = mongo.Connect(ctx, clientOptions)
		cancel()
		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = client.Ping(pingCtx, nil)
			pingCancel()
			if err == nil {
				return client, nil
			}
		}

		logger.Warn().
			Int("attempt", i+1).
			Err(err).
			Msg("Failed to connect to MongoDB, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, err
}
