package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP
// =============================================================================

// HttpRequestsTotal - счётчик HTTP запросов
// Пример PromQL: rate(http_requests_total{service="reviews-service"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
		// Генерация ответов ходит во внешний API, поэтому верхние бакеты крупнее обычного
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	},
	[]string{"service", "method", "path"},
)

var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// HttpRequestsThrottled - запросы, отклонённые глобальным rate limiter
var HttpRequestsThrottled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_throttled_total",
		Help: "Total number of HTTP requests rejected by the rate limiter",
	},
	[]string{"service"},
)

// =============================================================================
// Document store (MongoDB)
// =============================================================================

var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "collection"},
)

var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis
// =============================================================================

var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka
// =============================================================================

var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"},
)

// =============================================================================
// Бизнес-метрики
// =============================================================================

// ReplyGenerations - сгенерированные варианты ответа
// source: ai - ответ модели, fallback - шаблон из каталога
var ReplyGenerations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reply_generations_total",
		Help: "Total number of generated reply candidates",
	},
	[]string{"tone", "source"},
)

// CompletionDuration - время одного вызова completion API
var CompletionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "completion_request_duration_seconds",
		Help:    "Duration of completion API calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	},
	[]string{"status"},
)

// ReviewsIngested - результат upsert при синхронизации
// outcome: created, updated, failed
var ReviewsIngested = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_ingested_total",
		Help: "Total number of ingested reviews",
	},
	[]string{"platform", "outcome"},
)

// ReviewReplies - ответы, прикреплённые к отзывам
var ReviewReplies = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "review_replies_total",
		Help: "Total number of replies attached to reviews",
	},
)

// PlatformSyncRuns - запуски синхронизации с площадками
var PlatformSyncRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platform_sync_runs_total",
		Help: "Total number of review platform sync runs",
	},
	[]string{"status"}, // success, failed
)
