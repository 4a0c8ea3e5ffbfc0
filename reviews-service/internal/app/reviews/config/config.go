package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	OpenAI     OpenAIConfig
	Google     GoogleConfig
	RateLimit  RateLimitConfig
	Generation GenerationConfig
	Sync       SyncConfig
}

type AppConfig struct {
	Env          string // development / production
	FrontendURL  string // Куда возвращаем пользователя после OAuth
	DemoMode     bool   // Показывать демо-отзывы новому пользователю
	LogLevel     string
	LogstashAddr string
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 5001)
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB, пустой - хранение в памяти
	Database string // Имя базы данных
}

type RedisConfig struct {
	Host         string        // Хост Redis, пустой - кэш отключён
	Port         string        // Порт Redis
	Password     string        // Пароль Redis
	DB           int           // Номер БД Redis
	AnalyticsTTL time.Duration // TTL кэша аналитики
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka, пустой - события не публикуются
	Topic   string   // Топик для REVIEW_SYNCED / REVIEW_REPLIED
}

type JWTConfig struct {
	Secret   string
	Duration time.Duration // Срок жизни токена (по умолчанию 7 дней)
}

type OpenAIConfig struct {
	APIKey      string // Пустой - всегда шаблонные ответы
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	RequestsPerS float64       // Лимит запросов к Business Profile API
	Timeout      time.Duration // Таймаут HTTP запроса к Google
}

type RateLimitConfig struct {
	RPS   float64 // 0 - без ограничения
	Burst int
}

type GenerationConfig struct {
	Timeout time.Duration // Таймаут одного запроса к модели
	Seed    int64         // 0 - выбор шаблона от текущего времени
}

type SyncConfig struct {
	Enabled     bool
	Schedule    string // cron-выражение
	Concurrency int
	Timeout     time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если значение не удалось распарсить.
func Load() (*Config, error) {
	var errs []string
	p := &parser{errs: &errs}

	cfg := &Config{
		App: AppConfig{
			Env:          getEnv("APP_ENV", "development"),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
			DemoMode:     p.bool("DEMO_MODE", true),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", "5001"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "tastyreply"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", ""),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           p.int("REDIS_DB", 0),
			AnalyticsTTL: p.duration("ANALYTICS_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "fallback-secret"),
			Duration: p.duration("JWT_DURATION", 7*24*time.Hour),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			Temperature: float32(p.float("OPENAI_TEMPERATURE", 0.7)),
			MaxTokens:   p.int("OPENAI_MAX_TOKENS", 150),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:5001/auth/google/callback"),
			RequestsPerS: p.float("GOOGLE_API_RPS", 5),
			Timeout:      p.duration("GOOGLE_API_TIMEOUT", 15*time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:   p.float("RATE_LIMIT_RPS", 50),
			Burst: p.int("RATE_LIMIT_BURST", 100),
		},
		Generation: GenerationConfig{
			Timeout: p.duration("GENERATION_TIMEOUT", 15*time.Second),
			Seed:    int64(p.int("TEMPLATE_SEED", 0)),
		},
		Sync: SyncConfig{
			Enabled:     p.bool("SYNC_ENABLED", true),
			Schedule:    getEnv("SYNC_SCHEDULE", "*/30 * * * *"),
			Concurrency: p.int("SYNC_CONCURRENCY", 4),
			Timeout:     p.duration("SYNC_TIMEOUT", 5*time.Minute),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parser собирает ошибки разбора, чтобы показать их все сразу
type parser struct {
	errs *[]string
}

func (p *parser) fail(key, value string) {
	*p.errs = append(*p.errs, fmt.Sprintf("%s=%q", key, value))
}

func (p *parser) int(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value)
		return defaultValue
	}
	return intValue
}

func (p *parser) float(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value)
		return defaultValue
	}
	return floatValue
}

func (p *parser) bool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value)
		return defaultValue
	}
	return boolValue
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value)
		return defaultValue
	}
	return d
}
