package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5001", cfg.Server.Address())
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, float32(0.7), cfg.OpenAI.Temperature)
	assert.Equal(t, 150, cfg.OpenAI.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.Generation.Timeout)
	assert.True(t, cfg.App.DemoMode)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("GENERATION_TIMEOUT", "3s")
	t.Setenv("DEMO_MODE", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "redis:6379", cfg.Redis.Address())
	assert.Equal(t, 3*time.Second, cfg.Generation.Timeout)
	assert.False(t, cfg.App.DemoMode)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("GENERATION_TIMEOUT", "fast")
	t.Setenv("REDIS_DB", "one")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENERATION_TIMEOUT")
	assert.Contains(t, err.Error(), "REDIS_DB")
}
