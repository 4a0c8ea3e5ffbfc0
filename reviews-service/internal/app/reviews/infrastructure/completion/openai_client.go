package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tastyreply/pkg/metrics"
	"tastyreply/reviews-service/internal/app/reviews/reply"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 150
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// OpenAIClient реализует reply.Completer поверх chat completions API
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIClient - BaseURL переопределяется для совместимых сервисов и тестов
func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Complete делает один запрос без повторов
func (c *OpenAIClient) Complete(ctx context.Context, req reply.CompletionRequest) (string, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		metrics.CompletionDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai api error (status %d): %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	metrics.CompletionDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}

	return resp.Choices[0].Message.Content, nil
}
