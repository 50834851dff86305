package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// ErrEmptyCompletion indicates the chat API returned no choices.
var ErrEmptyCompletion = errors.New("empty completion returned")

// RouterChat produces completions through the HuggingFace
// OpenAI-compatible chat completions router.
//
// Safe for concurrent use.
type RouterChat struct {
	client      openai.Client
	model       string
	temperature float32
	maxTokens   int
	retry       RetryConfig
	logger      *slog.Logger
}

// ChatConfig configures a RouterChat.
type ChatConfig struct {
	BaseURL     string  // router root, e.g. https://router.huggingface.co/v1
	Model       string  // chat model identifier
	Token       string  // bearer token
	Temperature float32 // sampling temperature; 0 is deterministic
	MaxTokens   int     // completion token budget

	// Retry overrides DefaultRetryConfig when MaxRetries > 0.
	Retry RetryConfig

	Logger *slog.Logger
}

// NewRouterChat creates a chat client for the given model.
func NewRouterChat(cfg ChatConfig) (*RouterChat, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("chat: base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("chat: model is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("chat: API token is required")
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	return &RouterChat{
		client: openai.NewClient(
			option.WithAPIKey(cfg.Token),
			option.WithBaseURL(cfg.BaseURL),
		),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		retry:       retry,
		logger:      logger,
	}, nil
}

// Complete sends a system/user message pair and returns the assistant text.
func (c *RouterChat) Complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(float64(c.temperature)),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	}

	resp, err := withRetry(ctx, c.retry, c.logger, "chat completion",
		func(ctx context.Context) (*openai.ChatCompletion, error) {
			return c.client.Chat.Completions.New(ctx, params)
		})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("%w: first choice has no content", ErrEmptyCompletion)
	}

	c.logger.Debug("chat completion",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return text, nil
}
