package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/inference"
)

const smokeTimeout = 60 * time.Second

// runSmoke checks connectivity and credentials against the hosted
// inference providers before any documents are indexed. Useful as a
// first step when a fresh deployment answers nothing but errors.
//
// With no argument every applicable provider is checked; `docchat smoke
// hf|openai|anthropic` restricts the run to one.
func runSmoke() error {
	provider := ""
	if len(os.Args) > 2 {
		provider = os.Args[2]
	}
	switch provider {
	case "", "hf", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q (expected hf, openai, or anthropic)", provider)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, smokeTimeout)
	defer cancelTimeout()

	logger := slog.Default()
	failed := false

	if provider == "" || provider == "hf" {
		if err := smokeEmbeddings(ctx, cfg, logger); err != nil {
			fmt.Printf("FAIL embeddings (%s): %v\n", cfg.EmbeddingModel, err)
			failed = true
		}
	}

	if provider == "" || provider == "openai" {
		if err := smokeChat(ctx, cfg, logger); err != nil {
			fmt.Printf("FAIL chat (%s): %v\n", cfg.ChatModel, err)
			failed = true
		}
	}

	// Alternate provider: only checked by default when a key is present.
	if key := os.Getenv("ANTHROPIC_API_KEY"); provider == "anthropic" || (provider == "" && key != "") {
		if key == "" {
			return errors.New("ANTHROPIC_API_KEY is not set")
		}
		if err := smokeAnthropic(ctx, key); err != nil {
			fmt.Printf("FAIL anthropic: %v\n", err)
			failed = true
		} else {
			fmt.Println("ok   anthropic")
		}
	}

	if failed {
		return errors.New("smoke test failed")
	}
	return nil
}

// smokeEmbeddings embeds a single string through the feature-extraction
// pipeline.
func smokeEmbeddings(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	embedder, err := inference.NewHFEmbedder(inference.EmbedderConfig{
		BaseURL: cfg.InferenceBaseURL,
		Model:   cfg.EmbeddingModel,
		Token:   cfg.APIToken,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	vecs, err := embedder.Embed(ctx, []string{"connectivity check"})
	if err != nil {
		return err
	}

	fmt.Printf("ok   embeddings (%s): %d dimensions\n", cfg.EmbeddingModel, len(vecs[0]))
	return nil
}

// smokeChat sends a minimal completion through the chat router.
func smokeChat(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	chat, err := inference.NewRouterChat(inference.ChatConfig{
		BaseURL:   cfg.RouterBaseURL,
		Model:     cfg.ChatModel,
		Token:     cfg.APIToken,
		MaxTokens: 16,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	reply, err := chat.Complete(ctx, "You are a connectivity check.", "Reply with the single word OK.")
	if err != nil {
		return err
	}

	fmt.Printf("ok   chat (%s): %q\n", cfg.ChatModel, reply)
	return nil
}

// smokeAnthropic sends a minimal message through the Anthropic API.
func smokeAnthropic(ctx context.Context, apiKey string) error {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model("claude-3-5-haiku-latest"),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Reply with the single word OK.")),
		},
	})
	if err != nil {
		return err
	}
	if len(msg.Content) == 0 {
		return errors.New("empty response")
	}
	return nil
}
