package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/document"
	"github.com/docchat/docchat/internal/inference"
	"github.com/docchat/docchat/internal/knowledge"
	"github.com/docchat/docchat/internal/rag"
	"github.com/docchat/docchat/internal/splitter"
)

// setupService wires configuration into a ready RAG service: hosted
// embedder and chat clients, the persistent vector store, and the
// document pipeline. The index is built on first run and reused after.
func setupService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*rag.Service, error) {
	embedder, err := inference.NewHFEmbedder(inference.EmbedderConfig{
		BaseURL: cfg.InferenceBaseURL,
		Model:   cfg.EmbeddingModel,
		Token:   cfg.APIToken,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	chat, err := inference.NewRouterChat(inference.ChatConfig{
		BaseURL:     cfg.RouterBaseURL,
		Model:       cfg.ChatModel,
		Token:       cfg.APIToken,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxNewTokens,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}

	store, err := knowledge.New(knowledge.Config{
		Dir:      cfg.IndexDir,
		Embedder: embedder,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	split, err := splitter.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("creating splitter: %w", err)
	}

	svc, err := rag.New(ctx, rag.Config{
		Store:    store,
		Chat:     chat,
		Loader:   document.NewLoader(logger),
		Splitter: split,
		DataDir:  cfg.DataDir,
		IndexDir: cfg.IndexDir,
		TopK:     cfg.TopK,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing RAG service: %w", err)
	}

	return svc, nil
}
