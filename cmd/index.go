package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/docchat/docchat/internal/config"
)

// runIndex rebuilds the vector index from scratch. Use after the
// documents directory changed; chat and serve reuse a persisted index
// without noticing edits.
func runIndex() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	svc, err := setupService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if err := svc.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Println("Index rebuilt.")
	return nil
}
