package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/docchat/docchat/internal/api"
	"github.com/docchat/docchat/internal/config"
)

// runServe initializes the RAG service and starts the HTTP server.
//
// Index build failures do not abort startup: the server comes up anyway
// and surfaces the recorded error through /chat and /readyz, so operators
// can probe a misconfigured deployment instead of watching it crash-loop.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr, err := parseServeAddr()
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting docchat server", "version", Version)

	serverCfg := api.ServerConfig{
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	}

	svc, err := setupService(ctx, cfg, logger)
	if err != nil {
		logger.Error("service initialization failed, serving in degraded mode", "error", err)
		serverCfg.StartupErr = err
	} else {
		serverCfg.Service = svc
		serverCfg.IndexSize = svc.IndexSize
	}

	return api.NewServer(serverCfg).Run(ctx, addr)
}
