// Package api exposes the document chat service over HTTP.
//
// Endpoints:
//
//	GET  /         single page chat client
//	POST /chat     {"question": "..."} -> {"answer": "...", "sources": [...]}
//	GET  /healthz  liveness probe
//	GET  /readyz   readiness probe (index built, service usable)
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds request header reads to prevent Slowloris
	// style connection exhaustion.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Chat completions can take a while on cold models.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Logger      *slog.Logger
	Service     Answerer   // nil while startup failed; /chat answers 503
	IndexSize   func() int // optional; /readyz reports unavailable while 0
	StartupErr  error      // recorded index/startup failure surfaced by /chat and /readyz
	CORSOrigins []string
	TrustProxy  bool // trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst   int  // per-IP burst size (0 = default 30)
}

// Server is the HTTP server for the document chat API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		service:    cfg.Service,
		startupErr: cfg.StartupErr,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", index)
	mux.HandleFunc("POST /chat", ch.ask)

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 30
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware order (outermost first):
	//   Recovery -> Logging -> CORS -> RateLimit -> Routes
	// CORS sits before RateLimit so preflight OPTIONS carries CORS headers.
	handler := chain(mux,
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		corsMiddleware(cfg.CORSOrigins),
		rateLimitMiddleware(rl, cfg.TrustProxy, logger),
	)

	// Health probes bypass the middleware stack so monitoring traffic is
	// neither rate limited nor logged per request.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", healthz(logger))
	topMux.HandleFunc("GET /readyz", readyz(ch, cfg.IndexSize, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux, logger: logger}
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
