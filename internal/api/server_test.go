package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/log"
	"github.com/docchat/docchat/internal/rag"
)

type mockAnswerer struct {
	answer rag.Answer
	err    error
	asked  []string
}

func (m *mockAnswerer) Answer(_ context.Context, question string) (rag.Answer, error) {
	m.asked = append(m.asked, question)
	if m.err != nil {
		return rag.Answer{}, m.err
	}
	return m.answer, m.err
}

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return NewServer(cfg)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, ServerConfig{Service: &mockAnswerer{}})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody[map[string]string](t, w)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		cfg        ServerConfig
		wantCode   int
		wantStatus string
	}{
		{
			name:       "ready",
			cfg:        ServerConfig{Service: &mockAnswerer{}},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "startup failed",
			cfg:        ServerConfig{StartupErr: errors.New("index build failed")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
		{
			name:       "no service",
			cfg:        ServerConfig{},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
		{
			name:       "empty index",
			cfg:        ServerConfig{Service: &mockAnswerer{}, IndexSize: func() int { return 0 }},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
		{
			name:       "populated index",
			cfg:        ServerConfig{Service: &mockAnswerer{}, IndexSize: func() int { return 12 }},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.cfg)

			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("GET /readyz status = %d, want %d", w.Code, tt.wantCode)
			}
			body := decodeBody[map[string]string](t, w)
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %q, want %q", body["status"], tt.wantStatus)
			}
		})
	}
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, ServerConfig{Service: &mockAnswerer{}})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), "DocChat") {
		t.Error("index page missing client markup")
	}
}

func TestUnknownPath(t *testing.T) {
	srv := newTestServer(t, ServerConfig{Service: &mockAnswerer{}})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, ServerConfig{
		Service:     &mockAnswerer{},
		CORSOrigins: []string{"http://localhost:3000"},
	})

	r := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS /chat status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}

	// Unknown origins get no CORS headers.
	r = httptest.NewRequest(http.MethodOptions, "/chat", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for unknown origin = %q, want empty", got)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, ServerConfig{Service: &mockAnswerer{}, RateBurst: 2})

	var last int
	for range 5 {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, r)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status after burst = %d, want %d", last, http.StatusTooManyRequests)
	}

	// A different IP has its own bucket.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("fresh IP status = %d, want %d", w.Code, http.StatusOK)
	}

	// Health probes bypass the limiter.
	r = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz while limited = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "remote addr only", remoteAddr: "192.168.1.5:4000", want: "192.168.1.5"},
		{name: "proxy headers ignored by default", remoteAddr: "192.168.1.5:4000", realIP: "1.2.3.4", want: "192.168.1.5"},
		{name: "x-real-ip trusted", remoteAddr: "10.0.0.1:80", realIP: "1.2.3.4", trustProxy: true, want: "1.2.3.4"},
		{name: "x-forwarded-for first hop", remoteAddr: "10.0.0.1:80", forwarded: "1.2.3.4, 5.6.7.8", trustProxy: true, want: "1.2.3.4"},
		{name: "invalid header falls through", remoteAddr: "10.0.0.1:80", realIP: "not-an-ip", trustProxy: true, want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := recoveryMiddleware(log.NewNop())(panicky)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	body := decodeBody[ErrorResponse](t, w)
	if body.Error != "internal_error" {
		t.Errorf("error = %q, want internal_error", body.Error)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, ServerConfig{Service: &mockAnswerer{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0")
	}()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() after cancel = %v", err)
	}
}

func postChat(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}
