package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrEmptyEmbedding indicates the API returned no vectors for the input.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

const (
	// embedBatchSize bounds the number of texts sent per pipeline request.
	// The hosted API rejects oversized payloads with opaque 413 errors.
	embedBatchSize = 32

	// embedRequestTimeout bounds a single feature-extraction request.
	// Cold models can take tens of seconds to load on the hosted API.
	embedRequestTimeout = 2 * time.Minute
)

// HFEmbedder generates embeddings through the HuggingFace
// feature-extraction pipeline API.
//
// Safe for concurrent use.
type HFEmbedder struct {
	baseURL    string
	model      string
	token      string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

// EmbedderConfig configures an HFEmbedder.
type EmbedderConfig struct {
	BaseURL string // API root, e.g. https://api-inference.huggingface.co
	Model   string // model identifier, e.g. sentence-transformers/all-MiniLM-L6-v2
	Token   string // bearer token

	// HTTPClient overrides the default client (used in tests).
	HTTPClient *http.Client

	// Retry overrides DefaultRetryConfig when MaxRetries > 0.
	Retry RetryConfig

	Logger *slog.Logger
}

// NewHFEmbedder creates an embedder client for the given model.
func NewHFEmbedder(cfg EmbedderConfig) (*HFEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("embedder: base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("embedder: model is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("embedder: API token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: embedRequestTimeout}
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HFEmbedder{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		token:      cfg.Token,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger,
	}, nil
}

// embedRequest is the feature-extraction pipeline payload.
type embedRequest struct {
	Inputs  []string     `json:"inputs"`
	Options embedOptions `json:"options"`
}

type embedOptions struct {
	// WaitForModel asks the API to block while a cold model loads instead
	// of returning 503.
	WaitForModel bool `json:"wait_for_model"`
}

// Embed returns one embedding vector per input text, in input order.
// Inputs are sent in bounded batches; a failed batch fails the whole call.
func (e *HFEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))

		batch, err := withRetry(ctx, e.retry, e.logger, "feature extraction",
			func(ctx context.Context) ([][]float32, error) {
				return e.embedBatch(ctx, texts[start:end])
			})
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d inputs",
				ErrEmptyEmbedding, len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	e.logger.Debug("embedded texts", "count", len(texts), "model", e.model)
	return vectors, nil
}

// embedBatch performs a single pipeline request.
func (e *HFEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{
		Inputs:  texts,
		Options: embedOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// Model IDs contain a slash (org/name) that must stay literal.
	endpoint := e.baseURL + "/pipeline/feature-extraction/" + e.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read keeps huge error payloads out of logs and messages.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feature extraction returned %d: %s",
			resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: vector %d is empty", ErrEmptyEmbedding, i)
		}
	}

	return vectors, nil
}
