package config

import "fmt"

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API token is required for every inference call.
	if c.APIToken == "" {
		return fmt.Errorf("%w: set HUGGINGFACEHUB_API_TOKEN in your environment "+
			"or api_token in config.yaml", ErrMissingAPIToken)
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding_model cannot be empty", ErrInvalidModel)
	}
	if c.ChatModel == "" {
		return fmt.Errorf("%w: chat_model cannot be empty", ErrInvalidModel)
	}

	// Temperature range: 0.0 (deterministic) to 2.0.
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f",
			ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxNewTokens < 1 || c.MaxNewTokens > 32768 {
		return fmt.Errorf("%w: must be between 1 and 32768, got %d",
			ErrInvalidMaxNewTokens, c.MaxNewTokens)
	}

	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d",
			ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d",
			ErrInvalidChunking, c.ChunkOverlap)
	}

	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir cannot be empty", ErrInvalidDir)
	}
	if c.IndexDir == "" {
		return fmt.Errorf("%w: index_dir cannot be empty", ErrInvalidDir)
	}

	if c.InferenceBaseURL == "" {
		return fmt.Errorf("%w: inference_base_url cannot be empty", ErrInvalidBaseURL)
	}
	if c.RouterBaseURL == "" {
		return fmt.Errorf("%w: router_base_url cannot be empty", ErrInvalidBaseURL)
	}

	return nil
}
