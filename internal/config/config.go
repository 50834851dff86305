// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.docchat/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Inference: HuggingFace API token, embedding and chat model identifiers
//   - Index: documents directory, index directory, chunking parameters
//   - Serve: CORS origins, proxy trust, rate limiting
//
// Security: the API token is never logged; MarshalJSON and String mask it.
// Validation: fail-fast range checks with sentinel errors for errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIToken indicates the HuggingFace API token is missing.
	ErrMissingAPIToken = errors.New("missing API token")

	// ErrInvalidModel indicates a model identifier is empty.
	ErrInvalidModel = errors.New("invalid model")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxNewTokens indicates the max new tokens value is out of range.
	ErrInvalidMaxNewTokens = errors.New("invalid max new tokens")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidChunking indicates chunk size/overlap values are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking")

	// ErrInvalidDir indicates a directory path is empty.
	ErrInvalidDir = errors.New("invalid directory")

	// ErrInvalidBaseURL indicates an inference endpoint URL is empty.
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

// Defaults mirror the hosted models the chatbot was built against.
const (
	// DefaultEmbeddingModel is the default sentence-embedding model served
	// by the HuggingFace feature-extraction pipeline (384 dimensions).
	DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"

	// DefaultChatModel is the default hosted chat model.
	DefaultChatModel = "HuggingFaceH4/zephyr-7b-beta"

	// DefaultInferenceBaseURL is the HuggingFace inference API root used for
	// the feature-extraction pipeline.
	DefaultInferenceBaseURL = "https://api-inference.huggingface.co"

	// DefaultRouterBaseURL is the OpenAI-compatible chat completions root.
	DefaultRouterBaseURL = "https://router.huggingface.co/v1"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Hosted inference configuration
	APIToken       string  `mapstructure:"api_token" json:"api_token"` // SENSITIVE: masked in MarshalJSON
	EmbeddingModel string  `mapstructure:"embedding_model" json:"embedding_model"`
	ChatModel      string  `mapstructure:"chat_model" json:"chat_model"`
	Temperature    float32 `mapstructure:"temperature" json:"temperature"`
	MaxNewTokens   int     `mapstructure:"max_new_tokens" json:"max_new_tokens"`

	// Inference endpoints (overridable for tests and self-hosted gateways)
	InferenceBaseURL string `mapstructure:"inference_base_url" json:"inference_base_url"`
	RouterBaseURL    string `mapstructure:"router_base_url" json:"router_base_url"`

	// Document index configuration
	DataDir      string `mapstructure:"data_dir" json:"data_dir"`
	IndexDir     string `mapstructure:"index_dir" json:"index_dir"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	TopK         int    `mapstructure:"top_k" json:"top_k"`

	// Serve mode configuration
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".docchat")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	// Configuration file not found is not an error, use default values
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Inference defaults
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("chat_model", DefaultChatModel)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_new_tokens", 512)
	v.SetDefault("inference_base_url", DefaultInferenceBaseURL)
	v.SetDefault("router_base_url", DefaultRouterBaseURL)

	// Index defaults
	v.SetDefault("data_dir", "./data")
	v.SetDefault("index_dir", "./index")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 150)
	v.SetDefault("top_k", 4)

	// Serve defaults
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 0)
}

// bindEnvVariables binds environment variables explicitly.
// HUGGINGFACEHUB_API_TOKEN keeps its upstream name so existing .env files
// and CI secrets keep working; the rest use the DOCCHAT_ prefix.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key string, envVars ...string) {
		if err := v.BindEnv(append([]string{key}, envVars...)...); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q: %v", key, err))
		}
	}

	mustBind("api_token", "HUGGINGFACEHUB_API_TOKEN")
	mustBind("embedding_model", "EMBEDDING_MODEL", "DOCCHAT_EMBEDDING_MODEL")
	mustBind("chat_model", "LLM_MODEL", "DOCCHAT_CHAT_MODEL")
	mustBind("inference_base_url", "DOCCHAT_INFERENCE_BASE_URL")
	mustBind("router_base_url", "DOCCHAT_ROUTER_BASE_URL")
	mustBind("data_dir", "DOCCHAT_DATA_DIR")
	mustBind("index_dir", "DOCCHAT_INDEX_DIR")
	mustBind("cors_origins", "DOCCHAT_CORS_ORIGINS")
	mustBind("trust_proxy", "DOCCHAT_TRUST_PROXY")
	mustBind("rate_burst", "DOCCHAT_RATE_BURST")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Short secrets are fully masked to prevent substring matching; longer
// secrets keep the first and last two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APIToken = maskSecret(a.APIToken)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
