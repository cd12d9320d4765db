// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Environment always wins so
// deployments can override a checked-in config without editing it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults.
const (
	DefaultPort          = 5000
	DefaultTextProvider  = "groq"
	DefaultEmbedProvider = "huggingface"
	DefaultSQLitePath    = "temblor.db"
	DefaultCacheSize     = 1024
)

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// URL of a remote qdrant deployment. When set, the qdrant store is
	// used; otherwise Host/Port, then the local sqlite store.
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`

	// SQLitePath is the local database path used when no qdrant endpoint
	// is configured.
	SQLitePath string `yaml:"sqlite_path"`
}

// Config is the full service configuration.
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	TextProvider      string `yaml:"text_llm_provider"`
	EmbeddingProvider string `yaml:"embedding_provider"`
	MockMode          bool   `yaml:"mock_mode"`
	LLMModel          string `yaml:"llm_model"`

	GroqKey      string `yaml:"-"`
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
	HFToken      string `yaml:"-"`
	GeminiKey    string `yaml:"-"`

	EmbeddingCacheSize int `yaml:"embedding_cache_size"`

	VectorStore VectorStoreConfig `yaml:"vector_store"`
}

// ConfigError is a configuration validation failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Load reads the optional YAML file at path (skipped when empty or
// missing) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:               DefaultPort,
		LogLevel:           "info",
		TextProvider:       DefaultTextProvider,
		EmbeddingProvider:  DefaultEmbedProvider,
		EmbeddingCacheSize: DefaultCacheSize,
		VectorStore: VectorStoreConfig{
			SQLitePath: DefaultSQLitePath,
		},
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			k := koanf.New(".")
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
			}
			if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
				return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.TextProvider, "TEXT_LLM_PROVIDER")
	setStr(&cfg.EmbeddingProvider, "EMBEDDING_PROVIDER")
	setStr(&cfg.LLMModel, "LLM_MODEL")
	setStr(&cfg.GroqKey, "GROQ_API_KEY")
	setStr(&cfg.OpenAIKey, "OPENAI_API_KEY")
	setStr(&cfg.AnthropicKey, "ANTHROPIC_API_KEY")
	setStr(&cfg.HFToken, "HF_API_TOKEN")
	setStr(&cfg.GeminiKey, "GEMINI_API_KEY")
	setStr(&cfg.VectorStore.URL, "VECTOR_STORE_URL")
	setStr(&cfg.VectorStore.APIKey, "VECTOR_STORE_API_KEY")
	setStr(&cfg.VectorStore.Host, "VECTOR_STORE_HOST")
	setStr(&cfg.VectorStore.SQLitePath, "VECTOR_STORE_SQLITE_PATH")

	if v := os.Getenv("MOCK_MODE"); v != "" {
		cfg.MockMode = v == "true"
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("VECTOR_STORE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.VectorStore.Port = p
		}
	}

	if cfg.MockMode {
		cfg.TextProvider = "mock"
		cfg.EmbeddingProvider = "mock"
	}
}

// Validate fails fast on configurations that would only surface as
// runtime errors deep in a request.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Field: "port", Message: fmt.Sprintf("invalid port %d", c.Port)}
	}

	switch strings.ToLower(c.TextProvider) {
	case "groq", "openai", "anthropic", "mock":
	default:
		return &ConfigError{Field: "text_llm_provider",
			Message: fmt.Sprintf("unknown provider %q (groq, openai, anthropic, mock)", c.TextProvider)}
	}
	switch strings.ToLower(c.EmbeddingProvider) {
	case "huggingface", "openai", "gemini", "mock":
	default:
		return &ConfigError{Field: "embedding_provider",
			Message: fmt.Sprintf("unknown provider %q (huggingface, openai, gemini, mock)", c.EmbeddingProvider)}
	}

	if !c.MockMode {
		switch strings.ToLower(c.TextProvider) {
		case "groq":
			if c.GroqKey == "" {
				return &ConfigError{Field: "GROQ_API_KEY", Message: "required for groq text provider"}
			}
		case "openai":
			if c.OpenAIKey == "" {
				return &ConfigError{Field: "OPENAI_API_KEY", Message: "required for openai text provider"}
			}
		}
		switch strings.ToLower(c.EmbeddingProvider) {
		case "huggingface":
			if c.HFToken == "" {
				return &ConfigError{Field: "HF_API_TOKEN", Message: "required for huggingface embeddings"}
			}
		case "openai":
			if c.OpenAIKey == "" {
				return &ConfigError{Field: "OPENAI_API_KEY", Message: "required for openai embeddings"}
			}
		case "gemini":
			if c.GeminiKey == "" {
				return &ConfigError{Field: "GEMINI_API_KEY", Message: "required for gemini embeddings"}
			}
		}
	}
	return nil
}

// QdrantEndpoint returns the remote store base URL, or empty when the
// local sqlite store should be used.
func (c *Config) QdrantEndpoint() string {
	if c.VectorStore.URL != "" {
		return c.VectorStore.URL
	}
	if c.VectorStore.Host != "" {
		port := c.VectorStore.Port
		if port == 0 {
			port = 6333
		}
		return fmt.Sprintf("http://%s:%d", c.VectorStore.Host, port)
	}
	return ""
}
