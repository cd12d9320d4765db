package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so host environment
// never leaks into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "TEXT_LLM_PROVIDER", "EMBEDDING_PROVIDER", "LLM_MODEL",
		"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"HF_API_TOKEN", "GEMINI_API_KEY",
		"VECTOR_STORE_URL", "VECTOR_STORE_API_KEY", "VECTOR_STORE_HOST",
		"VECTOR_STORE_PORT", "VECTOR_STORE_SQLITE_PATH",
		"MOCK_MODE", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultsWithKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("HF_API_TOKEN", "hf")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "groq", cfg.TextProvider)
	assert.Equal(t, "huggingface", cfg.EmbeddingProvider)
	assert.Equal(t, DefaultSQLitePath, cfg.VectorStore.SQLitePath)
	assert.Equal(t, DefaultCacheSize, cfg.EmbeddingCacheSize)
	assert.False(t, cfg.MockMode)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("TEXT_LLM_PROVIDER", "openai")
	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("OPENAI_API_KEY", "ok")
	t.Setenv("GEMINI_API_KEY", "gm")
	t.Setenv("LLM_MODEL", "gpt-4o")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "openai", cfg.TextProvider)
	assert.Equal(t, "gemini", cfg.EmbeddingProvider)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
}

func TestMockModeForcesMockProviders(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("TEXT_LLM_PROVIDER", "groq")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.MockMode)
	assert.Equal(t, "mock", cfg.TextProvider)
	assert.Equal(t, "mock", cfg.EmbeddingProvider)
}

func TestYAMLFileWithEnvPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
mock_mode: true
vector_store:
  sqlite_path: /data/mem.db
`), 0o644))

	// Environment wins over the file.
	t.Setenv("PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
	assert.True(t, cfg.MockMode)
	assert.Equal(t, "/data/mem.db", cfg.VectorStore.SQLitePath)
}

func TestMissingConfigFileIsSkipped(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOCK_MODE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{
			name:  "missing groq key",
			env:   map[string]string{"HF_API_TOKEN": "hf"},
			field: "GROQ_API_KEY",
		},
		{
			name:  "missing hf token",
			env:   map[string]string{"GROQ_API_KEY": "gk"},
			field: "HF_API_TOKEN",
		},
		{
			name:  "unknown text provider",
			env:   map[string]string{"TEXT_LLM_PROVIDER": "bard"},
			field: "text_llm_provider",
		},
		{
			name:  "unknown embedding provider",
			env:   map[string]string{"EMBEDDING_PROVIDER": "word2vec", "GROQ_API_KEY": "gk"},
			field: "embedding_provider",
		},
		{
			name:  "invalid port",
			env:   map[string]string{"MOCK_MODE": "true", "PORT": "70000"},
			field: "port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestQdrantEndpoint(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "", cfg.QdrantEndpoint())

	cfg.VectorStore.Host = "qdrant.internal"
	assert.Equal(t, "http://qdrant.internal:6333", cfg.QdrantEndpoint())

	cfg.VectorStore.Port = 7333
	assert.Equal(t, "http://qdrant.internal:7333", cfg.QdrantEndpoint())

	cfg.VectorStore.URL = "https://cloud.qdrant.example"
	assert.Equal(t, "https://cloud.qdrant.example", cfg.QdrantEndpoint())
}
