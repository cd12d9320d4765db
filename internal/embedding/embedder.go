// Package embedding maps text to fixed-dimension vectors for semantic
// retrieval. Supported providers: huggingface (inference router), openai,
// gemini, and a deterministic mock for tests.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/temblorlabs/temblor/internal/logging"
)

// DefaultDimensions matches the default huggingface model
// (BAAI/bge-small-en-v1.5).
const DefaultDimensions = 384

// Embedder generates vector embeddings for text. Implementations must be
// deterministic for identical inputs within one provider revision.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int

	// Name returns the provider name for logging and display.
	Name() string
}

// Config holds embedding provider configuration.
type Config struct {
	// Provider: "huggingface", "openai", "gemini" or "mock".
	Provider string

	HFToken string
	HFModel string

	OpenAIKey   string
	OpenAIModel string

	GeminiKey   string
	GeminiModel string

	// Dimensions of the produced vectors; defaults to DefaultDimensions.
	Dimensions int

	// CacheSize bounds the text-to-vector LRU cache; 0 disables caching.
	CacheSize int
}

// New creates an embedding provider from configuration. The returned
// embedder is wrapped in an LRU cache when CacheSize > 0.
func New(cfg Config) (Embedder, error) {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	logger := logging.GetLogger("embedding")
	logger.Info("creating embedding provider %q (dim=%d)", cfg.Provider, cfg.Dimensions)

	var (
		embedder Embedder
		err      error
	)
	switch cfg.Provider {
	case "huggingface":
		embedder, err = NewHuggingFace(cfg.HFToken, cfg.HFModel, cfg.Dimensions)
	case "openai":
		embedder, err = NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Dimensions)
	case "gemini":
		embedder, err = NewGemini(cfg.GeminiKey, cfg.GeminiModel, cfg.Dimensions)
	case "mock":
		embedder = NewMock(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown EMBEDDING_PROVIDER: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		return NewCached(embedder, cfg.CacheSize)
	}
	return embedder, nil
}

// CosineSimilarity computes the cosine similarity of two vectors, in
// [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
