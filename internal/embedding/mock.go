package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"
)

// MockEmbedder produces deterministic pseudo-random unit vectors seeded
// from the input text. Identical inputs always map to identical vectors,
// so retrieval behaviour is replayable in tests and mock mode.
type MockEmbedder struct {
	dims int
}

// NewMock creates a mock embedder.
func NewMock(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &MockEmbedder{dims: dims}
}

// Embed generates the deterministic vector for a text.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	vec := make([]float32, e.dims)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

// Dimensions returns the dimensionality of produced embeddings.
func (e *MockEmbedder) Dimensions() int { return e.dims }

// Name returns the provider name.
func (e *MockEmbedder) Name() string { return "mock" }
