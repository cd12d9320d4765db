// Package memory is the long-term experience memory: a vector-indexed
// store of experience units and decision snapshots. It performs storage
// and raw approximate-nearest-neighbour retrieval only; ranking and
// reasoning happen downstream.
package memory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/temblorlabs/temblor/internal/situation"
)

// ErrDimensionMismatch is returned when an upserted vector does not match
// the collection's fixed dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Point is one stored record: a vector plus the payload needed to
// reconstruct the original unit or snapshot.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Scored is a retrieved point with its similarity score normalized to
// [0, 1] at the store boundary.
type Scored struct {
	Point
	Score float64
}

// Store is the vector memory contract. Upserts are idempotent on the point
// id with last-writer-wins semantics; retrieval is consistent with the
// state after the most recent acknowledged upsert.
type Store interface {
	// Ensure creates the collection with the given fixed vector dimension
	// and cosine distance if it does not exist.
	Ensure(ctx context.Context, collection string, dim int) error

	// Exists reports whether the collection exists.
	Exists(ctx context.Context, collection string) (bool, error)

	// Upsert stores points, replacing any existing point with the same id.
	Upsert(ctx context.Context, collection string, points []Point) error

	// KNN returns up to k nearest points by cosine similarity, best first.
	KNN(ctx context.Context, collection string, vector []float32, k int) ([]Scored, error)
}

// Default collection names for the two data paths.
const (
	CollectionExperiences = "earthquake_experiences"
	CollectionSnapshots   = "decision_snapshots"
)

// ExperienceID derives the deterministic point id for an experience unit:
// a v5 UUID over source_case_id and phase, so re-ingesting a case is
// idempotent.
func ExperienceID(sourceCaseID string, phase situation.TimePhase) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(sourceCaseID+"_"+string(phase))).String()
}

// normalizeCosine maps a raw cosine similarity in [-1, 1] to [0, 1].
func normalizeCosine(s float64) float64 {
	n := (s + 1) / 2
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
