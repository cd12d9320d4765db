package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/temblorlabs/temblor/internal/embedding"
)

// InProcessStore is a brute-force in-memory implementation of Store. It is
// the test seam for the retrieval stack and the backing store in mock
// mode; cosine search is exact, not approximate.
type InProcessStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	dim    int
	points map[string]Point
	order  []string // insertion order for deterministic tie-breaks
}

// NewInProcessStore creates an empty in-process store.
func NewInProcessStore() *InProcessStore {
	return &InProcessStore{collections: make(map[string]*memCollection)}
}

// Ensure creates the collection if absent. Recreating with a different
// dimension is an error.
func (s *InProcessStore) Ensure(_ context.Context, collection string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[collection]; ok {
		if existing.dim != dim {
			return fmt.Errorf("collection %q exists with dimension %d, requested %d: %w",
				collection, existing.dim, dim, ErrDimensionMismatch)
		}
		return nil
	}
	s.collections[collection] = &memCollection{dim: dim, points: make(map[string]Point)}
	return nil
}

// Exists reports whether the collection exists.
func (s *InProcessStore) Exists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collection]
	return ok, nil
}

// Upsert stores points with last-writer-wins semantics on the id.
func (s *InProcessStore) Upsert(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	for _, p := range points {
		if len(p.Vector) != col.dim {
			return fmt.Errorf("point %q has dimension %d, collection %q requires %d: %w",
				p.ID, len(p.Vector), collection, col.dim, ErrDimensionMismatch)
		}
		if _, seen := col.points[p.ID]; !seen {
			col.order = append(col.order, p.ID)
		}
		col.points[p.ID] = p
	}
	return nil
}

// KNN performs exact cosine search, best first. Ties keep insertion order.
func (s *InProcessStore) KNN(_ context.Context, collection string, vector []float32, k int) ([]Scored, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}
	if len(vector) != col.dim {
		return nil, fmt.Errorf("query has dimension %d, collection %q requires %d: %w",
			len(vector), collection, col.dim, ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]Scored, 0, len(col.points))
	for _, id := range col.order {
		p := col.points[id]
		sim, err := embedding.CosineSimilarity(vector, p.Vector)
		if err != nil {
			return nil, err
		}
		scored = append(scored, Scored{Point: p, Score: normalizeCosine(sim)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
