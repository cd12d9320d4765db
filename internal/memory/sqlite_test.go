package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteEnsureAndExists(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "c")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Ensure(ctx, "c", 3))
	require.NoError(t, s.Ensure(ctx, "c", 3))

	exists, err = s.Exists(ctx, "c")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.ErrorIs(t, s.Ensure(ctx, "c", 5), ErrDimensionMismatch)
}

func TestSQLiteUpsertAndKNN(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "c", 2))

	require.NoError(t, s.Upsert(ctx, "c", []Point{
		{ID: "far", Vector: []float32{0, 1}, Payload: map[string]any{"label": "far"}},
		{ID: "near", Vector: []float32{1, 0}, Payload: map[string]any{"label": "near"}},
	}))

	got, err := s.KNN(ctx, "c", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "near", got[0].Payload["label"])
	assert.Equal(t, "far", got[1].ID)
}

func TestSQLiteUpsertReplacesExistingPoint(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "c", 2))

	require.NoError(t, s.Upsert(ctx, "c", []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"v": "old"}},
	}))
	require.NoError(t, s.Upsert(ctx, "c", []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"v": "new"}},
	}))

	got, err := s.KNN(ctx, "c", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Payload["v"])
}

func TestSQLiteDimensionChecks(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ensure(ctx, "c", 2))

	err := s.Upsert(ctx, "c", []Point{{ID: "a", Vector: []float32{1, 0, 0}}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = s.KNN(ctx, "c", []float32{1}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = s.Upsert(ctx, "missing", []Point{{ID: "a", Vector: []float32{1, 0}}})
	assert.ErrorContains(t, err, "does not exist")
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Ensure(ctx, "c", 2))
	require.NoError(t, s.Upsert(ctx, "c", []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"kept": true}},
	}))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.KNN(ctx, "c", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, true, got[0].Payload["kept"])
}
