package storage

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
	Qty  float64 `json:"qty"`
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreCRUD(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Set("fridge:1", doc{Name: "당근", Qty: 2}))

	var got doc
	require.NoError(t, s.Get("fridge:1", &got))
	assert.Equal(t, doc{Name: "당근", Qty: 2}, got)

	err := s.Get("fridge:2", &got)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Delete("fridge:1"))
	assert.True(t, errors.Is(s.Get("fridge:1", &got), ErrNotFound))
}

func TestStoreList(t *testing.T) {
	s := newStore(t)
	for _, k := range []string{"recipe:b", "recipe:a", "fridge:1", "recipes"} {
		require.NoError(t, s.Set(k, doc{Name: k}))
	}

	keys, err := s.List("recipe:")
	require.NoError(t, err)
	assert.Equal(t, []string{"recipe:a", "recipe:b"}, keys)
}

func TestStoreSetMany(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("cooking:1", doc{Name: "pending"}))

	err := s.SetMany(map[string]interface{}{
		"fridge:1": doc{Name: "계란", Qty: 0},
		"stats:1":  doc{Name: "stats", Qty: 1},
	}, "cooking:1")
	require.NoError(t, err)

	var got doc
	require.NoError(t, s.Get("fridge:1", &got))
	assert.Equal(t, "계란", got.Name)
	require.NoError(t, s.Get("stats:1", &got))
	assert.Equal(t, 1.0, got.Qty)
	assert.True(t, errors.Is(s.Get("cooking:1", &got), ErrNotFound))
}

func TestStoreCloseStopsGC(t *testing.T) {
	s, err := NewInMemory()
	require.NoError(t, err)
	s.StartGCRoutine(time.Hour)
	require.NoError(t, s.Close())

	select {
	case <-s.stop:
	default:
		t.Fatal("GC routine was not signalled to stop")
	}
}
