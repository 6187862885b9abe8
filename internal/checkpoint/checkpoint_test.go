package checkpoint

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/symbol"
	"github.com/vk/morphocore/internal/vec"
)

type world struct {
	root   *symbol.Scope
	x      *symbol.Variable[float64]
	v      *symbol.Variable[vec.Vec3]
	volume *symbol.Property[float64]
}

func newWorld(t *testing.T) *world {
	t.Helper()
	root := symbol.NewRegistry("Global").Root()
	w := &world{
		root:   root,
		x:      symbol.NewVariable("x", "", 1.0),
		v:      symbol.NewVariable("v", "", vec.New(1, 2, 3)),
		volume: symbol.NewProperty("volume", "", 1.0),
	}
	require.NoError(t, root.RegisterSymbol(w.x))
	require.NoError(t, root.RegisterSymbol(w.v))
	require.NoError(t, root.RegisterSymbol(symbol.NewConstant("k", 2.0)))
	tissue := root.CreateSubScope("tissue")
	require.NoError(t, tissue.RegisterSymbol(w.volume))
	require.NoError(t, w.volume.Set(symbol.CellFocus(0), 4))
	require.NoError(t, w.volume.Set(symbol.CellFocus(1), 5))
	return w
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCapture(t *testing.T) {
	w := newWorld(t)
	snap, err := Capture("run", 3, w.root)
	require.NoError(t, err)
	assert.Equal(t, 3.0, snap.Time)
	require.Len(t, snap.Scopes, 2)

	x, ok := snap.Lookup(w.root.Path().String(), "x")
	require.True(t, ok)
	assert.Equal(t, []float64{1}, x.Components)

	v, ok := snap.Lookup(w.root.Path().String(), "v")
	require.True(t, ok)
	assert.Equal(t, "vector", v.Type)
	assert.Equal(t, []float64{1, 2, 3}, v.Components)

	_, ok = snap.Lookup(w.root.Path().String(), "k")
	assert.False(t, ok, "constants are not captured")

	tissue := w.root.Children()[0].Path().String()
	vol, ok := snap.Lookup(tissue, "volume")
	require.True(t, ok)
	assert.Equal(t, map[int64][]float64{0: {4}, 1: {5}}, vol.Cells)
}

func TestStoreRoundTripAndRestore(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	store := openStore(t)
	w := newWorld(t)

	require.NoError(t, store.Save(ctx, "run", 2, w.root))

	require.NoError(t, w.x.Set(symbol.GlobalFocus(), 99))
	require.NoError(t, w.v.Set(symbol.GlobalFocus(), vec.Splat(0)))
	require.NoError(t, w.volume.Set(symbol.CellFocus(1), 0))

	snap, err := store.Load(ctx, "run", 2)
	require.NoError(t, err)
	require.NoError(t, Restore(snap, w.root))

	x, _ := w.x.Get(symbol.GlobalFocus())
	assert.Equal(t, 1.0, x)
	v, _ := w.v.Get(symbol.GlobalFocus())
	assert.Equal(t, vec.New(1, 2, 3), v)
	vol, _ := w.volume.Get(symbol.CellFocus(1))
	assert.Equal(t, 5.0, vol)
}

func TestStoreLatestAndTimes(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	store := openStore(t)
	w := newWorld(t)

	for _, tm := range []float64{-1, 0.5, 10, 2} {
		require.NoError(t, store.Save(ctx, "a", tm, w.root))
	}
	require.NoError(t, store.Save(ctx, "b", 100, w.root))

	times, err := store.Times(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0.5, 2, 10}, times)

	latest, err := store.Latest(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10.0, latest.Time)
	assert.Equal(t, "a", latest.RunID)

	_, err = store.Latest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Load(ctx, "a", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRejectsInvalidRunID(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	store := openStore(t)
	w := newWorld(t)

	for _, id := range []string{"", "a/b", "/"} {
		assert.ErrorIs(t, store.Save(ctx, id, 1, w.root), ErrInvalidRunID, "%q", id)
		_, err := store.Latest(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidRunID, "%q", id)
		_, err = store.Times(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidRunID, "%q", id)
		_, err = store.Load(ctx, id, 1)
		assert.ErrorIs(t, err, ErrInvalidRunID, "%q", id)
	}
	assert.ErrorIs(t, store.Put(ctx, &Snapshot{RunID: "a/b", Time: 1}), ErrInvalidRunID)

	require.NoError(t, store.Save(ctx, "a", 1, w.root))
	times, err := store.Times(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, times)
}

func TestKeyOrdering(t *testing.T) {
	values := []float64{math.Inf(-1), -5, -0.25, 0, 1e-9, 3, math.Inf(1)}
	for i := 1; i < len(values); i++ {
		a, b := key("r", values[i-1]), key("r", values[i])
		assert.Less(t, string(a), string(b), "%g < %g", values[i-1], values[i])
	}
	for _, v := range values {
		assert.Equal(t, v, timeOf(key("r", v)))
	}
}

func TestRestoreUnknownScope(t *testing.T) {
	w := newWorld(t)
	snap := &Snapshot{Scopes: []ScopeSnapshot{{Path: "Global.nowhere", Symbols: []SymbolSnapshot{{Name: "x", Type: "double", Components: []float64{1}}}}}}
	err := Restore(snap, w.root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)

	s, err := Open(Config{Path: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
