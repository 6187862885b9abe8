package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/symbol"
)

func cellFoci(n int) []symbol.Focus {
	out := make([]symbol.Focus, n)
	for i := range out {
		out[i] = symbol.CellFocus(symbol.CellID(i))
	}
	return out
}

func TestForEachVisitsEveryFocusOnce(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	testCases := []struct {
		name    string
		workers int
		foci    int
	}{
		{name: "serial below threshold", workers: 4, foci: 10},
		{name: "single worker", workers: 1, foci: 100},
		{name: "parallel", workers: 4, foci: 1000},
		{name: "more workers than foci", workers: 64, foci: 40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool := New(tc.workers)
			var mu sync.Mutex
			seen := make(map[symbol.Focus]int)
			workersUsed := make(map[int]bool)

			err := pool.ForEach(ctx, cellFoci(tc.foci), func(w int, f symbol.Focus) error {
				mu.Lock()
				defer mu.Unlock()
				seen[f]++
				workersUsed[w] = true
				assert.Less(t, w, pool.Workers())
				return nil
			})
			require.NoError(t, err)
			assert.Len(t, seen, tc.foci)
			for f, n := range seen {
				assert.Equal(t, 1, n, "focus %s", f)
			}
		})
	}
}

func TestForEachStopsOnError(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	boom := errors.New("boom")
	err := New(4).ForEach(ctx, cellFoci(500), func(_ int, f symbol.Focus) error {
		if id, _ := f.Cell(); id == 250 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestForEachHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(ctxlog.Discard(context.Background()))
	cancel()
	err := New(2).ForEach(ctx, cellFoci(5), func(int, symbol.Focus) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewDefaultsToProcs(t *testing.T) {
	assert.Positive(t, New(0).Workers())
}
