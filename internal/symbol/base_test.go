package symbol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableBuffer(t *testing.T) {
	v := NewVariable("x", "", 1.0)
	g := GlobalFocus()

	require.NoError(t, v.SetBuffer(g, 5))
	got, _ := v.Get(g)
	assert.Equal(t, 1.0, got, "buffered write must not be visible before apply")

	v.ApplyBuffer()
	got, _ = v.Get(g)
	assert.Equal(t, 5.0, got)

	require.NoError(t, v.Set(g, 2))
	v.ApplyBuffer()
	got, _ = v.Get(g)
	assert.Equal(t, 2.0, got, "apply without pending write keeps the value")
}

func TestPropertyPerCell(t *testing.T) {
	p := NewProperty("volume", "", 10.0)

	_, err := p.Get(GlobalFocus())
	require.ErrorIs(t, err, ErrInvalidFocus)

	require.NoError(t, p.Set(CellFocus(1), 3))
	require.NoError(t, p.SetBuffer(CellFocus(2), 4))

	v1, _ := p.Get(CellFocus(1))
	v2, _ := p.Get(CellFocus(2))
	assert.Equal(t, 3.0, v1)
	assert.Equal(t, 10.0, v2)

	p.ApplyBuffer()
	v2, _ = p.Get(CellFocus(2))
	assert.Equal(t, 4.0, v2)
	assert.Equal(t, map[CellID]float64{1: 3, 2: 4}, p.Snapshot())
}

func TestPropertyConcurrentAccess(t *testing.T) {
	p := NewProperty("volume", "", 0.0)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id CellID) {
			defer wg.Done()
			for range 100 {
				_ = p.SetBuffer(CellFocus(id), float64(id))
				_, _ = p.Get(CellFocus(id))
			}
		}(CellID(i))
	}
	wg.Wait()
	p.ApplyBuffer()
	assert.Len(t, p.Snapshot(), 8)
}

func TestGoFunctionArity(t *testing.T) {
	f := NewGoFunction("twice", []string{"x"}, ConstFlags(), func(_ Focus, args []float64) (float64, error) {
		return 2 * args[0], nil
	})
	v, err := f.Call(GlobalFocus(), []float64{3})
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)

	_, err = f.Call(GlobalFocus(), nil)
	require.Error(t, err)
	assert.Equal(t, Function, f.Type())
}

func TestLeafDependSymbols(t *testing.T) {
	a := NewConstant("a", 1.0)
	b := NewVariable("b", "", 1.0)
	derived := NewGoFunction("d", nil, Flags{}, nil, a, b)

	assert.Equal(t, []Symbol{a}, LeafDependSymbols(a))
	assert.Equal(t, []Symbol{a, b}, LeafDependSymbols(derived))
}
