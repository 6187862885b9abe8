package symbol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/vec"
)

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry("Global")
	root := reg.Root()
	cells := root.CreateSubScope("cells")

	require.NoError(t, root.RegisterSymbol(NewConstant("a", 3.0)))
	require.NoError(t, cells.RegisterSymbol(NewProperty("volume", "", 1.0)))

	t.Run("local symbol", func(t *testing.T) {
		sym, err := cells.Lookup("volume")
		require.NoError(t, err)
		assert.Same(t, cells, sym.Scope())
	})

	t.Run("falls back to parent", func(t *testing.T) {
		sym, err := cells.Lookup("a")
		require.NoError(t, err)
		assert.Same(t, root, sym.Scope())
	})

	t.Run("child names are invisible from parent", func(t *testing.T) {
		_, err := root.Lookup("volume")
		require.ErrorIs(t, err, ErrUndefined)
		assert.Contains(t, err.Error(), "Global")
	})

	t.Run("duplicate in same scope", func(t *testing.T) {
		err := root.RegisterSymbol(NewConstant("a", 1.0))
		require.ErrorIs(t, err, ErrDuplicateSymbol)
	})

	t.Run("shadowing in child scope", func(t *testing.T) {
		require.NoError(t, cells.RegisterSymbol(NewConstant("a", 7.0)))
		acc, err := FindSymbol[float64](cells, "a")
		require.NoError(t, err)
		v, err := acc.Get(GlobalFocus())
		require.NoError(t, err)
		assert.Equal(t, 7.0, v)
	})
}

func TestFindSymbolErrors(t *testing.T) {
	root := NewRegistry("Global").Root()
	require.NoError(t, root.RegisterSymbol(NewConstant("v", vec.New(1, 2, 2))))
	require.NoError(t, root.RegisterSymbol(NewConstant("c", 1.0)))
	require.NoError(t, root.RegisterSymbol(NewVariable("x", "", 0.0)))

	testCases := []struct {
		name   string
		find   func() error
		target error
	}{
		{
			name:   "undefined",
			find:   func() error { _, err := FindSymbol[float64](root, "nope"); return err },
			target: ErrUndefined,
		},
		{
			name:   "vector requested as double",
			find:   func() error { _, err := FindSymbol[float64](root, "v"); return err },
			target: ErrTypeMismatch,
		},
		{
			name:   "double requested as vector",
			find:   func() error { _, err := FindSymbol[vec.Vec3](root, "c"); return err },
			target: ErrTypeMismatch,
		},
		{
			name:   "constant is not writable",
			find:   func() error { _, err := FindRWSymbol[float64](root, "c"); return err },
			target: ErrNotWritable,
		},
		{
			name: "variable is writable",
			find: func() error { _, err := FindRWSymbol[float64](root, "x"); return err },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.find()
			if tc.target == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.target), "got %v", err)
		})
	}
}

func TestScopeTree(t *testing.T) {
	reg := NewRegistry("Global")
	root := reg.Root()
	a := root.CreateSubScope("celltype")
	b := root.CreateSubScope("celltype")
	leaf := b.CreateSubScope("membrane")

	assert.Equal(t, 4, reg.Len())
	assert.Equal(t, "Global.celltype", a.Path().String())
	assert.Equal(t, "Global.celltype[1]", b.Path().String())
	assert.Equal(t, "Global.celltype[1].membrane", leaf.Path().String())
	assert.Same(t, b, leaf.Parent())
	assert.Nil(t, root.Parent())
	assert.Equal(t, []*Scope{a, b}, root.Children())

	var visited []string
	require.NoError(t, root.Walk(func(s *Scope) error {
		visited = append(visited, s.Path().String())
		return nil
	}))
	assert.Equal(t, []string{"Global", "Global.celltype", "Global.celltype[1]", "Global.celltype[1].membrane"}, visited)
}

func TestFunctionsShadowing(t *testing.T) {
	root := NewRegistry("Global").Root()
	child := root.CreateSubScope("cells")
	one := func(Focus, []float64) (float64, error) { return 1, nil }
	two := func(Focus, []float64) (float64, error) { return 2, nil }

	require.NoError(t, root.RegisterSymbol(NewGoFunction("f", nil, ConstFlags(), one)))
	require.NoError(t, root.RegisterSymbol(NewGoFunction("g", []string{"x"}, ConstFlags(), one)))
	require.NoError(t, child.RegisterSymbol(NewGoFunction("f", nil, ConstFlags(), two)))

	fns := child.Functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "f", fns[0].Name())
	assert.Same(t, child, fns[0].Scope())
	assert.Equal(t, "g", fns[1].Name())
}

func TestUnresolvedMarks(t *testing.T) {
	root := NewRegistry("Global").Root()
	child := root.CreateSubScope("cells")

	root.MarkUnresolved("x")
	child.MarkUnresolved("y")
	assert.True(t, root.IsUnresolved("x"))
	assert.False(t, root.IsUnresolved("y"))

	root.Resolve("x")
	assert.False(t, root.IsUnresolved("x"))

	root.ClearUnresolved()
	assert.False(t, child.IsUnresolved("y"))
}

func TestFoci(t *testing.T) {
	root := NewRegistry("Global").Root()
	cells := root.CreateSubScope("cells")
	pop := NewPopulation("celltype.size", 2)
	pop.AddCell(1, vec.New(0, 0, 0))
	pop.AddCell(2, vec.New(1, 0, 0))
	cells.SetFocusRange(pop.Foci)
	nested := cells.CreateSubScope("sub")

	assert.Equal(t, []Focus{GlobalFocus()}, cells.Foci(Global))
	assert.Equal(t, []Focus{CellFocus(1), CellFocus(2)}, nested.Foci(Cell))
	assert.Len(t, cells.Foci(MembraneNode), 4)
	assert.Nil(t, root.Foci(Cell))
}
