package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/symbol"
)

func TestFunctionSymbol(t *testing.T) {
	scope := newScope(t, symbol.NewConstant("a", 3.0))
	f, err := NewFunction("f", []string{"x"}, "x^2 + a", scope)
	require.NoError(t, err)
	require.NoError(t, scope.RegisterSymbol(f))

	ev, err := New[float64]("f(2) + f(1)", scope)
	require.NoError(t, err)
	v, err := ev.Get(symbol.GlobalFocus())
	require.NoError(t, err)
	assert.Equal(t, 11.0, v)
	assert.True(t, ev.IsConstant())

	_, err = New[float64]("f(1, 2)", scope)
	require.NoError(t, err)
	require.Error(t, initExpr[float64]("f(1, 2)", scope))

	names := make([]string, 0)
	for _, s := range ev.DependSymbols() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"f", "a"}, names)
}

func TestNullaryFunctionAsVariable(t *testing.T) {
	scope := newScope(t, symbol.NewConstant("a", 3.0))
	g, err := NewFunction("g", nil, "a*10", scope)
	require.NoError(t, err)
	require.NoError(t, scope.RegisterSymbol(g))

	ev, err := New[float64]("g + 1", scope)
	require.NoError(t, err)
	v, err := ev.Get(symbol.GlobalFocus())
	require.NoError(t, err)
	assert.Equal(t, 31.0, v)
}

func TestRecursiveDefinition(t *testing.T) {
	scope := newScope(t)
	d, err := NewDerived[float64]("d", "d + 1", scope)
	require.NoError(t, err)
	require.NoError(t, scope.RegisterSymbol(d))

	err = d.Init()
	require.ErrorIs(t, err, errRecursiveDefinition)
}
