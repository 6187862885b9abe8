package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapBinder binds identifiers in order of first sight and exposes a single
// user function `twice`.
type mapBinder struct {
	slots map[string]int
	names []string
}

func (b *mapBinder) BindIdent(name string) (int, error) {
	if b.slots == nil {
		b.slots = map[string]int{}
	}
	if name == "missing" {
		return 0, errors.New("undefined")
	}
	if s, ok := b.slots[name]; ok {
		return s, nil
	}
	b.slots[name] = len(b.names)
	b.names = append(b.names, name)
	return b.slots[name], nil
}

func (b *mapBinder) BindCall(name string, _ int) (int, bool, error) {
	if name == "twice" {
		return 0, true, nil
	}
	return 0, false, nil
}

type twiceCaller struct{}

func (twiceCaller) CallSlot(_ int, args []float64) (float64, error) { return 2 * args[0], nil }

func evalString(t *testing.T, src string, env map[string]float64) float64 {
	t.Helper()
	tree, err := Parse(src)
	require.NoError(t, err)
	b := &mapBinder{}
	require.NoError(t, tree.Bind(b))
	vars := make([]float64, len(b.names))
	for i, n := range b.names {
		vars[i] = env[n]
	}
	require.Len(t, tree.Results, 1)
	v, err := Eval(tree.Results[0], vars, twiceCaller{})
	require.NoError(t, err)
	return v
}

func TestEval(t *testing.T) {
	env := map[string]float64{"a": 3, "b": 12, "c": 0}
	testCases := []struct {
		src  string
		want float64
	}{
		{"a+1", 4},
		{"a+1+b", 16},
		{"2^3^2", 512},
		{"-a^2", -9},
		{"b % 5", 2},
		{"mod(7, 4)", 3},
		{"a < b ? a : b", 3},
		{"c && (1/c > 0)", 0},
		{"c || a", 1},
		{"!c", 1},
		{"a == 3", 1},
		{"a != 3", 0},
		{"max(a, b, 7)", 12},
		{"avg(1, 2, 3)", 2},
		{"sign(-a)", -1},
		{"twice(a) + 1", 7},
		{"hypot(3, 4)", 5},
		{"sqrt(a^2 + 4^2)", 5},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			assert.InDelta(t, tc.want, evalString(t, tc.src, env), 1e-12)
		})
	}
}

func TestBindErrors(t *testing.T) {
	testCases := []struct {
		src     string
		wantMsg string
	}{
		{"missing + 1", "undefined"},
		{"nosuch(1)", "unknown function"},
		{"sin(1, 2)", "wrong number of arguments"},
		{"max()", "wrong number of arguments"},
	}
	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			tree, err := Parse(tc.src)
			require.NoError(t, err)
			err = tree.Bind(&mapBinder{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestVolatileBuiltins(t *testing.T) {
	tree, err := Parse("rand_uni(2, 3) + rand_bool()")
	require.NoError(t, err)
	require.NoError(t, tree.Bind(&mapBinder{}))
	assert.True(t, tree.Volatile())

	for range 50 {
		v, err := Eval(tree.Results[0], nil, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 2.0)
		assert.Less(t, v, 4.0)
	}

	plain, err := Parse("sin(1)")
	require.NoError(t, err)
	require.NoError(t, plain.Bind(&mapBinder{}))
	assert.False(t, plain.Volatile())
}

func TestRandGammaMean(t *testing.T) {
	const n = 20000
	total := 0.0
	for range n {
		total += randGamma(2, 1.5)
	}
	assert.InDelta(t, 3.0, total/n, 0.15)
	assert.True(t, math.IsNaN(randGamma(-1, 1)))
}
