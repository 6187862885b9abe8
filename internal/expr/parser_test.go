package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrecedence(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{name: "mul before add", src: "a+b*c", want: "(a + (b * c))"},
		{name: "left assoc minus", src: "a-b-c", want: "((a - b) - c)"},
		{name: "right assoc pow", src: "a^b^c", want: "(a ^ (b ^ c))"},
		{name: "unary binds weaker than pow", src: "-a^2", want: "(-(a ^ 2))"},
		{name: "unary plus is dropped", src: "+a", want: "a"},
		{name: "grouping", src: "(a+b)*c", want: "((a + b) * c)"},
		{name: "comparison and logic", src: "a<1 && b>=2 or !c", want: "(((a < 1) && (b >= 2)) || (!c))"},
		{name: "nested ternary", src: "a ? 1 : b ? 2 : 3", want: "(a ? 1 : (b ? 2 : 3))"},
		{name: "call with args", src: "max(a, b+1, 3)", want: "max(a, (b + 1), 3)"},
		{name: "dotted identifiers", src: "v.x + celltype.size", want: "(v.x + celltype.size)"},
		{name: "named constant", src: "2*_pi", want: "(2 * 3.141592653589793)"},
		{name: "scientific notation", src: "1.5e-3 + .5", want: "(0.0015 + 0.5)"},
		{name: "top level list", src: "1, a, b*2", want: "1, a, (b * 2)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := Parse(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tree.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{name: "empty", src: "   ", wantMsg: "empty expression"},
		{name: "dangling operator", src: "a +", wantMsg: "expected operand"},
		{name: "unbalanced paren", src: "(a+b", wantMsg: "expected )"},
		{name: "single equals", src: "a = b", wantMsg: "use '=='"},
		{name: "trailing dot", src: "a. + 1", wantMsg: "cannot end with '.'"},
		{name: "stray token", src: "a b", wantMsg: "unexpected \"b\""},
		{name: "bad char", src: "a # b", wantMsg: "unexpected character"},
		{name: "ternary without colon", src: "a ? b", wantMsg: "expected :"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			require.Error(t, err)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestTreeAnalysis(t *testing.T) {
	tree, err := Parse("a + f(b, a) * rand_uni(0, 1) + b")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, tree.Idents())
	assert.Equal(t, []string{"f", "rand_uni"}, tree.Calls())

	_, single := tree.SingleIdent()
	assert.False(t, single)

	alias, err := Parse(" cell.volume ")
	require.NoError(t, err)
	id, ok := alias.SingleIdent()
	require.True(t, ok)
	assert.Equal(t, "cell.volume", id.Name)

	assert.Equal(t, "a + b", Clean("  a \t+\n b "))
}
