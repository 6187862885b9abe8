package yaml_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
)

func loadSource(t *testing.T, src string) (*config.Model, error) {
	t.Helper()
	ctx := ctxlog.Discard(context.Background())
	return NewLoader().LoadSource(ctx, []byte(src), "test.yaml")
}

const sample = `
time:
  stop: 10
  stop_condition: x > 5
variable x:
  value: 1
  type: vector
variable w:
  value: [1, 2.5, 0x10]
logger out:
  columns: [x]
  file: "-"
population: ~
system growth:
  time_step: 0.5
  rule:
    - symbol_ref: x
      expression: x + 1
    - symbol_ref: w
      expression: w * 2
`

func TestLoadSourceTranslatesBlocks(t *testing.T) {
	model, err := loadSource(t, sample)
	require.NoError(t, err)
	assert.Equal(t, []string{"test.yaml"}, model.Files)

	var names []string
	for _, el := range model.Root.Children {
		names = append(names, el.Name())
	}
	assert.Equal(t, []string{"time", "variable.x", "variable.w", "logger.out", "population", "system.growth"}, names)

	tm := model.Root.Children[0]
	stop, ok, err := tm.Float("stop")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, stop)
	assert.Equal(t, cty.StringVal("x > 5"), tm.Attributes["stop_condition"])
	assert.Equal(t, 2, tm.Range.Start.Line)

	w, _, err := model.Root.Children[2].FloatList("value")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, 16}, w)

	cols, _, err := model.Root.Children[3].StringList("columns")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, cols)

	assert.Empty(t, model.Root.Children[4].Attributes)

	sys := model.Root.Children[5]
	require.Len(t, sys.Children, 2)
	assert.Equal(t, "rule", sys.Children[1].Kind)
	expr, err := sys.Children[1].RequireString("expression")
	require.NoError(t, err)
	assert.Equal(t, "w * 2", expr)
}

func TestLoadSourceNestedScope(t *testing.T) {
	model, err := loadSource(t, `
scope tissue:
  property volume:
    value: 2
  equation grow:
    symbol_ref: volume
    expression: volume * 1.1
`)
	require.NoError(t, err)
	require.Len(t, model.Root.Children, 1)
	scope := model.Root.Children[0]
	assert.Equal(t, "tissue", scope.Label)
	require.Len(t, scope.Children, 2)
	assert.Equal(t, "property.volume", scope.Children[0].Name())
	assert.Equal(t, "equation.grow", scope.Children[1].Name())
}

func TestLoadSourceMultipleDocuments(t *testing.T) {
	model, err := loadSource(t, "time:\n  stop: 1\n---\nconstant k:\n  value: 2\n")
	require.NoError(t, err)
	assert.Len(t, model.Root.Children, 2)
}

func TestLoadSourceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "time: [", "failed to parse"},
		{"not a mapping", "- a\n- b", "must be a mapping of blocks"},
		{"key with three words", "variable a b:\n  value: 1", "must be \"kind\" or \"kind label\""},
		{"scalar block", "time: 5", "must be a mapping"},
		{"mixed list", "constant k:\n  value: [1, [2]]", "may only hold scalars"},
		{"nan", "constant k:\n  value: .nan", "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSource(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "parts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("time:\n  stop: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parts", "b.yml"), []byte("constant k:\n  value: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parts", "c.hcl"), []byte("ignored {}"), 0o644))

	model, err := NewLoader().Load(ctxlog.Discard(context.Background()), dir)
	require.NoError(t, err)
	assert.Len(t, model.Files, 2)
	require.Len(t, model.Root.Children, 2)
	assert.Equal(t, "time", model.Root.Children[0].Kind)
	assert.Equal(t, "constant", model.Root.Children[1].Kind)
}
