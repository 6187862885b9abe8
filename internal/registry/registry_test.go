package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/symbol"
)

type nopStepper struct{}

func (nopStepper) Init(context.Context, *config.Element, *symbol.Scope) error { return nil }
func (nopStepper) Inputs() []symbol.Symbol                                    { return nil }
func (nopStepper) Outputs() []symbol.Symbol                                   { return nil }
func (nopStepper) Commit() error                                              { return nil }
func (nopStepper) Step(context.Context, float64, float64, func(context.Context) error) error {
	return nil
}

type stepperModule struct{}

func (stepperModule) Register(r *Registry) {
	r.RegisterStepper("nop", func() process.Stepper { return nopStepper{} })
}

func block(kind string, attrs map[string]cty.Value, children ...*config.Element) *config.Element {
	return &config.Element{Kind: kind, Label: "p", Attributes: attrs, Children: children}
}

func TestBuiltinKinds(t *testing.T) {
	r := New(Builtins{}, stepperModule{})
	assert.Equal(t, []string{"continuous", "delay", "equation", "event", "logger", "reporter", "system"}, r.Kinds())
	assert.Equal(t, []string{"nop"}, r.Methods())
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := New(Builtins{})
	assert.Panics(t, func() { Builtins{}.Register(r) })
	r.RegisterStepper("nop", nil)
	assert.Panics(t, func() { r.RegisterStepper("nop", nil) })
}

func TestValidate(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	r := New(Builtins{}, stepperModule{})
	rule := &config.Element{Kind: "rule", Attributes: map[string]cty.Value{}}

	tests := []struct {
		name    string
		el      *config.Element
		wantErr []string
	}{
		{
			name: "valid system",
			el:   block("system", map[string]cty.Value{"time_step": cty.NumberIntVal(1)}, rule),
		},
		{
			name:    "missing attributes are listed in order",
			el:      block("equation", map[string]cty.Value{}),
			wantErr: []string{"'expression'", "'symbol_ref'"},
		},
		{
			name:    "unsupported attribute",
			el:      block("equation", map[string]cty.Value{"symbol_ref": cty.StringVal("a"), "expression": cty.StringVal("1"), "colour": cty.StringVal("red")}),
			wantErr: []string{"unsupported attribute 'colour'"},
		},
		{
			name:    "type mismatch",
			el:      block("system", map[string]cty.Value{"time_step": cty.StringVal("soon")}, rule),
			wantErr: []string{"attribute 'time_step': type mismatch"},
		},
		{
			name:    "unsupported block",
			el:      block("equation", map[string]cty.Value{"symbol_ref": cty.StringVal("a"), "expression": cty.StringVal("1")}, rule),
			wantErr: []string{"unsupported block 'rule'"},
		},
		{
			name: "open kinds accept stepper attributes",
			el:   block("continuous", map[string]cty.Value{"method": cty.StringVal("nop"), "time_step": cty.NumberFloatVal(0.1), "rate": cty.NumberIntVal(2)}),
		},
		{
			name:    "unknown kind",
			el:      block("teleport", map[string]cty.Value{}),
			wantErr: []string{"unknown process kind 'teleport'"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Validate(ctx, tc.el)
			if len(tc.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestInstantiate(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	r := New(Builtins{}, stepperModule{})

	p, err := r.Instantiate(ctx, block("continuous", map[string]cty.Value{"method": cty.StringVal("nop"), "time_step": cty.NumberIntVal(1)}))
	require.NoError(t, err)
	assert.IsType(t, &process.Solver{}, p)

	_, err = r.Instantiate(ctx, block("continuous", map[string]cty.Value{"method": cty.StringVal("rk4"), "time_step": cty.NumberIntVal(1)}))
	assert.ErrorIs(t, err, process.ErrNoStepper)

	p, err = r.Instantiate(ctx, block("logger", map[string]cty.Value{"columns": cty.TupleVal([]cty.Value{cty.StringVal("x")})}))
	require.NoError(t, err)
	assert.IsType(t, &process.Logger{}, p)
}
