package registry

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/process"
)

// Builtins registers the process kinds shipped with morphocore.
type Builtins struct{}

var (
	optionalStep = Attribute{Type: cty.Number}
	requiredStep = Attribute{Type: cty.Number, Required: true}
	text         = Attribute{Type: cty.String, Required: true}
	optionalText = Attribute{Type: cty.String}
)

func constructor(fn func() process.Process) func(*config.Element) (process.Process, error) {
	return func(*config.Element) (process.Process, error) { return fn(), nil }
}

func (Builtins) Register(r *Registry) {
	r.RegisterProcess("equation", &ProcessDefinition{
		New: constructor(process.NewEquation),
		Attributes: map[string]Attribute{
			"symbol_ref": text,
			"expression": text,
		},
	})
	r.RegisterProcess("reporter", &ProcessDefinition{
		New: constructor(process.NewReporter),
		Attributes: map[string]Attribute{
			"input":              text,
			"output":             text,
			"mapping":            optionalText,
			"allow_partial":      {Type: cty.Bool},
			process.TimeStepAttr: optionalStep,
		},
	})
	r.RegisterProcess("system", &ProcessDefinition{
		New:        constructor(process.NewSystem),
		Attributes: map[string]Attribute{process.TimeStepAttr: requiredStep},
		Blocks:     []string{"rule"},
	})
	r.RegisterProcess("event", &ProcessDefinition{
		New: constructor(process.NewEvent),
		Attributes: map[string]Attribute{
			"condition":          text,
			"trigger":            optionalText,
			process.TimeStepAttr: optionalStep,
		},
		Blocks: []string{"rule"},
	})
	r.RegisterProcess("delay", &ProcessDefinition{
		New: constructor(process.NewDelay),
		Attributes: map[string]Attribute{
			"delay":              {Type: cty.Number, Required: true},
			"value":              {Type: cty.Number},
			"description":        optionalText,
			process.TimeStepAttr: optionalStep,
		},
	})
	r.RegisterProcess("logger", &ProcessDefinition{
		New: constructor(process.NewLogger),
		Attributes: map[string]Attribute{
			"columns":            {Type: cty.List(cty.String), Required: true},
			"file":               optionalText,
			process.TimeStepAttr: optionalStep,
		},
	})
	r.RegisterProcess("continuous", &ProcessDefinition{
		New: r.newSolver,
		Attributes: map[string]Attribute{
			"method":             text,
			process.TimeStepAttr: requiredStep,
		},
		Open: true,
	})
}

// newSolver wraps the stepper selected by the `method` attribute.
func (r *Registry) newSolver(el *config.Element) (process.Process, error) {
	method, err := el.RequireString("method")
	if err != nil {
		return nil, err
	}
	f, ok := r.Stepper(method)
	if !ok {
		return nil, fmt.Errorf("%s: %w for method %q (known: %v)", el.Location(), process.ErrNoStepper, method, r.Methods())
	}
	return process.NewSolver(f)(), nil
}
