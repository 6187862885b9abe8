package process

import (
	"context"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/symbol"
)

// Equation keeps a symbol equal to an expression. It is a reporter that
// continuous processes may re-evaluate between sub-steps.
//
//	equation "v_total" {
//	  symbol_ref = "v"
//	  expression = "a * volume"
//	}
type Equation struct {
	Listener
	target string
	text   string
	assign assignment
}

// NewEquation returns an unconfigured equation.
func NewEquation() Process { return &Equation{} }

func (e *Equation) Category() Category { return Reporter{SubStep: true} }

func (e *Equation) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := e.Configure(el, scope, StepNone); err != nil {
		return err
	}
	e.markReporter()
	var err error
	if e.target, err = el.RequireString("symbol_ref"); err != nil {
		return err
	}
	e.text, err = el.RequireString("expression")
	return err
}

func (e *Equation) Init(_ context.Context, rt Runtime) error {
	a, err := newAssignment(e.scope, e.target, e.text)
	if err != nil {
		return err
	}
	if err := a.Init(rt.Pool().Workers()); err != nil {
		return err
	}
	e.assign = a
	e.Bind(rt)
	return nil
}

func (e *Equation) DependSymbols() []symbol.Symbol { return e.assign.Inputs() }
func (e *Equation) OutputSymbols() []symbol.Symbol { return []symbol.Symbol{e.assign.Target()} }

func (e *Equation) Prepare(context.Context, float64) error { return nil }

func (e *Equation) Execute(ctx context.Context) error {
	return computeAll(ctx, e.rt.Pool(), e.scope, e.assign, false)
}
