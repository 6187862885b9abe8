package testutil

import (
	"context"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/registry"
	"github.com/vk/morphocore/internal/symbol"
)

// EulerModule registers the "euler" stepper: an explicit Euler step of one
// global variable, `symbol_ref`, along the expression `rate`.
type EulerModule struct{}

func (EulerModule) Register(r *registry.Registry) {
	r.RegisterStepper("euler", func() process.Stepper { return &euler{} })
}

type euler struct {
	target symbol.RWAccessor[float64]
	rate   *evaluator.ExpressionEvaluator[float64]
	next   float64
}

func (e *euler) Init(_ context.Context, el *config.Element, scope *symbol.Scope) error {
	name, err := el.RequireString("symbol_ref")
	if err != nil {
		return err
	}
	text, err := el.RequireString("rate")
	if err != nil {
		return err
	}
	if e.target, err = symbol.FindRWSymbol[float64](scope, name); err != nil {
		return err
	}
	if e.rate, err = evaluator.New[float64](text, scope); err != nil {
		return err
	}
	return e.rate.Init()
}

func (e *euler) Inputs() []symbol.Symbol  { return e.rate.DependSymbols() }
func (e *euler) Outputs() []symbol.Symbol { return []symbol.Symbol{e.target} }

func (e *euler) Step(ctx context.Context, _, dt float64, substep func(context.Context) error) error {
	v, err := e.target.Get(symbol.GlobalFocus())
	if err != nil {
		return err
	}
	r, err := e.rate.Get(symbol.GlobalFocus())
	if err != nil {
		return err
	}
	e.next = v + dt*r
	return substep(ctx)
}

func (e *euler) Commit() error {
	return e.target.Set(symbol.GlobalFocus(), e.next)
}
