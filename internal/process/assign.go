package process

import (
	"context"
	"fmt"

	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/executor"
	"github.com/vk/morphocore/internal/symbol"
	"github.com/vk/morphocore/internal/vec"
)

// assignment evaluates an expression and writes the result into a writable
// symbol. It hides the value type of the target.
type assignment interface {
	Init(workers int) error
	Target() symbol.Symbol
	Inputs() []symbol.Symbol
	// Granularity is the resolution the assignment has to be computed at.
	Granularity() symbol.Granularity
	ComputeAt(worker int, f symbol.Focus, buffered bool) error
	Apply()
}

type typedAssignment[T symbol.Value] struct {
	text   string
	scope  *symbol.Scope
	target symbol.RWAccessor[T]
	eval   *evaluator.ThreadedEvaluator[T]
}

// newAssignment binds `target = text` in scope.
func newAssignment(scope *symbol.Scope, target, text string) (assignment, error) {
	sym, err := scope.Lookup(target)
	if err != nil {
		return nil, err
	}
	if sym.Type() == symbol.Vector {
		return newTypedAssignment[vec.Vec3](scope, target, text)
	}
	return newTypedAssignment[float64](scope, target, text)
}

func newTypedAssignment[T symbol.Value](scope *symbol.Scope, target, text string) (*typedAssignment[T], error) {
	rw, err := symbol.FindRWSymbol[T](scope, target)
	if err != nil {
		return nil, err
	}
	return &typedAssignment[T]{text: text, scope: scope, target: rw}, nil
}

func (a *typedAssignment[T]) Init(workers int) error {
	ev, err := evaluator.New[T](a.text, a.scope)
	if err != nil {
		return err
	}
	a.eval = evaluator.NewThreaded(ev, workers)
	if err := a.eval.Init(); err != nil {
		return err
	}
	if g := a.eval.Flags().Granularity; g > a.target.Flags().Granularity {
		return fmt.Errorf("%w: %q varies per %s but target %q only per %s",
			symbol.ErrTypeMismatch, a.text, g, a.target.Name(), a.target.Flags().Granularity)
	}
	return nil
}

func (a *typedAssignment[T]) Target() symbol.Symbol           { return a.target }
func (a *typedAssignment[T]) Inputs() []symbol.Symbol         { return a.eval.DependSymbols() }
func (a *typedAssignment[T]) Granularity() symbol.Granularity { return a.target.Flags().Granularity }
func (a *typedAssignment[T]) Apply()                          { a.target.ApplyBuffer() }

func (a *typedAssignment[T]) ComputeAt(worker int, f symbol.Focus, buffered bool) error {
	v, err := a.eval.Get(worker, f)
	if err != nil {
		return err
	}
	if buffered {
		return a.target.SetBuffer(f, v)
	}
	return a.target.Set(f, v)
}

// computeAll evaluates a at every focus of scope at the granularity of its
// target.
func computeAll(ctx context.Context, pool *executor.Pool, scope *symbol.Scope, a assignment, buffered bool) error {
	foci := scope.Foci(a.Granularity())
	return pool.ForEach(ctx, foci, func(w int, f symbol.Focus) error {
		return a.ComputeAt(w, f, buffered)
	})
}

// ruleSet is the list of `rule` children of a block.
type ruleSet []assignment

func loadRules(scope *symbol.Scope, rules []ruleConfig) (ruleSet, error) {
	out := make(ruleSet, 0, len(rules))
	for _, r := range rules {
		a, err := newAssignment(scope, r.target, r.expression)
		if err != nil {
			return nil, fmt.Errorf("rule for %q: %w", r.target, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (rs ruleSet) init(workers int) error {
	for _, a := range rs {
		if err := a.Init(workers); err != nil {
			return fmt.Errorf("rule for %q: %w", a.Target().Name(), err)
		}
	}
	return nil
}

func (rs ruleSet) inputs() []symbol.Symbol {
	var set symbol.Set
	for _, a := range rs {
		set.AddAll(a.Inputs()...)
	}
	return set.Items()
}

func (rs ruleSet) outputs() []symbol.Symbol {
	var set symbol.Set
	for _, a := range rs {
		set.Add(a.Target())
	}
	return set.Items()
}

func (rs ruleSet) apply() {
	for _, a := range rs {
		a.Apply()
	}
}
