package evaluator

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/vk/morphocore/internal/symbol"
)

var errRecursiveDefinition = errors.New("recursive definition")

// initGuard runs an initialisation once. Concurrent first callers wait for
// it; a call that re-enters from the definition's own initialisation is
// recognised through the chain of guards on its call path.
type initGuard struct {
	once sync.Once
	err  error
}

func (g *initGuard) run(name string, chain []*initGuard, fn func([]*initGuard) error) error {
	if slices.Contains(chain, g) {
		return fmt.Errorf("%q: %w", name, errRecursiveDefinition)
	}
	g.once.Do(func() { g.err = fn(append(slices.Clip(chain), g)) })
	return g.err
}

// chainInitializer is implemented by definitions whose initialisation can
// reach other definitions.
type chainInitializer interface {
	initChain(chain []*initGuard) error
}

// Function is a callable symbol defined by an expression over named
// parameters, e.g. `f(x, y) = x^2 + y`. Parameters are locals of the
// expression cache.
type Function struct {
	symbol.Base
	params []string

	guard initGuard
	eval  *ThreadedEvaluator[float64]
	slots []int
}

// NewFunction creates a function symbol defined in scope. It must be
// registered in scope before it is used by other expressions.
func NewFunction(name string, params []string, text string, scope *symbol.Scope) (*Function, error) {
	cache := NewCache(scope, false)
	slots := make([]int, len(params))
	for i, p := range params {
		slots[i] = cache.AddLocal(p)
	}
	ev, err := New[float64](text, scope, WithCache(cache))
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", name, err)
	}
	return &Function{Base: symbol.NewBase(name, text), params: params, eval: NewThreaded(ev, runtime.GOMAXPROCS(0)), slots: slots}, nil
}

func (fn *Function) Type() symbol.ValueType { return symbol.Function }
func (fn *Function) Params() []string       { return fn.params }

// Init analyses the body expression.
func (fn *Function) Init() error { return fn.initChain(nil) }

func (fn *Function) initChain(chain []*initGuard) error {
	return fn.guard.run(fn.Name(), chain, fn.eval.initWith)
}

func (fn *Function) Flags() symbol.Flags {
	if err := fn.Init(); err != nil {
		return symbol.Flags{}
	}
	return fn.eval.Flags()
}

func (fn *Function) DependSymbols() []symbol.Symbol {
	if err := fn.Init(); err != nil {
		return nil
	}
	return fn.eval.DependSymbols()
}

// Call evaluates the body with the given arguments at focus f. Concurrent
// calls use separate evaluators.
func (fn *Function) Call(f symbol.Focus, args []float64) (float64, error) {
	if len(args) != len(fn.params) {
		return 0, fmt.Errorf("function %q expects %d arguments, got %d", fn.Name(), len(fn.params), len(args))
	}
	if err := fn.Init(); err != nil {
		return 0, err
	}
	return fn.eval.borrow(func(ev *ExpressionEvaluator[float64]) (float64, error) {
		for i, slot := range fn.slots {
			ev.cache.SetLocal(slot, args[i])
		}
		return ev.Get(f)
	})
}

// Derived is a symbol whose value is an expression over other symbols.
type Derived[T symbol.Value] struct {
	symbol.Base

	guard initGuard
	eval  *ThreadedEvaluator[T]
}

// NewDerived creates a derived symbol evaluated in scope.
func NewDerived[T symbol.Value](name, text string, scope *symbol.Scope, opts ...Option) (*Derived[T], error) {
	ev, err := New[T](text, scope, opts...)
	if err != nil {
		return nil, fmt.Errorf("symbol %q: %w", name, err)
	}
	return &Derived[T]{Base: symbol.NewBase(name, text), eval: NewThreaded(ev, runtime.GOMAXPROCS(0))}, nil
}

func (d *Derived[T]) Type() symbol.ValueType { return symbol.TypeOf[T]() }

// Init analyses the defining expression.
func (d *Derived[T]) Init() error { return d.initChain(nil) }

func (d *Derived[T]) initChain(chain []*initGuard) error {
	return d.guard.run(d.Name(), chain, d.eval.initWith)
}

func (d *Derived[T]) Flags() symbol.Flags {
	if err := d.Init(); err != nil {
		return symbol.Flags{}
	}
	f := d.eval.Flags()
	f.Writable = false
	return f
}

func (d *Derived[T]) DependSymbols() []symbol.Symbol {
	if err := d.Init(); err != nil {
		return nil
	}
	return d.eval.DependSymbols()
}

// Get evaluates the expression at f. Concurrent calls use separate
// evaluators.
func (d *Derived[T]) Get(f symbol.Focus) (T, error) {
	if err := d.Init(); err != nil {
		var zero T
		return zero, err
	}
	return d.eval.borrow(func(ev *ExpressionEvaluator[T]) (T, error) { return ev.Get(f) })
}
