package evaluator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/morphocore/internal/expr"
	"github.com/vk/morphocore/internal/symbol"
	"github.com/vk/morphocore/internal/vec"
)

type constState int

const (
	notConstant constState = iota
	constReady
	constDeferred
)

// initializer is implemented by symbols that need to finish their own setup
// before their flags and dependencies are meaningful.
type initializer interface {
	Init() error
}

// Option configures an ExpressionEvaluator.
type Option func(*options)

type options struct {
	cache        *Cache
	allowPartial bool
}

// WithCache makes the evaluator bind its names in a shared cache.
func WithCache(c *Cache) Option {
	return func(o *options) { o.cache = c }
}

// AllowPartialSpec tolerates symbols that are not defined at every focus;
// missing values read as zero.
func AllowPartialSpec() Option {
	return func(o *options) { o.allowPartial = true }
}

// ExpressionEvaluator evaluates an expression text against the symbols of a
// scope. T is float64 for scalar targets and vec.Vec3 for vector targets.
//
// Init runs once, either explicitly or on the first Get.
type ExpressionEvaluator[T symbol.Value] struct {
	text  string
	scope *symbol.Scope
	cache *Cache

	initialized bool
	initErr     error

	tree       *expr.Tree
	own        []int
	deps       symbol.Set
	flags      symbol.Flags
	usesLocals bool
	alias      symbol.Accessor[T]
	expand     bool

	constant constState
	constVal T
}

// New creates an evaluator for text in scope. It fails with
// ErrEmptyExpression if text is blank.
func New[T symbol.Value](text string, scope *symbol.Scope, opts ...Option) (*ExpressionEvaluator[T], error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w in scope %s", ErrEmptyExpression, scope.Path())
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cache := o.cache
	if cache == nil {
		cache = NewCache(scope, o.allowPartial)
	}
	return &ExpressionEvaluator[T]{text: text, scope: scope, cache: cache}, nil
}

// Text returns the expression as written.
func (e *ExpressionEvaluator[T]) Text() string { return e.text }

// Cache returns the cache the evaluator binds into.
func (e *ExpressionEvaluator[T]) Cache() *Cache { return e.cache }

func (e *ExpressionEvaluator[T]) wrap(err error) error {
	return fmt.Errorf("expression %q in scope %s: %w", e.text, e.scope.Path(), err)
}

// Init parses and analyses the expression. Calling it again returns the
// result of the first call.
func (e *ExpressionEvaluator[T]) Init() error { return e.initWith(nil) }

// initWith is Init called from the initialisation of the definitions in
// chain.
func (e *ExpressionEvaluator[T]) initWith(chain []*initGuard) error {
	if e.initialized {
		return e.initErr
	}
	e.initialized = true
	e.initErr = e.init(chain)
	return e.initErr
}

func (e *ExpressionEvaluator[T]) init(chain []*initGuard) error {
	cleaned := expr.Clean(e.text)
	if cleaned == "" {
		return e.wrap(ErrEmptyExpression)
	}

	tree, err := expr.Parse(cleaned)
	if err != nil {
		return fmt.Errorf("%w: %q in scope %s: %v", ErrParseFailure, e.text, e.scope.Path(), err)
	}
	if err := tree.Bind(e.cache); err != nil {
		var se *expr.SyntaxError
		if errors.As(err, &se) {
			return fmt.Errorf("%w: %q in scope %s: %v", ErrParseFailure, e.text, e.scope.Path(), err)
		}
		return e.wrap(err)
	}
	e.tree = tree

	if err := e.collectDependencies(chain); err != nil {
		return err
	}

	if id, ok := tree.SingleIdent(); ok && id.Name == cleaned {
		if ext, bound := e.cache.lookupExternal(id.Name); bound && ext.ns < 0 {
			if acc, isAcc := ext.sym.(symbol.Accessor[T]); isAcc && (ext.kind == scalarRef || ext.kind == vectorExpanded) {
				e.alias = acc
				return nil
			}
		}
	}

	if err := e.checkArity(); err != nil {
		return err
	}

	if e.flags.Constant() && !e.usesLocals {
		v, err := e.evaluate(symbol.GlobalFocus())
		if err != nil {
			// inputs not ready yet, retry on first access
			e.constant = constDeferred
			return nil
		}
		e.constVal = v
		e.constant = constReady
	}
	return nil
}

// collectDependencies accumulates the dependency set and the aggregate flags.
func (e *ExpressionEvaluator[T]) collectDependencies(chain []*initGuard) error {
	flags := symbol.ConstFlags()
	add := func(sym symbol.Symbol) error {
		var err error
		switch in := sym.(type) {
		case chainInitializer:
			err = in.initChain(chain)
		case initializer:
			err = in.Init()
		}
		if err != nil {
			return e.wrap(err)
		}
		e.deps.Add(sym)
		e.deps.AddAll(sym.DependSymbols()...)
		flags = flags.Combine(sym.Flags())
		return nil
	}

	for _, name := range e.tree.Idents() {
		if e.cache.isLocal(name) {
			e.usesLocals = true
			continue
		}
		ext, ok := e.cache.lookupExternal(name)
		if !ok {
			return e.wrap(fmt.Errorf("%w: %q", symbol.ErrUndefined, name))
		}
		e.own = append(e.own, e.cache.byName[name])
		if err := add(ext.sym); err != nil {
			return err
		}
	}
	for _, name := range e.tree.Calls() {
		slot, ok := e.cache.fnByName[name]
		if !ok {
			continue
		}
		fn := e.cache.functions[slot]
		if err := add(fn); err != nil {
			return err
		}
		if !fn.Flags().Constant() {
			flags.SpaceConst, flags.TimeConst = false, false
		}
	}
	if e.tree.Volatile() {
		flags.Stochastic = true
		flags.SpaceConst, flags.TimeConst = false, false
	}
	e.flags = flags
	return nil
}

func (e *ExpressionEvaluator[T]) hasBareVector() bool {
	for _, name := range e.tree.Idents() {
		if ext, ok := e.cache.lookupExternal(name); ok && ext.kind == vectorExpanded {
			return true
		}
	}
	return false
}

func (e *ExpressionEvaluator[T]) checkArity() error {
	native := len(e.tree.Results)
	bare := e.hasBareVector()
	if symbol.TypeOf[T]() == symbol.Double {
		if native != 1 {
			return e.wrap(fmt.Errorf("%w: scalar target but expression yields %d values", symbol.ErrTypeMismatch, native))
		}
		if bare {
			return e.wrap(fmt.Errorf("%w: vector symbol used in scalar expression", symbol.ErrTypeMismatch))
		}
		return nil
	}
	switch {
	case native == 3 && !bare:
		return nil
	case native == 3:
		return e.wrap(fmt.Errorf("%w: vector symbol used as a vector component", symbol.ErrTypeMismatch))
	case native == 1 && bare:
		e.expand = true
		return nil
	case native > 3:
		return e.wrap(fmt.Errorf("%w: vector target but expression yields %d values", symbol.ErrTypeMismatch, native))
	}
	return e.wrap(ErrVectorExpansionRefused)
}

// evaluate runs the tree at focus f without consulting alias or constant
// shortcuts.
func (e *ExpressionEvaluator[T]) evaluate(f symbol.Focus) (T, error) {
	var zero T
	if err := e.cache.fetchSubset(f, e.own); err != nil {
		return zero, err
	}
	var out [3]float64
	switch {
	case e.expand:
		for i := range 3 {
			e.cache.setPass(i)
			v, err := expr.Eval(e.tree.Results[0], e.cache.values, e.cache)
			if err != nil {
				return zero, err
			}
			out[i] = v
		}
	default:
		for i, r := range e.tree.Results {
			v, err := expr.Eval(r, e.cache.values, e.cache)
			if err != nil {
				return zero, err
			}
			out[i] = v
		}
	}
	return fromComponents[T](out), nil
}

func fromComponents[T symbol.Value](c [3]float64) T {
	var zero T
	switch any(zero).(type) {
	case vec.Vec3:
		return any(vec.New(c[0], c[1], c[2])).(T)
	default:
		return any(c[0]).(T)
	}
}

// Get evaluates the expression at focus f, initialising it first if needed.
func (e *ExpressionEvaluator[T]) Get(f symbol.Focus) (T, error) {
	var zero T
	if err := e.Init(); err != nil {
		return zero, err
	}
	switch {
	case e.alias != nil:
		v, err := e.alias.Get(f)
		if err != nil && e.cache.allowPartial && errors.Is(err, symbol.ErrInvalidFocus) {
			return zero, nil
		}
		return v, err
	case e.constant == constReady:
		return e.constVal, nil
	case e.constant == constDeferred:
		v, err := e.evaluate(symbol.GlobalFocus())
		if err != nil {
			return zero, e.wrap(err)
		}
		e.constVal, e.constant = v, constReady
		return v, nil
	}
	v, err := e.evaluate(f)
	if err != nil {
		return zero, e.wrap(err)
	}
	return v, nil
}

// Flags returns the aggregate flags. Valid after Init.
func (e *ExpressionEvaluator[T]) Flags() symbol.Flags {
	if e.alias != nil {
		return e.alias.Flags()
	}
	return e.flags
}

// DependSymbols returns the transitive dependency set. Valid after Init.
func (e *ExpressionEvaluator[T]) DependSymbols() []symbol.Symbol {
	return e.deps.Items()
}

// IsAlias reports whether the expression is a plain reference to one symbol.
func (e *ExpressionEvaluator[T]) IsAlias() bool { return e.alias != nil }

// IsConstant reports whether the expression was folded to a constant.
func (e *ExpressionEvaluator[T]) IsConstant() bool { return e.constant != notConstant }

// Expands reports whether a scalar expression is applied per vector component.
func (e *ExpressionEvaluator[T]) Expands() bool { return e.expand }

// clone returns an evaluator sharing the parsed tree and analysis results but
// evaluating into cache.
func (e *ExpressionEvaluator[T]) clone(cache *Cache) *ExpressionEvaluator[T] {
	out := *e
	out.cache = cache
	return &out
}
