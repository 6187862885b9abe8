package evaluator

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/vk/morphocore/internal/symbol"
	"github.com/vk/morphocore/internal/vec"
)

type slotKind int

const (
	scalarRef slotKind = iota
	vectorPart
	vectorExpanded
	nullaryCall
)

var vectorParts = map[string]func(vec.Vec3) float64{
	"x":     func(v vec.Vec3) float64 { return v.X },
	"y":     func(v vec.Vec3) float64 { return v.Y },
	"z":     func(v vec.Vec3) float64 { return v.Z },
	"abs":   vec.Vec3.Abs,
	"phi":   vec.Vec3.Phi,
	"theta": vec.Vec3.Theta,
}

// external is a resolved reference to a symbol outside of the expression.
// It is immutable once bound.
type external struct {
	name string
	sym  symbol.Symbol
	kind slotKind
	part func(vec.Vec3) float64
	ns   int
	slot int
}

type namespace struct {
	name  string
	scope *symbol.Scope
	focus symbol.Focus
}

// Cache binds the free names of one or more expressions to symbols of a
// scope and holds the values fetched for the current focus. A Cache is not
// safe for concurrent use; ThreadedEvaluator gives every worker its own copy.
type Cache struct {
	scope        *symbol.Scope
	allowPartial bool

	externals []*external
	byName    map[string]int
	locals    map[string]int

	namespaces []namespace
	nsByName   map[string]int

	functions []symbol.Callable
	fnByName  map[string]int

	values  []float64
	vectors map[int]vec.Vec3
	focus   symbol.Focus
}

// NewCache returns an empty cache resolving names in scope.
func NewCache(scope *symbol.Scope, allowPartial bool) *Cache {
	return &Cache{
		scope:        scope,
		allowPartial: allowPartial,
		byName:       make(map[string]int),
		locals:       make(map[string]int),
		nsByName:     make(map[string]int),
		fnByName:     make(map[string]int),
		vectors:      make(map[int]vec.Vec3),
	}
}

// Scope returns the scope names are resolved in.
func (c *Cache) Scope() *symbol.Scope { return c.scope }

// ExternalCount is the number of distinct external references bound so far.
func (c *Cache) ExternalCount() int { return len(c.externals) }

// AddLocal declares a local variable and returns its slot. Declaring an
// existing local returns the existing slot.
func (c *Cache) AddLocal(name string) int {
	if slot, ok := c.locals[name]; ok {
		return slot
	}
	slot := c.newSlot()
	c.locals[name] = slot
	return slot
}

// SetLocal writes the value of a local variable slot.
func (c *Cache) SetLocal(slot int, v float64) {
	c.values[slot] = v
}

// AddNamespace makes the symbols of scope reachable as `name.symbol`. The
// namespace is evaluated at the focus set with SetNamespaceFocus.
func (c *Cache) AddNamespace(name string, scope *symbol.Scope) int {
	if id, ok := c.nsByName[name]; ok {
		return id
	}
	c.namespaces = append(c.namespaces, namespace{name: name, scope: scope})
	c.nsByName[name] = len(c.namespaces) - 1
	return len(c.namespaces) - 1
}

// SetNamespaceFocus binds a namespace to the focus it is evaluated at.
func (c *Cache) SetNamespaceFocus(id int, f symbol.Focus) {
	c.namespaces[id].focus = f
}

func (c *Cache) newSlot() int {
	c.values = append(c.values, 0)
	return len(c.values) - 1
}

func (c *Cache) isLocal(name string) bool {
	_, ok := c.locals[name]
	return ok
}

func (c *Cache) lookupExternal(name string) (*external, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.externals[idx], true
}

// BindIdent implements expr.Binder.
func (c *Cache) BindIdent(name string) (int, error) {
	if slot, ok := c.locals[name]; ok {
		return slot, nil
	}
	if ext, ok := c.lookupExternal(name); ok {
		return ext.slot, nil
	}
	ext, err := c.resolve(name, c.scope, -1)
	if err != nil {
		return 0, err
	}
	ext.slot = c.newSlot()
	c.byName[name] = len(c.externals)
	c.externals = append(c.externals, ext)
	return ext.slot, nil
}

func classify(name string, sym symbol.Symbol, ns int) (*external, error) {
	ext := &external{name: name, sym: sym, ns: ns}
	switch sym.Type() {
	case symbol.Double:
		ext.kind = scalarRef
	case symbol.Vector:
		ext.kind = vectorExpanded
	case symbol.Function:
		fn, ok := sym.(symbol.Callable)
		if !ok || len(fn.Params()) > 0 {
			return nil, fmt.Errorf("function %q cannot be used as a variable", name)
		}
		ext.kind = nullaryCall
	}
	return ext, nil
}

// resolve maps a (possibly dotted) name to a symbol: first as a plain symbol
// name, then as `namespace.name`, then as `vector.part`.
func (c *Cache) resolve(name string, scope *symbol.Scope, ns int) (*external, error) {
	sym, err := scope.Lookup(name)
	if err == nil {
		return classify(name, sym, ns)
	}
	if !errors.Is(err, symbol.ErrUndefined) {
		return nil, err
	}

	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return nil, err
	}
	prefix, suffix := name[:dot], name[dot+1:]

	if first, rest, ok := strings.Cut(name, "."); ok && ns < 0 {
		if id, isNS := c.nsByName[first]; isNS {
			ext, nsErr := c.resolve(rest, c.namespaces[id].scope, id)
			if nsErr != nil {
				return nil, nsErr
			}
			ext.name = name
			return ext, nil
		}
	}

	part, isPart := vectorParts[suffix]
	if !isPart {
		return nil, err
	}
	base, baseErr := c.resolve(prefix, scope, ns)
	if baseErr != nil {
		return nil, baseErr
	}
	if base.kind != vectorExpanded {
		return nil, fmt.Errorf("%w: %q is not a vector, cannot take .%s", symbol.ErrTypeMismatch, prefix, suffix)
	}
	base.name = name
	base.kind = vectorPart
	base.part = part
	return base, nil
}

// BindCall implements expr.Binder. Function symbols of the scope shadow the
// builtins of the same name.
func (c *Cache) BindCall(name string, arity int) (int, bool, error) {
	if slot, ok := c.fnByName[name]; ok {
		if len(c.functions[slot].Params()) != arity {
			return 0, false, fmt.Errorf("function %q expects %d arguments, got %d", name, len(c.functions[slot].Params()), arity)
		}
		return slot, true, nil
	}
	sym, err := c.scope.Lookup(name)
	if err != nil {
		return 0, false, nil
	}
	fn, ok := sym.(symbol.Callable)
	if !ok || sym.Type() != symbol.Function {
		return 0, false, nil
	}
	if len(fn.Params()) != arity {
		return 0, false, fmt.Errorf("function %q expects %d arguments, got %d", name, len(fn.Params()), arity)
	}
	c.functions = append(c.functions, fn)
	c.fnByName[name] = len(c.functions) - 1
	return len(c.functions) - 1, true, nil
}

// CallSlot implements expr.Caller using the focus of the last Fetch.
func (c *Cache) CallSlot(slot int, args []float64) (float64, error) {
	return c.functions[slot].Call(c.focus, args)
}

// Fetch reads the values of all external symbols at focus f. Namespaced
// symbols are read at the focus of their namespace.
func (c *Cache) Fetch(f symbol.Focus) error {
	c.focus = f
	for i := range c.externals {
		if err := c.fetchIndex(i, f); err != nil {
			return err
		}
	}
	return nil
}

// fetchSubset is Fetch restricted to the listed externals.
func (c *Cache) fetchSubset(f symbol.Focus, idx []int) error {
	c.focus = f
	for _, i := range idx {
		if err := c.fetchIndex(i, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) fetchIndex(i int, f symbol.Focus) error {
	ext := c.externals[i]
	at := f
	if ext.ns >= 0 {
		at = c.namespaces[ext.ns].focus
	}
	err := c.fetchOne(i, ext, at)
	if err == nil {
		return nil
	}
	if c.allowPartial && errors.Is(err, symbol.ErrInvalidFocus) {
		c.values[ext.slot] = 0
		c.vectors[i] = vec.Vec3{}
		return nil
	}
	return fmt.Errorf("reading %q at %s: %w", ext.name, at, err)
}

func (c *Cache) fetchOne(i int, ext *external, at symbol.Focus) error {
	switch ext.kind {
	case scalarRef:
		acc, ok := ext.sym.(symbol.Accessor[float64])
		if !ok {
			return fmt.Errorf("%w: %q does not provide scalar values", symbol.ErrTypeMismatch, ext.name)
		}
		v, err := acc.Get(at)
		if err != nil {
			return err
		}
		c.values[ext.slot] = v
	case vectorPart, vectorExpanded:
		acc, ok := ext.sym.(symbol.Accessor[vec.Vec3])
		if !ok {
			return fmt.Errorf("%w: %q does not provide vector values", symbol.ErrTypeMismatch, ext.name)
		}
		v, err := acc.Get(at)
		if err != nil {
			return err
		}
		if ext.kind == vectorPart {
			c.values[ext.slot] = ext.part(v)
		} else {
			c.vectors[i] = v
			c.values[ext.slot] = math.NaN()
		}
	case nullaryCall:
		v, err := ext.sym.(symbol.Callable).Call(at, nil)
		if err != nil {
			return err
		}
		c.values[ext.slot] = v
	}
	return nil
}

// setPass writes component i of every fetched vector into the slot of the
// bare vector reference.
func (c *Cache) setPass(i int) {
	for idx, ext := range c.externals {
		if ext.kind == vectorExpanded {
			c.values[ext.slot] = c.vectors[idx].Component(i)
		}
	}
}

// Clone returns a deep copy sharing only the immutable bindings.
func (c *Cache) Clone() *Cache {
	out := &Cache{
		scope:        c.scope,
		allowPartial: c.allowPartial,
		externals:    append([]*external(nil), c.externals...),
		byName:       maps.Clone(c.byName),
		locals:       maps.Clone(c.locals),
		namespaces:   append([]namespace(nil), c.namespaces...),
		nsByName:     maps.Clone(c.nsByName),
		functions:    append([]symbol.Callable(nil), c.functions...),
		fnByName:     maps.Clone(c.fnByName),
		values:       append([]float64(nil), c.values...),
		vectors:      maps.Clone(c.vectors),
		focus:        c.focus,
	}
	return out
}
