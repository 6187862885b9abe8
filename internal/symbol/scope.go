package symbol

import (
	"fmt"

	"github.com/vk/morphocore/internal/scopeid"
)

// ScopeID addresses a scope inside its Registry.
type ScopeID int

const noScope ScopeID = -1

// Registry is the arena owning every scope of a model.
type Registry struct {
	scopes []*Scope
}

// NewRegistry creates a registry with a single root scope called rootName.
func NewRegistry(rootName string) *Registry {
	r := &Registry{}
	r.newScope(rootName, noScope)
	return r
}

// Root returns the root scope.
func (r *Registry) Root() *Scope {
	return r.scopes[0]
}

// Scope returns the scope with the given id, or nil if it does not exist.
func (r *Registry) Scope(id ScopeID) *Scope {
	if id < 0 || int(id) >= len(r.scopes) {
		return nil
	}
	return r.scopes[id]
}

// Len is the number of scopes in the arena.
func (r *Registry) Len() int {
	return len(r.scopes)
}

func (r *Registry) newScope(name string, parent ScopeID) *Scope {
	s := &Scope{
		reg:        r,
		id:         ScopeID(len(r.scopes)),
		parent:     parent,
		name:       name,
		index:      -1,
		symbols:    make(map[string]Symbol),
		unresolved: make(map[string]struct{}),
		readers:    make(map[string][]TimeStepListener),
		writers:    make(map[string][]TimeStepListener),
	}
	r.scopes = append(r.scopes, s)
	return s
}

// FocusRange enumerates the foci of a scope at a requested granularity.
type FocusRange func(g Granularity) []Focus

// Scope is a namespace of symbols inside the scope hierarchy.
type Scope struct {
	reg      *Registry
	id       ScopeID
	parent   ScopeID
	children []ScopeID
	name     string
	index    int

	symbols map[string]Symbol
	order   []string

	unresolved map[string]struct{}
	readers    map[string][]TimeStepListener
	writers    map[string][]TimeStepListener

	foci FocusRange
}

func (s *Scope) ID() ScopeID         { return s.id }
func (s *Scope) Name() string        { return s.name }
func (s *Scope) Registry() *Registry { return s.reg }

// Parent returns the enclosing scope, nil for the root.
func (s *Scope) Parent() *Scope {
	return s.reg.Scope(s.parent)
}

// Children returns the direct sub-scopes in creation order.
func (s *Scope) Children() []*Scope {
	out := make([]*Scope, len(s.children))
	for i, id := range s.children {
		out[i] = s.reg.scopes[id]
	}
	return out
}

// CreateSubScope creates a child scope. Sibling scopes may share a name; they
// are told apart by an index in their path.
func (s *Scope) CreateSubScope(name string) *Scope {
	same := 0
	for _, c := range s.Children() {
		if c.name == name {
			same++
		}
	}
	child := s.reg.newScope(name, s.id)
	if same > 0 {
		child.index = same
	}
	s.children = append(s.children, child.id)
	return child
}

// Path returns the scope path from the root.
func (s *Scope) Path() scopeid.Address {
	p := s.Parent()
	if p == nil {
		return scopeid.Root(s.name)
	}
	seg := scopeid.NewSegment(s.name)
	if s.index >= 0 {
		seg = scopeid.NewIndexedSegment(s.name, s.index)
	}
	return p.Path().Child(seg)
}

// Walk visits s and all of its descendants depth-first.
func (s *Scope) Walk(fn func(*Scope) error) error {
	if err := fn(s); err != nil {
		return err
	}
	for _, c := range s.Children() {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterSymbol inserts sym into the scope and binds it to the scope.
func (s *Scope) RegisterSymbol(sym Symbol) error {
	name := sym.Name()
	if name == "" {
		return fmt.Errorf("cannot register a symbol without name in scope %s", s.Path())
	}
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("%w: %q already defined in scope %s", ErrDuplicateSymbol, name, s.Path())
	}
	base := sym.symbolBase()
	if base.scope != nil && base.scope != s {
		return fmt.Errorf("symbol %q is already owned by scope %s", name, base.scope.Path())
	}
	base.scope = s
	s.symbols[name] = sym
	s.order = append(s.order, name)
	return nil
}

// LocalSymbols returns the symbols defined directly in this scope, in
// registration order.
func (s *Scope) LocalSymbols() []Symbol {
	out := make([]Symbol, len(s.order))
	for i, name := range s.order {
		out[i] = s.symbols[name]
	}
	return out
}

// Lookup finds a symbol by name in this scope or its ancestors.
func (s *Scope) Lookup(name string) (Symbol, error) {
	for cur := s; cur != nil; cur = cur.Parent() {
		if sym, ok := cur.symbols[name]; ok {
			return sym, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not visible from scope %s", ErrUndefined, name, s.Path())
}

// Defines reports whether name is visible from this scope.
func (s *Scope) Defines(name string) bool {
	_, err := s.Lookup(name)
	return err == nil
}

// Functions returns every callable symbol visible from the scope. Local
// definitions shadow the ones of ancestors.
func (s *Scope) Functions() []Callable {
	seen := make(map[string]struct{})
	var out []Callable
	for cur := s; cur != nil; cur = cur.Parent() {
		for _, name := range cur.order {
			if _, shadowed := seen[name]; shadowed {
				continue
			}
			seen[name] = struct{}{}
			if fn, ok := cur.symbols[name].(Callable); ok {
				out = append(out, fn)
			}
		}
	}
	return out
}

// SetFocusRange installs the provider used by Foci.
func (s *Scope) SetFocusRange(fr FocusRange) {
	s.foci = fr
}

// Foci enumerates the foci of this scope at granularity g. Global requests
// always yield the single global focus; otherwise the nearest scope with a
// focus range answers.
func (s *Scope) Foci(g Granularity) []Focus {
	if g == Global {
		return []Focus{GlobalFocus()}
	}
	for cur := s; cur != nil; cur = cur.Parent() {
		if cur.foci != nil {
			return cur.foci(g)
		}
	}
	return nil
}

// MarkUnresolved flags a symbol name as not yet computed in the current
// ordering pass.
func (s *Scope) MarkUnresolved(name string) {
	s.unresolved[name] = struct{}{}
}

// Resolve clears the unresolved flag of a name.
func (s *Scope) Resolve(name string) {
	delete(s.unresolved, name)
}

// IsUnresolved reports whether name is currently flagged.
func (s *Scope) IsUnresolved(name string) bool {
	_, ok := s.unresolved[name]
	return ok
}

// ClearUnresolved drops all unresolved flags of this scope and its descendants.
func (s *Scope) ClearUnresolved() {
	_ = s.Walk(func(sc *Scope) error {
		clear(sc.unresolved)
		return nil
	})
}
