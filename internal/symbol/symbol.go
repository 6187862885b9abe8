package symbol

import (
	"fmt"

	"github.com/vk/morphocore/internal/vec"
)

// ValueType is the kind of value a symbol provides.
type ValueType int

const (
	Double ValueType = iota
	Vector
	Function
)

func (t ValueType) String() string {
	switch t {
	case Double:
		return "double"
	case Vector:
		return "vector"
	case Function:
		return "function"
	}
	return "unknown"
}

// Value is the set of value types that can flow through accessors.
type Value interface {
	float64 | vec.Vec3
}

// TypeOf returns the ValueType corresponding to T.
func TypeOf[T Value]() ValueType {
	var zero T
	if _, ok := any(zero).(vec.Vec3); ok {
		return Vector
	}
	return Double
}

// Symbol is a named, typed quantity owned by a Scope.
//
// Implementations outside this package embed Base, which provides naming and
// the scope binding performed by Scope.RegisterSymbol.
type Symbol interface {
	Name() string
	Description() string
	Scope() *Scope
	Type() ValueType
	Flags() Flags
	// DependSymbols returns the transitive set of symbols this symbol is
	// computed from. Primitive symbols return nil.
	DependSymbols() []Symbol

	symbolBase() *Base
}

// Accessor gives read access to the value of a symbol at a focus.
type Accessor[T Value] interface {
	Symbol
	Get(f Focus) (T, error)
}

// RWAccessor gives write access to a symbol. Set writes immediately;
// SetBuffer stores a pending value that becomes visible on ApplyBuffer.
type RWAccessor[T Value] interface {
	Accessor[T]
	Set(f Focus, v T) error
	SetBuffer(f Focus, v T) error
	ApplyBuffer()
}

// Callable is a symbol of function type.
type Callable interface {
	Symbol
	// Params names the formal parameters, its length is the arity.
	Params() []string
	Call(f Focus, args []float64) (float64, error)
}

// Base carries the name, description and owning scope of a symbol.
type Base struct {
	name        string
	description string
	scope       *Scope
}

// NewBase returns a Base for a symbol called name.
func NewBase(name, description string) Base {
	return Base{name: name, description: description}
}

func (b *Base) Name() string        { return b.name }
func (b *Base) Description() string { return b.description }
func (b *Base) Scope() *Scope       { return b.scope }
func (b *Base) symbolBase() *Base   { return b }

// QualifiedName renders the symbol as scope path plus name.
func QualifiedName(s Symbol) string {
	if s.Scope() == nil {
		return s.Name()
	}
	return fmt.Sprintf("%s.%s", s.Scope().Path(), s.Name())
}

// LeafDependSymbols returns the primitive symbols s is ultimately computed
// from. A primitive symbol is its own leaf.
func LeafDependSymbols(s Symbol) []Symbol {
	deps := s.DependSymbols()
	if len(deps) == 0 {
		return []Symbol{s}
	}
	var set Set
	for _, d := range deps {
		if len(d.DependSymbols()) == 0 {
			set.Add(d)
		}
	}
	return set.Items()
}
