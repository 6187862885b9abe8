package builder

import (
	"fmt"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/symbol"
	"github.com/vk/morphocore/internal/vec"
)

// valueType reads the optional `type` attribute. Vector values imply
// vector type.
func valueType(el *config.Element) (symbol.ValueType, error) {
	t, ok, err := el.String("type")
	if err != nil {
		return symbol.Double, err
	}
	if !ok {
		if vs, ok, _ := el.FloatList("value"); ok && len(vs) > 1 {
			return symbol.Vector, nil
		}
		return symbol.Double, nil
	}
	switch t {
	case "number", "double":
		return symbol.Double, nil
	case "vector":
		return symbol.Vector, nil
	}
	return symbol.Double, fmt.Errorf("%s: unknown type %q", el.Location(), t)
}

func scalarValue(el *config.Element) (float64, error) {
	return el.FloatOr("value", 0)
}

// vectorValue accepts three components or a single one used for all of them.
func vectorValue(el *config.Element) (vec.Vec3, error) {
	vs, ok, err := el.FloatList("value")
	switch {
	case err != nil:
		return vec.Vec3{}, err
	case !ok:
		return vec.Vec3{}, nil
	case len(vs) == 1:
		return vec.Splat(vs[0]), nil
	case len(vs) == 3:
		return vec.FromSlice(vs), nil
	}
	return vec.Vec3{}, fmt.Errorf("%s: a vector needs 1 or 3 components, got %d", el.Location(), len(vs))
}

func (b *builder) declareValue(el *config.Element, scope *symbol.Scope) error {
	if el.Label == "" {
		return fmt.Errorf("%s: %s needs a name", el.Location(), el.Kind)
	}
	desc, _, err := el.String("description")
	if err != nil {
		return err
	}
	vt, err := valueType(el)
	if err != nil {
		return err
	}

	var sym symbol.Symbol
	if vt == symbol.Vector {
		sym, err = declareTyped(b, vectorValue, el, scope, desc)
	} else {
		sym, err = declareTyped(b, scalarValue, el, scope, desc)
	}
	if err != nil {
		return err
	}
	return scope.RegisterSymbol(sym)
}

func declareTyped[T symbol.Value](b *builder, read func(*config.Element) (T, error), el *config.Element, scope *symbol.Scope, desc string) (symbol.Symbol, error) {
	if el.Kind == kindDerived {
		text, err := el.RequireString("expression")
		if err != nil {
			return nil, err
		}
		d, err := evaluator.NewDerived[T](el.Label, text, scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", el.Location(), err)
		}
		b.deferred = append(b.deferred, d)
		return d, nil
	}

	v, err := read(el)
	if err != nil {
		return nil, err
	}
	switch el.Kind {
	case kindConstant:
		return symbol.NewConstant(el.Label, v), nil
	case kindVariable:
		return symbol.NewVariable(el.Label, desc, v), nil
	default:
		return symbol.NewProperty(el.Label, desc, v), nil
	}
}

func (b *builder) declareFunction(el *config.Element, scope *symbol.Scope) error {
	if el.Label == "" {
		return fmt.Errorf("%s: function needs a name", el.Location())
	}
	params, _, err := el.StringList("params")
	if err != nil {
		return err
	}
	text, err := el.RequireString("expression")
	if err != nil {
		return err
	}
	fn, err := evaluator.NewFunction(el.Label, params, text, scope)
	if err != nil {
		return fmt.Errorf("%s: %w", el.Location(), err)
	}
	b.deferred = append(b.deferred, fn)
	return scope.RegisterSymbol(fn)
}

// declarePopulation creates the cells of scope. Cells are laid out along
// the x axis, `spacing` apart.
func (b *builder) declarePopulation(el *config.Element, scope *symbol.Scope) error {
	name := el.Label
	if name == "" {
		name = "cells"
	}
	size, _, err := el.Int("size")
	if err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("%s: population size must not be negative", el.Location())
	}
	nodes, _, err := el.Int("membrane_nodes")
	if err != nil {
		return err
	}
	spacing, err := el.FloatOr("spacing", 1)
	if err != nil {
		return err
	}

	pop := symbol.NewPopulation(name, nodes)
	for i := range size {
		pop.AddCell(b.nextCell, vec.New(float64(i)*spacing, 0, 0))
		b.nextCell++
	}
	if err := scope.RegisterSymbol(pop); err != nil {
		return err
	}
	scope.SetFocusRange(pop.Foci)
	return nil
}
