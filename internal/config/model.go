package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Model is the unified representation of a simulation model.
type Model struct {
	// Root is a synthetic element of kind "model" holding the top-level
	// blocks of every loaded file in load order.
	Root  *Element
	Files []string
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Root: &Element{Kind: "model", Attributes: map[string]cty.Value{}}}
}

// Element is one block of the model description.
type Element struct {
	Kind       string
	Label      string
	Attributes map[string]cty.Value
	Children   []*Element
	Range      hcl.Range
}

// Location renders the source position of the element.
func (e *Element) Location() string {
	if e.Range.Filename == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s:%d,%d", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column)
}

// Name returns "kind" or "kind.label".
func (e *Element) Name() string {
	if e.Label == "" {
		return e.Kind
	}
	return e.Kind + "." + e.Label
}

// AttributeNames returns the attribute names in sorted order.
func (e *Element) AttributeNames() []string {
	return slices.Sorted(maps.Keys(e.Attributes))
}

// Has reports whether the attribute is present and not null.
func (e *Element) Has(name string) bool {
	v, ok := e.Attributes[name]
	return ok && !v.IsNull()
}

// Child returns the first child of the given kind, or nil.
func (e *Element) Child(kind string) *Element {
	for _, c := range e.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all children of the given kind.
func (e *Element) ChildrenOf(kind string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) attrErr(name string, err error) error {
	return fmt.Errorf("%s: attribute %q: %w", e.Location(), name, err)
}

func decode[T any](e *Element, name string, ty cty.Type) (T, bool, error) {
	var out T
	v, ok := e.Attributes[name]
	if !ok || v.IsNull() {
		return out, false, nil
	}
	if !v.IsWhollyKnown() {
		return out, false, e.attrErr(name, fmt.Errorf("value is not known"))
	}
	conv, err := convert.Convert(v, ty)
	if err != nil {
		return out, false, e.attrErr(name, err)
	}
	if err := gocty.FromCtyValue(conv, &out); err != nil {
		return out, false, e.attrErr(name, err)
	}
	return out, true, nil
}

// String returns a string attribute. Numbers and bools are converted.
func (e *Element) String(name string) (string, bool, error) {
	return decode[string](e, name, cty.String)
}

// Float returns a numeric attribute.
func (e *Element) Float(name string) (float64, bool, error) {
	return decode[float64](e, name, cty.Number)
}

// Int returns an integral attribute.
func (e *Element) Int(name string) (int, bool, error) {
	return decode[int](e, name, cty.Number)
}

// Bool returns a boolean attribute.
func (e *Element) Bool(name string) (bool, bool, error) {
	return decode[bool](e, name, cty.Bool)
}

// StringList returns a list attribute of strings. A single string is
// accepted as a list of one.
func (e *Element) StringList(name string) ([]string, bool, error) {
	v, ok := e.Attributes[name]
	if ok && !v.IsNull() && v.Type() == cty.String {
		return []string{v.AsString()}, true, nil
	}
	return decode[[]string](e, name, cty.List(cty.String))
}

// RequireString is String that fails when the attribute is missing.
func (e *Element) RequireString(name string) (string, error) {
	s, ok, err := e.String(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", e.attrErr(name, fmt.Errorf("required attribute is missing"))
	}
	return s, nil
}

// FloatOr returns a numeric attribute or def if it is missing.
func (e *Element) FloatOr(name string, def float64) (float64, error) {
	v, ok, err := e.Float(name)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// FloatList returns a list attribute of numbers. A single number is accepted
// as a list of one.
func (e *Element) FloatList(name string) ([]float64, bool, error) {
	v, ok := e.Attributes[name]
	if ok && !v.IsNull() && v.Type() == cty.Number {
		f, _, err := e.Float(name)
		return []float64{f}, true, err
	}
	return decode[[]float64](e, name, cty.List(cty.Number))
}
