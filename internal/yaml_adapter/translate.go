package yaml_adapter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/morphocore/internal/config"
)

type translator struct {
	filename string
}

func (t translator) rng(n *yaml.Node) hcl.Range {
	pos := hcl.Pos{Line: n.Line, Column: n.Column}
	return hcl.Range{Filename: t.filename, Start: pos, End: pos}
}

func (t translator) errorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%s:%d,%d: %s", t.filename, n.Line, n.Column, fmt.Sprintf(format, args...))
}

// blocks translates a mapping of "kind [label]" keys into elements.
func (t translator) blocks(n *yaml.Node) ([]*config.Element, error) {
	if n.Kind != yaml.MappingNode {
		return nil, t.errorf(n, "a model document must be a mapping of blocks")
	}
	var out []*config.Element
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		els, err := t.nested(key, val)
		if err != nil {
			return nil, err
		}
		out = append(out, els...)
	}
	return out, nil
}

// nested translates the value of a block key. A list yields one block per
// item.
func (t translator) nested(key, val *yaml.Node) ([]*config.Element, error) {
	if val.Kind == yaml.SequenceNode {
		out := make([]*config.Element, 0, len(val.Content))
		for _, item := range val.Content {
			el, err := t.block(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
		}
		return out, nil
	}
	el, err := t.block(key, val)
	if err != nil {
		return nil, err
	}
	return []*config.Element{el}, nil
}

func (t translator) block(key, body *yaml.Node) (*config.Element, error) {
	fields := strings.Fields(key.Value)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, t.errorf(key, "block key %q must be \"kind\" or \"kind label\"", key.Value)
	}
	el := &config.Element{
		Kind:       fields[0],
		Attributes: map[string]cty.Value{},
		Range:      t.rng(key),
	}
	if len(fields) == 2 {
		el.Label = fields[1]
	}
	// `kind: ~` and `kind: {}` are both empty blocks
	if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
		return el, nil
	}
	if body.Kind != yaml.MappingNode {
		return nil, t.errorf(body, "block %q must be a mapping", key.Value)
	}

	for i := 0; i < len(body.Content); i += 2 {
		k, v := body.Content[i], body.Content[i+1]
		if isBlockValue(v) {
			children, err := t.nested(k, v)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, children...)
			continue
		}
		if _, dup := el.Attributes[k.Value]; dup {
			return nil, t.errorf(k, "duplicate attribute '%s'", k.Value)
		}
		val, err := t.value(v)
		if err != nil {
			return nil, err
		}
		el.Attributes[k.Value] = val
	}
	return el, nil
}

// isBlockValue reports whether v describes nested blocks rather than an
// attribute value.
func isBlockValue(v *yaml.Node) bool {
	switch v.Kind {
	case yaml.MappingNode:
		return true
	case yaml.SequenceNode:
		return len(v.Content) > 0 && v.Content[0].Kind == yaml.MappingNode
	}
	return false
}

// value converts a scalar or a list of scalars.
func (t translator) value(n *yaml.Node) (cty.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return t.value(n.Alias)
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, len(n.Content))
		for i, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return cty.NilVal, t.errorf(item, "list attributes may only hold scalars")
			}
			v, err := t.value(item)
			if err != nil {
				return cty.NilVal, err
			}
			items[i] = v
		}
		return cty.TupleVal(items), nil
	case yaml.ScalarNode:
		return t.scalar(n)
	}
	return cty.NilVal, t.errorf(n, "unsupported attribute value")
}

func (t translator) scalar(n *yaml.Node) (cty.Value, error) {
	switch n.Tag {
	case "!!null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return cty.NilVal, t.errorf(n, "%v", err)
		}
		return cty.BoolVal(b), nil
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)
		if err != nil {
			// hex, octal and the special floats go through the yaml decoder
			if derr := n.Decode(&f); derr != nil {
				return cty.NilVal, t.errorf(n, "invalid number %q", n.Value)
			}
		}
		if math.IsNaN(f) {
			return cty.NilVal, t.errorf(n, "NaN is not a valid number")
		}
		return cty.NumberFloatVal(f), nil
	}
	return cty.StringVal(n.Value), nil
}
