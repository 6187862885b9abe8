// This file contains the logic for translating HCL blocks into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
)

// translateBlock converts an HCL block and its nested blocks into an element.
func (l *Loader) translateBlock(ctx context.Context, evalCtx *hcl.EvalContext, b *hclsyntax.Block) (*config.Element, error) {
	logger := ctxlog.FromContext(ctx).With("block", b.Type)

	if len(b.Labels) > 1 {
		return nil, fmt.Errorf("%s: block '%s' takes at most one label, got %d", b.DefRange(), b.Type, len(b.Labels))
	}
	el := &config.Element{
		Kind:       b.Type,
		Attributes: make(map[string]cty.Value, len(b.Body.Attributes)),
		Range:      b.DefRange(),
	}
	if len(b.Labels) == 1 {
		el.Label = b.Labels[0]
	}

	// Attribute order is irrelevant to the model, but sorted evaluation keeps
	// the reported diagnostic stable.
	names := make([]string, 0, len(b.Body.Attributes))
	for name := range b.Body.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := attributeValue(evalCtx, b.Body.Attributes[name])
		if err != nil {
			return nil, err
		}
		el.Attributes[name] = v
	}

	for _, child := range b.Body.Blocks {
		c, err := l.translateBlock(ctx, evalCtx, child)
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, c)
	}
	logger.Debug("Translated HCL block.", "label", el.Label, "attributes", len(el.Attributes), "children", len(el.Children))
	return el, nil
}

// attributeValue evaluates an attribute. A bare keyword such as
// `type = vector` evaluates to its name.
func attributeValue(evalCtx *hcl.EvalContext, attr *hclsyntax.Attribute) (cty.Value, error) {
	if kw, ok := bareKeyword(attr.Expr); ok {
		return cty.StringVal(kw), nil
	}
	v, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("invalid value for attribute '%s': %w", attr.Name, diags)
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("%s: attribute '%s' has no known value", attr.SrcRange, attr.Name)
	}
	return v, nil
}
