package hcl_adapter

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/morphocore/internal/ctxlog"
)

const localsBlock = "locals"

// evalLocals evaluates the `locals` blocks of a file in declaration order
// and returns the context exposing them as `local.<name>`, next to the
// environment as `env.<NAME>`. A local may refer
// to the ones declared before it.
func (l *Loader) evalLocals(ctx context.Context, body *hclsyntax.Body) (*hcl.EvalContext, error) {
	logger := ctxlog.FromContext(ctx)
	values := map[string]cty.Value{}
	evalCtx := &hcl.EvalContext{Variables: map[string]cty.Value{
		"local": cty.EmptyObjectVal,
		"env":   envObject(),
	}}

	for _, b := range body.Blocks {
		if b.Type != localsBlock {
			continue
		}
		if len(b.Body.Blocks) > 0 {
			return nil, fmt.Errorf("%s: locals cannot contain blocks", b.DefRange())
		}
		// source order, so that later locals can use earlier ones
		attrs := slices.SortedFunc(maps.Values(b.Body.Attributes), func(a, b *hclsyntax.Attribute) int {
			return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
		})
		for _, a := range attrs {
			if _, dup := values[a.Name]; dup {
				return nil, fmt.Errorf("%s: duplicate local '%s'", a.SrcRange, a.Name)
			}
			v, err := attributeValue(evalCtx, a)
			if err != nil {
				return nil, err
			}
			values[a.Name] = v
			evalCtx.Variables["local"] = cty.ObjectVal(maps.Clone(values))
		}
	}
	logger.Debug("Evaluated locals.", "count", len(values))
	return evalCtx, nil
}
