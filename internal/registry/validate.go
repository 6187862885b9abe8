package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/process"
)

// Validate checks a process block against the definition of its kind: every
// required attribute is present, no unknown attribute or child block is
// used and every value converts to the declared type.
func (r *Registry) Validate(ctx context.Context, el *config.Element) error {
	logger := ctxlog.FromContext(ctx)
	def, ok := r.Process(el.Kind)
	if !ok {
		return fmt.Errorf("%s: unknown process kind '%s' (known: %s)", el.Location(), el.Kind, strings.Join(r.Kinds(), ", "))
	}

	var errs []string
	for _, name := range slices.Sorted(maps.Keys(def.Attributes)) {
		if def.Attributes[name].Required && !el.Has(name) {
			errs = append(errs, fmt.Sprintf("missing required attribute '%s'", name))
		}
	}
	for _, name := range el.AttributeNames() {
		attr, declared := def.Attributes[name]
		if !declared {
			if !def.Open {
				errs = append(errs, fmt.Sprintf("unsupported attribute '%s'", name))
			}
			continue
		}
		if attr.Type.Equals(cty.DynamicPseudoType) {
			logger.Warn("Process attribute has no declared type, skipping type check.", "kind", el.Kind, "attribute", name)
			continue
		}
		if _, err := convert.Convert(el.Attributes[name], attr.Type); err != nil {
			errs = append(errs, fmt.Sprintf("attribute '%s': type mismatch, requires %s: %v", name, attr.Type.FriendlyName(), err))
		}
	}
	for _, child := range el.Children {
		if !slices.Contains(def.Blocks, child.Kind) {
			errs = append(errs, fmt.Sprintf("unsupported block '%s' at %s", child.Kind, child.Location()))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: invalid %s:\n- %s", el.Location(), el.Name(), strings.Join(errs, "\n- "))
	}
	return nil
}

// Instantiate validates el and creates an unconfigured process for it.
func (r *Registry) Instantiate(ctx context.Context, el *config.Element) (process.Process, error) {
	if err := r.Validate(ctx, el); err != nil {
		return nil, err
	}
	def, _ := r.Process(el.Kind)
	return def.New(el)
}
