package process

import (
	"fmt"

	"github.com/vk/morphocore/internal/config"
)

type ruleConfig struct {
	target     string
	expression string
}

// readRules reads the `rule { symbol_ref = "...", expression = "..." }`
// children of el.
func readRules(el *config.Element) ([]ruleConfig, error) {
	var out []ruleConfig
	for _, r := range el.ChildrenOf("rule") {
		target, err := r.RequireString("symbol_ref")
		if err != nil {
			return nil, err
		}
		text, err := r.RequireString("expression")
		if err != nil {
			return nil, err
		}
		out = append(out, ruleConfig{target: target, expression: text})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %s needs at least one rule", el.Location(), el.Name())
	}
	return out, nil
}
