package process

import (
	"context"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/symbol"
)

// System applies a set of rules synchronously at a fixed interval: every
// rule reads the state from before the step.
//
//	system "division_clock" {
//	  time_step = 1
//	  rule { symbol_ref = "age"  expression = "age + 1" }
//	}
type System struct {
	Listener
	configs []ruleConfig
	rules   ruleSet
}

// NewSystem returns an unconfigured system.
func NewSystem() Process { return &System{} }

func (s *System) Category() Category { return Instantaneous{} }

func (s *System) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := s.Configure(el, scope, StepRequired); err != nil {
		return err
	}
	var err error
	s.configs, err = readRules(el)
	return err
}

func (s *System) Init(_ context.Context, rt Runtime) error {
	rules, err := loadRules(s.scope, s.configs)
	if err != nil {
		return err
	}
	if err := rules.init(rt.Pool().Workers()); err != nil {
		return err
	}
	s.rules = rules
	s.Bind(rt)
	return nil
}

func (s *System) DependSymbols() []symbol.Symbol { return s.rules.inputs() }
func (s *System) OutputSymbols() []symbol.Symbol { return s.rules.outputs() }

func (s *System) Prepare(ctx context.Context, _ float64) error {
	for _, a := range s.rules {
		if err := computeAll(ctx, s.rt.Pool(), s.scope, a, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) Execute(context.Context) error {
	s.rules.apply()
	return nil
}
