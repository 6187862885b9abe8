package process

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/symbol"
)

// Trigger selects when an event fires.
type Trigger string

const (
	// OnChange fires when the condition turns true.
	OnChange Trigger = "on-change"
	// WhenTrue fires at every check while the condition holds.
	WhenTrue Trigger = "when-true"
)

// Event applies its rules at the foci where a condition holds.
//
//	event "divide" {
//	  condition = "volume > 2 * target_volume"
//	  trigger   = "on-change"
//	  rule { symbol_ref = "volume"  expression = "volume / 2" }
//	}
type Event struct {
	Listener
	text    string
	trigger Trigger
	configs []ruleConfig

	cond  *evaluator.ThreadedEvaluator[float64]
	rules ruleSet

	mu      sync.Mutex
	history map[symbol.Focus]bool
	fired   int
}

// NewEvent returns an unconfigured event.
func NewEvent() Process { return &Event{} }

func (e *Event) Category() Category { return Instantaneous{} }

func (e *Event) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := e.Configure(el, scope, StepOptional); err != nil {
		return err
	}
	var err error
	if e.text, err = el.RequireString("condition"); err != nil {
		return err
	}
	t, ok, err := el.String("trigger")
	if err != nil {
		return err
	}
	e.trigger = OnChange
	if ok {
		e.trigger = Trigger(t)
	}
	if e.trigger != OnChange && e.trigger != WhenTrue {
		return fmt.Errorf("%s: unknown trigger %q", el.Location(), t)
	}
	e.configs, err = readRules(el)
	return err
}

func (e *Event) Init(_ context.Context, rt Runtime) error {
	workers := rt.Pool().Workers()
	ev, err := evaluator.New[float64](e.text, e.scope)
	if err != nil {
		return err
	}
	e.cond = evaluator.NewThreaded(ev, workers)
	if err := e.cond.Init(); err != nil {
		return err
	}
	if e.rules, err = loadRules(e.scope, e.configs); err != nil {
		return err
	}
	if err := e.rules.init(workers); err != nil {
		return err
	}
	for _, a := range e.rules {
		if a.Granularity() < e.cond.Flags().Granularity {
			return fmt.Errorf("%w: condition %q varies per %s but %q only per %s",
				symbol.ErrTypeMismatch, e.text, e.cond.Flags().Granularity, a.Target().Name(), a.Granularity())
		}
	}
	e.history = make(map[symbol.Focus]bool)
	e.Bind(rt)
	return nil
}

func (e *Event) DependSymbols() []symbol.Symbol {
	var set symbol.Set
	set.AddAll(e.cond.DependSymbols()...)
	set.AddAll(e.rules.inputs()...)
	return set.Items()
}

func (e *Event) OutputSymbols() []symbol.Symbol { return e.rules.outputs() }

// Fired returns how many times a rule set was triggered.
func (e *Event) Fired() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fired
}

// check records the condition at f and reports whether the event fires.
func (e *Event) check(f symbol.Focus, holds bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.history[f]
	e.history[f] = holds
	fire := holds && (e.trigger == WhenTrue || !before)
	if fire {
		e.fired++
	}
	return fire
}

func (e *Event) Prepare(ctx context.Context, _ float64) error {
	g := e.cond.Flags().Granularity
	for _, a := range e.rules {
		g = g.Join(a.Granularity())
	}
	return e.rt.Pool().ForEach(ctx, e.scope.Foci(g), func(w int, f symbol.Focus) error {
		c, err := e.cond.Get(w, f)
		if err != nil {
			return err
		}
		if !e.check(f, c != 0) {
			return nil
		}
		for _, a := range e.rules {
			if err := a.ComputeAt(w, f, true); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Event) Execute(context.Context) error {
	e.rules.apply()
	return nil
}
