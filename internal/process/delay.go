package process

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/symbol"
)

type sample struct {
	t float64
	v float64
}

// DelayedVariable is a global variable whose writes become visible after a
// fixed delay in simulation time.
type DelayedVariable struct {
	symbol.Base
	delay   float64
	initial float64
	clock   *symbol.TimeSymbol

	mu      sync.RWMutex
	history []sample
	pending float64
	dirty   bool
}

// NewDelayedVariable returns a delayed variable reading initial until the
// first write has aged by delay.
func NewDelayedVariable(name, description string, initial, delay float64) *DelayedVariable {
	return &DelayedVariable{Base: symbol.NewBase(name, description), initial: initial, delay: delay}
}

func (d *DelayedVariable) Type() symbol.ValueType         { return symbol.Double }
func (d *DelayedVariable) DependSymbols() []symbol.Symbol { return nil }
func (d *DelayedVariable) Delay() float64                 { return d.delay }

func (d *DelayedVariable) Flags() symbol.Flags {
	return symbol.Flags{Granularity: symbol.Global, SpaceConst: true, Delayed: true, Writable: true}
}

func (d *DelayedVariable) now() float64 {
	if d.clock == nil {
		return 0
	}
	return d.clock.Now()
}

// Get returns the newest value written at least delay ago.
func (d *DelayedVariable) Get(symbol.Focus) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.at(d.now() - d.delay), nil
}

func (d *DelayedVariable) at(t float64) float64 {
	i := sort.Search(len(d.history), func(i int) bool { return d.history[i].t > t+1e-12 })
	if i == 0 {
		return d.initial
	}
	return d.history[i-1].v
}

func (d *DelayedVariable) Set(_ symbol.Focus, v float64) error {
	d.mu.Lock()
	d.push(d.now(), v)
	d.mu.Unlock()
	return nil
}

func (d *DelayedVariable) push(t, v float64) {
	if n := len(d.history); n > 0 && d.history[n-1].t >= t {
		d.history[n-1] = sample{t: d.history[n-1].t, v: v}
		return
	}
	d.history = append(d.history, sample{t: t, v: v})
}

func (d *DelayedVariable) SetBuffer(_ symbol.Focus, v float64) error {
	d.mu.Lock()
	d.pending, d.dirty = v, true
	d.mu.Unlock()
	return nil
}

func (d *DelayedVariable) ApplyBuffer() {
	d.mu.Lock()
	if d.dirty {
		d.push(d.now(), d.pending)
		d.dirty = false
	}
	d.mu.Unlock()
}

// prune drops samples no reader can observe any more.
func (d *DelayedVariable) prune(now float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := now - d.delay
	i := sort.Search(len(d.history), func(i int) bool { return d.history[i].t > t+1e-12 })
	if i > 1 {
		d.history = append(d.history[:0], d.history[i-1:]...)
	}
}

// Pending returns the number of stored samples.
func (d *DelayedVariable) Pending() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.history)
}

// DelayProcess owns a delayed variable and keeps its history short.
//
//	delay "signal" {
//	  value = 0
//	  delay = 2.5
//	}
type DelayProcess struct {
	Listener
	variable *DelayedVariable
}

// NewDelay returns an unconfigured delay process.
func NewDelay() Process { return &DelayProcess{} }

func (p *DelayProcess) Category() Category { return Continuous{Rank: Delay} }

// LoadConfig registers the delayed variable in scope so that other processes
// can bind to it.
func (p *DelayProcess) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := p.Configure(el, scope, StepOptional); err != nil {
		return err
	}
	name := el.Label
	if name == "" {
		return fmt.Errorf("%s: delay needs a symbol name as label", el.Location())
	}
	delay, ok, err := el.Float("delay")
	if err != nil {
		return err
	}
	if !ok || delay <= 0 {
		return fmt.Errorf("%s: delay %q needs a positive `delay`", el.Location(), name)
	}
	initial, err := el.FloatOr("value", 0)
	if err != nil {
		return err
	}
	desc, _, err := el.String("description")
	if err != nil {
		return err
	}
	p.variable = NewDelayedVariable(name, desc, initial, delay)
	return scope.RegisterSymbol(p.variable)
}

func (p *DelayProcess) Init(_ context.Context, rt Runtime) error {
	p.variable.clock = rt.Time()
	p.Bind(rt)
	return nil
}

// Variable returns the delayed variable owned by p.
func (p *DelayProcess) Variable() *DelayedVariable { return p.variable }

func (p *DelayProcess) DependSymbols() []symbol.Symbol { return []symbol.Symbol{p.variable} }
func (p *DelayProcess) OutputSymbols() []symbol.Symbol { return nil }

func (p *DelayProcess) Prepare(context.Context, float64) error { return nil }

func (p *DelayProcess) Execute(context.Context) error {
	p.variable.prune(p.now())
	return nil
}
