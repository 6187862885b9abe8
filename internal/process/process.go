package process

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/executor"
	"github.com/vk/morphocore/internal/metrics"
	"github.com/vk/morphocore/internal/symbol"
)

// Runtime is what the scheduler offers to the processes it drives.
type Runtime interface {
	// Time is the global simulation clock.
	Time() *symbol.TimeSymbol
	StartTime() float64
	StopTime() float64
	Pool() *executor.Pool
	// Metrics may return nil.
	Metrics() *metrics.Collector
}

// Process is a unit of schedulable work. Implementations embed Listener.
type Process interface {
	symbol.TimeStepListener

	Category() Category
	// LoadConfig reads the model element declaring the process. It must call
	// Listener.Configure.
	LoadConfig(el *config.Element, scope *symbol.Scope) error
	// Init resolves symbols and prepares evaluators. It must call
	// Listener.Bind.
	Init(ctx context.Context, rt Runtime) error
	// DependSymbols are the symbols read by the process.
	DependSymbols() []symbol.Symbol
	// OutputSymbols are the symbols written by the process.
	OutputSymbols() []symbol.Symbol
	// Prepare computes the next state for a step of dt without making it
	// visible.
	Prepare(ctx context.Context, dt float64) error
	// Execute commits the state computed by Prepare.
	Execute(ctx context.Context) error
	Finish(ctx context.Context) error

	TimeStep() float64
	CurrentTime() float64
	base() *Listener
}

// ListenerOf returns the timing state of p.
func ListenerOf(p Process) *Listener { return p.base() }

// Link records the leaf symbols p reads and writes and subscribes p to step
// announcements on them.
func Link(p Process) {
	var in, out symbol.Set
	for _, s := range p.DependSymbols() {
		in.AddAll(symbol.LeafDependSymbols(s)...)
	}
	for _, s := range p.OutputSymbols() {
		out.AddAll(symbol.LeafDependSymbols(s)...)
	}
	p.base().SetLinks(in.Items(), out.Items())
	for _, s := range in.Items() {
		if sc := s.Scope(); sc != nil {
			sc.RegisterSymbolReader(p, s.Name())
		}
	}
	for _, s := range out.Items() {
		if sc := s.Scope(); sc != nil {
			sc.RegisterSymbolWriter(p, s.Name())
		}
	}
}

func annotate(p Process, err error) error {
	l := p.base()
	return fmt.Errorf("process %s (%s): %w", l.name, l.location, err)
}

func phaseLabel(p Process) string {
	return [...]string{"", "I", "II", "III"}[p.Category().Phase()]
}

func (l *Listener) account(p Process, wall, cpu time.Duration) {
	l.cost.Wall += wall
	l.cost.CPU += cpu
	if l.rt != nil {
		l.rt.Metrics().ObserveProcess(l.name, phaseLabel(p), wall, cpu)
	}
}

func measure(fn func() error) (time.Duration, time.Duration, error) {
	start, cpu := time.Now(), metrics.CPUTime()
	err := fn()
	return time.Since(start), metrics.CPUTime() - cpu, err
}

// Prepare runs the prepare phase of p for a step of dt.
func Prepare(ctx context.Context, p Process, dt float64) error {
	l := p.base()
	l.state = Preparing
	l.lastDt = dt
	wall, cpu, err := measure(func() error { return p.Prepare(ctx, dt) })
	l.account(p, wall, cpu)
	if err != nil {
		return annotate(p, err)
	}
	return nil
}

// Execute commits p and advances its valid time.
func Execute(ctx context.Context, p Process) error {
	l := p.base()
	l.state = Executing
	wall, cpu, err := measure(func() error { return p.Execute(ctx) })
	l.account(p, wall, cpu)
	l.cost.Executions++
	if err != nil {
		return annotate(p, err)
	}
	l.advance(l.now())
	l.state = Scheduled
	return nil
}

// Run prepares and executes p with its own step clamped to the stop time.
func Run(ctx context.Context, p Process) error {
	l := p.base()
	dt := l.timeStep
	if dt > 0 {
		dt = min(dt, l.stopTime()-l.now())
	}
	if err := Prepare(ctx, p, dt); err != nil {
		return err
	}
	return Execute(ctx, p)
}

// Rerun prepares and executes p again without moving its valid time. It is
// used for duplicated reporters.
func Rerun(ctx context.Context, p Process) error {
	if err := p.Prepare(ctx, 0); err != nil {
		return annotate(p, err)
	}
	if err := p.Execute(ctx); err != nil {
		return annotate(p, err)
	}
	return nil
}
