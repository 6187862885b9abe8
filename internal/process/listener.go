package process

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/symbol"
)

// StepPolicy declares how a process obtains its time step.
type StepPolicy int

const (
	// StepRequired processes must declare `time_step`.
	StepRequired StepPolicy = iota
	// StepOptional processes use `time_step` if present and are adjustable
	// otherwise.
	StepOptional
	// StepNone processes are always adjustable.
	StepNone
)

// State is the lifecycle state of a process.
type State int

const (
	Unconfigured State = iota
	Configured
	Scheduled
	Preparing
	Executing
	Finished
)

func (s State) String() string {
	return [...]string{"unconfigured", "configured", "scheduled", "preparing", "executing", "finished"}[s]
}

// TimeStepAttr is the model attribute declaring a process step.
const TimeStepAttr = "time_step"

// Cost accumulates the resources spent in a process.
type Cost struct {
	Wall       time.Duration
	CPU        time.Duration
	Executions int
}

// Listener holds the timing state of a process and takes part in time-step
// negotiation. Processes embed it.
type Listener struct {
	name     string
	location string
	scope    *symbol.Scope
	policy   StepPolicy

	timeStep   float64
	adjustable bool
	validTime  float64
	lastRun    float64
	lastDt     float64

	reporter  bool
	minSource float64
	minSink   float64

	inputs  []symbol.Symbol
	outputs []symbol.Symbol

	state State
	rt    Runtime
	cost  Cost
}

// Configure reads the step declaration of el. It is called from the
// LoadConfig method of every process.
func (l *Listener) Configure(el *config.Element, scope *symbol.Scope, policy StepPolicy) error {
	l.name = el.Name()
	l.location = el.Location()
	l.scope = scope
	l.policy = policy
	l.timeStep = -1
	l.minSource, l.minSink = -1, -1
	l.lastRun = math.Inf(-1)

	switch policy {
	case StepNone:
		l.adjustable = true
	default:
		dt, ok, err := el.Float(TimeStepAttr)
		if err != nil {
			return err
		}
		switch {
		case ok:
			l.timeStep = dt
		case policy == StepRequired:
			return fmt.Errorf("%s: %s requires attribute %q", l.location, l.name, TimeStepAttr)
		default:
			l.adjustable = true
		}
	}
	l.state = Configured
	return nil
}

// markReporter switches the listener to reporter refinement.
func (l *Listener) markReporter() { l.reporter = true }

func (l *Listener) base() *Listener { return l }

func (l *Listener) Name() string         { return l.name }
func (l *Listener) Location() string     { return l.location }
func (l *Listener) Scope() *symbol.Scope { return l.scope }
func (l *Listener) TimeStep() float64    { return l.timeStep }
func (l *Listener) CurrentTime() float64 { return l.validTime }
func (l *Listener) LastRun() float64     { return l.lastRun }
func (l *Listener) Adjustable() bool     { return l.adjustable }
func (l *Listener) State() State         { return l.state }
func (l *Listener) Cost() Cost           { return l.cost }
func (l *Listener) Runtime() Runtime     { return l.rt }

// Links returns the leaf symbols recorded with SetLinks.
func (l *Listener) Links() (in, out []symbol.Symbol) { return l.inputs, l.outputs }

func (l *Listener) now() float64 {
	if l.rt == nil {
		return 0
	}
	return l.rt.Time().Now()
}

func (l *Listener) stopTime() float64 {
	if l.rt == nil {
		return math.Inf(1)
	}
	return l.rt.StopTime()
}

// Bind attaches the runtime and schedules the process from the current time.
func (l *Listener) Bind(rt Runtime) {
	l.rt = rt
	l.SetTimeStep(l.timeStep)
	l.state = Scheduled
}

// SetTimeStep sets the intrinsic step. A negative step makes the process
// valid for all remaining time, so it runs once, at the end; a zero step
// makes it due only at the stop time; a positive step makes it recur from
// now on.
func (l *Listener) SetTimeStep(t float64) {
	l.timeStep = t
	if t <= 0 {
		l.validTime = l.stopTime()
		return
	}
	l.validTime = l.now()
}

// SetLinks records the leaf symbols the process reads and writes.
func (l *Listener) SetLinks(inputs, outputs []symbol.Symbol) {
	l.inputs, l.outputs = inputs, outputs
}

func (l *Listener) propagateDownstream(dt float64) {
	for _, s := range l.outputs {
		if sc := s.Scope(); sc != nil {
			sc.PropagateSourceTimeStep(s.Name(), dt)
		}
	}
}

func (l *Listener) propagateUpstream(dt float64) {
	for _, s := range l.inputs {
		if sc := s.Scope(); sc != nil {
			sc.PropagateSinkTimeStep(s.Name(), dt)
		}
	}
}

// Announce propagates a positive intrinsic step through the symbols the
// process reads and writes.
func (l *Listener) Announce() {
	if l.timeStep <= 0 {
		return
	}
	l.propagateDownstream(l.timeStep)
	l.propagateUpstream(l.timeStep)
}

// UpdateSourceTS is called when a producer of one of the inputs announces
// its step.
func (l *Listener) UpdateSourceTS(dt float64) {
	if !l.adjustable || dt <= 0 {
		return
	}
	if l.reporter {
		if l.minSource > 0 && dt >= l.minSource {
			return
		}
		l.minSource = dt
		l.settle()
		return
	}
	if l.timeStep > 0 && dt >= l.timeStep {
		return
	}
	l.SetTimeStep(dt)
	l.propagateDownstream(dt)
}

// UpdateSinkTS is called when a consumer of one of the outputs announces
// its step.
func (l *Listener) UpdateSinkTS(dt float64) {
	if !l.adjustable || dt <= 0 {
		return
	}
	if l.reporter {
		if l.minSink > 0 && dt >= l.minSink {
			return
		}
		l.minSink = dt
		l.settle()
		return
	}
	if l.timeStep > 0 && dt >= l.timeStep {
		return
	}
	l.SetTimeStep(dt)
	l.propagateUpstream(dt)
}

// settle fixes a reporter step once both sides are known.
func (l *Listener) settle() {
	if l.minSource <= 0 || l.minSink <= 0 {
		return
	}
	dt := max(l.minSource, l.minSink)
	if l.timeStep > 0 && dt >= l.timeStep {
		return
	}
	l.SetTimeStep(dt)
	l.propagateDownstream(dt)
	l.propagateUpstream(dt)
}

// Finalize gives adjustable listeners that never settled a step. Reporters
// fall back to the side they heard from, everything else to def. A def <= 0
// leaves the step unset.
func (l *Listener) Finalize(def float64) {
	if !l.adjustable || l.timeStep > 0 {
		return
	}
	switch {
	case l.reporter && l.minSource > 0:
		l.SetTimeStep(l.minSource)
	case l.reporter && l.minSink > 0:
		l.SetTimeStep(l.minSink)
	case def > 0:
		l.SetTimeStep(def)
	}
}

// Due reports whether the process has to run at time t, within tolerance tol.
func (l *Listener) Due(t, tol float64) bool {
	return l.validTime <= t+tol
}

// advance moves the valid time after an execution at time now.
func (l *Listener) advance(now float64) {
	if l.timeStep > 0 {
		dt := l.lastDt
		if dt <= 0 {
			dt = l.timeStep
		}
		l.validTime = max(l.validTime, now) + dt
	} else {
		l.validTime = l.stopTime()
	}
	l.lastRun = now
}

// Finish marks the process as done. Processes holding resources override it
// and call it last.
func (l *Listener) Finish(context.Context) error {
	l.state = Finished
	return nil
}
