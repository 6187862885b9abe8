package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/executor"
	"github.com/vk/morphocore/internal/metrics"
	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/symbol"
)

var tracer = otel.Tracer("morphocore.scheduler")

// progressInterval is the wall-clock cadence of progress notifications.
const progressInterval = time.Second

type lifecycle int

const (
	created lifecycle = iota
	initialised
	finished
	tornDown
)

// Scheduler orchestrates the processes of one simulation run. It implements
// process.Runtime.
type Scheduler struct {
	opts  Options
	runID string
	state lifecycle

	root    *symbol.Scope
	clock   *symbol.TimeSymbol
	pool    *executor.Pool
	metrics *metrics.Collector

	phase1 []process.Process
	phase2 []entry
	phase3 []process.Process

	minStep      float64
	tol          float64
	duplications int

	stop           *evaluator.ExpressionEvaluator[float64]
	nextCheckpoint float64
	started        bool
	iterations     int
	progress       rate.Sometimes
}

// New returns a scheduler for the given processes. Processes must have been
// loaded with LoadConfig.
func New(opts Options) *Scheduler {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Scheduler{
		opts:     opts,
		runID:    runID,
		pool:     executor.New(opts.Workers),
		metrics:  opts.Metrics,
		minStep:  -1,
		progress: rate.Sometimes{Interval: progressInterval},
	}
}

func (s *Scheduler) Time() *symbol.TimeSymbol    { return s.clock }
func (s *Scheduler) StartTime() float64          { return s.opts.StartTime }
func (s *Scheduler) StopTime() float64           { return s.opts.StopTime }
func (s *Scheduler) Pool() *executor.Pool        { return s.pool }
func (s *Scheduler) Metrics() *metrics.Collector { return s.metrics }

// RunID identifies the run.
func (s *Scheduler) RunID() string { return s.runID }

// MinStep is the finest positive step found during negotiation, -1 if none.
func (s *Scheduler) MinStep() float64 { return s.minStep }

// Tolerance is the slack used to decide whether a process is due.
func (s *Scheduler) Tolerance() float64 { return s.tol }

// Duplications is the number of reporters scheduled twice in phase II.
func (s *Scheduler) Duplications() int { return s.duplications }

// Order returns the names of the phase II processes in execution order.
// Duplicated reporters carry a trailing "*" on their early slot.
func (s *Scheduler) Order() []string {
	out := make([]string, len(s.phase2))
	for i, e := range s.phase2 {
		out[i] = process.ListenerOf(e.p).Name()
		if e.duplicate {
			out[i] += "*"
		}
	}
	return out
}

func (s *Scheduler) usable() error {
	if s.state == tornDown {
		return ErrTornDown
	}
	return nil
}

// Init binds the processes to root and prepares the schedule.
func (s *Scheduler) Init(ctx context.Context, root *symbol.Scope) (err error) {
	if err := s.usable(); err != nil {
		return err
	}
	if s.state != created {
		return errors.New("scheduler is already initialised")
	}

	ctx, span := tracer.Start(ctx, "scheduler.Init",
		trace.WithAttributes(
			attribute.String("run.id", s.runID),
			attribute.Int("run.processes", len(s.opts.Processes)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	logger := ctxlog.FromContext(ctx).With("run_id", s.runID)

	s.root = root
	if err := s.bindClock(); err != nil {
		return err
	}
	s.clock.SetTime(s.opts.StartTime)

	for _, p := range s.opts.Processes {
		if err := p.Init(ctx, s); err != nil {
			l := process.ListenerOf(p)
			return fmt.Errorf("process %s (%s): %w", l.Name(), l.Location(), err)
		}
	}

	s.linkSubSteps()
	for _, p := range s.opts.Processes {
		process.Link(p)
	}
	s.negotiate()
	if err := s.orderPhase2(s.partition()); err != nil {
		return err
	}

	s.tol = 1e-6
	if s.minStep > 0 {
		s.tol = s.minStep * 1e-3
	}

	if s.opts.StopCondition != "" {
		s.stop, err = evaluator.New[float64](s.opts.StopCondition, root)
		if err != nil {
			return fmt.Errorf("stop condition: %w", err)
		}
		if err := s.stop.Init(); err != nil {
			return fmt.Errorf("stop condition: %w", err)
		}
	}
	s.nextCheckpoint = s.opts.StartTime + s.opts.CheckpointInterval

	s.state = initialised
	span.SetAttributes(attribute.Float64("run.min_step", s.minStep), attribute.Int("run.duplications", s.duplications))
	logger.Debug("Scheduler initialised.",
		"phase1", len(s.phase1), "phase2", len(s.phase2), "phase3", len(s.phase3),
		"min_step", s.minStep, "tolerance", s.tol, "order", s.Order())
	return nil
}

// bindClock finds the time symbol of root or registers a new one.
func (s *Scheduler) bindClock() error {
	if sym, err := s.root.Lookup(symbol.TimeName); err == nil {
		ts, ok := sym.(*symbol.TimeSymbol)
		if !ok {
			return fmt.Errorf("%w: %q must be the simulation time", symbol.ErrTypeMismatch, symbol.TimeName)
		}
		s.clock = ts
		return nil
	}
	s.clock = symbol.NewTimeSymbol()
	return s.root.RegisterSymbol(s.clock)
}

// linkSubSteps hooks sub-step reporters into every continuous process that
// writes something they depend on. Continuous processes are treated as
// writing the time.
func (s *Scheduler) linkSubSteps() {
	for _, p := range s.opts.Processes {
		cat, ok := p.Category().(process.Continuous)
		if !ok || cat.SubSteps == nil {
			continue
		}
		outputs := symbol.NewSet(s.clock)
		for _, o := range p.OutputSymbols() {
			outputs.AddAll(symbol.LeafDependSymbols(o)...)
		}
		for _, r := range s.opts.Processes {
			if rc, ok := r.Category().(process.Reporter); !ok || !rc.SubStep {
				continue
			}
			var deps []symbol.Symbol
			for _, d := range r.DependSymbols() {
				deps = append(deps, symbol.LeafDependSymbols(d)...)
			}
			if outputs.Intersects(deps) {
				cat.SubSteps.Add(r)
			}
		}
	}
}

// negotiate propagates every fixed step and gives the remaining adjustable
// processes the global minimum.
func (s *Scheduler) negotiate() {
	for _, p := range s.opts.Processes {
		if dt := p.TimeStep(); dt > 0 {
			process.ListenerOf(p).Announce()
		}
	}
	for _, p := range s.opts.Processes {
		s.clock.UpdateMinStep(p.TimeStep())
	}
	s.minStep = s.clock.MinStep()
	for _, p := range s.opts.Processes {
		process.ListenerOf(p).Finalize(s.minStep)
	}
}

// partition fills phases I and III and returns the unordered phase II.
func (s *Scheduler) partition() []process.Process {
	var phase2 []process.Process
	for _, p := range s.opts.Processes {
		switch p.Category().(type) {
		case process.Continuous:
			s.phase1 = append(s.phase1, p)
		case process.Instantaneous, process.Reporter:
			phase2 = append(phase2, p)
		case process.Analysis:
			s.phase3 = append(s.phase3, p)
		}
	}
	slices.SortStableFunc(s.phase1, func(a, b process.Process) int {
		return int(a.Category().(process.Continuous).Rank) - int(b.Category().(process.Continuous).Rank)
	})
	return phase2
}

func (s *Scheduler) orderPhase2(todo []process.Process) error {
	o := newOrderer(todo)
	err := o.run(defaultStrategies())
	_ = s.root.Walk(func(sc *symbol.Scope) error {
		sc.ClearUnresolved()
		return nil
	})
	if err != nil {
		return err
	}
	s.phase2 = o.order
	s.duplications = o.duplications
	return nil
}

// Wipe finishes every process and releases the scheduler. Every later call
// returns ErrTornDown.
func (s *Scheduler) Wipe(ctx context.Context) error {
	if s.state == tornDown {
		return ErrTornDown
	}
	var errs []error
	if s.state == initialised {
		errs = append(errs, s.finishAll(ctx))
	}
	s.state = tornDown
	s.phase1, s.phase2, s.phase3 = nil, nil, nil
	s.opts.Processes = nil
	s.stop = nil
	return errors.Join(errs...)
}

func (s *Scheduler) finishAll(ctx context.Context) error {
	var errs []error
	for _, p := range s.opts.Processes {
		if process.ListenerOf(p).State() == process.Finished {
			continue
		}
		if err := p.Finish(ctx); err != nil {
			l := process.ListenerOf(p)
			errs = append(errs, fmt.Errorf("process %s (%s): %w", l.Name(), l.Location(), err))
		}
	}
	return errors.Join(errs...)
}
