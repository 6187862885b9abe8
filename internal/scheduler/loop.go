package scheduler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/symbol"
)

// Compute runs the simulation until the stop time, the stop condition or
// the cancellation of ctx. Any process failure aborts the run.
func (s *Scheduler) Compute(ctx context.Context) (err error) {
	if err := s.usable(); err != nil {
		return err
	}
	switch s.state {
	case created:
		return ErrNotInitialized
	case finished:
		return nil
	}

	ctx, span := tracer.Start(ctx, "scheduler.Compute",
		trace.WithAttributes(
			attribute.String("run.id", s.runID),
			attribute.Float64("run.start", s.opts.StartTime),
			attribute.Float64("run.stop", s.opts.StopTime),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("run.iterations", s.iterations))
		span.End()
	}()
	ctx = ctxlog.With(ctx, "run_id", s.runID)
	logger := ctxlog.FromContext(ctx)

	if !s.started {
		s.started = true
		logger.Info("Simulation starting.", "start", s.opts.StartTime, "stop", s.opts.StopTime)
		if err := s.initialState(ctx); err != nil {
			return err
		}
	}

	stopTime := s.opts.StopTime
	current := s.clock.Now()
	for current < stopTime-s.tol {
		if err := ctx.Err(); err != nil {
			return err
		}

		horizon := stopTime
		for _, p := range s.phase3 {
			horizon = min(horizon, p.CurrentTime())
		}

		for _, p := range s.phase1 {
			if !process.ListenerOf(p).Due(current, s.tol) {
				continue
			}
			dt := p.TimeStep()
			if dt > 0 {
				if h := horizon - current; h > s.tol {
					dt = min(dt, h)
				} else {
					dt = min(dt, stopTime-current)
				}
			}
			if err := process.Prepare(ctx, p, dt); err != nil {
				return err
			}
			if err := process.Execute(ctx, p); err != nil {
				return err
			}
		}

		next := horizon
		for _, p := range s.phase1 {
			next = min(next, p.CurrentTime())
		}
		for _, e := range s.phase2 {
			next = min(next, e.p.CurrentTime())
		}
		if next > stopTime-s.tol {
			next = stopTime
		}
		if next <= current {
			return fmt.Errorf("simulation time does not advance past %g", current)
		}
		current = next
		s.clock.SetTime(current)

		if err := s.runPhase2(ctx, current); err != nil {
			return err
		}
		if err := s.runPhase3(ctx, current); err != nil {
			return err
		}

		s.iterations++
		s.metrics.Iteration()
		s.metrics.SetSimTime(current)
		s.progress.Do(func() { s.report(ctx, false) })

		if err := s.checkpoint(ctx, current); err != nil {
			return err
		}
		if stop, err := s.stopConditionMet(); err != nil {
			return err
		} else if stop {
			logger.Info("Stop condition met.", "time", current, "condition", s.opts.StopCondition)
			break
		}
	}

	if err := s.flush(ctx, current); err != nil {
		return err
	}
	s.report(ctx, true)
	s.state = finished
	logger.Info("Simulation finished.", "time", current, "iterations", s.iterations)
	return s.finishAll(ctx)
}

// initialState runs phase II once and every phase III process due at the
// start.
func (s *Scheduler) initialState(ctx context.Context) error {
	now := s.clock.Now()
	for _, e := range s.phase2 {
		if err := s.runEntry(ctx, e); err != nil {
			return err
		}
	}
	return s.runPhase3(ctx, now)
}

func (s *Scheduler) runEntry(ctx context.Context, e entry) error {
	if e.duplicate {
		return process.Rerun(ctx, e.p)
	}
	return process.Run(ctx, e.p)
}

func (s *Scheduler) runPhase2(ctx context.Context, now float64) error {
	for _, e := range s.phase2 {
		if !process.ListenerOf(e.p).Due(now, s.tol) {
			continue
		}
		if err := s.runEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runPhase3(ctx context.Context, now float64) error {
	for _, p := range s.phase3 {
		if !process.ListenerOf(p).Due(now, s.tol) {
			continue
		}
		if err := process.Run(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// flush brings reporters and analysis processes up to date with now.
func (s *Scheduler) flush(ctx context.Context, now float64) error {
	stale := func(p process.Process) bool {
		return process.ListenerOf(p).LastRun() < now-s.tol
	}
	for _, e := range s.phase2 {
		if _, ok := e.p.Category().(process.Reporter); !ok || e.duplicate || !stale(e.p) {
			continue
		}
		if err := process.Run(ctx, e.p); err != nil {
			return err
		}
	}
	for _, p := range s.phase3 {
		if !stale(p) {
			continue
		}
		if err := process.Run(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) checkpoint(ctx context.Context, now float64) error {
	if s.opts.Checkpointer == nil || s.opts.CheckpointInterval <= 0 || now < s.nextCheckpoint-s.tol {
		return nil
	}
	for s.nextCheckpoint <= now+s.tol {
		s.nextCheckpoint += s.opts.CheckpointInterval
	}
	if err := s.opts.Checkpointer.Save(ctx, s.runID, now, s.root); err != nil {
		return fmt.Errorf("checkpoint at %g: %w", now, err)
	}
	ctxlog.FromContext(ctx).Debug("Checkpoint written.", "time", now)
	return nil
}

func (s *Scheduler) stopConditionMet() (bool, error) {
	if s.stop == nil {
		return false, nil
	}
	v, err := s.stop.Get(symbol.GlobalFocus())
	if err != nil {
		return false, fmt.Errorf("stop condition: %w", err)
	}
	return v != 0, nil
}

func (s *Scheduler) report(ctx context.Context, done bool) {
	if s.opts.Progress == nil {
		return
	}
	s.opts.Progress.Report(ctx, Progress{
		RunID:      s.runID,
		Time:       s.clock.Now(),
		Start:      s.opts.StartTime,
		Stop:       s.opts.StopTime,
		Iterations: s.iterations,
		Done:       done,
	})
}
