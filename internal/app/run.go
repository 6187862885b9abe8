package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/morphocore/internal/builder"
	"github.com/vk/morphocore/internal/checkpoint"
	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/progress"
	"github.com/vk/morphocore/internal/scheduler"
)

// Build loads the model and constructs the simulation.
func (a *App) Build(ctx context.Context) (*builder.Simulation, error) {
	model, err := a.LoadModel(ctx)
	if err != nil {
		return nil, err
	}
	sim, err := builder.Build(ctx, model, a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build simulation: %w", err)
	}
	return sim, nil
}

func (a *App) schedulerOptions(sim *builder.Simulation) scheduler.Options {
	return scheduler.Options{
		Processes:          sim.Processes,
		StartTime:          sim.StartTime,
		StopTime:           sim.StopTime,
		StopCondition:      sim.StopCondition,
		CheckpointInterval: sim.CheckpointInterval,
		Workers:            a.config.WorkerCount,
		Metrics:            a.metrics,
		RunID:              a.config.RunID,
	}
}

// Check builds the simulation and initialises the scheduler without running
// it. Undefined symbols, type errors and dependency cycles are reported.
func (a *App) Check(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx

	sim, err := a.Build(ctx)
	if err != nil {
		return err
	}
	s := scheduler.New(a.schedulerOptions(sim))
	if err := s.Init(ctx, sim.Root); err != nil {
		return errors.Join(fmt.Errorf("failed to initialise scheduler: %w", err), s.Wipe(ctx))
	}
	a.logger.Info("Model is valid.", "processes", len(sim.Processes), "order", s.Order(), "min_step", s.MinStep())
	return s.Wipe(ctx)
}

// Run executes the simulation described by the configured model.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() { err = errors.Join(err, a.closeHealthCheckServer()) }()

	sim, err := a.Build(ctx)
	if err != nil {
		return err
	}
	opts := a.schedulerOptions(sim)

	reporters := progress.Multi{progress.NewLogReporter()}
	if a.config.ProgressURL != "" {
		emitter, err := progress.Dial(ctx, progress.SocketOptions{URL: a.config.ProgressURL})
		if err != nil {
			return fmt.Errorf("failed to connect progress emitter: %w", err)
		}
		defer emitter.Close()
		reporters = append(reporters, emitter)
	}
	opts.Progress = reporters

	if a.config.CheckpointDir != "" {
		store, serr := a.openStore()
		if serr != nil {
			return serr
		}
		defer func() { err = errors.Join(err, store.Close()) }()
		opts.Checkpointer = store

		if a.config.Resume {
			snap, err := store.Latest(ctx, a.config.RunID)
			if err != nil {
				return fmt.Errorf("failed to resume run %s: %w", a.config.RunID, err)
			}
			if err := checkpoint.Restore(snap, sim.Root); err != nil {
				return fmt.Errorf("failed to resume run %s: %w", a.config.RunID, err)
			}
			opts.StartTime = snap.Time
			a.logger.Info("Resuming from checkpoint.", "run_id", snap.RunID, "time", snap.Time)
		}
	}

	s := scheduler.New(opts)
	defer func() {
		if werr := s.Wipe(ctx); werr != nil && !errors.Is(werr, scheduler.ErrTornDown) {
			err = errors.Join(err, werr)
		}
	}()
	if err := s.Init(ctx, sim.Root); err != nil {
		return fmt.Errorf("failed to initialise scheduler: %w", err)
	}

	a.logger.Info("🚀 Starting simulation.", "run_id", s.RunID(), "start", opts.StartTime, "stop", opts.StopTime, "processes", len(sim.Processes))
	if err := s.Compute(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	a.logger.Info("🏁 Simulation finished.", "run_id", s.RunID(), "time", s.Time().Now())
	return nil
}

func (a *App) openStore() (*checkpoint.Store, error) {
	cfg := checkpoint.Config{Path: a.config.CheckpointDir}
	if parseLevel(a.config.LogLevel) <= slog.LevelDebug {
		cfg.Logger = a.logger.With("component", "checkpoint")
	}
	store, err := checkpoint.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	return store, nil
}
