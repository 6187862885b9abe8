package scheduler

import (
	"context"
	"errors"

	"github.com/vk/morphocore/internal/metrics"
	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/symbol"
)

var (
	// ErrCyclicDependency is returned by Init when phase II cannot be ordered.
	ErrCyclicDependency = errors.New("cyclic dependency")
	// ErrTornDown is returned by every method called after Wipe.
	ErrTornDown = errors.New("scheduler was torn down")
	// ErrNotInitialized is returned by Compute before Init.
	ErrNotInitialized = errors.New("scheduler is not initialised")
)

// Checkpointer persists the model state at checkpoint times.
type Checkpointer interface {
	Save(ctx context.Context, runID string, t float64, root *symbol.Scope) error
}

// Progress is a snapshot of a running simulation.
type Progress struct {
	RunID      string
	Time       float64
	Start      float64
	Stop       float64
	Iterations int
	Done       bool
}

// Fraction returns the completed share of the simulated interval.
func (p Progress) Fraction() float64 {
	if p.Stop <= p.Start {
		return 1
	}
	return min(1, (p.Time-p.Start)/(p.Stop-p.Start))
}

// ProgressReporter receives progress notifications. Implementations must not
// block the main loop for long.
type ProgressReporter interface {
	Report(ctx context.Context, p Progress)
}

// Options configures a Scheduler.
type Options struct {
	Processes []process.Process
	StartTime float64
	StopTime  float64
	// StopCondition is an optional global expression; the run ends early as
	// soon as it evaluates to non-zero.
	StopCondition string
	// CheckpointInterval enables checkpoints every interval of simulated
	// time when positive and Checkpointer is set.
	CheckpointInterval float64
	Checkpointer       Checkpointer
	Progress           ProgressReporter
	Workers            int
	Metrics            *metrics.Collector
	// RunID identifies the run in progress events and checkpoints. A random
	// one is generated when empty.
	RunID string
}
