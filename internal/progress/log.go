package progress

import (
	"context"
	"log/slog"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/scheduler"
)

// LogReporter logs progress through the context logger.
type LogReporter struct {
	// Level is used for intermediate reports. Final reports are always
	// logged at Info.
	Level slog.Level
}

// NewLogReporter returns a reporter logging intermediate progress at Info.
func NewLogReporter() *LogReporter {
	return &LogReporter{Level: slog.LevelInfo}
}

func (r *LogReporter) Report(ctx context.Context, p scheduler.Progress) {
	logger := ctxlog.FromContext(ctx).With("run_id", p.RunID)
	if p.Done {
		logger.Info("Simulation finished.", "time", p.Time, "iterations", p.Iterations)
		return
	}
	logger.Log(ctx, r.Level, "Simulation progress.",
		"time", p.Time,
		"stop", p.Stop,
		"percent", int(p.Fraction()*100),
		"iterations", p.Iterations,
	)
}

// Multi fans a report out to several reporters in order.
type Multi []scheduler.ProgressReporter

func (m Multi) Report(ctx context.Context, p scheduler.Progress) {
	for _, r := range m {
		r.Report(ctx, p)
	}
}
