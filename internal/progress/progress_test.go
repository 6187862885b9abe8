package progress

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/scheduler"
)

type emitted struct {
	event string
	data  map[string]any
}

type fakeEmitter struct {
	events []emitted
	err    error
}

func (f *fakeEmitter) Emit(ev string, args ...any) error {
	f.events = append(f.events, emitted{event: ev, data: args[0].(map[string]any)})
	return f.err
}

func TestSocketEmitterReport(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	fake := &fakeEmitter{}
	e := &SocketEmitter{io: fake}

	e.Report(ctx, scheduler.Progress{RunID: "r1", Time: 5, Start: 0, Stop: 10, Iterations: 3})
	e.Report(ctx, scheduler.Progress{RunID: "r1", Time: 10, Start: 0, Stop: 10, Iterations: 7, Done: true})

	require.Len(t, fake.events, 2)
	assert.Equal(t, EventProgress, fake.events[0].event)
	assert.Equal(t, 0.5, fake.events[0].data["fraction"])
	assert.Equal(t, "r1", fake.events[0].data["run_id"])
	assert.Equal(t, EventDone, fake.events[1].event)
	assert.Equal(t, 7, fake.events[1].data["iterations"])
}

func TestSocketEmitterSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	e := &SocketEmitter{io: &fakeEmitter{err: errors.New("broken pipe")}}

	assert.NotPanics(t, func() { e.Report(ctx, scheduler.Progress{}) })
	assert.Contains(t, buf.String(), "broken pipe")
	e.Close()
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	r := Multi{NewLogReporter()}
	r.Report(ctx, scheduler.Progress{RunID: "abc", Time: 2.5, Stop: 10})
	r.Report(ctx, scheduler.Progress{RunID: "abc", Time: 10, Stop: 10, Done: true})

	out := buf.String()
	assert.Contains(t, out, "Simulation progress.")
	assert.Contains(t, out, "percent=25")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "Simulation finished.")
}
