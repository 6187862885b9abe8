package progress

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/scheduler"
)

const (
	// EventProgress is emitted for every intermediate report.
	EventProgress = "progress"
	// EventDone is emitted once when the run ends.
	EventDone = "done"

	connectTimeout = 15 * time.Second
)

// emitter is the part of a socket.io client the reporter needs.
type emitter interface {
	Emit(ev string, args ...any) error
}

// SocketEmitter forwards progress to a socket.io server.
type SocketEmitter struct {
	io    emitter
	close func()
}

// SocketOptions configures Dial.
type SocketOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Dial connects to the socket.io server and waits for the connection to be
// accepted.
func Dial(ctx context.Context, o SocketOptions) (*SocketEmitter, error) {
	logger := ctxlog.FromContext(ctx).With("url", o.URL)
	logger.Info("Connecting progress emitter...")

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	io := socket.NewManager(baseURL, opts).Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Progress emitter connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketEmitter{io: io, close: func() { io.Disconnect() }}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}
}

// Report emits the snapshot. Delivery failures are logged and dropped so
// that a lost connection never stops the run.
func (e *SocketEmitter) Report(ctx context.Context, p scheduler.Progress) {
	ev := EventProgress
	if p.Done {
		ev = EventDone
	}
	if err := e.io.Emit(ev, payload(p)); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit progress event.", "event", ev, "error", err)
	}
}

// Close disconnects from the server.
func (e *SocketEmitter) Close() {
	if e.close != nil {
		e.close()
	}
}

func payload(p scheduler.Progress) map[string]any {
	return map[string]any{
		"run_id":     p.RunID,
		"time":       p.Time,
		"start":      p.Start,
		"stop":       p.Stop,
		"fraction":   p.Fraction(),
		"iterations": p.Iterations,
	}
}
