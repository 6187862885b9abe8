package executor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/symbol"
)

// serialThreshold is the number of foci below which work runs inline on
// worker 0.
const serialThreshold = 32

// Pool is a fixed-size worker pool. The zero value is not usable; use New.
type Pool struct {
	workers int
}

// New returns a pool with n workers. n <= 0 selects runtime.GOMAXPROCS(0).
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: n}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// Task is the work done for one focus by the given worker.
type Task func(worker int, f symbol.Focus) error

// ForEach runs task for every focus. Foci are split into contiguous chunks,
// one chunk per worker. The first error cancels the remaining work and is
// returned.
func (p *Pool) ForEach(ctx context.Context, foci []symbol.Focus, task Task) error {
	if len(foci) == 0 {
		return nil
	}
	if p.workers == 1 || len(foci) < serialThreshold {
		for _, f := range foci {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := task(0, f); err != nil {
				return err
			}
		}
		return nil
	}

	logger := ctxlog.FromContext(ctx)
	n := min(p.workers, len(foci))
	chunk := (len(foci) + n - 1) / n
	logger.Debug("Dispatching foci to workers.", "foci", len(foci), "workers", n)

	g, gCtx := errgroup.WithContext(ctx)
	for w := range n {
		lo := w * chunk
		hi := min(lo+chunk, len(foci))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for _, f := range foci[lo:hi] {
				if err := gCtx.Err(); err != nil {
					return err
				}
				if err := task(w, f); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
