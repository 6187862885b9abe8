package evaluator

import (
	"fmt"
	"sync"

	"github.com/vk/morphocore/internal/symbol"
)

// ThreadedEvaluator hands every worker of a pool its own evaluator. Worker 0
// uses the evaluator passed to NewThreaded; the others get clones that share
// the parsed expression but own their cache.
//
// All clones are created by Init, before any worker evaluates, so no cache
// is ever read by one goroutine while another evaluates on it.
type ThreadedEvaluator[T symbol.Value] struct {
	base *ExpressionEvaluator[T]

	once    sync.Once
	initErr error
	slots   []*ExpressionEvaluator[T]

	// idle holds the worker indices not currently lent out by borrow.
	idle chan int
}

// NewThreaded wraps base for a pool of the given number of workers.
func NewThreaded[T symbol.Value](base *ExpressionEvaluator[T], workers int) *ThreadedEvaluator[T] {
	n := max(1, workers)
	t := &ThreadedEvaluator[T]{base: base, slots: make([]*ExpressionEvaluator[T], n), idle: make(chan int, n)}
	for w := range n {
		t.idle <- w
	}
	return t
}

// Init initialises the shared evaluator and creates one clone per worker.
// Calling it again returns the result of the first call.
func (t *ThreadedEvaluator[T]) Init() error { return t.initWith(nil) }

func (t *ThreadedEvaluator[T]) initWith(chain []*initGuard) error {
	t.once.Do(func() {
		if t.initErr = t.base.initWith(chain); t.initErr != nil {
			return
		}
		t.slots[0] = t.base
		for w := 1; w < len(t.slots); w++ {
			t.slots[w] = t.base.clone(t.base.cache.Clone())
		}
	})
	return t.initErr
}

// Workers is the number of worker slots.
func (t *ThreadedEvaluator[T]) Workers() int { return len(t.slots) }

// ForWorker returns the evaluator reserved for worker w.
func (t *ThreadedEvaluator[T]) ForWorker(w int) (*ExpressionEvaluator[T], error) {
	if w < 0 || w >= len(t.slots) {
		return nil, fmt.Errorf("worker index %d out of range [0,%d)", w, len(t.slots))
	}
	if err := t.Init(); err != nil {
		return nil, err
	}
	return t.slots[w], nil
}

// Get evaluates at focus f with the evaluator of worker w.
func (t *ThreadedEvaluator[T]) Get(w int, f symbol.Focus) (T, error) {
	ev, err := t.ForWorker(w)
	if err != nil {
		var zero T
		return zero, err
	}
	return ev.Get(f)
}

// borrow runs fn with the evaluator of an idle worker slot, waiting for one
// when all are in use. Callers that do not know their worker index use it
// instead of Get; the two must not be mixed on one ThreadedEvaluator.
func (t *ThreadedEvaluator[T]) borrow(fn func(*ExpressionEvaluator[T]) (T, error)) (T, error) {
	if err := t.Init(); err != nil {
		var zero T
		return zero, err
	}
	w := <-t.idle
	defer func() { t.idle <- w }()
	return fn(t.slots[w])
}

// Flags returns the flags of the wrapped expression.
func (t *ThreadedEvaluator[T]) Flags() symbol.Flags { return t.base.Flags() }

// DependSymbols returns the dependencies of the wrapped expression.
func (t *ThreadedEvaluator[T]) DependSymbols() []symbol.Symbol { return t.base.DependSymbols() }
