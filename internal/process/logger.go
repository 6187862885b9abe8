package process

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/symbol"
)

// Logger writes a CSV table of global expressions, one row per execution.
// A missing time_step logs only at the stop time.
//
//	logger "state" {
//	  file      = "state.csv"
//	  columns   = ["cells", "mean_v"]
//	  time_step = 10
//	}
type Logger struct {
	Listener
	path    string
	columns []string

	// Output overrides the file, used when the model declares no file.
	Output io.Writer

	evals  []*evaluator.ThreadedEvaluator[float64]
	file   *os.File
	w      *csv.Writer
	row    []string
	closed bool
}

// NewLogger returns an unconfigured logger.
func NewLogger() Process { return &Logger{} }

func (l *Logger) Category() Category { return Analysis{} }

func (l *Logger) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := l.Configure(el, scope, StepOptional); err != nil {
		return err
	}
	if !el.Has(TimeStepAttr) {
		l.adjustable = false
		l.timeStep = 0
	}
	var err error
	if l.path, _, err = el.String("file"); err != nil {
		return err
	}
	cols, ok, err := el.StringList("columns")
	if err != nil {
		return err
	}
	if !ok || len(cols) == 0 {
		return fmt.Errorf("%s: logger needs `columns`", el.Location())
	}
	l.columns = cols
	return nil
}

func (l *Logger) Init(_ context.Context, rt Runtime) error {
	for _, c := range l.columns {
		ev, err := evaluator.New[float64](c, l.scope)
		if err != nil {
			return fmt.Errorf("column %q: %w", c, err)
		}
		th := evaluator.NewThreaded(ev, 1)
		if err := th.Init(); err != nil {
			return fmt.Errorf("column %q: %w", c, err)
		}
		if g := th.Flags().Granularity; g != symbol.Global {
			return fmt.Errorf("%w: column %q varies per %s", symbol.ErrTypeMismatch, c, g)
		}
		l.evals = append(l.evals, th)
	}

	out := l.Output
	if l.path != "" && l.path != "-" {
		f, err := os.Create(l.path)
		if err != nil {
			return err
		}
		l.file = f
		out = f
	}
	if out == nil {
		out = os.Stdout
	}
	l.w = csv.NewWriter(out)
	if err := l.w.Write(append([]string{symbol.TimeName}, l.columns...)); err != nil {
		return err
	}
	l.Bind(rt)
	return nil
}

func (l *Logger) DependSymbols() []symbol.Symbol {
	var set symbol.Set
	for _, e := range l.evals {
		set.AddAll(e.DependSymbols()...)
	}
	return set.Items()
}

func (l *Logger) OutputSymbols() []symbol.Symbol { return nil }

func (l *Logger) Prepare(context.Context, float64) error {
	l.row = append(l.row[:0], strconv.FormatFloat(l.now(), 'g', -1, 64))
	for _, e := range l.evals {
		v, err := e.Get(0, symbol.GlobalFocus())
		if err != nil {
			return err
		}
		l.row = append(l.row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return nil
}

func (l *Logger) Execute(context.Context) error {
	if err := l.w.Write(l.row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Finish flushes the table and closes the file.
func (l *Logger) Finish(ctx context.Context) error {
	if l.closed || l.w == nil {
		return l.Listener.Finish(ctx)
	}
	l.closed = true
	l.w.Flush()
	err := l.w.Error()
	if l.file != nil {
		if cerr := l.file.Close(); err == nil {
			err = cerr
		}
	}
	if ferr := l.Listener.Finish(ctx); err == nil {
		err = ferr
	}
	return err
}
