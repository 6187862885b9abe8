package process

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/evaluator"
	"github.com/vk/morphocore/internal/symbol"
)

// Mapping reduces per-focus values into a single value.
type Mapping string

const (
	MapSum     Mapping = "sum"
	MapAverage Mapping = "average"
	MapMin     Mapping = "min"
	MapMax     Mapping = "max"
)

func (m Mapping) reduce(vs []float64) (float64, error) {
	if len(vs) == 0 {
		if m == MapSum {
			return 0, nil
		}
		return math.NaN(), nil
	}
	acc := vs[0]
	switch m {
	case MapSum, MapAverage:
		for _, v := range vs[1:] {
			acc += v
		}
		if m == MapAverage {
			acc /= float64(len(vs))
		}
	case MapMin:
		for _, v := range vs[1:] {
			acc = math.Min(acc, v)
		}
	case MapMax:
		for _, v := range vs[1:] {
			acc = math.Max(acc, v)
		}
	default:
		return 0, fmt.Errorf("unknown mapping %q", string(m))
	}
	return acc, nil
}

// ReporterProcess writes an expression into a symbol, optionally reducing
// it over all foci of the scope. With allow_partial, foci at which the input
// is not defined read as zero.
//
//	reporter "mean_volume" {
//	  input   = "volume"
//	  output  = "mean_v"
//	  mapping = "average"
//	}
type ReporterProcess struct {
	Listener
	input   string
	output  string
	mapping Mapping
	partial bool

	assign  assignment
	eval    *evaluator.ThreadedEvaluator[float64]
	target  symbol.RWAccessor[float64]
	values  []float64
	pending float64
}

// NewReporter returns an unconfigured reporter.
func NewReporter() Process { return &ReporterProcess{} }

func (r *ReporterProcess) Category() Category { return Reporter{} }

func (r *ReporterProcess) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := r.Configure(el, scope, StepOptional); err != nil {
		return err
	}
	r.markReporter()
	var err error
	if r.input, err = el.RequireString("input"); err != nil {
		return err
	}
	if r.output, err = el.RequireString("output"); err != nil {
		return err
	}
	m, _, err := el.String("mapping")
	if err != nil {
		return err
	}
	r.mapping = Mapping(m)
	r.partial, _, err = el.Bool("allow_partial")
	return err
}

func (r *ReporterProcess) Init(_ context.Context, rt Runtime) error {
	workers := rt.Pool().Workers()
	if r.mapping == "" {
		a, err := newAssignment(r.scope, r.output, r.input)
		if err != nil {
			return err
		}
		if err := a.Init(workers); err != nil {
			return err
		}
		r.assign = a
		r.Bind(rt)
		return nil
	}

	if _, err := r.mapping.reduce([]float64{0}); err != nil {
		return err
	}
	target, err := symbol.FindRWSymbol[float64](r.scope, r.output)
	if err != nil {
		return err
	}
	var opts []evaluator.Option
	if r.partial {
		opts = append(opts, evaluator.AllowPartialSpec())
	}
	ev, err := evaluator.New[float64](r.input, r.scope, opts...)
	if err != nil {
		return err
	}
	r.eval = evaluator.NewThreaded(ev, workers)
	if err := r.eval.Init(); err != nil {
		return err
	}
	r.target = target
	r.Bind(rt)
	return nil
}

func (r *ReporterProcess) DependSymbols() []symbol.Symbol {
	if r.assign != nil {
		return r.assign.Inputs()
	}
	return r.eval.DependSymbols()
}

func (r *ReporterProcess) OutputSymbols() []symbol.Symbol {
	if r.assign != nil {
		return []symbol.Symbol{r.assign.Target()}
	}
	return []symbol.Symbol{r.target}
}

func (r *ReporterProcess) Prepare(ctx context.Context, _ float64) error {
	pool := r.rt.Pool()
	if r.assign != nil {
		return computeAll(ctx, pool, r.scope, r.assign, true)
	}
	foci := r.scope.Foci(r.eval.Flags().Granularity)
	r.values = make([]float64, len(foci))
	index := make(map[symbol.Focus]int, len(foci))
	for i, f := range foci {
		index[f] = i
	}
	err := pool.ForEach(ctx, foci, func(w int, f symbol.Focus) error {
		v, err := r.eval.Get(w, f)
		if err != nil {
			return err
		}
		r.values[index[f]] = v
		return nil
	})
	if err != nil {
		return err
	}
	r.pending, err = r.mapping.reduce(r.values)
	return err
}

func (r *ReporterProcess) Execute(context.Context) error {
	if r.assign != nil {
		r.assign.Apply()
		return nil
	}
	return r.target.Set(symbol.GlobalFocus(), r.pending)
}
