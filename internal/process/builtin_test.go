package process

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/symbol"
)

func TestDelayedVariable(t *testing.T) {
	w := newWorld(t)
	p := w.add(t, NewDelay(), element("delay", "signal", map[string]any{"delay": 2.5, "value": 1.0})).(*DelayProcess)
	v := p.Variable()
	assert.True(t, v.Flags().Delayed)
	assert.Equal(t, Continuous{Rank: Delay}, p.Category())

	get := func() float64 {
		x, err := v.Get(symbol.GlobalFocus())
		require.NoError(t, err)
		return x
	}

	require.NoError(t, v.Set(symbol.GlobalFocus(), 5))
	assert.Equal(t, 1.0, get())

	w.rt.clock.SetTime(1)
	require.NoError(t, v.SetBuffer(symbol.GlobalFocus(), 7))
	v.ApplyBuffer()

	w.rt.clock.SetTime(2.5)
	assert.Equal(t, 5.0, get())
	w.rt.clock.SetTime(3.4)
	assert.Equal(t, 5.0, get())
	w.rt.clock.SetTime(3.5)
	assert.Equal(t, 7.0, get())

	w.rt.clock.SetTime(10)
	require.NoError(t, Execute(context.Background(), p))
	assert.Equal(t, 1, v.Pending())
	assert.Equal(t, 7.0, get())
}

func TestDelayNeedsPositiveDelay(t *testing.T) {
	w := newWorld(t)
	err := NewDelay().LoadConfig(element("delay", "signal", map[string]any{"delay": 0.0}), w.root)
	assert.ErrorContains(t, err, "positive")
	err = NewDelay().LoadConfig(element("delay", "", map[string]any{"delay": 1.0}), w.root)
	assert.ErrorContains(t, err, "label")
}

// fakeStepper grows `mass` by volume*dt and runs the sub-step hooks twice.
type fakeStepper struct {
	volume   symbol.Accessor[float64]
	mass     *symbol.Property[float64]
	scope    *symbol.Scope
	substeps int
	next     map[symbol.CellID]float64
}

func (s *fakeStepper) Init(_ context.Context, _ *config.Element, scope *symbol.Scope) error {
	var err error
	s.scope = scope
	if s.volume, err = symbol.FindSymbol[float64](scope, "volume"); err != nil {
		return err
	}
	sym, err := scope.Lookup("mass")
	if err != nil {
		return err
	}
	s.mass = sym.(*symbol.Property[float64])
	return nil
}

func (s *fakeStepper) Inputs() []symbol.Symbol  { return []symbol.Symbol{s.volume} }
func (s *fakeStepper) Outputs() []symbol.Symbol { return []symbol.Symbol{s.mass} }

func (s *fakeStepper) Step(ctx context.Context, _, dt float64, substep func(context.Context) error) error {
	s.next = make(map[symbol.CellID]float64)
	for _, f := range s.scope.Foci(symbol.Cell) {
		id, _ := f.Cell()
		v, _ := s.volume.Get(f)
		m, _ := s.mass.Get(f)
		s.next[id] = m + v*dt
	}
	for range 2 {
		if err := substep(ctx); err != nil {
			return err
		}
		s.substeps++
	}
	return nil
}

func (s *fakeStepper) Commit() error {
	for id, m := range s.next {
		if err := s.mass.Set(symbol.CellFocus(id), m); err != nil {
			return err
		}
	}
	return nil
}

func TestSolverDrivesStepper(t *testing.T) {
	w := newWorld(t)
	mass := symbol.NewProperty("mass", "", 0.0)
	double := symbol.NewProperty("double", "", 0.0)
	require.NoError(t, w.root.RegisterSymbol(mass))
	require.NoError(t, w.root.RegisterSymbol(double))

	stepper := &fakeStepper{}
	s := w.add(t, NewSolver(func() Stepper { return stepper })(), element("continuous", "growth", map[string]any{"time_step": 0.5}))
	eq := w.add(t, NewEquation(), element("equation", "", map[string]any{"symbol_ref": "double", "expression": "2 * volume"}))

	cat, ok := s.Category().(Continuous)
	require.True(t, ok)
	assert.Equal(t, ContinuousBuffer, cat.Rank)
	cat.SubSteps.Add(eq)
	cat.SubSteps.Add(eq)
	assert.Len(t, cat.SubSteps.Hooks(), 1)

	require.NoError(t, Run(context.Background(), s))
	assert.Equal(t, []float64{0.5, 1, 1.5}, w.volumes(t, mass))
	assert.Equal(t, []float64{2, 4, 6}, w.volumes(t, double))
	assert.Equal(t, 2, stepper.substeps)
	assert.Equal(t, 0.5, s.CurrentTime())
}

func TestSolverWithoutFactory(t *testing.T) {
	w := newWorld(t)
	err := NewSolver(nil)().LoadConfig(element("continuous", "", map[string]any{"time_step": 1.0}), w.root)
	assert.ErrorIs(t, err, ErrNoStepper)
}

func TestLoggerWritesRows(t *testing.T) {
	w := newWorld(t)
	var buf bytes.Buffer
	l := &Logger{Output: &buf}
	w.add(t, l, element("logger", "", map[string]any{"columns": []string{"cells", "time*2"}, "time_step": 1.0}))

	require.NoError(t, Run(context.Background(), l))
	w.rt.clock.SetTime(1)
	require.NoError(t, Run(context.Background(), l))
	require.NoError(t, l.Finish(context.Background()))

	assert.Equal(t, "time,cells,time*2\n0,3,0\n1,3,2\n", buf.String())
	assert.Equal(t, Finished, l.State())
}

func TestLoggerFile(t *testing.T) {
	w := newWorld(t)
	path := filepath.Join(t.TempDir(), "out.csv")
	l := w.add(t, NewLogger(), element("logger", "", map[string]any{"columns": []string{"cells"}, "file": path}))

	w.rt.clock.SetTime(10)
	require.NoError(t, Run(context.Background(), l))
	require.NoError(t, l.Finish(context.Background()))
	require.NoError(t, l.Finish(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "time,cells\n10,3\n", string(data))
}

func TestLoggerRejectsLocalColumns(t *testing.T) {
	w := newWorld(t)
	l := &Logger{Output: &discard{}}
	require.NoError(t, l.LoadConfig(element("logger", "", map[string]any{"columns": []string{"volume"}}), w.root))
	assert.ErrorIs(t, l.Init(context.Background(), w.rt), symbol.ErrTypeMismatch)
}
