package symbol

import (
	"fmt"
	"sync"

	"github.com/vk/morphocore/internal/vec"
)

// Constant is a global value fixed at construction.
type Constant[T Value] struct {
	Base
	value T
}

// NewConstant returns a constant symbol.
func NewConstant[T Value](name string, value T) *Constant[T] {
	return &Constant[T]{Base: NewBase(name, ""), value: value}
}

func (c *Constant[T]) Type() ValueType         { return TypeOf[T]() }
func (c *Constant[T]) Flags() Flags            { return ConstFlags() }
func (c *Constant[T]) DependSymbols() []Symbol { return nil }
func (c *Constant[T]) Get(Focus) (T, error)    { return c.value, nil }

// Variable is a global, writable value. Writes through SetBuffer become
// visible after ApplyBuffer.
type Variable[T Value] struct {
	Base
	mu       sync.RWMutex
	value    T
	pending  T
	buffered bool
}

// NewVariable returns a global variable initialised to value.
func NewVariable[T Value](name, description string, value T) *Variable[T] {
	return &Variable[T]{Base: NewBase(name, description), value: value}
}

func (v *Variable[T]) Type() ValueType         { return TypeOf[T]() }
func (v *Variable[T]) DependSymbols() []Symbol { return nil }

func (v *Variable[T]) Flags() Flags {
	return Flags{Granularity: Global, SpaceConst: true, Writable: true}
}

func (v *Variable[T]) Get(Focus) (T, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value, nil
}

func (v *Variable[T]) Set(_ Focus, value T) error {
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()
	return nil
}

func (v *Variable[T]) SetBuffer(_ Focus, value T) error {
	v.mu.Lock()
	v.pending = value
	v.buffered = true
	v.mu.Unlock()
	return nil
}

func (v *Variable[T]) ApplyBuffer() {
	v.mu.Lock()
	if v.buffered {
		v.value = v.pending
		v.buffered = false
	}
	v.mu.Unlock()
}

// Property is a writable value held per cell. Cells without an explicit value
// read the initial value.
type Property[T Value] struct {
	Base
	initial T

	mu      sync.RWMutex
	values  map[CellID]T
	pending map[CellID]T
}

// NewProperty returns a per-cell property.
func NewProperty[T Value](name, description string, initial T) *Property[T] {
	return &Property[T]{
		Base:    NewBase(name, description),
		initial: initial,
		values:  make(map[CellID]T),
		pending: make(map[CellID]T),
	}
}

func (p *Property[T]) Type() ValueType         { return TypeOf[T]() }
func (p *Property[T]) DependSymbols() []Symbol { return nil }

func (p *Property[T]) Flags() Flags {
	return Flags{Granularity: Cell, Writable: true}
}

func (p *Property[T]) cell(f Focus) (CellID, error) {
	id, ok := f.Cell()
	if !ok {
		return NoCell, fmt.Errorf("%w: property %q requires a cell, got %s", ErrInvalidFocus, p.Name(), f)
	}
	return id, nil
}

func (p *Property[T]) Get(f Focus) (T, error) {
	id, err := p.cell(f)
	if err != nil {
		var zero T
		return zero, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[id]; ok {
		return v, nil
	}
	return p.initial, nil
}

func (p *Property[T]) Set(f Focus, value T) error {
	id, err := p.cell(f)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.values[id] = value
	p.mu.Unlock()
	return nil
}

func (p *Property[T]) SetBuffer(f Focus, value T) error {
	id, err := p.cell(f)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.pending[id] = value
	p.mu.Unlock()
	return nil
}

func (p *Property[T]) ApplyBuffer() {
	p.mu.Lock()
	for id, v := range p.pending {
		p.values[id] = v
	}
	clear(p.pending)
	p.mu.Unlock()
}

// Snapshot returns a copy of the explicitly set values.
func (p *Property[T]) Snapshot() map[CellID]T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[CellID]T, len(p.values))
	for id, v := range p.values {
		out[id] = v
	}
	return out
}

// TimeName is the name of the implicit global time symbol.
const TimeName = "time"

// TimeSymbol is the implicit global simulation time. It also remembers the
// finest step announced for it during scheduler initialisation.
type TimeSymbol struct {
	Base
	mu      sync.RWMutex
	now     float64
	minStep float64
}

// NewTimeSymbol returns the `time` symbol.
func NewTimeSymbol() *TimeSymbol {
	return &TimeSymbol{Base: NewBase(TimeName, "simulation time"), minStep: -1}
}

func (t *TimeSymbol) Type() ValueType         { return Double }
func (t *TimeSymbol) DependSymbols() []Symbol { return nil }

func (t *TimeSymbol) Flags() Flags {
	return Flags{Granularity: Global, SpaceConst: true}
}

func (t *TimeSymbol) Get(Focus) (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.now, nil
}

// SetTime moves the simulation clock.
func (t *TimeSymbol) SetTime(now float64) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Now returns the simulation clock.
func (t *TimeSymbol) Now() float64 {
	v, _ := t.Get(GlobalFocus())
	return v
}

// UpdateMinStep records dt if it is finer than the steps seen so far.
func (t *TimeSymbol) UpdateMinStep(dt float64) {
	if dt <= 0 {
		return
	}
	t.mu.Lock()
	if t.minStep < 0 || dt < t.minStep {
		t.minStep = dt
	}
	t.mu.Unlock()
}

// MinStep returns the finest announced step, or -1 if none was announced.
func (t *TimeSymbol) MinStep() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minStep
}

// GoFunction is a callable symbol implemented in Go.
type GoFunction struct {
	Base
	params []string
	flags  Flags
	deps   []Symbol
	fn     func(f Focus, args []float64) (float64, error)
}

// NewGoFunction returns a callable symbol. flags describe the result for
// constant arguments; deps lists the symbols fn reads besides its arguments.
func NewGoFunction(name string, params []string, flags Flags, fn func(f Focus, args []float64) (float64, error), deps ...Symbol) *GoFunction {
	return &GoFunction{Base: NewBase(name, ""), params: params, flags: flags, deps: deps, fn: fn}
}

func (g *GoFunction) Type() ValueType         { return Function }
func (g *GoFunction) Flags() Flags            { return g.flags }
func (g *GoFunction) DependSymbols() []Symbol { return g.deps }
func (g *GoFunction) Params() []string        { return g.params }

func (g *GoFunction) Call(f Focus, args []float64) (float64, error) {
	if len(args) != len(g.params) {
		return 0, fmt.Errorf("function %q expects %d arguments, got %d", g.Name(), len(g.params), len(args))
	}
	return g.fn(f, args)
}

// Population is the set of cells living in a scope. It provides the foci of
// that scope.
type Population struct {
	Base
	mu            sync.RWMutex
	cells         []CellID
	centers       map[CellID]vec.Vec3
	membraneNodes int
}

// NewPopulation returns an empty population. Every cell exposes
// membraneNodes membrane foci (at least one).
func NewPopulation(name string, membraneNodes int) *Population {
	return &Population{
		Base:          NewBase(name, "number of cells"),
		centers:       make(map[CellID]vec.Vec3),
		membraneNodes: max(1, membraneNodes),
	}
}

// AddCell inserts a cell located at center.
func (p *Population) AddCell(id CellID, center vec.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.centers[id]; !ok {
		p.cells = append(p.cells, id)
	}
	p.centers[id] = center
}

// Cells returns the cell ids in insertion order.
func (p *Population) Cells() []CellID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]CellID, len(p.cells))
	copy(out, p.cells)
	return out
}

func (p *Population) Type() ValueType         { return Double }
func (p *Population) DependSymbols() []Symbol { return nil }

func (p *Population) Flags() Flags {
	return Flags{Granularity: Global, SpaceConst: true, Integer: true}
}

// Get returns the cell count.
func (p *Population) Get(Focus) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return float64(len(p.cells)), nil
}

// Foci implements FocusRange for the owning scope.
func (p *Population) Foci(g Granularity) []Focus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Focus
	for _, id := range p.cells {
		switch g {
		case Global:
			return []Focus{GlobalFocus()}
		case Cell:
			out = append(out, CellFocus(id))
		case Node:
			out = append(out, CellNodeFocus(id, p.centers[id]))
		case MembraneNode:
			for i := range p.membraneNodes {
				out = append(out, MembraneFocus(id, vec.New(float64(i), 0, 0)))
			}
		}
	}
	return out
}
