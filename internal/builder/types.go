package builder

import (
	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/symbol"
)

// Simulation is the primary artifact of the builder.
type Simulation struct {
	Registry *symbol.Registry
	Root     *symbol.Scope
	// Processes in declaration order.
	Processes []process.Process

	StartTime          float64
	StopTime           float64
	StopCondition      string
	CheckpointInterval float64
}

// Block kinds handled by the builder itself. Everything else is a process.
const (
	kindTime       = "time"
	kindScope      = "scope"
	kindConstant   = "constant"
	kindVariable   = "variable"
	kindProperty   = "property"
	kindFunction   = "function"
	kindDerived    = "derived"
	kindPopulation = "population"
)

// initializer is implemented by symbols whose definition is checked after
// the whole model has been declared.
type initializer interface {
	symbol.Symbol
	Init() error
}
