package registry

import (
	"maps"
	"slices"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/process"
)

// Module is the interface that all process modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Attribute declares one attribute of a process block.
type Attribute struct {
	Type     cty.Type
	Required bool
}

// ProcessDefinition describes a process kind.
type ProcessDefinition struct {
	New        func(el *config.Element) (process.Process, error)
	Attributes map[string]Attribute
	// Blocks lists the child block kinds the process accepts.
	Blocks []string
	// Open accepts attributes not listed in Attributes. Used by kinds whose
	// attributes depend on a plug-in.
	Open bool
}

// Registry holds all the registered process kinds and steppers for a single
// application instance.
type Registry struct {
	processes map[string]*ProcessDefinition
	steppers  map[string]process.StepperFactory
}

// New creates and initializes a new Registry instance.
func New(modules ...Module) *Registry {
	r := &Registry{
		processes: make(map[string]*ProcessDefinition),
		steppers:  make(map[string]process.StepperFactory),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Process returns the definition registered for kind.
func (r *Registry) Process(kind string) (*ProcessDefinition, bool) {
	def, ok := r.processes[kind]
	return def, ok
}

// Stepper returns the stepper factory registered for method.
func (r *Registry) Stepper(method string) (process.StepperFactory, bool) {
	f, ok := r.steppers[method]
	return f, ok
}

// Kinds returns the registered process kinds in sorted order.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.processes))
}

// Methods returns the registered stepper methods in sorted order.
func (r *Registry) Methods() []string {
	return slices.Sorted(maps.Keys(r.steppers))
}
