package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/morphocore/internal/process"
)

// RegisterProcess registers the definition of a process kind.
func (r *Registry) RegisterProcess(kind string, def *ProcessDefinition) {
	if _, exists := r.processes[kind]; exists {
		panic(fmt.Sprintf("process kind '%s' already registered", kind))
	}
	slog.Debug("Registering process kind.", "kind", kind)
	r.processes[kind] = def
}

// RegisterStepper registers a stepper for `continuous` blocks declaring the
// given method.
func (r *Registry) RegisterStepper(method string, factory process.StepperFactory) {
	if _, exists := r.steppers[method]; exists {
		panic(fmt.Sprintf("stepper with method '%s' already registered", method))
	}
	slog.Debug("Registering stepper.", "method", method)
	r.steppers[method] = factory
}
