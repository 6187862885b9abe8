package process

import (
	"context"
	"errors"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/symbol"
)

// Stepper advances part of the model state continuously, typically by
// integrating differential equations. Morphocore does not integrate itself.
type Stepper interface {
	// Init binds the stepper to the symbols of scope.
	Init(ctx context.Context, el *config.Element, scope *symbol.Scope) error
	Inputs() []symbol.Symbol
	Outputs() []symbol.Symbol
	// Step computes the state at t+dt without publishing it. substep
	// recomputes the reporters that depend on intermediate state and may be
	// called any number of times.
	Step(ctx context.Context, t, dt float64, substep func(context.Context) error) error
	// Commit publishes the state computed by the last Step.
	Commit() error
}

// StepperFactory creates a stepper for a `continuous` block.
type StepperFactory func() Stepper

// ErrNoStepper is returned when a continuous block has no stepper.
var ErrNoStepper = errors.New("no stepper")

// Solver drives an external stepper in phase I.
//
//	continuous "growth" {
//	  method    = "euler"
//	  time_step = 0.1
//	}
type Solver struct {
	Listener
	factory StepperFactory
	stepper Stepper
	el      *config.Element
	sub     SubSteps
}

// NewSolver returns a process factory for steppers made by factory.
func NewSolver(factory StepperFactory) func() Process {
	return func() Process { return &Solver{factory: factory} }
}

func (s *Solver) Category() Category {
	return Continuous{Rank: ContinuousBuffer, SubSteps: &s.sub}
}

func (s *Solver) LoadConfig(el *config.Element, scope *symbol.Scope) error {
	if err := s.Configure(el, scope, StepRequired); err != nil {
		return err
	}
	if s.factory == nil {
		return ErrNoStepper
	}
	s.el = el
	s.stepper = s.factory()
	return nil
}

func (s *Solver) Init(ctx context.Context, rt Runtime) error {
	if err := s.stepper.Init(ctx, s.el, s.scope); err != nil {
		return err
	}
	s.Bind(rt)
	return nil
}

// Stepper returns the wrapped stepper.
func (s *Solver) Stepper() Stepper { return s.stepper }

func (s *Solver) DependSymbols() []symbol.Symbol { return s.stepper.Inputs() }
func (s *Solver) OutputSymbols() []symbol.Symbol { return s.stepper.Outputs() }

func (s *Solver) Prepare(ctx context.Context, dt float64) error {
	return s.stepper.Step(ctx, s.now(), dt, s.sub.Run)
}

func (s *Solver) Execute(context.Context) error { return s.stepper.Commit() }
