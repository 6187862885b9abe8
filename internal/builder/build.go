package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/morphocore/internal/config"
	"github.com/vk/morphocore/internal/ctxlog"
	"github.com/vk/morphocore/internal/registry"
	"github.com/vk/morphocore/internal/symbol"
)

// RootScopeName is the name of the outermost scope.
const RootScopeName = "Global"

type builder struct {
	reg      *registry.Registry
	sim      *Simulation
	deferred []initializer
	nextCell symbol.CellID
}

// Build constructs a Simulation from a config model.
func Build(ctx context.Context, model *config.Model, r *registry.Registry) (*Simulation, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting simulation construction.")

	symbols := symbol.NewRegistry(RootScopeName)
	b := &builder{
		reg: r,
		sim: &Simulation{Registry: symbols, Root: symbols.Root()},
	}
	if err := b.sim.Root.RegisterSymbol(symbol.NewTimeSymbol()); err != nil {
		return nil, err
	}

	// First pass: the simulated interval.
	if err := b.readTime(model.Root); err != nil {
		return nil, err
	}
	logger.Debug("Build: Time settings read.", "start", b.sim.StartTime, "stop", b.sim.StopTime)

	// Second pass: scopes, symbols and processes.
	if err := b.declare(ctx, model.Root, b.sim.Root); err != nil {
		return nil, err
	}
	logger.Debug("Build: Declarations complete.", "scopes", symbols.Len(), "processes", len(b.sim.Processes))

	// Final validation: every deferred definition must resolve.
	var errs []error
	for _, d := range b.deferred {
		if err := d.Init(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", symbol.QualifiedName(d), err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	logger.Debug("Build: Definitions validated.", "count", len(b.deferred))

	logger.Info("Build: Simulation construction successful.", "processes", len(b.sim.Processes))
	return b.sim, nil
}

func (b *builder) readTime(root *config.Element) error {
	blocks := root.ChildrenOf(kindTime)
	switch len(blocks) {
	case 0:
		return fmt.Errorf("model has no %q block", kindTime)
	case 1:
	default:
		return fmt.Errorf("%s: duplicate %q block", blocks[1].Location(), kindTime)
	}
	el := blocks[0]

	var err error
	if b.sim.StartTime, err = el.FloatOr("start", 0); err != nil {
		return err
	}
	stop, ok, err := el.Float("stop")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: time needs a `stop`", el.Location())
	}
	if stop < b.sim.StartTime {
		return fmt.Errorf("%s: stop %g is before start %g", el.Location(), stop, b.sim.StartTime)
	}
	b.sim.StopTime = stop
	if b.sim.StopCondition, _, err = el.String("stop_condition"); err != nil {
		return err
	}
	b.sim.CheckpointInterval, err = el.FloatOr("checkpoint_interval", 0)
	return err
}

// declare visits the children of el in order and populates scope.
func (b *builder) declare(ctx context.Context, el *config.Element, scope *symbol.Scope) error {
	logger := ctxlog.FromContext(ctx)
	for _, child := range el.Children {
		var err error
		switch child.Kind {
		case kindTime:
			if scope != b.sim.Root {
				err = fmt.Errorf("%s: %q is only allowed at the top level", child.Location(), kindTime)
			}
		case kindScope:
			err = b.declareScope(ctx, child, scope)
		case kindConstant, kindVariable, kindProperty, kindDerived:
			err = b.declareValue(child, scope)
		case kindFunction:
			err = b.declareFunction(child, scope)
		case kindPopulation:
			err = b.declarePopulation(child, scope)
		default:
			err = b.declareProcess(ctx, child, scope)
		}
		if err != nil {
			return err
		}
		logger.Debug("Build: Declared block.", "block", child.Name(), "scope", scope.Path().String())
	}
	return nil
}

func (b *builder) declareScope(ctx context.Context, el *config.Element, parent *symbol.Scope) error {
	if el.Label == "" {
		return fmt.Errorf("%s: scope needs a name", el.Location())
	}
	return b.declare(ctx, el, parent.CreateSubScope(el.Label))
}

func (b *builder) declareProcess(ctx context.Context, el *config.Element, scope *symbol.Scope) error {
	p, err := b.reg.Instantiate(ctx, el)
	if err != nil {
		return err
	}
	if err := p.LoadConfig(el, scope); err != nil {
		return fmt.Errorf("%s: %w", el.Location(), err)
	}
	b.sim.Processes = append(b.sim.Processes, p)
	return nil
}
