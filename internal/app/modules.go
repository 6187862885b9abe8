package app

import (
	"github.com/vk/morphocore/internal/registry"
)

// coreModules is the definitive list of all modules that are compiled into
// the morphocore binary. Stepper methods for continuous processes are
// contributed by embedding programs through New.
var coreModules = []registry.Module{
	registry.Builtins{},
}
