// Package symbol implements the scope registry and the symbol model of the
// simulation core.
//
// # Scopes
//
// Scopes form a hierarchy (Global -> sub-scopes such as cell types). They are
// stored in a Registry arena and refer to each other by ScopeID, so a scope
// holds the index of its parent and the indices of its children instead of
// pointers in both directions. A name is unique within one scope; lookups
// fall back to the ancestors unless the name is shadowed.
//
// # Symbols
//
// A Symbol is a named, typed quantity (constant, global variable, per-cell
// property, derived function, the implicit `time`). Value access goes through
// the generic Accessor / RWAccessor interfaces, obtained with FindSymbol and
// FindRWSymbol which check the value type and writability.
//
// # Time-step propagation
//
// Processes register as readers and writers of the leaf symbols they use on
// the scope owning each symbol. PropagateSourceTimeStep and
// PropagateSinkTimeStep then forward announced step sizes to the processes on
// the other side of a symbol.
//
// # Thread-Safety
//
// Scopes and flags are only mutated while the model is being built and
// initialised, from a single goroutine. Value reads of the base symbols are
// safe for concurrent use; buffered writes are guarded internally.
package symbol
