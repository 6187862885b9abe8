package symbol

import "errors"

var (
	// ErrUndefined is returned when a name is not visible from a scope.
	ErrUndefined = errors.New("undefined symbol")
	// ErrTypeMismatch is returned when a symbol exists but holds another value type.
	ErrTypeMismatch = errors.New("symbol type mismatch")
	// ErrNotWritable is returned when write access is requested on a read-only symbol.
	ErrNotWritable = errors.New("symbol is not writable")
	// ErrDuplicateSymbol is returned when a name is registered twice in one scope.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	// ErrInvalidFocus is returned when a symbol cannot be resolved at the given focus.
	ErrInvalidFocus = errors.New("symbol not defined at focus")
)
