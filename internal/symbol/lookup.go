package symbol

import "fmt"

// FindSymbol looks up name and checks that it provides values of type T.
func FindSymbol[T Value](s *Scope, name string) (Accessor[T], error) {
	sym, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	acc, ok := sym.(Accessor[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q in scope %s is a %s, requested %s",
			ErrTypeMismatch, name, s.Path(), sym.Type(), TypeOf[T]())
	}
	return acc, nil
}

// FindRWSymbol looks up name and checks that it is a writable symbol of type T.
func FindRWSymbol[T Value](s *Scope, name string) (RWAccessor[T], error) {
	acc, err := FindSymbol[T](s, name)
	if err != nil {
		return nil, err
	}
	rw, ok := acc.(RWAccessor[T])
	if !ok || !acc.Flags().Writable {
		return nil, fmt.Errorf("%w: %q in scope %s", ErrNotWritable, name, s.Path())
	}
	return rw, nil
}
