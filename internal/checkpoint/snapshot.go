package checkpoint

import (
	"fmt"

	"github.com/vk/morphocore/internal/symbol"
	"github.com/vk/morphocore/internal/vec"
)

// Snapshot is the persisted state of a scope tree at one point in time.
type Snapshot struct {
	RunID  string          `msgpack:"run_id"`
	Time   float64         `msgpack:"time"`
	Scopes []ScopeSnapshot `msgpack:"scopes"`
}

// ScopeSnapshot holds the values of the symbols of one scope.
type ScopeSnapshot struct {
	Path    string           `msgpack:"path"`
	Symbols []SymbolSnapshot `msgpack:"symbols"`
}

// SymbolSnapshot holds one symbol. Components has one entry for a double and
// three for a vector; Cells is set for per-cell symbols instead.
type SymbolSnapshot struct {
	Name       string              `msgpack:"name"`
	Type       string              `msgpack:"type"`
	Components []float64           `msgpack:"components,omitempty"`
	Cells      map[int64][]float64 `msgpack:"cells,omitempty"`
}

// Lookup returns the snapshot of a symbol by scope path and name.
func (s *Snapshot) Lookup(path, name string) (SymbolSnapshot, bool) {
	for _, sc := range s.Scopes {
		if sc.Path != path {
			continue
		}
		for _, sym := range sc.Symbols {
			if sym.Name == name {
				return sym, true
			}
		}
	}
	return SymbolSnapshot{}, false
}

type cellValues[T symbol.Value] interface {
	Snapshot() map[symbol.CellID]T
}

func components[T symbol.Value](v T) []float64 {
	switch v := any(v).(type) {
	case float64:
		return []float64{v}
	case vec.Vec3:
		return []float64{v.X, v.Y, v.Z}
	}
	return nil
}

func fromComponents[T symbol.Value](c []float64) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *float64:
		if len(c) != 1 {
			return out, fmt.Errorf("expected 1 component, got %d", len(c))
		}
		*p = c[0]
	case *vec.Vec3:
		if len(c) != 3 {
			return out, fmt.Errorf("expected 3 components, got %d", len(c))
		}
		*p = vec.FromSlice(c)
	}
	return out, nil
}

// captured reports whether sym is part of a snapshot. Delayed symbols keep
// a history that a single value cannot restore.
func captured(sym symbol.Symbol) bool {
	f := sym.Flags()
	return f.Writable && !f.Delayed && sym.Type() != symbol.Function
}

// Capture records the writable symbols of the tree rooted at root.
func Capture(runID string, t float64, root *symbol.Scope) (*Snapshot, error) {
	snap := &Snapshot{RunID: runID, Time: t}
	err := root.Walk(func(s *symbol.Scope) error {
		sc := ScopeSnapshot{Path: s.Path().String()}
		for _, sym := range s.LocalSymbols() {
			if !captured(sym) {
				continue
			}
			var (
				ss  SymbolSnapshot
				err error
			)
			if sym.Type() == symbol.Vector {
				ss, err = captureSymbol[vec.Vec3](sym)
			} else {
				ss, err = captureSymbol[float64](sym)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", symbol.QualifiedName(sym), err)
			}
			sc.Symbols = append(sc.Symbols, ss)
		}
		if len(sc.Symbols) > 0 {
			snap.Scopes = append(snap.Scopes, sc)
		}
		return nil
	})
	return snap, err
}

func captureSymbol[T symbol.Value](sym symbol.Symbol) (SymbolSnapshot, error) {
	ss := SymbolSnapshot{Name: sym.Name(), Type: sym.Type().String()}
	if cv, ok := sym.(cellValues[T]); ok {
		ss.Cells = make(map[int64][]float64)
		for id, v := range cv.Snapshot() {
			ss.Cells[int64(id)] = components(v)
		}
		return ss, nil
	}
	acc, ok := sym.(symbol.Accessor[T])
	if !ok {
		return ss, fmt.Errorf("%w: cannot read %s", symbol.ErrTypeMismatch, sym.Type())
	}
	v, err := acc.Get(symbol.GlobalFocus())
	if err != nil {
		return ss, err
	}
	ss.Components = components(v)
	return ss, nil
}

// Restore writes the values of snap back into the tree rooted at root.
// Symbols missing from the tree are an error; symbols missing from the
// snapshot keep their current value.
func Restore(snap *Snapshot, root *symbol.Scope) error {
	byPath := make(map[string]*symbol.Scope)
	_ = root.Walk(func(s *symbol.Scope) error {
		byPath[s.Path().String()] = s
		return nil
	})
	for _, sc := range snap.Scopes {
		scope, ok := byPath[sc.Path]
		if !ok {
			return fmt.Errorf("checkpoint scope %s does not exist", sc.Path)
		}
		for _, ss := range sc.Symbols {
			var err error
			if ss.Type == symbol.Vector.String() {
				err = restoreSymbol[vec.Vec3](scope, ss)
			} else {
				err = restoreSymbol[float64](scope, ss)
			}
			if err != nil {
				return fmt.Errorf("restore %s.%s: %w", sc.Path, ss.Name, err)
			}
		}
	}
	return nil
}

func restoreSymbol[T symbol.Value](scope *symbol.Scope, ss SymbolSnapshot) error {
	acc, err := symbol.FindRWSymbol[T](scope, ss.Name)
	if err != nil {
		return err
	}
	if ss.Cells == nil {
		v, err := fromComponents[T](ss.Components)
		if err != nil {
			return err
		}
		return acc.Set(symbol.GlobalFocus(), v)
	}
	for id, c := range ss.Cells {
		v, err := fromComponents[T](c)
		if err != nil {
			return err
		}
		if err := acc.Set(symbol.CellFocus(symbol.CellID(id)), v); err != nil {
			return err
		}
	}
	return nil
}
