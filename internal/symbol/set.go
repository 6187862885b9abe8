package symbol

// Set is an insertion-ordered set of symbols. The zero value is an empty set.
type Set struct {
	items []Symbol
	index map[Symbol]struct{}
}

// NewSet returns a set holding the given symbols.
func NewSet(syms ...Symbol) *Set {
	s := &Set{}
	s.AddAll(syms...)
	return s
}

// Add inserts sym and reports whether it was not present before.
func (s *Set) Add(sym Symbol) bool {
	if s.index == nil {
		s.index = make(map[Symbol]struct{})
	}
	if _, ok := s.index[sym]; ok {
		return false
	}
	s.index[sym] = struct{}{}
	s.items = append(s.items, sym)
	return true
}

// AddAll inserts every symbol.
func (s *Set) AddAll(syms ...Symbol) {
	for _, sym := range syms {
		s.Add(sym)
	}
}

// Contains reports membership.
func (s *Set) Contains(sym Symbol) bool {
	_, ok := s.index[sym]
	return ok
}

// Len is the number of symbols in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the members in insertion order.
func (s *Set) Items() []Symbol {
	out := make([]Symbol, len(s.items))
	copy(out, s.items)
	return out
}

// Names returns the member names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.items))
	for i, sym := range s.items {
		out[i] = sym.Name()
	}
	return out
}

// Intersects reports whether any symbol of other is also in s.
func (s *Set) Intersects(other []Symbol) bool {
	for _, sym := range other {
		if s.Contains(sym) {
			return true
		}
	}
	return false
}
