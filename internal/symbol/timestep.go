package symbol

import "slices"

// TimeStepListener is the side of a process that takes part in time-step
// negotiation through the symbols it reads and writes.
type TimeStepListener interface {
	Name() string
	// UpdateSourceTS announces the step at which an upstream producer writes.
	UpdateSourceTS(dt float64)
	// UpdateSinkTS announces the step at which a downstream consumer reads.
	UpdateSinkTS(dt float64)
}

// owner returns the scope defining name, falling back to s.
func (s *Scope) owner(name string) *Scope {
	for cur := s; cur != nil; cur = cur.Parent() {
		if _, ok := cur.symbols[name]; ok {
			return cur
		}
	}
	return s
}

// RegisterSymbolReader records that l reads the symbol name.
func (s *Scope) RegisterSymbolReader(l TimeStepListener, name string) {
	o := s.owner(name)
	if !slices.Contains(o.readers[name], l) {
		o.readers[name] = append(o.readers[name], l)
	}
}

// RegisterSymbolWriter records that l writes the symbol name.
func (s *Scope) RegisterSymbolWriter(l TimeStepListener, name string) {
	o := s.owner(name)
	if !slices.Contains(o.writers[name], l) {
		o.writers[name] = append(o.writers[name], l)
	}
}

// Readers returns the listeners registered as readers of name.
func (s *Scope) Readers(name string) []TimeStepListener {
	return slices.Clone(s.owner(name).readers[name])
}

// Writers returns the listeners registered as writers of name.
func (s *Scope) Writers(name string) []TimeStepListener {
	return slices.Clone(s.owner(name).writers[name])
}

// PropagateSourceTimeStep announces that name is written every dt. All
// readers of the symbol are notified.
func (s *Scope) PropagateSourceTimeStep(name string, dt float64) {
	for _, l := range s.Readers(name) {
		l.UpdateSourceTS(dt)
	}
}

// PropagateSinkTimeStep announces that name is read every dt. All writers of
// the symbol are notified.
func (s *Scope) PropagateSinkTimeStep(name string, dt float64) {
	for _, l := range s.Writers(name) {
		l.UpdateSinkTS(dt)
	}
}
