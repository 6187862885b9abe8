package scheduler

import (
	"fmt"
	"strings"

	"github.com/vk/morphocore/internal/process"
	"github.com/vk/morphocore/internal/symbol"
)

// entry is one slot of the phase II order. A duplicate re-runs a reporter
// ahead of its regular slot without moving its valid time.
type entry struct {
	p         process.Process
	duplicate bool
}

// orderer computes the phase II order.
type orderer struct {
	todo         []process.Process
	scheduled    map[process.Process]bool
	order        []entry
	relaxDelayed bool
	duplications int
}

// fallbackStrategy tries to unblock the ordering. It reports whether it
// changed anything.
type fallbackStrategy struct {
	name  string
	apply func(o *orderer) bool
	used  bool
}

func defaultStrategies() []*fallbackStrategy {
	return []*fallbackStrategy{
		{name: "duplicate reporter", apply: (*orderer).duplicateReporter},
		{name: "relax delayed inputs", apply: (*orderer).relax},
	}
}

func newOrderer(procs []process.Process) *orderer {
	o := &orderer{todo: procs, scheduled: make(map[process.Process]bool, len(procs))}
	for _, p := range procs {
		_, out := process.ListenerOf(p).Links()
		for _, s := range out {
			if sc := s.Scope(); sc != nil {
				sc.MarkUnresolved(s.Name())
			}
		}
	}
	return o
}

func unresolved(s symbol.Symbol) bool {
	sc := s.Scope()
	return sc != nil && sc.IsUnresolved(s.Name())
}

func (o *orderer) ready(p process.Process) bool {
	in, out := process.ListenerOf(p).Links()
	own := symbol.NewSet(out...)
	for _, s := range in {
		if own.Contains(s) {
			continue
		}
		if o.relaxDelayed && s.Flags().Delayed {
			continue
		}
		if unresolved(s) {
			return false
		}
	}
	return true
}

func (o *orderer) resolve(p process.Process) {
	_, out := process.ListenerOf(p).Links()
	for _, s := range out {
		if sc := s.Scope(); sc != nil {
			sc.Resolve(s.Name())
		}
	}
}

// next returns the first ready unscheduled process in declaration order.
func (o *orderer) next() process.Process {
	for _, p := range o.todo {
		if !o.scheduled[p] && o.ready(p) {
			return p
		}
	}
	return nil
}

func (o *orderer) pending() []process.Process {
	var out []process.Process
	for _, p := range o.todo {
		if !o.scheduled[p] {
			out = append(out, p)
		}
	}
	return out
}

// duplicateReporter schedules an early copy of the first unscheduled
// reporter whose outputs are still unresolved. The reporter stays in the
// todo list and gets its regular slot later.
func (o *orderer) duplicateReporter() bool {
	for _, p := range o.pending() {
		if _, ok := p.Category().(process.Reporter); !ok {
			continue
		}
		_, out := process.ListenerOf(p).Links()
		for _, s := range out {
			if unresolved(s) {
				o.order = append(o.order, entry{p: p, duplicate: true})
				o.resolve(p)
				o.duplications++
				return true
			}
		}
	}
	return false
}

func (o *orderer) relax() bool {
	o.relaxDelayed = true
	return o.next() != nil
}

// run orders every process of the todo list.
func (o *orderer) run(strategies []*fallbackStrategy) error {
	for {
		if p := o.next(); p != nil {
			o.scheduled[p] = true
			o.order = append(o.order, entry{p: p})
			o.resolve(p)
			continue
		}
		rest := o.pending()
		if len(rest) == 0 {
			return nil
		}
		progressed := false
		for _, st := range strategies {
			if st.used {
				continue
			}
			st.used = true
			if st.apply(o) {
				progressed = true
				break
			}
		}
		if !progressed {
			names := make([]string, len(rest))
			for i, p := range rest {
				l := process.ListenerOf(p)
				names[i] = fmt.Sprintf("%s (%s)", l.Name(), l.Location())
			}
			return fmt.Errorf("%w: cannot order %s", ErrCyclicDependency, strings.Join(names, ", "))
		}
	}
}
