package process

import "context"

// Rank orders continuous processes within phase I.
type Rank int

const (
	Sampler Rank = iota
	Delay
	ContinuousBuffer
	IndependentPostHoc
)

func (r Rank) String() string {
	switch r {
	case Sampler:
		return "sampler"
	case Delay:
		return "delay"
	case ContinuousBuffer:
		return "continuous-buffer"
	case IndependentPostHoc:
		return "independent-post-hoc"
	}
	return "unknown"
}

// Category classifies a process for scheduling. The set of variants is
// closed: Continuous, Instantaneous, Reporter and Analysis.
type Category interface {
	// Phase returns the scheduling phase, 1 to 3.
	Phase() int
	isCategory()
}

// Continuous processes advance in time on their own (phase I).
type Continuous struct {
	Rank Rank
	// SubSteps holds the reporters re-evaluated within a step, may be nil
	// for processes that do not support sub-stepping.
	SubSteps *SubSteps
}

// Instantaneous processes apply rules at discrete times (phase II).
type Instantaneous struct{}

// Reporter processes compute symbols from other symbols (phase II). They may
// be scheduled twice to break dependency cycles.
type Reporter struct {
	// SubStep marks equation-like reporters that continuous processes may
	// re-evaluate in the middle of a step.
	SubStep bool
}

// Analysis processes observe the state periodically or at the end (phase III).
type Analysis struct{}

func (Continuous) Phase() int    { return 1 }
func (Instantaneous) Phase() int { return 2 }
func (Reporter) Phase() int      { return 2 }
func (Analysis) Phase() int      { return 3 }

func (Continuous) isCategory()    {}
func (Instantaneous) isCategory() {}
func (Reporter) isCategory()      {}
func (Analysis) isCategory()      {}

// SubSteps is the list of reporters a continuous process re-evaluates
// between its own prepare and execute.
type SubSteps struct {
	hooks []Process
}

// Add appends p unless it is already present.
func (s *SubSteps) Add(p Process) {
	for _, h := range s.hooks {
		if h == p {
			return
		}
	}
	s.hooks = append(s.hooks, p)
}

// Hooks returns the registered reporters in registration order.
func (s *SubSteps) Hooks() []Process {
	if s == nil {
		return nil
	}
	return append([]Process(nil), s.hooks...)
}

// Run recomputes every hook in order. Hooks are evaluated without advancing
// their time.
func (s *SubSteps) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	for _, h := range s.hooks {
		if err := h.Prepare(ctx, 0); err != nil {
			return annotate(h, err)
		}
		if err := h.Execute(ctx); err != nil {
			return annotate(h, err)
		}
	}
	return nil
}
