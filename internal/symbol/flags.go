package symbol

import "strings"

// Granularity is the spatial resolution at which a symbol's value may vary.
// The zero value is Global.
type Granularity int

const (
	Global Granularity = iota
	Cell
	MembraneNode
	Node
)

func (g Granularity) String() string {
	switch g {
	case Global:
		return "Global"
	case Cell:
		return "Cell"
	case MembraneNode:
		return "MembraneNode"
	case Node:
		return "Node"
	}
	return "Unknown"
}

// Join returns the finer of two granularities (Global < Cell < MembraneNode < Node).
func (g Granularity) Join(o Granularity) Granularity {
	if o > g {
		return o
	}
	return g
}

// Flags describes how a symbol's value behaves. Flags are fixed once the
// symbol has been initialised.
type Flags struct {
	Granularity      Granularity
	SpaceConst       bool
	TimeConst        bool
	Stochastic       bool
	Integer          bool
	PartiallyDefined bool
	Delayed          bool
	Writable         bool
}

// ConstFlags are the flags of a fully constant global value.
func ConstFlags() Flags {
	return Flags{Granularity: Global, SpaceConst: true, TimeConst: true}
}

// Combine aggregates the flags of a dependency into the receiver:
// constancy is ANDed, stochasticity and partial definition are ORed and
// granularity takes the join. Integer, Delayed and Writable do not carry over.
func (f Flags) Combine(o Flags) Flags {
	return Flags{
		Granularity:      f.Granularity.Join(o.Granularity),
		SpaceConst:       f.SpaceConst && o.SpaceConst,
		TimeConst:        f.TimeConst && o.TimeConst,
		Stochastic:       f.Stochastic || o.Stochastic,
		PartiallyDefined: f.PartiallyDefined || o.PartiallyDefined,
	}
}

// Constant reports whether the value neither changes in space nor in time.
func (f Flags) Constant() bool {
	return f.SpaceConst && f.TimeConst
}

func (f Flags) String() string {
	parts := []string{f.Granularity.String()}
	add := func(on bool, name string) {
		if on {
			parts = append(parts, name)
		}
	}
	add(f.SpaceConst, "space_const")
	add(f.TimeConst, "time_const")
	add(f.Stochastic, "stochastic")
	add(f.Integer, "integer")
	add(f.PartiallyDefined, "partially_defined")
	add(f.Delayed, "delayed")
	add(f.Writable, "writable")
	return strings.Join(parts, "|")
}
