package kmeans

import "fmt"

// State is a phase of a clustering run.
type State int

const (
	Uninitialized State = iota
	Assigning
	Updating
	Converged
	Exhausted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Assigning:
		return "assigning"
	case Updating:
		return "updating"
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Converged || s == Exhausted }

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	Uninitialized: {Assigning},
	Assigning:     {Updating},
	Updating:      {Assigning, Converged, Exhausted},
}

// machine tracks the state of one run.
type machine struct {
	state State
}

func (m *machine) to(next State) {
	for _, s := range transitions[m.state] {
		if s == next {
			m.state = next
			return
		}
	}
	panic(fmt.Sprintf("kmeans: illegal transition %s -> %s", m.state, next))
}
