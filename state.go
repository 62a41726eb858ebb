package hsm

import "strconv"

// StateID is a handle to a state or choice inside a model. The zero value
// is NoState, so a Reaction literal without a Target is internal.
type StateID int

const (
	// NoState marks the absence of a target
	NoState StateID = 0
	// Terminated is reported by a machine after Terminate
	Terminated StateID = -1
)

// TerminatedName is the display name of the Terminated sentinel
const TerminatedName = "TERMINATED"

// StateKind distinguishes ordinary states from choice pseudostates
type StateKind int

const (
	// KindState is an ordinary, possibly composite, state
	KindState StateKind = iota
	// KindChoice is a binary branch point that is never current
	KindChoice
)

// String implements fmt.Stringer
func (k StateKind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindChoice:
		return "choice"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// node is one arena slot. Only the fields for its kind are meaningful.
type node struct {
	name string
	kind StateKind
	home RegionID

	// ordinary
	onEnter   Callback
	onExit    Callback
	reactions map[*Event]Reaction
	triggers  []*Event // declaration order of reactions, for introspection
	regions   []RegionID

	// choice
	predicate Predicate
	whenTrue  Reaction
	whenFalse Reaction
}

func (n *node) reaction(e *Event) (Reaction, bool) {
	r, ok := n.reactions[e]
	return r, ok
}

// setReaction stores r for e, overwriting any earlier entry
func (n *node) setReaction(e *Event, r Reaction) {
	if _, exists := n.reactions[e]; !exists {
		n.triggers = append(n.triggers, e)
	}
	n.reactions[e] = r
}
