package hsm

// Callback is run on entry, on exit, or as a transition action. The events
// it returns are queued behind the event currently being processed.
type Callback func(e *Event) []*Event

// Guard decides whether a reaction may fire for the triggering event
type Guard func(e *Event) bool

// Predicate selects the branch of a choice
type Predicate func(e *Event) bool

// Reaction describes what a state does when it receives an event.
// A reaction without a target is an internal transition.
//
// The target becomes the current state of the region the reacting state is
// active in. Targets are not checked against the region they were declared
// for: a reaction from a state inside a composite to a top-level state runs
// that state inside the composite's region, and the composite stays active.
type Reaction struct {
	Guard  Guard
	Action Callback
	Target StateID
}

// Guarded creates an external transition that fires only when guard holds
func Guarded(guard Guard, action Callback, target StateID) Reaction {
	return Reaction{Guard: guard, Action: action, Target: target}
}

// Transition creates an unconditional external transition
func Transition(action Callback, target StateID) Reaction {
	return Reaction{Action: action, Target: target}
}

// Internal creates an unconditional internal transition
func Internal(action Callback) Reaction {
	return Reaction{Action: action, Target: NoState}
}

// GuardedInternal creates an internal transition that fires only when guard holds
func GuardedInternal(guard Guard, action Callback) Reaction {
	return Reaction{Guard: guard, Action: action, Target: NoState}
}

// IsInternal reports whether the reaction leaves the configuration untouched
func (r Reaction) IsInternal() bool {
	return r.Target == NoState
}
