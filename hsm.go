// Package hsm provides a hierarchical state machine engine for Go that
// implements UML statechart concepts: composite states with orthogonal
// regions, guarded external and internal transitions, choice pseudostates
// and run-to-completion event processing.
//
// A Model is declared once with a Builder and may back any number of
// Machines:
//
//	b := hsm.NewBuilder()
//	locked := b.State("Locked").ID()
//	unlocked := b.State("Unlocked").ID()
//	b.Reactions(locked).On(coin, hsm.Transition(nil, unlocked))
//	b.Reactions(unlocked).On(push, hsm.Transition(nil, locked))
//	model, err := b.Build(b.Region(locked))
//
//	m := hsm.NewMachine(model)
//	err = m.Init()
//	err = m.React(coin)
//
// Callbacks never call back into the machine. They return follow-up events,
// which the machine processes in FIFO order before React returns.
package hsm
