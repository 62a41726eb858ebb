package hsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaction_Shapes(t *testing.T) {
	always := func(*Event) bool { return true }

	guarded := Guarded(always, nil, 3)
	assert.NotNil(t, guarded.Guard)
	assert.Equal(t, StateID(3), guarded.Target)
	assert.False(t, guarded.IsInternal())

	plain := Transition(nil, 4)
	assert.Nil(t, plain.Guard)
	assert.False(t, plain.IsInternal())

	assert.True(t, Internal(nil).IsInternal())
	internal := GuardedInternal(always, nil)
	assert.True(t, internal.IsInternal())
	assert.NotNil(t, internal.Guard)
}

func TestStateKind_String(t *testing.T) {
	assert.Equal(t, "state", KindState.String())
	assert.Equal(t, "choice", KindChoice.String())
	assert.Equal(t, "kind(9)", StateKind(9).String())
}

func TestNode_SetReactionKeepsTriggerOrder(t *testing.T) {
	first, second := NewEvent("first"), NewEvent("second")
	n := node{reactions: make(map[*Event]Reaction)}

	n.setReaction(first, Transition(nil, 1))
	n.setReaction(second, Transition(nil, 2))
	n.setReaction(first, Transition(nil, 3))

	assert.Equal(t, []*Event{first, second}, n.triggers)
	r, ok := n.reaction(first)
	assert.True(t, ok)
	assert.Equal(t, StateID(3), r.Target)

	_, ok = n.reaction(NewEvent("first"))
	assert.False(t, ok)
}

func TestMachineState_String(t *testing.T) {
	assert.Equal(t, "stopped", MachineStateStopped.String())
	assert.Equal(t, "started", MachineStateStarted.String())
	assert.Equal(t, "terminated", MachineStateTerminated.String())
	assert.Equal(t, "error", MachineStateError.String())
}
