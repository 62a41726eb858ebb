package hsm

import (
	"github.com/google/uuid"
)

// Event is a trigger token. Events compare by identity: two events created
// with the same label are different triggers.
type Event struct {
	id    uuid.UUID
	label string
}

// NewEvent creates a new event with the given display label
func NewEvent(label string) *Event {
	return &Event{
		id:    uuid.New(),
		label: label,
	}
}

// Engine-reserved events
var (
	// Initialize is passed to entry callbacks run by Init
	Initialize = NewEvent("INITIALIZE")
	// Terminate is passed to exit callbacks run by Terminate
	Terminate = NewEvent("TERMINATE")
	// True is passed along the true branch of a choice
	True = NewEvent("TRUE")
	// False is passed along the false branch of a choice
	False = NewEvent("FALSE")
)

// ID returns the event instance identifier
func (e *Event) ID() uuid.UUID {
	return e.id
}

// Label returns the event label
func (e *Event) Label() string {
	return e.label
}

// String implements fmt.Stringer
func (e *Event) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.label
}

// IsReserved reports whether e is one of the engine-reserved events
func (e *Event) IsReserved() bool {
	return e == Initialize || e == Terminate || e == True || e == False
}
