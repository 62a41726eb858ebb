package hsm

// RegionID is a handle to a region inside a model. The zero value is NoRegion.
type RegionID int

// NoRegion marks the absence of a region
const NoRegion RegionID = 0

// HistoryMode controls where a region resumes when its owner is re-entered
type HistoryMode int

const (
	// HistoryNone restarts the region at its initial state on every entry
	HistoryNone HistoryMode = iota
	// HistoryShallow resumes the region at the state that was active when
	// it was last exited. Nested regions apply their own mode.
	HistoryShallow
)

// String implements fmt.Stringer
func (h HistoryMode) String() string {
	if h == HistoryShallow {
		return "shallow"
	}
	return "none"
}

// RegionOption configures a region at declaration time
type RegionOption func(*region)

// WithHistory makes the region resume its last active state on re-entry
func WithHistory() RegionOption {
	return func(r *region) {
		r.history = HistoryShallow
	}
}

// WithHistoryMode sets the re-entry policy of the region explicitly
func WithHistoryMode(mode HistoryMode) RegionOption {
	return func(r *region) {
		r.history = mode
	}
}

type region struct {
	initial StateID
	history HistoryMode
	owner   StateID // NoState for the root region
}

// regionRuntime is the per-machine mutable part of a region
type regionRuntime struct {
	current StateID
	visited bool
}

// entryState returns the state the region starts at on this entry
func (m *Machine) entryState(r RegionID) StateID {
	reg := m.model.region(r)
	rt := &m.regions[r-1]
	if reg.history == HistoryShallow && rt.visited && rt.current != NoState {
		return rt.current
	}
	return reg.initial
}

// enterRegion activates the region and enters its starting state
func (m *Machine) enterRegion(r RegionID, e *Event, out *[]*Event) error {
	target := m.entryState(r)
	rt := &m.regions[r-1]
	rt.current = target
	rt.visited = true
	return m.enterState(target, e, out)
}

// exitRegion exits the region's active state. The active state is kept so a
// history region can resume it.
func (m *Machine) exitRegion(r RegionID, e *Event, out *[]*Event) error {
	return m.exitState(m.regions[r-1].current, e, out)
}
