package hsm

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// MachineState represents the lifecycle of a machine
type MachineState int

const (
	// Machine has not been initialized
	MachineStateStopped MachineState = iota
	// Machine is running and reacting to events
	MachineStateStarted
	// Machine has been terminated; events are ignored
	MachineStateTerminated
	// A callback failed and the configuration is undefined
	MachineStateError
)

// String implements fmt.Stringer
func (s MachineState) String() string {
	switch s {
	case MachineStateStopped:
		return "stopped"
	case MachineStateStarted:
		return "started"
	case MachineStateTerminated:
		return "terminated"
	case MachineStateError:
		return "error"
	default:
		return fmt.Sprintf("MachineState(%d)", int(s))
	}
}

// Machine drives a Model. It is not safe for concurrent use: callers that
// share a machine between goroutines must serialize access themselves.
// Callbacks must not call React or Terminate on the machine that runs them;
// they return follow-up events instead.
type Machine struct {
	model     *Model
	regions   []regionRuntime
	state     MachineState
	reacting  bool
	observers *ObserverManager
	logger    *slog.Logger
}

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*Machine)

// WithLogger sets the logger used for debug tracing of event processing
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithObserver registers an observer before the machine starts
func WithObserver(observer Observer) MachineOption {
	return func(m *Machine) {
		m.observers.AddObserver(observer)
	}
}

// match is a reaction selected for an event, together with where it was found
type match struct {
	region   RegionID
	state    StateID
	reaction Reaction
}

// NewMachine creates a machine for model. The machine starts in the
// stopped state; call Init to enter the initial configuration.
func NewMachine(model *Model, opts ...MachineOption) *Machine {
	m := &Machine{
		model:     model,
		regions:   make([]regionRuntime, len(model.regions)),
		state:     MachineStateStopped,
		observers: NewObserverManager(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Model returns the model the machine runs
func (m *Machine) Model() *Model {
	return m.model
}

// State returns the lifecycle state of the machine
func (m *Machine) State() MachineState {
	return m.state
}

// IsTerminated reports whether Terminate has completed
func (m *Machine) IsTerminated() bool {
	return m.state == MachineStateTerminated
}

// AddObserver adds an observer
func (m *Machine) AddObserver(observer Observer) {
	m.observers.AddObserver(observer)
}

// RemoveObserver removes an observer
func (m *Machine) RemoveObserver(observer Observer) {
	m.observers.RemoveObserver(observer)
}

// Init enters the root region with the Initialize event. Events returned by
// entry callbacks are processed before Init returns. Calling Init on a
// started or terminated machine restarts it: the active configuration is
// dropped without exit callbacks and region history is forgotten.
func (m *Machine) Init() error {
	if m.reacting {
		return NewMachineError(ErrCodeConcurrentModification, "Init", "called from inside a callback")
	}
	if m.state == MachineStateError {
		return NewMachineError(ErrCodeAlreadyStarted, "Init", fmt.Sprintf("machine is %s", m.state))
	}

	if m.state != MachineStateStopped {
		m.logger.Debug("restarting machine", "from", m.state.String())
		m.regions = make([]regionRuntime, len(m.model.regions))
	}
	m.state = MachineStateStarted
	m.logger.Debug("initializing machine", "root", m.model.Name(m.model.RegionInitial(m.model.root)))

	m.reacting = true
	var out []*Event
	err := m.enterRegion(m.model.root, Initialize, &out)
	m.reacting = false
	if err != nil {
		return m.fail(err)
	}

	m.observers.NotifyMachineStarted()
	return m.run(out)
}

// React processes e and every event produced while handling it, in FIFO
// order, before returning. Events with no enabled reaction are ignored.
// After Terminate, React does nothing.
func (m *Machine) React(e *Event) error {
	if e == nil {
		return NewMachineError(ErrCodeInvalidEvent, "React", "event is nil")
	}
	if m.reacting {
		return NewMachineError(ErrCodeConcurrentModification, "React", fmt.Sprintf("event %s sent from inside a callback", e))
	}

	switch m.state {
	case MachineStateStopped:
		return NewMachineNotStartedError("React")
	case MachineStateTerminated:
		m.logger.Debug("event ignored", "event", e.Label(), "event_id", e.ID(), "reason", "machine terminated")
		m.observers.NotifyEventRejected(e, "machine terminated")
		return nil
	case MachineStateError:
		return NewMachineError(ErrCodeInvalidState, "React", "machine configuration is undefined after a callback failure")
	}

	return m.run([]*Event{e})
}

// Terminate exits the whole active configuration with the Terminate event.
// Events returned by exit callbacks are discarded.
func (m *Machine) Terminate() error {
	if m.reacting {
		return NewMachineError(ErrCodeConcurrentModification, "Terminate", "called from inside a callback")
	}

	switch m.state {
	case MachineStateStopped:
		return NewMachineNotStartedError("Terminate")
	case MachineStateTerminated:
		return nil
	case MachineStateError:
		return NewMachineError(ErrCodeInvalidState, "Terminate", "machine configuration is undefined after a callback failure")
	}

	m.reacting = true
	var out []*Event
	err := m.exitState(m.regions[m.model.root-1].current, Terminate, &out)
	m.reacting = false
	if err != nil {
		return m.fail(err)
	}

	if len(out) > 0 {
		m.logger.Debug("discarding events produced during termination", "count", len(out))
	}

	m.state = MachineStateTerminated
	m.observers.NotifyMachineTerminated()
	return nil
}

// run drains the worklist
func (m *Machine) run(queue []*Event) error {
	m.reacting = true
	defer func() { m.reacting = false }()

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		out, err := m.step(e)
		if err != nil {
			if len(queue) > 0 {
				m.logger.Debug("abandoning queued events", "count", len(queue))
			}
			return m.fail(err)
		}
		queue = append(queue, out...)
	}
	return nil
}

func (m *Machine) fail(err error) error {
	m.state = MachineStateError
	m.logger.Error("callback failed", "error", err)
	m.observers.NotifyError(err)
	return err
}

// step resolves and executes a single event
func (m *Machine) step(e *Event) ([]*Event, error) {
	found, vetoed, err := m.resolve(m.model.root, e)
	if err != nil {
		return nil, err
	}

	if found == nil {
		reason := fmt.Sprintf("no reaction for event '%s' in %s", e, m.Configuration())
		if vetoed {
			reason = fmt.Sprintf("guard rejected event '%s' in %s", e, m.Configuration())
		}
		m.logger.Debug("event ignored", "event", e.Label(), "event_id", e.ID(), "reason", reason)
		m.observers.NotifyEventRejected(e, reason)
		return nil, nil
	}

	m.logger.Debug("reacting", "event", e.Label(), "event_id", e.ID(), "state", m.model.Name(found.state), "target", m.model.Name(found.reaction.Target))
	return m.execute(found, e)
}

// resolve looks for an enabled reaction in the active state of region r.
// The state's own reactions come first; when it has none for e, its regions
// are searched in order, depth first, and the first enabled reaction wins.
// A state's own reaction with a false guard consumes the event; a vetoed
// reaction inside a region lets the next sibling region try.
func (m *Machine) resolve(r RegionID, e *Event) (*match, bool, error) {
	s := m.regions[r-1].current
	n := m.model.node(s)

	if reaction, ok := n.reaction(e); ok {
		enabled, err := m.test(reaction.Guard, s, e)
		if err != nil {
			return nil, false, err
		}
		if !enabled {
			return nil, true, nil
		}
		return &match{region: r, state: s, reaction: reaction}, false, nil
	}

	vetoed := false
	for _, child := range n.regions {
		found, childVetoed, err := m.resolve(child, e)
		if err != nil || found != nil {
			return found, false, err
		}
		vetoed = vetoed || childVetoed
	}
	return nil, vetoed, nil
}

// execute runs the selected reaction at the level it was found
func (m *Machine) execute(found *match, e *Event) ([]*Event, error) {
	var out []*Event
	r := found.reaction

	if r.IsInternal() {
		if err := m.invoke("internal action", found.state, r.Action, e, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := m.exitState(found.state, e, &out); err != nil {
		return nil, err
	}
	if err := m.invoke("action", found.state, r.Action, e, &out); err != nil {
		return nil, err
	}

	target, arrival, err := m.resolveTarget(r.Target, e, &out)
	if err != nil {
		return nil, err
	}

	rt := &m.regions[found.region-1]
	rt.current = target
	rt.visited = true
	if err := m.enterState(target, arrival, &out); err != nil {
		return nil, err
	}

	m.observers.NotifyTransition(m.model.Name(found.state), m.model.Name(target), e)
	return out, nil
}

// resolveTarget follows choices until an ordinary state is reached. It
// returns that state and the event it is entered with: the trigger, or the
// True/False event of the last choice branch taken.
func (m *Machine) resolveTarget(target StateID, e *Event, out *[]*Event) (StateID, *Event, error) {
	for m.model.node(target).kind == KindChoice {
		n := m.model.node(target)

		taken, err := m.test(Guard(n.predicate), target, e)
		if err != nil {
			return NoState, nil, err
		}

		branch, arrival := n.whenFalse, False
		if taken {
			branch, arrival = n.whenTrue, True
		}
		m.logger.Debug("choice resolved", "choice", n.name, "event", e.Label(), "branch", arrival.Label(), "target", m.model.Name(branch.Target))

		if err := m.invoke("choice action", target, branch.Action, arrival, out); err != nil {
			return NoState, nil, err
		}
		target, e = branch.Target, arrival
	}
	return target, e, nil
}

// enterState runs the entry callback, then enters each region in order
func (m *Machine) enterState(s StateID, e *Event, out *[]*Event) error {
	n := m.model.node(s)
	if err := m.invoke("entry", s, n.onEnter, e, out); err != nil {
		return err
	}
	m.observers.NotifyStateEnter(n.name, e)

	for _, r := range n.regions {
		if err := m.enterRegion(r, e, out); err != nil {
			return err
		}
	}
	return nil
}

// exitState runs the exit callback, then exits each region in order
func (m *Machine) exitState(s StateID, e *Event, out *[]*Event) error {
	n := m.model.node(s)
	if err := m.invoke("exit", s, n.onExit, e, out); err != nil {
		return err
	}
	m.observers.NotifyStateExit(n.name, e)

	for _, r := range n.regions {
		if err := m.exitRegion(r, e, out); err != nil {
			return err
		}
	}
	return nil
}

// invoke runs a callback with panic recovery and queues what it returns
func (m *Machine) invoke(kind string, s StateID, cb Callback, e *Event, out *[]*Event) (err error) {
	if cb == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = NewActionError(kind, m.model.Name(s), e, panicError(r))
		}
	}()

	m.observers.NotifyActionExecution(kind, m.model.Name(s), e)
	for _, next := range cb(e) {
		if next == nil {
			m.logger.Debug("dropping nil follow-up event", "callback", kind, "state", m.model.Name(s))
			continue
		}
		*out = append(*out, next)
	}
	return nil
}

// test evaluates a guard or choice predicate with panic recovery
func (m *Machine) test(guard Guard, s StateID, e *Event) (result bool, err error) {
	if guard == nil {
		return true, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = false
			err = NewActionError("guard", m.model.Name(s), e, panicError(r))
		}
	}()

	result = guard(e)
	m.observers.NotifyGuardEvaluation(m.model.Name(s), e, result)
	return result, nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// CurrentState returns the active state of the root region, Terminated after
// Terminate, or NoState before Init
func (m *Machine) CurrentState() StateID {
	switch m.state {
	case MachineStateStopped:
		return NoState
	case MachineStateTerminated:
		return Terminated
	default:
		return m.regions[m.model.root-1].current
	}
}

// RegionState returns the active state of r, or NoState when r is not part
// of the active configuration
func (m *Machine) RegionState(r RegionID) StateID {
	if !m.model.validRegion(r) || !m.isRegionActive(r) {
		return NoState
	}
	return m.regions[r-1].current
}

func (m *Machine) isRegionActive(r RegionID) bool {
	active := false
	m.walk(func(rid RegionID, _ StateID) {
		if rid == r {
			active = true
		}
	})
	return active
}

// walk visits every active region with its active state, outer regions
// first and sibling regions in declaration order
func (m *Machine) walk(visit func(r RegionID, s StateID)) {
	if m.state != MachineStateStarted && m.state != MachineStateError {
		return
	}
	var descend func(r RegionID)
	descend = func(r RegionID) {
		s := m.regions[r-1].current
		visit(r, s)
		for _, child := range m.model.node(s).regions {
			descend(child)
		}
	}
	descend(m.model.root)
}

// ActiveStates returns the active configuration, outer states first and
// regions in declaration order
func (m *Machine) ActiveStates() []StateID {
	var states []StateID
	m.walk(func(_ RegionID, s StateID) {
		states = append(states, s)
	})
	return states
}

// IsActive reports whether s is part of the active configuration
func (m *Machine) IsActive(s StateID) bool {
	for _, active := range m.ActiveStates() {
		if active == s {
			return true
		}
	}
	return false
}

// Configuration renders the active configuration. A composite state lists
// the active state of each region, e.g. "C([X, P])".
func (m *Machine) Configuration() string {
	switch m.state {
	case MachineStateStopped:
		return ""
	case MachineStateTerminated:
		return TerminatedName
	}
	var sb strings.Builder
	m.writeState(&sb, m.regions[m.model.root-1].current)
	return sb.String()
}

func (m *Machine) writeState(sb *strings.Builder, s StateID) {
	n := m.model.node(s)
	sb.WriteString(n.name)
	if len(n.regions) == 0 {
		return
	}
	sb.WriteString("([")
	for i, r := range n.regions {
		if i > 0 {
			sb.WriteString(", ")
		}
		m.writeState(sb, m.regions[r-1].current)
	}
	sb.WriteString("])")
}
