package hsm

import (
	"fmt"
	"maps"
)

// Builder assembles a model in two phases: declare every state, choice and
// region first, then attach reactions. Because states are addressed by
// handle, reactions may target states declared later and graphs may be
// cyclic.
type Builder struct {
	nodes   []node
	regions []region
	issues  []error
}

// StateBuilder configures one ordinary state
type StateBuilder struct {
	b  *Builder
	id StateID
}

// NewBuilder creates an empty model builder
func NewBuilder() *Builder {
	return &Builder{}
}

// State declares a new ordinary state
func (b *Builder) State(name string) *StateBuilder {
	b.nodes = append(b.nodes, node{
		name:      name,
		kind:      KindState,
		reactions: make(map[*Event]Reaction),
	})
	return &StateBuilder{b: b, id: StateID(len(b.nodes))}
}

// Choice declares a choice pseudostate. Both branches need a target.
func (b *Builder) Choice(name string, predicate Predicate, whenTrue, whenFalse Reaction) StateID {
	b.nodes = append(b.nodes, node{
		name:      name,
		kind:      KindChoice,
		predicate: predicate,
		whenTrue:  whenTrue,
		whenFalse: whenFalse,
	})
	return StateID(len(b.nodes))
}

// Region declares a region that starts at initial
func (b *Builder) Region(initial StateID, opts ...RegionOption) RegionID {
	r := region{initial: initial}
	for _, opt := range opts {
		opt(&r)
	}
	b.regions = append(b.regions, r)
	return RegionID(len(b.regions))
}

// Reactions reopens a declared state so reactions can be attached after
// every target exists
func (b *Builder) Reactions(id StateID) *StateBuilder {
	return &StateBuilder{b: b, id: id}
}

// ID returns the handle of the state
func (s *StateBuilder) ID() StateID {
	return s.id
}

// OnEnter sets the entry callback
func (s *StateBuilder) OnEnter(cb Callback) *StateBuilder {
	if n := s.ordinary("OnEnter"); n != nil {
		n.onEnter = cb
	}
	return s
}

// OnExit sets the exit callback
func (s *StateBuilder) OnExit(cb Callback) *StateBuilder {
	if n := s.ordinary("OnExit"); n != nil {
		n.onExit = cb
	}
	return s
}

// Regions appends orthogonal regions, making the state composite. Regions
// are entered and exited in the order given.
func (s *StateBuilder) Regions(regions ...RegionID) *StateBuilder {
	if n := s.ordinary("Regions"); n != nil {
		n.regions = append(n.regions, regions...)
	}
	return s
}

// On registers the reaction to e. A later call for the same event replaces
// the earlier reaction. The target is entered in the region the state
// belongs to, see Reaction.
func (s *StateBuilder) On(e *Event, r Reaction) *StateBuilder {
	if e == nil {
		s.b.issues = append(s.b.issues, NewTransitionError(s.b.name(s.id), s.b.name(r.Target), "<nil>", "reaction registered for nil event"))
		return s
	}
	if n := s.ordinary("On"); n != nil {
		n.setReaction(e, r)
	}
	return s
}

func (s *StateBuilder) ordinary(op string) *node {
	if s.id <= 0 || int(s.id) > len(s.b.nodes) {
		s.b.issues = append(s.b.issues, NewStateNotFoundError(s.id))
		return nil
	}
	n := &s.b.nodes[s.id-1]
	if n.kind != KindState {
		s.b.issues = append(s.b.issues, NewStateError(ErrCodeInvalidConfiguration, n.name, fmt.Sprintf("%s is not allowed on a %s", op, n.kind)))
		return nil
	}
	return n
}

func (b *Builder) name(id StateID) string {
	if id > 0 && int(id) <= len(b.nodes) {
		return b.nodes[id-1].name
	}
	if id == NoState {
		return "(internal)"
	}
	return fmt.Sprintf("#%d", id)
}

// Build validates the declarations and freezes them into a Model rooted at
// root. Every problem found is reported in a single ConfigurationError.
func (b *Builder) Build(root RegionID) (*Model, error) {
	issues := append([]error(nil), b.issues...)

	m := &Model{
		nodes:   make([]node, len(b.nodes)),
		regions: make([]region, len(b.regions)),
		root:    root,
	}
	for i, n := range b.nodes {
		n.reactions = maps.Clone(n.reactions)
		n.triggers = append([]*Event(nil), n.triggers...)
		n.regions = append([]RegionID(nil), n.regions...)
		n.home = NoRegion
		m.nodes[i] = n
	}
	copy(m.regions, b.regions)

	if !m.validRegion(root) {
		issues = append(issues, NewRegionNotFoundError(root))
	}

	issues = append(issues, m.checkRegions()...)
	issues = append(issues, m.checkReactions()...)
	if len(issues) == 0 {
		issues = append(issues, m.checkNesting()...)
		issues = append(issues, m.checkChoices()...)
	}

	if len(issues) > 0 {
		return nil, NewConfigurationError("Model", issues...)
	}

	m.assignHomes()
	return m, nil
}

// checkRegions validates region initials and assigns owners
func (m *Model) checkRegions() []error {
	var issues []error
	for i := range m.regions {
		r := &m.regions[i]
		r.owner = NoState
		switch {
		case !m.validState(r.initial):
			issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, fmt.Sprintf("region#%d", i+1), fmt.Sprintf("initial state handle %d is not part of the model", r.initial)))
		case m.node(r.initial).kind != KindState:
			issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, fmt.Sprintf("region#%d", i+1), fmt.Sprintf("initial '%s' is a choice", m.node(r.initial).name)))
		}
	}

	for i := range m.nodes {
		id := StateID(i + 1)
		for _, rid := range m.nodes[i].regions {
			switch {
			case !m.validRegion(rid):
				issues = append(issues, NewRegionNotFoundError(rid))
			case rid == m.root:
				issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, m.nodes[i].name, fmt.Sprintf("region#%d is the root region", rid)))
			case m.region(rid).owner != NoState:
				issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, m.nodes[i].name, fmt.Sprintf("region#%d is already owned by '%s'", rid, m.Name(m.region(rid).owner))))
			default:
				m.region(rid).owner = id
			}
		}
	}

	for i, r := range m.regions {
		rid := RegionID(i + 1)
		if rid != m.root && r.owner == NoState {
			issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, fmt.Sprintf("region#%d", rid), "region is neither the root nor owned by a state"))
		}
	}
	return issues
}

// checkReactions validates reaction targets and choice branches
func (m *Model) checkReactions() []error {
	var issues []error
	for i := range m.nodes {
		n := &m.nodes[i]
		if n.kind == KindChoice {
			if n.predicate == nil {
				issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, n.name, "choice has no predicate"))
			}
			for _, branch := range []struct {
				event *Event
				r     Reaction
			}{{True, n.whenTrue}, {False, n.whenFalse}} {
				if branch.r.IsInternal() {
					issues = append(issues, NewTransitionError(n.name, "", branch.event.Label(), "choice branch has no target"))
				} else if !m.validState(branch.r.Target) {
					issues = append(issues, NewTransitionError(n.name, m.Name(branch.r.Target), branch.event.Label(), "target is not part of the model"))
				}
			}
			continue
		}
		for _, e := range n.triggers {
			r := n.reactions[e]
			if !r.IsInternal() && !m.validState(r.Target) {
				issues = append(issues, NewTransitionError(n.name, m.Name(r.Target), e.Label(), "target is not part of the model"))
			}
		}
	}
	return issues
}

// checkNesting rejects models whose default entry would never terminate:
// entering a region enters its initial state, which enters that state's
// regions, and so on.
func (m *Model) checkNesting() []error {
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make([]int, len(m.regions))

	var issues []error
	var visit func(r RegionID) bool
	visit = func(r RegionID) bool {
		switch marks[r-1] {
		case visiting:
			return false
		case done:
			return true
		}
		marks[r-1] = visiting
		for _, child := range m.node(m.region(r).initial).regions {
			if !visit(child) {
				return false
			}
		}
		marks[r-1] = done
		return true
	}

	for i := range m.regions {
		rid := RegionID(i + 1)
		if marks[i] == unvisited && !visit(rid) {
			issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, fmt.Sprintf("region#%d", rid), "region nesting is cyclic"))
			break
		}
	}
	return issues
}

// checkChoices rejects choices that can reach themselves through branches.
// Resolution follows branches until an ordinary state is reached, so a
// closed chain of choices would never settle.
func (m *Model) checkChoices() []error {
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make([]int, len(m.nodes))

	var visit func(id StateID) bool
	visit = func(id StateID) bool {
		n := m.node(id)
		if n.kind != KindChoice {
			return true
		}
		switch marks[id-1] {
		case visiting:
			return false
		case done:
			return true
		}
		marks[id-1] = visiting
		if !visit(n.whenTrue.Target) || !visit(n.whenFalse.Target) {
			return false
		}
		marks[id-1] = done
		return true
	}

	var issues []error
	for i := range m.nodes {
		id := StateID(i + 1)
		if marks[i] == unvisited && !visit(id) {
			issues = append(issues, NewStateError(ErrCodeInvalidConfiguration, m.nodes[i].name, "choice chain never reaches a state"))
			break
		}
	}
	return issues
}
