package hsm

import (
	"fmt"
	"strings"
)

// Model is an immutable state graph produced by Builder.Build. A model
// holds no runtime state and may back any number of machines.
type Model struct {
	nodes   []node
	regions []region
	root    RegionID
}

// TransitionInfo describes one reaction for introspection
type TransitionInfo struct {
	Event    *Event
	Target   StateID
	Guarded  bool
	Internal bool
}

func (m *Model) node(id StateID) *node {
	return &m.nodes[id-1]
}

func (m *Model) region(id RegionID) *region {
	return &m.regions[id-1]
}

func (m *Model) validState(id StateID) bool {
	return id > 0 && int(id) <= len(m.nodes)
}

func (m *Model) validRegion(id RegionID) bool {
	return id > 0 && int(id) <= len(m.regions)
}

// Root returns the root region
func (m *Model) Root() RegionID {
	return m.root
}

// States returns every state and choice handle in declaration order
func (m *Model) States() []StateID {
	ids := make([]StateID, len(m.nodes))
	for i := range m.nodes {
		ids[i] = StateID(i + 1)
	}
	return ids
}

// RegionIDs returns every region handle in declaration order
func (m *Model) RegionIDs() []RegionID {
	ids := make([]RegionID, len(m.regions))
	for i := range m.regions {
		ids[i] = RegionID(i + 1)
	}
	return ids
}

// Name returns the display name of a state
func (m *Model) Name(id StateID) string {
	switch {
	case id == Terminated:
		return TerminatedName
	case id == NoState:
		return ""
	case m.validState(id):
		return m.node(id).name
	default:
		return fmt.Sprintf("#%d", id)
	}
}

// Kind returns whether id is an ordinary state or a choice
func (m *Model) Kind(id StateID) StateKind {
	if !m.validState(id) {
		return KindState
	}
	return m.node(id).kind
}

// Regions returns the ordered regions of a composite state
func (m *Model) Regions(id StateID) []RegionID {
	if !m.validState(id) {
		return nil
	}
	return append([]RegionID(nil), m.node(id).regions...)
}

// RegionInitial returns the initial state of a region
func (m *Model) RegionInitial(r RegionID) StateID {
	if !m.validRegion(r) {
		return NoState
	}
	return m.region(r).initial
}

// RegionHistory returns the re-entry policy of a region
func (m *Model) RegionHistory(r RegionID) HistoryMode {
	if !m.validRegion(r) {
		return HistoryNone
	}
	return m.region(r).history
}

// RegionOwner returns the composite state that owns r, or NoState for the root
func (m *Model) RegionOwner(r RegionID) StateID {
	if !m.validRegion(r) {
		return NoState
	}
	return m.region(r).owner
}

// Transitions returns the reactions of an ordinary state in declaration order
func (m *Model) Transitions(id StateID) []TransitionInfo {
	if !m.validState(id) {
		return nil
	}
	n := m.node(id)
	infos := make([]TransitionInfo, 0, len(n.triggers))
	for _, e := range n.triggers {
		infos = append(infos, describe(e, n.reactions[e]))
	}
	return infos
}

// Branches returns the true and false branches of a choice
func (m *Model) Branches(id StateID) (whenTrue, whenFalse TransitionInfo, ok bool) {
	if !m.validState(id) || m.node(id).kind != KindChoice {
		return TransitionInfo{}, TransitionInfo{}, false
	}
	n := m.node(id)
	return describe(True, n.whenTrue), describe(False, n.whenFalse), true
}

func describe(e *Event, r Reaction) TransitionInfo {
	return TransitionInfo{
		Event:    e,
		Target:   r.Target,
		Guarded:  r.Guard != nil,
		Internal: r.IsInternal(),
	}
}

// String renders the static hierarchy, one state per line
func (m *Model) String() string {
	var sb strings.Builder
	m.writeRegion(&sb, m.root, 0)
	return sb.String()
}

func (m *Model) writeRegion(sb *strings.Builder, r RegionID, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString(fmt.Sprintf("%sregion#%d initial=%s history=%s\n", indent, r, m.Name(m.region(r).initial), m.region(r).history))
	for i := range m.nodes {
		id := StateID(i + 1)
		if m.node(id).home != r {
			continue
		}
		n := m.node(id)
		sb.WriteString(fmt.Sprintf("%s  %s (%s)\n", indent, n.name, n.kind))
		for _, child := range n.regions {
			m.writeRegion(sb, child, depth+2)
		}
	}
}

// Home returns the region a state was placed in: the first region, in
// declaration order, from whose initial state it is reachable without
// leaving that region. Unreachable states report NoRegion.
func (m *Model) Home(id StateID) RegionID {
	if !m.validState(id) {
		return NoRegion
	}
	return m.node(id).home
}

// assignHomes walks each region's transition graph from its initial state
func (m *Model) assignHomes() {
	for i := range m.regions {
		r := RegionID(i + 1)
		queue := []StateID{m.regions[i].initial}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if !m.validState(id) || m.node(id).home != NoRegion {
				continue
			}
			m.node(id).home = r
			queue = append(queue, m.targetsOf(id)...)
		}
	}
}

func (m *Model) targetsOf(id StateID) []StateID {
	n := m.node(id)
	if n.kind == KindChoice {
		return []StateID{n.whenTrue.Target, n.whenFalse.Target}
	}
	targets := make([]StateID, 0, len(n.triggers))
	for _, e := range n.triggers {
		if r := n.reactions[e]; !r.IsInternal() {
			targets = append(targets, r.Target)
		}
	}
	return targets
}
