package visualization

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/hsm"
)

// Outline is a documentation view of a model's static structure
type Outline struct {
	Root RegionOutline `yaml:"root"`
}

// RegionOutline describes one region and the states placed in it
type RegionOutline struct {
	Initial string         `yaml:"initial"`
	History string         `yaml:"history,omitempty"`
	States  []StateOutline `yaml:"states"`
}

// StateOutline describes one state or choice
type StateOutline struct {
	Name      string            `yaml:"name"`
	Kind      string            `yaml:"kind"`
	Reactions []ReactionOutline `yaml:"reactions,omitempty"`
	Branches  map[string]string `yaml:"branches,omitempty"`
	Regions   []RegionOutline   `yaml:"regions,omitempty"`
}

// ReactionOutline describes one reaction
type ReactionOutline struct {
	Event    string `yaml:"event"`
	Target   string `yaml:"target,omitempty"`
	Guarded  bool   `yaml:"guarded,omitempty"`
	Internal bool   `yaml:"internal,omitempty"`
}

// NewOutline builds the outline of model
func NewOutline(model *hsm.Model) (*Outline, error) {
	if model == nil {
		return nil, fmt.Errorf("no model to outline")
	}
	return &Outline{Root: outlineRegion(model, model.Root())}, nil
}

func outlineRegion(model *hsm.Model, r hsm.RegionID) RegionOutline {
	out := RegionOutline{
		Initial: model.Name(model.RegionInitial(r)),
	}
	if model.RegionHistory(r) != hsm.HistoryNone {
		out.History = model.RegionHistory(r).String()
	}

	for _, id := range model.States() {
		if model.Home(id) != r {
			continue
		}
		out.States = append(out.States, outlineState(model, id))
	}
	return out
}

func outlineState(model *hsm.Model, id hsm.StateID) StateOutline {
	s := StateOutline{
		Name: model.Name(id),
		Kind: model.Kind(id).String(),
	}

	if whenTrue, whenFalse, ok := model.Branches(id); ok {
		s.Branches = map[string]string{
			"true":  model.Name(whenTrue.Target),
			"false": model.Name(whenFalse.Target),
		}
		return s
	}

	for _, t := range model.Transitions(id) {
		s.Reactions = append(s.Reactions, ReactionOutline{
			Event:    t.Event.Label(),
			Target:   model.Name(t.Target),
			Guarded:  t.Guarded,
			Internal: t.Internal,
		})
	}
	for _, child := range model.Regions(id) {
		s.Regions = append(s.Regions, outlineRegion(model, child))
	}
	return s
}

// YAML renders the outline of model as YAML
func YAML(model *hsm.Model) ([]byte, error) {
	outline, err := NewOutline(model)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(outline)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outline: %w", err)
	}
	return data, nil
}
