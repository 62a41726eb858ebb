package hsm

import (
	"fmt"
	"sort"
	"sync"
)

// ValidationObserver checks machine activity against a model. It reports
// transitions the model does not declare, callback failures, and the states
// a run never entered.
type ValidationObserver struct {
	BaseObserver
	expectedStates     map[string]bool
	visitedStates      map[string]bool
	allowedTransitions map[string]map[string]bool
	violations         []string
	mutex              sync.RWMutex
}

// NewValidationObserver creates a validation observer. When model is not
// nil, every ordinary state is expected and every declared transition is
// allowed, with choices resolved to the states they can lead to.
func NewValidationObserver(model *Model) *ValidationObserver {
	o := &ValidationObserver{
		expectedStates:     make(map[string]bool),
		visitedStates:      make(map[string]bool),
		allowedTransitions: make(map[string]map[string]bool),
	}
	if model == nil {
		return o
	}

	for _, id := range model.States() {
		if model.Kind(id) == KindChoice {
			continue
		}
		o.expectedStates[model.Name(id)] = true
		for _, t := range model.Transitions(id) {
			if t.Internal {
				continue
			}
			for _, to := range landingStates(model, t.Target) {
				o.AddAllowedTransition(model.Name(id), model.Name(to))
			}
		}
	}
	return o
}

// landingStates returns the ordinary states a transition to target can end in
func landingStates(model *Model, target StateID) []StateID {
	var states []StateID
	seen := make(map[StateID]bool)
	var follow func(id StateID)
	follow = func(id StateID) {
		if seen[id] {
			return
		}
		seen[id] = true
		whenTrue, whenFalse, ok := model.Branches(id)
		if !ok {
			states = append(states, id)
			return
		}
		follow(whenTrue.Target)
		follow(whenFalse.Target)
	}
	follow(target)
	return states
}

// AddExpectedState adds an expected state
func (o *ValidationObserver) AddExpectedState(stateName string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.expectedStates[stateName] = true
}

// AddAllowedTransition adds an allowed transition
func (o *ValidationObserver) AddAllowedTransition(from, to string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[from]; !exists {
		o.allowedTransitions[from] = make(map[string]bool)
	}
	o.allowedTransitions[from][to] = true
}

// OnStateEnter marks the state as visited
func (o *ValidationObserver) OnStateEnter(state string, event *Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.visitedStates[state] = true
}

// OnTransition records transitions missing from the allowed set
func (o *ValidationObserver) OnTransition(from string, to string, event *Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if allowed, exists := o.allowedTransitions[from]; !exists || !allowed[to] {
		o.violations = append(o.violations, fmt.Sprintf(
			"unexpected transition from '%s' to '%s' on event '%s'", from, to, event))
	}
}

// OnError records callback failures
func (o *ValidationObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, fmt.Sprintf("error occurred: %v", err))
}

// GetViolations returns all validation violations
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedStates returns expected states that were never entered, sorted
func (o *ValidationObserver) GetUnvisitedStates() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []string
	for state := range o.expectedStates {
		if !o.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	sort.Strings(unvisited)
	return unvisited
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset clears visits and violations
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates = make(map[string]bool)
	o.violations = nil
}
