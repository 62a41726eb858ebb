package hsm

import "fmt"

// Observer represents an entity that observes state machine lifecycle
type Observer interface {
	// Required methods

	// OnTransition is called when an external transition completes
	OnTransition(from string, to string, event *Event)

	// OnStateEnter is called after a state's entry callback ran
	OnStateEnter(state string, event *Event)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnStateExit is called after a state's exit callback ran
	OnStateExit(state string, event *Event)

	// OnGuardEvaluation is called when a guard or choice predicate is evaluated
	OnGuardEvaluation(state string, event *Event, result bool)

	// OnEventRejected is called when an event is ignored
	OnEventRejected(event *Event, reason string)

	// OnError is called when a callback fails
	OnError(err error)

	// OnActionExecution is called before a callback runs
	OnActionExecution(actionType string, state string, event *Event)

	// OnMachineStarted is called once Init has entered the initial configuration
	OnMachineStarted()

	// OnMachineTerminated is called once Terminate has unwound the configuration
	OnMachineTerminated()
}

// BaseObserver provides a default implementation with no-op methods
type BaseObserver struct{}

// OnTransition implements the required Observer method
func (o *BaseObserver) OnTransition(from string, to string, event *Event) {}

// OnStateEnter implements the required Observer method
func (o *BaseObserver) OnStateEnter(state string, event *Event) {}

// OnStateExit implements the optional ExtendedObserver method
func (o *BaseObserver) OnStateExit(state string, event *Event) {}

// OnGuardEvaluation implements the optional ExtendedObserver method
func (o *BaseObserver) OnGuardEvaluation(state string, event *Event, result bool) {}

// OnEventRejected implements the optional ExtendedObserver method
func (o *BaseObserver) OnEventRejected(event *Event, reason string) {}

// OnError implements the optional ExtendedObserver method
func (o *BaseObserver) OnError(err error) {}

// OnActionExecution implements the optional ExtendedObserver method
func (o *BaseObserver) OnActionExecution(actionType string, state string, event *Event) {}

// OnMachineStarted implements the optional ExtendedObserver method
func (o *BaseObserver) OnMachineStarted() {}

// OnMachineTerminated implements the optional ExtendedObserver method
func (o *BaseObserver) OnMachineTerminated() {}

// ObserverManager fans notifications out to observers. A panicking observer
// is reported through OnError and never disturbs the machine.
type ObserverManager struct {
	observers []Observer
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager) Len() int {
	return len(om.observers)
}

// each calls fn for every observer, isolating panics
func (om *ObserverManager) each(method string, fn func(Observer)) {
	if len(om.observers) == 0 {
		return
	}
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)

	for _, observer := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if extObs, ok := observer.(ExtendedObserver); ok {
						func() {
							defer func() { recover() }()
							extObs.OnError(fmt.Errorf("observer panic in %s: %v", method, r))
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

// eachExtended calls fn for every observer implementing ExtendedObserver
func (om *ObserverManager) eachExtended(method string, fn func(ExtendedObserver)) {
	om.each(method, func(observer Observer) {
		if extObs, ok := observer.(ExtendedObserver); ok {
			fn(extObs)
		}
	})
}

// NotifyTransition notifies all observers of a state transition
func (om *ObserverManager) NotifyTransition(from string, to string, event *Event) {
	om.each("OnTransition", func(o Observer) { o.OnTransition(from, to, event) })
}

// NotifyStateEnter notifies all observers of state entry
func (om *ObserverManager) NotifyStateEnter(state string, event *Event) {
	om.each("OnStateEnter", func(o Observer) { o.OnStateEnter(state, event) })
}

// NotifyStateExit notifies all observers of state exit
func (om *ObserverManager) NotifyStateExit(state string, event *Event) {
	om.eachExtended("OnStateExit", func(o ExtendedObserver) { o.OnStateExit(state, event) })
}

// NotifyGuardEvaluation notifies all observers of guard evaluation
func (om *ObserverManager) NotifyGuardEvaluation(state string, event *Event, result bool) {
	om.eachExtended("OnGuardEvaluation", func(o ExtendedObserver) { o.OnGuardEvaluation(state, event, result) })
}

// NotifyEventRejected notifies all observers of event rejection
func (om *ObserverManager) NotifyEventRejected(event *Event, reason string) {
	om.eachExtended("OnEventRejected", func(o ExtendedObserver) { o.OnEventRejected(event, reason) })
}

// NotifyError notifies all observers of errors
func (om *ObserverManager) NotifyError(err error) {
	om.eachExtended("OnError", func(o ExtendedObserver) { o.OnError(err) })
}

// NotifyActionExecution notifies all observers of action execution
func (om *ObserverManager) NotifyActionExecution(actionType string, state string, event *Event) {
	om.eachExtended("OnActionExecution", func(o ExtendedObserver) { o.OnActionExecution(actionType, state, event) })
}

// NotifyMachineStarted notifies all observers that the machine has started
func (om *ObserverManager) NotifyMachineStarted() {
	om.eachExtended("OnMachineStarted", func(o ExtendedObserver) { o.OnMachineStarted() })
}

// NotifyMachineTerminated notifies all observers that the machine has terminated
func (om *ObserverManager) NotifyMachineTerminated() {
	om.eachExtended("OnMachineTerminated", func(o ExtendedObserver) { o.OnMachineTerminated() })
}
