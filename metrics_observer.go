package hsm

import (
	"sync"
	"time"
)

// MetricsObserver collects counters about machine execution. It is safe to
// read from another goroutine while the machine runs.
type MetricsObserver struct {
	BaseObserver
	stateVisits      map[string]int
	stateTimeSpent   map[string]time.Duration
	lastStateEntry   map[string]time.Time
	transitionCounts map[string]int
	rejectedCounts   map[string]int
	errorCount       int
	mutex            sync.RWMutex
	now              func() time.Time
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		stateVisits:      make(map[string]int),
		stateTimeSpent:   make(map[string]time.Duration),
		lastStateEntry:   make(map[string]time.Time),
		transitionCounts: make(map[string]int),
		rejectedCounts:   make(map[string]int),
		now:              time.Now,
	}
}

// OnStateEnter records state entry
func (o *MetricsObserver) OnStateEnter(state string, event *Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits[state]++
	o.lastStateEntry[state] = o.now()
}

// OnStateExit records time spent in the state
func (o *MetricsObserver) OnStateExit(state string, event *Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if entryTime, ok := o.lastStateEntry[state]; ok {
		o.stateTimeSpent[state] += o.now().Sub(entryTime)
		delete(o.lastStateEntry, state)
	}
}

// OnTransition records transitions keyed "from->to"
func (o *MetricsObserver) OnTransition(from string, to string, event *Event) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.transitionCounts[from+"->"+to]++
}

// OnEventRejected records ignored events by label
func (o *MetricsObserver) OnEventRejected(event *Event, reason string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.rejectedCounts[event.Label()]++
}

// OnError records callback failures
func (o *MetricsObserver) OnError(err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.errorCount++
}

// GetStateVisitCounts returns the number of times each state was entered
func (o *MetricsObserver) GetStateVisitCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return copyCounts(o.stateVisits)
}

// GetStateTimeSpent returns the time spent in each state that has been exited
func (o *MetricsObserver) GetStateTimeSpent() map[string]time.Duration {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make(map[string]time.Duration, len(o.stateTimeSpent))
	for state, duration := range o.stateTimeSpent {
		result[state] = duration
	}
	return result
}

// GetTransitionCounts returns the number of times each transition occurred
func (o *MetricsObserver) GetTransitionCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return copyCounts(o.transitionCounts)
}

// GetRejectedCounts returns the number of times each event label was ignored
func (o *MetricsObserver) GetRejectedCounts() map[string]int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return copyCounts(o.rejectedCounts)
}

// GetErrorCount returns the number of errors
func (o *MetricsObserver) GetErrorCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.errorCount
}

// Reset resets all metrics
func (o *MetricsObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.stateVisits = make(map[string]int)
	o.stateTimeSpent = make(map[string]time.Duration)
	o.lastStateEntry = make(map[string]time.Time)
	o.transitionCounts = make(map[string]int)
	o.rejectedCounts = make(map[string]int)
	o.errorCount = 0
}

func copyCounts(src map[string]int) map[string]int {
	result := make(map[string]int, len(src))
	for k, v := range src {
		result[k] = v
	}
	return result
}
