package hsm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder logs every callback invocation as "name(event)"
type recorder struct {
	calls []string
}

func (r *recorder) record(name string, e *Event) {
	r.calls = append(r.calls, fmt.Sprintf("%s(%s)", name, e.Label()))
}

// take returns the calls recorded so far and clears the log
func (r *recorder) take() []string {
	calls := r.calls
	r.calls = nil
	return calls
}

// abcFixture is the reference model:
//
//	A --toB[ab]--> B --toC[bc]--> C --toA[ca]--> A
//	A --toBC[abc]--> B        B --toB[bb]--> (internal)
//	A --toD[ad]--> D(choice: true -> B, false -> C)
//	C --toC[cc]--> C
//	C has regions xy (X <-> Y) and pq (P <-> Q, with history)
type abcFixture struct {
	rec    *recorder
	guards map[string]bool
	preds  map[string]bool
	emits  map[string][]*Event

	toA, toB, toC, toBC, toD *Event
	toX, toY, toP, toQ       *Event

	a, b, c, d, x, y, p, q StateID
	xy, pq, root           RegionID

	model *Model
	m     *Machine
}

func (f *abcFixture) cb(name string) Callback {
	return func(e *Event) []*Event {
		f.rec.record(name, e)
		return f.emits[name]
	}
}

func (f *abcFixture) guard(name string) Guard {
	return func(e *Event) bool {
		f.rec.record(name+"Guard", e)
		result, ok := f.guards[name]
		return !ok || result
	}
}

func (f *abcFixture) predicate(name string) Predicate {
	return func(e *Event) bool {
		f.rec.record(name+"Predicate", e)
		return f.preds[name]
	}
}

func newABCFixture(t *testing.T, opts ...MachineOption) *abcFixture {
	t.Helper()

	f := &abcFixture{
		rec:    &recorder{},
		guards: make(map[string]bool),
		preds:  make(map[string]bool),
		emits:  make(map[string][]*Event),
	}

	f.toA = NewEvent("-a")
	f.toB = NewEvent("-b")
	f.toC = NewEvent("-c")
	f.toBC = NewEvent("-b-c")
	f.toD = NewEvent("-d")
	f.toX = NewEvent("y-x")
	f.toY = NewEvent("x-y")
	f.toP = NewEvent("q-p")
	f.toQ = NewEvent("p-q")

	b := NewBuilder()

	f.x = b.State("X").OnEnter(f.cb("xEnter")).OnExit(f.cb("xExit")).ID()
	f.y = b.State("Y").OnEnter(f.cb("yEnter")).OnExit(f.cb("yExit")).ID()
	f.xy = b.Region(f.x)

	f.p = b.State("P").OnEnter(f.cb("pEnter")).OnExit(f.cb("pExit")).ID()
	f.q = b.State("Q").OnEnter(f.cb("qEnter")).OnExit(f.cb("qExit")).ID()
	f.pq = b.Region(f.p, WithHistory())

	f.a = b.State("A").OnEnter(f.cb("aEnter")).OnExit(f.cb("aExit")).ID()
	f.b = b.State("B").OnEnter(f.cb("bEnter")).OnExit(f.cb("bExit")).ID()
	f.c = b.State("C").OnEnter(f.cb("cEnter")).OnExit(f.cb("cExit")).Regions(f.xy, f.pq).ID()
	f.d = b.Choice("D", f.predicate("d"),
		Transition(f.cb("dbAction"), f.b),
		Transition(f.cb("dcAction"), f.c))

	b.Reactions(f.a).
		On(f.toB, Guarded(f.guard("ab"), f.cb("abAction"), f.b)).
		On(f.toBC, Guarded(f.guard("abc"), f.cb("abcAction"), f.b)).
		On(f.toD, Guarded(f.guard("ad"), f.cb("adAction"), f.d))
	b.Reactions(f.b).
		On(f.toB, GuardedInternal(f.guard("bb"), f.cb("bbAction"))).
		On(f.toC, Guarded(f.guard("bc"), f.cb("bcAction"), f.c))
	b.Reactions(f.c).
		On(f.toA, Guarded(f.guard("ca"), f.cb("caAction"), f.a)).
		On(f.toC, Guarded(f.guard("cc"), f.cb("ccAction"), f.c))

	b.Reactions(f.x).On(f.toY, Guarded(f.guard("xy"), f.cb("xyAction"), f.y))
	b.Reactions(f.y).On(f.toX, Guarded(f.guard("yx"), f.cb("yxAction"), f.x))
	b.Reactions(f.p).On(f.toQ, Guarded(f.guard("pq"), f.cb("pqAction"), f.q))
	b.Reactions(f.q).On(f.toP, Guarded(f.guard("qp"), f.cb("qpAction"), f.p))

	f.root = b.Region(f.a)

	model, err := b.Build(f.root)
	require.NoError(t, err)
	f.model = model
	f.m = NewMachine(model, opts...)
	return f
}

// initialized returns a fixture whose machine has been initialized and
// whose recorder has been cleared
func initialized(t *testing.T, opts ...MachineOption) *abcFixture {
	t.Helper()
	f := newABCFixture(t, opts...)
	require.NoError(t, f.m.Init())
	require.Equal(t, []string{"aEnter(INITIALIZE)"}, f.rec.take())
	return f
}

// TestObserver captures every observer notification
type TestObserver struct {
	Transitions  []string
	StateEnters  []string
	StateExits   []string
	EventRejects []string
	Errors       []error
	Actions      []string
	Guards       []string
	Started      int
	Terminated   int
}

// NewTestObserver creates a new test observer
func NewTestObserver() *TestObserver {
	return &TestObserver{}
}

func (o *TestObserver) OnTransition(from string, to string, event *Event) {
	o.Transitions = append(o.Transitions, fmt.Sprintf("%s->%s(%s)", from, to, event.Label()))
}

func (o *TestObserver) OnStateEnter(state string, event *Event) {
	o.StateEnters = append(o.StateEnters, state)
}

func (o *TestObserver) OnStateExit(state string, event *Event) {
	o.StateExits = append(o.StateExits, state)
}

func (o *TestObserver) OnGuardEvaluation(state string, event *Event, result bool) {
	o.Guards = append(o.Guards, fmt.Sprintf("%s(%s)=%t", state, event.Label(), result))
}

func (o *TestObserver) OnEventRejected(event *Event, reason string) {
	o.EventRejects = append(o.EventRejects, event.Label())
}

func (o *TestObserver) OnError(err error) {
	o.Errors = append(o.Errors, err)
}

func (o *TestObserver) OnActionExecution(actionType string, state string, event *Event) {
	o.Actions = append(o.Actions, fmt.Sprintf("%s:%s", actionType, state))
}

func (o *TestObserver) OnMachineStarted() {
	o.Started++
}

func (o *TestObserver) OnMachineTerminated() {
	o.Terminated++
}

// Reset clears all captured notifications
func (o *TestObserver) Reset() {
	*o = TestObserver{}
}
