package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Guard decides whether a transition may be taken for the given event data.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action runs a side effect while a transition is taken. Returning an error
// aborts the transition and leaves the machine in its current state.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Transition is a guarded edge of the state graph.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the state changes
}

// Machine is a thread-safe finite state machine over comparable state and
// event types. Transitions are looked up by [from][event]; when several share
// a key, the first one whose guards pass wins.
type Machine[S, E comparable] struct {
	mu          sync.Mutex
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]
	trail       []S
}

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
		trail:       []S{initial},
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a configuration error.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Trail returns every state entered since creation or the last Reset, in order.
func (m *Machine[S, E]) Trail() []S {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]S, len(m.trail))
	copy(out, m.trail)
	return out
}

// AddTransition registers an edge.
func (m *Machine[S, E]) AddTransition(t Transition[S, E]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return &NoTransitionError{State: fmt.Sprint(m.current), Event: fmt.Sprint(event)}
	}

	t, ok := m.selectLocked(ctx, candidates, event, data)
	if !ok {
		return &RejectedError{State: fmt.Sprint(m.current), Event: fmt.Sprint(event)}
	}

	for _, action := range t.Actions {
		if err := action(ctx, m.current, t.To, event, data); err != nil {
			return err
		}
	}

	m.current = t.To
	m.trail = append(m.trail, t.To)
	return nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selectLocked(ctx, m.transitions[m.current][event], event, data)
	return ok
}

// Reset returns the machine to its initial state.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
	m.trail = []S{m.initial}
}

func (m *Machine[S, E]) selectLocked(ctx context.Context, candidates []Transition[S, E], event E, data any) (Transition[S, E], bool) {
	for _, t := range candidates {
		passed := true
		for _, guard := range t.Guards {
			if !guard(ctx, m.current, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return t, true
		}
	}
	return Transition[S, E]{}, false
}
