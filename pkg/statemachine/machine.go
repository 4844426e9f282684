package statemachine

import (
	"fmt"
	"sync"
)

// Guard decides at fire time whether a declared transition may proceed.
type Guard[S, E comparable] func(from S, event E) bool

// Transition describes one applied state change.
type Transition[S, E comparable] struct {
	From  S
	To    S
	Event E
}

// Hook observes applied transitions. Hooks run after the machine lock is
// released, in registration order, on the goroutine that called Fire.
type Hook[S, E comparable] func(Transition[S, E])

type edge[S, E comparable] struct {
	to     S
	guards []Guard[S, E]
}

// Machine is a thread-safe finite state machine over comparable state and
// event types. Transitions are looked up by (from, event); wildcard
// transitions declared with WithAnyTransition apply from every state and are
// consulted only when no specific transition matches.
type Machine[S, E comparable] struct {
	initial  S
	current  S
	edges    map[S]map[E][]edge[S, E]
	wildcard map[E][]edge[S, E]
	hooks    []Hook[S, E]
	mu       sync.RWMutex
}

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// WithTransition declares from --event--> to. Several transitions may share
// (from, event); the first whose guards all pass wins.
func WithTransition[S, E comparable](from S, event E, to S, guards ...Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if m.edges[from] == nil {
			m.edges[from] = make(map[E][]edge[S, E])
		}
		m.edges[from][event] = append(m.edges[from][event], edge[S, E]{to: to, guards: guards})
		return nil
	}
}

// WithAnyTransition declares event --> to from every state.
func WithAnyTransition[S, E comparable](event E, to S, guards ...Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		m.wildcard[event] = append(m.wildcard[event], edge[S, E]{to: to, guards: guards})
		return nil
	}
}

// WithHook registers a transition observer.
func WithHook[S, E comparable](hook Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if hook == nil {
			return ErrNilHook
		}
		m.hooks = append(m.hooks, hook)
		return nil
	}
}

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:  initial,
		current:  initial,
		edges:    make(map[S]map[E][]edge[S, E]),
		wildcard: make(map[E][]edge[S, E]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on a configuration error.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is currently in state s.
func (m *Machine[S, E]) Is(s S) bool {
	return m.Current() == s
}

// Fire applies event to the current state. It returns the applied transition,
// or an *ErrNoTransition / *ErrTransitionRejected error leaving the state untouched.
func (m *Machine[S, E]) Fire(event E) (Transition[S, E], error) {
	m.mu.Lock()
	from := m.current
	to, err := m.resolve(from, event)
	if err != nil {
		m.mu.Unlock()
		return Transition[S, E]{}, err
	}
	m.current = to
	hooks := m.hooks
	m.mu.Unlock()

	tr := Transition[S, E]{From: from, To: to, Event: event}
	for _, h := range hooks {
		h(tr)
	}
	return tr, nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.resolve(m.current, event)
	return err == nil
}

// Reset returns the machine to its initial state without running hooks.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	m.current = m.initial
	m.mu.Unlock()
}

// resolve must be called with m.mu held.
func (m *Machine[S, E]) resolve(from S, event E) (S, error) {
	candidates := m.edges[from][event]
	if len(candidates) == 0 {
		candidates = m.wildcard[event]
	}
	if len(candidates) == 0 {
		var zero S
		return zero, &ErrNoTransition{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for _, e := range candidates {
		if allow(e.guards, from, event) {
			return e.to, nil
		}
	}
	var zero S
	return zero, &ErrTransitionRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
}

func allow[S, E comparable](guards []Guard[S, E], from S, event E) bool {
	for _, g := range guards {
		if g != nil && !g(from, event) {
			return false
		}
	}
	return true
}
