package statemachine

import (
	"errors"
	"fmt"
)

var ErrNilHook = errors.New("statemachine: hook cannot be nil")

// ErrNoTransition indicates no transition is declared for the state/event pair.
type ErrNoTransition struct {
	State string
	Event string
}

func (e *ErrNoTransition) Error() string {
	return fmt.Sprintf("statemachine: no transition from state %q on event %q", e.State, e.Event)
}

// ErrTransitionRejected indicates every candidate transition was blocked by a guard.
type ErrTransitionRejected struct {
	State string
	Event string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("statemachine: transition from state %q on event %q rejected by guards", e.State, e.Event)
}

func IsNoTransition(err error) bool {
	var e *ErrNoTransition
	return errors.As(err, &e)
}

func IsTransitionRejected(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
