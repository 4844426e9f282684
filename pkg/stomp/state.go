package stomp

import (
	"github.com/dmitrymomot/caronakit/pkg/statemachine"
)

// State is the lifecycle state of a Manager's connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

var stateNames = []string{"disconnected", "connecting", "connected", "reconnecting"}

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state name, so JSON shows "connected" instead of 2.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateChange is delivered to OnStateChange listeners.
// Err carries the cause for transitions into StateReconnecting.
type StateChange struct {
	From State
	To   State
	Err  error
}

type event string

const (
	evActivate   event = "activate"
	evAck        event = "ack"
	evFail       event = "fail"
	evLost       event = "lost"
	evRetry      event = "retry"
	evDeactivate event = "deactivate"
)

func newLifecycle(hook statemachine.Hook[State, event]) *statemachine.Machine[State, event] {
	return statemachine.MustNew(StateDisconnected,
		statemachine.WithTransition(StateDisconnected, evActivate, StateConnecting),
		statemachine.WithTransition(StateConnecting, evAck, StateConnected),
		statemachine.WithTransition(StateConnecting, evFail, StateReconnecting),
		statemachine.WithTransition(StateConnected, evLost, StateReconnecting),
		statemachine.WithTransition(StateReconnecting, evRetry, StateConnecting),
		statemachine.WithAnyTransition(evDeactivate, StateDisconnected),
		statemachine.WithHook(hook),
	)
}
