// Package statemachine provides a small, generic, thread-safe finite state
// machine.
//
// States and events are any comparable types, typically string-backed enums:
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew[State, Event]("idle",
//	    statemachine.WithTransition[State, Event]("idle", "start", "running"),
//	    statemachine.WithAnyTransition[State, Event]("halt", "idle"),
//	    statemachine.WithHook(func(tr statemachine.Transition[State, Event]) {
//	        log.Printf("%s -> %s", tr.From, tr.To)
//	    }),
//	)
//
//	if _, err := m.Fire("start"); statemachine.IsNoTransition(err) {
//	    // event not valid in the current state
//	}
//
// Specific transitions take precedence over wildcard ones. Hooks run after
// the state is updated and the internal lock is released, so a hook may read
// Current or fire further events.
package statemachine
