// Package statemachine provides a small generic finite state machine with
// guarded transitions and side-effecting actions.
//
// States and events are any comparable types, typically string-based
// constants:
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew(Idle,
//		statemachine.WithTransition(Idle, Running, Start,
//			statemachine.WithGuard(canStart),
//			statemachine.WithAction(onStart),
//		),
//	)
//	err := m.Fire(ctx, Start, payload)
//
// Several transitions may share a [from][event] key; they are tried in
// registration order and the first whose guards all pass is taken. Actions
// run before the state changes, and an action error aborts the transition.
// Fire returns *NoTransitionError or *RejectedError (matching ErrNoTransition
// and ErrRejected) when no edge applies.
package statemachine
