package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoTransition = errors.New("no transition available")
	ErrRejected     = errors.New("transition rejected by guards")
)

// NoTransitionError means no edge is defined for the state/event pair.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

func (e *NoTransitionError) Is(target error) bool { return target == ErrNoTransition }

// RejectedError means edges exist but every guard set refused the event.
type RejectedError struct {
	State string
	Event string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.State, e.Event)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }
