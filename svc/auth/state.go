package auth

import (
	"context"

	"github.com/jrmsu/libraryid/pkg/statemachine"
)

// State is a step of a sign-in attempt.
type State string

const (
	Unauthenticated      State = "unauthenticated"
	CredentialsAccepted  State = "credentials_accepted"
	QRPresented          State = "qr_presented"
	QRValidated          State = "qr_validated"
	AwaitingSecondFactor State = "awaiting_second_factor"
	Authenticated        State = "authenticated"
)

// Event drives an attempt between states.
type Event string

const (
	EventCredentialsAccepted Event = "credentials_accepted"
	EventPresentQR           Event = "present_qr"
	EventEnvelopeValid       Event = "envelope_valid"
	EventReject              Event = "reject"
	EventRequireSecondFactor Event = "require_second_factor"
	EventGrant               Event = "grant"
	EventSubmitCode          Event = "submit_code"
)

// codeCheck is the event data for EventSubmitCode.
type codeCheck struct {
	valid bool
}

type machine = statemachine.Machine[State, Event]

// newMachine builds the graph for one attempt. grant runs while entering
// Authenticated; its error keeps the attempt where it was.
func newMachine(a *Attempt, grant statemachine.Action[State, Event]) *machine {
	needsSecondFactor := func(context.Context, State, Event, any) bool {
		return a.Identity.SecondFactorEnabled
	}
	noSecondFactor := func(context.Context, State, Event, any) bool {
		return !a.Identity.SecondFactorEnabled
	}
	codeValid := func(_ context.Context, _ State, _ Event, data any) bool {
		c, ok := data.(codeCheck)
		return ok && c.valid
	}

	opts := []statemachine.Option[State, Event]{
		statemachine.WithTransition[State, Event](Unauthenticated, CredentialsAccepted, EventCredentialsAccepted),
		statemachine.WithTransition[State, Event](Unauthenticated, QRPresented, EventPresentQR),
		statemachine.WithTransition[State, Event](QRPresented, QRValidated, EventEnvelopeValid),
		statemachine.WithTransition[State, Event](QRPresented, Unauthenticated, EventReject),
		statemachine.WithTransition[State, Event](QRValidated, Unauthenticated, EventReject),
		statemachine.WithTransition[State, Event](AwaitingSecondFactor, Unauthenticated, EventReject),
	}
	for _, from := range []State{CredentialsAccepted, QRValidated} {
		opts = append(opts,
			statemachine.WithTransition(from, AwaitingSecondFactor, EventRequireSecondFactor,
				statemachine.WithGuard[State, Event](needsSecondFactor)),
			statemachine.WithTransition(from, Authenticated, EventGrant,
				statemachine.WithGuard[State, Event](noSecondFactor),
				statemachine.WithAction(grant)),
		)
	}
	opts = append(opts, statemachine.WithTransition(AwaitingSecondFactor, Authenticated, EventSubmitCode,
		statemachine.WithGuard[State, Event](codeValid),
		statemachine.WithAction(grant)))

	return statemachine.MustNew(Unauthenticated, opts...)
}
