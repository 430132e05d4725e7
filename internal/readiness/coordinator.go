// Package readiness implements the per-client readiness protocol that gates
// when a new card may be requested versus when an answer is required.
//
// Transition table:
//
//	AwaitingCard    + ready issued        -> WaitingForPeers
//	WaitingForPeers + ready failed        -> AwaitingCard
//	any             + card, ledger < 2    -> AwaitingCard
//	any             + card, ledger >= 2   -> AwaitingAnswer
//	AwaitingAnswer  + answer acknowledged -> AwaitingAnswer
//	any             + answered notice     -> AwaitingCard
//
// Card and answered notices are authoritative and apply from any state.
// Local requests are only permitted from the state named in the table; a
// refused request must never reach the network.
package readiness

import (
	"errors"
	"fmt"
)

// State is the readiness phase of the local client.
type State uint8

const (
	// AwaitingCard: the client may request the next card.
	AwaitingCard State = iota
	// WaitingForPeers: a ready request is out; blocked until a card is dealt.
	WaitingForPeers
	// AwaitingAnswer: two or more cards are dealt; an answer is required.
	AwaitingAnswer
)

// String returns the protocol name of the state.
func (s State) String() string {
	switch s {
	case AwaitingCard:
		return "AWAITING_CARD"
	case WaitingForPeers:
		return "WAITING_FOR_PEERS"
	case AwaitingAnswer:
		return "AWAITING_ANSWER"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrNotPermitted is returned when a local request is refused by the gate.
var ErrNotPermitted = errors.New("action not permitted in current readiness state")

// Coordinator is the readiness state machine. It is a small value; every
// transition returns a new Coordinator.
// The zero value is AwaitingCard.
type Coordinator struct {
	state State
}

// At returns a coordinator positioned at state s.
func At(s State) Coordinator {
	return Coordinator{state: s}
}

// State returns the current readiness state.
func (c Coordinator) State() State {
	return c.state
}

// PermitReady checks whether a ready request may be sent now.
func (c Coordinator) PermitReady() error {
	if c.state != AwaitingCard {
		return fmt.Errorf("ready request in %s: %w", c.state, ErrNotPermitted)
	}
	return nil
}

// PermitSubmit checks whether an answer may be submitted now.
func (c Coordinator) PermitSubmit() error {
	if c.state != AwaitingAnswer {
		return fmt.Errorf("answer submission in %s: %w", c.state, ErrNotPermitted)
	}
	return nil
}

// ReadyIssued records that a ready request has been sent.
func (c Coordinator) ReadyIssued() (Coordinator, error) {
	if err := c.PermitReady(); err != nil {
		return c, err
	}
	return Coordinator{state: WaitingForPeers}, nil
}

// ReadyFailed restores the pre-call state after a failed ready request so
// the request can be retried. Has no effect unless still WaitingForPeers.
func (c Coordinator) ReadyFailed() Coordinator {
	if c.state != WaitingForPeers {
		return c
	}
	return Coordinator{state: AwaitingCard}
}

// CardDealt applies a newly dealt card given the resulting ledger length.
func (c Coordinator) CardDealt(ledgerLen int) Coordinator {
	if ledgerLen < 2 {
		return Coordinator{state: AwaitingCard}
	}
	return Coordinator{state: AwaitingAnswer}
}

// Answered applies an adjudication notice.
func (c Coordinator) Answered() Coordinator {
	return Coordinator{state: AwaitingCard}
}
