package session

import (
	"errors"
	"fmt"

	"github.com/roach88/dobble/internal/game"
)

// Gate refusals. Each is wrapped with the action name by admit.
var (
	ErrPlayerAssigned = errors.New("player already assigned for this session")
	ErrNoPlayer       = errors.New("no player assigned yet")
	ErrNotStarted     = errors.New("game not started")
	ErrAlreadyStarted = errors.New("game already started")
	ErrPairIncomplete = errors.New("fewer than two cards dealt")
	ErrUnknownAction  = errors.New("unknown action")
)

// admit decides whether action may be issued from state s.
// A nil result means the request may go to the network.
func admit(s State, action ActionKind) error {
	var err error
	switch action {
	case ActionCreate, ActionJoin:
		if s.Player != nil {
			err = ErrPlayerAssigned
		}
	case ActionStart:
		switch {
		case s.Player == nil:
			err = ErrNoPlayer
		case s.Session.Status == game.StatusStarted:
			err = ErrAlreadyStarted
		}
	case ActionReady:
		switch {
		case s.Player == nil:
			err = ErrNoPlayer
		case s.Session.Status != game.StatusStarted:
			err = ErrNotStarted
		default:
			err = s.Readiness.PermitReady()
		}
	case ActionSubmit:
		switch {
		case s.Player == nil:
			err = ErrNoPlayer
		case s.Session.Status != game.StatusStarted:
			err = ErrNotStarted
		case s.Ledger.Len() < 2:
			err = ErrPairIncomplete
		default:
			err = s.Readiness.PermitSubmit()
		}
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

// Admit exposes the gate decision without reducing. Callers that need the
// decision and the transition atomically must reduce an ActionIssued instead.
func Admit(s State, action ActionKind) error {
	return admit(s, action)
}
