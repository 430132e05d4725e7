package session

import (
	"fmt"
	"slices"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/scoreboard"
)

// Effect is an outbound side effect requested by a reduction. The reducer
// never performs effects; the caller does.
type Effect uint8

const (
	// EffectRefreshGames asks the lobby collaborator to refetch the game list.
	EffectRefreshGames Effect = iota + 1
)

// String returns the effect name.
func (e Effect) String() string {
	switch e {
	case EffectRefreshGames:
		return "refresh_games"
	default:
		return fmt.Sprintf("Effect(%d)", uint8(e))
	}
}

// Reduction is the outcome of reducing one event.
type Reduction struct {
	// State is the next state. Equal to the input when Changed is false.
	State State

	// Effects lists side effects the caller must perform.
	Effects []Effect

	// Changed reports whether State differs from the input.
	Changed bool

	// Err is set when an ActionIssued event was refused by the gate.
	Err error
}

// Reduce folds one event into s.
//
// Reduce is pure: it does not block, does no I/O, and never mutates s.
// Events that are unknown, malformed, stale or duplicated produce an
// unchanged state rather than an error. Only a refused ActionIssued
// reports Err, because its caller must not go on to issue the request.
func Reduce(s State, ev Event) Reduction {
	switch e := ev.(type) {
	case ActionAck:
		return reduceAck(s, e)
	case PushNotice:
		return reduceNotice(s, e)
	case ActionIssued:
		return reduceIssued(s, e)
	case ActionFailed:
		return reduceFailed(s, e)
	case GamesListed:
		s.Games = slices.Clone(e.Games)
		return changed(s)
	default:
		return unchanged(s)
	}
}

func unchanged(s State) Reduction {
	return Reduction{State: s}
}

func changed(s State) Reduction {
	return Reduction{State: s, Changed: true}
}

// advance moves the lifecycle forward to target. Backward moves are ignored.
func advance(s State, target game.Status) (State, bool) {
	if !s.Session.Status.Before(target) {
		return s, false
	}
	s.Session.Status = target
	return s, true
}

// inOtherGame reports whether a scoped notice targets a game other than
// the one the local player belongs to.
func inOtherGame(s State, gameID int64) bool {
	return gameID != 0 && s.Player != nil && s.Player.GameID != gameID
}

func reduceAck(s State, e ActionAck) Reduction {
	switch e.Action {
	case ActionCreate, ActionJoin:
		if e.Player == nil {
			return unchanged(s)
		}
		if s.Player != nil {
			// Player is immutable once set; duplicate acks are absorbed.
			return unchanged(s)
		}
		p := *e.Player
		s.Player = &p

		target := game.StatusJoined
		if e.Action == ActionCreate {
			target = game.StatusCreated
			s.Session.DisplayName = e.GameName
		}
		s, _ = advance(s, target)
		return changed(s)

	case ActionStart:
		// Optimistic: same transition the STARTED notice will confirm.
		var gameID int64
		if s.Player != nil {
			gameID = s.Player.GameID
		}
		return reduceStarted(s, gameID)

	default:
		// Ready and submit acks carry nothing new; the gate moved at issue
		// time and adjudication arrives as an ANSWERED notice.
		return unchanged(s)
	}
}

func reduceNotice(s State, e PushNotice) Reduction {
	switch e.Notice {
	case NoticeCreated:
		return Reduction{State: s, Effects: []Effect{EffectRefreshGames}}

	case NoticeJoined:
		if s.Session.Status != game.StatusJoined {
			return unchanged(s)
		}
		s, _ = advance(s, game.StatusReady)
		return changed(s)

	case NoticeStarted:
		return reduceStarted(s, e.GameID)

	case NoticeCard:
		if e.Card == nil || inOtherGame(s, e.GameID) {
			return unchanged(s)
		}
		next, ok := s.Ledger.Append(*e.Card)
		if !ok {
			return unchanged(s)
		}
		s.Ledger = next
		s.Readiness = s.Readiness.CardDealt(next.Len())
		return changed(s)

	case NoticeAnswered:
		if e.Answer == nil {
			return unchanged(s)
		}
		return reduceAnswered(s, *e.Answer)

	default:
		return unchanged(s)
	}
}

func reduceStarted(s State, gameID int64) Reduction {
	if inOtherGame(s, gameID) {
		return unchanged(s)
	}
	s, moved := advance(s, game.StatusStarted)
	if !moved {
		return unchanged(s)
	}
	return changed(s)
}

func reduceAnswered(s State, a AnswerNotice) Reduction {
	pair, _ := s.Ledger.LatestPair()
	s.Answer = &game.AnswerResult{
		PlayerID:  a.PlayerID,
		Card1ID:   pair.First.ID,
		Card2ID:   pair.Second.ID,
		Submitted: a.Answer,
		Correct:   a.CorrectSymbol,
		IsCorrect: a.IsCorrect,
	}
	if a.Scores != nil {
		s.Scores = scoreboard.Replace(a.Scores)
	}
	s.Readiness = s.Readiness.Answered()
	return changed(s)
}

func reduceIssued(s State, e ActionIssued) Reduction {
	if err := admit(s, e.Action); err != nil {
		return Reduction{State: s, Err: err}
	}
	if e.Action != ActionReady {
		return unchanged(s)
	}
	next, err := s.Readiness.ReadyIssued()
	if err != nil {
		return Reduction{State: s, Err: err}
	}
	s.Readiness = next
	return changed(s)
}

func reduceFailed(s State, e ActionFailed) Reduction {
	if e.Action != ActionReady {
		return unchanged(s)
	}
	next := s.Readiness.ReadyFailed()
	if next == s.Readiness {
		return unchanged(s)
	}
	s.Readiness = next
	return changed(s)
}
