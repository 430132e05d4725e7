package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/session"
)

// Actions follow one shape:
//
//  1. issue: the loop reduces ActionIssued. A refusal returns NOT_PERMITTED
//     and nothing is sent.
//  2. The gateway call runs on the caller's goroutine.
//  3. Success enqueues an ActionAck; failure enqueues ActionFailed, which
//     rolls back whatever the issue reserved, and returns GATEWAY_FAILED.
//
// Push notices may be reduced between any two steps; the reducer tolerates
// every interleaving.

// CreateGame creates a game named gameName and joins it as playerName.
func (e *Engine) CreateGame(ctx context.Context, gameName, playerName string) (game.Player, error) {
	if _, err := e.issue(ctx, session.ActionCreate); err != nil {
		return game.Player{}, err
	}

	cctx, cancel := e.requestContext(ctx)
	defer cancel()
	p, err := e.gw.CreateGame(cctx, gameName, playerName)
	if err != nil {
		return game.Player{}, e.fail(session.ActionCreate, err)
	}

	e.Enqueue(session.ActionAck{Action: session.ActionCreate, Player: &p, GameName: gameName})
	return p, nil
}

// JoinGame joins game gameID as playerName.
func (e *Engine) JoinGame(ctx context.Context, gameID int64, playerName string) (game.Player, error) {
	if _, err := e.issue(ctx, session.ActionJoin); err != nil {
		return game.Player{}, err
	}

	cctx, cancel := e.requestContext(ctx)
	defer cancel()
	p, err := e.gw.JoinGame(cctx, gameID, playerName)
	if err != nil {
		return game.Player{}, e.fail(session.ActionJoin, err)
	}

	e.Enqueue(session.ActionAck{Action: session.ActionJoin, Player: &p})
	return p, nil
}

// StartGame starts the local player's game.
func (e *Engine) StartGame(ctx context.Context) error {
	st, err := e.issue(ctx, session.ActionStart)
	if err != nil {
		return err
	}

	cctx, cancel := e.requestContext(ctx)
	defer cancel()
	if err := e.gw.StartGame(cctx, st.Player.GameID, st.Player.ID); err != nil {
		return e.fail(session.ActionStart, err)
	}

	e.Enqueue(session.ActionAck{Action: session.ActionStart})
	return nil
}

// ReportReady asks for the next card. While the request is outstanding the
// session waits for peers and a second ReportReady is refused.
func (e *Engine) ReportReady(ctx context.Context) error {
	st, err := e.issue(ctx, session.ActionReady)
	if err != nil {
		return err
	}

	cctx, cancel := e.requestContext(ctx)
	defer cancel()
	if err := e.gw.ReportReady(cctx, st.Player.ID); err != nil {
		return e.fail(session.ActionReady, err)
	}

	e.Enqueue(session.ActionAck{Action: session.ActionReady})
	return nil
}

// SubmitAnswer names the symbol shared by the two latest cards. The result
// is the server's immediate verdict; scores and the answer record change
// only when the ANSWERED notice arrives.
func (e *Engine) SubmitAnswer(ctx context.Context, answer string) (bool, error) {
	st, err := e.issue(ctx, session.ActionSubmit)
	if err != nil {
		return false, err
	}
	pair, _ := st.Ledger.LatestPair()

	cctx, cancel := e.requestContext(ctx)
	defer cancel()
	correct, err := e.gw.SubmitAnswer(cctx, st.Player.ID, pair.First, pair.Second, answer)
	if err != nil {
		return false, e.fail(session.ActionSubmit, err)
	}

	e.Enqueue(session.ActionAck{Action: session.ActionSubmit})
	return correct, nil
}

// RefreshGames fetches the lobby listing and folds it into the session.
func (e *Engine) RefreshGames(ctx context.Context) ([]game.Listing, error) {
	cctx, cancel := e.requestContext(ctx)
	defer cancel()
	games, err := e.gw.ListGames(cctx)
	if err != nil {
		return nil, fmt.Errorf("refresh games: %w", err)
	}
	e.Enqueue(session.GamesListed{Games: games})
	return games, nil
}

// issue runs the gate for action inside the loop and returns the state the
// action was admitted against.
func (e *Engine) issue(ctx context.Context, action session.ActionKind) (session.State, error) {
	reply := make(chan admission, 1)
	env := envelope{event: session.ActionIssued{Action: action}, reply: reply}
	if !e.queue.Enqueue(env) {
		return session.State{}, fmt.Errorf("%s: %w", action, ErrClosed)
	}

	select {
	case a := <-reply:
		if a.err != nil {
			slog.Debug("action refused", "session", e.id, "action", action, "error", a.err)
			return session.State{}, newNotPermitted(action, a.err)
		}
		return a.state, nil

	case <-e.done:
		return session.State{}, fmt.Errorf("%s: %w", action, ErrClosed)

	case <-ctx.Done():
		// The loop may still admit the action. If it does, undo the
		// reservation since no request will follow.
		go func() {
			select {
			case a := <-reply:
				if a.err == nil {
					e.Enqueue(session.ActionFailed{Action: action, Cause: ctx.Err()})
				}
			case <-e.done:
			}
		}()
		return session.State{}, ctx.Err()
	}
}

// fail rolls back an admitted action and wraps err for the caller.
func (e *Engine) fail(action session.ActionKind, err error) error {
	slog.Warn("action failed", "session", e.id, "action", action, "error", err)
	e.Enqueue(session.ActionFailed{Action: action, Cause: err})
	return newGatewayFailed(action, err)
}
