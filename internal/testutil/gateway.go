package testutil

import (
	"context"
	"sync"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/gateway"
)

// Call records one FakeGateway invocation.
type Call struct {
	Op       string
	GameName string
	Player   string
	GameID   int64
	PlayerID int64
	Card1ID  int64
	Card2ID  int64
	Answer   string
}

// FakeGateway is an in-memory gateway.Gateway for tests.
//
// Responses are configured through the exported fields before use. Errs maps
// an operation name ("create", "join", "start", "ready", "submit", "games")
// to the error that operation returns. OnCall, when set, runs before the
// response is returned; tests use it to deliver push notices ahead of the
// acknowledgement the way the real server does.
//
// Thread-safety: FakeGateway is safe for concurrent use via internal mutex.
type FakeGateway struct {
	mu sync.Mutex

	Player  game.Player
	Correct bool
	Games   []game.Listing
	Errs    map[string]error
	OnCall  func(Call)

	calls []Call
}

var _ gateway.Gateway = (*FakeGateway)(nil)

// NewFakeGateway returns a fake that assigns player to create and join.
func NewFakeGateway(player game.Player) *FakeGateway {
	return &FakeGateway{Player: player, Errs: map[string]error{}}
}

// Calls returns a copy of the recorded calls in order.
func (g *FakeGateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// Ops returns the operation names of the recorded calls in order.
func (g *FakeGateway) Ops() []string {
	calls := g.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// SetErr configures the error returned by op. A nil err clears it.
func (g *FakeGateway) SetErr(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.Errs, op)
		return
	}
	g.Errs[op] = err
}

func (g *FakeGateway) record(c Call) error {
	g.mu.Lock()
	g.calls = append(g.calls, c)
	err := g.Errs[c.Op]
	hook := g.OnCall
	g.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return err
}

// CreateGame implements gateway.Gateway.
func (g *FakeGateway) CreateGame(ctx context.Context, gameName, playerName string) (game.Player, error) {
	if err := g.record(Call{Op: "create", GameName: gameName, Player: playerName}); err != nil {
		return game.Player{}, err
	}
	return g.Player, ctx.Err()
}

// JoinGame implements gateway.Gateway.
func (g *FakeGateway) JoinGame(ctx context.Context, gameID int64, playerName string) (game.Player, error) {
	if err := g.record(Call{Op: "join", GameID: gameID, Player: playerName}); err != nil {
		return game.Player{}, err
	}
	return g.Player, ctx.Err()
}

// StartGame implements gateway.Gateway.
func (g *FakeGateway) StartGame(ctx context.Context, gameID, userID int64) error {
	if err := g.record(Call{Op: "start", GameID: gameID, PlayerID: userID}); err != nil {
		return err
	}
	return ctx.Err()
}

// ReportReady implements gateway.Gateway.
func (g *FakeGateway) ReportReady(ctx context.Context, playerID int64) error {
	if err := g.record(Call{Op: "ready", PlayerID: playerID}); err != nil {
		return err
	}
	return ctx.Err()
}

// SubmitAnswer implements gateway.Gateway.
func (g *FakeGateway) SubmitAnswer(ctx context.Context, playerID int64, card1, card2 game.Card, answer string) (bool, error) {
	err := g.record(Call{Op: "submit", PlayerID: playerID, Card1ID: card1.ID, Card2ID: card2.ID, Answer: answer})
	if err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Correct, ctx.Err()
}

// ListGames implements gateway.Gateway.
func (g *FakeGateway) ListGames(ctx context.Context) ([]game.Listing, error) {
	if err := g.record(Call{Op: "games"}); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]game.Listing(nil), g.Games...), ctx.Err()
}
