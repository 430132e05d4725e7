// Package gateway is the request/response side of the game protocol.
//
// Gateway is the seam the session engine depends on. Client implements it
// against the game server's Connect unary endpoints using the JSON codec;
// tests substitute an in-memory fake. Server failures surface as
// *connect.Error values.
package gateway

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/roach88/dobble/internal/game"
)

// Gateway issues the client-initiated game actions.
//
// Every method blocks until the server responds or ctx is done. None of them
// touch session state; their results are folded in by the caller.
type Gateway interface {
	// CreateGame creates a game and joins it as its first player.
	CreateGame(ctx context.Context, gameName, playerName string) (game.Player, error)

	// JoinGame joins an existing game.
	JoinGame(ctx context.Context, gameID int64, playerName string) (game.Player, error)

	// StartGame asks the server to start gameID on behalf of userID.
	StartGame(ctx context.Context, gameID, userID int64) error

	// ReportReady tells the server playerID wants the next card.
	ReportReady(ctx context.Context, playerID int64) error

	// SubmitAnswer names the symbol shared by card1 and card2. The result
	// reports the server's verdict; the authoritative outcome still arrives
	// as an ANSWERED notice.
	SubmitAnswer(ctx context.Context, playerID int64, card1, card2 game.Card, answer string) (bool, error)

	// ListGames returns the lobby listing, newest first.
	ListGames(ctx context.Context) ([]game.Listing, error)
}

// ErrMissingPlayer is returned when a create or join response has no player.
var ErrMissingPlayer = errors.New("response has no player")

// IsCode reports whether err carries the Connect error code.
func IsCode(err error, code connect.Code) bool {
	var ce *connect.Error
	return errors.As(err, &ce) && ce.Code() == code
}
