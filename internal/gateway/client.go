package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"connectrpc.com/connect"

	"github.com/roach88/dobble/internal/game"
)

// Service procedure paths. The server exposes one Connect service per action.
const (
	procCreateGame   = "/game.v1.CreateGameService/CreateGame"
	procJoinGame     = "/game.v1.JoinGameService/JoinGame"
	procGetGames     = "/game.v1.GetGamesService/GetGames"
	procStartGame    = "/game.v1.StartGameService/StartGame"
	procReportReady  = "/game.v1.ReportReadyService/ReportReady"
	procSubmitAnswer = "/game.v1.SubmitAnswerService/SubmitAnswer"
)

// verdictCorrect is the SubmitAnswer verdict string for a correct answer.
const verdictCorrect = "correct!!!"

// maxResponseBytes bounds the size of a response message.
const maxResponseBytes = 1 << 20

// Message shapes. Ids travel as strings in requests and as numbers in
// responses, as the server's messages declare them.

type createGameRequest struct {
	GameName   string `json:"gameName"`
	PlayerName string `json:"playerName"`
}

type joinGameRequest struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type startGameRequest struct {
	GameID string `json:"gameId"`
	UserID string `json:"userId"`
}

type reportReadyRequest struct {
	PlayerID string `json:"playerId"`
}

type submitAnswerRequest struct {
	PlayerID string  `json:"playerId"`
	Card1    cardMsg `json:"card1"`
	Card2    cardMsg `json:"card2"`
	Answer   string  `json:"answer"`
}

type cardMsg struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type playerMsg struct {
	ID     int64  `json:"id"`
	GameID int64  `json:"gameId"`
	Name   string `json:"name"`
}

type playerResponse struct {
	Player *playerMsg `json:"player,omitempty"`
}

type gameMsg struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type getGamesResponse struct {
	Games []gameMsg `json:"games,omitempty"`
}

type submitAnswerResponse struct {
	IsCorrect string `json:"isCorrect"`
}

// empty is the request or response of procedures that carry no fields.
type empty struct{}

// Client calls the game server over Connect unary RPCs.
//
// Thread-safety: Client is safe for concurrent use.
type Client struct {
	createGame   *connect.Client[createGameRequest, playerResponse]
	joinGame     *connect.Client[joinGameRequest, playerResponse]
	getGames     *connect.Client[empty, getGamesResponse]
	startGame    *connect.Client[startGameRequest, empty]
	reportReady  *connect.Client[reportReadyRequest, empty]
	submitAnswer *connect.Client[submitAnswerRequest, submitAnswerResponse]
}

type clientConfig struct {
	http connect.HTTPClient
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.http = hc
	}
}

// NewClient returns a Client for the server at baseURL (scheme and host,
// optionally a path prefix).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	cfg := clientConfig{http: http.DefaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		createGame:   newProcedure[createGameRequest, playerResponse](cfg, base, procCreateGame),
		joinGame:     newProcedure[joinGameRequest, playerResponse](cfg, base, procJoinGame),
		getGames:     newProcedure[empty, getGamesResponse](cfg, base, procGetGames),
		startGame:    newProcedure[startGameRequest, empty](cfg, base, procStartGame),
		reportReady:  newProcedure[reportReadyRequest, empty](cfg, base, procReportReady),
		submitAnswer: newProcedure[submitAnswerRequest, submitAnswerResponse](cfg, base, procSubmitAnswer),
	}
}

func newProcedure[Req, Res any](cfg clientConfig, base, procedure string) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](cfg.http, base+procedure,
		connect.WithCodec(jsonCodec{}),
		connect.WithReadMaxBytes(maxResponseBytes),
		connect.WithInterceptors(logCalls()),
	)
}

// logCalls logs each unary call at debug level.
func logCalls() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err != nil {
				slog.Debug("gateway call failed", "procedure", req.Spec().Procedure, "code", connect.CodeOf(err))
			} else {
				slog.Debug("gateway call", "procedure", req.Spec().Procedure)
			}
			return resp, err
		}
	}
}

var _ Gateway = (*Client)(nil)

// CreateGame implements Gateway.
func (c *Client) CreateGame(ctx context.Context, gameName, playerName string) (game.Player, error) {
	resp, err := c.createGame.CallUnary(ctx, connect.NewRequest(&createGameRequest{
		GameName:   gameName,
		PlayerName: playerName,
	}))
	if err != nil {
		return game.Player{}, fmt.Errorf("create game: %w", err)
	}
	return resp.Msg.player("create game")
}

// JoinGame implements Gateway.
func (c *Client) JoinGame(ctx context.Context, gameID int64, playerName string) (game.Player, error) {
	resp, err := c.joinGame.CallUnary(ctx, connect.NewRequest(&joinGameRequest{
		GameID:     formatID(gameID),
		PlayerName: playerName,
	}))
	if err != nil {
		return game.Player{}, fmt.Errorf("join game %d: %w", gameID, err)
	}
	return resp.Msg.player("join game")
}

// StartGame implements Gateway.
func (c *Client) StartGame(ctx context.Context, gameID, userID int64) error {
	_, err := c.startGame.CallUnary(ctx, connect.NewRequest(&startGameRequest{
		GameID: formatID(gameID),
		UserID: formatID(userID),
	}))
	if err != nil {
		return fmt.Errorf("start game %d: %w", gameID, err)
	}
	return nil
}

// ReportReady implements Gateway.
func (c *Client) ReportReady(ctx context.Context, playerID int64) error {
	_, err := c.reportReady.CallUnary(ctx, connect.NewRequest(&reportReadyRequest{PlayerID: formatID(playerID)}))
	if err != nil {
		return fmt.Errorf("report ready: %w", err)
	}
	return nil
}

// SubmitAnswer implements Gateway.
func (c *Client) SubmitAnswer(ctx context.Context, playerID int64, card1, card2 game.Card, answer string) (bool, error) {
	resp, err := c.submitAnswer.CallUnary(ctx, connect.NewRequest(&submitAnswerRequest{
		PlayerID: formatID(playerID),
		Card1:    cardMsg{ID: card1.ID, Text: card1.Text},
		Card2:    cardMsg{ID: card2.ID, Text: card2.Text},
		Answer:   answer,
	}))
	if err != nil {
		return false, fmt.Errorf("submit answer: %w", err)
	}
	return resp.Msg.IsCorrect == verdictCorrect, nil
}

// ListGames implements Gateway.
func (c *Client) ListGames(ctx context.Context) ([]game.Listing, error) {
	resp, err := c.getGames.CallUnary(ctx, connect.NewRequest(&empty{}))
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]game.Listing, 0, len(resp.Msg.Games))
	for _, g := range resp.Msg.Games {
		games = append(games, game.Listing{ID: g.ID, Status: g.Status})
	}
	return games, nil
}

func (r *playerResponse) player(op string) (game.Player, error) {
	if r.Player == nil {
		return game.Player{}, fmt.Errorf("%s: %w", op, ErrMissingPlayer)
	}
	return game.Player{ID: r.Player.ID, GameID: r.Player.GameID, DisplayName: r.Player.Name}, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
