// Package game holds the value types shared by the session core and its
// adapters: lifecycle status, players, cards, answers and scores.
//
// All types are plain values. The session reducer copies them freely; nothing
// here carries a pointer back into mutable state.
package game

import "fmt"

// Status is the lifecycle position of a session.
//
// Statuses are ordered. A session only ever moves forward along
// Empty < Created < Joined < Ready < Started.
type Status uint8

const (
	// StatusEmpty is the initial status before any create or join.
	StatusEmpty Status = iota
	// StatusCreated follows a successful create acknowledgement.
	StatusCreated
	// StatusJoined follows a successful join acknowledgement.
	StatusJoined
	// StatusReady follows a JOINED notice received while joined.
	StatusReady
	// StatusStarted follows a STARTED notice. Terminal.
	StatusStarted
)

var statusNames = [...]string{
	StatusEmpty:   "EMPTY",
	StatusCreated: "CREATED",
	StatusJoined:  "JOINED",
	StatusReady:   "READY",
	StatusStarted: "STARTED",
}

// String returns the protocol name of the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus converts a protocol name back to a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return StatusEmpty, fmt.Errorf("unknown status %q", name)
}

// MarshalText encodes the status by name so JSON views stay readable.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Before reports whether s comes strictly before other in lifecycle order.
func (s Status) Before(other Status) bool {
	return s < other
}

// Session is the identity and lifecycle of one client game session.
type Session struct {
	// ID identifies this session instance (not the server game id).
	ID string `json:"id"`

	// DisplayName is the game name, known once a create is acknowledged.
	DisplayName string `json:"display_name,omitempty"`

	Status Status `json:"status"`
}

// Player is the local participant as assigned by the server.
type Player struct {
	ID          int64  `json:"id"`
	GameID      int64  `json:"game_id"`
	DisplayName string `json:"display_name"`
}

// Card is a dealt card. Symbols is derived from Text.
type Card struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Symbols []string `json:"symbols,omitempty"`
}

// AnswerResult is the adjudication of the most recent answer.
type AnswerResult struct {
	PlayerID  int64  `json:"player_id"`
	Card1ID   int64  `json:"card1_id"`
	Card2ID   int64  `json:"card2_id"`
	Submitted string `json:"submitted"`
	Correct   string `json:"correct"`
	IsCorrect bool   `json:"is_correct"`
}

// ScoreEntry is one player's cumulative score.
type ScoreEntry struct {
	PlayerID int64 `json:"player_id"`
	Score    int64 `json:"score"`
}

// Listing is one entry of the lobby game list.
type Listing struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
