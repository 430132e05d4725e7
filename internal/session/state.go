package session

import (
	"slices"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/ledger"
	"github.com/roach88/dobble/internal/readiness"
	"github.com/roach88/dobble/internal/scoreboard"
)

// State is the full reducer state of one session.
//
// State is treated as a value. Reduce never writes through any of its
// fields; pointer fields are replaced, not mutated.
type State struct {
	Session   game.Session
	Player    *game.Player
	Ledger    ledger.Ledger
	Readiness readiness.Coordinator
	Answer    *game.AnswerResult
	Scores    scoreboard.Board
	Games     []game.Listing
}

// New returns the EMPTY state for a fresh session instance.
func New(sessionID string) State {
	return State{
		Session: game.Session{ID: sessionID, Status: game.StatusEmpty},
	}
}

// View is the externally visible snapshot produced once per reduction.
type View struct {
	// Seq is the logical time of the reduction that produced this view.
	Seq int64 `json:"seq"`

	Session   game.Session       `json:"session"`
	Player    *game.Player       `json:"player,omitempty"`
	Readiness readiness.State    `json:"readiness"`
	LedgerLen int                `json:"ledger_len"`
	Pair      []game.Card        `json:"pair"`
	Answer    *game.AnswerResult `json:"answer,omitempty"`
	OwnScore  *int64             `json:"own_score,omitempty"`
	Scores    []game.ScoreEntry  `json:"scores"`
	Games     []game.Listing     `json:"games"`

	// CanReady and CanSubmit mirror the action gate for presentation.
	CanReady  bool `json:"can_ready"`
	CanSubmit bool `json:"can_submit"`
}

// View projects the state into a View. The view shares no memory with s.
func (s State) View() View {
	v := View{
		Session:   s.Session,
		Readiness: s.Readiness.State(),
		LedgerLen: s.Ledger.Len(),
		Pair:      []game.Card{},
		Scores:    s.Scores.Entries(),
		Games:     slices.Clone(s.Games),
	}
	if v.Games == nil {
		v.Games = []game.Listing{}
	}

	if s.Player != nil {
		p := *s.Player
		v.Player = &p
		if score, ok := s.Scores.OwnScore(p.ID); ok {
			v.OwnScore = &score
		}
	}
	if s.Answer != nil {
		a := *s.Answer
		v.Answer = &a
	}

	pair, complete := s.Ledger.LatestPair()
	switch {
	case complete:
		v.Pair = []game.Card{cloneCard(pair.First), cloneCard(pair.Second)}
	case s.Ledger.Len() == 1:
		v.Pair = []game.Card{cloneCard(pair.Second)}
	}

	v.CanReady = admit(s, ActionReady) == nil
	v.CanSubmit = admit(s, ActionSubmit) == nil
	return v
}

func cloneCard(c game.Card) game.Card {
	c.Symbols = slices.Clone(c.Symbols)
	return c
}
