// Package scoreboard holds the player-to-score mapping of a session.
//
// The board is never patched incrementally. Each authoritative snapshot
// replaces it wholesale, so a missed notice cannot cause drift.
package scoreboard

import (
	"maps"
	"slices"

	"github.com/roach88/dobble/internal/game"
)

// Board is an immutable player id -> score mapping.
// The zero value is an empty board.
type Board struct {
	scores map[int64]int64
}

// Replace returns a board holding exactly the given entries.
// A later entry for the same player wins.
func Replace(entries []game.ScoreEntry) Board {
	scores := make(map[int64]int64, len(entries))
	for _, e := range entries {
		scores[e.PlayerID] = e.Score
	}
	return Board{scores: scores}
}

// Len returns the number of players on the board.
func (b Board) Len() int {
	return len(b.scores)
}

// OwnScore returns the score of playerID.
func (b Board) OwnScore(playerID int64) (int64, bool) {
	s, ok := b.scores[playerID]
	return s, ok
}

// OthersScores returns every entry except playerID's, ordered by player id.
func (b Board) OthersScores(playerID int64) []game.ScoreEntry {
	out := make([]game.ScoreEntry, 0, len(b.scores))
	for _, id := range slices.Sorted(maps.Keys(b.scores)) {
		if id == playerID {
			continue
		}
		out = append(out, game.ScoreEntry{PlayerID: id, Score: b.scores[id]})
	}
	return out
}

// Entries returns all entries ordered by player id.
func (b Board) Entries() []game.ScoreEntry {
	out := make([]game.ScoreEntry, 0, len(b.scores))
	for _, id := range slices.Sorted(maps.Keys(b.scores)) {
		out = append(out, game.ScoreEntry{PlayerID: id, Score: b.scores[id]})
	}
	return out
}
