// Package ledger implements the append-only record of cards dealt to a session.
//
// A Ledger is an immutable value: Append returns a new Ledger and never
// touches the receiver's backing array. This lets the session reducer keep
// the previous state intact, so a rejected or no-op reduction deep-equals
// the state it started from.
//
// INVARIANTS:
//   - Card ids are strictly increasing in append order
//   - Entries are never removed or mutated after insertion
//   - Gaps between ids are tolerated; duplicates and regressions are rejected
package ledger

import (
	"slices"

	"github.com/roach88/dobble/internal/game"
)

// Ledger is the ordered sequence of dealt cards.
// The zero value is an empty ledger ready for use.
type Ledger struct {
	cards []game.Card
}

// Pair is the two most recently dealt cards, older first.
// Only this pair is eligible for an answer submission.
type Pair struct {
	First  game.Card
	Second game.Card
}

// New builds a ledger from cards in order, dropping any card that would
// violate the increasing-id invariant.
func New(cards ...game.Card) Ledger {
	var l Ledger
	for _, c := range cards {
		l, _ = l.Append(c)
	}
	return l
}

// Append adds card to the end of the ledger.
//
// Returns the receiver unchanged and false when card.ID is not greater than
// the last id on the ledger (duplicate delivery or regression). Appending
// the same card twice yields a ledger identical to appending it once.
func (l Ledger) Append(card game.Card) (Ledger, bool) {
	if n := len(l.cards); n > 0 && card.ID <= l.cards[n-1].ID {
		return l, false
	}
	if card.Symbols == nil {
		card.Symbols = SymbolsOf(card.Text)
	}

	// Clip forces append to copy, so earlier Ledger values never observe
	// the new element through a shared backing array.
	return Ledger{cards: append(slices.Clip(l.cards), card)}, true
}

// Len returns the number of cards on the ledger.
func (l Ledger) Len() int {
	return len(l.cards)
}

// Contains reports whether a card with the given id has been appended.
func (l Ledger) Contains(id int64) bool {
	_, found := slices.BinarySearchFunc(l.cards, id, func(c game.Card, target int64) int {
		switch {
		case c.ID < target:
			return -1
		case c.ID > target:
			return 1
		}
		return 0
	})
	return found
}

// Last returns the most recently appended card.
func (l Ledger) Last() (game.Card, bool) {
	if len(l.cards) == 0 {
		return game.Card{}, false
	}
	return l.cards[len(l.cards)-1], true
}

// LatestPair returns the two most recently appended cards.
// The boolean is false when fewer than two cards exist; in that case the
// returned pair is partial (Second holds the only card, if any).
func (l Ledger) LatestPair() (Pair, bool) {
	switch n := len(l.cards); n {
	case 0:
		return Pair{}, false
	case 1:
		return Pair{Second: l.cards[0]}, false
	default:
		return Pair{First: l.cards[n-2], Second: l.cards[n-1]}, true
	}
}

// Cards returns a copy of the ledger contents in append order.
func (l Ledger) Cards() []game.Card {
	return slices.Clone(l.cards)
}
