package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/dobble/internal/journal"
	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// ErrNondeterministic is returned by VerifyReplay when two replays of the
// same entries disagree.
var ErrNondeterministic = errors.New("replay is not deterministic")

// Replay re-reduces journaled entries from the EMPTY state and returns the
// last view, exactly as the live engine would have published it.
//
// Replay runs the same reducer as the live loop; there is no separate replay
// mode. Entries must be in strictly increasing seq order, as
// journal.ReadSession returns them.
func Replay(dec *wire.Decoder, sessionID string, entries []journal.Entry) (session.View, error) {
	st := session.New(sessionID)
	view := st.View()

	var last int64
	for _, en := range entries {
		if en.Seq <= last {
			return session.View{}, fmt.Errorf("replay %s: seq %d after %d", sessionID, en.Seq, last)
		}
		last = en.Seq

		ev, err := wire.DecodeEvent(dec, en.Kind, en.Payload)
		if err != nil {
			return session.View{}, fmt.Errorf("replay %s: seq %d: %w", sessionID, en.Seq, err)
		}

		red := session.Reduce(st, ev)
		if red.Changed {
			st = red.State
			view = st.View()
			view.Seq = en.Seq
		}
	}
	return view, nil
}

// VerifyReplay replays entries twice and compares the canonical digests of
// the resulting views. Returns the view and its digest.
func VerifyReplay(dec *wire.Decoder, sessionID string, entries []journal.Entry) (session.View, string, error) {
	first, err := Replay(dec, sessionID, entries)
	if err != nil {
		return session.View{}, "", err
	}
	second, err := Replay(dec, sessionID, entries)
	if err != nil {
		return session.View{}, "", err
	}

	d1, err := wire.ViewDigest(first)
	if err != nil {
		return session.View{}, "", err
	}
	d2, err := wire.ViewDigest(second)
	if err != nil {
		return session.View{}, "", err
	}
	if d1 != d2 {
		return session.View{}, "", fmt.Errorf("%w: %s != %s", ErrNondeterministic, d1, d2)
	}
	return first, d1, nil
}
