package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/journal"
	"github.com/roach88/dobble/internal/readiness"
	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// entries encodes events as journal entries with seqs 1..n.
func entries(t *testing.T, sessionID string, events ...session.Event) []journal.Entry {
	t.Helper()
	out := make([]journal.Entry, 0, len(events))
	for i, ev := range events {
		kind, payload, err := wire.EncodeEvent(ev)
		require.NoError(t, err)
		out = append(out, journal.Entry{
			SessionID: sessionID,
			Seq:       int64(i + 1),
			Source:    ev.Source().String(),
			Kind:      kind,
			Payload:   payload,
		})
	}
	return out
}

func newTestDecoder(t *testing.T) *wire.Decoder {
	t.Helper()
	dec, err := wire.NewDecoder()
	require.NoError(t, err)
	return dec
}

func TestReplay_Empty(t *testing.T) {
	v, err := Replay(newTestDecoder(t), "s-1", nil)
	require.NoError(t, err)

	assert.Equal(t, session.New("s-1").View(), v)
}

func TestReplay_SeqOfLastChange(t *testing.T) {
	p := ann
	// Seqs 1, 4 and 8 change nothing: an issued join, a duplicate STARTED
	// and a card id regression.
	es := entries(t, "s-1",
		session.ActionIssued{Action: session.ActionJoin},
		session.ActionAck{Action: session.ActionJoin, Player: &p},
		session.PushNotice{Notice: session.NoticeStarted, GameID: 3},
		session.PushNotice{Notice: session.NoticeStarted, GameID: 3},
		session.ActionIssued{Action: session.ActionReady},
		session.ActionFailed{Action: session.ActionReady},
		session.PushNotice{Notice: session.NoticeCard, Card: &game.Card{ID: 2, Text: "symbols: [A]"}},
		session.PushNotice{Notice: session.NoticeCard, Card: &game.Card{ID: 1, Text: "symbols: [B]"}},
	)

	v, err := Replay(newTestDecoder(t), "s-1", es)
	require.NoError(t, err)

	assert.Equal(t, int64(7), v.Seq)
	assert.Equal(t, game.StatusStarted, v.Session.Status)
	assert.Equal(t, 1, v.LedgerLen)
	assert.Equal(t, readiness.AwaitingCard, v.Readiness)
}

func TestReplay_RejectsOutOfOrderEntries(t *testing.T) {
	es := entries(t, "s-1",
		session.ActionIssued{Action: session.ActionCreate},
		session.ActionIssued{Action: session.ActionJoin},
	)
	es[0], es[1] = es[1], es[0]

	_, err := Replay(newTestDecoder(t), "s-1", es)
	assert.ErrorContains(t, err, "seq 1 after 2")
}

func TestReplay_RejectsUndecodableEntries(t *testing.T) {
	es := []journal.Entry{{SessionID: "s-1", Seq: 1, Kind: "notice:card", Payload: []byte(`{"event":"card"}`)}}

	_, err := Replay(newTestDecoder(t), "s-1", es)
	assert.ErrorIs(t, err, wire.ErrMalformed)
}

func TestVerifyReplay_Deterministic(t *testing.T) {
	p := ann
	es := entries(t, "s-1",
		session.ActionAck{Action: session.ActionCreate, Player: &p, GameName: "friday"},
		session.PushNotice{Notice: session.NoticeStarted},
		session.PushNotice{Notice: session.NoticeCard, Card: &game.Card{ID: 1, Text: "symbols: [A B]"}},
		session.PushNotice{Notice: session.NoticeCard, Card: &game.Card{ID: 2, Text: "symbols: [B C]"}},
		session.PushNotice{Notice: session.NoticeAnswered, Answer: &session.AnswerNotice{
			PlayerID: 7, IsCorrect: true, CorrectSymbol: "B", Answer: "B",
			Scores: []game.ScoreEntry{{PlayerID: 8, Score: 2}, {PlayerID: 7, Score: 1}},
		}},
		session.GamesListed{Games: []game.Listing{{ID: 3, Status: "STARTED"}}},
	)

	v, digest, err := VerifyReplay(newTestDecoder(t), "s-1", es)
	require.NoError(t, err)
	assert.Len(t, digest, 64)
	assert.Equal(t, int64(6), v.Seq)
	assert.Equal(t, []game.ScoreEntry{{PlayerID: 7, Score: 1}, {PlayerID: 8, Score: 2}}, v.Scores)

	again, err := wire.ViewDigest(v)
	require.NoError(t, err)
	assert.Equal(t, digest, again)
}
