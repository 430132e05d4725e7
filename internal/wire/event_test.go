package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/session"
)

func TestEventRoundTrip(t *testing.T) {
	d := newDecoder(t)

	events := []session.Event{
		session.ActionAck{Action: session.ActionCreate, Player: &game.Player{ID: 1, GameID: 2, DisplayName: "ann"}, GameName: "g"},
		session.ActionAck{Action: session.ActionReady},
		session.ActionIssued{Action: session.ActionSubmit},
		session.ActionFailed{Action: session.ActionReady, Cause: errors.New("timeout")},
		session.ActionFailed{Action: session.ActionStart},
		session.GamesListed{Games: []game.Listing{{ID: 2, Status: "waiting"}}},
		session.PushNotice{Notice: session.NoticeCard, Card: &game.Card{ID: 3, Text: "symbols: [A]"}},
	}

	for _, ev := range events {
		t.Run(ev.Kind(), func(t *testing.T) {
			kind, payload, err := EncodeEvent(ev)
			require.NoError(t, err)
			assert.Equal(t, ev.Kind(), kind)

			got, err := DecodeEvent(d, kind, payload)
			require.NoError(t, err)

			if f, ok := ev.(session.ActionFailed); ok && f.Cause != nil {
				gf := got.(session.ActionFailed)
				assert.Equal(t, f.Action, gf.Action)
				assert.EqualError(t, gf.Cause, f.Cause.Error())
				return
			}
			assert.Equal(t, ev, got)
		})
	}
}

func TestEncodeEventEmptyGames(t *testing.T) {
	_, payload, err := EncodeEvent(session.GamesListed{})
	require.NoError(t, err)
	assert.Equal(t, `{"games":[]}`, string(payload))
}

func TestDecodeEventUnknownKind(t *testing.T) {
	d := newDecoder(t)

	_, err := DecodeEvent(d, "bogus", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown kind")

	_, err = DecodeEvent(d, "ack:fly", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown action")
}
