package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/session"
)

func newDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder()
	require.NoError(t, err)
	return d
}

func TestDecodeNotices(t *testing.T) {
	d := newDecoder(t)

	tests := []struct {
		name  string
		frame string
		want  session.PushNotice
	}{
		{
			name:  "created",
			frame: `{"event":"CREATED"}`,
			want:  session.PushNotice{Notice: session.NoticeCreated},
		},
		{
			name:  "joined with extra fields",
			frame: `{"event":"JOINED","game_id":3,"player":"bob"}`,
			want:  session.PushNotice{Notice: session.NoticeJoined, GameID: 3},
		},
		{
			name:  "started",
			frame: `{"event":"STARTED","game_id":7}`,
			want:  session.PushNotice{Notice: session.NoticeStarted, GameID: 7},
		},
		{
			name:  "card",
			frame: `{"event":"card","game_id":7,"card":{"id":11,"text":"symbols: [Dog Cat]"}}`,
			want: session.PushNotice{
				Notice: session.NoticeCard,
				GameID: 7,
				Card:   &game.Card{ID: 11, Text: "symbols: [Dog Cat]"},
			},
		},
		{
			name:  "answered with scores",
			frame: `{"event":"ANSWERED","player_id":2,"is_correct":true,"correct_symbol":"Dog","answer":"Dog","scores":[{"player_id":2,"score":1}]}`,
			want: session.PushNotice{
				Notice: session.NoticeAnswered,
				Answer: &session.AnswerNotice{
					PlayerID:      2,
					IsCorrect:     true,
					CorrectSymbol: "Dog",
					Answer:        "Dog",
					Scores:        []game.ScoreEntry{{PlayerID: 2, Score: 1}},
				},
			},
		},
		{
			name:  "answered without scores",
			frame: `{"event":"ANSWERED","player_id":2,"is_correct":false}`,
			want: session.PushNotice{
				Notice: session.NoticeAnswered,
				Answer: &session.AnswerNotice{PlayerID: 2},
			},
		},
		{
			name:  "answered with null scores",
			frame: `{"event":"ANSWERED","player_id":2,"is_correct":false,"scores":null}`,
			want: session.PushNotice{
				Notice: session.NoticeAnswered,
				Answer: &session.AnswerNotice{PlayerID: 2},
			},
		},
		{
			name:  "answered with empty snapshot",
			frame: `{"event":"ANSWERED","player_id":2,"is_correct":false,"scores":[]}`,
			want: session.PushNotice{
				Notice: session.NoticeAnswered,
				Answer: &session.AnswerNotice{PlayerID: 2, Scores: []game.ScoreEntry{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	d := newDecoder(t)

	frames := map[string]string{
		"not json":          `hello, player`,
		"no event":          `{"card":{"id":1,"text":"x"}}`,
		"event not string":  `{"event":5}`,
		"card missing":      `{"event":"card"}`,
		"card id string":    `{"event":"card","card":{"id":"1","text":"x"}}`,
		"card id float":     `{"event":"card","card":{"id":1.5,"text":"x"}}`,
		"answered no bool":  `{"event":"ANSWERED","player_id":1}`,
		"scores not a list": `{"event":"ANSWERED","player_id":1,"is_correct":true,"scores":{}}`,
		"negative game id":  `{"event":"STARTED","game_id":-1}`,
	}
	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode([]byte(frame))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	d := newDecoder(t)

	for _, frame := range []string{`{"event":"DEBUG","msg":"x"}`, `{"event":"disconnect"}`} {
		_, err := d.Decode([]byte(frame))
		assert.ErrorIs(t, err, ErrUnknownEvent, frame)
		assert.NotErrorIs(t, err, ErrMalformed, frame)
	}
}

func TestEncodeNoticeRoundTrip(t *testing.T) {
	d := newDecoder(t)

	notices := []session.PushNotice{
		{Notice: session.NoticeCreated},
		{Notice: session.NoticeStarted, GameID: 4},
		{Notice: session.NoticeCard, GameID: 4, Card: &game.Card{ID: 9, Text: "symbols: [Sun]"}},
		{Notice: session.NoticeAnswered, Answer: &session.AnswerNotice{PlayerID: 1, IsCorrect: true, CorrectSymbol: "Sun", Answer: "Sun"}},
		{Notice: session.NoticeAnswered, Answer: &session.AnswerNotice{PlayerID: 1, Scores: []game.ScoreEntry{}}},
	}
	for _, n := range notices {
		frame, err := EncodeNotice(n)
		require.NoError(t, err)
		got, err := d.Decode(frame)
		require.NoError(t, err, string(frame))
		assert.Equal(t, n, got, string(frame))
	}
}

func TestEncodeNoticeCanonical(t *testing.T) {
	frame, err := EncodeNotice(session.PushNotice{
		Notice: session.NoticeCard,
		GameID: 2,
		Card:   &game.Card{ID: 5, Text: "symbols: [A B]", Symbols: []string{"A", "B"}},
	})
	require.NoError(t, err)
	// Symbols are derived, never sent.
	assert.Equal(t, `{"card":{"id":5,"text":"symbols: [A B]"},"event":"card","game_id":2}`, string(frame))
}
