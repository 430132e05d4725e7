// Package wire converts between raw protocol bytes and session events.
//
// Push frames are validated against an embedded CUE schema before they are
// decoded, so a frame either becomes a well-formed session.PushNotice or is
// reported as malformed; nothing half-decoded reaches the reducer.
//
// The package also owns the canonical JSON form used for the session
// journal, content-addressed event ids and golden traces.
package wire

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/session"
)

//go:embed notice.cue
var noticeSchema string

// Decode failures. Both are dropped by the engine without a state change.
var (
	// ErrMalformed marks a frame that is not JSON or violates the schema.
	ErrMalformed = errors.New("malformed push frame")
	// ErrUnknownEvent marks a well-formed frame with an event name this
	// client does not reduce (DEBUG, disconnect, ...).
	ErrUnknownEvent = errors.New("unknown push event")
)

var schemaPaths = map[session.NoticeKind]string{
	session.NoticeCreated:  "#Created",
	session.NoticeJoined:   "#Joined",
	session.NoticeStarted:  "#Started",
	session.NoticeCard:     "#Card",
	session.NoticeAnswered: "#Answered",
}

// Decoder turns push frames into session notices.
//
// Thread-safety: Decode is safe for concurrent use; calls are serialized on
// an internal mutex because a cue.Context is not.
type Decoder struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewDecoder compiles the embedded notice schema.
func NewDecoder() (*Decoder, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(noticeSchema, cue.Filename("notice.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile notice schema: %w", err)
	}
	return &Decoder{ctx: ctx, schema: schema}, nil
}

// wireNotice mirrors the JSON shape of every notice kind.
type wireNotice struct {
	Event         string       `json:"event"`
	GameID        int64        `json:"game_id,omitempty"`
	Card          *wireCard    `json:"card,omitempty"`
	PlayerID      int64        `json:"player_id,omitempty"`
	IsCorrect     *bool        `json:"is_correct,omitempty"`
	CorrectSymbol string       `json:"correct_symbol,omitempty"`
	Answer        string       `json:"answer,omitempty"`
	Scores        *[]wireScore `json:"scores,omitempty"`
}

type wireCard struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type wireScore struct {
	PlayerID int64 `json:"player_id"`
	Score    int64 `json:"score"`
}

// Decode validates frame and converts it to a PushNotice.
//
// Returns an error wrapping ErrMalformed when the frame is not JSON, has no
// string "event" field, or does not satisfy the schema for its event; and
// ErrUnknownEvent when the event name is not one this client reduces.
func (d *Decoder) Decode(frame []byte) (session.PushNotice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	expr, err := cuejson.Extract("frame", frame)
	if err != nil {
		return session.PushNotice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	v := d.ctx.BuildExpr(expr)
	if err := v.Err(); err != nil {
		return session.PushNotice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	name, err := v.LookupPath(cue.ParsePath("event")).String()
	if err != nil {
		return session.PushNotice{}, fmt.Errorf("%w: event field: %v", ErrMalformed, err)
	}
	kind, err := session.ParseNoticeKind(name)
	if err != nil {
		return session.PushNotice{}, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}

	def := d.schema.LookupPath(cue.ParsePath(schemaPaths[kind]))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return session.PushNotice{}, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}

	// The schema has vouched for the shape; encoding/json only maps fields.
	var w wireNotice
	if err := json.Unmarshal(frame, &w); err != nil {
		return session.PushNotice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return w.toNotice(kind), nil
}

func (w wireNotice) toNotice(kind session.NoticeKind) session.PushNotice {
	n := session.PushNotice{Notice: kind, GameID: w.GameID}
	switch kind {
	case session.NoticeCard:
		n.Card = &game.Card{ID: w.Card.ID, Text: w.Card.Text}
	case session.NoticeAnswered:
		a := &session.AnswerNotice{
			PlayerID:      w.PlayerID,
			IsCorrect:     w.IsCorrect != nil && *w.IsCorrect,
			CorrectSymbol: w.CorrectSymbol,
			Answer:        w.Answer,
		}
		if w.Scores != nil {
			a.Scores = make([]game.ScoreEntry, 0, len(*w.Scores))
			for _, s := range *w.Scores {
				a.Scores = append(a.Scores, game.ScoreEntry{PlayerID: s.PlayerID, Score: s.Score})
			}
		}
		n.Answer = a
	}
	return n
}

// EncodeNotice renders n in its wire form, canonically. Decode(EncodeNotice(n))
// reproduces n.
func EncodeNotice(n session.PushNotice) ([]byte, error) {
	w := wireNotice{Event: n.Notice.String(), GameID: n.GameID}
	if n.Card != nil {
		w.Card = &wireCard{ID: n.Card.ID, Text: n.Card.Text}
	}
	if a := n.Answer; a != nil {
		w.PlayerID = a.PlayerID
		w.IsCorrect = &a.IsCorrect
		w.CorrectSymbol = a.CorrectSymbol
		w.Answer = a.Answer
		if a.Scores != nil {
			scores := make([]wireScore, 0, len(a.Scores))
			for _, s := range a.Scores {
				scores = append(scores, wireScore{PlayerID: s.PlayerID, Score: s.Score})
			}
			w.Scores = &scores
		}
	}
	return MarshalCanonical(w)
}
