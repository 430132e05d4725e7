package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/session"
)

// Journal payload shapes. Push notices are journaled in their wire form so a
// replay decodes exactly what the socket delivered.

type ackPayload struct {
	Player   *game.Player `json:"player,omitempty"`
	GameName string       `json:"game_name,omitempty"`
}

type failedPayload struct {
	Cause string `json:"cause,omitempty"`
}

type gamesPayload struct {
	Games []game.Listing `json:"games"`
}

// EncodeEvent renders ev as a journal (kind, payload) pair. The payload is
// canonical JSON; kind is ev.Kind().
func EncodeEvent(ev session.Event) (string, []byte, error) {
	var body any
	switch e := ev.(type) {
	case session.ActionAck:
		body = ackPayload{Player: e.Player, GameName: e.GameName}
	case session.PushNotice:
		payload, err := EncodeNotice(e)
		if err != nil {
			return "", nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
		}
		return ev.Kind(), payload, nil
	case session.ActionIssued:
		body = struct{}{}
	case session.ActionFailed:
		p := failedPayload{}
		if e.Cause != nil {
			p.Cause = e.Cause.Error()
		}
		body = p
	case session.GamesListed:
		games := e.Games
		if games == nil {
			games = []game.Listing{}
		}
		body = gamesPayload{Games: games}
	default:
		return "", nil, fmt.Errorf("encode event: unsupported type %T", ev)
	}

	payload, err := MarshalCanonical(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return ev.Kind(), payload, nil
}

// DecodeEvent reverses EncodeEvent. Notices are decoded through d so a
// journaled frame is held to the same schema as a live one.
func DecodeEvent(d *Decoder, kind string, payload []byte) (session.Event, error) {
	prefix, name, _ := strings.Cut(kind, ":")
	switch prefix {
	case "ack":
		action, err := session.ParseActionKind(name)
		if err != nil {
			return nil, err
		}
		var p ackPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return session.ActionAck{Action: action, Player: p.Player, GameName: p.GameName}, nil

	case "notice":
		n, err := d.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return n, nil

	case "issued":
		action, err := session.ParseActionKind(name)
		if err != nil {
			return nil, err
		}
		return session.ActionIssued{Action: action}, nil

	case "failed":
		action, err := session.ParseActionKind(name)
		if err != nil {
			return nil, err
		}
		var p failedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		var cause error
		if p.Cause != "" {
			cause = errors.New(p.Cause)
		}
		return session.ActionFailed{Action: action, Cause: cause}, nil

	case "games":
		var p gamesPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return session.GamesListed{Games: p.Games}, nil

	default:
		return nil, fmt.Errorf("decode event: unknown kind %q", kind)
	}
}
