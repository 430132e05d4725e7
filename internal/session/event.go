package session

import (
	"fmt"

	"github.com/roach88/dobble/internal/game"
)

// Source identifies where an event entered the session.
type Source uint8

const (
	// SourceAction marks acknowledgements and gate bookkeeping for actions
	// the client initiated. These transitions are optimistic.
	SourceAction Source = iota + 1
	// SourcePush marks notices from the push channel. Authoritative.
	SourcePush
	// SourceLobby marks lobby list refreshes.
	SourceLobby
)

// String returns the journal name of the source.
func (s Source) String() string {
	switch s {
	case SourceAction:
		return "action"
	case SourcePush:
		return "push"
	case SourceLobby:
		return "lobby"
	default:
		return fmt.Sprintf("Source(%d)", uint8(s))
	}
}

// ActionKind names one of the client-initiated operations.
type ActionKind uint8

const (
	ActionCreate ActionKind = iota + 1
	ActionJoin
	ActionStart
	ActionReady
	ActionSubmit
)

var actionNames = map[ActionKind]string{
	ActionCreate: "create",
	ActionJoin:   "join",
	ActionStart:  "start",
	ActionReady:  "ready",
	ActionSubmit: "submit",
}

// String returns the action name.
func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

// ParseActionKind converts an action name to an ActionKind.
func ParseActionKind(name string) (ActionKind, error) {
	for k, n := range actionNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// NoticeKind names a push notice. String values match the wire "event" field.
type NoticeKind uint8

const (
	NoticeCreated NoticeKind = iota + 1
	NoticeJoined
	NoticeStarted
	NoticeCard
	NoticeAnswered
)

var noticeNames = map[NoticeKind]string{
	NoticeCreated:  "CREATED",
	NoticeJoined:   "JOINED",
	NoticeStarted:  "STARTED",
	NoticeCard:     "card",
	NoticeAnswered: "ANSWERED",
}

// String returns the wire name of the notice.
func (k NoticeKind) String() string {
	if n, ok := noticeNames[k]; ok {
		return n
	}
	return fmt.Sprintf("NoticeKind(%d)", uint8(k))
}

// ParseNoticeKind converts a wire event name to a NoticeKind.
func ParseNoticeKind(name string) (NoticeKind, error) {
	for k, n := range noticeNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown notice %q", name)
}

// Event is one input to the reducer. The set of implementations is closed.
type Event interface {
	// Source reports where the event came from.
	Source() Source
	// Kind is a short name for logs and the journal.
	Kind() string

	eventMarker()
}

// ActionAck is a successful acknowledgement of a client-initiated action.
type ActionAck struct {
	Action ActionKind

	// Player is set for create and join acknowledgements.
	Player *game.Player

	// GameName is the requested game name for create acknowledgements.
	GameName string
}

// PushNotice is a decoded server notice.
type PushNotice struct {
	Notice NoticeKind

	// GameID scopes the notice to one game. Zero means unscoped.
	GameID int64

	// Card is set for card notices.
	Card *game.Card

	// Answer is set for answered notices.
	Answer *AnswerNotice
}

// AnswerNotice carries the fields of an ANSWERED notice.
type AnswerNotice struct {
	PlayerID      int64
	IsCorrect     bool
	CorrectSymbol string
	Answer        string

	// Scores is the authoritative snapshot. Nil means no snapshot was
	// attached; a non-nil empty slice is an (empty) snapshot.
	Scores []game.ScoreEntry
}

// ActionIssued asks the gate to admit an action before any network call.
// A refused issue leaves the state untouched and sets Reduction.Err.
type ActionIssued struct {
	Action ActionKind
}

// ActionFailed reports that an admitted action did not succeed. It undoes
// whatever the matching ActionIssued reserved.
type ActionFailed struct {
	Action ActionKind
	Cause  error
}

// GamesListed replaces the lobby listing.
type GamesListed struct {
	Games []game.Listing
}

func (ActionAck) Source() Source    { return SourceAction }
func (PushNotice) Source() Source   { return SourcePush }
func (ActionIssued) Source() Source { return SourceAction }
func (ActionFailed) Source() Source { return SourceAction }
func (GamesListed) Source() Source  { return SourceLobby }

func (e ActionAck) Kind() string    { return "ack:" + e.Action.String() }
func (e PushNotice) Kind() string   { return "notice:" + e.Notice.String() }
func (e ActionIssued) Kind() string { return "issued:" + e.Action.String() }
func (e ActionFailed) Kind() string { return "failed:" + e.Action.String() }
func (GamesListed) Kind() string    { return "games" }

func (ActionAck) eventMarker()    {}
func (PushNotice) eventMarker()   {}
func (ActionIssued) eventMarker() {}
func (ActionFailed) eventMarker() {}
func (GamesListed) eventMarker()  {}
