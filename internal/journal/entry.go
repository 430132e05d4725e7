package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

// Entry is one journaled event.
type Entry struct {
	SessionID string
	Seq       int64
	Source    string
	Kind      string
	Payload   []byte
	EventID   string
}

// SessionSummary describes one journaled session.
type SessionSummary struct {
	ID      string
	Events  int
	LastSeq int64
}

// Append encodes ev and writes it as the entry at (sessionID, seq).
func (j *Journal) Append(ctx context.Context, sessionID string, seq int64, ev session.Event) error {
	kind, payload, err := wire.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	id, err := wire.EventID(sessionID, seq, kind, payload)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return j.Write(ctx, Entry{
		SessionID: sessionID,
		Seq:       seq,
		Source:    ev.Source().String(),
		Kind:      kind,
		Payload:   payload,
		EventID:   id,
	})
}

// Write inserts e. Uses ON CONFLICT DO NOTHING for idempotency - a second
// write at the same (session_id, seq) is silently ignored.
func (j *Journal) Write(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events
		(session_id, seq, source, kind, payload, event_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		e.SessionID,
		e.Seq,
		e.Source,
		e.Kind,
		string(e.Payload),
		e.EventID,
	)
	if err != nil {
		return fmt.Errorf("write event %s/%d: %w", e.SessionID, e.Seq, err)
	}
	return nil
}

// ReadSession returns all entries of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session has no entries.
func (j *Journal) ReadSession(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, seq, source, kind, payload, event_id
		FROM events
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return entries, nil
}

// ReadEvent retrieves a single entry by its content-addressed id.
// Returns sql.ErrNoRows if not found.
func (j *Journal) ReadEvent(ctx context.Context, eventID string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT session_id, seq, source, kind, payload, event_id
		FROM events
		WHERE event_id = ?
	`, eventID)
	return scanEntry(row)
}

// ListSessions summarizes every journaled session, ordered by id.
func (j *Journal) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MAX(seq)
		FROM events
		GROUP BY session_id
		ORDER BY session_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.Events, &s.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var payload string
	if err := row.Scan(&e.SessionID, &e.Seq, &e.Source, &e.Kind, &payload, &e.EventID); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan event: %w", err)
	}
	e.Payload = []byte(payload)
	return e, nil
}
