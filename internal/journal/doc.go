// Package journal provides SQLite-backed storage for session event logs.
//
// The journal is diagnostic: a live session never reads it back. It records
// every event the engine reduced, keyed by (session_id, seq), so a session
// can be replayed offline and its views compared.
//
// # Patterns
//
// Logical time
//   - Ordering uses the seq column (the engine's logical clock), never
//     timestamps, so replays see the same order regardless of wall time.
//
// Idempotent writes
//   - UNIQUE(session_id, seq) with ON CONFLICT DO NOTHING; rewriting an
//     entry is a no-op.
//
// Content-addressed ids
//   - event_id is wire.EventID over (session, seq, kind, payload); payloads
//     are canonical JSON, so equal events always get equal ids.
//
// # Connection
//
// Pragmas travel in the DSN so every pooled connection gets them:
// journal_mode=WAL, synchronous=NORMAL, busy_timeout=5000. The schema
// version lives in PRAGMA user_version; Open refuses a journal stamped with
// a newer version than this build writes.
package journal
