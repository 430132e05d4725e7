package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dobble/internal/game"
	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		j, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		j.Close()
	}

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	var name string
	err = j.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='events'").Scan(&name)
	require.NoError(t, err)
	v, err := j.pragma("user_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestOpen_InMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Append(ctx, "s-1", 1, session.ActionIssued{Action: session.ActionReady}))
	entries, err := j.ReadSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpen_Pragmas(t *testing.T) {
	j := createTestJournal(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
	} {
		got, err := j.pragma(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestAppendAndReadSession(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	events := []session.Event{
		session.ActionIssued{Action: session.ActionCreate},
		session.ActionAck{Action: session.ActionCreate, Player: &game.Player{ID: 1, GameID: 2, DisplayName: "ann"}, GameName: "g"},
		session.PushNotice{Notice: session.NoticeCard, Card: &game.Card{ID: 5, Text: "symbols: [A]"}},
	}
	// Write out of order; reads come back by seq.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, j.Append(ctx, "s-1", int64(i+1), events[i]))
	}
	require.NoError(t, j.Append(ctx, "s-2", 1, events[0]))

	entries, err := j.ReadSession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for i, e := range entries {
		assert.Equal(t, "s-1", e.SessionID)
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, events[i].Kind(), e.Kind)
		assert.Equal(t, events[i].Source().String(), e.Source)

		id, err := wire.EventID(e.SessionID, e.Seq, e.Kind, e.Payload)
		require.NoError(t, err)
		assert.Equal(t, id, e.EventID)
	}
	assert.Equal(t, `{"card":{"id":5,"text":"symbols: [A]"},"event":"card"}`, string(entries[2].Payload))
}

func TestWriteIsIdempotent(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	ev := session.ActionIssued{Action: session.ActionReady}
	require.NoError(t, j.Append(ctx, "s-1", 1, ev))
	require.NoError(t, j.Append(ctx, "s-1", 1, ev))
	// A different event at an occupied seq is also ignored.
	require.NoError(t, j.Append(ctx, "s-1", 1, session.ActionIssued{Action: session.ActionSubmit}))

	entries, err := j.ReadSession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "issued:ready", entries[0].Kind)
}

func TestReadSessionEmpty(t *testing.T) {
	j := createTestJournal(t)

	entries, err := j.ReadSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestReadEvent(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, "s-1", 1, session.GamesListed{}))
	entries, err := j.ReadSession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := j.ReadEvent(ctx, entries[0].EventID)
	require.NoError(t, err)
	assert.Equal(t, entries[0], got)

	_, err = j.ReadEvent(ctx, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListSessions(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	ev := session.ActionIssued{Action: session.ActionCreate}
	require.NoError(t, j.Append(ctx, "b", 1, ev))
	require.NoError(t, j.Append(ctx, "a", 1, ev))
	require.NoError(t, j.Append(ctx, "a", 4, ev))

	sessions, err := j.ListSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SessionSummary{
		{ID: "a", Events: 2, LastSeq: 4},
		{ID: "b", Events: 1, LastSeq: 1},
	}, sessions)
}
