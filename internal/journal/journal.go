package journal

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. A journal written by a
// newer client is refused rather than misread.
const schemaVersion = 1

// ErrSchemaTooNew is returned by Open for a journal with a newer schema.
var ErrSchemaTooNew = errors.New("journal schema is newer than this client")

// Connection pragmas, applied by the driver to every connection.
var pragmas = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
}

// Journal is an append-only SQLite log of reduced session events.
//
// Thread-safety: a Journal may be shared; SQLite serializes the single
// writer connection.
type Journal struct {
	db *sql.DB
}

// Open opens the journal at path, creating the file and schema if needed.
// ":memory:" opens a private in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?"+pragmas.Encode())
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// One connection: a single writer, and an in-memory journal must not be
	// split across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrSchemaTooNew, version, schemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// pragma reads a pragma value. Tests use it to check connection settings.
func (j *Journal) pragma(name string) (string, error) {
	var value string
	err := j.db.QueryRow("PRAGMA " + name).Scan(&value)
	return value, err
}
