package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// journalFormat is stamped into PRAGMA user_version. A journal written by a
// newer sparqlc is refused rather than appended to.
const journalFormat = 1

// Store is the query journal. It records every exchange the client makes
// and implements client.Recorder.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal at path. ":memory:" gives a private
// in-memory journal.
//
// File journals run in WAL mode so `sparqlc history` can read while another
// process appends, with a 5s busy timeout for writer contention.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	// One connection: an in-memory database exists per connection, and
	// SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init() error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("configure journal: %q: %w", pragma, err)
		}
	}

	var format int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&format); err != nil {
		return fmt.Errorf("read journal format: %w", err)
	}
	if format > journalFormat {
		return fmt.Errorf("journal format %d is newer than supported format %d", format, journalFormat)
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", journalFormat)); err != nil {
		return fmt.Errorf("stamp journal format: %w", err)
	}
	return nil
}

// pragma reads a single PRAGMA value as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return value, nil
}
