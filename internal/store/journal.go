package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sparqlc/internal/ir"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// Record appends an exchange to the journal.
// Uses ON CONFLICT(request_id) DO NOTHING - recording the same request
// twice is silently ignored.
func (s *Store) Record(ctx context.Context, ex ir.Exchange) error {
	if ex.RequestID == "" {
		return fmt.Errorf("record exchange: request id is required")
	}

	outcome := outcomeOK
	var errText sql.NullString
	if ex.Err != nil {
		outcome = outcomeError
		errText = sql.NullString{String: ex.Err.Error(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges
		(request_id, endpoint, query, status_code, bindings, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id) DO NOTHING
	`,
		ex.RequestID,
		ex.Endpoint,
		ex.Query,
		ex.StatusCode,
		ex.Bindings,
		outcome,
		errText,
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// List returns the most recent limit entries, oldest first.
// A limit <= 0 returns every entry. Returns an empty slice (not nil) when
// the journal is empty.
func (s *Store) List(ctx context.Context, limit int) ([]ir.JournalEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, request_id, endpoint, query, status_code, bindings, outcome, error
		FROM (
			SELECT * FROM exchanges
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	entries := []ir.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return entries, nil
}

// ListByEndpoint returns every entry for one endpoint, oldest first.
func (s *Store) ListByEndpoint(ctx context.Context, endpoint string) ([]ir.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, request_id, endpoint, query, status_code, bindings, outcome, error
		FROM exchanges
		WHERE endpoint = ?
		ORDER BY seq ASC
	`, endpoint)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	entries := []ir.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return entries, nil
}

// Get returns the entry for a request ID. found is false when no such
// request was recorded.
func (s *Store) Get(ctx context.Context, requestID string) (entry ir.JournalEntry, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, request_id, endpoint, query, status_code, bindings, outcome, error
		FROM exchanges
		WHERE request_id = ?
	`, requestID)

	entry, err = scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.JournalEntry{}, false, nil
	}
	if err != nil {
		return ir.JournalEntry{}, false, err
	}
	return entry, true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (ir.JournalEntry, error) {
	var (
		e       ir.JournalEntry
		errText sql.NullString
	)
	err := r.Scan(&e.Seq, &e.RequestID, &e.Endpoint, &e.Query, &e.StatusCode, &e.Bindings, &e.Outcome, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.JournalEntry{}, err
	}
	if err != nil {
		return ir.JournalEntry{}, fmt.Errorf("scan exchange: %w", err)
	}
	e.Error = errText.String
	return e, nil
}
