package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/strictflux/internal/dispatcher"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type       string
	Source     string
	ErrorsOnly bool
	Limit      int
}

// List returns matching entries in the order they were recorded.
// Returns an empty slice (not nil) if nothing matches.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "action_type = ?")
		args = append(args, f.Type)
	}
	if f.Source != "" {
		where = append(where, "action_source = ?")
		args = append(args, f.Source)
	}
	if f.ErrorsOnly {
		where = append(where, "error != ''")
	}

	query := `
		SELECT dispatch_id, seq, action_type, action_source, payload, error, duration_ns, started_at
		FROM dispatches`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY id ASC"
	if f.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
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
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}

	for i := range entries {
		if err := j.loadHandlers(ctx, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Get returns the entry for a dispatch ID, or ErrNotFound.
func (j *Journal) Get(ctx context.Context, dispatchID string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT dispatch_id, seq, action_type, action_source, payload, error, duration_ns, started_at
		FROM dispatches
		WHERE dispatch_id = ?
	`, dispatchID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, dispatchID)
	}
	if err != nil {
		return Entry{}, err
	}
	if err := j.loadHandlers(ctx, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Count returns the number of recorded dispatches.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatches").Scan(&n); err != nil {
		return 0, fmt.Errorf("count dispatches: %w", err)
	}
	return n, nil
}

func (j *Journal) loadHandlers(ctx context.Context, e *Entry) error {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token, store
		FROM handlers
		WHERE dispatch_id = ?
		ORDER BY position ASC
	`, e.DispatchID)
	if err != nil {
		return fmt.Errorf("query handlers: %w", err)
	}
	defer rows.Close()

	e.Handled = []dispatcher.Token{}
	e.Stores = []string{}
	for rows.Next() {
		var tok, store string
		if err := rows.Scan(&tok, &store); err != nil {
			return fmt.Errorf("scan handler: %w", err)
		}
		e.Handled = append(e.Handled, dispatcher.Token(tok))
		e.Stores = append(e.Stores, store)
	}
	return rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e        Entry
		duration int64
		started  string
	)
	err := s.Scan(&e.DispatchID, &e.Seq, &e.Type, &e.Source, &e.PayloadJSON, &e.Error, &duration, &started)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan dispatch: %w", err)
	}
	e.Duration = time.Duration(duration)
	e.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Entry{}, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	return e, nil
}
