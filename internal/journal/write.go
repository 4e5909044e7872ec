package journal

import (
	"context"
	"fmt"
	"time"
)

// Record inserts a dispatch entry and its handlers.
// Uses ON CONFLICT(dispatch_id) DO NOTHING for idempotency - recording the
// same dispatch twice keeps the first row.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.DispatchID == "" {
		return fmt.Errorf("record dispatch: dispatch id is required")
	}
	if e.PayloadJSON == "" {
		e.PayloadJSON = "null"
	}
	if len(e.Stores) != 0 && len(e.Stores) != len(e.Handled) {
		return fmt.Errorf("record dispatch %s: %d store names for %d handlers", e.DispatchID, len(e.Stores), len(e.Handled))
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record dispatch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO dispatches
		(dispatch_id, seq, action_type, action_source, payload, error, duration_ns, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dispatch_id) DO NOTHING
	`,
		e.DispatchID,
		e.Seq,
		e.Type,
		e.Source,
		e.PayloadJSON,
		e.Error,
		int64(e.Duration),
		e.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record dispatch %s: %w", e.DispatchID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record dispatch %s: rows affected: %w", e.DispatchID, err)
	}
	if rows == 0 {
		return nil
	}

	for i, tok := range e.Handled {
		store := ""
		if len(e.Stores) > 0 {
			store = e.Stores[i]
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO handlers (dispatch_id, position, token, store)
			VALUES (?, ?, ?, ?)
		`, e.DispatchID, i, string(tok), store)
		if err != nil {
			return fmt.Errorf("record dispatch %s: handler %s: %w", e.DispatchID, tok, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record dispatch %s: commit: %w", e.DispatchID, err)
	}
	return nil
}
