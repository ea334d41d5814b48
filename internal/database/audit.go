package database

import (
	"context"
	"fmt"
	"time"

	"maitred/internal/events"
)

// InsertAuditRecord persists one assignment decision.
func (db *DB) InsertAuditRecord(ctx context.Context, ev events.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO assignment_audit (run_id, kind, booking_id, restaurant_id, table_id, assignment_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID, ev.Kind, ev.BookingID, ev.RestaurantID, ev.TableID, ev.AssignmentType, ev.At)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// GetAuditRecords returns assignment decisions recorded since the given
// time, oldest first.
func (db *DB) GetAuditRecords(ctx context.Context, since time.Time) ([]events.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, kind, booking_id, restaurant_id, table_id, assignment_type, created_at
		FROM assignment_audit WHERE created_at >= ? ORDER BY created_at`, since)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var ev events.Event
		if err := rows.Scan(&ev.RunID, &ev.Kind, &ev.BookingID, &ev.RestaurantID, &ev.TableID, &ev.AssignmentType, &ev.At); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// DeleteAuditRecordsBefore removes decisions older than the cutoff and
// returns how many were deleted.
func (db *DB) DeleteAuditRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM assignment_audit WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit records: %w", err)
	}
	return res.RowsAffected()
}
