package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maitred/internal/models"
	"maitred/internal/timeutil"
)

const bookingColumns = `id, tenant_id, restaurant_id, party_size, date, start_time, end_time,
	status, table_id, assigned_at, assignment_type, created_at, updated_at, version`

// CreateBooking inserts a booking. Used by the synchronous booking path and
// by tests; the scheduler itself never creates bookings.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	if err := b.Validate(); err != nil {
		return err
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO bookings (tenant_id, restaurant_id, party_size, date, start_time, end_time,
			status, table_id, assigned_at, assignment_type, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		b.TenantID, b.RestaurantID, b.PartySize,
		timeutil.DateOnly(b.Date).Format(dateFormat), b.StartTime, b.EndTime,
		b.Status, b.TableID, b.AssignedAt, b.AssignType, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("booking id: %w", err)
	}
	b.CreatedAt, b.UpdatedAt, b.Version = now, now, 1
	return nil
}

// GetBooking returns one booking by ID.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

// GetUnassignedConfirmedBookings returns confirmed bookings that have no
// table yet, oldest seating first.
func (db *DB) GetUnassignedConfirmedBookings(ctx context.Context) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = ? AND table_id IS NULL
		ORDER BY start_time`, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("query unassigned bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// GetBookingsForDate returns a restaurant's bookings on one calendar date.
func (db *DB) GetBookingsForDate(ctx context.Context, restaurantID int64, date time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE restaurant_id = ? AND date = ?
		ORDER BY start_time`,
		restaurantID, timeutil.DateOnly(date).Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("query bookings for date: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// UpdateBookingAssignment binds a table to a booking with a compare-and-set
// on version. Returns ErrConcurrentModification when the booking changed
// since it was read, so the scheduler never overwrites a manual assignment.
func (db *DB) UpdateBookingAssignment(ctx context.Context, bookingID, version, tableID int64, assignType string, at time.Time) (*models.Booking, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET table_id = ?, assigned_at = ?, assignment_type = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		tableID, at, assignType, time.Now(), bookingID, version)
	if err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetBooking(ctx, bookingID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("booking %d: %w", bookingID, ErrConcurrentModification)
	}

	return db.GetBooking(ctx, bookingID)
}

// ClearBookingAssignment removes a booking's table reference, for manual
// unassignment from the management surface.
func (db *DB) ClearBookingAssignment(ctx context.Context, bookingID, version int64) (*models.Booking, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET table_id = NULL, assigned_at = NULL, assignment_type = '', updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		time.Now(), bookingID, version)
	if err != nil {
		return nil, fmt.Errorf("clear assignment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("clear assignment: %w", err)
	}
	if affected == 0 {
		if _, err := db.GetBooking(ctx, bookingID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("booking %d: %w", bookingID, ErrConcurrentModification)
	}

	return db.GetBooking(ctx, bookingID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b        models.Booking
		dateStr  string
		endTime  sql.NullTime
		tableID  sql.NullInt64
		assigned sql.NullTime
	)

	err := row.Scan(&b.ID, &b.TenantID, &b.RestaurantID, &b.PartySize, &dateStr,
		&b.StartTime, &endTime, &b.Status, &tableID, &assigned, &b.AssignType,
		&b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		return nil, err
	}

	b.Date, err = time.Parse(dateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("parse booking date %q: %w", dateStr, err)
	}
	if endTime.Valid {
		t := endTime.Time
		b.EndTime = &t
	}
	if tableID.Valid {
		id := tableID.Int64
		b.TableID = &id
	}
	if assigned.Valid {
		t := assigned.Time
		b.AssignedAt = &t
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
