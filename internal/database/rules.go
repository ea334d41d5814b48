package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"maitred/internal/models"
	"maitred/internal/timeutil"
)

// SetOpeningHours upserts the weekly schedule entry for one weekday.
func (db *DB) SetOpeningHours(ctx context.Context, h *models.OpeningHours) error {
	if err := h.Validate(); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO opening_hours (restaurant_id, weekday, is_open, open_time, close_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(restaurant_id, weekday) DO UPDATE SET
			is_open = excluded.is_open,
			open_time = excluded.open_time,
			close_time = excluded.close_time`,
		h.RestaurantID, h.Weekday, h.IsOpen, h.OpenTime, h.CloseTime)
	if err != nil {
		return fmt.Errorf("upsert opening hours: %w", err)
	}
	return nil
}

// GetOpeningHours returns a restaurant's weekly schedule.
func (db *DB) GetOpeningHours(ctx context.Context, restaurantID int64) ([]models.OpeningHours, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, restaurant_id, weekday, is_open, open_time, close_time
		FROM opening_hours WHERE restaurant_id = ? ORDER BY weekday`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query opening hours: %w", err)
	}
	defer rows.Close()

	var out []models.OpeningHours
	for rows.Next() {
		var h models.OpeningHours
		if err := rows.Scan(&h.ID, &h.RestaurantID, &h.Weekday, &h.IsOpen, &h.OpenTime, &h.CloseTime); err != nil {
			return nil, fmt.Errorf("scan opening hours: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// CreateSpecialPeriod inserts a date-range schedule override.
func (db *DB) CreateSpecialPeriod(ctx context.Context, p *models.SpecialPeriod) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO special_periods (restaurant_id, start_date, end_date, is_open, open_time, close_time)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.RestaurantID,
		timeutil.DateOnly(p.StartDate).Format(dateFormat),
		timeutil.DateOnly(p.EndDate).Format(dateFormat),
		p.IsOpen, p.OpenTime, p.CloseTime)
	if err != nil {
		return fmt.Errorf("insert special period: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// GetSpecialPeriods returns a restaurant's schedule overrides.
func (db *DB) GetSpecialPeriods(ctx context.Context, restaurantID int64) ([]models.SpecialPeriod, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, restaurant_id, start_date, end_date, is_open, open_time, close_time
		FROM special_periods WHERE restaurant_id = ? ORDER BY start_date`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query special periods: %w", err)
	}
	defer rows.Close()

	var out []models.SpecialPeriod
	for rows.Next() {
		var (
			p          models.SpecialPeriod
			start, end string
		)
		if err := rows.Scan(&p.ID, &p.RestaurantID, &start, &end, &p.IsOpen, &p.OpenTime, &p.CloseTime); err != nil {
			return nil, fmt.Errorf("scan special period: %w", err)
		}
		if p.StartDate, err = time.Parse(dateFormat, start); err != nil {
			return nil, fmt.Errorf("parse period start %q: %w", start, err)
		}
		if p.EndDate, err = time.Parse(dateFormat, end); err != nil {
			return nil, fmt.Errorf("parse period end %q: %w", end, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateCutOffTime inserts a booking lead-time rule.
func (db *DB) CreateCutOffTime(ctx context.Context, c *models.CutOffTime) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO cutoff_times (restaurant_id, weekday, hours, minutes)
		VALUES (?, ?, ?, ?)`,
		c.RestaurantID, c.Weekday, c.Hours, c.Minutes)
	if err != nil {
		return fmt.Errorf("insert cutoff: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// GetCutOffTimes returns a restaurant's lead-time rules.
func (db *DB) GetCutOffTimes(ctx context.Context, restaurantID int64) ([]models.CutOffTime, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, restaurant_id, weekday, hours, minutes
		FROM cutoff_times WHERE restaurant_id = ?`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query cutoffs: %w", err)
	}
	defer rows.Close()

	var out []models.CutOffTime
	for rows.Next() {
		var (
			c       models.CutOffTime
			weekday sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.RestaurantID, &weekday, &c.Hours, &c.Minutes); err != nil {
			return nil, fmt.Errorf("scan cutoff: %w", err)
		}
		if weekday.Valid {
			d := int(weekday.Int64)
			c.Weekday = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
