package database

import (
	"context"
	"database/sql"
	"fmt"

	"maitred/internal/models"
)

// CreateRestaurant inserts a restaurant.
func (db *DB) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO restaurants (tenant_id, name, timezone) VALUES (?, ?, ?)`,
		r.TenantID, r.Name, r.Timezone)
	if err != nil {
		return fmt.Errorf("insert restaurant: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// GetRestaurant returns one restaurant by ID.
func (db *DB) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	var r models.Restaurant
	err := db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, timezone FROM restaurants WHERE id = ?`, id).
		Scan(&r.ID, &r.TenantID, &r.Name, &r.Timezone)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return &r, nil
}

// CreateTable inserts a table.
func (db *DB) CreateTable(ctx context.Context, t *models.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO tables (restaurant_id, number, capacity, is_active) VALUES (?, ?, ?, ?)`,
		t.RestaurantID, t.Number, t.Capacity, t.IsActive)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTables returns all tables of a restaurant ordered by number.
func (db *DB) GetTables(ctx context.Context, restaurantID int64) ([]models.Table, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, restaurant_id, number, capacity, is_active
		FROM tables WHERE restaurant_id = ? ORDER BY number`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var out []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Number, &t.Capacity, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
