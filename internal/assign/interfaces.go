package assign

import (
	"context"
	"time"

	"maitred/internal/models"
)

// Store is the storage collaborator consumed by the scheduler. Implementations
// validate records at the boundary; the scheduler trusts what it receives.
type Store interface {
	// GetUnassignedConfirmedBookings returns confirmed bookings with no table
	// reference, across all restaurants.
	GetUnassignedConfirmedBookings(ctx context.Context) ([]models.Booking, error)

	// GetTables returns all tables of a restaurant, active or not.
	GetTables(ctx context.Context, restaurantID int64) ([]models.Table, error)

	// GetBookingsForDate returns a restaurant's bookings on a calendar date.
	GetBookingsForDate(ctx context.Context, restaurantID int64, date time.Time) ([]models.Booking, error)

	// UpdateBookingAssignment binds a table to a booking. The write is a
	// compare-and-set on the booking's version; a stale version fails so a
	// concurrent manual assignment is never overwritten.
	UpdateBookingAssignment(ctx context.Context, bookingID, version, tableID int64, assignType string, at time.Time) (*models.Booking, error)
}
