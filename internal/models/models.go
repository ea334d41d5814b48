package models

import (
	"errors"
	"fmt"
	"time"

	"maitred/internal/timeutil"
)

// DefaultBookingDuration is assumed when a booking has no explicit end time.
const DefaultBookingDuration = 120 * time.Minute

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Assignment types recorded on a booking when a table is bound to it.
const (
	AssignManual           = "manual"
	AssignAuto             = "auto"
	AssignAutoReassign     = "auto_reassign"
	AssignConflictResolved = "auto_conflict_resolved"
)

var (
	ErrInvalidPartySize = errors.New("party size must be positive")
	ErrInvalidCapacity  = errors.New("table capacity must be positive")
	ErrInvalidStatus    = errors.New("unknown booking status")
	ErrInvalidWeekday   = errors.New("weekday must be in 0..6")
)

// Restaurant is a venue owned by exactly one tenant. Identity is immutable;
// configuration (rules, tables) lives with the restaurant but is managed
// outside this engine.
type Restaurant struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

// Table is a physical table in a restaurant. Read-only to the engine.
type Table struct {
	ID           int64 `json:"id"`
	RestaurantID int64 `json:"restaurant_id"`
	Number       int   `json:"number"`
	Capacity     int   `json:"capacity"`
	IsActive     bool  `json:"is_active"`
}

// Validate checks invariants enforced at the storage boundary.
func (t *Table) Validate() error {
	if t.Capacity <= 0 {
		return fmt.Errorf("table %d: %w", t.ID, ErrInvalidCapacity)
	}
	return nil
}

// Booking is a reservation for a party at a restaurant. The engine mutates
// only the table reference and assignment metadata; it never deletes bookings.
type Booking struct {
	ID           int64      `json:"id"`
	TenantID     int64      `json:"tenant_id"`
	RestaurantID int64      `json:"restaurant_id"`
	PartySize    int        `json:"party_size"`
	Date         time.Time  `json:"date"`       // calendar date of the reservation
	StartTime    time.Time  `json:"start_time"` // full timestamp of the seating
	EndTime      *time.Time `json:"end_time,omitempty"`
	Status       string     `json:"status"`
	TableID      *int64     `json:"table_id,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
	AssignType   string     `json:"assignment_type,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Version      int64      `json:"version"`
}

// Validate checks invariants enforced at the storage boundary.
func (b *Booking) Validate() error {
	if b.PartySize <= 0 {
		return fmt.Errorf("booking %d: %w", b.ID, ErrInvalidPartySize)
	}
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusCancelled:
	default:
		return fmt.Errorf("booking %d: %w: %q", b.ID, ErrInvalidStatus, b.Status)
	}
	return nil
}

// EffectiveEndTime returns the booking's end time, defaulting to
// StartTime + DefaultBookingDuration when no explicit end is set.
func (b *Booking) EffectiveEndTime() time.Time {
	if b.EndTime != nil {
		return *b.EndTime
	}
	return b.StartTime.Add(DefaultBookingDuration)
}

// Window returns the booking's seating interval [start, end).
func (b *Booking) Window() timeutil.Window {
	return timeutil.Window{Start: b.StartTime, End: b.EffectiveEndTime()}
}

// IsAssigned reports whether a table is bound to the booking.
func (b *Booking) IsAssigned() bool {
	return b.TableID != nil
}

// MinutesUntil returns whole minutes from now until the seating starts.
func (b *Booking) MinutesUntil(now time.Time) int {
	return int(b.StartTime.Sub(now) / time.Minute)
}

// OpeningHours is the weekly schedule entry for one weekday (0 = Sunday).
type OpeningHours struct {
	ID           int64  `json:"id"`
	RestaurantID int64  `json:"restaurant_id"`
	Weekday      int    `json:"weekday"`
	IsOpen       bool   `json:"is_open"`
	OpenTime     string `json:"open_time"`  // "09:00"
	CloseTime    string `json:"close_time"` // "22:00"
}

// Validate checks invariants enforced at the storage boundary.
func (h *OpeningHours) Validate() error {
	if h.Weekday < 0 || h.Weekday > 6 {
		return fmt.Errorf("opening hours %d: %w", h.ID, ErrInvalidWeekday)
	}
	if !h.IsOpen {
		return nil
	}
	if _, _, err := timeutil.ParseClock(h.OpenTime); err != nil {
		return fmt.Errorf("opening hours %d: %w", h.ID, err)
	}
	if _, _, err := timeutil.ParseClock(h.CloseTime); err != nil {
		return fmt.Errorf("opening hours %d: %w", h.ID, err)
	}
	return nil
}

// SpecialPeriod is a date-range override of the weekly schedule, e.g. a
// holiday closure or extended festival hours. Takes priority over
// OpeningHours for dates it covers.
type SpecialPeriod struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsOpen       bool      `json:"is_open"`
	OpenTime     string    `json:"open_time,omitempty"`  // optional override
	CloseTime    string    `json:"close_time,omitempty"` // optional override
}

// Covers reports whether date (compared by calendar day) falls inside the
// period, boundaries inclusive.
func (p *SpecialPeriod) Covers(date time.Time) bool {
	d := timeutil.DateOnly(date)
	return !d.Before(timeutil.DateOnly(p.StartDate)) && !d.After(timeutil.DateOnly(p.EndDate))
}

// HasOverrideHours reports whether the period defines its own open/close
// window instead of falling through to the weekly schedule.
func (p *SpecialPeriod) HasOverrideHours() bool {
	return p.OpenTime != "" && p.CloseTime != ""
}

// CutOffTime is the minimum lead time before a slot may still be booked.
// Weekday is nil for a restaurant-wide rule, or 0..6 to scope it to one day.
type CutOffTime struct {
	ID           int64 `json:"id"`
	RestaurantID int64 `json:"restaurant_id"`
	Weekday      *int  `json:"weekday,omitempty"`
	Hours        int   `json:"hours"`
	Minutes      int   `json:"minutes"`
}

// LeadMinutes returns the cutoff expressed in minutes.
func (c *CutOffTime) LeadMinutes() int {
	return c.Hours*60 + c.Minutes
}
