package conflict

import (
	"errors"
	"sort"
	"time"

	"maitred/internal/models"
	"maitred/internal/timeutil"
)

// DefaultBuffer is the turnover time required between seatings on one table.
const DefaultBuffer = 30 * time.Minute

// DefaultDuration is assumed for bookings without an explicit end time.
const DefaultDuration = models.DefaultBookingDuration

var (
	// ErrNoCapacity means no table can seat the party at all.
	ErrNoCapacity = errors.New("no table with sufficient capacity")

	// ErrAllConflicted means capacity exists but every candidate table is
	// occupied during the requested window.
	ErrAllConflicted = errors.New("all candidate tables conflict")
)

// Detector performs overlap tests and best-fit table selection.
type Detector struct {
	buffer   time.Duration
	duration time.Duration
}

// NewDetector creates a detector with the given turnover buffer and default
// seating duration; non-positive values fall back to the package defaults.
func NewDetector(buffer, duration time.Duration) *Detector {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Detector{buffer: buffer, duration: duration}
}

// WindowOf returns the booking's seating interval, applying the configured
// default duration when no explicit end time is set.
func (d *Detector) WindowOf(b *models.Booking) timeutil.Window {
	if b.EndTime != nil {
		return b.Window()
	}
	return timeutil.NewWindow(b.StartTime, d.duration)
}

// Buffer returns the configured turnover buffer.
func (d *Detector) Buffer() time.Duration {
	return d.buffer
}

// HasConflict reports whether candidate overlaps any confirmed booking in
// existing after each existing window is expanded by the buffer on both
// sides. Cancelled bookings and the booking identified by excludeID are
// ignored.
func (d *Detector) HasConflict(candidate timeutil.Window, existing []models.Booking, excludeID int64) bool {
	for i := range existing {
		b := &existing[i]
		if b.ID == excludeID || b.Status != models.StatusConfirmed {
			continue
		}
		if candidate.Overlaps(d.WindowOf(b).Expand(d.buffer)) {
			return true
		}
	}
	return false
}

// FindBestAvailableTable picks the conflict-free table with the smallest
// sufficient capacity for the booking, breaking ties by lowest table number.
// existingByTable maps table ID to that table's bookings on the booking's
// date. Returns ErrNoCapacity or ErrAllConflicted when nothing fits.
func (d *Detector) FindBestAvailableTable(booking *models.Booking, tables []models.Table, existingByTable map[int64][]models.Booking) (*models.Table, error) {
	fitting := fitAndSort(booking.PartySize, tables)
	if len(fitting) == 0 {
		return nil, ErrNoCapacity
	}

	window := d.WindowOf(booking)
	for _, t := range fitting {
		if !d.HasConflict(window, existingByTable[t.ID], booking.ID) {
			picked := t
			return &picked, nil
		}
	}
	return nil, ErrAllConflicted
}

// ConflictingTables returns the fitting tables that do conflict with the
// booking's window, in best-fit order. Used by conflict resolution to decide
// which existing bookings are worth relocating.
func (d *Detector) ConflictingTables(booking *models.Booking, tables []models.Table, existingByTable map[int64][]models.Booking) []models.Table {
	fitting := fitAndSort(booking.PartySize, tables)
	window := d.WindowOf(booking)

	var conflicted []models.Table
	for _, t := range fitting {
		if d.HasConflict(window, existingByTable[t.ID], booking.ID) {
			conflicted = append(conflicted, t)
		}
	}
	return conflicted
}

// ConflictingBookings returns the confirmed bookings on a table whose
// buffered windows overlap the candidate window.
func (d *Detector) ConflictingBookings(candidate timeutil.Window, existing []models.Booking, excludeID int64) []models.Booking {
	var out []models.Booking
	for i := range existing {
		b := existing[i]
		if b.ID == excludeID || b.Status != models.StatusConfirmed {
			continue
		}
		if candidate.Overlaps(d.WindowOf(&b).Expand(d.buffer)) {
			out = append(out, b)
		}
	}
	return out
}

// fitAndSort filters active tables that can seat the party and orders them
// smallest capacity first, then lowest number.
func fitAndSort(partySize int, tables []models.Table) []models.Table {
	fitting := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if t.IsActive && t.Capacity >= partySize {
			fitting = append(fitting, t)
		}
	}
	sort.Slice(fitting, func(i, j int) bool {
		if fitting[i].Capacity != fitting[j].Capacity {
			return fitting[i].Capacity < fitting[j].Capacity
		}
		return fitting[i].Number < fitting[j].Number
	})
	return fitting
}
