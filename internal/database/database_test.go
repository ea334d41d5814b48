package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/events"
	"maitred/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRestaurant(t *testing.T, db *DB) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{TenantID: 1, Name: "Trattoria", Timezone: "Europe/Berlin"}
	require.NoError(t, db.CreateRestaurant(context.Background(), r))
	return r
}

func newBooking(restaurantID int64, partySize int, start time.Time) *models.Booking {
	return &models.Booking{
		TenantID:     1,
		RestaurantID: restaurantID,
		PartySize:    partySize,
		Date:         start,
		StartTime:    start,
		Status:       models.StatusConfirmed,
	}
}

func TestBookingRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	start := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	b := newBooking(r.ID, 4, start)
	require.NoError(t, db.CreateBooking(ctx, b))
	require.NotZero(t, b.ID)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, 4, got.PartySize)
	assert.True(t, got.StartTime.Equal(start))
	assert.Equal(t, "2025-03-10", got.Date.Format("2006-01-02"))
	assert.Nil(t, got.TableID)
	assert.Equal(t, int64(1), got.Version)
}

func TestGetBooking_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnassignedConfirmedBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	later := newBooking(r.ID, 2, day.Add(20*time.Hour))
	require.NoError(t, db.CreateBooking(ctx, later))
	earlier := newBooking(r.ID, 2, day.Add(18*time.Hour))
	require.NoError(t, db.CreateBooking(ctx, earlier))

	pending := newBooking(r.ID, 2, day.Add(19*time.Hour))
	pending.Status = models.StatusPending
	require.NoError(t, db.CreateBooking(ctx, pending))

	cancelled := newBooking(r.ID, 2, day.Add(19*time.Hour))
	cancelled.Status = models.StatusCancelled
	require.NoError(t, db.CreateBooking(ctx, cancelled))

	table := &models.Table{RestaurantID: r.ID, Number: 1, Capacity: 2, IsActive: true}
	require.NoError(t, db.CreateTable(ctx, table))
	assigned := newBooking(r.ID, 2, day.Add(21*time.Hour))
	require.NoError(t, db.CreateBooking(ctx, assigned))
	_, err := db.UpdateBookingAssignment(ctx, assigned.ID, 1, table.ID, models.AssignManual, time.Now())
	require.NoError(t, err)

	got, err := db.GetUnassignedConfirmedBookings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlier.ID, got[0].ID, "oldest seating first")
	assert.Equal(t, later.ID, got[1].ID)
}

func TestGetBookingsForDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	target := time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC)
	onDate := newBooking(r.ID, 2, target)
	require.NoError(t, db.CreateBooking(ctx, onDate))
	otherDate := newBooking(r.ID, 2, target.AddDate(0, 0, 1))
	require.NoError(t, db.CreateBooking(ctx, otherDate))

	got, err := db.GetBookingsForDate(ctx, r.ID, target)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, onDate.ID, got[0].ID)
}

func TestUpdateBookingAssignment_CAS(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	table := &models.Table{RestaurantID: r.ID, Number: 1, Capacity: 4, IsActive: true}
	require.NoError(t, db.CreateTable(ctx, table))

	b := newBooking(r.ID, 4, time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateBooking(ctx, b))

	updated, err := db.UpdateBookingAssignment(ctx, b.ID, b.Version, table.ID, models.AssignAuto, time.Now())
	require.NoError(t, err)
	require.NotNil(t, updated.TableID)
	assert.Equal(t, table.ID, *updated.TableID)
	assert.Equal(t, models.AssignAuto, updated.AssignType)
	assert.Equal(t, int64(2), updated.Version)

	// A second write with the stale version must be rejected.
	_, err = db.UpdateBookingAssignment(ctx, b.ID, b.Version, table.ID, models.AssignAuto, time.Now())
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// A write against a missing booking reports not-found, not a conflict.
	_, err = db.UpdateBookingAssignment(ctx, 9999, 1, table.ID, models.AssignAuto, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearBookingAssignment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	table := &models.Table{RestaurantID: r.ID, Number: 1, Capacity: 4, IsActive: true}
	require.NoError(t, db.CreateTable(ctx, table))

	b := newBooking(r.ID, 4, time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC))
	require.NoError(t, db.CreateBooking(ctx, b))
	updated, err := db.UpdateBookingAssignment(ctx, b.ID, b.Version, table.ID, models.AssignManual, time.Now())
	require.NoError(t, err)

	cleared, err := db.ClearBookingAssignment(ctx, b.ID, updated.Version)
	require.NoError(t, err)
	assert.Nil(t, cleared.TableID)
	assert.Nil(t, cleared.AssignedAt)
	assert.Empty(t, cleared.AssignType)
	assert.Equal(t, updated.Version+1, cleared.Version)
}

func TestTables(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	for i, capacity := range []int{6, 2, 4} {
		table := &models.Table{RestaurantID: r.ID, Number: 3 - i, Capacity: capacity, IsActive: true}
		require.NoError(t, db.CreateTable(ctx, table))
	}

	got, err := db.GetTables(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Number, "ordered by table number")
	assert.Equal(t, 4, got[0].Capacity)
}

func TestOpeningHoursUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	h := &models.OpeningHours{RestaurantID: r.ID, Weekday: 1, IsOpen: true, OpenTime: "09:00", CloseTime: "22:00"}
	require.NoError(t, db.SetOpeningHours(ctx, h))

	h.CloseTime = "23:00"
	require.NoError(t, db.SetOpeningHours(ctx, h))

	got, err := db.GetOpeningHours(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got, 1, "upsert must not duplicate the weekday row")
	assert.Equal(t, "23:00", got[0].CloseTime)
}

func TestSpecialPeriodsAndCutoffs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	r := seedRestaurant(t, db)

	p := &models.SpecialPeriod{
		RestaurantID: r.ID,
		StartDate:    time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.CreateSpecialPeriod(ctx, p))

	periods, err := db.GetSpecialPeriods(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.False(t, periods[0].IsOpen)
	assert.Equal(t, "2025-12-24", periods[0].StartDate.Format("2006-01-02"))

	monday := 1
	require.NoError(t, db.CreateCutOffTime(ctx, &models.CutOffTime{RestaurantID: r.ID, Hours: 2}))
	require.NoError(t, db.CreateCutOffTime(ctx, &models.CutOffTime{RestaurantID: r.ID, Weekday: &monday, Hours: 24}))

	cutoffs, err := db.GetCutOffTimes(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, cutoffs, 2)

	var generic, scoped *models.CutOffTime
	for i := range cutoffs {
		if cutoffs[i].Weekday == nil {
			generic = &cutoffs[i]
		} else {
			scoped = &cutoffs[i]
		}
	}
	require.NotNil(t, generic)
	require.NotNil(t, scoped)
	assert.Equal(t, 120, generic.LeadMinutes())
	assert.Equal(t, monday, *scoped.Weekday)
}

func TestAuditRecords(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := events.Event{Kind: events.KindAssigned, RunID: "r1", BookingID: 1, RestaurantID: 1, TableID: 2,
		AssignmentType: models.AssignAuto, At: time.Now().Add(-48 * time.Hour)}
	recent := events.Event{Kind: events.KindUnresolved, RunID: "r2", BookingID: 2, RestaurantID: 1,
		At: time.Now()}
	require.NoError(t, db.InsertAuditRecord(ctx, old))
	require.NoError(t, db.InsertAuditRecord(ctx, recent))

	got, err := db.GetAuditRecords(ctx, time.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r1", got[0].RunID, "oldest first")

	deleted, err := db.DeleteAuditRecordsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err = db.GetAuditRecords(ctx, time.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].RunID)
}
