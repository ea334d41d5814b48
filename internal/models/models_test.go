package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBooking_EffectiveEndTime(t *testing.T) {
	start := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	t.Run("DefaultDuration", func(t *testing.T) {
		b := &Booking{StartTime: start}
		assert.Equal(t, start.Add(2*time.Hour), b.EffectiveEndTime())
	})

	t.Run("ExplicitEnd", func(t *testing.T) {
		end := start.Add(3 * time.Hour)
		b := &Booking{StartTime: start, EndTime: &end}
		assert.Equal(t, end, b.EffectiveEndTime())
	})
}

func TestBooking_Window(t *testing.T) {
	start := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: start}

	w := b.Window()
	assert.Equal(t, start, w.Start)
	assert.Equal(t, start.Add(DefaultBookingDuration), w.End)
}

func TestBooking_MinutesUntil(t *testing.T) {
	now := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	b := &Booking{StartTime: now.Add(90 * time.Minute)}

	assert.Equal(t, 90, b.MinutesUntil(now))
	assert.Equal(t, -30, b.MinutesUntil(now.Add(2*time.Hour)))
}

func TestBooking_Validate(t *testing.T) {
	valid := &Booking{ID: 1, PartySize: 4, Status: StatusConfirmed}
	assert.NoError(t, valid.Validate())

	noParty := &Booking{ID: 2, PartySize: 0, Status: StatusPending}
	assert.ErrorIs(t, noParty.Validate(), ErrInvalidPartySize)

	badStatus := &Booking{ID: 3, PartySize: 2, Status: "seated"}
	assert.ErrorIs(t, badStatus.Validate(), ErrInvalidStatus)
}

func TestTable_Validate(t *testing.T) {
	assert.NoError(t, (&Table{ID: 1, Capacity: 4}).Validate())
	assert.ErrorIs(t, (&Table{ID: 2, Capacity: 0}).Validate(), ErrInvalidCapacity)
}

func TestOpeningHours_Validate(t *testing.T) {
	open := &OpeningHours{Weekday: 1, IsOpen: true, OpenTime: "09:00", CloseTime: "22:00"}
	assert.NoError(t, open.Validate())

	// Closed days don't need a window.
	closed := &OpeningHours{Weekday: 1, IsOpen: false}
	assert.NoError(t, closed.Validate())

	badDay := &OpeningHours{Weekday: 7, IsOpen: true, OpenTime: "09:00", CloseTime: "22:00"}
	assert.ErrorIs(t, badDay.Validate(), ErrInvalidWeekday)

	badClock := &OpeningHours{Weekday: 1, IsOpen: true, OpenTime: "9am", CloseTime: "22:00"}
	assert.Error(t, badClock.Validate())
}

func TestSpecialPeriod_Covers(t *testing.T) {
	p := &SpecialPeriod{
		StartDate: time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, p.Covers(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Covers(time.Date(2025, 12, 25, 19, 30, 0, 0, time.UTC)))
	assert.True(t, p.Covers(time.Date(2025, 12, 26, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Covers(time.Date(2025, 12, 23, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Covers(time.Date(2025, 12, 27, 0, 0, 0, 0, time.UTC)))
}

func TestSpecialPeriod_HasOverrideHours(t *testing.T) {
	assert.False(t, (&SpecialPeriod{IsOpen: true}).HasOverrideHours())
	assert.True(t, (&SpecialPeriod{IsOpen: true, OpenTime: "18:00", CloseTime: "23:00"}).HasOverrideHours())
}

func TestCutOffTime_LeadMinutes(t *testing.T) {
	assert.Equal(t, 90, (&CutOffTime{Hours: 1, Minutes: 30}).LeadMinutes())
	assert.Equal(t, 1440, (&CutOffTime{Hours: 24}).LeadMinutes())
}
