package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowOverlaps(t *testing.T) {
	base := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	w := NewWindow(base, 2*time.Hour) // [18:00, 20:00)

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"identical", NewWindow(base, 2*time.Hour), true},
		{"contained", NewWindow(base.Add(30*time.Minute), time.Hour), true},
		{"partial overlap", NewWindow(base.Add(time.Hour), 2*time.Hour), true},
		{"touching end is half-open", NewWindow(base.Add(2*time.Hour), time.Hour), false},
		{"touching start is half-open", NewWindow(base.Add(-time.Hour), time.Hour), false},
		{"disjoint", NewWindow(base.Add(5*time.Hour), time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(w))
		})
	}
}

func TestWindowExpand(t *testing.T) {
	base := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	w := NewWindow(base, 2*time.Hour).Expand(30 * time.Minute)

	assert.Equal(t, base.Add(-30*time.Minute), w.Start)
	assert.Equal(t, base.Add(150*time.Minute), w.End)
	assert.Equal(t, 3*time.Hour, w.Duration())
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	h, m, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23, h)
	assert.Equal(t, 59, m)

	for _, bad := range []string{"", "9", "24:00", "12:60", "noon", "12:xx", "12:30:00"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestClockOnDate(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := ClockOnDate(date, "18:45")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 45, 0, 0, time.UTC), got)

	_, err = ClockOnDate(date, "bad")
	assert.Error(t, err)
}

func TestMinutesOfDay(t *testing.T) {
	got, err := MinutesOfDay("10:30")
	require.NoError(t, err)
	assert.Equal(t, 630, got)
}

func TestDateHelpers(t *testing.T) {
	a := time.Date(2025, 3, 10, 18, 45, 12, 0, time.UTC)
	b := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	c := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), DateOnly(a))
	assert.True(t, SameDate(a, b))
	assert.False(t, SameDate(a, c))
}
