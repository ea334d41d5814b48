package admission

import (
	"fmt"
	"time"

	"maitred/internal/models"
	"maitred/internal/timeutil"
)

// Reason explains why a candidate slot was rejected.
type Reason string

const (
	ReasonClosedSpecialPeriod Reason = "closed_special_period"
	ReasonClosedWeekday       Reason = "closed_weekday"
	ReasonOutsideHours        Reason = "outside_hours"
	ReasonWithinCutoff        Reason = "within_cutoff"
)

// Rules bundles a restaurant's availability configuration. The validator
// never loads data itself; callers supply a snapshot.
type Rules struct {
	Hours          []models.OpeningHours
	SpecialPeriods []models.SpecialPeriod
	CutOffs        []models.CutOffTime
}

// Result is the outcome of an admission check. Rejections are expected,
// frequent outcomes and are returned as values, never as errors.
type Result struct {
	Admissible bool
	Reason     Reason
}

func rejected(reason Reason) Result {
	return Result{Admissible: false, Reason: reason}
}

// IsAdmissible decides whether a reservation at candidateTime ("HH:MM") on
// candidateDate may be accepted, evaluated against rules at wall-clock now.
// Priority order: special period closure/override, weekly opening hours,
// cut-off lead time. Pure function of its inputs; now is always passed in,
// never read internally.
func IsAdmissible(rules Rules, candidateDate time.Time, candidateTime string, now time.Time) (Result, error) {
	slot, err := timeutil.ClockOnDate(candidateDate, candidateTime)
	if err != nil {
		return Result{}, fmt.Errorf("candidate time: %w", err)
	}

	openClock, closeClock, decided, res := effectiveHours(rules, candidateDate)
	if decided {
		return res, nil
	}

	open, err := timeutil.MinutesOfDay(openClock)
	if err != nil {
		return Result{}, fmt.Errorf("open time: %w", err)
	}
	closeAt, err := timeutil.MinutesOfDay(closeClock)
	if err != nil {
		return Result{}, fmt.Errorf("close time: %w", err)
	}
	candidate, err := timeutil.MinutesOfDay(candidateTime)
	if err != nil {
		return Result{}, fmt.Errorf("candidate time: %w", err)
	}

	// Inclusive bounds on both ends of the service window.
	if candidate < open || candidate > closeAt {
		return rejected(ReasonOutsideHours), nil
	}

	if cutoff := cutoffFor(rules, candidateDate); cutoff != nil {
		minutesUntilSlot := int(slot.Sub(now) / time.Minute)
		if minutesUntilSlot < cutoff.LeadMinutes() {
			return rejected(ReasonWithinCutoff), nil
		}
	}

	return Result{Admissible: true}, nil
}

// effectiveHours resolves the open/close window for a date. A special period
// covering the date wins: a closure rejects outright, override hours replace
// the weekly schedule, and an open period without overrides falls through to
// the weekday entry. Returns decided=true when the outcome is already final.
func effectiveHours(rules Rules, date time.Time) (open, closeAt string, decided bool, res Result) {
	var override *models.SpecialPeriod
	for i := range rules.SpecialPeriods {
		p := &rules.SpecialPeriods[i]
		if !p.Covers(date) {
			continue
		}
		if !p.IsOpen {
			return "", "", true, rejected(ReasonClosedSpecialPeriod)
		}
		if p.HasOverrideHours() {
			override = p
		}
		break
	}

	if override != nil {
		return override.OpenTime, override.CloseTime, false, Result{}
	}

	weekday := int(date.Weekday())
	for i := range rules.Hours {
		h := &rules.Hours[i]
		if h.Weekday != weekday {
			continue
		}
		if !h.IsOpen {
			return "", "", true, rejected(ReasonClosedWeekday)
		}
		return h.OpenTime, h.CloseTime, false, Result{}
	}

	// No schedule entry for the weekday means the restaurant is closed.
	return "", "", true, rejected(ReasonClosedWeekday)
}

// cutoffFor picks the cutoff rule for a date: a weekday-scoped rule wins over
// a restaurant-wide one.
func cutoffFor(rules Rules, date time.Time) *models.CutOffTime {
	weekday := int(date.Weekday())
	var generic *models.CutOffTime
	for i := range rules.CutOffs {
		c := &rules.CutOffs[i]
		if c.Weekday == nil {
			if generic == nil {
				generic = c
			}
			continue
		}
		if *c.Weekday == weekday {
			return c
		}
	}
	return generic
}
