package calendar

import (
	"fmt"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
)

// NextFireInstant returns the next instant at or after ref matching the "HH:MM AM|PM" time of day.
// A time already passed today rolls over to the same wall-clock time tomorrow.
func NextFireInstant(timeOfDay string, ref time.Time) (time.Time, error) {
	tod, err := models.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return nextDaily(tod, ref), nil
}

// NextOccurrence returns the next fire instant of an alarm at or after ref.
// Recurring alarms only fire on their selected weekdays.
func NextOccurrence(a models.Alarm, ref time.Time) (time.Time, error) {
	tod, err := a.TimeOfDay()
	if err != nil {
		return time.Time{}, err
	}
	if !a.Recurring() {
		return nextDaily(tod, ref), nil
	}

	rule, err := weeklyRule(a.SelectedDays, tod, ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("recurrence for alarm %s: %w", a.ID, err)
	}
	next := rule.After(ref, true)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no upcoming occurrence for alarm %s", a.ID)
	}
	return next, nil
}

// PreviousOccurrence returns the latest fire instant of an alarm at or before ref
func PreviousOccurrence(a models.Alarm, ref time.Time) (time.Time, error) {
	tod, err := a.TimeOfDay()
	if err != nil {
		return time.Time{}, err
	}
	if !a.Recurring() {
		candidate := atTimeOfDay(ref, tod)
		if candidate.After(ref) {
			candidate = candidate.AddDate(0, 0, -1)
		}
		return candidate, nil
	}

	rule, err := weeklyRule(a.SelectedDays, tod, ref)
	if err != nil {
		return time.Time{}, fmt.Errorf("recurrence for alarm %s: %w", a.ID, err)
	}
	prev := rule.Before(ref, true)
	if prev.IsZero() {
		return time.Time{}, fmt.Errorf("no past occurrence for alarm %s", a.ID)
	}
	return prev, nil
}

// Soonest picks the enabled alarm that fires first after ref.
// Ties keep list order; alarms with an unreadable time are skipped.
func Soonest(alarms []models.Alarm, ref time.Time) (models.Alarm, time.Time, bool) {
	var (
		best   models.Alarm
		bestAt time.Time
		found  bool
	)
	for _, a := range alarms {
		if !a.IsEnabled {
			continue
		}
		at, err := NextOccurrence(a, ref)
		if err != nil {
			continue
		}
		if !found || at.Before(bestAt) {
			best, bestAt, found = a, at, true
		}
	}
	return best, bestAt, found
}

func nextDaily(tod models.TimeOfDay, ref time.Time) time.Time {
	candidate := atTimeOfDay(ref, tod)
	if candidate.Before(ref) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// atTimeOfDay places the time of day on ref's calendar day, in ref's location
func atTimeOfDay(ref time.Time, tod models.TimeOfDay) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), tod.Hour24(), tod.Minute, 0, 0, ref.Location())
}
