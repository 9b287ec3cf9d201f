package calendar

import (
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/teambition/rrule-go"
)

var rruleDay = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// weeklyOption describes the recurrence of a weekday selection.
// Every day selected collapses to a daily rule.
func weeklyOption(days models.Weekdays, dtstart time.Time) rrule.ROption {
	ro := rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: dtstart,
		Wkst:    rrule.SU,
	}
	if days.All() {
		ro.Freq = rrule.DAILY
		return ro
	}
	for _, d := range days.Days() {
		ro.Byweekday = append(ro.Byweekday, rruleDay[d])
	}
	return ro
}

// weeklyRule builds the rule anchored a week before ref at the given wall-clock time,
// so both the previous and the next occurrence around ref are reachable.
func weeklyRule(days models.Weekdays, tod models.TimeOfDay, ref time.Time) (*rrule.RRule, error) {
	anchor := atTimeOfDay(ref, tod).AddDate(0, 0, -7)
	return rrule.NewRRule(weeklyOption(days, anchor))
}

// weekdaysFromOption maps a parsed RRULE back to a weekday selection
func weekdaysFromOption(ro *rrule.ROption, dtstart time.Time) models.Weekdays {
	if ro == nil {
		return models.Weekdays{}
	}
	switch ro.Freq {
	case rrule.DAILY:
		return models.EveryDay
	case rrule.WEEKLY:
		if len(ro.Byweekday) == 0 {
			return models.WeekdaysOf(dtstart.Weekday())
		}
		var w models.Weekdays
		for _, d := range ro.Byweekday {
			// rrule counts Monday as 0
			w[time.Weekday((d.Day()+1)%7)] = true
		}
		return w
	default:
		return models.Weekdays{}
	}
}
