package calendar

import (
	"strings"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
)

var shortDayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var workWeek = models.WeekdaysOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

// Label renders the recurrence line shown under an alarm.
// For one-shot alarms the date is described relative to today.
func Label(days models.Weekdays, date, today time.Time) string {
	switch {
	case days.All():
		return "Every day"
	case days == workWeek:
		return "Every Weekday"
	case days.Any():
		names := make([]string, 0, 7)
		for _, d := range days.Days() {
			names = append(names, shortDayNames[d])
		}
		return "Every " + strings.Join(names, ", ")
	}

	formatted := date.Format("Mon, Jan 2")
	switch dayDifference(date, today) {
	case -1:
		return "Yesterday - " + formatted
	case 0:
		return "Today - " + formatted
	case 1:
		return "Tomorrow - " + formatted
	}
	return formatted
}

// dayDifference counts calendar days from today to date in date's location
func dayDifference(date, today time.Time) int {
	today = today.In(date.Location())
	d := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 12, 0, 0, 0, time.UTC)
	return int(d.Sub(t).Hours() / 24)
}
