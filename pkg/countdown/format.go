package countdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/borgmon/alarm-clock/pkg/calendar"
	"github.com/borgmon/alarm-clock/pkg/models"
)

// NoAlarms is shown when no alarm is enabled
const NoAlarms = "No alarms set"

// FormatGap renders the time left until an alarm.
// Under a minute it counts seconds, otherwise days, hours and minutes with empty parts left out.
func FormatGap(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return "Alarm in " + plural(int(d/time.Second), "second")
	}

	minutes := int(d / time.Minute)
	days := minutes / (24 * 60)
	hours := minutes / 60 % 24
	minutes %= 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return "Alarm in " + strings.Join(parts, ", ")
}

// Describe returns the countdown text for the soonest enabled alarm
func Describe(alarms []models.Alarm, now time.Time) string {
	_, at, ok := calendar.Soonest(alarms, now)
	if !ok {
		return NoAlarms
	}
	return FormatGap(at.Sub(now))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
