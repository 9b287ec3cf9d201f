package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// Import reads alarms back from an iCalendar feed. Every VEVENT becomes an alarm at the
// wall-clock time of its DTSTART; a weekly or daily RRULE becomes the weekday selection.
func Import(r io.Reader) ([]models.Alarm, error) {
	decoder := ical.NewDecoder(r)
	alarms := []models.Alarm{}

	for {
		cal, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			a, err := parseAlarm(comp)
			if err != nil {
				return nil, err
			}
			alarms = append(alarms, a)
		}
	}
	return alarms, nil
}

func parseAlarm(comp *ical.Component) (models.Alarm, error) {
	normalizeComponentTimezones(comp)

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return models.Alarm{}, fmt.Errorf("%w: event without DTSTART", models.ErrInvalidTimeFormat)
	}
	start, err := parseDateTimeProperty(startProp)
	if err != nil {
		return models.Alarm{}, fmt.Errorf("%w: %v", models.ErrInvalidTimeFormat, err)
	}

	a := models.Alarm{
		ID:        uuid.New().String(),
		Time:      models.TimeOfDayFrom(start).String(),
		IsEnabled: true,
	}
	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil {
		if id, err := uuid.Parse(uidProp.Value); err == nil {
			a.ID = id.String()
		}
	}
	if descProp := comp.Props.Get(ical.PropDescription); descProp != nil {
		if info, err := descProp.Text(); err == nil {
			a.Info = info
		}
	}
	if enabledProp := comp.Props.Get(propEnabled); enabledProp != nil {
		a.IsEnabled = !strings.EqualFold(enabledProp.Value, "false")
	}

	set, err := comp.RecurrenceSet(start.Location())
	if err != nil {
		return models.Alarm{}, fmt.Errorf("recurrence of %s: %w", a.ID, err)
	}
	if set != nil && set.GetRRule() != nil {
		ro := set.GetRRule().Options
		a.SelectedDays = weekdaysFromOption(&ro, start)
	}
	return a, nil
}

func parseDateTimeProperty(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.Local); err == nil {
		return t.In(time.Local), nil
	}

	formats := []string{
		floatingLayout,
		utcLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, prop.Value, time.Local); err == nil {
			return t.In(time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", prop.Value)
}

// Common Windows timezone names found in Outlook exports, mapped to IANA names
var windowsToIANA = map[string]string{
	"Pacific Standard Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"GMT Standard Time":            "Europe/London",
	"Central Europe Standard Time": "Europe/Paris",
	"China Standard Time":          "Asia/Shanghai",
	"Tokyo Standard Time":          "Asia/Tokyo",
	"India Standard Time":          "Asia/Kolkata",
	"AUS Eastern Standard Time":    "Australia/Sydney",
}

// normalizeComponentTimezones rewrites Windows TZIDs so DTSTART and the recurrence set resolve
func normalizeComponentTimezones(comp *ical.Component) {
	for _, name := range []string{ical.PropDateTimeStart, ical.PropDateTimeEnd} {
		prop := comp.Props.Get(name)
		if prop == nil {
			continue
		}
		if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
			if ianaName, ok := windowsToIANA[tzid]; ok {
				prop.Params.Set(ical.ParamTimezoneID, ianaName)
			}
		}
	}
}
