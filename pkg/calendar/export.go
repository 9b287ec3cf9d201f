package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/emersion/go-ical"
)

const (
	productID      = "-//borgmon//alarm-clock//EN"
	floatingLayout = "20060102T150405"
	utcLayout      = "20060102T150405Z"

	// propEnabled carries the alarm's enabled flag; calendars have no equivalent
	propEnabled = "X-ALARM-ENABLED"
)

// Export writes the alarms as an iCalendar feed, one VEVENT with an audio VALARM per alarm.
// Alarms with an unreadable time are skipped and reported in the returned error.
func Export(w io.Writer, alarms []models.Alarm, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	var skipped []string
	for _, a := range alarms {
		event, err := alarmEvent(a, now)
		if err != nil {
			skipped = append(skipped, a.ID)
			continue
		}
		cal.Children = append(cal.Children, event)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	if len(skipped) > 0 {
		return fmt.Errorf("%w: skipped alarms %s", models.ErrInvalidTimeFormat, strings.Join(skipped, ", "))
	}
	return nil
}

func alarmEvent(a models.Alarm, now time.Time) (*ical.Component, error) {
	start, err := NextOccurrence(a, now)
	if err != nil {
		return nil, err
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, a.ID)
	setRaw(event.Component, ical.PropDateTimeStamp, now.UTC().Format(utcLayout))
	setRaw(event.Component, ical.PropDateTimeStart, start.Format(floatingLayout))
	event.Props.SetText(ical.PropSummary, "Alarm "+a.Time)
	if a.Info != "" {
		event.Props.SetText(ical.PropDescription, a.Info)
	}
	if a.Recurring() {
		ro := weeklyOption(a.SelectedDays, start)
		setRaw(event.Component, ical.PropRecurrenceRule, ro.RRuleString())
	}
	setRaw(event.Component, propEnabled, strings.ToUpper(fmt.Sprint(a.IsEnabled)))

	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "AUDIO")
	setRaw(alarm, ical.PropTrigger, "PT0S")
	event.Children = append(event.Children, alarm)

	return event.Component, nil
}

func setRaw(comp *ical.Component, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	comp.Props.Set(prop)
}
