package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidTimeFormat is returned when an alarm time is not "HH:MM AM|PM"
var ErrInvalidTimeFormat = errors.New("invalid time format")

// Period is the AM/PM half of a 12-hour clock time
type Period string

const (
	AM Period = "AM"
	PM Period = "PM"
)

var timeOfDayRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s*$`)

// TimeOfDay is a wall-clock time as entered on the alarm form
type TimeOfDay struct {
	Hour   int    `json:"hour" validate:"min=1,max=12"`
	Minute int    `json:"minute" validate:"min=0,max=59"`
	Period Period `json:"period" validate:"oneof=AM PM"`
}

// ParseTimeOfDay parses the stored "HH:MM AM" representation
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayRe.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	t := TimeOfDay{Hour: hour, Minute: minute, Period: Period(strings.ToUpper(m[3]))}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return t, nil
}

// Validate checks the hour/minute/period ranges
func (t TimeOfDay) Validate() error {
	return validate.Struct(t)
}

// Hour24 converts to a 0..23 hour. 12 AM is midnight, 12 PM is noon.
func (t TimeOfDay) Hour24() int {
	h := t.Hour % 12
	if t.Period == PM {
		h += 12
	}
	return h
}

// String formats the time the way alarms store it ("07:05 AM")
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d %s", t.Hour, t.Minute, t.Period)
}

// TimeOfDayFrom builds a TimeOfDay from a clock reading
func TimeOfDayFrom(t time.Time) TimeOfDay {
	period := AM
	if t.Hour() >= 12 {
		period = PM
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return TimeOfDay{Hour: hour, Minute: t.Minute(), Period: period}
}

// Weekdays holds the recurrence selection indexed Sunday..Saturday
type Weekdays [7]bool

// EveryDay selects all seven days
var EveryDay = Weekdays{true, true, true, true, true, true, true}

// WeekdaysOf builds a selection from the given days
func WeekdaysOf(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w[d] = true
	}
	return w
}

// Any reports whether the alarm recurs at all
func (w Weekdays) Any() bool {
	for _, on := range w {
		if on {
			return true
		}
	}
	return false
}

// All reports whether every day is selected
func (w Weekdays) All() bool {
	for _, on := range w {
		if !on {
			return false
		}
	}
	return true
}

// Days returns the selected weekdays in Sunday..Saturday order
func (w Weekdays) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for i, on := range w {
		if on {
			days = append(days, time.Weekday(i))
		}
	}
	return days
}

// Alarm is a persisted user alarm
type Alarm struct {
	ID           string   `json:"id" validate:"required,uuid"`
	Time         string   `json:"time" validate:"required,timeofday"`
	Info         string   `json:"info"`
	SelectedDays Weekdays `json:"selectedDays"`
	IsEnabled    bool     `json:"isEnabled"`
}

// Validate checks the id and time fields
func (a Alarm) Validate() error {
	return validate.Struct(a)
}

// TimeOfDay parses the alarm's stored time
func (a Alarm) TimeOfDay() (TimeOfDay, error) {
	return ParseTimeOfDay(a.Time)
}

// Recurring reports whether any weekday is selected
func (a Alarm) Recurring() bool {
	return a.SelectedDays.Any()
}

var validate *validator.Validate

func init() {
	validate = newValidator()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	return v
}
