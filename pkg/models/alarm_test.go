package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay_Hour24(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12:00 AM", 0},
		{"12:00 PM", 12},
		{"01:00 PM", 13},
		{"01:00 AM", 1},
		{"11:59 PM", 23},
		{"7:05 am", 7},
	}
	for _, tt := range tests {
		tod, err := ParseTimeOfDay(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, tod.Hour24(), tt.in)
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{"", "noon", "13:00 PM", "0:15 AM", "09:61 AM", "09:00 XM", "09:00"} {
		_, err := ParseTimeOfDay(in)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, in)
	}
}

func TestTimeOfDay_String(t *testing.T) {
	assert.Equal(t, "07:05 AM", TimeOfDay{Hour: 7, Minute: 5, Period: AM}.String())
	assert.Equal(t, "12:00 AM", TimeOfDayFrom(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).String())
	assert.Equal(t, "12:30 PM", TimeOfDayFrom(time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)).String())
	assert.Equal(t, "11:15 PM", TimeOfDayFrom(time.Date(2024, 1, 1, 23, 15, 0, 0, time.UTC)).String())
}

func TestWeekdays(t *testing.T) {
	var none Weekdays
	assert.False(t, none.Any())
	assert.True(t, EveryDay.All())

	w := WeekdaysOf(time.Saturday, time.Monday)
	assert.True(t, w.Any())
	assert.False(t, w.All())
	assert.Equal(t, []time.Weekday{time.Monday, time.Saturday}, w.Days())
}

func TestAlarm_JSONShape(t *testing.T) {
	a := Alarm{
		ID:           "5f0c2e1a-8d44-4a51-9b6e-2f7d1c3b4a55",
		Time:         "06:30 AM",
		Info:         "Every Mon",
		SelectedDays: WeekdaysOf(time.Monday),
		IsEnabled:    true,
	}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "5f0c2e1a-8d44-4a51-9b6e-2f7d1c3b4a55",
		"time": "06:30 AM",
		"info": "Every Mon",
		"selectedDays": [false, true, false, false, false, false, false],
		"isEnabled": true
	}`, string(b))
}

func TestAlarm_Validate(t *testing.T) {
	valid := Alarm{ID: "5f0c2e1a-8d44-4a51-9b6e-2f7d1c3b4a55", Time: "06:30 AM"}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.Error(t, noID.Validate())

	badTime := valid
	badTime.Time = "6.30"
	assert.Error(t, badTime.Validate())
}

func TestValidate_TimeOfDayTagUsesParser(t *testing.T) {
	// the custom tag and TimeOfDay.Validate share one validator
	assert.NoError(t, TimeOfDay{Hour: 12, Minute: 0, Period: PM}.Validate())
	assert.Error(t, TimeOfDay{Hour: 13, Minute: 0, Period: PM}.Validate())

	a := Alarm{ID: "5f0c2e1a-8d44-4a51-9b6e-2f7d1c3b4a55", Time: "13:00 PM"}
	assert.Error(t, a.Validate())
	a.Time = "12:00 PM"
	assert.NoError(t, a.Validate())
}

func TestNewPayload(t *testing.T) {
	fireAt := time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC)
	p := NewPayload(Alarm{ID: "a", Time: "06:30 AM", Info: "Every Mon"}, fireAt)
	assert.Equal(t, "a", p.AlarmID)
	assert.Equal(t, "06:30 AM", p.Title)
	assert.Equal(t, "Every Mon", p.Body)
	assert.True(t, p.Sound)
	assert.False(t, p.Missed)
	assert.Equal(t, fireAt, p.FireAt)
}
