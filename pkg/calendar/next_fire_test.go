package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestNextFireInstant_RollsPastMidnight(t *testing.T) {
	next, err := NextFireInstant("12:00 AM", at(2024, time.January, 1, 23, 59))
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.January, 2, 0, 0), next)
}

func TestNextFireInstant_LaterToday(t *testing.T) {
	next, err := NextFireInstant("01:00 PM", at(2024, time.January, 1, 9, 30))
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.January, 1, 13, 0), next)
}

func TestNextFireInstant_ExactlyNowIsNotSkipped(t *testing.T) {
	ref := at(2024, time.January, 1, 7, 0)
	next, err := NextFireInstant("07:00 AM", ref)
	require.NoError(t, err)
	assert.Equal(t, ref, next)
}

func TestNextFireInstant_WithinADay(t *testing.T) {
	refs := []time.Time{
		at(2024, time.January, 1, 0, 0),
		at(2024, time.February, 29, 13, 17).Add(42 * time.Second),
		at(2023, time.December, 31, 23, 59).Add(59 * time.Second),
	}
	for _, ref := range refs {
		for h := 1; h <= 12; h++ {
			for m := 0; m < 60; m += 7 {
				for _, p := range []string{"AM", "PM"} {
					tod := fmt.Sprintf("%02d:%02d %s", h, m, p)
					next, err := NextFireInstant(tod, ref)
					require.NoError(t, err, tod)
					assert.False(t, next.Before(ref), "%s at %s", tod, ref)
					assert.True(t, next.Before(ref.Add(24*time.Hour+time.Minute)), "%s at %s", tod, ref)
				}
			}
		}
	}
}

func TestNextFireInstant_DSTKeepsWallClock(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// Clocks spring forward on 2024-03-10.
	ref := time.Date(2024, time.March, 9, 8, 0, 0, 0, ny)
	next, err := NextFireInstant("07:00 AM", ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 10, 7, 0, 0, 0, ny), next)
}

func TestNextFireInstant_InvalidFormat(t *testing.T) {
	for _, bad := range []string{"", "7am", "13:00 PM", "00:30 AM", "10:60 AM", "10:00"} {
		_, err := NextFireInstant(bad, at(2024, time.January, 1, 0, 0))
		assert.ErrorIs(t, err, models.ErrInvalidTimeFormat, bad)
	}
}

func TestNextOccurrence_SelectedWeekdays(t *testing.T) {
	// 2024-01-01 is a Monday.
	monday8am := at(2024, time.January, 1, 8, 0)

	tests := []struct {
		name string
		days models.Weekdays
		ref  time.Time
		want time.Time
	}{
		{"monday only, passed today", models.WeekdaysOf(time.Monday), monday8am, at(2024, time.January, 8, 7, 0)},
		{"tuesday and thursday", models.WeekdaysOf(time.Tuesday, time.Thursday), monday8am, at(2024, time.January, 2, 7, 0)},
		{"every day, later today", models.EveryDay, at(2024, time.January, 1, 6, 0), at(2024, time.January, 1, 7, 0)},
		{"every day, passed today", models.EveryDay, monday8am, at(2024, time.January, 2, 7, 0)},
		{"saturday across year end", models.WeekdaysOf(time.Saturday), at(2023, time.December, 31, 12, 0), at(2024, time.January, 6, 7, 0)},
		{"monday, exactly now", models.WeekdaysOf(time.Monday), at(2024, time.January, 1, 7, 0), at(2024, time.January, 1, 7, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := models.Alarm{ID: "a", Time: "07:00 AM", SelectedDays: tt.days, IsEnabled: true}
			got, err := NextOccurrence(a, tt.ref)
			require.NoError(t, err)
			assert.WithinDuration(t, tt.want, got, 0)
		})
	}
}

func TestNextOccurrence_OneShotMatchesNextFireInstant(t *testing.T) {
	ref := at(2024, time.January, 1, 23, 59)
	a := models.Alarm{ID: "a", Time: "12:00 AM", IsEnabled: true}
	got, err := NextOccurrence(a, ref)
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.January, 2, 0, 0), got)
}

func TestPreviousOccurrence(t *testing.T) {
	wednesday := at(2024, time.January, 3, 10, 0)

	mondays := models.Alarm{ID: "a", Time: "07:00 AM", SelectedDays: models.WeekdaysOf(time.Monday)}
	prev, err := PreviousOccurrence(mondays, wednesday)
	require.NoError(t, err)
	assert.WithinDuration(t, at(2024, time.January, 1, 7, 0), prev, 0)

	oneShot := models.Alarm{ID: "b", Time: "11:00 AM"}
	prev, err = PreviousOccurrence(oneShot, wednesday)
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.January, 2, 11, 0), prev)

	prev, err = PreviousOccurrence(oneShot, at(2024, time.January, 3, 11, 0))
	require.NoError(t, err)
	assert.Equal(t, at(2024, time.January, 3, 11, 0), prev)

	_, err = PreviousOccurrence(models.Alarm{ID: "c", Time: "garbage"}, wednesday)
	assert.ErrorIs(t, err, models.ErrInvalidTimeFormat)
}

func TestSoonest_SkipsDisabled(t *testing.T) {
	alarms := []models.Alarm{
		{ID: "seven", Time: "07:00 AM", IsEnabled: true},
		{ID: "six-thirty", Time: "06:30 AM", IsEnabled: true},
		{ID: "six", Time: "06:00 AM", IsEnabled: false},
	}
	ref := at(2024, time.January, 1, 0, 0)

	a, when, ok := Soonest(alarms, ref)
	require.True(t, ok)
	assert.Equal(t, "six-thirty", a.ID)
	assert.Equal(t, at(2024, time.January, 1, 6, 30), when)
}

func TestSoonest_TiesKeepListOrder(t *testing.T) {
	alarms := []models.Alarm{
		{ID: "bad", Time: "nope", IsEnabled: true},
		{ID: "first", Time: "08:00 AM", IsEnabled: true},
		{ID: "second", Time: "08:00 AM", IsEnabled: true},
	}
	a, _, ok := Soonest(alarms, at(2024, time.January, 1, 0, 0))
	require.True(t, ok)
	assert.Equal(t, "first", a.ID)

	_, _, ok = Soonest([]models.Alarm{{ID: "off", Time: "08:00 AM"}}, at(2024, time.January, 1, 0, 0))
	assert.False(t, ok)
}
