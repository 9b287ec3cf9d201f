package countdown

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFormatGap(t *testing.T) {
	tests := []struct {
		gap  time.Duration
		want string
	}{
		{45 * time.Second, "Alarm in 45 seconds"},
		{time.Second, "Alarm in 1 second"},
		{0, "Alarm in 0 seconds"},
		{59*time.Second + 900*time.Millisecond, "Alarm in 59 seconds"},
		{time.Minute, "Alarm in 1 minute"},
		{90 * time.Second, "Alarm in 1 minute"},
		{26 * time.Hour, "Alarm in 1 day, 2 hours"},
		{2*time.Hour + 5*time.Minute, "Alarm in 2 hours, 5 minutes"},
		{48*time.Hour + time.Minute, "Alarm in 2 days, 1 minute"},
		{25*time.Hour + 30*time.Minute, "Alarm in 1 day, 1 hour, 30 minutes"},
		{-time.Second, "Alarm in 0 seconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatGap(tt.gap), tt.gap.String())
	}
}

func TestDescribe(t *testing.T) {
	now := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

	assert.Equal(t, NoAlarms, Describe(nil, now))
	assert.Equal(t, NoAlarms, Describe([]models.Alarm{{ID: "a", Time: "07:00 AM"}}, now))

	alarms := []models.Alarm{
		{ID: "a", Time: "08:00 AM", IsEnabled: true},
		{ID: "b", Time: "06:00 AM", IsEnabled: true},
		{ID: "c", Time: "06:15 AM", IsEnabled: false},
	}
	assert.Equal(t, "Alarm in 0 seconds", Describe(alarms, now))
	assert.Equal(t, "Alarm in 1 hour, 59 minutes", Describe(alarms, now.Add(time.Second)))
}

func TestPresenter_TicksOnlyWithEnabledAlarms(t *testing.T) {
	var calls atomic.Int32
	p := New(zap.NewNop(), WithTick(5*time.Millisecond), OnChange(func(string) { calls.Add(1) }))
	defer p.Close()

	assert.False(t, p.Running())
	assert.Equal(t, NoAlarms, p.Text())

	p.Update([]models.Alarm{{ID: "a", Time: "07:00 AM", IsEnabled: false}})
	assert.False(t, p.Running())

	p.Update([]models.Alarm{{ID: "a", Time: "07:00 AM", IsEnabled: true}})
	assert.True(t, p.Running())
	assert.NotEqual(t, NoAlarms, p.Text())
	assert.Eventually(t, func() bool { return calls.Load() > 5 }, time.Second, 5*time.Millisecond)

	p.Update(nil)
	assert.False(t, p.Running())
	assert.Equal(t, NoAlarms, p.Text())
}

func TestPresenter_RefreshUsesClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := New(zap.NewNop(), WithTick(time.Hour), WithClock(clock))
	defer p.Close()

	p.Update([]models.Alarm{{ID: "a", Time: "07:00 AM", IsEnabled: true}})
	assert.Equal(t, "Alarm in 1 hour", p.Text())

	// clock drifted while suspended
	now = now.Add(59*time.Minute + 15*time.Second)
	p.Refresh()
	assert.Equal(t, "Alarm in 45 seconds", p.Text())
}

func TestPresenter_Close(t *testing.T) {
	p := New(zap.NewNop(), WithTick(time.Millisecond))
	p.Update([]models.Alarm{{ID: "a", Time: "07:00 AM", IsEnabled: true}})
	p.Close()
	assert.False(t, p.Running())

	p.Update([]models.Alarm{{ID: "a", Time: "07:00 AM", IsEnabled: true}})
	assert.False(t, p.Running())
}
