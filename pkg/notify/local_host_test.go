package notify

import (
	"context"
	"testing"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalHost_FiresAndPresents(t *testing.T) {
	shown := make(chan models.Payload, 1)
	h := NewLocalHost(true, zap.NewNop(), WithPresenter(func(p models.Payload) { shown <- p }))
	defer h.Close()

	got := make(chan Delivery, 1)
	h.OnReceived(func(d Delivery) { got <- d })

	handle, err := h.ScheduleAt(time.Now().Add(20*time.Millisecond), models.Payload{AlarmID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.Pending())

	select {
	case d := <-got:
		assert.Equal(t, handle, d.Handle)
		assert.Equal(t, "a", d.Payload.AlarmID)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
	assert.Equal(t, "a", (<-shown).AlarmID)
	assert.Equal(t, 0, h.Pending())
}

func TestLocalHost_PastInstantFiresImmediately(t *testing.T) {
	h := NewLocalHost(true, zap.NewNop())
	defer h.Close()

	got := make(chan Delivery, 1)
	h.OnReceived(func(d Delivery) { got <- d })
	_, err := h.ScheduleAt(time.Now().Add(-time.Hour), models.Payload{AlarmID: "a", Missed: true})
	require.NoError(t, err)

	select {
	case d := <-got:
		assert.True(t, d.Payload.Missed)
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}
}

func TestLocalHost_Cancel(t *testing.T) {
	h := NewLocalHost(true, zap.NewNop())
	defer h.Close()

	fired := make(chan struct{}, 1)
	h.OnReceived(func(Delivery) { fired <- struct{}{} })

	handle, err := h.ScheduleAt(time.Now().Add(30*time.Millisecond), models.Payload{AlarmID: "a"})
	require.NoError(t, err)
	require.NoError(t, h.Cancel(handle))
	require.NoError(t, h.Cancel("unknown"))
	assert.Equal(t, 0, h.Pending())

	select {
	case <-fired:
		t.Fatal("cancelled trigger fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalHost_Permission(t *testing.T) {
	ok, err := NewLocalHost(false, zap.NewNop()).RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewLocalHost(true, zap.NewNop()).RequestPermission(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
