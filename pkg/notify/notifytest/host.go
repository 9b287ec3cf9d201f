// Package notifytest provides an in-memory notify.Host for tests
package notifytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/notify"
)

// Scheduled is a trigger registered with the fake host
type Scheduled struct {
	Handle  notify.Handle
	At      time.Time
	Payload models.Payload
}

// Host records triggers instead of firing them. Deliver simulates the platform firing one.
type Host struct {
	mu       sync.Mutex
	seq      int
	pending  map[notify.Handle]Scheduled
	sent     []Scheduled
	received func(notify.Delivery)

	Granted      bool
	PermissionFn func() (bool, error)
	ScheduleErr  error
	Requests     int
}

func NewHost() *Host {
	return &Host{pending: make(map[notify.Handle]Scheduled), Granted: true}
}

func (h *Host) RequestPermission(ctx context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Requests++
	if h.PermissionFn != nil {
		return h.PermissionFn()
	}
	return h.Granted, nil
}

func (h *Host) ScheduleAt(at time.Time, payload models.Payload) (notify.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ScheduleErr != nil {
		return "", h.ScheduleErr
	}
	h.seq++
	s := Scheduled{Handle: notify.Handle(fmt.Sprintf("h%d", h.seq)), At: at, Payload: payload}
	if payload.Missed {
		h.sent = append(h.sent, s)
		return s.Handle, nil
	}
	h.pending[s.Handle] = s
	return s.Handle, nil
}

func (h *Host) Cancel(handle notify.Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, handle)
	return nil
}

func (h *Host) OnReceived(fn func(notify.Delivery)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = fn
}

// PendingFor counts the pending triggers of one alarm
func (h *Host) PendingFor(alarmID string) int {
	return len(h.PendingOf(alarmID))
}

// PendingOf returns the pending triggers of one alarm
func (h *Host) PendingOf(alarmID string) []Scheduled {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Scheduled
	for _, s := range h.pending {
		if s.Payload.AlarmID == alarmID {
			out = append(out, s)
		}
	}
	return out
}

// Pending returns every pending trigger ordered by fire instant
func (h *Host) Pending() []Scheduled {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Scheduled, 0, len(h.pending))
	for _, s := range h.pending {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// Missed returns the catch-up notifications raised so far
func (h *Host) Missed() []Scheduled {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Scheduled(nil), h.sent...)
}

// Deliver fires the alarm's pending trigger and returns the delivery passed to the callback
func (h *Host) Deliver(alarmID string) (notify.Delivery, bool) {
	h.mu.Lock()
	var (
		d     notify.Delivery
		found bool
	)
	for handle, s := range h.pending {
		if s.Payload.AlarmID == alarmID {
			delete(h.pending, handle)
			d = notify.Delivery{Handle: handle, Payload: s.Payload, At: s.At}
			found = true
			break
		}
	}
	received := h.received
	h.mu.Unlock()

	if found && received != nil {
		received(d)
	}
	return d, found
}

// Drop forgets every pending trigger, as if the platform lost them
func (h *Host) Drop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = make(map[notify.Handle]Scheduled)
}
