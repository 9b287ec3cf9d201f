package notify

import (
	"context"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalHost runs triggers as in-process timers. It only fires while the process is alive;
// the background reconciliation covers the gaps.
type LocalHost struct {
	mu        sync.Mutex
	timers    map[Handle]*time.Timer
	received  func(Delivery)
	show      func(models.Payload)
	permitted bool
	now       func() time.Time
	log       *zap.Logger
}

// LocalHostOption configures a LocalHost
type LocalHostOption func(*LocalHost)

// WithPresenter sets how a delivered payload is shown to the user
func WithPresenter(show func(models.Payload)) LocalHostOption {
	return func(h *LocalHost) { h.show = show }
}

// WithClock overrides the wall clock used to compute timer delays
func WithClock(now func() time.Time) LocalHostOption {
	return func(h *LocalHost) { h.now = now }
}

// NewLocalHost creates a host. permitted mirrors the notifications.enabled setting.
func NewLocalHost(permitted bool, log *zap.Logger, opts ...LocalHostOption) *LocalHost {
	h := &LocalHost{
		timers:    make(map[Handle]*time.Timer),
		permitted: permitted,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LocalHost) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return h.permitted, nil
}

func (h *LocalHost) ScheduleAt(at time.Time, payload models.Payload) (Handle, error) {
	handle := Handle(uuid.NewString())
	delay := at.Sub(h.now())
	if delay < 0 {
		delay = 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.timers[handle] = time.AfterFunc(delay, func() { h.fire(handle, payload) })
	return handle, nil
}

func (h *LocalHost) Cancel(handle Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.timers[handle]; ok {
		t.Stop()
		delete(h.timers, handle)
	}
	return nil
}

func (h *LocalHost) OnReceived(fn func(Delivery)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = fn
}

// Pending returns the number of triggers that have not fired or been cancelled
func (h *LocalHost) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

// Close stops every pending timer
func (h *LocalHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for handle, t := range h.timers {
		t.Stop()
		delete(h.timers, handle)
	}
}

func (h *LocalHost) fire(handle Handle, payload models.Payload) {
	h.mu.Lock()
	if _, ok := h.timers[handle]; !ok {
		// cancelled after the timer already started running
		h.mu.Unlock()
		return
	}
	delete(h.timers, handle)
	received, show := h.received, h.show
	h.mu.Unlock()

	h.log.Info("alarm notification delivered",
		zap.String("alarm_id", payload.AlarmID),
		zap.Bool("missed", payload.Missed))

	if show != nil {
		show(payload)
	}
	if received != nil {
		received(Delivery{Handle: handle, Payload: payload, At: h.now()})
	}
}

// FynePresenter shows payloads as desktop notifications through the app
func FynePresenter(app fyne.App) func(models.Payload) {
	return func(p models.Payload) {
		title := "Alarm " + p.Title
		if p.Missed {
			title = "Missed alarm " + p.Title
		}
		app.SendNotification(fyne.NewNotification(title, p.Body))
	}
}
