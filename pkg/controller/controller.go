package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/borgmon/alarm-clock/pkg/calendar"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/notify"
	"github.com/borgmon/alarm-clock/pkg/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned for operations on an alarm id that is not in the list
	ErrNotFound = errors.New("alarm not found")
	// ErrSaveFailed wraps a store write failure. The in-memory list keeps the new state.
	ErrSaveFailed = errors.New("saving alarms failed")
)

// Scheduler arms and disarms notification triggers
type Scheduler interface {
	Arm(ctx context.Context, a models.Alarm, ref time.Time) (time.Time, error)
	Armed(alarmID string) (time.Time, bool)
	Disarm(alarmID string)
	Fired(alarmID string, h notify.Handle) bool
}

// Store is the persistence the controller needs
type Store interface {
	store.AlarmStore
	store.WatermarkStore
}

// Countdown receives the list whenever it changes
type Countdown interface {
	Update(alarms []models.Alarm)
	Refresh()
}

// Ringer plays the sound of a firing alarm
type Ringer interface {
	Start(alarmID string, withSound bool) error
	Stop()
}

// Draft is the content of the alarm form. An empty ID creates a new alarm.
type Draft struct {
	ID           string
	Time         models.TimeOfDay
	SelectedDays models.Weekdays
	// Date is the day a one-shot alarm is meant for; zero means its next occurrence
	Date time.Time
}

// Controller owns the in-memory alarm list and keeps store, triggers and countdown in step with it
type Controller struct {
	mu        sync.Mutex
	alarms    []models.Alarm
	store     Store
	sched     Scheduler
	countdown Countdown
	ringer    Ringer
	onChange  func([]models.Alarm)
	now       func() time.Time
	log       *zap.Logger

	// dirty is set while the in-memory list holds changes the store refused
	dirty bool
}

// Option configures a Controller
type Option func(*Controller)

func WithCountdown(c Countdown) Option {
	return func(ctl *Controller) { ctl.countdown = c }
}

func WithRinger(r Ringer) Option {
	return func(ctl *Controller) { ctl.ringer = r }
}

// OnChange is called with a copy of the list after every change
func OnChange(fn func([]models.Alarm)) Option {
	return func(ctl *Controller) { ctl.onChange = fn }
}

func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

func New(s Store, sched Scheduler, log *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		alarms: []models.Alarm{},
		store:  s,
		sched:  sched,
		now:    time.Now,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads the stored list and arms every enabled alarm that has no trigger yet
func (c *Controller) Start(ctx context.Context) error {
	return c.Resume(ctx)
}

// Resume reloads the list from the store, re-arms missing triggers and refreshes the countdown.
// Called when the app returns to the foreground.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumeLocked(ctx)
}

// Reconcile runs a background pass while no edit can touch the list or its triggers,
// then reloads the list the pass may have saved.
func (c *Controller) Reconcile(ctx context.Context, pass func(context.Context)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dirty {
		if err := c.store.Save(ctx, c.alarms); err != nil {
			c.log.Warn("unsaved alarms dropped for the stored list", zap.Error(err))
		}
		c.dirty = false
	}
	pass(ctx)
	return c.resumeLocked(ctx)
}

func (c *Controller) resumeLocked(ctx context.Context) error {
	loaded := c.store.Load(ctx)
	now := c.now()
	var errs []error
	for _, a := range loaded {
		if !a.IsEnabled {
			c.sched.Disarm(a.ID)
			continue
		}
		if at, armed := c.sched.Armed(a.ID); armed && !at.Before(now) {
			continue
		}
		if _, err := c.sched.Arm(ctx, a, now); err != nil {
			c.log.Warn("re-arm alarm failed", zap.String("alarm_id", a.ID), zap.Error(err))
			errs = append(errs, err)
		}
	}
	c.setLocked(loaded)
	if c.countdown != nil {
		c.countdown.Refresh()
	}
	return firstPermissionError(errs)
}

// Alarms returns a copy of the current list
func (c *Controller) Alarms() []models.Alarm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Alarm(nil), c.alarms...)
}

// Save creates or edits an alarm from the form and enables it
func (c *Controller) Save(ctx context.Context, d Draft) (models.Alarm, error) {
	if err := d.Time.Validate(); err != nil {
		return models.Alarm{}, fmt.Errorf("%w: %v", models.ErrInvalidTimeFormat, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	idx := -1
	if d.ID != "" {
		if idx = c.indexLocked(d.ID); idx < 0 {
			return models.Alarm{}, fmt.Errorf("%w: %s", ErrNotFound, d.ID)
		}
	}

	date := d.Date
	if date.IsZero() {
		date, _ = calendar.NextFireInstant(d.Time.String(), now)
	}
	a := models.Alarm{
		ID:           d.ID,
		Time:         d.Time.String(),
		Info:         calendar.Label(d.SelectedDays, date, now),
		SelectedDays: d.SelectedDays,
		IsEnabled:    true,
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	next := c.copyLocked()
	if idx < 0 {
		next = append(next, a)
	} else {
		next[idx] = a
	}

	saveErr := c.persistLocked(ctx, next)
	armErr := c.armLocked(ctx, a, now)
	c.log.Info("alarm saved", zap.String("alarm_id", a.ID), zap.String("time", a.Time), zap.String("info", a.Info))
	return a, errors.Join(saveErr, armErr)
}

// Toggle flips an alarm's enabled flag
func (c *Controller) Toggle(ctx context.Context, id string) (models.Alarm, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return models.Alarm{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := c.copyLocked()
	next[idx].IsEnabled = !next[idx].IsEnabled
	a := next[idx]

	var armErr error
	if a.IsEnabled {
		armErr = c.armLocked(ctx, a, c.now())
	} else {
		c.sched.Disarm(id)
	}
	saveErr := c.persistLocked(ctx, next)
	return a, errors.Join(saveErr, armErr)
}

// Delete disarms the alarm and removes it from the list
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.sched.Disarm(id)
	if err := c.store.Forget(ctx, id); err != nil {
		c.log.Warn("forget watermark failed", zap.String("alarm_id", id), zap.Error(err))
	}

	next := make([]models.Alarm, 0, len(c.alarms)-1)
	next = append(next, c.alarms[:idx]...)
	next = append(next, c.alarms[idx+1:]...)
	return c.persistLocked(ctx, next)
}

// HandleDelivery reacts to a trigger reaching its fire instant: the alarm rings, one-shot
// alarms are consumed and recurring ones armed for their next occurrence.
func (c *Controller) HandleDelivery(ctx context.Context, d notify.Delivery) error {
	p := d.Payload
	if p.Missed {
		c.log.Info("missed alarm shown", zap.String("alarm_id", p.AlarmID), zap.Time("due", p.FireAt))
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sched.Fired(p.AlarmID, d.Handle) {
		c.log.Debug("ignoring superseded trigger", zap.String("alarm_id", p.AlarmID))
		return nil
	}
	if err := c.store.MarkNotified(ctx, p.AlarmID, p.FireAt); err != nil {
		c.log.Warn("mark notified failed", zap.String("alarm_id", p.AlarmID), zap.Error(err))
	}
	if c.ringer != nil {
		// playback failure leaves the alarm ringing silently
		_ = c.ringer.Start(p.AlarmID, p.Sound)
	}

	idx := c.indexLocked(p.AlarmID)
	if idx < 0 || !c.alarms[idx].IsEnabled {
		return nil
	}
	a := c.alarms[idx]
	if !a.Recurring() {
		next := c.copyLocked()
		next[idx].IsEnabled = false
		return c.persistLocked(ctx, next)
	}
	if _, err := c.sched.Arm(ctx, a, p.FireAt.Add(time.Second)); err != nil {
		return err
	}
	if c.countdown != nil {
		c.countdown.Refresh()
	}
	return nil
}

// Dismiss stops the ringing alarm
func (c *Controller) Dismiss() {
	if c.ringer != nil {
		c.ringer.Stop()
	}
}

// Import merges alarms into the list: matching ids are replaced, others appended.
// Invalid alarms are skipped. It returns how many alarms were taken.
func (c *Controller) Import(ctx context.Context, alarms []models.Alarm) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	next := c.copyLocked()
	var (
		taken []models.Alarm
		errs  []error
	)
	for _, a := range alarms {
		if err := a.Validate(); err != nil {
			c.log.Warn("skipping invalid imported alarm", zap.String("alarm_id", a.ID), zap.Error(err))
			continue
		}
		if idx := indexOf(next, a.ID); idx >= 0 {
			next[idx] = a
		} else {
			next = append(next, a)
		}
		taken = append(taken, a)
	}
	if len(taken) == 0 {
		return 0, nil
	}

	if err := c.persistLocked(ctx, next); err != nil {
		errs = append(errs, err)
	}
	for _, a := range taken {
		if !a.IsEnabled {
			c.sched.Disarm(a.ID)
			continue
		}
		if err := c.armLocked(ctx, a, now); err != nil {
			errs = append(errs, err)
		}
	}
	c.log.Info("alarms imported", zap.Int("count", len(taken)))
	return len(taken), errors.Join(errs...)
}

// armLocked arms a user-enabled alarm. Occurrences before now are not owed to the user,
// so the watermark moves up to now first.
func (c *Controller) armLocked(ctx context.Context, a models.Alarm, now time.Time) error {
	if err := c.store.MarkNotified(ctx, a.ID, now); err != nil {
		c.log.Warn("mark notified failed", zap.String("alarm_id", a.ID), zap.Error(err))
	}
	if _, err := c.sched.Arm(ctx, a, now); err != nil {
		if errors.Is(err, notify.ErrPermissionDenied) {
			c.log.Warn("alarm saved but notifications are not permitted", zap.String("alarm_id", a.ID))
		}
		return err
	}
	return nil
}

// persistLocked replaces the list in memory, then in the store
func (c *Controller) persistLocked(ctx context.Context, next []models.Alarm) error {
	c.setLocked(next)
	if err := c.store.Save(ctx, next); err != nil {
		c.log.Error("save alarms failed", zap.Error(err))
		c.dirty = true
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	c.dirty = false
	return nil
}

func (c *Controller) setLocked(next []models.Alarm) {
	c.alarms = next
	if c.countdown != nil {
		c.countdown.Update(next)
	}
	if c.onChange != nil {
		c.onChange(append([]models.Alarm(nil), next...))
	}
}

func (c *Controller) copyLocked() []models.Alarm {
	return append(make([]models.Alarm, 0, len(c.alarms)+1), c.alarms...)
}

func (c *Controller) indexLocked(id string) int {
	return indexOf(c.alarms, id)
}

func indexOf(alarms []models.Alarm, id string) int {
	for i, a := range alarms {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func firstPermissionError(errs []error) error {
	for _, err := range errs {
		if errors.Is(err, notify.ErrPermissionDenied) {
			return err
		}
	}
	return nil
}
