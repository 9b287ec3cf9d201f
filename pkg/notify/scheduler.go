package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/borgmon/alarm-clock/pkg/calendar"
	"github.com/borgmon/alarm-clock/pkg/models"
	"go.uber.org/zap"
)

// ErrPermissionDenied is returned when the user refused notifications
var ErrPermissionDenied = errors.New("notification permission denied")

type trigger struct {
	handle Handle
	at     time.Time
}

// Scheduler keeps at most one pending trigger per alarm
type Scheduler struct {
	mu    sync.Mutex
	host  Host
	log   *zap.Logger
	armed map[string]trigger

	granted bool
}

func NewScheduler(host Host, log *zap.Logger) *Scheduler {
	return &Scheduler{
		host:  host,
		log:   log,
		armed: make(map[string]trigger),
	}
}

// Arm registers a trigger for the alarm's next occurrence and then cancels the one it
// already had. It returns the scheduled instant.
func (s *Scheduler) Arm(ctx context.Context, a models.Alarm, ref time.Time) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	at, err := calendar.NextOccurrence(a, ref)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.permission(ctx); err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the old trigger stays pending until its replacement is registered
	h, err := s.host.ScheduleAt(at, models.NewPayload(a, at))
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule alarm %s: %w", a.ID, err)
	}
	s.disarmLocked(a.ID)
	s.armed[a.ID] = trigger{handle: h, at: at}
	s.log.Debug("alarm armed", zap.String("alarm_id", a.ID), zap.Time("fire_at", at))
	return at, nil
}

// Disarm cancels the alarm's pending trigger, if any
func (s *Scheduler) Disarm(alarmID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked(alarmID)
}

func (s *Scheduler) disarmLocked(alarmID string) {
	t, ok := s.armed[alarmID]
	if !ok {
		return
	}
	delete(s.armed, alarmID)
	if err := s.host.Cancel(t.handle); err != nil {
		s.log.Warn("cancel trigger failed", zap.String("alarm_id", alarmID), zap.Error(err))
	}
}

// Armed returns the instant the alarm's pending trigger fires at
func (s *Scheduler) Armed(alarmID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.armed[alarmID]
	return t.at, ok
}

// Fired records that the host delivered the trigger. Deliveries of superseded
// triggers are ignored and reported as false.
func (s *Scheduler) Fired(alarmID string, h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.armed[alarmID]
	if !ok || t.handle != h {
		return false
	}
	delete(s.armed, alarmID)
	return true
}

// Prune disarms every trigger whose alarm is not in keep
func (s *Scheduler) Prune(keep map[string]bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.armed {
		if !keep[id] {
			s.disarmLocked(id)
			n++
		}
	}
	return n
}

// NotifyNow raises an immediate notification for an occurrence that was missed
func (s *Scheduler) NotifyNow(ctx context.Context, a models.Alarm, due time.Time) error {
	if err := s.permission(ctx); err != nil {
		return err
	}
	p := models.NewPayload(a, due)
	p.Missed = true
	if _, err := s.host.ScheduleAt(time.Now(), p); err != nil {
		return fmt.Errorf("notify alarm %s: %w", a.ID, err)
	}
	return nil
}

// permission asks the host until the user grants notifications; a grant is remembered
func (s *Scheduler) permission(ctx context.Context) error {
	s.mu.Lock()
	granted := s.granted
	s.mu.Unlock()
	if granted {
		return nil
	}

	granted, err := s.host.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("request notification permission: %w", err)
	}
	if !granted {
		return ErrPermissionDenied
	}
	s.mu.Lock()
	s.granted = true
	s.mu.Unlock()
	return nil
}
