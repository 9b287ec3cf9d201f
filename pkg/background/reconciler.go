package background

import (
	"context"
	"fmt"
	"time"

	"github.com/borgmon/alarm-clock/pkg/calendar"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/borgmon/alarm-clock/pkg/store"
	"go.uber.org/zap"
)

// Result is what a task reports back to the host
type Result int

const (
	NoData Result = iota
	NewData
	Failed
)

func (r Result) String() string {
	switch r {
	case NoData:
		return "no-data"
	case NewData:
		return "new-data"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Arming is the part of the notification scheduler the reconciler drives
type Arming interface {
	Arm(ctx context.Context, a models.Alarm, ref time.Time) (time.Time, error)
	Armed(alarmID string) (time.Time, bool)
	Disarm(alarmID string)
	Prune(keep map[string]bool) int
	NotifyNow(ctx context.Context, a models.Alarm, due time.Time) error
}

// Store is the persistence the reconciler reads and writes
type Store interface {
	store.AlarmStore
	store.WatermarkStore
}

// Report summarises one reconciliation pass
type Report struct {
	Result    Result
	Evaluated int
	Notified  []string
	Rearmed   []string
	Consumed  []string
	Pruned    int
	Failures  map[string]error
}

// Reconciler catches up on alarms whose trigger was missed and re-arms lost triggers
type Reconciler struct {
	store    Store
	arming   Arming
	lookback time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLookback sets how far back an alarm without a watermark is still caught up
func WithLookback(d time.Duration) Option {
	return func(r *Reconciler) { r.lookback = d }
}

// WithClock overrides the clock
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(s Store, arming Arming, log *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    s,
		arming:   arming,
		lookback: DefaultInterval,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Task adapts the reconciler to the registry's task signature
func (r *Reconciler) Task(ctx context.Context) Result {
	return r.Run(ctx).Result
}

// Run performs one pass over the stored alarm list. It must not overlap edits of the
// list, the app runs it through controller.Reconcile.
func (r *Reconciler) Run(ctx context.Context) Report {
	report := Report{Failures: map[string]error{}}
	if ctx.Err() != nil {
		report.Result = Failed
		return report
	}

	now := r.now()
	alarms := r.store.Load(ctx)
	keep := make(map[string]bool, len(alarms))
	consumed := false

	for i, a := range alarms {
		if err := ctx.Err(); err != nil {
			r.log.Warn("reconciliation cancelled", zap.Error(err))
			report.Result = Failed
			return report
		}
		if !a.IsEnabled {
			r.arming.Disarm(a.ID)
			continue
		}

		report.Evaluated++
		out, err := r.reconcile(ctx, a, now)
		if err != nil {
			r.log.Error("reconcile alarm failed", zap.String("alarm_id", a.ID), zap.Error(err))
			report.Failures[a.ID] = err
		}
		if out.notified {
			report.Notified = append(report.Notified, a.ID)
		}
		if out.rearmed {
			report.Rearmed = append(report.Rearmed, a.ID)
		}
		if out.consume {
			alarms[i].IsEnabled = false
			r.arming.Disarm(a.ID)
			report.Consumed = append(report.Consumed, a.ID)
			consumed = true
			continue
		}
		keep[a.ID] = true
	}
	report.Pruned = r.arming.Prune(keep)

	if consumed {
		if err := r.store.Save(ctx, alarms); err != nil {
			r.log.Error("save consumed alarms failed", zap.Error(err))
			report.Result = Failed
			return report
		}
	}

	switch {
	case report.Evaluated > 0 && len(report.Failures) == report.Evaluated:
		report.Result = Failed
	case len(report.Notified) > 0 || len(report.Rearmed) > 0 || consumed:
		report.Result = NewData
	default:
		report.Result = NoData
	}
	r.log.Info("reconciliation pass done",
		zap.Stringer("result", report.Result),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("notified", len(report.Notified)),
		zap.Int("rearmed", len(report.Rearmed)),
		zap.Int("failed", len(report.Failures)))
	return report
}

type outcome struct {
	notified bool
	rearmed  bool
	consume  bool
}

func (r *Reconciler) reconcile(ctx context.Context, a models.Alarm, now time.Time) (out outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	due, err := calendar.PreviousOccurrence(a, now)
	if err != nil {
		return out, err
	}

	mark, ok, err := r.store.LastNotified(ctx, a.ID)
	if err != nil {
		return out, err
	}
	if !ok {
		mark = now.Add(-r.lookback)
	}

	// a trigger still pending for this very instant delivers it
	if at, armed := r.arming.Armed(a.ID); armed && at.Equal(due) {
		return out, nil
	}

	if due.After(mark) {
		if err := r.arming.NotifyNow(ctx, a, due); err != nil {
			return out, err
		}
		out.notified = true
		if err := r.store.MarkNotified(ctx, a.ID, due); err != nil {
			return out, err
		}
		r.log.Info("missed alarm notified", zap.String("alarm_id", a.ID), zap.Time("due", due))
		if !a.Recurring() {
			out.consume = true
			return out, nil
		}
	} else if !ok {
		if err := r.store.MarkNotified(ctx, a.ID, now); err != nil {
			return out, err
		}
	}

	// re-arm when the trigger was lost or is stuck in the past
	if at, armed := r.arming.Armed(a.ID); !armed || at.Before(now) {
		if _, err := r.arming.Arm(ctx, a, now); err != nil {
			return out, err
		}
		out.rearmed = true
	}
	return out, nil
}
