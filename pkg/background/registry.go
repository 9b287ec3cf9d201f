package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is the minimum interval used when a task does not set one
const DefaultInterval = 15 * time.Minute

// ErrUnknownTask is returned when triggering a name nobody registered
var ErrUnknownTask = errors.New("unknown background task")

// Task is a host-invoked entry point
type Task func(ctx context.Context) Result

// Options describe how the host schedules a task
type Options struct {
	MinimumInterval time.Duration
	StartOnBoot     bool
}

// BootRegistrar makes the host process start at login
type BootRegistrar interface {
	Enable() error
	Disable() error
	IsEnabled() bool
}

type entry struct {
	name string
	opts Options
	fn   Task
}

// Registry runs named periodic tasks. Overlapping invocations of the same task share one run.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*entry
	last  map[string]Result
	group singleflight.Group
	boot  BootRegistrar
	log   *zap.Logger
}

// NewRegistry creates a registry. boot may be nil when start-on-boot is unsupported.
func NewRegistry(boot BootRegistrar, log *zap.Logger) *Registry {
	return &Registry{
		tasks: make(map[string]*entry),
		last:  make(map[string]Result),
		boot:  boot,
		log:   log,
	}
}

// Register adds a named task. Registering a name again replaces its options and function.
func (r *Registry) Register(name string, opts Options, fn Task) error {
	if name == "" || fn == nil {
		return fmt.Errorf("register task %q: name and function are required", name)
	}
	if opts.MinimumInterval <= 0 {
		opts.MinimumInterval = DefaultInterval
	}

	r.mu.Lock()
	r.tasks[name] = &entry{name: name, opts: opts, fn: fn}
	r.mu.Unlock()

	return r.syncBoot()
}

// Trigger runs the task now, joining an invocation already in flight
func (r *Registry) Trigger(ctx context.Context, name string) (Result, error) {
	r.mu.Lock()
	e, ok := r.tasks[name]
	r.mu.Unlock()
	if !ok {
		return Failed, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	v, _, shared := r.group.Do(name, func() (interface{}, error) {
		return r.invoke(ctx, e), nil
	})
	res := v.(Result)
	if shared {
		r.log.Debug("joined running task", zap.String("task", name))
	}
	return res, nil
}

// Last returns the result of the task's most recent run
func (r *Registry) Last(name string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.last[name]
	return res, ok
}

// Names lists registered tasks
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run ticks every registered task at its minimum interval until ctx is done
func (r *Registry) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range r.Names() {
		name := name
		r.mu.Lock()
		interval := r.tasks[name].opts.MinimumInterval
		r.mu.Unlock()

		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if _, err := r.Trigger(ctx, name); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}

func (r *Registry) invoke(ctx context.Context, e *entry) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("background task panicked", zap.String("task", e.name), zap.Any("panic", p))
			res = Failed
		}
		r.mu.Lock()
		r.last[e.name] = res
		r.mu.Unlock()
		r.log.Info("background task finished",
			zap.String("task", e.name),
			zap.Stringer("result", res),
			zap.Duration("took", time.Since(start)))
	}()
	return e.fn(ctx)
}

// syncBoot enables the login item when any task asks for it, and disables it otherwise
func (r *Registry) syncBoot() error {
	if r.boot == nil {
		return nil
	}
	r.mu.Lock()
	want := false
	for _, e := range r.tasks {
		want = want || e.opts.StartOnBoot
	}
	r.mu.Unlock()

	switch {
	case want && !r.boot.IsEnabled():
		if err := r.boot.Enable(); err != nil {
			return fmt.Errorf("enable start on boot: %w", err)
		}
		r.log.Info("start on boot enabled")
	case !want && r.boot.IsEnabled():
		if err := r.boot.Disable(); err != nil {
			return fmt.Errorf("disable start on boot: %w", err)
		}
		r.log.Info("start on boot disabled")
	}
	return nil
}
