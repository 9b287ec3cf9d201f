package countdown

import (
	"sync"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	"go.uber.org/zap"
)

// Presenter keeps the countdown text current. It ticks only while an enabled alarm exists.
type Presenter struct {
	mu       sync.Mutex
	alarms   []models.Alarm
	text     string
	stop     chan struct{}
	closed   bool
	tick     time.Duration
	now      func() time.Time
	onChange func(string)
	log      *zap.Logger
}

// Option configures a Presenter
type Option func(*Presenter)

// WithTick sets the refresh cadence (default one second)
func WithTick(d time.Duration) Option {
	return func(p *Presenter) {
		if d > 0 {
			p.tick = d
		}
	}
}

// WithClock overrides the clock
func WithClock(now func() time.Time) Option {
	return func(p *Presenter) { p.now = now }
}

// OnChange registers a callback receiving every recomputed text
func OnChange(fn func(string)) Option {
	return func(p *Presenter) { p.onChange = fn }
}

func New(log *zap.Logger, opts ...Option) *Presenter {
	p := &Presenter{
		text: NoAlarms,
		tick: time.Second,
		now:  time.Now,
		log:  log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Update replaces the alarm list, recomputes the text and starts or stops the ticker
func (p *Presenter) Update(alarms []models.Alarm) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.alarms = append([]models.Alarm(nil), alarms...)
	if hasEnabled(p.alarms) {
		p.startLocked()
	} else {
		p.stopLocked()
	}
	p.mu.Unlock()

	p.Refresh()
}

// Refresh recomputes the text against the current clock
func (p *Presenter) Refresh() {
	p.mu.Lock()
	text := Describe(p.alarms, p.now())
	p.text = text
	onChange := p.onChange
	p.mu.Unlock()

	if onChange != nil {
		onChange(text)
	}
}

func (p *Presenter) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// Running reports whether the ticker is active
func (p *Presenter) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// Close stops the ticker; later updates are ignored
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
}

func (p *Presenter) startLocked() {
	if p.stop != nil {
		return
	}
	stop := make(chan struct{})
	p.stop = stop
	go p.loop(stop)
	p.log.Debug("countdown ticker started", zap.Duration("tick", p.tick))
}

func (p *Presenter) stopLocked() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
	p.log.Debug("countdown ticker stopped")
}

func (p *Presenter) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.Refresh()
		}
	}
}

func hasEnabled(alarms []models.Alarm) bool {
	for _, a := range alarms {
		if a.IsEnabled {
			return true
		}
	}
	return false
}
