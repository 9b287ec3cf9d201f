package audio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stopper releases a playing sound
type Stopper interface {
	Stop()
}

// PlayFunc starts looping a WAV sound
type PlayFunc func(wav []byte) (Stopper, error)

// Ringer owns the single sound handle of a ringing alarm
type Ringer struct {
	mu        sync.Mutex
	sound     []byte
	play      PlayFunc
	timeout   time.Duration
	onTimeout func(alarmID string)
	log       *zap.Logger

	alarmID string
	handle  Stopper
	timer   *time.Timer
	ringing bool
	gen     uint64
}

// RingerOption configures a Ringer
type RingerOption func(*Ringer)

// WithPlayer replaces the oto player, mostly for tests
func WithPlayer(play PlayFunc) RingerOption {
	return func(r *Ringer) { r.play = play }
}

// OnTimeout is called when an alarm rang for the whole timeout without being dismissed
func OnTimeout(fn func(alarmID string)) RingerOption {
	return func(r *Ringer) { r.onTimeout = fn }
}

// NewRinger creates a ringer for the given WAV sound. A zero timeout rings until stopped.
func NewRinger(sound []byte, timeout time.Duration, log *zap.Logger, opts ...RingerOption) *Ringer {
	if len(sound) == 0 {
		sound = DefaultSound()
	}
	r := &Ringer{
		sound:   sound,
		timeout: timeout,
		log:     log,
	}
	r.play = func(wav []byte) (Stopper, error) {
		p, err := Play(wav, r.log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start rings for an alarm, stopping whatever was ringing before.
// A playback error is returned but the alarm still counts as ringing so it can be dismissed.
func (r *Ringer) Start(alarmID string, withSound bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	r.gen++
	gen := r.gen
	r.alarmID = alarmID
	r.ringing = true
	if r.timeout > 0 {
		r.timer = time.AfterFunc(r.timeout, func() { r.expire(gen) })
	}
	if !withSound {
		return nil
	}

	handle, err := r.play(r.sound)
	if err != nil {
		r.log.Warn("alarm sound failed to start", zap.String("alarm_id", alarmID), zap.Error(err))
		return err
	}
	r.handle = handle
	return nil
}

// Stop silences the ringing alarm. Safe to call when nothing rings.
func (r *Ringer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Ringing returns the alarm currently ringing
func (r *Ringer) Ringing() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alarmID, r.ringing
}

func (r *Ringer) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.handle != nil {
		r.handle.Stop()
		r.handle = nil
	}
	r.alarmID = ""
	r.ringing = false
}

func (r *Ringer) expire(gen uint64) {
	r.mu.Lock()
	if !r.ringing || r.gen != gen {
		r.mu.Unlock()
		return
	}
	alarmID := r.alarmID
	r.stopLocked()
	onTimeout := r.onTimeout
	r.mu.Unlock()

	r.log.Info("alarm stopped ringing after timeout", zap.String("alarm_id", alarmID))
	if onTimeout != nil {
		onTimeout(alarmID)
	}
}
