package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/borgmon/alarm-clock/pkg/models"
	"go.uber.org/zap"
)

// PrefsStore handles alarm persistence using Fyne preferences
type PrefsStore struct {
	mu    sync.Mutex
	prefs fyne.Preferences
	log   *zap.Logger
}

// NewPrefsStore creates a store on top of the app's preferences
func NewPrefsStore(prefs fyne.Preferences, log *zap.Logger) *PrefsStore {
	return &PrefsStore{prefs: prefs, log: log}
}

func (ps *PrefsStore) Close() error { return nil }

// Load loads the alarm list from the JSON string preference
func (ps *PrefsStore) Load(ctx context.Context) []models.Alarm {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	return decodeAlarms([]byte(ps.prefs.String(alarmsKey)), ps.log)
}

// Save saves the alarm list as a JSON string preference
func (ps *PrefsStore) Save(ctx context.Context, alarms []models.Alarm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeAlarms(alarms)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.prefs.SetString(alarmsKey, string(data))
	return nil
}

func (ps *PrefsStore) LastNotified(ctx context.Context, alarmID string) (time.Time, bool, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	marks, err := ps.watermarks()
	if err != nil {
		return time.Time{}, false, err
	}
	at, ok := marks[alarmID]
	return at, ok, nil
}

func (ps *PrefsStore) MarkNotified(ctx context.Context, alarmID string, at time.Time) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	marks, err := ps.watermarks()
	if err != nil {
		// An unreadable map only loses duplicate suppression, start over
		ps.log.Warn("resetting unreadable watermarks", zap.Error(err))
		marks = map[string]time.Time{}
	}
	if current, ok := marks[alarmID]; ok && !at.After(current) {
		return nil
	}
	marks[alarmID] = at
	return ps.setWatermarks(marks)
}

func (ps *PrefsStore) Forget(ctx context.Context, alarmID string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	marks, err := ps.watermarks()
	if err != nil {
		return err
	}
	if _, ok := marks[alarmID]; !ok {
		return nil
	}
	delete(marks, alarmID)
	return ps.setWatermarks(marks)
}

func (ps *PrefsStore) watermarks() (map[string]time.Time, error) {
	marks := map[string]time.Time{}
	raw := ps.prefs.String(watermarksKey)
	if raw == "" {
		return marks, nil
	}
	if err := json.Unmarshal([]byte(raw), &marks); err != nil {
		return nil, fmt.Errorf("decode watermarks: %w", err)
	}
	if marks == nil {
		// "null" decodes to a nil map
		marks = map[string]time.Time{}
	}
	return marks, nil
}

func (ps *PrefsStore) setWatermarks(marks map[string]time.Time) error {
	data, err := json.Marshal(marks)
	if err != nil {
		return fmt.Errorf("encode watermarks: %w", err)
	}
	ps.prefs.SetString(watermarksKey, string(data))
	return nil
}
