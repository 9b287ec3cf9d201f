package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"github.com/borgmon/alarm-clock/pkg/models"
	"go.uber.org/zap"
)

const (
	// alarmsKey names the single record holding the whole alarm list
	alarmsKey     = "alarms"
	watermarksKey = "watermarks"
)

// AlarmStore persists the alarm list as a unit
type AlarmStore interface {
	// Load returns the stored list, or an empty list when nothing usable is stored
	Load(ctx context.Context) []models.Alarm
	// Save replaces the stored list
	Save(ctx context.Context, alarms []models.Alarm) error
}

// WatermarkStore remembers the last fire instant acted upon per alarm
type WatermarkStore interface {
	LastNotified(ctx context.Context, alarmID string) (time.Time, bool, error)
	// MarkNotified moves the watermark forward; earlier instants are ignored
	MarkNotified(ctx context.Context, alarmID string, at time.Time) error
	Forget(ctx context.Context, alarmID string) error
}

// Store is a backend holding both the alarm list and the watermarks
type Store interface {
	AlarmStore
	WatermarkStore
	Close() error
}

// Open creates the backend selected by driver ("bolt" or "prefs")
func Open(driver, path string, prefs fyne.Preferences, log *zap.Logger) (Store, error) {
	switch driver {
	case "", "bolt":
		s, err := OpenBolt(path, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "prefs":
		if prefs == nil {
			return nil, fmt.Errorf("store driver %q needs preferences", driver)
		}
		return NewPrefsStore(prefs, log), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func decodeAlarms(data []byte, log *zap.Logger) []models.Alarm {
	if len(data) == 0 {
		return []models.Alarm{}
	}
	var alarms []models.Alarm
	if err := json.Unmarshal(data, &alarms); err != nil {
		log.Warn("stored alarm list is unreadable, starting empty", zap.Error(err))
		return []models.Alarm{}
	}
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	return alarms
}

func encodeAlarms(alarms []models.Alarm) ([]byte, error) {
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	return json.Marshal(alarms)
}
