package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/borgmon/alarm-clock/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

type backend struct {
	name    string
	open    func(t *testing.T) Store
	corrupt func(t *testing.T, s Store)
}

func backends() []backend {
	return []backend{
		{
			name: "bolt",
			open: func(t *testing.T) Store {
				s, err := OpenBolt(filepath.Join(t.TempDir(), "data", "alarms.db"), zap.NewNop())
				require.NoError(t, err)
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
			corrupt: func(t *testing.T, s Store) {
				err := s.(*BoltStore).db.Update(func(tx *bolt.Tx) error {
					return tx.Bucket(alarmsBucket).Put([]byte(alarmsKey), []byte("{not json"))
				})
				require.NoError(t, err)
			},
		},
		{
			name: "prefs",
			open: func(t *testing.T) Store {
				return NewPrefsStore(test.NewApp().Preferences(), zap.NewNop())
			},
			corrupt: func(t *testing.T, s Store) {
				s.(*PrefsStore).prefs.SetString(alarmsKey, "[{\"id\":")
			},
		},
	}
}

func sampleAlarms() []models.Alarm {
	return []models.Alarm{
		{ID: "7d9a3c2e-1111-4c1e-8a55-000000000001", Time: "06:30 AM", Info: "Every Mon", SelectedDays: models.WeekdaysOf(time.Monday), IsEnabled: true},
		{ID: "7d9a3c2e-1111-4c1e-8a55-000000000002", Time: "10:00 PM", Info: "Today - Mon, Jan 1", IsEnabled: false},
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			alarms := s.Load(context.Background())
			assert.NotNil(t, alarms)
			assert.Empty(t, alarms)
		})
	}
}

func TestStore_SaveReplacesWholeList(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			require.NoError(t, s.Save(ctx, sampleAlarms()))
			assert.Equal(t, sampleAlarms(), s.Load(ctx))

			remaining := sampleAlarms()[1:]
			require.NoError(t, s.Save(ctx, remaining))
			assert.Equal(t, remaining, s.Load(ctx))

			require.NoError(t, s.Save(ctx, nil))
			assert.Empty(t, s.Load(ctx))
		})
	}
}

func TestStore_CorruptDataFailsSoft(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			require.NoError(t, s.Save(ctx, sampleAlarms()))
			b.corrupt(t, s)

			alarms := s.Load(ctx)
			assert.NotNil(t, alarms)
			assert.Empty(t, alarms)
		})
	}
}

func TestStore_SaveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			assert.ErrorIs(t, s.Save(ctx, sampleAlarms()), context.Canceled)
		})
	}
}

func TestStore_Watermarks(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	later := first.AddDate(0, 0, 1)

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)

			_, ok, err := s.LastNotified(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.MarkNotified(ctx, "a", later))
			require.NoError(t, s.MarkNotified(ctx, "a", first))

			at, ok, err := s.LastNotified(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, later.Equal(at), "watermark must not move backwards, got %s", at)

			require.NoError(t, s.Forget(ctx, "a"))
			require.NoError(t, s.Forget(ctx, "missing"))
			_, ok, err = s.LastNotified(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPrefsStore_NullWatermarks(t *testing.T) {
	ctx := context.Background()
	s := NewPrefsStore(test.NewApp().Preferences(), zap.NewNop())
	s.prefs.SetString(watermarksKey, "null")

	_, ok, err := s.LastNotified(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)
	require.NotPanics(t, func() {
		require.NoError(t, s.MarkNotified(ctx, "a", at))
	})
	got, ok, err := s.LastNotified(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alarms.db")

	s, err := OpenBolt(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleAlarms()))
	require.NoError(t, s.Close())

	reopened, err := OpenBolt(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, sampleAlarms(), reopened.Load(ctx))
}

func TestOpen_Drivers(t *testing.T) {
	s, err := Open("bolt", filepath.Join(t.TempDir(), "a.db"), nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open("prefs", "", nil, zap.NewNop())
	assert.Error(t, err)

	_, err = Open("sqlite", "", nil, zap.NewNop())
	assert.Error(t, err)
}
