package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/borgmon/alarm-clock/pkg/models"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	alarmsBucket     = []byte("alarms")
	watermarksBucket = []byte("watermarks")
)

// BoltStore keeps the alarm list in a bbolt file.
// The file lock lets only one process hold the database at a time.
type BoltStore struct {
	db  *bolt.DB
	log *zap.Logger
}

// OpenBolt opens (or creates) the database file and its buckets
func OpenBolt(path string, log *zap.Logger) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(alarmsBucket); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(watermarksBucket); e != nil {
			return e
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &BoltStore{db: db, log: log}, nil
}

func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Load(ctx context.Context) []models.Alarm {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(alarmsBucket)
		if bk == nil {
			return errors.New("alarms bucket missing")
		}
		// bolt values are only valid inside the transaction
		if v := bk.Get([]byte(alarmsKey)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("load alarms failed, starting empty", zap.Error(err))
		return []models.Alarm{}
	}
	return decodeAlarms(data, s.log)
}

func (s *BoltStore) Save(ctx context.Context, alarms []models.Alarm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeAlarms(alarms)
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(alarmsBucket)
		if bk == nil {
			return errors.New("alarms bucket missing")
		}
		return bk.Put([]byte(alarmsKey), data)
	})
}

func (s *BoltStore) LastNotified(ctx context.Context, alarmID string) (time.Time, bool, error) {
	var (
		at    time.Time
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(watermarksBucket).Get([]byte(alarmID))
		if v == nil {
			return nil
		}
		found = true
		return at.UnmarshalText(v)
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark %s: %w", alarmID, err)
	}
	return at, found, nil
}

func (s *BoltStore) MarkNotified(ctx context.Context, alarmID string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(watermarksBucket)
		if v := bk.Get([]byte(alarmID)); v != nil {
			var current time.Time
			if err := current.UnmarshalText(v); err == nil && !at.After(current) {
				return nil
			}
		}
		text, err := at.MarshalText()
		if err != nil {
			return err
		}
		return bk.Put([]byte(alarmID), text)
	})
}

func (s *BoltStore) Forget(ctx context.Context, alarmID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(watermarksBucket).Delete([]byte(alarmID))
	})
}
