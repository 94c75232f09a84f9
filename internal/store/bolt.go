package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sadopc/worktimer/internal/logging"
)

// Bolt keeps one bucket per month table; rows are keyed by the bucket's
// sequence so iteration order is insertion order.
type Bolt struct {
	db     *bbolt.DB
	logger *slog.Logger
}

type boltRow struct {
	Date     string `json:"date"`
	Summary  string `json:"summary"`
	Duration string `json:"duration"`
}

func NewBolt(path string, logger *slog.Logger) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bolt{db: db, logger: logger}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Commit(_ context.Context, key Key, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(boltRow{Date: rec.Date, Summary: rec.Summary, Duration: rec.Duration})
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(key.String()))
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put(itob(seq), data)
	})
	if err != nil {
		return fmt.Errorf("append to table %s: %w", key, err)
	}
	b.logger.Info("session committed", "table", key.String(), "duration", rec.Duration)
	return nil
}

func (b *Bolt) Load(_ context.Context, key Key) ([]Record, error) {
	records := []Record{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(key.String()))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var row boltRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			records = append(records, Record{Date: row.Date, Summary: row.Summary, Duration: row.Duration})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", key, err)
	}
	return records, nil
}

func (b *Bolt) Months(_ context.Context) ([]Key, error) {
	var names []string
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return keysFromNames(names), nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
