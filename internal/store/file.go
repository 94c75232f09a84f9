package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sadopc/worktimer/internal/logging"
)

// Codec reads and writes a whole month table in one file format.
type Codec interface {
	Ext() string
	// ReadRows returns every row of the file, header included.
	ReadRows(path string) ([][]string, error)
	// WriteRows replaces the file with rows.
	WriteRows(path string, rows [][]string) error
}

// FileStore keeps one file per month table in a directory. Each commit reads
// the whole table, appends in memory and writes it back.
type FileStore struct {
	dir    string
	codec  Codec
	logger *slog.Logger
}

func NewFileStore(dir string, codec Codec, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &FileStore{dir: dir, codec: codec, logger: logger}, nil
}

// Path returns the file backing the table for key.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.dir, key.String()+s.codec.Ext())
}

func (s *FileStore) TableName(key Key) string {
	return filepath.Base(s.Path(key))
}

func (s *FileStore) Commit(_ context.Context, key Key, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	path := s.Path(key)
	rows, err := s.codec.ReadRows(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read table %s: %w", key, err)
	}
	rows, err = appendRow(rows, rec)
	if err != nil {
		return fmt.Errorf("append to table %s: %w", key, err)
	}
	if err := s.codec.WriteRows(path, rows); err != nil {
		return fmt.Errorf("write table %s: %w", key, err)
	}
	s.logger.Info("session committed", "table", filepath.Base(path), "rows", len(rows)-1, "duration", rec.Duration)
	return nil
}

func (s *FileStore) Load(_ context.Context, key Key) ([]Record, error) {
	path := s.Path(key)
	rows, err := s.codec.ReadRows(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", key, err)
	}
	records, err := recordsFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", key, err)
	}
	s.logger.Debug("table loaded", "table", filepath.Base(path), "rows", len(records))
	return records, nil
}

func (s *FileStore) Months(_ context.Context) ([]Key, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), s.codec.Ext())
		if e.IsDir() || !ok {
			continue
		}
		names = append(names, name)
	}
	return keysFromNames(names), nil
}

func (s *FileStore) Close() error { return nil }
