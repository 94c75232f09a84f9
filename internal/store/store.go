package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/sadopc/worktimer/internal/logging"
)

// Store persists month tables. Implementations append rows without touching
// existing ones and treat a missing table as empty.
type Store interface {
	// Commit appends rec to the table for key, creating it when absent.
	Commit(ctx context.Context, key Key, rec Record) error
	// Load returns the rows of the table for key in insertion order.
	Load(ctx context.Context, key Key) ([]Record, error)
	// Months lists the keys of every existing table, oldest first.
	Months(ctx context.Context) ([]Key, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendXLSX   = "xlsx"
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendSheets = "sheets"
)

var Backends = []string{BackendXLSX, BackendCSV, BackendSQLite, BackendBolt, BackendSheets}

var ErrUnknownBackend = errors.New("unknown backend")

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string

	SQLitePath string // default <Dir>/worktimer.db
	BoltPath   string // default <Dir>/worktimer.bolt

	SpreadsheetID   string
	CredentialsFile string

	Logger *slog.Logger
}

// Open builds the Store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", logging.ComponentStore, "backend", opts.Backend)

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	var (
		s   Store
		err error
	)
	switch opts.Backend {
	case BackendXLSX, "":
		s, err = NewFileStore(dir, XLSXCodec{}, logger)
	case BackendCSV:
		s, err = NewFileStore(dir, CSVCodec{}, logger)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(dir, "worktimer.db")
		}
		s, err = NewSQLite(path, logger)
	case BackendBolt:
		path := opts.BoltPath
		if path == "" {
			path = filepath.Join(dir, "worktimer.bolt")
		}
		s, err = NewBolt(path, logger)
	case BackendSheets:
		s, err = NewSheets(ctx, opts.SpreadsheetID, opts.CredentialsFile, logger)
	default:
		return nil, fmt.Errorf("open store: %w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", opts.Backend, err)
	}
	logger.Info("store opened", "dir", dir)
	return s, nil
}

// TableName is how s names the table for key in messages: the file name for
// file backends, the key elsewhere.
func TableName(s Store, key Key) string {
	if n, ok := s.(interface{ TableName(Key) string }); ok {
		return n.TableName(key)
	}
	return key.String()
}

func sortKeys(keys []Key) []Key {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// keysFromNames parses table names, skipping the ones that are not keys.
// Only canonical names count: "06" parses to June but the table for June is
// named "6", so listing it would point at a different table.
func keysFromNames(names []string) []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, n := range names {
		k, err := ParseKey(n)
		if err != nil || k.String() != n || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return sortKeys(keys)
}

// columnIndex locates the known columns in a header row. Unknown columns are
// ignored and a missing one maps to -1.
func columnIndex(hdr []string) (map[string]int, error) {
	idx := map[string]int{ColumnDate: -1, ColumnSummary: -1, ColumnDuration: -1}
	for i, name := range hdr {
		if j, ok := idx[name]; ok && j < 0 {
			idx[name] = i
		}
	}
	if idx[ColumnDuration] < 0 {
		return nil, fmt.Errorf("table header %v: missing %q column", hdr, ColumnDuration)
	}
	return idx, nil
}

// recordsFromRows maps raw table rows onto records using the header row to
// locate columns. Missing cells read as empty strings.
func recordsFromRows(rows [][]string) ([]Record, error) {
	if len(rows) == 0 {
		return []Record{}, nil
	}
	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}
	cell := func(row []string, col string) string {
		i := idx[col]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		records = append(records, Record{
			Date:     cell(row, ColumnDate),
			Summary:  cell(row, ColumnSummary),
			Duration: cell(row, ColumnDuration),
		})
	}
	return records, nil
}

// appendRow adds rec to a raw table. Existing rows, including columns this
// program does not know, are kept as they are; the new row's cells go under
// the header's own date, summary and duration columns. A header lacking date
// or summary gains it at the end.
func appendRow(rows [][]string, rec Record) ([][]string, error) {
	if len(rows) == 0 {
		return [][]string{append([]string(nil), header...), rec.row()}, nil
	}
	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}
	hdr := rows[0]
	for _, col := range header {
		if idx[col] < 0 {
			idx[col] = len(hdr)
			hdr = append(hdr, col)
		}
	}
	rows[0] = hdr

	row := make([]string, len(hdr))
	row[idx[ColumnDate]] = rec.Date
	row[idx[ColumnSummary]] = rec.Summary
	row[idx[ColumnDuration]] = rec.Duration
	return append(rows, row), nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
