package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/worktimer/internal/clock"
)

// DefaultDateLayout writes dates as day/month/year.
const DefaultDateLayout = "02/01/2006"

// Column names of a month table, in order.
const (
	ColumnDate     = "date"
	ColumnSummary  = "summary"
	ColumnDuration = "duration"
)

var header = []string{ColumnDate, ColumnSummary, ColumnDuration}

// Record is one committed work session, stored as the three text columns of
// its month table.
type Record struct {
	Date     string
	Summary  string
	Duration string // HH:MM:SS
}

// NewRecord builds the row for a session of secs seconds that ended at at.
func NewRecord(at time.Time, summary string, secs int64, layout string) (Record, error) {
	if layout == "" {
		layout = DefaultDateLayout
	}
	r := Record{
		Date:     at.Format(layout),
		Summary:  summary,
		Duration: clock.FormatSeconds(secs),
	}
	if secs <= 0 {
		return r, &ValidationError{Field: ColumnDuration, Reason: "nothing to record"}
	}
	return r, nil
}

// Validate rejects rows that must never be appended.
func (r Record) Validate() error {
	if r.Duration == "" || strings.Trim(r.Duration, "0:") == "" {
		return &ValidationError{Field: ColumnDuration, Reason: "nothing to record"}
	}
	return nil
}

func (r Record) row() []string {
	return []string{r.Date, r.Summary, r.Duration}
}

// ValidationError reports a record that was refused before touching a table.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Key identifies a month table. Year 0 is the legacy month-only key, shared
// by every year.
type Key struct {
	Year  int
	Month time.Month
}

// KeyFor returns the table key for t.
func KeyFor(t time.Time, byYear bool) Key {
	k := Key{Month: t.Month()}
	if byYear {
		k.Year = t.Year()
	}
	return k
}

// String returns the table name: "6" or "2026-06".
func (k Key) String() string {
	if k.Year == 0 {
		return strconv.Itoa(int(k.Month))
	}
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Label is the human-readable form used in the UI.
func (k Key) Label() string {
	if k.Year == 0 {
		return k.Month.String()
	}
	return fmt.Sprintf("%s %d", k.Month, k.Year)
}

// Less orders keys by year, then month. Legacy keys sort first.
func (k Key) Less(o Key) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// ParseKey parses a table name produced by Key.String.
func ParseKey(name string) (Key, error) {
	name = strings.TrimSpace(name)
	var k Key
	yearPart, monthPart, found := strings.Cut(name, "-")
	if !found {
		monthPart = yearPart
	} else {
		y, err := strconv.Atoi(yearPart)
		if err != nil || len(yearPart) != 4 || y <= 0 {
			return Key{}, fmt.Errorf("parse table key %q: bad year", name)
		}
		k.Year = y
	}
	m, err := strconv.Atoi(monthPart)
	if err != nil || m < 1 || m > 12 {
		return Key{}, fmt.Errorf("parse table key %q: bad month", name)
	}
	k.Month = time.Month(m)
	return k, nil
}
