// Package report sums the durations recorded in a month table.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/worktimer/internal/store"
)

// ErrMalformedDuration is returned for duration text that is not H:M:S.
var ErrMalformedDuration = errors.New("malformed duration")

// ParseDuration parses "H:M:S" into seconds. Each part is a run of ASCII
// digits; hours are unbounded and minutes and seconds are taken literally, so
// "0:75:00" is 4500.
func ParseDuration(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
	}
	var n [3]int64
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, s)
		}
		n[i] = v
	}
	return n[0]*3600 + n[1]*60 + n[2], nil
}

// RowError describes a row left out of a total. Row is zero-based and does
// not count the header.
type RowError struct {
	Row   int
	Value string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row+1, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Total is the outcome of summing a table.
type Total struct {
	Seconds int64
	Rows    int // rows that were summed
	Skipped []RowError
}

func (t Total) Hours() float64 {
	return float64(t.Seconds) / 3600
}

// Sum adds up the durations of records. Rows that fail to parse are skipped
// and reported, they never abort the sum.
func Sum(records []store.Record) Total {
	var t Total
	for i, r := range records {
		secs, err := ParseDuration(r.Duration)
		if err != nil {
			t.Skipped = append(t.Skipped, RowError{Row: i, Value: r.Duration, Err: err})
			continue
		}
		t.Seconds += secs
		t.Rows++
	}
	return t
}

// TotalHours is Sum(records).Hours().
func TotalHours(records []store.Record) float64 {
	return Sum(records).Hours()
}

// FormatHours renders h with four decimals using sep as the decimal mark.
func FormatHours(h float64, sep string) string {
	s := strconv.FormatFloat(h, 'f', 4, 64)
	if sep == "" || sep == "." {
		return s
	}
	return strings.Replace(s, ".", sep, 1)
}

// Day is the time recorded on one calendar day.
type Day struct {
	Date    time.Time
	Seconds int64
	Rows    int
}

func (d Day) Hours() float64 {
	return float64(d.Seconds) / 3600
}

// ByDay groups records by their date column, oldest day first. Rows whose
// date or duration cannot be parsed are left out.
func ByDay(records []store.Record, layout string) []Day {
	if layout == "" {
		layout = store.DefaultDateLayout
	}
	byDate := make(map[time.Time]*Day)
	for _, r := range records {
		date, err := time.Parse(layout, strings.TrimSpace(r.Date))
		if err != nil {
			continue
		}
		secs, err := ParseDuration(r.Duration)
		if err != nil {
			continue
		}
		d, ok := byDate[date]
		if !ok {
			d = &Day{Date: date}
			byDate[date] = d
		}
		d.Seconds += secs
		d.Rows++
	}

	days := make([]Day, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}
