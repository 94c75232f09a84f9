package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/worktimer/internal/report"
	"github.com/sadopc/worktimer/internal/store"
)

// screen is the state of the flow controller.
type screen int

const (
	screenMain screen = iota
	screenSummary
	screenReport
)

var screenNames = []string{"Timer", "Save", "Report"}

const (
	loadTimeout   = 30 * time.Second
	commitTimeout = 30 * time.Second
)

// --- Messages ---

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarn
	statusError
)

type statusMsg struct {
	text string
	kind statusKind
}

// tickMsg carries the generation of the chain that scheduled it; ticks from
// an older generation are dropped.
type tickMsg struct {
	gen  int
	time time.Time
}

type monthTotalMsg struct {
	key   store.Key
	total report.Total
	err   error
}

// monthsMsg and reportDataMsg carry the generation of the report screen
// opening that asked for them.
type monthsMsg struct {
	gen  int
	keys []store.Key
	err  error
}

type reportDataMsg struct {
	gen   int
	key   store.Key
	total report.Total
	days  []report.Day
	err   error
}

// --- Commands ---

func loadMonthTotal(s store.Store, key store.Key) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		records, err := s.Load(ctx, key)
		if err != nil {
			return monthTotalMsg{key: key, err: err}
		}
		return monthTotalMsg{key: key, total: report.Sum(records)}
	}
}

func loadMonths(s store.Store, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		keys, err := s.Months(ctx)
		return monthsMsg{gen: gen, keys: keys, err: err}
	}
}

func loadReport(s store.Store, key store.Key, layout string, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		records, err := s.Load(ctx, key)
		if err != nil {
			return reportDataMsg{gen: gen, key: key, err: err}
		}
		return reportDataMsg{
			gen:   gen,
			key:   key,
			total: report.Sum(records),
			days:  report.ByDay(records, layout),
		}
	}
}
