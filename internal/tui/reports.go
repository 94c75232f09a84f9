package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worktimer/internal/report"
	"github.com/sadopc/worktimer/internal/store"
)

type reportsModel struct {
	store  store.Store
	layout string
	sep    string
	width  int
	height int

	// bumped by open; loads from an earlier opening are dropped
	gen     int
	months  []store.Key
	cursor  int
	loading bool

	// last shown total; cleared whenever the screen is opened
	shown  *store.Key
	total  report.Total
	days   []report.Day
	chart  barchart.Model
	hasBar bool
}

func newReportsModel(s store.Store, layout, sep string) reportsModel {
	return reportsModel{
		store:  s,
		layout: layout,
		sep:    sep,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	if r.shown != nil {
		r.buildChart()
	}
}

// open clears the previous result and lists the month tables again.
func (r reportsModel) open() (reportsModel, tea.Cmd) {
	r.gen++
	r.months = nil
	r.cursor = 0
	r.loading = true
	r.shown = nil
	r.total = report.Total{}
	r.days = nil
	r.hasBar = false
	return r, loadMonths(r.store, r.gen)
}

// selected is the highlighted month, if any.
func (r reportsModel) selected() (store.Key, bool) {
	if r.cursor < 0 || r.cursor >= len(r.months) {
		return store.Key{}, false
	}
	return r.months[r.cursor], true
}

func (r reportsModel) showTotal() (reportsModel, tea.Cmd) {
	k, ok := r.selected()
	if !ok {
		return r, nil
	}
	return r, loadReport(r.store, k, r.layout, r.gen)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case monthsMsg:
		if msg.gen != r.gen {
			return r, nil
		}
		r.loading = false
		if msg.err != nil {
			return r, nil
		}
		r.months = msg.keys
		r.cursor = 0
		return r, nil

	case reportDataMsg:
		if msg.gen != r.gen || msg.err != nil {
			return r, nil
		}
		k := msg.key
		r.shown = &k
		r.total = msg.total
		r.days = msg.days
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(r.months)-1 {
				r.cursor++
			}
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	r.hasBar = len(r.days) > 0
	if !r.hasBar {
		return
	}

	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 30 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	bars := make([]barchart.BarData, 0, len(r.days))
	for _, d := range r.days {
		bars = append(bars, barchart.BarData{
			Label: d.Date.Format("02"),
			Values: []barchart.BarValue{{
				Name:  d.Date.Format(r.layout),
				Value: d.Hours(),
				Style: barStyle,
			}},
		})
	}
	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4
	title := titleStyle.Render("Report")

	var rows []string
	rows = append(rows, title, "")

	switch {
	case r.loading:
		rows = append(rows, mutedStyle.Render("  Loading months..."))
	case len(r.months) == 0:
		rows = append(rows, mutedStyle.Render("  No months recorded yet"))
	default:
		for i, k := range r.months {
			cursor := "  "
			style := normalItemStyle
			if i == r.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rows = append(rows, style.Render(cursor+k.Label()))
		}
	}

	if r.shown != nil {
		rows = append(rows, "", r.renderTotal())
		if r.hasBar {
			rows = append(rows, "", r.chart.View())
		}
	}

	rows = append(rows, "", mutedStyle.Render("  ↑/↓: choose month  enter: show total  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (r reportsModel) renderTotal() string {
	line := fmt.Sprintf("Hours worked in %s: %s h",
		r.shown.Label(), highlightStyle.Render(report.FormatHours(r.total.Hours(), r.sep)))
	lines := []string{titleStyle.Render(line)}
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %d sessions", r.total.Rows)))
	if n := len(r.total.Skipped); n > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d malformed rows skipped", n)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
