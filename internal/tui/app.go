package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worktimer/internal/clock"
	"github.com/sadopc/worktimer/internal/logging"
	"github.com/sadopc/worktimer/internal/report"
	"github.com/sadopc/worktimer/internal/store"
)

const (
	msgNothingToRecord = "Nothing to record yet"
	msgSelectMonth     = "Select a month first"
)

// Options tunes the App. Zero values fall back to defaults.
type Options struct {
	KeyByYear        bool
	DateLayout       string
	DecimalSeparator string
	TickInterval     time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

// App is the root Bubble Tea model. It is a value: Update returns the next
// state and the program holds the only copy.
type App struct {
	store  store.Store
	opts   Options
	now    func() time.Time
	logger *slog.Logger
	width  int
	height int

	screen  screen
	clock   clock.Clock
	tickGen int

	monthKey    store.Key
	monthTotal  report.Total
	monthLoaded bool

	summary summaryModel
	reports reportsModel

	help       help.Model
	showHelp   bool
	status     string
	statusKind statusKind
}

func NewApp(s store.Store, opts Options) App {
	if opts.DateLayout == "" {
		opts.DateLayout = store.DefaultDateLayout
	}
	if opts.DecimalSeparator == "" {
		opts.DecimalSeparator = ","
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	h := help.New()
	h.ShowAll = false

	return App{
		store:    s,
		opts:     opts,
		now:      now,
		logger:   logger.With("component", logging.ComponentTUI),
		screen:   screenMain,
		clock:    clock.New(),
		monthKey: store.KeyFor(now(), opts.KeyByYear),
		summary:  newSummaryModel(),
		reports:  newReportsModel(s, opts.DateLayout, opts.DecimalSeparator),
		help:     h,
	}
}

func (a App) Init() tea.Cmd {
	return loadMonthTotal(a.store, a.monthKey)
}

func (a App) tick() tea.Cmd {
	gen := a.tickGen
	return tea.Tick(a.opts.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, time: t}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.summary.setSize(a.width)
		a.reports.setSize(a.width, contentHeight)
		return a, nil

	case tickMsg:
		if msg.gen != a.tickGen || !a.clock.Running() {
			return a, nil
		}
		return a, a.tick()

	case statusMsg:
		a.status = msg.text
		a.statusKind = msg.kind
		return a, nil

	case monthTotalMsg:
		if msg.err != nil {
			a.logger.Error("load month total", "table", msg.key.String(), "error", msg.err)
			return a.setStatus(fmt.Sprintf("Could not read %s: %v", msg.key.Label(), msg.err), statusError), nil
		}
		if msg.key != a.monthKey {
			return a, nil
		}
		a.monthTotal = msg.total
		a.monthLoaded = true
		return a, nil

	case monthsMsg:
		if msg.gen != a.reports.gen {
			return a, nil
		}
		if msg.err != nil {
			a.logger.Error("list months", "error", msg.err)
			a = a.setStatus(fmt.Sprintf("Could not list months: %v", msg.err), statusError)
		}
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case reportDataMsg:
		if msg.gen != a.reports.gen {
			return a, nil
		}
		if msg.err != nil {
			a.logger.Error("load report", "table", msg.key.String(), "error", msg.err)
			return a.setStatus(fmt.Sprintf("Could not read %s: %v", msg.key.Label(), msg.err), statusError), nil
		}
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Abort) {
			return a, tea.Quit
		}
		// The summary form captures every other key.
		if a.screen == screenSummary {
			return a.updateSummary(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		}
		if a.screen == screenReport {
			return a.updateReport(msg)
		}
		return a.updateMain(msg)
	}

	if a.screen == screenSummary {
		return a.updateSummary(msg)
	}
	return a, nil
}

func (a App) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := a.now()
	switch {
	case key.Matches(msg, keys.Start):
		if a.clock.Running() {
			return a, nil
		}
		return a.startClock(now)

	case key.Matches(msg, keys.Pause):
		if a.clock.Running() {
			a = a.pauseClock(now)
			return a.setStatus("Timer paused", statusInfo), nil
		}
		if a.clock.Elapsed(now) > 0 {
			return a.startClock(now)
		}
		return a, nil

	case key.Matches(msg, keys.Reset):
		a.clock = a.clock.Reset()
		a.tickGen++
		a.logger.Debug("clock reset")
		return a.setStatus("Timer reset", statusInfo), nil

	case key.Matches(msg, keys.Commit):
		if a.clock.Seconds(now) < 1 {
			return a.setStatus(msgNothingToRecord, statusWarn), nil
		}
		a = a.pauseClock(now)
		a.screen = screenSummary
		a.status = ""
		var cmd tea.Cmd
		a.summary, cmd = a.summary.open()
		a.logger.Debug("entering summary", "elapsed", clock.Format(a.clock.Elapsed(now)))
		return a, cmd

	case key.Matches(msg, keys.Report):
		a.screen = screenReport
		a.status = ""
		var cmd tea.Cmd
		a.reports, cmd = a.reports.open()
		a.logger.Debug("report opened")
		return a, cmd
	}
	return a, nil
}

func (a App) startClock(now time.Time) (App, tea.Cmd) {
	a.clock = a.clock.Start(now)
	a.tickGen++
	a.logger.Debug("clock started", "elapsed", clock.Format(a.clock.Elapsed(now)))
	return a.setStatus("Timer started", statusInfo), a.tick()
}

// pauseClock stops the tick chain along with the clock.
func (a App) pauseClock(now time.Time) App {
	if a.clock.Running() {
		a.clock = a.clock.Pause(now)
		a.tickGen++
		a.logger.Debug("clock paused", "elapsed", clock.Format(a.clock.Elapsed(now)))
	}
	return a
}

func (a App) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, keys.Back) {
		return a.cancelSummary(), nil
	}

	var cmd tea.Cmd
	a.summary, cmd = a.summary.update(msg)
	switch {
	case a.summary.completed():
		return a.saveSession()
	case a.summary.aborted():
		return a.cancelSummary(), nil
	}
	return a, cmd
}

func (a App) cancelSummary() App {
	a.summary = a.summary.close()
	a.screen = screenMain
	a.logger.Debug("summary cancelled")
	return a.setStatus("Save cancelled", statusInfo)
}

// saveSession appends the paused period to the current month's table. The
// clock is only reset once the row is stored.
func (a App) saveSession() (App, tea.Cmd) {
	now := a.now()
	text := a.summary.text()
	a.summary = a.summary.close()
	a.screen = screenMain

	rec, err := store.NewRecord(now, text, a.clock.Seconds(now), a.opts.DateLayout)
	if err != nil {
		return a.setStatus(msgNothingToRecord, statusWarn), nil
	}
	k := store.KeyFor(now, a.opts.KeyByYear)
	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	if err := a.store.Commit(ctx, k, rec); err != nil {
		a.logger.Error("commit session", "table", k.String(), "error", err)
		return a.setStatus(fmt.Sprintf("Save failed: %v", err), statusError), nil
	}

	a.clock = a.clock.Reset()
	a.tickGen++
	a.monthKey = k
	a.monthLoaded = false
	a.logger.Info("period saved", "table", k.String(), "duration", rec.Duration)
	a = a.setStatus("Period saved to "+store.TableName(a.store, k), statusInfo)
	return a, loadMonthTotal(a.store, k)
}

func (a App) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		a.screen = screenMain
		a.status = ""
		return a, nil
	case key.Matches(msg, keys.Enter):
		if _, ok := a.reports.selected(); !ok {
			return a.setStatus(msgSelectMonth, statusWarn), nil
		}
		a.status = ""
		var cmd tea.Cmd
		a.reports, cmd = a.reports.showTotal()
		return a, cmd
	}
	var cmd tea.Cmd
	a.reports, cmd = a.reports.update(msg)
	return a, cmd
}

func (a App) setStatus(text string, kind statusKind) App {
	a.status = text
	a.statusKind = kind
	return a
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.screen {
	case screenSummary:
		content = a.summary.view(clock.Format(a.clock.Elapsed(a.now())))
	case screenReport:
		content = a.reports.view()
	default:
		content = a.mainView()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range screenNames {
		if screen(i) == a.screen {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("worktimer")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys.forScreen(a.screen))

	status := ""
	if a.status != "" {
		switch a.statusKind {
		case statusError:
			status = errorStyle.Render(" " + a.status)
		case statusWarn:
			status = warningStyle.Render(" " + a.status)
		default:
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Clock indicator outside the main screen
	clockInfo := ""
	if a.screen != screenMain {
		elapsed := clock.Format(a.clock.Elapsed(a.now()))
		if a.clock.Running() {
			clockInfo = successStyle.Render(" ● " + elapsed)
		} else if a.clock.Elapsed(a.now()) > 0 {
			clockInfo = warningStyle.Render(" ⏸ " + elapsed)
		}
	}

	left := footerStyle.Render(helpView)
	right := clockInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
