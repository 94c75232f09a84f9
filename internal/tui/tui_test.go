package tui

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/worktimer/internal/store"
)

var t0 = time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)

// fakeNow is a manually advanced wall clock.
type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestStore(t *testing.T) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir(), store.CSVCodec{}, nil)
	require.NoError(t, err)
	return s
}

func newTestApp(t *testing.T, s store.Store, opts Options) (App, *fakeNow) {
	t.Helper()
	clk := &fakeNow{t: t0}
	opts.Now = clk.now
	a := NewApp(s, opts)
	a = send(t, a, tea.WindowSizeMsg{Width: 100, Height: 40})
	return a, clk
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	require.True(t, ok, "Update returned %T", m)
	return next, cmd
}

func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	a, _ = update(t, a, msg)
	return a
}

// run executes cmd and feeds its message back into the app.
func run(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	require.NotNil(t, cmd)
	return send(t, a, cmd())
}

// drain runs cmd and every command it leads to, feeding each message back
// into the app. Commands that do not answer promptly, such as ticks and
// cursor blinks, are dropped.
func drain(t *testing.T, a App, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "commands did not settle")
		msg, ok := runPrompt(queue[0])
		queue = queue[1:]
		if !ok {
			continue
		}
		if cmds, ok := asCmds(msg); ok {
			queue = append(queue, cmds...)
			continue
		}
		var next tea.Cmd
		a, next = update(t, a, msg)
		queue = append(queue, next)
	}
	return a
}

func runPrompt(cmd tea.Cmd) (tea.Msg, bool) {
	if cmd == nil {
		return nil, false
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, msg != nil
	case <-time.After(100 * time.Millisecond):
		return nil, false
	}
}

// asCmds unpacks batch and sequence messages.
func asCmds(msg tea.Msg) ([]tea.Cmd, bool) {
	if b, ok := msg.(tea.BatchMsg); ok {
		return b, true
	}
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice || v.Type().Elem() != reflect.TypeOf(tea.Cmd(nil)) {
		return nil, false
	}
	cmds := make([]tea.Cmd, v.Len())
	for i := range cmds {
		cmds[i], _ = v.Index(i).Interface().(tea.Cmd)
	}
	return cmds, true
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

// startFor runs the clock for d and leaves it running.
func startFor(t *testing.T, a App, clk *fakeNow, d time.Duration) App {
	t.Helper()
	a = send(t, a, keyRune('s'))
	clk.advance(d)
	return a
}

func saveRecord(t *testing.T, s store.Store, at time.Time, summary string, secs int64) {
	t.Helper()
	r, err := store.NewRecord(at, summary, secs, "")
	require.NoError(t, err)
	require.NoError(t, s.Commit(context.Background(), store.KeyFor(at, false), r))
}

// failingStore refuses every commit.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Commit(context.Context, store.Key, store.Record) error { return f.err }

// deadlineStore records whether commits carry a deadline.
type deadlineStore struct {
	store.Store
	hadDeadline *bool
}

func (d deadlineStore) Commit(ctx context.Context, k store.Key, r store.Record) error {
	_, *d.hadDeadline = ctx.Deadline()
	return d.Store.Commit(ctx, k, r)
}

// ============================================================
// Main screen
// ============================================================

func TestNewAppStartsOnMainScreen(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	assert.Equal(t, screenMain, a.screen)
	assert.False(t, a.clock.Running())
	assert.Equal(t, store.Key{Month: time.June}, a.monthKey)

	view := a.View()
	assert.Contains(t, view, "00:00:00")
	assert.Contains(t, view, "STOPPED")
	assert.Contains(t, view, "Hours worked in June:")
}

func TestViewBeforeWindowSize(t *testing.T) {
	a := NewApp(newTestStore(t), Options{})
	assert.Equal(t, "Loading...", a.View())
}

func TestInitLoadsMonthTotal(t *testing.T) {
	s := newTestStore(t)
	saveRecord(t, s, t0, "wrote report", 3661)

	a, _ := newTestApp(t, s, Options{})
	a = run(t, a, a.Init())
	assert.True(t, a.monthLoaded)
	assert.Equal(t, int64(3661), a.monthTotal.Seconds)
	assert.Contains(t, a.View(), "1,0169 h")
}

func TestInitEmptyMonth(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	a = run(t, a, a.Init())
	assert.True(t, a.monthLoaded)
	assert.Contains(t, a.View(), "0,0000 h")
}

func TestStartPauseResume(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})

	a, cmd := update(t, a, keyRune('s'))
	assert.NotNil(t, cmd, "start schedules a tick")
	assert.True(t, a.clock.Running())
	assert.Contains(t, a.View(), "RUNNING")

	clk.advance(90 * time.Second)
	a = send(t, a, keySpace)
	assert.False(t, a.clock.Running())
	assert.Equal(t, 90*time.Second, a.clock.Elapsed(clk.now()))
	assert.Contains(t, a.View(), "00:01:30")
	assert.Contains(t, a.View(), "PAUSED")

	// paused time is not counted
	clk.advance(time.Hour)
	a = send(t, a, keySpace)
	assert.True(t, a.clock.Running())
	clk.advance(30 * time.Second)
	assert.Equal(t, 2*time.Minute, a.clock.Elapsed(clk.now()))
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Minute)
	gen := a.tickGen

	a, cmd := update(t, a, keyRune('s'))
	assert.Nil(t, cmd)
	assert.Equal(t, gen, a.tickGen)
	assert.Equal(t, time.Minute, a.clock.Elapsed(clk.now()))
}

func TestPauseWhenStoppedIsNoop(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	a, cmd := update(t, a, keySpace)
	assert.Nil(t, cmd)
	assert.False(t, a.clock.Running())
}

func TestReset(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Minute)

	a = send(t, a, keyRune('x'))
	assert.False(t, a.clock.Running())
	assert.Equal(t, time.Duration(0), a.clock.Elapsed(clk.now()))
	assert.Equal(t, "Timer reset", a.status)
}

// ============================================================
// Ticks
// ============================================================

func TestTickReschedulesWhileRunning(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{TickInterval: 100 * time.Millisecond})
	a = startFor(t, a, clk, time.Second)

	_, cmd := update(t, a, tickMsg{gen: a.tickGen, time: clk.now()})
	assert.NotNil(t, cmd)
}

func TestStaleTickIsDropped(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Second)
	stale := a.tickGen

	a = send(t, a, keySpace) // pause
	_, cmd := update(t, a, tickMsg{gen: stale, time: clk.now()})
	assert.Nil(t, cmd)

	// resuming starts a new chain; the old one stays dead
	a = send(t, a, keySpace)
	assert.NotEqual(t, stale, a.tickGen)
	_, cmd = update(t, a, tickMsg{gen: stale, time: clk.now()})
	assert.Nil(t, cmd)
	_, cmd = update(t, a, tickMsg{gen: a.tickGen, time: clk.now()})
	assert.NotNil(t, cmd)
}

// ============================================================
// Saving a period
// ============================================================

func TestCommitWithNothingRecorded(t *testing.T) {
	s := newTestStore(t)
	a, _ := newTestApp(t, s, Options{})

	a = send(t, a, keyEnter)
	assert.Equal(t, screenMain, a.screen)
	assert.Equal(t, msgNothingToRecord, a.status)
	assert.Equal(t, statusWarn, a.statusKind)

	keys, err := s.Months(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCommitUnderOneSecond(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, 900*time.Millisecond)

	a = send(t, a, keyEnter)
	assert.Equal(t, screenMain, a.screen)
	assert.Equal(t, msgNothingToRecord, a.status)
	assert.True(t, a.clock.Running())
}

func TestCommitEntersSummaryAndPauses(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Hour)

	a = send(t, a, keyEnter)
	assert.Equal(t, screenSummary, a.screen)
	assert.False(t, a.clock.Running())
	require.NotNil(t, a.summary.form)

	clk.advance(10 * time.Minute)
	assert.Equal(t, time.Hour, a.clock.Elapsed(clk.now()), "typing time is not counted")
	assert.Contains(t, a.View(), "What did you work on?")
	assert.Contains(t, a.View(), "01:00:00")
}

func TestQuitKeyIsTypedIntoSummary(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Minute)
	a = send(t, a, keyEnter)

	a = send(t, a, keyRune('q'))
	assert.Equal(t, screenSummary, a.screen)
}

func TestCancelSummaryKeepsClock(t *testing.T) {
	s := newTestStore(t)
	a, clk := newTestApp(t, s, Options{})
	a = startFor(t, a, clk, 25*time.Minute)
	a = send(t, a, keyEnter)
	*a.summary.value = "draft"

	a = send(t, a, keyEsc)
	assert.Equal(t, screenMain, a.screen)
	assert.False(t, a.clock.Running())
	assert.Equal(t, 25*time.Minute, a.clock.Elapsed(clk.now()))
	assert.Nil(t, a.summary.form)
	assert.Empty(t, *a.summary.value)

	keys, err := s.Months(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSaveSession(t *testing.T) {
	s := newTestStore(t)
	a, clk := newTestApp(t, s, Options{})
	a = startFor(t, a, clk, 3661*time.Second)
	a = send(t, a, keyEnter)
	*a.summary.value = "  wrote report  "

	a, cmd := a.saveSession()
	assert.Equal(t, screenMain, a.screen)
	assert.Equal(t, "Period saved to 6.csv", a.status)
	assert.False(t, a.clock.Running())
	assert.Equal(t, time.Duration(0), a.clock.Elapsed(clk.now()))

	records, err := s.Load(context.Background(), store.Key{Month: time.June})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.Record{Date: "15/06/2026", Summary: "wrote report", Duration: "01:01:01"}, records[0])

	a = run(t, a, cmd)
	assert.Equal(t, int64(3661), a.monthTotal.Seconds)
	assert.Contains(t, a.View(), "1,0169 h")
}

func TestSaveThroughSummaryForm(t *testing.T) {
	s := newTestStore(t)
	a, clk := newTestApp(t, s, Options{})
	a = startFor(t, a, clk, 3661*time.Second)
	a = send(t, a, keyEnter)
	require.Equal(t, screenSummary, a.screen)

	a = send(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("wrote report")})
	a, cmd := update(t, a, keyEnter)
	a = drain(t, a, cmd)

	assert.Equal(t, screenMain, a.screen)
	assert.Equal(t, "Period saved to 6.csv", a.status)
	assert.Nil(t, a.summary.form)
	assert.Equal(t, time.Duration(0), a.clock.Elapsed(clk.now()))
	assert.True(t, a.monthLoaded)
	assert.Equal(t, int64(3661), a.monthTotal.Seconds)

	records, err := s.Load(context.Background(), store.Key{Month: time.June})
	require.NoError(t, err)
	assert.Equal(t, []store.Record{{Date: "15/06/2026", Summary: "wrote report", Duration: "01:01:01"}}, records)
}

func TestSaveSessionCommitHasDeadline(t *testing.T) {
	var hadDeadline bool
	a, clk := newTestApp(t, deadlineStore{Store: newTestStore(t), hadDeadline: &hadDeadline}, Options{})
	a = startFor(t, a, clk, time.Minute)
	a = send(t, a, keyEnter)

	a, _ = a.saveSession()
	assert.Equal(t, "Period saved to 6", a.status)
	assert.True(t, hadDeadline)
}

func TestTwoSavesConcatenate(t *testing.T) {
	s := newTestStore(t)
	a, clk := newTestApp(t, s, Options{})

	for _, d := range []time.Duration{time.Hour, 30 * time.Minute} {
		a = startFor(t, a, clk, d)
		a = send(t, a, keyEnter)
		var cmd tea.Cmd
		a, cmd = a.saveSession()
		a = run(t, a, cmd)
	}

	records, err := s.Load(context.Background(), store.Key{Month: time.June})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "01:00:00", records[0].Duration)
	assert.Equal(t, "00:30:00", records[1].Duration)
	assert.Contains(t, a.View(), "1,5000 h")
}

func TestSaveSessionByYear(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{KeyByYear: true})
	a = startFor(t, a, clk, time.Minute)
	a = send(t, a, keyEnter)

	a, _ = a.saveSession()
	assert.Equal(t, "Period saved to 2026-06.csv", a.status)
	assert.Equal(t, store.Key{Year: 2026, Month: time.June}, a.monthKey)
}

func TestSaveSessionStoreErrorKeepsClock(t *testing.T) {
	s := failingStore{Store: newTestStore(t), err: errors.New("disk full")}
	a, clk := newTestApp(t, s, Options{})
	a = startFor(t, a, clk, time.Hour)
	a = send(t, a, keyEnter)

	a, cmd := a.saveSession()
	assert.Nil(t, cmd)
	assert.Equal(t, screenMain, a.screen)
	assert.Equal(t, statusError, a.statusKind)
	assert.Contains(t, a.status, "disk full")
	assert.Equal(t, time.Hour, a.clock.Elapsed(clk.now()))
}

// ============================================================
// Report screen
// ============================================================

func openReport(t *testing.T, a App) App {
	t.Helper()
	a, cmd := update(t, a, keyRune('r'))
	require.Equal(t, screenReport, a.screen)
	return run(t, a, cmd)
}

func TestReportShowsTotal(t *testing.T) {
	s := newTestStore(t)
	may := time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)
	saveRecord(t, s, may, "planning", 1800)
	saveRecord(t, s, t0, "wrote report", 3600)
	saveRecord(t, s, t0.Add(24*time.Hour), "review", 1800)

	a, _ := newTestApp(t, s, Options{})
	a = openReport(t, a)
	require.Len(t, a.reports.months, 2)
	k, ok := a.reports.selected()
	require.True(t, ok, "first month is preselected")
	assert.Equal(t, store.Key{Month: time.May}, k)

	a = send(t, a, keyDown)
	a, cmd := update(t, a, keyEnter)
	a = run(t, a, cmd)

	require.NotNil(t, a.reports.shown)
	assert.Equal(t, int64(5400), a.reports.total.Seconds)
	assert.Len(t, a.reports.days, 2)
	view := a.View()
	assert.Contains(t, view, "Hours worked in June:")
	assert.Contains(t, view, "1,5000")
}

func TestReportCountsSkippedRows(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, store.CSVCodec{}.WriteRows(s.Path(store.Key{Month: time.June}), [][]string{
		{"date", "summary", "duration"},
		{"01/06/2026", "ok", "01:00:00"},
		{"02/06/2026", "broken", "one hour"},
	}))

	a, _ := newTestApp(t, s, Options{})
	a = openReport(t, a)
	a, cmd := update(t, a, keyEnter)
	a = run(t, a, cmd)

	assert.Equal(t, int64(3600), a.reports.total.Seconds)
	assert.Len(t, a.reports.total.Skipped, 1)
	assert.Contains(t, a.View(), "1 malformed rows skipped")
}

func TestReportWithoutMonths(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	a = openReport(t, a)
	assert.Contains(t, a.View(), "No months recorded yet")

	a, cmd := update(t, a, keyEnter)
	assert.Nil(t, cmd)
	assert.Equal(t, msgSelectMonth, a.status)
	assert.Equal(t, statusWarn, a.statusKind)
}

func TestReportReopenClearsResult(t *testing.T) {
	s := newTestStore(t)
	saveRecord(t, s, t0, "", 60)

	a, _ := newTestApp(t, s, Options{})
	a = openReport(t, a)
	a, cmd := update(t, a, keyEnter)
	a = run(t, a, cmd)
	require.NotNil(t, a.reports.shown)

	a = send(t, a, keyEsc)
	assert.Equal(t, screenMain, a.screen)

	a = openReport(t, a)
	assert.Nil(t, a.reports.shown)
}

func TestReportDropsResultFromEarlierOpening(t *testing.T) {
	s := newTestStore(t)
	saveRecord(t, s, t0, "", 3600)

	a, _ := newTestApp(t, s, Options{})
	a = openReport(t, a)
	a, late := update(t, a, keyEnter)
	require.NotNil(t, late)

	a = send(t, a, keyEsc)
	a, reopen := update(t, a, keyRune('r'))
	a = run(t, a, late)
	assert.Nil(t, a.reports.shown)
	assert.NotContains(t, a.View(), "Hours worked in June:")

	// a months list from the earlier opening is dropped too
	a = send(t, a, monthsMsg{gen: a.reports.gen - 1, keys: []store.Key{{Month: time.May}}})
	assert.True(t, a.reports.loading)

	a = run(t, a, reopen)
	require.Len(t, a.reports.months, 1)
	assert.Equal(t, store.Key{Month: time.June}, a.reports.months[0])
}

func TestReportKeepsClockRunning(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Minute)
	a = openReport(t, a)
	assert.True(t, a.clock.Running())

	_, cmd := update(t, a, tickMsg{gen: a.tickGen, time: clk.now()})
	assert.NotNil(t, cmd)
	assert.Contains(t, a.View(), "00:01:00")
}

// ============================================================
// Global keys
// ============================================================

func TestQuit(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	_, cmd := update(t, a, keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCtrlCQuitsFromSummary(t *testing.T) {
	a, clk := newTestApp(t, newTestStore(t), Options{})
	a = startFor(t, a, clk, time.Minute)
	a = send(t, a, keyEnter)

	_, cmd := update(t, a, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHelpToggle(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	a = send(t, a, keyRune('?'))
	assert.True(t, a.showHelp)
	assert.True(t, a.help.ShowAll)
	assert.Contains(t, a.View(), "reset")

	a = send(t, a, keyRune('?'))
	assert.False(t, a.showHelp)
}

func TestStatusMsg(t *testing.T) {
	a, _ := newTestApp(t, newTestStore(t), Options{})
	a = send(t, a, statusMsg{text: "hello", kind: statusError})
	assert.Equal(t, "hello", a.status)
	assert.Contains(t, a.View(), "hello")
}
