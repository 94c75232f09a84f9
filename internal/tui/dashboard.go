package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/worktimer/internal/clock"
	"github.com/sadopc/worktimer/internal/report"
)

// Main screen: the running clock and the current month's total.

func (a App) mainView() string {
	if a.width < 20 {
		return "Terminal too small"
	}
	w := a.width - 4
	return lipgloss.JoinVertical(lipgloss.Left, a.renderClockPanel(w), a.renderMonthPanel(w))
}

func (a App) renderClockPanel(w int) string {
	elapsed := a.clock.Elapsed(a.now())
	timeStr := clock.Format(elapsed)

	switch {
	case a.clock.Running():
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerRunningStyle.Width(w-6).Render(timeStr),
			successStyle.Render("●  RUNNING"),
		)
		return activePanelStyle.Width(w).Render(content)

	case elapsed > 0:
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerPausedStyle.Width(w-6).Render(timeStr),
			warningStyle.Render("⏸  PAUSED"),
			mutedStyle.Render("Press space to resume, enter to save"),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render(timeStr),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start tracking"),
	)
	return panelStyle.Width(w).Render(content)
}

func (a App) renderMonthPanel(w int) string {
	hours := "…"
	if a.monthLoaded {
		hours = report.FormatHours(a.monthTotal.Hours(), a.opts.DecimalSeparator)
	}
	line := fmt.Sprintf("%s  %s",
		titleStyle.Render("Hours worked in "+a.monthKey.Label()+":"),
		highlightStyle.Render(hours+" h"))

	rows := []string{line}
	if n := len(a.monthTotal.Skipped); n > 0 {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("%d malformed rows skipped", n)))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
