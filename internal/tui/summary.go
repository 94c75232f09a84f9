package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const summaryCharLimit = 500

// summaryModel asks what the period was spent on before it is saved.
type summaryModel struct {
	width int

	form *huh.Form
	// Form value as a pointer (survives value copies)
	value *string
}

func newSummaryModel() summaryModel {
	v := ""
	return summaryModel{value: &v}
}

func (s *summaryModel) setSize(w int) {
	s.width = w
	if s.form != nil {
		s.form = s.form.WithWidth(s.formWidth())
	}
}

func (s summaryModel) formWidth() int {
	return max(s.width-10, 20)
}

func (s summaryModel) open() (summaryModel, tea.Cmd) {
	*s.value = ""
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What did you work on?").
				Placeholder("summary of the period").
				CharLimit(summaryCharLimit).
				Value(s.value),
		),
	).WithShowHelp(false).WithWidth(s.formWidth())
	return s, s.form.Init()
}

func (s summaryModel) close() summaryModel {
	s.form = nil
	*s.value = ""
	return s
}

func (s summaryModel) text() string {
	return strings.TrimSpace(*s.value)
}

func (s summaryModel) update(msg tea.Msg) (summaryModel, tea.Cmd) {
	if s.form == nil {
		return s, nil
	}
	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	return s, cmd
}

func (s summaryModel) completed() bool {
	return s.form != nil && s.form.State == huh.StateCompleted
}

func (s summaryModel) aborted() bool {
	return s.form != nil && s.form.State == huh.StateAborted
}

func (s summaryModel) view(elapsed string) string {
	w := s.width - 4
	title := titleStyle.Render("Save period")
	info := mutedStyle.Render("Elapsed ") + highlightStyle.Render(elapsed)

	formView := ""
	if s.form != nil {
		formView = s.form.View()
	}
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, info, "", formView),
	)
}
