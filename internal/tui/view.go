package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	sections := []string{titleStyle.Render(m.title)}

	entries := components.NewStageList(m.order, m.titles, m.results).Entries()
	if len(entries) > 0 {
		sections = append(sections, m.renderEntries(entries))
	}

	sections = append(sections, components.NewProgress(len(m.order)).View(m.done))

	summary := components.NewSummary(components.SummaryData{
		Total:       len(m.order),
		Done:        m.done,
		Finished:    m.finished,
		Cancelled:   m.cancelled,
		Failed:      m.failed,
		RolledBack:  m.rolledBack,
		RollbackErr: m.rollbackErr,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, summaryStyle.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderEntries(entries []components.StageEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		res := entry.Result
		icon := StatusIcon(res.Status)
		if res.Status == model.StatusRunning && !m.finished {
			icon = m.spinner.View()
		}
		line := fmt.Sprintf(" %s %s", icon, entry.Title)
		if res.Status == model.StatusSkipped && strings.TrimSpace(res.Message) != "" {
			line = fmt.Sprintf("%s %s", line, skippedStyle.Render("("+res.Message+")"))
		}
		if res.Duration > 0 && res.Completed() {
			line = fmt.Sprintf("%s %s", line, pendingStyle.Render(res.Duration.Truncate(10*time.Millisecond).String()))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// StatusIcon returns the glyph representing a stage status.
func StatusIcon(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✓")
	case model.StatusRunning:
		return runningStyle.Render("⏳")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	case model.StatusRolledBack:
		return skippedStyle.Render("↺")
	default:
		return pendingStyle.Render("…")
	}
}
