package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
)

// Update handles bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StageStartMsg:
		m.ensureStage(msg.Name)
		result := m.results[msg.Name]
		result.Status = model.StatusRunning
		m.results[msg.Name] = result
		return m, nil
	case StageCompleteMsg:
		name := msg.Result.Stage
		if name == "" {
			return m, nil
		}
		m.ensureStage(name)
		if !m.results[name].Completed() {
			m.done++
		}
		m.results[name] = msg.Result
		if msg.Result.Status == model.StatusFailed {
			m.failed = name
		}
		return m, nil
	case RollbackMsg:
		if msg.Err != nil {
			m.rollbackErr = msg.Err
			return m, nil
		}
		m.rolledBack = true
		for name, result := range m.results {
			if result.Status == model.StatusSuccess && m.reversible[name] {
				result.Status = model.StatusRolledBack
				m.results[name] = result
			}
		}
		return m, nil
	case DoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC && !m.cancelled {
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	}

	return m, nil
}
