// Package tui renders provisioning progress with bubbletea.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/model"
	"github.com/alexisbeaulieu97/create-enfyra-be/internal/pipeline"
)

// StageStartMsg indicates a stage has started.
type StageStartMsg struct {
	Name string
}

// StageCompleteMsg reports a finished stage.
type StageCompleteMsg struct {
	Result model.StageResult
}

// RollbackMsg reports the outcome of the rollback after a failure.
type RollbackMsg struct {
	Err error
}

// DoneMsg is sent once the pipeline returned.
type DoneMsg struct {
	Err error
}

// Model is the bubbletea state of one provisioning run.
type Model struct {
	title       string
	order       []string
	titles      map[string]string
	results     map[string]model.StageResult
	reversible  map[string]bool
	spinner     spinner.Model
	done        int
	failed      string
	rolledBack  bool
	rollbackErr error
	finished    bool
	cancelled   bool
	// cancel aborts the running pipeline when the operator presses ctrl+c.
	cancel      func()
}

// NewModel tracks stages in order. cancel may be nil.
func NewModel(title string, stages []pipeline.Stage, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	m := Model{
		title:      title,
		order:      make([]string, 0, len(stages)),
		titles:     make(map[string]string, len(stages)),
		results:    make(map[string]model.StageResult, len(stages)),
		reversible: make(map[string]bool, len(stages)),
		spinner:    s,
		cancel:     cancel,
	}
	for _, stage := range stages {
		m.order = append(m.order, stage.Name)
		m.titles[stage.Name] = stage.Title
		m.reversible[stage.Name] = stage.Reversible
		m.results[stage.Name] = model.StageResult{Stage: stage.Name, Status: model.StatusPending}
	}
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// TotalStages returns the number of tracked stages.
func (m Model) TotalStages() int {
	return len(m.order)
}

// DoneStages returns the number of stages that reached a terminal status.
func (m Model) DoneStages() int {
	return m.done
}

// IsFinished reports whether the run is over.
func (m Model) IsFinished() bool {
	return m.finished
}

// Result returns the latest result recorded for stage.
func (m Model) Result(stage string) model.StageResult {
	return m.results[stage]
}

func (m *Model) ensureStage(name string) {
	if name == "" {
		return
	}
	if _, exists := m.results[name]; !exists {
		m.results[name] = model.StageResult{Stage: name, Status: model.StatusPending}
		m.order = append(m.order, name)
	}
}

// FromEvent converts a pipeline event into the matching message.
func FromEvent(event pipeline.Event) tea.Msg {
	switch event.Type {
	case pipeline.EventStageStarted:
		return StageStartMsg{Name: event.Stage}
	case pipeline.EventStageCompleted:
		return StageCompleteMsg{Result: model.StageResult{Stage: event.Stage, Status: model.StatusSuccess, Duration: event.Duration}}
	case pipeline.EventStageSkipped:
		return StageCompleteMsg{Result: model.StageResult{Stage: event.Stage, Status: model.StatusSkipped, Message: event.Message, Duration: event.Duration}}
	case pipeline.EventStageFailed:
		return StageCompleteMsg{Result: model.StageResult{Stage: event.Stage, Status: model.StatusFailed, Error: event.Err, Duration: event.Duration}}
	case pipeline.EventRollbackCompleted:
		return RollbackMsg{}
	case pipeline.EventRollbackFailed:
		return RollbackMsg{Err: event.Err}
	default:
		return nil
	}
}
