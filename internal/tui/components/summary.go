package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates what the summary needs to know about a run.
type SummaryData struct {
	Total      int
	Done       int
	Finished   bool
	Cancelled  bool
	Failed     string
	RolledBack bool
	// RollbackErr is the cleanup failure, if any.
	RollbackErr error
}

// Summary renders the closing lines of a run.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary. It is empty while the run is in progress.
func (s Summary) View() string {
	if !s.data.Finished {
		return ""
	}

	var lines []string
	switch {
	case s.data.Cancelled:
		lines = append(lines, "Cancelled")
	case s.data.Failed != "":
		lines = append(lines, fmt.Sprintf("Stage %s failed", s.data.Failed))
	default:
		lines = append(lines, fmt.Sprintf("All %d stages completed", s.data.Total))
	}

	if s.data.RolledBack {
		lines = append(lines, "Project directory removed")
	}
	if s.data.RollbackErr != nil {
		lines = append(lines, fmt.Sprintf("Cleanup failed: %v", s.data.RollbackErr))
	}

	return strings.Join(lines, "\n")
}
