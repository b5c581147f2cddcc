package model

import (
	"time"
)

const (
	// StatusPending indicates a stage has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a stage is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a successful stage execution.
	StatusSuccess = "success"
	// StatusSkipped indicates the stage had nothing to do.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during stage execution.
	StatusFailed = "failed"
	// StatusRolledBack marks a stage whose output was removed by rollback.
	StatusRolledBack = "rolled_back"
)

// StageResult captures the outcome of executing a single pipeline stage.
type StageResult struct {
	Stage     string
	Status    string
	Message   string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// Completed reports whether the stage reached a terminal status.
func (r StageResult) Completed() bool {
	switch r.Status {
	case StatusSuccess, StatusSkipped, StatusFailed, StatusRolledBack:
		return true
	default:
		return false
	}
}
