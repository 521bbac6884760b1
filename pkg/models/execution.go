package models

import "time"

// ExecutionStatus represents the state of a run attempt.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed" // Declared, never produced by the run stub
)

// IsTerminal reports whether no further transition is allowed from the status.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSucceeded || s == ExecutionStatusFailed
}

// ExecutionRecord is the record of one run attempt against a workflow version.
type ExecutionRecord struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflow_id"`
	Version    int             `json:"version"`
	Status     ExecutionStatus `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	DurationMs *int64          `json:"duration_ms"`
}

// Finish moves a running record to the given terminal status and computes its duration.
func (r *ExecutionRecord) Finish(status ExecutionStatus, finishedAt time.Time) {
	durationMs := finishedAt.Sub(r.StartedAt).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	r.Status = status
	r.FinishedAt = &finishedAt
	r.DurationMs = &durationMs
}
