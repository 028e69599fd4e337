package model

import "time"

// RunState is the orchestrator's lifecycle state.
type RunState string

const (
	StateIdle    RunState = "IDLE"
	StateRunning RunState = "RUNNING"
)

// Outcome is what a finished run reports back to its scheduler.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// TriggerType indicates what started a run.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerManual    TriggerType = "MANUAL"
)

// RunReport summarises one pass over the tracked products.
type RunReport struct {
	ID         string
	Trigger    TriggerType
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Total      int // products in the snapshot
	Checked    int // fetched and compared
	Notified   int
	Skipped    int // unparseable prices
	Failed     int // fetch or delivery errors
	Err        error
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
