package recorder

import "PriceSentinel/internal/model"

// Recorder keeps an audit trail of monitoring runs. It stores run outcomes
// and counters only, never prices.
type Recorder interface {
	RecordRun(report *model.RunReport) error
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}

// RunRecord is a persisted run summary.
type RunRecord struct {
	ID         string
	Trigger    model.TriggerType
	StartedAt  int64 // unix ms
	FinishedAt int64 // unix ms
	Outcome    model.Outcome
	Total      int
	Checked    int
	Notified   int
	Skipped    int
	Failed     int
	Error      string
}
