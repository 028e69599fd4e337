package scheduler

import "time"

// anchoredSchedule fires every Period starting from Anchor. Keeping the anchor
// across restarts preserves an existing job's cadence instead of resetting it.
type anchoredSchedule struct {
	Anchor time.Time
	Period time.Duration
}

// Next implements cron.Schedule. A zero time means the job never fires.
func (a anchoredSchedule) Next(t time.Time) time.Time {
	if a.Period <= 0 {
		return time.Time{}
	}
	if t.Before(a.Anchor) {
		return a.Anchor
	}
	n := t.Sub(a.Anchor)/a.Period + 1
	return a.Anchor.Add(n * a.Period)
}
