package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"PriceSentinel/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer r.Close()

	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	ok := &model.RunReport{
		ID: uuid.NewString(), Trigger: model.TriggerScheduled,
		StartedAt: start, FinishedAt: start.Add(3 * time.Second),
		Outcome: model.OutcomeSuccess, Total: 3, Checked: 2, Notified: 1, Failed: 1,
	}
	failed := &model.RunReport{
		ID: uuid.NewString(), Trigger: model.TriggerManual,
		StartedAt: start.Add(time.Hour), FinishedAt: start.Add(time.Hour),
		Outcome: model.OutcomeFailure, Err: errors.New("store unavailable"),
	}
	require.NoError(t, r.RecordRun(ok))
	require.NoError(t, r.RecordRun(failed))

	runs, err := r.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, failed.ID, runs[0].ID)
	assert.Equal(t, model.OutcomeFailure, runs[0].Outcome)
	assert.Equal(t, model.TriggerManual, runs[0].Trigger)
	assert.Equal(t, "store unavailable", runs[0].Error)

	assert.Equal(t, ok.ID, runs[1].ID)
	assert.Equal(t, 3, runs[1].Total)
	assert.Equal(t, 2, runs[1].Checked)
	assert.Equal(t, 1, runs[1].Notified)
	assert.Equal(t, 1, runs[1].Failed)
	assert.Equal(t, start.UnixMilli(), runs[1].StartedAt)

	runs, err = r.RecentRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNoopRecorder(t *testing.T) {
	r := NewNoopRecorder()
	assert.NoError(t, r.RecordRun(&model.RunReport{}))
	runs, err := r.RecentRuns(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}
