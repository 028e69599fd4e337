package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PriceSentinel/internal/model"
)

// JobRecord is the persisted registration of a recurring job.
type JobRecord struct {
	Name        string        `json:"name"`
	Period      time.Duration `json:"period"`
	Anchor      time.Time     `json:"anchor"`
	LastRunAt   time.Time     `json:"last_run_at,omitempty"`
	LastOutcome model.Outcome `json:"last_outcome,omitempty"`
}

// JobState is the on-disk document.
type JobState struct {
	Jobs      map[string]*JobRecord `json:"jobs"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// LoadState reads job state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*JobState, error) {
	state := &JobState{Jobs: map[string]*JobRecord{}}
	if filePath == "" {
		return state, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if state.Jobs == nil {
		state.Jobs = map[string]*JobRecord{}
	}
	return state, nil
}

// SaveState writes job state to a JSON file via a temp file and rename.
func SaveState(filePath string, state *JobState) error {
	if filePath == "" {
		return nil
	}
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}

// StateStore guards the job state and saves it after every change.
// An empty path keeps state in memory only.
type StateStore struct {
	mu       sync.Mutex
	state    *JobState
	filePath string
}

// OpenStateStore loads (or initialises) job state from filePath.
func OpenStateStore(filePath string) (*StateStore, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load job state: %w", err)
	}
	return &StateStore{state: state, filePath: filePath}, nil
}

// Get returns a copy of the named job's record.
func (s *StateStore) Get(name string) (JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.Jobs[name]
	if !ok {
		return JobRecord{}, false
	}
	return *rec, true
}

// Put stores a registration.
func (s *StateStore) Put(rec JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := rec
	s.state.Jobs[rec.Name] = &cp
	return SaveState(s.filePath, s.state)
}

// MarkRun records the outcome of the latest run of a job.
func (s *StateStore) MarkRun(name string, at time.Time, outcome model.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.Jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	rec.LastRunAt = at
	rec.LastOutcome = outcome
	return SaveState(s.filePath, s.state)
}
