package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"PriceSentinel/internal/model"

	"github.com/robfig/cron/v3"
)

// DefaultJobName and DefaultPeriod describe the recurring price check.
const (
	DefaultJobName = "PriceUpdateWork"
	DefaultPeriod  = 12 * time.Hour
)

// RunFunc is one pass of a job; its outcome is recorded against the job.
type RunFunc func(ctx context.Context) model.Outcome

var (
	// ErrJobRunning is returned by RunNow when the job is already in progress.
	ErrJobRunning = errors.New("job is already running")
	// ErrStopped is returned by RunNow after Stop.
	ErrStopped = errors.New("scheduler stopped")
)

// Scheduler owns the recurring jobs. It guarantees that runs of the same job
// never overlap and keeps the first registration of a name.
type Scheduler struct {
	Cron   *cron.Cron
	States *StateStore
	Ctx    context.Context
	Now    func() time.Time

	mu      sync.Mutex
	entries map[string]*job
	stopped bool
	manual  sync.WaitGroup // RunNow calls; cron only tracks its own
}

type job struct {
	fn      RunFunc
	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, states *StateStore) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		States:  states,
		Ctx:     ctx,
		Now:     time.Now,
		entries: map[string]*job{},
	}
}

// Register schedules fn under name every period. Registration is idempotent:
// if the name is already registered in this process, or persisted from an
// earlier one, the existing schedule is kept and period is ignored. It reports
// whether a new schedule was created.
func (s *Scheduler) Register(name string, period time.Duration, fn RunFunc) (bool, error) {
	if period <= 0 {
		return false, fmt.Errorf("register %s: period must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		log.Printf("[INFO] job %s already registered, keeping existing schedule", name)
		return false, nil
	}

	created := false
	rec, ok := s.States.Get(name)
	if !ok || rec.Period <= 0 {
		rec = JobRecord{Name: name, Period: period, Anchor: s.Now()}
		if err := s.States.Put(rec); err != nil {
			return false, fmt.Errorf("register %s: save state: %w", name, err)
		}
		created = true
	} else if rec.Period != period {
		log.Printf("[INFO] job %s keeps persisted period %v (requested %v)", name, rec.Period, period)
	}

	j := &job{fn: fn}
	s.Cron.Schedule(anchoredSchedule{Anchor: rec.Anchor, Period: rec.Period}, cron.FuncJob(func() {
		_ = s.execute(name, j)
	}))
	s.entries[name] = j
	log.Printf("[INFO] job %s scheduled every %v, next run %s",
		name, rec.Period, anchoredSchedule{Anchor: rec.Anchor, Period: rec.Period}.Next(s.Now()).Format(time.RFC3339))
	return created, nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish, including
// those started through RunNow.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	<-s.Cron.Stop().Done()
	s.manual.Wait()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a registered job immediately in the caller's goroutine.
// It returns ErrJobRunning without running anything while another run of the
// job is in progress.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	j, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("job %q is not registered", name)
	}
	s.manual.Add(1)
	s.mu.Unlock()
	defer s.manual.Done()
	return s.execute(name, j)
}

// Next returns the next planned run of a job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	rec, ok := s.States.Get(name)
	if !ok {
		return time.Time{}, false
	}
	return anchoredSchedule{Anchor: rec.Anchor, Period: rec.Period}.Next(s.Now()), true
}

func (s *Scheduler) execute(name string, j *job) (err error) {
	if !j.running.TryLock() {
		log.Printf("[WARN] job %s still running, skipping", name)
		return fmt.Errorf("%s: %w", name, ErrJobRunning)
	}
	defer j.running.Unlock()

	outcome := model.OutcomeFailure
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] job %s panicked: %v", name, r)
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
		if outcome == model.OutcomeFailure {
			log.Printf("[ERROR] job %s failed, next attempt on schedule", name)
		}
		if merr := s.States.MarkRun(name, s.Now(), outcome); merr != nil {
			log.Printf("[ERROR] record job %s outcome: %v", name, merr)
		}
	}()

	log.Printf("[INFO] running job %s", name)
	outcome = j.fn(s.Ctx)
	return nil
}
