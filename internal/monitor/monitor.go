package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/store"
	"PriceSentinel/internal/strategy"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Monitor checks every tracked product against its baseline and hands price
// drops to the notifier. Scheduled runs never touch the stored baseline.
type Monitor struct {
	Store    store.Store
	Fetcher  collector.Fetcher
	Notifier notifier.Sink
	Recorder recorder.Recorder
	Workers  int // concurrent fetches per run; 1 keeps snapshot order
	Now      func() time.Time

	state atomic.Value // model.RunState
	last  atomic.Pointer[model.RunReport]
}

// New creates a Monitor with sequential processing and a no-op recorder.
func New(st store.Store, f collector.Fetcher, sink notifier.Sink) *Monitor {
	m := &Monitor{
		Store:    st,
		Fetcher:  f,
		Notifier: sink,
		Recorder: recorder.NewNoopRecorder(),
		Workers:  1,
		Now:      time.Now,
	}
	m.state.Store(model.StateIdle)
	return m
}

// State reports whether a run is in progress.
func (m *Monitor) State() model.RunState {
	if s, ok := m.state.Load().(model.RunState); ok {
		return s
	}
	return model.StateIdle
}

// LastReport returns the report of the most recent finished run, or nil.
func (m *Monitor) LastReport() *model.RunReport {
	return m.last.Load()
}

// itemResult is how a single product's check ended.
type itemResult int

const (
	itemUnchanged itemResult = iota
	itemNotified
	itemSkipped
	itemFailed
)

// Run performs one pass over the current snapshot. Only a failure to read the
// snapshot makes the run fail; per-product errors are logged and counted.
func (m *Monitor) Run(ctx context.Context, trigger model.TriggerType) *model.RunReport {
	m.state.Store(model.StateRunning)
	defer m.state.Store(model.StateIdle)

	report := &model.RunReport{ID: uuid.NewString(), Trigger: trigger, StartedAt: m.now()}
	log.Printf("[INFO] run %s started (%s)", report.ID, trigger)

	products, err := m.Store.ListOnce(ctx)
	if err != nil {
		report.Outcome = model.OutcomeFailure
		report.Err = fmt.Errorf("read products: %w", err)
		log.Printf("[ERROR] run %s: %v", report.ID, report.Err)
		m.finish(report)
		return report
	}
	report.Total = len(products)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(m.workers())
	for _, p := range products {
		p := p
		g.Go(func() error {
			res := m.checkProduct(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			switch res {
			case itemUnchanged:
				report.Checked++
			case itemNotified:
				report.Checked++
				report.Notified++
			case itemSkipped:
				report.Skipped++
			case itemFailed:
				report.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Outcome = model.OutcomeSuccess
	m.finish(report)
	return report
}

func (m *Monitor) checkProduct(ctx context.Context, p model.Product) itemResult {
	quote, err := m.Fetcher.FetchPrice(ctx, p.URL)
	if err != nil {
		log.Printf("[ERROR] check %s: %v", p.URL, err)
		return itemFailed
	}

	decision, err := strategy.Evaluate(p.Price, quote.Price)
	if err != nil {
		log.Printf("[WARN] check %s: skipping, %v", p.URL, err)
		return itemSkipped
	}
	log.Printf("[INFO] checked %s: current %s, baseline %s", p.Name, decision.NewPrice, decision.OldPrice)
	if !decision.Notify {
		return itemUnchanged
	}

	alert := notifier.FormatDropAlert(p, quote, decision)
	if err := m.Notifier.Notify(ctx, alert); err != nil {
		log.Printf("[ERROR] notify %s: %v", p.URL, err)
		return itemFailed
	}
	log.Printf("[INFO] alert sent for %s (-%d%%)", p.Name, decision.DropPercent)
	return itemNotified
}

func (m *Monitor) finish(report *model.RunReport) {
	report.FinishedAt = m.now()
	m.last.Store(report)
	if err := m.Recorder.RecordRun(report); err != nil {
		log.Printf("[ERROR] record run %s: %v", report.ID, err)
	}
	log.Printf("[INFO] run %s finished: %s, total=%d checked=%d notified=%d skipped=%d failed=%d in %v",
		report.ID, report.Outcome, report.Total, report.Checked, report.Notified,
		report.Skipped, report.Failed, report.Duration())
}

func (m *Monitor) workers() int {
	if m.Workers < 1 {
		return 1
	}
	return m.Workers
}

func (m *Monitor) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
