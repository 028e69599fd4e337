package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"PriceSentinel/internal/collector"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/recorder"
	"PriceSentinel/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (s *recordingSink) Notify(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

type recordingRecorder struct {
	recorder.NoopRecorder
	runs []*model.RunReport
}

func (r *recordingRecorder) RecordRun(rep *model.RunReport) error {
	r.runs = append(r.runs, rep)
	return nil
}

type brokenStore struct {
	*store.MemoryStore
}

func (b brokenStore) ListOnce(context.Context) ([]model.Product, error) {
	return nil, fmt.Errorf("%w: disk gone", store.ErrStore)
}

func quote(name, price string) collector.MockResult {
	return collector.MockResult{Quote: &model.Quote{Name: name, Price: price, Currency: "EUR"}}
}

func seed(t *testing.T, st store.Store, products ...model.Product) {
	t.Helper()
	for _, p := range products {
		require.NoError(t, st.Upsert(context.Background(), p))
	}
}

func newTestMonitor(t *testing.T) (*Monitor, *store.MemoryStore, *collector.MockFetcher, *recordingSink) {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })
	f := &collector.MockFetcher{}
	sink := &recordingSink{}
	m := New(st, f, sink)
	m.Now = func() time.Time { return t0.Add(24 * time.Hour) }
	return m, st, f, sink
}

func TestRun_IsolatesItemFailures(t *testing.T) {
	m, st, f, sink := newTestMonitor(t)
	seed(t, st,
		model.Product{URL: "https://shop/1", Name: "One", Price: "100", ObservedAt: t0.Add(3 * time.Minute)},
		model.Product{URL: "https://shop/2", Name: "Two", Price: "100", ObservedAt: t0.Add(2 * time.Minute)},
		model.Product{URL: "https://shop/3", Name: "Three", Price: "100", ObservedAt: t0.Add(time.Minute)},
	)
	f.Script("https://shop/1", quote("One", "80"))
	f.Script("https://shop/2", collector.MockResult{Err: fmt.Errorf("%w: connection refused", model.ErrNetwork)})
	f.Script("https://shop/3", quote("Three", "90"))

	rep := m.Run(context.Background(), model.TriggerScheduled)

	assert.Equal(t, model.OutcomeSuccess, rep.Outcome)
	assert.Equal(t, []string{"https://shop/1", "https://shop/2", "https://shop/3"}, f.Order())
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Checked)
	assert.Equal(t, 2, rep.Notified)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, sink.sent, 2)
	assert.Equal(t, "Hey, One dropped 20% in price!", sink.sent[0].Title)
	assert.Equal(t, "Hey, Three dropped 10% in price!", sink.sent[1].Title)
	assert.Equal(t, model.StateIdle, m.State())
}

func TestRun_DoesNotOverwriteBaseline(t *testing.T) {
	m, st, f, _ := newTestMonitor(t)
	seed(t, st, model.Product{URL: "https://shop/1", Name: "One", Price: "100", ObservedAt: t0})
	f.Script("https://shop/1", quote("One (new title)", "80"))

	m.Run(context.Background(), model.TriggerScheduled)

	got, err := st.ListOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100", got[0].Price)
	assert.Equal(t, "One", got[0].Name)
	assert.True(t, got[0].ObservedAt.Equal(t0))
}

func TestRun_NoAlertWhenEqualOrHigher(t *testing.T) {
	m, st, f, sink := newTestMonitor(t)
	seed(t, st,
		model.Product{URL: "https://shop/1", Name: "One", Price: "100", ObservedAt: t0},
		model.Product{URL: "https://shop/2", Name: "Two", Price: "100", ObservedAt: t0},
	)
	f.Script("https://shop/1", quote("One", "100.00"))
	f.Script("https://shop/2", quote("Two", "120"))

	rep := m.Run(context.Background(), model.TriggerScheduled)
	assert.Equal(t, 2, rep.Checked)
	assert.Zero(t, rep.Notified)
	assert.Empty(t, sink.sent)
}

func TestRun_SkipsUnparseablePrices(t *testing.T) {
	m, st, f, sink := newTestMonitor(t)
	seed(t, st,
		model.Product{URL: "https://shop/1", Name: "One", Price: "N/A", ObservedAt: t0.Add(2 * time.Minute)},
		model.Product{URL: "https://shop/2", Name: "Two", Price: "100", ObservedAt: t0.Add(time.Minute)},
		model.Product{URL: "https://shop/3", Name: "Three", Price: "100", ObservedAt: t0},
	)
	f.Script("https://shop/1", quote("One", "10"))
	f.Script("https://shop/2", quote("Two", "agotado"))
	f.Script("https://shop/3", quote("Three", "50"))

	rep := m.Run(context.Background(), model.TriggerScheduled)
	assert.Equal(t, model.OutcomeSuccess, rep.Outcome)
	assert.Equal(t, 2, rep.Skipped)
	assert.Equal(t, 1, rep.Notified)
	assert.Zero(t, rep.Failed)
	require.Len(t, sink.sent, 1)
	assert.Contains(t, sink.sent[0].Title, "Three")
}

func TestRun_StoreFailureFailsRun(t *testing.T) {
	mem := store.NewMemoryStore()
	defer mem.Close()
	rec := &recordingRecorder{}
	m := New(brokenStore{mem}, &collector.MockFetcher{}, &recordingSink{})
	m.Recorder = rec

	rep := m.Run(context.Background(), model.TriggerScheduled)
	assert.Equal(t, model.OutcomeFailure, rep.Outcome)
	assert.ErrorIs(t, rep.Err, store.ErrStore)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, model.OutcomeFailure, rec.runs[0].Outcome)
}

func TestRun_SinkErrorCountsAsFailedItem(t *testing.T) {
	m, st, f, sink := newTestMonitor(t)
	sink.err = errors.New("telegram down")
	seed(t, st, model.Product{URL: "https://shop/1", Name: "One", Price: "100", ObservedAt: t0})
	f.Script("https://shop/1", quote("One", "50"))

	rep := m.Run(context.Background(), model.TriggerScheduled)
	assert.Equal(t, model.OutcomeSuccess, rep.Outcome)
	assert.Equal(t, 1, rep.Failed)
	assert.Zero(t, rep.Notified)
}

func TestRun_EmptySnapshot(t *testing.T) {
	m, _, _, _ := newTestMonitor(t)
	rep := m.Run(context.Background(), model.TriggerScheduled)
	assert.Equal(t, model.OutcomeSuccess, rep.Outcome)
	assert.Zero(t, rep.Total)
}

func TestRun_WorkerPool(t *testing.T) {
	m, st, f, sink := newTestMonitor(t)
	m.Workers = 4
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("https://shop/%d", i)
		seed(t, st, model.Product{URL: url, Name: fmt.Sprintf("P%d", i), Price: "10", ObservedAt: t0})
		f.Script(url, quote("P", "9"))
	}

	rep := m.Run(context.Background(), model.TriggerScheduled)
	assert.Equal(t, 10, rep.Checked)
	assert.Equal(t, 10, rep.Notified)
	assert.Len(t, sink.sent, 10)
	assert.Len(t, f.Order(), 10)
}

type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingFetcher) Name() string { return "blocking" }

func (b *blockingFetcher) FetchPrice(context.Context, string) (*model.Quote, error) {
	close(b.started)
	<-b.release
	return &model.Quote{Name: "One", Price: "100"}, nil
}

func TestRun_StateTransitions(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	seed(t, st, model.Product{URL: "https://shop/1", Name: "One", Price: "100", ObservedAt: t0})
	bf := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	m := New(st, bf, &recordingSink{})
	assert.Equal(t, model.StateIdle, m.State())

	done := make(chan *model.RunReport)
	go func() { done <- m.Run(context.Background(), model.TriggerManual) }()
	<-bf.started
	assert.Equal(t, model.StateRunning, m.State())
	close(bf.release)
	rep := <-done
	assert.Equal(t, model.OutcomeSuccess, rep.Outcome)
	assert.Equal(t, model.StateIdle, m.State())
}

func TestRun_RecordsReport(t *testing.T) {
	m, st, f, _ := newTestMonitor(t)
	rec := &recordingRecorder{}
	m.Recorder = rec
	seed(t, st, model.Product{URL: "https://shop/1", Name: "One", Price: "100", ObservedAt: t0})
	f.Script("https://shop/1", quote("One", "100"))

	rep := m.Run(context.Background(), model.TriggerScheduled)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, rep.ID, rec.runs[0].ID)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, model.TriggerScheduled, rec.runs[0].Trigger)
	assert.Same(t, rep, m.LastReport())
}
