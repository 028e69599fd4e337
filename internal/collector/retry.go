package collector

import (
	"context"
	"errors"
	"log"
	"time"

	"PriceSentinel/internal/model"

	"github.com/cenkalti/backoff/v4"
)

// Default host-resolution retry policy: 3 attempts in total, 5s apart.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 5 * time.Second
)

// RetryingFetcher retries the wrapped Fetcher on host resolution failures only.
// DNS hiccups on constrained networks tend to clear up by themselves; timeouts,
// HTTP errors and malformed bodies are returned straight away.
type RetryingFetcher struct {
	Fetcher  Fetcher
	Attempts int
	Delay    time.Duration

	newTimer func() backoff.Timer
}

// NewRetryingFetcher wraps f. attempts below 1 means a single attempt.
func NewRetryingFetcher(f Fetcher, attempts int, delay time.Duration) *RetryingFetcher {
	return &RetryingFetcher{Fetcher: f, Attempts: attempts, Delay: delay}
}

func (r *RetryingFetcher) Name() string { return r.Fetcher.Name() }

func (r *RetryingFetcher) FetchPrice(ctx context.Context, productURL string) (*model.Quote, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var quote *model.Quote
	attempt := 0
	op := func() error {
		attempt++
		q, err := r.Fetcher.FetchPrice(ctx, productURL)
		if err != nil {
			if errors.Is(err, model.ErrHostResolution) {
				return err
			}
			return backoff.Permanent(err)
		}
		quote = q
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("[WARN] %s: host resolution failed (attempt %d/%d): %v, retrying in %v",
			productURL, attempt, attempts, err, wait)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.Delay), uint64(attempts-1)),
		ctx,
	)
	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}
	if err := backoff.RetryNotifyWithTimer(op, policy, notify, timer); err != nil {
		return nil, err
	}
	return quote, nil
}
