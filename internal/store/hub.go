package store

import (
	"context"
	"sync"

	"PriceSentinel/internal/model"
)

// hub serialises writers against subscribers and fans out snapshots.
// Writers hold mu exclusively for the mutation and the publish that follows,
// so every delivered snapshot is a committed state and a new subscriber's
// first snapshot can never be older than the next published one.
type hub struct {
	mu     sync.RWMutex
	subs   map[chan []model.Product]struct{}
	closed bool
	done   chan struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan []model.Product]struct{}{}, done: make(chan struct{})}
}

// publish must be called with mu held for writing.
func (h *hub) publish(snapshot []model.Product) {
	for ch := range h.subs {
		deliver(ch, snapshot)
	}
}

// deliver keeps only the newest snapshot in a subscriber's one-slot buffer.
// Only the hub sends on ch, so after draining the send cannot block.
func deliver(ch chan []model.Product, snapshot []model.Product) {
	cp := append([]model.Product(nil), snapshot...)
	select {
	case ch <- cp:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- cp
	}
}

// subscribe registers a subscriber seeded with the snapshot. Called with mu
// held for writing.
func (h *hub) subscribe(ctx context.Context, snapshot []model.Product) <-chan []model.Product {
	ch := make(chan []model.Product, 1)
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	deliver(ch, snapshot)

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// shutdown closes every subscriber. Called with mu held for writing.
func (h *hub) shutdown() {
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
