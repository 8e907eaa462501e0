package purse

import (
	"context"
	"sync"
)

// Handle serializes access to one purse. Every mutation goes through
// Update, which either commits fully or leaves the purse as it was.
type Handle struct {
	mu       sync.Mutex
	purse    *Purse
	notifier Notifier
}

// NewHandle wraps p; notifier may be nil
func NewHandle(p *Purse, notifier Notifier) *Handle {
	return &Handle{purse: p, notifier: notifier}
}

// ID returns the wrapped purse id
func (h *Handle) ID() string {
	return h.purse.id
}

// Update runs fn under the purse lock. If fn fails the purse is restored
// to its state before the call and its events are dropped; otherwise the
// events are delivered to the notifier.
func (h *Handle) Update(ctx context.Context, fn func(p *Purse) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	before := h.purse.Snapshot()
	if err := fn(h.purse); err != nil {
		h.purse.load(before)
		return err
	}

	events := h.purse.DrainEvents()
	if h.notifier != nil {
		for _, e := range events {
			h.notifier.Notify(ctx, e)
		}
	}
	return nil
}

// View runs a read-only fn under the purse lock
func (h *Handle) View(fn func(p *Purse)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.purse)
}
