package purse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"purse-circle/internal/core/domain"

	"github.com/google/uuid"
)

// SecondsPerDay converts caller-supplied round durations
const SecondsPerDay = 24 * 60 * 60

// CreateInput are the caller-supplied purse terms
type CreateInput struct {
	Creator            domain.Address
	ContributionAmount int64
	MaxMembers         int
	RoundDurationDays  int
	StartPosition      int
	Token              string
	PurseType          string
}

// Factory creates purses and keeps the registry of live handles
type Factory struct {
	mu       sync.RWMutex
	deps     Deps
	notifier Notifier
	handles  map[string]*Handle
	order    []string
	newID    func() string
}

// NewFactory creates a factory that hands deps to every purse it builds
func NewFactory(deps Deps, notifier Notifier) *Factory {
	return &Factory{
		deps:     withDefaults(deps),
		notifier: notifier,
		handles:  make(map[string]*Handle),
		newID:    func() string { return uuid.New().String() },
	}
}

// CreatePurse validates the terms, builds the purse, seats the creator
// and registers it. The returned handle has not been stored anywhere else.
func (f *Factory) CreatePurse(ctx context.Context, in CreateInput) (*Handle, error) {
	p, err := f.Build(in)
	if err != nil {
		return nil, err
	}
	h, err := f.Adopt(p)
	if err != nil {
		return nil, err
	}
	f.Announce(ctx, h)
	return h, nil
}

// Build validates the terms and builds an unregistered purse
func (f *Factory) Build(in CreateInput) (*Purse, error) {
	if in.RoundDurationDays < 1 {
		return nil, fmt.Errorf("%w: round duration must be at least one day", domain.ErrInvalidParameters)
	}
	params := Params{
		ContributionAmount: in.ContributionAmount,
		MaxMembers:         in.MaxMembers,
		RoundDuration:      time.Duration(in.RoundDurationDays) * SecondsPerDay * time.Second,
		Token:              in.Token,
		PurseType:          in.PurseType,
	}
	return New(f.newID(), params, in.StartPosition, in.Creator, f.deps)
}

// Announce delivers the creation events of a freshly built purse
func (f *Factory) Announce(ctx context.Context, h *Handle) {
	h.View(func(p *Purse) {
		events := append([]Event{PurseCreated{
			PurseID: p.id,
			Creator: p.creator,
			Params:  p.params,
			At:      p.createdAt,
		}}, p.DrainEvents()...)
		if f.notifier == nil {
			return
		}
		for _, e := range events {
			f.notifier.Notify(ctx, e)
		}
	})
}

// Restore rebuilds a stored purse and registers it
func (f *Factory) Restore(s State) (*Handle, error) {
	p, err := Restore(s, f.deps)
	if err != nil {
		return nil, err
	}
	return f.Adopt(p)
}

// Adopt wraps a purse built by this factory in a handle and registers it
func (f *Factory) Adopt(p *Purse) (*Handle, error) {
	h := NewHandle(p, f.notifier)
	if err := f.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Register adds h to the registry
func (f *Factory) Register(h *Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handles[h.ID()]; ok {
		return fmt.Errorf("%w: purse %s", domain.ErrDuplicateEntry, h.ID())
	}
	f.handles[h.ID()] = h
	f.order = append(f.order, h.ID())
	return nil
}

// Unregister drops a purse from the registry
func (f *Factory) Unregister(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.handles[id]; !ok {
		return
	}
	delete(f.handles, id)
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Get returns the handle for id
func (f *Factory) Get(id string) (*Handle, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h, ok := f.handles[id]
	if !ok {
		return nil, domain.ErrPurseNotFound
	}
	return h, nil
}

// List returns all handles in creation order
func (f *Factory) List() []*Handle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Handle, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.handles[id])
	}
	return out
}

// Len returns the number of registered purses
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}
