package purse

import (
	"fmt"
	"time"

	"purse-circle/internal/core/domain"
)

// State is a detached copy of everything a purse knows.
// Restore(Snapshot()) yields an equivalent purse.
type State struct {
	ID         string
	Creator    domain.Address
	Params     Params
	CreatedAt  time.Time
	Slots      []domain.Address
	RoundIndex int
	RoundStart time.Time
	Donations  []Donation
	Approvals  []domain.Address
	History    []ClosedRound
	Held       []HeldFunds
}

// Snapshot returns a deep copy of the purse state
func (p *Purse) Snapshot() State {
	s := State{
		ID:         p.id,
		Creator:    p.creator,
		Params:     p.params,
		CreatedAt:  p.createdAt,
		Slots:      append([]domain.Address(nil), p.slots...),
		RoundIndex: p.roundIndex,
		RoundStart: p.roundStart,
		Donations:  append([]Donation(nil), p.donations...),
		Approvals:  append([]domain.Address(nil), p.approvals...),
		History:    p.History(),
		Held:       append([]HeldFunds(nil), p.held...),
	}
	return s
}

// Restore rebuilds a purse from a snapshot
func Restore(s State, deps Deps) (*Purse, error) {
	if err := validateParams(s.Params); err != nil {
		return nil, err
	}
	if len(s.Slots) != s.Params.MaxMembers {
		return nil, fmt.Errorf("%w: %d slots for %d members", domain.ErrInvalidParameters, len(s.Slots), s.Params.MaxMembers)
	}
	if s.RoundIndex < 1 || s.RoundIndex > s.Params.MaxMembers+1 {
		return nil, fmt.Errorf("%w: round index %d", domain.ErrInvalidParameters, s.RoundIndex)
	}
	p := &Purse{deps: withDefaults(deps)}
	p.load(s)
	return p, nil
}

func (p *Purse) load(s State) {
	p.id = s.ID
	p.creator = s.Creator
	p.params = s.Params
	p.createdAt = s.CreatedAt
	p.slots = append([]domain.Address(nil), s.Slots...)
	p.roundIndex = s.RoundIndex
	p.roundStart = s.RoundStart
	p.donations = append([]Donation(nil), s.Donations...)
	p.approvals = append([]domain.Address(nil), s.Approvals...)
	p.history = make([]ClosedRound, len(s.History))
	for i, r := range s.History {
		p.history[i] = cloneRound(r)
	}
	p.held = append([]HeldFunds(nil), s.Held...)
	p.pending = nil
}
