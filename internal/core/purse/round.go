package purse

import (
	"time"

	"purse-circle/internal/core/domain"
)

// RoundDetails describes the open round
type RoundDetails struct {
	Beneficiary domain.Address
	RoundIndex  int
	Deadline    time.Time
}

// CurrentRoundDetails reports the round that is open as of now.
// Elapsed deadlines are projected, not applied.
func (p *Purse) CurrentRoundDetails() (RoundDetails, error) {
	index, start := p.effectiveRound(p.deps.Clock.Now())
	if index > p.params.MaxMembers {
		return RoundDetails{}, domain.ErrCircleCompleted
	}
	return RoundDetails{
		Beneficiary: p.beneficiaryAt(index),
		RoundIndex:  index,
		Deadline:    start.Add(p.params.RoundDuration),
	}, nil
}

// RoundIndex returns the materialized round pointer
func (p *Purse) RoundIndex() int { return p.roundIndex }

// RoundStart returns the materialized start of the open round
func (p *Purse) RoundStart() time.Time { return p.roundStart }

// AdvanceRounds closes every round whose deadline has passed and
// returns how many rounds were closed.
func (p *Purse) AdvanceRounds() int {
	return p.catchUp()
}

// History returns a copy of the closed rounds, oldest first
func (p *Purse) History() []ClosedRound {
	out := make([]ClosedRound, len(p.history))
	for i, r := range p.history {
		out[i] = cloneRound(r)
	}
	return out
}

// HistoryLen returns the number of closed rounds
func (p *Purse) HistoryLen() int { return len(p.history) }

// effectiveRound projects the round pointer forward to now without mutating
func (p *Purse) effectiveRound(now time.Time) (int, time.Time) {
	index, start := p.roundIndex, p.roundStart
	for index <= p.params.MaxMembers && !now.Before(start.Add(p.params.RoundDuration)) {
		start = start.Add(p.params.RoundDuration)
		index++
	}
	return index, start
}

func (p *Purse) completed() bool {
	return p.roundIndex > p.params.MaxMembers
}

func (p *Purse) deadline() time.Time {
	return p.roundStart.Add(p.params.RoundDuration)
}

// catchUp materializes lapsed rounds. The next round starts at the old
// deadline so the cadence is fixed from creation.
func (p *Purse) catchUp() int {
	now := p.deps.Clock.Now()
	closed := 0
	for !p.completed() && !now.Before(p.deadline()) {
		held := p.donationTotal()
		deadline := p.deadline()
		p.closeRound(domain.OutcomeLapsed, 0, held, deadline)
		p.advanceTo(deadline)
		closed++
	}
	return closed
}

func (p *Purse) donationTotal() int64 {
	var total int64
	for _, d := range p.donations {
		total += d.Amount
	}
	return total
}

// closeRound appends the open round to history and clears per-round state
func (p *Purse) closeRound(outcome domain.RoundOutcome, claimed, held int64, at time.Time) {
	beneficiary := p.beneficiaryAt(p.roundIndex)

	donated := make(map[domain.Address]bool, len(p.donations))
	donors := make([]domain.Address, 0, len(p.donations))
	for _, d := range p.donations {
		if d.Beneficiary == beneficiary && !donated[d.Donor] {
			donated[d.Donor] = true
			donors = append(donors, d.Donor)
		}
	}
	var nonDonors []domain.Address
	for _, m := range p.PurseMembers() {
		if m != beneficiary && !donated[m] {
			nonDonors = append(nonDonors, m)
		}
	}

	p.history = append(p.history, ClosedRound{
		Index:         p.roundIndex,
		Beneficiary:   beneficiary,
		Donors:        donors,
		NonDonors:     nonDonors,
		ClaimedAmount: claimed,
		HeldAmount:    held,
		Quorum:        outcome == domain.OutcomeQuorum,
		Outcome:       outcome,
		ClosedAt:      at,
	})
	if held > 0 {
		p.held = append(p.held, HeldFunds{RoundIndex: p.roundIndex, Beneficiary: beneficiary, Amount: held})
	}
	p.donations = nil
	p.approvals = nil
}

func (p *Purse) advanceTo(start time.Time) {
	p.roundIndex++
	p.roundStart = start
	p.emit(RoundAdvanced{
		PurseID:        p.id,
		NewRoundIndex:  p.roundIndex,
		NewBeneficiary: p.beneficiaryAt(p.roundIndex),
		Completed:      p.completed(),
	})
}

func cloneRound(r ClosedRound) ClosedRound {
	r.Donors = append([]domain.Address(nil), r.Donors...)
	r.NonDonors = append([]domain.Address(nil), r.NonDonors...)
	return r
}
