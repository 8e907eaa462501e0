package purse

import (
	"context"
	"slices"

	"purse-circle/internal/core/domain"
)

// Eligibility describes whether the open round can be claimed
type Eligibility struct {
	Complete  bool
	Approvals int
	Threshold int
	Eligible  bool
}

// ApproveToClaimWithoutCompleteVotes records caller's vote to let the
// current beneficiary claim an incomplete round.
func (p *Purse) ApproveToClaimWithoutCompleteVotes(caller, beneficiary domain.Address) error {
	p.catchUp()

	if p.completed() {
		return domain.ErrCircleCompleted
	}
	current := p.beneficiaryAt(p.roundIndex)
	if beneficiary == "" || beneficiary != current {
		return domain.ErrNotThisMembersRound
	}
	if !p.IsMember(caller) {
		return domain.ErrNotMember
	}
	if caller == beneficiary {
		return domain.ErrSelfApproval
	}
	if slices.Contains(p.approvals, caller) {
		return domain.ErrAlreadyApproved
	}

	p.approvals = append(p.approvals, caller)
	return nil
}

// ClaimEligibility reports the claim state of the materialized open round
func (p *Purse) ClaimEligibility() Eligibility {
	e := Eligibility{
		Complete:  p.roundComplete(),
		Approvals: len(p.approvals),
		Threshold: p.deps.Policy.QuorumThreshold,
	}
	e.Eligible = e.Complete || e.Approvals >= e.Threshold
	return e
}

// roundComplete is true when every slot is filled and each of the
// maxMembers-1 other members has donated this round. An empty slot is a
// missing donor.
func (p *Purse) roundComplete() bool {
	beneficiary := p.beneficiaryAt(p.roundIndex)
	for _, m := range p.slots {
		if m == "" {
			return false
		}
		if m != beneficiary && !p.hasDonated(m, beneficiary) {
			return false
		}
	}
	return true
}

// ClaimDonations releases the open round's donations to its beneficiary
// and moves to the next round. It returns the amount transferred.
func (p *Purse) ClaimDonations(ctx context.Context, caller domain.Address) (int64, error) {
	p.catchUp()

	if p.completed() {
		return 0, domain.ErrCircleCompleted
	}
	beneficiary := p.beneficiaryAt(p.roundIndex)
	if caller == "" || caller != beneficiary {
		return 0, domain.ErrNotThisMembersRound
	}

	outcome := domain.OutcomeClaimed
	if !p.roundComplete() {
		if len(p.approvals) < p.deps.Policy.QuorumThreshold {
			return 0, domain.ErrRoundNotComplete
		}
		outcome = domain.OutcomeQuorum
	}

	amount := p.donationTotal()
	if amount > 0 {
		if err := p.transfer(ctx, p.Custody(), beneficiary, amount); err != nil {
			return 0, err
		}
	}

	now := p.deps.Clock.Now()
	index := p.roundIndex
	next := p.deadline()
	if now.After(next) {
		next = now
	}
	p.closeRound(outcome, amount, 0, now)
	p.emit(DonationClaimed{
		PurseID:     p.id,
		Beneficiary: beneficiary,
		Amount:      amount,
		RoundIndex:  index,
		Outcome:     outcome,
	})
	p.advanceTo(next)
	return amount, nil
}

// Held returns a copy of the lapsed-round funds still in custody
func (p *Purse) Held() []HeldFunds {
	return append([]HeldFunds(nil), p.held...)
}

// HeldFor returns the lapsed-round funds still in custody for beneficiary
func (p *Purse) HeldFor(beneficiary domain.Address) int64 {
	var total int64
	for _, h := range p.held {
		if h.Beneficiary == beneficiary {
			total += h.Amount
		}
	}
	return total
}

// WithdrawHeldDonations pays out donations from rounds that lapsed
// before caller claimed them. It works after completion too.
func (p *Purse) WithdrawHeldDonations(ctx context.Context, caller domain.Address) (int64, error) {
	p.catchUp()

	if !p.IsMember(caller) {
		return 0, domain.ErrNotMember
	}
	amount := p.HeldFor(caller)
	if amount == 0 {
		return 0, nil
	}
	if err := p.transfer(ctx, p.Custody(), caller, amount); err != nil {
		return 0, err
	}

	remaining := p.held[:0]
	for _, h := range p.held {
		if h.Beneficiary != caller {
			remaining = append(remaining, h)
			continue
		}
		p.emit(DonationClaimed{
			PurseID:     p.id,
			Beneficiary: caller,
			Amount:      h.Amount,
			RoundIndex:  h.RoundIndex,
			Outcome:     domain.OutcomeLapsed,
		})
	}
	p.held = remaining
	return amount, nil
}
