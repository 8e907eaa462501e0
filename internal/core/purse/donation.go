package purse

import (
	"context"
	"errors"
	"fmt"

	"purse-circle/internal/core/domain"
)

var errNoLedger = errors.New("no ledger configured")

// DepositDonation moves the contribution from caller into custody for beneficiary.
// Only the open round's beneficiary can receive donations.
func (p *Purse) DepositDonation(ctx context.Context, caller, beneficiary domain.Address) error {
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
		return domain.ErrSelfDonation
	}
	if p.hasDonated(caller, beneficiary) {
		return domain.ErrAlreadyDonated
	}

	amount := p.params.ContributionAmount
	if err := p.transfer(ctx, caller, p.Custody(), amount); err != nil {
		return err
	}

	p.donations = append(p.donations, Donation{
		Donor:       caller,
		Beneficiary: beneficiary,
		Amount:      amount,
		At:          p.deps.Clock.Now(),
	})
	p.emit(DonationDeposited{
		PurseID:     p.id,
		Donor:       caller,
		Beneficiary: beneficiary,
		Amount:      amount,
		RoundIndex:  p.roundIndex,
	})
	return nil
}

// CurrentDonations returns the donations recorded in the open round
func (p *Purse) CurrentDonations() []Donation {
	return append([]Donation(nil), p.donations...)
}

func (p *Purse) hasDonated(donor, beneficiary domain.Address) bool {
	for _, d := range p.donations {
		if d.Donor == donor && d.Beneficiary == beneficiary {
			return true
		}
	}
	return false
}

func (p *Purse) transfer(ctx context.Context, from, to domain.Address, amount int64) error {
	if p.deps.Ledger == nil {
		return fmt.Errorf("%w: %w", domain.ErrTransferFailed, errNoLedger)
	}
	if err := p.deps.Ledger.TransferFrom(ctx, p.params.Token, from, to, amount); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}
	return nil
}
