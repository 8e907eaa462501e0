package purse

import "purse-circle/internal/core/domain"

// MissedDonations is the result of an audit query
type MissedDonations struct {
	Addresses []domain.Address
	Total     int64
}

// CalculateMissedDonationForUser lists the donors who skipped beneficiary
// across every closed round in which beneficiary was paid out. A donor
// appears once per round missed.
func (p *Purse) CalculateMissedDonationForUser(beneficiary domain.Address) MissedDonations {
	return missedForBeneficiary(p.history, beneficiary, p.params.ContributionAmount)
}

// CalculateMissedDonationByUser lists the beneficiaries donor skipped
// across every closed round.
func (p *Purse) CalculateMissedDonationByUser(donor domain.Address) MissedDonations {
	return missedByDonor(p.history, donor, p.params.ContributionAmount)
}

func missedForBeneficiary(history []ClosedRound, beneficiary domain.Address, amount int64) MissedDonations {
	out := MissedDonations{Addresses: []domain.Address{}}
	if beneficiary == "" {
		return out
	}
	for _, r := range history {
		if r.Beneficiary != beneficiary {
			continue
		}
		for _, d := range r.NonDonors {
			out.Addresses = append(out.Addresses, d)
			out.Total += amount
		}
	}
	return out
}

func missedByDonor(history []ClosedRound, donor domain.Address, amount int64) MissedDonations {
	out := MissedDonations{Addresses: []domain.Address{}}
	if donor == "" {
		return out
	}
	for _, r := range history {
		if r.Beneficiary == "" {
			continue
		}
		for _, d := range r.NonDonors {
			if d == donor {
				out.Addresses = append(out.Addresses, r.Beneficiary)
				out.Total += amount
			}
		}
	}
	return out
}
