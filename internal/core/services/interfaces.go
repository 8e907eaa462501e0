package services

import (
	"time"

	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"
)

// Note: AuthService implementation is in auth_service.go
// Note: PurseService implementation is in purse_service.go

// CreatePurseInput represents purse creation input
type CreatePurseInput struct {
	ContributionAmount int64  `json:"contribution_amount"`
	MaxMembers         int    `json:"max_members"`
	RoundDurationDays  int    `json:"round_duration_days"`
	StartPosition      int    `json:"start_position"`
	Token              string `json:"token"`
	PurseType          string `json:"purse_type"`
}

// MemberView is one roster entry
type MemberView struct {
	Address  domain.Address `json:"address"`
	Position int            `json:"position"`
}

// RoundView is the open round as of now
type RoundView struct {
	RoundIndex  int              `json:"round_index"`
	Beneficiary domain.Address   `json:"beneficiary"`
	Deadline    time.Time        `json:"deadline"`
	Donations   []DonationView   `json:"donations"`
	Eligibility *EligibilityView `json:"eligibility,omitempty"`
}

// DonationView is one recorded donation of the open round
type DonationView struct {
	Donor       domain.Address `json:"donor"`
	Beneficiary domain.Address `json:"beneficiary"`
	Amount      int64          `json:"amount"`
	At          time.Time      `json:"at"`
}

// EligibilityView reports whether the beneficiary may claim now
type EligibilityView struct {
	Complete  bool `json:"complete"`
	Approvals int  `json:"approvals"`
	Threshold int  `json:"threshold"`
	Eligible  bool `json:"eligible"`
}

// ClosedRoundView is one history entry
type ClosedRoundView struct {
	RoundIndex    int                 `json:"round_index"`
	Beneficiary   domain.Address      `json:"beneficiary"`
	Donors        []domain.Address    `json:"donors"`
	NonDonors     []domain.Address    `json:"non_donors"`
	ClaimedAmount int64               `json:"claimed_amount"`
	HeldAmount    int64               `json:"held_amount"`
	Quorum        bool                `json:"quorum"`
	Outcome       domain.RoundOutcome `json:"outcome"`
	ClosedAt      time.Time           `json:"closed_at"`
}

// PurseView is the summary returned by the purse endpoints
type PurseView struct {
	ID                 string             `json:"id"`
	Creator            domain.Address     `json:"creator"`
	Custody            domain.Address     `json:"custody"`
	ContributionAmount int64              `json:"contribution_amount"`
	MaxMembers         int                `json:"max_members"`
	RoundDurationDays  int                `json:"round_duration_days"`
	Token              string             `json:"token"`
	PurseType          string             `json:"purse_type"`
	Status             domain.PurseStatus `json:"status"`
	Members            []MemberView       `json:"members"`
	Round              *RoundView         `json:"round,omitempty"`
	HeldTotal          int64              `json:"held_total"`
	CreatedAt          time.Time          `json:"created_at"`
}

// AuditView is a missed-donation report
type AuditView struct {
	Address   domain.Address   `json:"address"`
	Direction string           `json:"direction"`
	Addresses []domain.Address `json:"addresses"`
	Total     int64            `json:"total"`
}

func toEligibilityView(e purse.Eligibility) *EligibilityView {
	return &EligibilityView{
		Complete:  e.Complete,
		Approvals: e.Approvals,
		Threshold: e.Threshold,
		Eligible:  e.Eligible,
	}
}

func toClosedRoundView(r purse.ClosedRound) ClosedRoundView {
	donors := r.Donors
	if donors == nil {
		donors = []domain.Address{}
	}
	nonDonors := r.NonDonors
	if nonDonors == nil {
		nonDonors = []domain.Address{}
	}
	return ClosedRoundView{
		RoundIndex:    r.Index,
		Beneficiary:   r.Beneficiary,
		Donors:        donors,
		NonDonors:     nonDonors,
		ClaimedAmount: r.ClaimedAmount,
		HeldAmount:    r.HeldAmount,
		Quorum:        r.Quorum,
		Outcome:       r.Outcome,
		ClosedAt:      r.ClosedAt,
	}
}

// viewOf builds the summary of p as of now. Call under the handle lock.
func viewOf(p *purse.Purse) *PurseView {
	params := p.Params()
	v := &PurseView{
		ID:                 p.ID(),
		Creator:            p.Creator(),
		Custody:            p.Custody(),
		ContributionAmount: params.ContributionAmount,
		MaxMembers:         params.MaxMembers,
		RoundDurationDays:  int(params.RoundDuration / (purse.SecondsPerDay * time.Second)),
		Token:              params.Token,
		PurseType:          params.PurseType,
		Status:             p.Status(),
		Members:            membersOf(p),
		CreatedAt:          p.CreatedAt(),
	}
	for _, h := range p.Held() {
		v.HeldTotal += h.Amount
	}
	if details, err := p.CurrentRoundDetails(); err == nil {
		v.Round = roundOf(p, details)
	}
	return v
}

func membersOf(p *purse.Purse) []MemberView {
	members := p.PurseMembers()
	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		out = append(out, MemberView{Address: m, Position: p.MemberPosition(m)})
	}
	return out
}

// roundOf describes the projected open round. Donations and eligibility
// belong to the materialized round and are only shown while it is still open.
func roundOf(p *purse.Purse, details purse.RoundDetails) *RoundView {
	rv := &RoundView{
		RoundIndex:  details.RoundIndex,
		Beneficiary: details.Beneficiary,
		Deadline:    details.Deadline,
		Donations:   []DonationView{},
	}
	if details.RoundIndex != p.RoundIndex() {
		rv.Eligibility = &EligibilityView{Threshold: p.QuorumThreshold()}
		return rv
	}
	for _, d := range p.CurrentDonations() {
		rv.Donations = append(rv.Donations, DonationView{
			Donor:       d.Donor,
			Beneficiary: d.Beneficiary,
			Amount:      d.Amount,
			At:          d.At,
		})
	}
	rv.Eligibility = toEligibilityView(p.ClaimEligibility())
	return rv
}
