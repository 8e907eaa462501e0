package purse

import (
	"context"
	"time"

	"purse-circle/internal/core/domain"
)

// Ledger moves token value between addresses.
// A purse only instructs transfers; balances live with the ledger.
type Ledger interface {
	TransferFrom(ctx context.Context, token string, from, to domain.Address, amount int64) error
	BalanceOf(ctx context.Context, token string, addr domain.Address) (int64, error)
}

// Notifier receives events after the transition that produced them commits
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, event Event)

// Notify calls f(ctx, event)
func (f NotifierFunc) Notify(ctx context.Context, event Event) { f(ctx, event) }

// Event is a notification emitted by a purse
type Event interface {
	EventName() string
	Purse() string
}

// PurseCreated is emitted once by the factory
type PurseCreated struct {
	PurseID string
	Creator domain.Address
	Params  Params
	At      time.Time
}

// MemberJoined is emitted when a slot is taken, including the creator's
type MemberJoined struct {
	PurseID  string
	Member   domain.Address
	Position int
}

// DonationDeposited is emitted for every recorded donation
type DonationDeposited struct {
	PurseID     string
	Donor       domain.Address
	Beneficiary domain.Address
	Amount      int64
	RoundIndex  int
}

// DonationClaimed is emitted when a round's funds are released to its beneficiary
type DonationClaimed struct {
	PurseID     string
	Beneficiary domain.Address
	Amount      int64
	RoundIndex  int
	Outcome     domain.RoundOutcome
}

// RoundAdvanced is emitted every time the round pointer moves
type RoundAdvanced struct {
	PurseID        string
	NewRoundIndex  int
	NewBeneficiary domain.Address
	Completed      bool
}

func (e PurseCreated) EventName() string      { return "PurseCreated" }
func (e MemberJoined) EventName() string      { return "MemberJoined" }
func (e DonationDeposited) EventName() string { return "DonationDeposited" }
func (e DonationClaimed) EventName() string   { return "DonationClaimed" }
func (e RoundAdvanced) EventName() string     { return "RoundAdvanced" }

func (e PurseCreated) Purse() string      { return e.PurseID }
func (e MemberJoined) Purse() string      { return e.PurseID }
func (e DonationDeposited) Purse() string { return e.PurseID }
func (e DonationClaimed) Purse() string   { return e.PurseID }
func (e RoundAdvanced) Purse() string     { return e.PurseID }
