package purse_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice domain.Address = "0xA11CE"
	bob   domain.Address = "0xB0B"
	carol domain.Address = "0xCA401"
	dave  domain.Address = "0xDA5E"
	token                = "USDT"
	week                 = 7 * 24 * time.Hour
)

var start = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

type memLedger struct {
	mu       sync.Mutex
	balances map[domain.Address]int64
}

func newMemLedger(funded ...domain.Address) *memLedger {
	l := &memLedger{balances: make(map[domain.Address]int64)}
	for _, a := range funded {
		l.balances[a] = 100
	}
	return l
}

func (l *memLedger) TransferFrom(_ context.Context, tok string, from, to domain.Address, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok != token {
		return fmt.Errorf("unknown token %s", tok)
	}
	if l.balances[from] < amount {
		return domain.ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *memLedger) BalanceOf(_ context.Context, _ string, addr domain.Address) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr], nil
}

func (l *memLedger) balance(addr domain.Address) int64 {
	b, _ := l.BalanceOf(context.Background(), token, addr)
	return b
}

type recorder struct {
	mu     sync.Mutex
	events []purse.Event
}

func (r *recorder) Notify(_ context.Context, e purse.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventName()
	}
	return out
}

type fixture struct {
	clock  *purse.ManualClock
	ledger *memLedger
	purse  *purse.Purse
}

// newCircle builds a 3-member circle (contribution 10, 7 days) with alice at
// position 1 and, when full is set, bob at 2 and carol at 3.
func newCircle(t *testing.T, full bool, policy purse.Policy) *fixture {
	t.Helper()
	clock := purse.NewManualClock(start)
	ledger := newMemLedger(alice, bob, carol, dave)
	p, err := purse.New("circle-1", purse.Params{
		ContributionAmount: 10,
		MaxMembers:         3,
		RoundDuration:      week,
		Token:              token,
	}, 1, alice, purse.Deps{Clock: clock, Ledger: ledger, Policy: policy})
	require.NoError(t, err)
	if full {
		require.NoError(t, p.JoinPurse(bob, 2))
		require.NoError(t, p.JoinPurse(carol, 3))
	}
	p.DrainEvents()
	return &fixture{clock: clock, ledger: ledger, purse: p}
}

func TestNewValidatesParameters(t *testing.T) {
	good := purse.Params{ContributionAmount: 10, MaxMembers: 3, RoundDuration: week, Token: token}

	tests := []struct {
		name     string
		mutate   func(p *purse.Params)
		position int
		creator  domain.Address
	}{
		{"zero contribution", func(p *purse.Params) { p.ContributionAmount = 0 }, 1, alice},
		{"single member", func(p *purse.Params) { p.MaxMembers = 1 }, 1, alice},
		{"no duration", func(p *purse.Params) { p.RoundDuration = 0 }, 1, alice},
		{"no token", func(p *purse.Params) { p.Token = "" }, 1, alice},
		{"position zero", func(p *purse.Params) {}, 0, alice},
		{"position past capacity", func(p *purse.Params) {}, 4, alice},
		{"no creator", func(p *purse.Params) {}, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := good
			tt.mutate(&params)
			_, err := purse.New("x", params, tt.position, tt.creator, purse.Deps{})
			assert.ErrorIs(t, err, domain.ErrInvalidParameters)
		})
	}
}

func TestCompleteRoundClaim(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	require.NoError(t, f.purse.DepositDonation(ctx, carol, alice))

	before := f.ledger.balance(alice)
	f.clock.Advance(24 * time.Hour)
	amount, err := f.purse.ClaimDonations(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 20, amount)
	assert.Equal(t, before+20, f.ledger.balance(alice))
	assert.EqualValues(t, 0, f.ledger.balance(f.purse.Custody()))

	details, err := f.purse.CurrentRoundDetails()
	require.NoError(t, err)
	assert.Equal(t, bob, details.Beneficiary)
	assert.Equal(t, 2, details.RoundIndex)
	assert.False(t, details.Deadline.Before(start.Add(week)))
	// an early claim does not shorten the next round
	assert.Equal(t, start.Add(2*week), details.Deadline)

	history := f.purse.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.OutcomeClaimed, history[0].Outcome)
	assert.ElementsMatch(t, []domain.Address{bob, carol}, history[0].Donors)
	assert.Empty(t, history[0].NonDonors)
}

func TestQuorumOverride(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))

	_, err := f.purse.ClaimDonations(ctx, alice)
	require.ErrorIs(t, err, domain.ErrRoundNotComplete)

	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(carol, alice))
	assert.True(t, f.purse.ClaimEligibility().Eligible)

	before := f.ledger.balance(alice)
	amount, err := f.purse.ClaimDonations(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 10, amount)
	assert.Equal(t, before+10, f.ledger.balance(alice))

	history := f.purse.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Quorum)
	assert.Equal(t, []domain.Address{carol}, history[0].NonDonors)
}

func TestQuorumThresholdIsConfigurable(t *testing.T) {
	f := newCircle(t, true, purse.Policy{QuorumThreshold: 2})
	ctx := context.Background()

	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(bob, alice))
	_, err := f.purse.ClaimDonations(ctx, alice)
	require.ErrorIs(t, err, domain.ErrRoundNotComplete)

	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(carol, alice))
	amount, err := f.purse.ClaimDonations(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestApprovalRules(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})

	assert.ErrorIs(t, f.purse.ApproveToClaimWithoutCompleteVotes(bob, carol), domain.ErrNotThisMembersRound)
	assert.ErrorIs(t, f.purse.ApproveToClaimWithoutCompleteVotes(dave, alice), domain.ErrNotMember)
	assert.ErrorIs(t, f.purse.ApproveToClaimWithoutCompleteVotes(alice, alice), domain.ErrSelfApproval)
	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(bob, alice))
	assert.ErrorIs(t, f.purse.ApproveToClaimWithoutCompleteVotes(bob, alice), domain.ErrAlreadyApproved)
}

func TestMissedDonationAudit(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	require.NoError(t, f.purse.DepositDonation(ctx, carol, alice))
	_, err := f.purse.ClaimDonations(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, f.purse.DepositDonation(ctx, alice, bob))
	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(alice, bob))
	_, err = f.purse.ClaimDonations(ctx, bob)
	require.NoError(t, err)

	forBob := f.purse.CalculateMissedDonationForUser(bob)
	assert.Equal(t, []domain.Address{carol}, forBob.Addresses)
	assert.EqualValues(t, 10, forBob.Total)

	byCarol := f.purse.CalculateMissedDonationByUser(carol)
	assert.Equal(t, []domain.Address{bob}, byCarol.Addresses)
	assert.EqualValues(t, 10, byCarol.Total)

	// the open round never counts, and repeated queries agree
	assert.Empty(t, f.purse.CalculateMissedDonationForUser(carol).Addresses)
	assert.Equal(t, byCarol, f.purse.CalculateMissedDonationByUser(carol))
	assert.Empty(t, f.purse.CalculateMissedDonationByUser(alice).Addresses)
}

func TestMissedDonationsAccumulateAcrossRounds(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})

	// nobody donates; every round lapses
	f.clock.Advance(3 * week)
	assert.Equal(t, 3, f.purse.AdvanceRounds())

	byCarol := f.purse.CalculateMissedDonationByUser(carol)
	assert.Equal(t, []domain.Address{alice, bob}, byCarol.Addresses)
	assert.EqualValues(t, 20, byCarol.Total)

	forAlice := f.purse.CalculateMissedDonationForUser(alice)
	assert.Equal(t, []domain.Address{bob, carol}, forAlice.Addresses)
	assert.EqualValues(t, 20, forAlice.Total)
}

func TestDepositRules(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	// wrong beneficiary wins over every donor check
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, dave, bob), domain.ErrNotThisMembersRound)
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, carol, bob), domain.ErrNotThisMembersRound)
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, carol, ""), domain.ErrNotThisMembersRound)

	assert.ErrorIs(t, f.purse.DepositDonation(ctx, dave, alice), domain.ErrNotMember)
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, alice, alice), domain.ErrSelfDonation)

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, bob, alice), domain.ErrAlreadyDonated)
	assert.Len(t, f.purse.CurrentDonations(), 1)
	assert.EqualValues(t, 90, f.ledger.balance(bob))
}

func TestDepositTransferFailureLeavesNoRecord(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()
	f.ledger.balances[bob] = 5

	err := f.purse.DepositDonation(ctx, bob, alice)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, f.purse.CurrentDonations())
	assert.EqualValues(t, 5, f.ledger.balance(bob))
}

func TestClaimRules(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	_, err := f.purse.ClaimDonations(ctx, bob)
	assert.ErrorIs(t, err, domain.ErrNotThisMembersRound)
	_, err = f.purse.ClaimDonations(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrRoundNotComplete)
}

func TestClaimRequiresFullRoster(t *testing.T) {
	f := newCircle(t, false, purse.Policy{})
	ctx := context.Background()

	// alone in the circle: nobody could have donated yet
	_, err := f.purse.ClaimDonations(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrRoundNotComplete)
	assert.False(t, f.purse.ClaimEligibility().Complete)
	assert.Equal(t, 1, f.purse.RoundIndex())

	// two of three seated, the only other member pays
	require.NoError(t, f.purse.JoinPurse(bob, 2))
	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	_, err = f.purse.ClaimDonations(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrRoundNotComplete)
	e := f.purse.ClaimEligibility()
	assert.False(t, e.Complete)
	assert.False(t, e.Eligible)
	assert.Zero(t, f.purse.HistoryLen())

	// a vote still lets the round through, recorded as a quorum claim
	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(bob, alice))
	amount, err := f.purse.ClaimDonations(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 10, amount)

	history := f.purse.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.OutcomeQuorum, history[0].Outcome)
	assert.True(t, history[0].Quorum)
	assert.Equal(t, []domain.Address{bob}, history[0].Donors)

	// the remaining open slot is still joinable
	require.NoError(t, f.purse.JoinPurse(carol, 3))
}

func TestEmptyBeneficiarySlotLapses(t *testing.T) {
	clock := purse.NewManualClock(start)
	ledger := newMemLedger(alice, bob)
	p, err := purse.New("gap", purse.Params{ContributionAmount: 10, MaxMembers: 3, RoundDuration: week, Token: token},
		1, alice, purse.Deps{Clock: clock, Ledger: ledger})
	require.NoError(t, err)
	require.NoError(t, p.JoinPurse(bob, 3))
	ctx := context.Background()

	// round 1 lapses without bob paying alice
	clock.Advance(week)
	assert.Equal(t, 1, p.AdvanceRounds())

	details, err := p.CurrentRoundDetails()
	require.NoError(t, err)
	assert.Equal(t, 2, details.RoundIndex)
	assert.Empty(t, details.Beneficiary)

	// nobody can give to or collect from an empty slot
	assert.ErrorIs(t, p.DepositDonation(ctx, bob, ""), domain.ErrNotThisMembersRound)
	_, err = p.ClaimDonations(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrNotThisMembersRound)
	_, err = p.ClaimDonations(ctx, bob)
	assert.ErrorIs(t, err, domain.ErrNotThisMembersRound)

	clock.Advance(week)
	assert.Equal(t, 1, p.AdvanceRounds())

	history := p.History()
	require.Len(t, history, 2)
	assert.Equal(t, domain.OutcomeLapsed, history[0].Outcome)
	assert.Equal(t, []domain.Address{bob}, history[0].NonDonors)
	assert.Empty(t, history[1].Beneficiary)
	assert.Equal(t, domain.OutcomeLapsed, history[1].Outcome)
	assert.Zero(t, history[1].HeldAmount)

	// the beneficiary-less round is left out of both audit views
	missed := p.CalculateMissedDonationByUser(bob)
	assert.Equal(t, []domain.Address{alice}, missed.Addresses)
	assert.EqualValues(t, 10, missed.Total)
	missed = p.CalculateMissedDonationByUser(alice)
	assert.Empty(t, missed.Addresses)
	assert.Zero(t, missed.Total)
	missed = p.CalculateMissedDonationForUser(alice)
	assert.Equal(t, []domain.Address{bob}, missed.Addresses)
	assert.Equal(t, 3, p.RoundIndex())
}

func TestJoinRules(t *testing.T) {
	f := newCircle(t, false, purse.Policy{})

	require.NoError(t, f.purse.JoinPurse(bob, 3))
	assert.ErrorIs(t, f.purse.JoinPurse(bob, 2), domain.ErrAlreadyMember)
	assert.ErrorIs(t, f.purse.JoinPurse(carol, 3), domain.ErrPositionTaken)
	assert.ErrorIs(t, f.purse.JoinPurse(carol, 0), domain.ErrInvalidPosition)
	assert.ErrorIs(t, f.purse.JoinPurse(carol, 4), domain.ErrInvalidPosition)
	assert.Equal(t, []domain.Address{alice, bob}, f.purse.PurseMembers())

	require.NoError(t, f.purse.JoinPurse(carol, 2))
	assert.Equal(t, []domain.Address{alice, carol, bob}, f.purse.PurseMembers())

	// full: every further join fails the same way, whatever the slot
	assert.ErrorIs(t, f.purse.JoinPurse(dave, 2), domain.ErrPurseFull)
	assert.ErrorIs(t, f.purse.JoinPurse(dave, 9), domain.ErrPurseFull)
	assert.Len(t, f.purse.PurseMembers(), 3)
	assert.Equal(t, 2, f.purse.MemberPosition(carol))
}

func TestJoinRejectsClosedSlot(t *testing.T) {
	clock := purse.NewManualClock(start)
	p, err := purse.New("c", purse.Params{ContributionAmount: 10, MaxMembers: 3, RoundDuration: week, Token: token},
		3, alice, purse.Deps{Clock: clock})
	require.NoError(t, err)

	clock.Advance(week + time.Hour)
	assert.ErrorIs(t, p.JoinPurse(bob, 1), domain.ErrInvalidPosition)
	require.NoError(t, p.JoinPurse(bob, 2))
}

func TestLazyAdvancement(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	f.clock.Advance(week + 2*24*time.Hour)

	// queries project without applying
	details, err := f.purse.CurrentRoundDetails()
	require.NoError(t, err)
	assert.Equal(t, 2, details.RoundIndex)
	assert.Equal(t, bob, details.Beneficiary)
	assert.Equal(t, start.Add(2*week), details.Deadline)
	assert.Equal(t, 1, f.purse.RoundIndex())
	assert.Zero(t, f.purse.HistoryLen())

	// the next mutating call applies the lapse before running
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, bob, alice), domain.ErrNotThisMembersRound)
	assert.Equal(t, 2, f.purse.RoundIndex())
	assert.Equal(t, start.Add(week), f.purse.RoundStart())

	history := f.purse.History()
	require.Len(t, history, 1)
	assert.Equal(t, domain.OutcomeLapsed, history[0].Outcome)
	assert.EqualValues(t, 10, history[0].HeldAmount)
	assert.Equal(t, []domain.Address{carol}, history[0].NonDonors)

	require.NoError(t, f.purse.DepositDonation(ctx, alice, bob))
}

func TestWithdrawHeldDonations(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	require.NoError(t, f.purse.DepositDonation(ctx, carol, alice))
	f.clock.Advance(week)
	f.purse.AdvanceRounds()

	assert.EqualValues(t, 20, f.purse.HeldFor(alice))
	before := f.ledger.balance(alice)
	f.purse.DrainEvents()
	amount, err := f.purse.WithdrawHeldDonations(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 20, amount)
	assert.Equal(t, before+20, f.ledger.balance(alice))

	events := f.purse.DrainEvents()
	require.Len(t, events, 1)
	claimed, ok := events[0].(purse.DonationClaimed)
	require.True(t, ok)
	assert.Equal(t, 1, claimed.RoundIndex)
	assert.EqualValues(t, 20, claimed.Amount)
	assert.Equal(t, domain.OutcomeLapsed, claimed.Outcome)

	amount, err = f.purse.WithdrawHeldDonations(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, amount)

	_, err = f.purse.WithdrawHeldDonations(ctx, dave)
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestCircleCompletes(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()
	members := []domain.Address{alice, bob, carol}

	for round, beneficiary := range members {
		for _, donor := range members {
			if donor != beneficiary {
				require.NoError(t, f.purse.DepositDonation(ctx, donor, beneficiary), "round %d", round+1)
			}
		}
		_, err := f.purse.ClaimDonations(ctx, beneficiary)
		require.NoError(t, err)
	}

	assert.Equal(t, 4, f.purse.RoundIndex())
	assert.Equal(t, domain.PurseCompleted, f.purse.Status())
	_, err := f.purse.CurrentRoundDetails()
	assert.ErrorIs(t, err, domain.ErrCircleCompleted)
	assert.ErrorIs(t, f.purse.DepositDonation(ctx, alice, carol), domain.ErrCircleCompleted)
	_, err = f.purse.ClaimDonations(ctx, carol)
	assert.ErrorIs(t, err, domain.ErrCircleCompleted)
	assert.ErrorIs(t, f.purse.JoinPurse(dave, 1), domain.ErrCircleCompleted)

	// time passing after completion changes nothing
	f.clock.Advance(10 * week)
	assert.Zero(t, f.purse.AdvanceRounds())
	assert.Equal(t, 4, f.purse.RoundIndex())
	for _, m := range members {
		assert.EqualValues(t, 100, f.ledger.balance(m))
	}
}

func TestStatus(t *testing.T) {
	clock := purse.NewManualClock(start)
	p, err := purse.New("c", purse.Params{ContributionAmount: 10, MaxMembers: 3, RoundDuration: week, Token: token},
		2, alice, purse.Deps{Clock: clock})
	require.NoError(t, err)
	assert.Equal(t, domain.PurseOpen, p.Status())

	clock.Advance(week)
	assert.Equal(t, domain.PurseActive, p.Status())
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	ctx := context.Background()

	require.NoError(t, f.purse.DepositDonation(ctx, bob, alice))
	require.NoError(t, f.purse.ApproveToClaimWithoutCompleteVotes(carol, alice))
	_, err := f.purse.ClaimDonations(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, f.purse.DepositDonation(ctx, carol, bob))

	state := f.purse.Snapshot()
	restored, err := purse.Restore(state, purse.Deps{Clock: f.clock, Ledger: f.ledger})
	require.NoError(t, err)
	assert.Equal(t, state, restored.Snapshot())

	require.NoError(t, restored.DepositDonation(ctx, alice, bob))
	_, err = restored.ClaimDonations(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, 2, f.purse.RoundIndex())
	assert.Equal(t, 3, restored.RoundIndex())
}

func TestRestoreRejectsCorruptState(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	state := f.purse.Snapshot()
	state.Slots = state.Slots[:2]
	_, err := purse.Restore(state, purse.Deps{})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)
}

func TestRoundIndexNeverPassesTerminal(t *testing.T) {
	f := newCircle(t, false, purse.Policy{})
	last := f.purse.RoundIndex()
	for i := 0; i < 10; i++ {
		f.clock.Advance(week / 2)
		f.purse.AdvanceRounds()
		assert.GreaterOrEqual(t, f.purse.RoundIndex(), last)
		assert.LessOrEqual(t, f.purse.RoundIndex(), 4)
		last = f.purse.RoundIndex()
	}
	assert.Equal(t, 4, last)
}

func TestHandleRollsBackFailedUpdate(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	rec := &recorder{}
	h := purse.NewHandle(f.purse, rec)
	ctx := context.Background()
	boom := errors.New("storage down")

	err := h.Update(ctx, func(p *purse.Purse) error {
		if err := p.DepositDonation(ctx, bob, alice); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	h.View(func(p *purse.Purse) {
		assert.Empty(t, p.CurrentDonations())
	})
	assert.Empty(t, rec.names())

	require.NoError(t, h.Update(ctx, func(p *purse.Purse) error {
		return p.DepositDonation(ctx, bob, alice)
	}))
	assert.Equal(t, []string{"DonationDeposited"}, rec.names())
}

func TestHandleSerializesConcurrentClaims(t *testing.T) {
	f := newCircle(t, true, purse.Policy{})
	h := purse.NewHandle(f.purse, nil)
	ctx := context.Background()

	require.NoError(t, h.Update(ctx, func(p *purse.Purse) error { return p.DepositDonation(ctx, bob, alice) }))
	require.NoError(t, h.Update(ctx, func(p *purse.Purse) error { return p.DepositDonation(ctx, carol, alice) }))

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- h.Update(ctx, func(p *purse.Purse) error {
				_, err := p.ClaimDonations(ctx, alice)
				return err
			})
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrNotThisMembersRound)
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.EqualValues(t, 120, f.ledger.balance(alice))
}
