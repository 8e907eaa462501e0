package services

import (
	"context"
	"testing"
	"time"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/adapters/persistence/repositories"
	"purse-circle/internal/config"
	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	alice = domain.Address("alice")
	bob   = domain.Address("bob")
	carol = domain.Address("carol")
	token = "USDT"
	week  = 7 * 24 * time.Hour
)

var start = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	clock     *purse.ManualClock
	ledger    repositories.LedgerRepository
	purseRepo repositories.PurseRepository
	metrics   *Metrics
	audit     *AuditService
	purses    *PurseService
	cfg       config.PurseConfig
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:    openTestDB(t),
		clock: purse.NewManualClock(start),
		cfg: config.PurseConfig{
			QuorumThreshold: 1,
			SweepSchedule:   "@every 1m",
			SweepTimeout:    5 * time.Second,
			AuditCacheSize:  16,
			DefaultToken:    token,
			SeedBalance:     100,
		},
	}
	f.ledger = repositories.NewLedgerRepository(f.db)
	f.purseRepo = repositories.NewPurseRepository(f.db)
	f.purses = f.newPurseService(t)

	ctx := context.Background()
	for _, addr := range []domain.Address{alice, bob, carol} {
		require.NoError(t, f.ledger.Credit(ctx, token, addr, 100))
	}
	return f
}

// newPurseService builds a service over the fixture's database, as a restart would
func (f *fixture) newPurseService(t *testing.T) *PurseService {
	t.Helper()
	var err error
	f.metrics = NewMetrics(prometheus.NewRegistry())
	f.audit, err = NewAuditService(f.cfg.AuditCacheSize)
	require.NoError(t, err)
	notifier := NewNotificationService(f.metrics, false)
	return NewPurseService(f.db, f.purseRepo, f.ledger, f.audit, notifier, f.metrics, f.cfg, f.clock)
}

func (f *fixture) balance(t *testing.T, addr domain.Address) int64 {
	t.Helper()
	amount, err := f.ledger.BalanceOf(context.Background(), token, addr)
	require.NoError(t, err)
	return amount
}

// createCircle creates a 3-member weekly purse with alice at 1 and
// seats the given members at positions 2 and 3 in order.
func (f *fixture) createCircle(t *testing.T, others ...domain.Address) *PurseView {
	t.Helper()
	ctx := context.Background()
	view, err := f.purses.Create(ctx, alice, &CreatePurseInput{
		ContributionAmount: 10,
		MaxMembers:         3,
		RoundDurationDays:  7,
		StartPosition:      1,
	})
	require.NoError(t, err)
	for i, m := range others {
		require.NoError(t, f.purses.Join(ctx, view.ID, m, i+2))
	}
	return view
}

func TestPurseServiceCreateDefaults(t *testing.T) {
	f := newFixture(t)
	view := f.createCircle(t)

	assert.Equal(t, token, view.Token)
	assert.Equal(t, DefaultPurseType, view.PurseType)
	assert.Equal(t, 7, view.RoundDurationDays)
	assert.Equal(t, domain.PurseActive, view.Status)
	assert.Equal(t, []MemberView{{Address: alice, Position: 1}}, view.Members)
	require.NotNil(t, view.Round)
	assert.Equal(t, alice, view.Round.Beneficiary)
	assert.Equal(t, start.Add(week), view.Round.Deadline)

	stored, err := f.purseRepo.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{alice, "", ""}, stored.Slots)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.pursesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.membersJoined))
}

func TestPurseServiceRejectsInvalidCreate(t *testing.T) {
	f := newFixture(t)
	_, err := f.purses.Create(context.Background(), alice, &CreatePurseInput{
		ContributionAmount: 10,
		MaxMembers:         1,
		RoundDurationDays:  7,
		StartPosition:      1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidParameters)

	_, total, err := f.purseRepo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, f.purses.Factory().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.operationErrors.WithLabelValues("create")))
}

func TestPurseServiceFullRoundAndRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createCircle(t, bob, carol)

	require.NoError(t, f.purses.Deposit(ctx, view.ID, bob, alice))
	require.NoError(t, f.purses.Deposit(ctx, view.ID, carol, alice))

	round, err := f.purses.Round(view.ID)
	require.NoError(t, err)
	assert.Len(t, round.Donations, 2)
	assert.True(t, round.Eligibility.Complete)

	amount, err := f.purses.Claim(ctx, view.ID, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 20, amount)

	assert.EqualValues(t, 120, f.balance(t, alice))
	assert.EqualValues(t, 90, f.balance(t, bob))
	assert.EqualValues(t, 90, f.balance(t, carol))
	assert.Zero(t, f.balance(t, domain.Address("purse:"+view.ID)))

	// a fresh service sees exactly what was committed
	restarted := f.newPurseService(t)
	n, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := restarted.Get(view.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Round)
	assert.Equal(t, 2, got.Round.RoundIndex)
	assert.Equal(t, bob, got.Round.Beneficiary)
	assert.Equal(t, start.Add(2*week), got.Round.Deadline)

	history, err := restarted.History(view.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OutcomeClaimed, history[0].Outcome)
	assert.EqualValues(t, 20, history[0].ClaimedAmount)
	assert.Equal(t, []domain.Address{}, history[0].NonDonors)
}

func TestPurseServiceTransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dave := domain.Address("dave")
	require.NoError(t, f.ledger.Credit(ctx, token, dave, 5))
	view := f.createCircle(t, dave)

	err := f.purses.Deposit(ctx, view.ID, dave, alice)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.EqualValues(t, 5, f.balance(t, dave))
	assert.Zero(t, f.balance(t, domain.Address("purse:"+view.ID)))

	round, err := f.purses.Round(view.ID)
	require.NoError(t, err)
	assert.Empty(t, round.Donations)

	stored, err := f.purseRepo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Donations)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.operationErrors.WithLabelValues("deposit")))
}

func TestPurseServiceQuorumClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createCircle(t, bob, carol)

	require.NoError(t, f.purses.Deposit(ctx, view.ID, bob, alice))
	_, err := f.purses.Claim(ctx, view.ID, alice)
	assert.ErrorIs(t, err, domain.ErrRoundNotComplete)

	require.NoError(t, f.purses.Approve(ctx, view.ID, bob, alice))
	assert.ErrorIs(t, f.purses.Approve(ctx, view.ID, bob, alice), domain.ErrAlreadyApproved)

	amount, err := f.purses.Claim(ctx, view.ID, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 10, amount)

	history, err := f.purses.History(view.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Quorum)
	assert.Equal(t, []domain.Address{carol}, history[0].NonDonors)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.claims.WithLabelValues("quorum")))
}

func TestPurseServiceLapsedRoundIsPersistedBeforeRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createCircle(t, bob, carol)

	require.NoError(t, f.purses.Deposit(ctx, view.ID, bob, alice))
	f.clock.Advance(week + time.Hour)

	// alice's round has lapsed; donating to her now is the wrong round
	err := f.purses.Deposit(ctx, view.ID, carol, alice)
	assert.ErrorIs(t, err, domain.ErrNotThisMembersRound)

	stored, err := f.purseRepo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.RoundIndex)
	require.Len(t, stored.History, 1)
	assert.Equal(t, domain.OutcomeLapsed, stored.History[0].Outcome)
	assert.Equal(t, []purse.HeldFunds{{RoundIndex: 1, Beneficiary: alice, Amount: 10}}, stored.Held)

	got, err := f.purses.Get(view.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.HeldTotal)

	withdrawn, err := f.purses.WithdrawHeld(ctx, view.ID, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 10, withdrawn)
	assert.EqualValues(t, 110, f.balance(t, alice))

	withdrawn, err = f.purses.WithdrawHeld(ctx, view.ID, alice)
	require.NoError(t, err)
	assert.Zero(t, withdrawn)

	_, err = f.purses.WithdrawHeld(ctx, view.ID, domain.Address("mallory"))
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestPurseServiceAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createCircle(t, bob, carol)

	require.NoError(t, f.purses.Deposit(ctx, view.ID, bob, alice))
	require.NoError(t, f.purses.Approve(ctx, view.ID, bob, alice))
	_, err := f.purses.Claim(ctx, view.ID, alice)
	require.NoError(t, err)

	missed, err := f.purses.MissedFor(view.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{carol}, missed.Addresses)
	assert.EqualValues(t, 10, missed.Total)
	assert.Equal(t, 1, f.audit.Len())

	// cached answer is identical and the cache does not grow
	again, err := f.purses.MissedFor(view.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, missed, again)
	assert.Equal(t, 1, f.audit.Len())

	by, err := f.purses.MissedBy(view.ID, carol)
	require.NoError(t, err)
	assert.Equal(t, []domain.Address{alice}, by.Addresses)
	assert.Equal(t, "by", by.Direction)

	_, err = f.purses.MissedFor("missing", alice)
	assert.ErrorIs(t, err, domain.ErrPurseNotFound)
}

func TestPurseServiceListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createCircle(t, bob)
	f.clock.Advance(time.Minute)
	second := f.createCircle(t)

	views, total, err := f.purses.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID)

	mine, err := f.purses.ListByMember(ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	members, err := f.purses.Members(first.ID)
	require.NoError(t, err)
	assert.Equal(t, []MemberView{{alice, 1}, {bob, 2}}, members)
}

func TestRoundSweeperClosesLapsedRounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view := f.createCircle(t, bob, carol)
	sweeper := NewRoundSweeper(f.purses, f.metrics, f.cfg.SweepSchedule, f.cfg.SweepTimeout)

	assert.Zero(t, sweeper.Sweep(ctx))

	f.clock.Advance(3*week + time.Hour)
	assert.Equal(t, 3, sweeper.Sweep(ctx))
	assert.Zero(t, sweeper.Sweep(ctx))

	got, err := f.purses.Get(view.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PurseCompleted, got.Status)
	assert.Nil(t, got.Round)

	_, err = f.purses.Round(view.ID)
	assert.ErrorIs(t, err, domain.ErrCircleCompleted)

	stored, err := f.purseRepo.GetByID(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.RoundIndex)
	assert.Len(t, stored.History, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.sweepRounds))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.circlesComplete))
}

func TestRoundSweeperStartStop(t *testing.T) {
	f := newFixture(t)
	ignore := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, ignore)

	sweeper := NewRoundSweeper(f.purses, f.metrics, "@every 1h", time.Second)
	require.NoError(t, sweeper.Start())
	require.NoError(t, sweeper.Start())
	sweeper.Stop()
	sweeper.Stop()

	bad := NewRoundSweeper(f.purses, f.metrics, "not a schedule", time.Second)
	assert.Error(t, bad.Start())
}

func TestNotificationServiceFansOut(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	svc := NewNotificationService(metrics, true)
	var got []string
	svc.Subscribe(purse.NotifierFunc(func(_ context.Context, e purse.Event) {
		got = append(got, e.EventName())
	}))

	svc.Notify(context.Background(), purse.DonationDeposited{PurseID: "p", Donor: bob, Beneficiary: alice, Amount: 10, RoundIndex: 1})
	svc.Notify(context.Background(), purse.RoundAdvanced{PurseID: "p", NewRoundIndex: 4, Completed: true})

	assert.Equal(t, []string{"DonationDeposited", "RoundAdvanced"}, got)
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.donatedAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.circlesComplete))
}
