package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"purse-circle/internal/adapters/persistence/repositories"
	"purse-circle/internal/config"
	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"

	"gorm.io/gorm"
)

// DefaultPurseType labels purses created without one
const DefaultPurseType = "standard"

// errUnchanged aborts a commit that has nothing to write
var errUnchanged = errors.New("purse unchanged")

// PurseService runs purse operations against the live registry and keeps
// storage in step. Every mutation commits engine state, the ledger transfer
// and the stored snapshot together.
type PurseService struct {
	db        *gorm.DB
	factory   *purse.Factory
	purseRepo repositories.PurseRepository
	audit     *AuditService
	metrics   *Metrics
	cfg       config.PurseConfig
}

// NewPurseService creates a new purse service. clock may be nil.
func NewPurseService(
	db *gorm.DB,
	purseRepo repositories.PurseRepository,
	ledger purse.Ledger,
	audit *AuditService,
	notifier purse.Notifier,
	metrics *Metrics,
	cfg config.PurseConfig,
	clock purse.Clock,
) *PurseService {
	deps := purse.Deps{
		Clock:  clock,
		Ledger: ledger,
		Policy: purse.Policy{QuorumThreshold: cfg.QuorumThreshold},
	}
	return &PurseService{
		db:        db,
		factory:   purse.NewFactory(deps, notifier),
		purseRepo: purseRepo,
		audit:     audit,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Factory exposes the registry
func (s *PurseService) Factory() *purse.Factory {
	return s.factory
}

// Load restores every stored purse into the registry
func (s *PurseService) Load(ctx context.Context) (int, error) {
	states, err := s.purseRepo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, state := range states {
		if _, err := s.factory.Get(state.ID); err == nil {
			continue
		}
		if _, err := s.factory.Restore(state); err != nil {
			log.Printf("⚠️ Skipping stored purse %s: %v", state.ID, err)
			continue
		}
		loaded++
	}
	log.Printf("✅ Restored %d purses", loaded)
	return loaded, nil
}

// Create builds a purse for creator, stores it and registers it
func (s *PurseService) Create(ctx context.Context, creator domain.Address, input *CreatePurseInput) (*PurseView, error) {
	token := input.Token
	if token == "" {
		token = s.cfg.DefaultToken
	}
	purseType := input.PurseType
	if purseType == "" {
		purseType = DefaultPurseType
	}

	p, err := s.factory.Build(purse.CreateInput{
		Creator:            creator,
		ContributionAmount: input.ContributionAmount,
		MaxMembers:         input.MaxMembers,
		RoundDurationDays:  input.RoundDurationDays,
		StartPosition:      input.StartPosition,
		Token:              token,
		PurseType:          purseType,
	})
	if err != nil {
		s.metrics.operationFailed("create")
		return nil, err
	}

	err = repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
		return s.purseRepo.Save(ctx, p.Snapshot(), p.Status())
	})
	if err != nil {
		s.metrics.operationFailed("create")
		return nil, fmt.Errorf("failed to store purse: %w", err)
	}

	h, err := s.factory.Adopt(p)
	if err != nil {
		return nil, err
	}
	s.factory.Announce(ctx, h)

	var view *PurseView
	h.View(func(p *purse.Purse) { view = viewOf(p) })
	return view, nil
}

// Join seats caller at position
func (s *PurseService) Join(ctx context.Context, id string, caller domain.Address, position int) error {
	return s.mutate(ctx, id, "join", func(ctx context.Context, p *purse.Purse) error {
		return p.JoinPurse(caller, position)
	})
}

// Deposit donates caller's contribution to beneficiary
func (s *PurseService) Deposit(ctx context.Context, id string, caller, beneficiary domain.Address) error {
	return s.mutate(ctx, id, "deposit", func(ctx context.Context, p *purse.Purse) error {
		return p.DepositDonation(ctx, caller, beneficiary)
	})
}

// Approve records caller's approval for an early claim
func (s *PurseService) Approve(ctx context.Context, id string, caller, beneficiary domain.Address) error {
	return s.mutate(ctx, id, "approve", func(ctx context.Context, p *purse.Purse) error {
		return p.ApproveToClaimWithoutCompleteVotes(caller, beneficiary)
	})
}

// Claim pays the open round out to caller and returns the amount
func (s *PurseService) Claim(ctx context.Context, id string, caller domain.Address) (int64, error) {
	var amount int64
	err := s.mutate(ctx, id, "claim", func(ctx context.Context, p *purse.Purse) error {
		var err error
		amount, err = p.ClaimDonations(ctx, caller)
		return err
	})
	return amount, err
}

// WithdrawHeld pays out caller's funds from lapsed rounds
func (s *PurseService) WithdrawHeld(ctx context.Context, id string, caller domain.Address) (int64, error) {
	var amount int64
	err := s.mutate(ctx, id, "withdraw_held", func(ctx context.Context, p *purse.Purse) error {
		var err error
		amount, err = p.WithdrawHeldDonations(ctx, caller)
		if err == nil && amount == 0 {
			return errUnchanged
		}
		return err
	})
	if errors.Is(err, errUnchanged) {
		return 0, nil
	}
	return amount, err
}

// Advance closes lapsed rounds of one purse and returns how many closed
func (s *PurseService) Advance(ctx context.Context, id string) (int, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return 0, err
	}
	return s.advance(ctx, h)
}

// AdvanceAll closes lapsed rounds on every live purse
func (s *PurseService) AdvanceAll(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, h := range s.factory.List() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		var done bool
		h.View(func(p *purse.Purse) { done = p.RoundIndex() > p.Params().MaxMembers })
		if done {
			continue
		}
		n, err := s.advance(ctx, h)
		if err != nil {
			errs = append(errs, fmt.Errorf("purse %s: %w", h.ID(), err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// Get returns the summary of one purse
func (s *PurseService) Get(id string) (*PurseView, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return nil, err
	}
	var view *PurseView
	h.View(func(p *purse.Purse) { view = viewOf(p) })
	return view, nil
}

// Members returns the roster in position order
func (s *PurseService) Members(id string) ([]MemberView, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return nil, err
	}
	var members []MemberView
	h.View(func(p *purse.Purse) { members = membersOf(p) })
	return members, nil
}

// Round returns the round open as of now
func (s *PurseService) Round(id string) (*RoundView, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return nil, err
	}
	var (
		round    *RoundView
		roundErr error
	)
	h.View(func(p *purse.Purse) {
		details, err := p.CurrentRoundDetails()
		if err != nil {
			roundErr = err
			return
		}
		round = roundOf(p, details)
	})
	return round, roundErr
}

// History returns the closed rounds, oldest first
func (s *PurseService) History(id string) ([]ClosedRoundView, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return nil, err
	}
	var history []purse.ClosedRound
	h.View(func(p *purse.Purse) { history = p.History() })

	out := make([]ClosedRoundView, 0, len(history))
	for _, r := range history {
		out = append(out, toClosedRoundView(r))
	}
	return out, nil
}

// MissedFor reports the members who skipped donating to beneficiary
func (s *PurseService) MissedFor(id string, beneficiary domain.Address) (*AuditView, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return nil, err
	}
	m := s.audit.MissedFor(h, beneficiary)
	return &AuditView{Address: beneficiary, Direction: string(auditFor), Addresses: m.Addresses, Total: m.Total}, nil
}

// MissedBy reports the beneficiaries donor skipped
func (s *PurseService) MissedBy(id string, donor domain.Address) (*AuditView, error) {
	h, err := s.factory.Get(id)
	if err != nil {
		return nil, err
	}
	m := s.audit.MissedBy(h, donor)
	return &AuditView{Address: donor, Direction: string(auditBy), Addresses: m.Addresses, Total: m.Total}, nil
}

// List lists purses with pagination, newest first
func (s *PurseService) List(ctx context.Context, offset, limit int) ([]*PurseView, int64, error) {
	rows, total, err := s.purseRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*PurseView, 0, len(rows))
	for _, row := range rows {
		view, err := s.Get(row.ID)
		if err != nil {
			continue
		}
		views = append(views, view)
	}
	return views, total, nil
}

// ListByMember lists the purses in which address holds a slot
func (s *PurseService) ListByMember(ctx context.Context, address domain.Address) ([]*PurseView, error) {
	rows, err := s.purseRepo.ListByMember(ctx, string(address))
	if err != nil {
		return nil, err
	}
	views := make([]*PurseView, 0, len(rows))
	for _, row := range rows {
		view, err := s.Get(row.ID)
		if err != nil {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// mutate settles lapsed rounds in their own commit, then runs op.
// A rejected op therefore never undoes round advancement.
func (s *PurseService) mutate(ctx context.Context, id, opName string, op func(ctx context.Context, p *purse.Purse) error) error {
	h, err := s.factory.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.advance(ctx, h); err != nil {
		s.metrics.operationFailed(opName)
		return err
	}
	if err := s.commit(ctx, h, op); err != nil {
		if !errors.Is(err, errUnchanged) {
			s.metrics.operationFailed(opName)
		}
		return err
	}
	return nil
}

func (s *PurseService) advance(ctx context.Context, h *purse.Handle) (int, error) {
	closed := 0
	err := s.commit(ctx, h, func(ctx context.Context, p *purse.Purse) error {
		closed = p.AdvanceRounds()
		if closed == 0 {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return closed, nil
}

// commit runs op and saves the resulting snapshot in one transaction.
// On any error the handle restores the purse and the transaction rolls back.
func (s *PurseService) commit(ctx context.Context, h *purse.Handle, op func(ctx context.Context, p *purse.Purse) error) error {
	return h.Update(ctx, func(p *purse.Purse) error {
		return repositories.RunInTx(ctx, s.db, func(ctx context.Context) error {
			if err := op(ctx, p); err != nil {
				return err
			}
			return s.purseRepo.Save(ctx, p.Snapshot(), p.Status())
		})
	})
}
