package repositories

import (
	"context"
	"time"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// purseRepository implements PurseRepository interface
type purseRepository struct {
	db *gorm.DB
}

// NewPurseRepository creates a new purse repository
func NewPurseRepository(db *gorm.DB) PurseRepository {
	return &purseRepository{db: db}
}

// Save writes the full snapshot. Open-round tables are replaced; closed
// rounds are only ever inserted.
func (r *purseRepository) Save(ctx context.Context, state purse.State, status domain.PurseStatus) error {
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)

		row := &models.Purse{
			ID:                   state.ID,
			Creator:              string(state.Creator),
			ContributionAmount:   state.Params.ContributionAmount,
			MaxMembers:           state.Params.MaxMembers,
			RoundDurationSeconds: int64(state.Params.RoundDuration / time.Second),
			Token:                state.Params.Token,
			PurseType:            state.Params.PurseType,
			RoundIndex:           state.RoundIndex,
			RoundStart:           state.RoundStart,
			Status:               string(status),
			CreatedAt:            state.CreatedAt,
		}
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
			return err
		}

		members := make([]models.PurseMember, 0, len(state.Slots))
		for i, addr := range state.Slots {
			if addr != "" {
				members = append(members, models.PurseMember{PurseID: state.ID, Position: i + 1, Address: string(addr)})
			}
		}
		if err := replace(db, state.ID, &models.PurseMember{}, &members, len(members)); err != nil {
			return err
		}

		donations := make([]models.PurseDonation, 0, len(state.Donations))
		for _, d := range state.Donations {
			donations = append(donations, models.PurseDonation{
				PurseID:     state.ID,
				Donor:       string(d.Donor),
				Beneficiary: string(d.Beneficiary),
				Amount:      d.Amount,
				DonatedAt:   d.At,
			})
		}
		if err := replace(db, state.ID, &models.PurseDonation{}, &donations, len(donations)); err != nil {
			return err
		}

		approvals := make([]models.PurseApproval, 0, len(state.Approvals))
		for i, a := range state.Approvals {
			approvals = append(approvals, models.PurseApproval{PurseID: state.ID, Seq: i, Approver: string(a)})
		}
		if err := replace(db, state.ID, &models.PurseApproval{}, &approvals, len(approvals)); err != nil {
			return err
		}

		held := make([]models.PurseHeldFund, 0, len(state.Held))
		for _, h := range state.Held {
			held = append(held, models.PurseHeldFund{
				PurseID:     state.ID,
				RoundIndex:  h.RoundIndex,
				Beneficiary: string(h.Beneficiary),
				Amount:      h.Amount,
			})
		}
		if err := replace(db, state.ID, &models.PurseHeldFund{}, &held, len(held)); err != nil {
			return err
		}

		if len(state.History) == 0 {
			return nil
		}
		rounds := make([]models.PurseRound, 0, len(state.History))
		for _, h := range state.History {
			rounds = append(rounds, models.PurseRound{
				PurseID:       state.ID,
				RoundIndex:    h.Index,
				Beneficiary:   string(h.Beneficiary),
				Donors:        toStrings(h.Donors),
				NonDonors:     toStrings(h.NonDonors),
				ClaimedAmount: h.ClaimedAmount,
				HeldAmount:    h.HeldAmount,
				Quorum:        h.Quorum,
				Outcome:       string(h.Outcome),
				ClosedAt:      h.ClosedAt,
			})
		}
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rounds).Error
	})
}

// replace deletes every row of model for the purse and inserts rows
func replace(db *gorm.DB, purseID string, model interface{}, rows interface{}, n int) error {
	if err := db.Where("purse_id = ?", purseID).Delete(model).Error; err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return db.Create(rows).Error
}

// GetByID loads one purse snapshot
func (r *purseRepository) GetByID(ctx context.Context, id string) (*purse.State, error) {
	var row models.Purse
	err := r.withChildren(conn(ctx, r.db)).Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, err
	}
	state := toState(&row)
	return &state, nil
}

// LoadAll loads every stored purse in creation order
func (r *purseRepository) LoadAll(ctx context.Context) ([]purse.State, error) {
	var rows []*models.Purse
	err := r.withChildren(conn(ctx, r.db)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	states := make([]purse.State, 0, len(rows))
	for _, row := range rows {
		states = append(states, toState(row))
	}
	return states, nil
}

// List lists purse summaries with pagination, newest first
func (r *purseRepository) List(ctx context.Context, offset, limit int) ([]*models.Purse, int64, error) {
	var purses []*models.Purse
	var total int64

	if err := conn(ctx, r.db).Model(&models.Purse{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := conn(ctx, r.db).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&purses).Error

	return purses, total, err
}

// ListByMember lists purses in which address holds a slot
func (r *purseRepository) ListByMember(ctx context.Context, address string) ([]*models.Purse, error) {
	var purses []*models.Purse
	err := conn(ctx, r.db).
		Select("purses.*").
		Joins("JOIN purse_members ON purse_members.purse_id = purses.id").
		Where("purse_members.address = ?", address).
		Order("purses.created_at DESC").
		Find(&purses).Error
	return purses, err
}

func (r *purseRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Members").
		Preload("Donations", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Rounds", func(db *gorm.DB) *gorm.DB { return db.Order("round_index ASC") }).
		Preload("HeldFunds", func(db *gorm.DB) *gorm.DB { return db.Order("round_index ASC") })
}

func toState(row *models.Purse) purse.State {
	state := purse.State{
		ID:      row.ID,
		Creator: domain.Address(row.Creator),
		Params: purse.Params{
			ContributionAmount: row.ContributionAmount,
			MaxMembers:         row.MaxMembers,
			RoundDuration:      time.Duration(row.RoundDurationSeconds) * time.Second,
			Token:              row.Token,
			PurseType:          row.PurseType,
		},
		CreatedAt:  row.CreatedAt,
		Slots:      make([]domain.Address, row.MaxMembers),
		RoundIndex: row.RoundIndex,
		RoundStart: row.RoundStart,
	}
	for _, m := range row.Members {
		if m.Position >= 1 && m.Position <= row.MaxMembers {
			state.Slots[m.Position-1] = domain.Address(m.Address)
		}
	}
	for _, d := range row.Donations {
		state.Donations = append(state.Donations, purse.Donation{
			Donor:       domain.Address(d.Donor),
			Beneficiary: domain.Address(d.Beneficiary),
			Amount:      d.Amount,
			At:          d.DonatedAt,
		})
	}
	for _, a := range row.Approvals {
		state.Approvals = append(state.Approvals, domain.Address(a.Approver))
	}
	for _, rd := range row.Rounds {
		state.History = append(state.History, purse.ClosedRound{
			Index:         rd.RoundIndex,
			Beneficiary:   domain.Address(rd.Beneficiary),
			Donors:        toAddresses(rd.Donors),
			NonDonors:     toAddresses(rd.NonDonors),
			ClaimedAmount: rd.ClaimedAmount,
			HeldAmount:    rd.HeldAmount,
			Quorum:        rd.Quorum,
			Outcome:       domain.RoundOutcome(rd.Outcome),
			ClosedAt:      rd.ClosedAt,
		})
	}
	for _, h := range row.HeldFunds {
		state.Held = append(state.Held, purse.HeldFunds{
			RoundIndex:  h.RoundIndex,
			Beneficiary: domain.Address(h.Beneficiary),
			Amount:      h.Amount,
		})
	}
	return state
}

func toStrings(in []domain.Address) []string {
	out := make([]string, len(in))
	for i, a := range in {
		out[i] = string(a)
	}
	return out
}

func toAddresses(in []string) []domain.Address {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Address, len(in))
	for i, s := range in {
		out[i] = domain.Address(s)
	}
	return out
}
