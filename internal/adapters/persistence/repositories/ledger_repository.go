package repositories

import (
	"context"
	"errors"
	"fmt"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerRepository implements LedgerRepository on the token_balances table
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// TransferFrom moves amount from one holder to another.
// Debit and credit commit together or not at all.
func (r *ledgerRepository) TransferFrom(ctx context.Context, token string, from, to domain.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", domain.ErrInvalidInput)
	}
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)

		// conditional update keeps the balance check and the debit in one statement
		res := db.Model(&models.TokenBalance{}).
			Where("token = ? AND holder = ? AND amount >= ?", token, string(from), amount).
			Update("amount", gorm.Expr("amount - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s holds less than %d %s", domain.ErrInsufficientBalance, from, amount, token)
		}

		if err := r.credit(ctx, token, to, amount); err != nil {
			return err
		}
		return db.Create(&models.LedgerEntry{
			Token:    token,
			FromAddr: string(from),
			ToAddr:   string(to),
			Amount:   amount,
		}).Error
	})
}

// BalanceOf returns the balance of addr; unknown holders have zero
func (r *ledgerRepository) BalanceOf(ctx context.Context, token string, addr domain.Address) (int64, error) {
	var balance models.TokenBalance
	err := conn(ctx, r.db).
		Where("token = ? AND holder = ?", token, string(addr)).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance.Amount, nil
}

// Credit mints amount to a holder (admin top-up and seeding)
func (r *ledgerRepository) Credit(ctx context.Context, token string, to domain.Address, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidInput)
	}
	return RunInTx(ctx, r.db, func(ctx context.Context) error {
		if err := r.credit(ctx, token, to, amount); err != nil {
			return err
		}
		return conn(ctx, r.db).Create(&models.LedgerEntry{
			Token:  token,
			ToAddr: string(to),
			Amount: amount,
		}).Error
	})
}

func (r *ledgerRepository) credit(ctx context.Context, token string, to domain.Address, amount int64) error {
	row := &models.TokenBalance{Token: token, Holder: string(to), Amount: amount}
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}, {Name: "holder"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount": gorm.Expr("token_balances.amount + ?", amount),
		}),
	}).Create(row).Error
}

// Entries lists journal entries touching holder, newest first
func (r *ledgerRepository) Entries(ctx context.Context, token string, holder domain.Address, offset, limit int) ([]*models.LedgerEntry, int64, error) {
	var entries []*models.LedgerEntry
	var total int64

	touching := func(db *gorm.DB) *gorm.DB {
		return db.Where("token = ?", token).
			Where("(from_addr = ? OR to_addr = ?)", string(holder), string(holder))
	}

	if err := conn(ctx, r.db).Model(&models.LedgerEntry{}).Scopes(touching).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := conn(ctx, r.db).
		Scopes(touching).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
