package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Accounts & Ledger Tables
// ============================================================

// Account represents accounts table
type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Address   string         `gorm:"uniqueIndex;size:120;not null" json:"address"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'USER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountResponse DTO
type AccountResponse struct {
	ID        uint      `json:"id"`
	Address   string    `json:"address"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Address:   a.Address,
		Role:      a.Role,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

// TokenBalance represents token_balances table
// One row per (token, holder); purse custody accounts live here too.
type TokenBalance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:20;not null;uniqueIndex:idx_token_holder" json:"token"`
	Holder    string    `gorm:"size:120;not null;uniqueIndex:idx_token_holder" json:"holder"`
	Amount    int64     `gorm:"not null;default:0" json:"amount"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenBalance) TableName() string {
	return "token_balances"
}

// LedgerEntry represents ledger_entries table (transfer journal)
type LedgerEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:20;not null;index" json:"token"`
	FromAddr  string    `gorm:"size:120;index" json:"from"`
	ToAddr    string    `gorm:"size:120;not null;index" json:"to"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Accounts & Ledger
		&Account{},
		&TokenBalance{},
		&LedgerEntry{},
		// Purse Tables
		&Purse{},
		&PurseMember{},
		&PurseDonation{},
		&PurseApproval{},
		&PurseRound{},
		&PurseHeldFund{},
	)
}
