package models

import (
	"time"
)

// ============================================================
// Purse Tables
// ============================================================

type Purse struct {
	ID                   string    `gorm:"primaryKey;size:36" json:"id"`
	Creator              string    `gorm:"size:120;not null;index" json:"creator"`
	ContributionAmount   int64     `gorm:"not null" json:"contribution_amount"`
	MaxMembers           int       `gorm:"not null" json:"max_members"`
	RoundDurationSeconds int64     `gorm:"not null" json:"round_duration_seconds"`
	Token                string    `gorm:"size:20;not null" json:"token"`
	PurseType            string    `gorm:"size:30" json:"purse_type"`
	RoundIndex           int       `gorm:"not null;default:1" json:"round_index"`
	RoundStart           time.Time `gorm:"not null" json:"round_start"`
	Status               string    `gorm:"size:15;default:'open';index" json:"status"`
	CreatedAt            time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Members   []PurseMember   `gorm:"foreignKey:PurseID" json:"members,omitempty"`
	Donations []PurseDonation `gorm:"foreignKey:PurseID" json:"donations,omitempty"`
	Approvals []PurseApproval `gorm:"foreignKey:PurseID" json:"approvals,omitempty"`
	Rounds    []PurseRound    `gorm:"foreignKey:PurseID" json:"rounds,omitempty"`
	HeldFunds []PurseHeldFund `gorm:"foreignKey:PurseID" json:"held_funds,omitempty"`
}

func (Purse) TableName() string {
	return "purses"
}

type PurseMember struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PurseID  string `gorm:"size:36;not null;uniqueIndex:idx_purse_position" json:"purse_id"`
	Position int    `gorm:"not null;uniqueIndex:idx_purse_position" json:"position"`
	Address  string `gorm:"size:120;not null;index" json:"address"`
}

func (PurseMember) TableName() string {
	return "purse_members"
}

// PurseDonation holds donations of the open round only
type PurseDonation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PurseID     string    `gorm:"size:36;not null;index" json:"purse_id"`
	Donor       string    `gorm:"size:120;not null" json:"donor"`
	Beneficiary string    `gorm:"size:120;not null" json:"beneficiary"`
	Amount      int64     `gorm:"not null" json:"amount"`
	DonatedAt   time.Time `gorm:"not null" json:"donated_at"`
}

func (PurseDonation) TableName() string {
	return "purse_donations"
}

type PurseApproval struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PurseID  string `gorm:"size:36;not null;index" json:"purse_id"`
	Seq      int    `gorm:"not null" json:"seq"`
	Approver string `gorm:"size:120;not null" json:"approver"`
}

func (PurseApproval) TableName() string {
	return "purse_approvals"
}

// PurseRound is append-only; rows are never updated once written
type PurseRound struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PurseID       string    `gorm:"size:36;not null;uniqueIndex:idx_purse_round" json:"purse_id"`
	RoundIndex    int       `gorm:"not null;uniqueIndex:idx_purse_round" json:"round_index"`
	Beneficiary   string    `gorm:"size:120" json:"beneficiary"`
	Donors        []string  `gorm:"serializer:json;type:text" json:"donors"`
	NonDonors     []string  `gorm:"serializer:json;type:text" json:"non_donors"`
	ClaimedAmount int64     `gorm:"not null;default:0" json:"claimed_amount"`
	HeldAmount    int64     `gorm:"not null;default:0" json:"held_amount"`
	Quorum        bool      `gorm:"default:false" json:"quorum"`
	Outcome       string    `gorm:"size:10;not null" json:"outcome"`
	ClosedAt      time.Time `gorm:"not null" json:"closed_at"`
}

func (PurseRound) TableName() string {
	return "purse_rounds"
}

type PurseHeldFund struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PurseID     string `gorm:"size:36;not null;index" json:"purse_id"`
	RoundIndex  int    `gorm:"not null" json:"round_index"`
	Beneficiary string `gorm:"size:120;not null" json:"beneficiary"`
	Amount      int64  `gorm:"not null" json:"amount"`
}

func (PurseHeldFund) TableName() string {
	return "purse_held_funds"
}
