package domain

import "time"

// Address identifies an account on the ledger and in purse rosters
type Address string

// Role represents account role in the system
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Account represents a registered participant
type Account struct {
	ID        uint
	Address   Address
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PurseStatus is the lifecycle state of a purse
type PurseStatus string

const (
	PurseOpen      PurseStatus = "open"
	PurseActive    PurseStatus = "active"
	PurseCompleted PurseStatus = "completed"
)

// RoundOutcome records how a round was closed
type RoundOutcome string

const (
	OutcomeClaimed RoundOutcome = "claimed"
	OutcomeQuorum  RoundOutcome = "quorum"
	OutcomeLapsed  RoundOutcome = "lapsed"
)
