package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Purse errors
var (
	ErrInvalidParameters   = errors.New("invalid purse parameters")
	ErrAlreadyMember       = errors.New("already a member of this purse")
	ErrPositionTaken       = errors.New("position already taken")
	ErrInvalidPosition     = errors.New("invalid position")
	ErrPurseFull           = errors.New("purse is full and no longer accepting members")
	ErrNotMember           = errors.New("not a member of this purse")
	ErrNotThisMembersRound = errors.New("not this member's round")
	ErrAlreadyDonated      = errors.New("already donated to this member this round")
	ErrSelfDonation        = errors.New("cannot donate to yourself")
	ErrSelfApproval        = errors.New("cannot approve your own claim")
	ErrAlreadyApproved     = errors.New("already approved this claim")
	ErrRoundNotComplete    = errors.New("round donations are not complete")
	ErrCircleCompleted     = errors.New("circle completed")
	ErrTransferFailed      = errors.New("token transfer failed")
	ErrPurseNotFound       = errors.New("purse not found")
)

// Ledger errors
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Account errors
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountInactive      = errors.New("account is inactive")
)
