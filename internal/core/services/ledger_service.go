package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/adapters/persistence/repositories"
	"purse-circle/internal/config"
	"purse-circle/internal/core/domain"

	"gorm.io/gorm"
)

// BalanceView is one holder's balance of one token
type BalanceView struct {
	Address domain.Address `json:"address"`
	Token   string         `json:"token"`
	Amount  int64          `json:"amount"`
}

// CreditInput represents an admin top-up
type CreditInput struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Amount  int64  `json:"amount"`
}

// LedgerService exposes balances and admin credits
type LedgerService struct {
	ledgerRepo  repositories.LedgerRepository
	accountRepo repositories.AccountRepository
	cfg         config.PurseConfig
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	ledgerRepo repositories.LedgerRepository,
	accountRepo repositories.AccountRepository,
	cfg config.PurseConfig,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		cfg:         cfg,
	}
}

// Balance returns the balance of address; token defaults to the configured one
func (s *LedgerService) Balance(ctx context.Context, address domain.Address, token string) (*BalanceView, error) {
	token = s.token(token)
	amount, err := s.ledgerRepo.BalanceOf(ctx, token, address)
	if err != nil {
		return nil, err
	}
	return &BalanceView{Address: address, Token: token, Amount: amount}, nil
}

// Credit mints tokens to a registered account
func (s *LedgerService) Credit(ctx context.Context, input *CreditInput) (*BalanceView, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if _, err := s.accountRepo.GetByAddress(ctx, input.Address); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	address := domain.Address(input.Address)
	token := s.token(input.Token)
	if err := s.ledgerRepo.Credit(ctx, token, address, input.Amount); err != nil {
		return nil, err
	}

	log.Printf("💳 Credited %d %s to %s", input.Amount, token, address)
	return s.Balance(ctx, address, token)
}

// Entries lists transfers touching address, newest first
func (s *LedgerService) Entries(ctx context.Context, address domain.Address, token string, offset, limit int) ([]*models.LedgerEntry, int64, error) {
	return s.ledgerRepo.Entries(ctx, s.token(token), address, offset, limit)
}

func (s *LedgerService) token(token string) string {
	if token == "" {
		return s.cfg.DefaultToken
	}
	return token
}
