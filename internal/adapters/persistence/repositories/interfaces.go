package repositories

import (
	"context"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/core/domain"
	"purse-circle/internal/core/purse"
)

// AccountRepository defines account repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByAddress(ctx context.Context, address string) (*models.Account, error)
	ExistsByAddress(ctx context.Context, address string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	ListAddresses(ctx context.Context) ([]string, error)
}

// LedgerRepository defines the token ledger. It is the purse engine's
// value-transfer collaborator.
type LedgerRepository interface {
	purse.Ledger
	Credit(ctx context.Context, token string, to domain.Address, amount int64) error
	Entries(ctx context.Context, token string, holder domain.Address, offset, limit int) ([]*models.LedgerEntry, int64, error)
}

// PurseRepository stores purse snapshots
type PurseRepository interface {
	Save(ctx context.Context, state purse.State, status domain.PurseStatus) error
	GetByID(ctx context.Context, id string) (*purse.State, error)
	LoadAll(ctx context.Context) ([]purse.State, error)
	List(ctx context.Context, offset, limit int) ([]*models.Purse, int64, error)
	ListByMember(ctx context.Context, address string) ([]*models.Purse, error)
}
