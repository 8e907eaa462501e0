package repositories

import (
	"context"

	"purse-circle/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return conn(ctx, r.db).Create(account).Error
}

// GetByID gets an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := conn(ctx, r.db).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByAddress gets an account by address
func (r *accountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	var account models.Account
	err := conn(ctx, r.db).Where("address = ?", address).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsByAddress checks if an address is registered
func (r *accountRepository) ExistsByAddress(ctx context.Context, address string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Account{}).Where("address = ?", address).Count(&count).Error
	return count > 0, err
}

// CountByRole counts accounts with role
func (r *accountRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Account{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// ListAddresses lists every active account address
func (r *accountRepository) ListAddresses(ctx context.Context) ([]string, error) {
	var addresses []string
	err := conn(ctx, r.db).
		Model(&models.Account{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("address", &addresses).Error
	return addresses, err
}
