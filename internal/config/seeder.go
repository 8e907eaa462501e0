package config

import (
	"context"
	"log"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/adapters/persistence/repositories"
	"purse-circle/internal/core/domain"
	"purse-circle/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	cfg      *Config
	accounts repositories.AccountRepository
	ledger   repositories.LedgerRepository
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{
		cfg:      cfg,
		accounts: repositories.NewAccountRepository(db),
		ledger:   repositories.NewLedgerRepository(db),
	}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminAccount(ctx); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	// Play money only outside production
	if s.cfg.IsDev() {
		if err := s.seedBalances(ctx); err != nil {
			log.Printf("⚠️ Balance seeder skipped: %v", err)
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminAccount creates the first admin account.
// In production, change ADMIN_PASSWORD before the first start.
func (s *Seeder) seedAdminAccount(ctx context.Context) error {
	count, err := s.accounts.CountByRole(ctx, string(domain.RoleAdmin))
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash(getEnv("ADMIN_PASSWORD", "admin123456"))
	if err != nil {
		return err
	}

	admin := &models.Account{
		Address:  getEnv("ADMIN_ADDRESS", "admin"),
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin account created: %s", admin.Address)
	return nil
}

// seedBalances credits the seed balance to every account holding none
func (s *Seeder) seedBalances(ctx context.Context) error {
	if s.cfg.Purse.SeedBalance <= 0 {
		return nil
	}
	addresses, err := s.accounts.ListAddresses(ctx)
	if err != nil {
		return err
	}

	token := s.cfg.Purse.DefaultToken
	credited := 0
	for _, addr := range addresses {
		balance, err := s.ledger.BalanceOf(ctx, token, domain.Address(addr))
		if err != nil {
			return err
		}
		if balance > 0 {
			continue
		}
		if err := s.ledger.Credit(ctx, token, domain.Address(addr), s.cfg.Purse.SeedBalance); err != nil {
			return err
		}
		credited++
	}

	if credited > 0 {
		log.Printf("✅ Seeded %d %s to %d accounts", s.cfg.Purse.SeedBalance, token, credited)
	}
	return nil
}
