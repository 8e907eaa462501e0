package services

import (
	"context"

	"purse-circle/internal/adapters/persistence/repositories"
	"purse-circle/internal/config"
	"purse-circle/internal/core/purse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// Container holds the wired services of one process
type Container struct {
	Registry      *prometheus.Registry
	Metrics       *Metrics
	Notifications *NotificationService
	Auth          *AuthService
	Ledger        *LedgerService
	Audit         *AuditService
	Purses        *PurseService
	Sweeper       *RoundSweeper
}

// NewContainer builds repositories and services over db. clock may be nil.
func NewContainer(db *gorm.DB, cfg *config.Config, clock purse.Clock) (*Container, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(registry)

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	purseRepo := repositories.NewPurseRepository(db)

	// Initialize services
	audit, err := NewAuditService(cfg.Purse.AuditCacheSize)
	if err != nil {
		return nil, err
	}
	notifications := NewNotificationService(metrics, true)
	purses := NewPurseService(db, purseRepo, ledgerRepo, audit, notifications, metrics, cfg.Purse, clock)

	return &Container{
		Registry:      registry,
		Metrics:       metrics,
		Notifications: notifications,
		Auth:          NewAuthService(accountRepo, cfg),
		Ledger:        NewLedgerService(ledgerRepo, accountRepo, cfg.Purse),
		Audit:         audit,
		Purses:        purses,
		Sweeper:       NewRoundSweeper(purses, metrics, cfg.Purse.SweepSchedule, cfg.Purse.SweepTimeout),
	}, nil
}

// Start restores stored purses and schedules the sweeper
func (c *Container) Start(ctx context.Context) error {
	if _, err := c.Purses.Load(ctx); err != nil {
		return err
	}
	return c.Sweeper.Start()
}

// Stop stops background work
func (c *Container) Stop() {
	c.Sweeper.Stop()
}
