package main

import (
	"fmt"
	"log"
	"os"

	"purse-circle/internal/adapters/persistence/models"
	"purse-circle/internal/config"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	_ "purse-circle/docs" // Swagger docs
)

// @title Purse Circle API
// @version 1.0
// @description Rotating savings circles with custody, quorum claims and missed-donation audit.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const programName = "purse-circle"

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Purse circle API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd)
		},
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(seedCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the round sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()
			return migrate(db)
		},
	}
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and dev balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()
			if err := migrate(db); err != nil {
				return err
			}
			return config.NewSeeder(db, cfg).Run(cmd.Context())
		},
	}
}

// bootstrap loads configuration and opens the database
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, db, nil
}

func migrate(db *gorm.DB) error {
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}
