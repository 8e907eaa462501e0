package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"purse-circle/internal/adapters/http/middleware"
	"purse-circle/internal/adapters/http/routes"
	"purse-circle/internal/config"
	"purse-circle/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

func serveRun(cmd *cobra.Command) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer config.CloseDatabase()

	if err := migrate(db); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.NewSeeder(db, cfg).Run(ctx); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	container, err := services.NewContainer(db, cfg, nil)
	if err != nil {
		return err
	}
	if err := container.Start(ctx); err != nil {
		return err
	}
	defer container.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Purse Circle API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, container, cfg)

	go gracefulShutdown(ctx, app)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return err
	}
	log.Println("✅ Server stopped gracefully")
	return nil
}

// gracefulShutdown stops the listener once ctx is cancelled
func gracefulShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
}
