package routes

import (
	"time"

	"purse-circle/internal/adapters/http/handlers"
	"purse-circle/internal/adapters/http/middleware"
	"purse-circle/internal/config"
	"purse-circle/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, c *services.Container, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg)
	authHandler := handlers.NewAuthHandler(c.Auth)
	purseHandler := handlers.NewPurseHandler(c.Purses)
	ledgerHandler := handlers.NewLedgerHandler(c.Ledger)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, purseHandler, ledgerHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	purseHandler *handlers.PurseHandler,
	ledgerHandler *handlers.LedgerHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	setupAuthRoutes(router.Group("/auth"), authHandler, cfg)

	// Purse routes (protected)
	purseRoutes := router.Group("/purses")
	purseRoutes.Use(middleware.AuthMiddleware(cfg))
	purseRoutes.Use(middleware.NoCacheHeaders())
	setupPurseRoutes(purseRoutes, purseHandler)

	// Caller's own views
	meRoutes := router.Group("/me")
	meRoutes.Use(middleware.AuthMiddleware(cfg))
	meRoutes.Get("/purses", middleware.PrivateCacheHeaders(5*time.Second), purseHandler.Mine)

	// Ledger routes (protected)
	ledgerRoutes := router.Group("/ledger")
	ledgerRoutes.Use(middleware.AuthMiddleware(cfg))
	ledgerRoutes.Use(middleware.NoCacheHeaders())
	ledgerRoutes.Get("/balance", ledgerHandler.Balance)
	ledgerRoutes.Get("/entries", ledgerHandler.Entries)

	// Admin routes
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Post("/ledger/credit", middleware.StrictRateLimiter(), ledgerHandler.Credit)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)

	// Protected
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupPurseRoutes configures purse routes
func setupPurseRoutes(router fiber.Router, handler *handlers.PurseHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.Get)
	router.Post("/:id/join", handler.Join)
	router.Get("/:id/members", handler.Members)
	router.Get("/:id/round", handler.Round)
	router.Get("/:id/eligibility", handler.Eligibility)
	router.Post("/:id/donations", handler.Donate)
	router.Post("/:id/approvals", handler.Approve)
	router.Post("/:id/claim", handler.Claim)
	router.Post("/:id/held/withdraw", handler.WithdrawHeld)
	router.Get("/:id/history", handler.History)
	router.Get("/:id/audit/for/:address", handler.MissedFor)
	router.Get("/:id/audit/by/:address", handler.MissedBy)
}
