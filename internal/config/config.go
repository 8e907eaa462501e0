package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Purse    PurseConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// PurseConfig holds the circle policy knobs
type PurseConfig struct {
	QuorumThreshold int           `env:"PURSE_QUORUM_THRESHOLD" envDefault:"1"`
	SweepSchedule   string        `env:"PURSE_SWEEP_SCHEDULE" envDefault:"@every 1m"`
	SweepTimeout    time.Duration `env:"PURSE_SWEEP_TIMEOUT" envDefault:"30s"`
	AuditCacheSize  int           `env:"PURSE_AUDIT_CACHE_SIZE" envDefault:"256"`
	DefaultToken    string        `env:"PURSE_DEFAULT_TOKEN" envDefault:"USDT"`
	SeedBalance     int64         `env:"PURSE_SEED_BALANCE" envDefault:"1000"`
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	purseCfg, err := loadPurseConfig()
	if err != nil {
		return nil, err
	}

	db := loadDatabaseConfig(appMode)
	if db.Driver != "mysql" && db.Driver != "sqlite" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", db.Driver)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: db,
		JWT:      loadJWTConfig(appMode),
		Purse:    purseCfg,
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, db.Driver)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Driver:     strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql"))),
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", "3306"),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "purse_circle"),
		SQLitePath: getEnv("SQLITE_PATH", "purse_circle.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadPurseConfig parses the PURSE_* variables
func loadPurseConfig() (PurseConfig, error) {
	var cfg PurseConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse purse env: %w", err)
	}
	if cfg.QuorumThreshold < 1 {
		return cfg, fmt.Errorf("invalid PURSE_QUORUM_THRESHOLD: %d (must be >= 1)", cfg.QuorumThreshold)
	}
	if cfg.AuditCacheSize < 1 {
		return cfg, fmt.Errorf("invalid PURSE_AUDIT_CACHE_SIZE: %d (must be >= 1)", cfg.AuditCacheSize)
	}
	return cfg, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:3000"
	}
	return origins
}
