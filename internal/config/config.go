// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/vantage/internal/utils"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for ledger data, archive DB and backups (always absolute)
	LedgerCSV          string // Path to the trade ledger CSV
	ArchiveDB          string // Path to the SQLite archive database
	SnapshotCache      bool   // Reuse the msgpack snapshot of the parsed ledger when the CSV is unchanged
	Host               string
	Port               int
	CORSAllowedOrigins []string
	LogLevel           string
	LogPretty          bool
	Analytics          AnalyticsConfig
	Scheduler          SchedulerConfig
	Backup             BackupConfig
	S3                 S3Config
	Tradier            TradierConfig
}

// AnalyticsConfig holds the presentation policy constants consumed by the
// analytics engine. These are reference defaults, not invariants.
type AnalyticsConfig struct {
	BiasBullishThreshold float64 // total delta above this reads as Bullish
	BiasBearishThreshold float64 // total delta below this reads as Bearish
	WinRateTarget        float64 // percentage the dashboard compares win rates against
	ProfitFactorStrong   float64
	ProfitFactorAdequate float64
	EquityTrendWindow    int // moving-average window for the equity curve trend
}

// SchedulerConfig holds cron specs for the background jobs
type SchedulerConfig struct {
	ReloadCron      string
	MaintenanceCron string
}

// BackupConfig holds local backup settings
type BackupConfig struct {
	Enabled bool
	Cron    string
	Dir     string
	Keep    int // newest archives retained locally, floor 3
}

// S3Config holds optional S3/R2 upload settings for backups
type S3Config struct {
	Enabled         bool
	Endpoint        string // custom endpoint for R2; empty for plain S3
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	Keep            int // newest remote archives retained
}

// TradierConfig holds brokerage connectivity-check settings
type TradierConfig struct {
	Env            string // sandbox or production
	Token          string
	SandboxToken   string
	TimeoutSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		LedgerCSV:          getEnv("LEDGER_CSV", filepath.Join(absDataDir, "trades.csv")),
		ArchiveDB:          getEnv("ARCHIVE_DB", filepath.Join(absDataDir, "archive.db")),
		SnapshotCache:      getEnvAsBool("SNAPSHOT_CACHE", true),
		Host:               getEnv("HOST", ""),
		Port:               getEnvAsInt("PORT", 8090),
		CORSAllowedOrigins: utils.ParseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("LOG_PRETTY", false),
		Analytics: AnalyticsConfig{
			BiasBullishThreshold: getEnvAsFloat("BIAS_BULLISH_THRESHOLD", 50),
			BiasBearishThreshold: getEnvAsFloat("BIAS_BEARISH_THRESHOLD", -50),
			WinRateTarget:        getEnvAsFloat("WIN_RATE_TARGET", 75),
			ProfitFactorStrong:   getEnvAsFloat("PF_STRONG", 2.0),
			ProfitFactorAdequate: getEnvAsFloat("PF_ADEQUATE", 1.5),
			EquityTrendWindow:    getEnvAsInt("EQUITY_TREND_WINDOW", 20),
		},
		Scheduler: SchedulerConfig{
			ReloadCron:      getEnv("RELOAD_CRON", "* * * * *"),
			MaintenanceCron: getEnv("MAINTENANCE_CRON", "0 3 * * *"),
		},
		Backup: BackupConfig{
			Enabled: getEnvAsBool("BACKUP_ENABLED", true),
			Cron:    getEnv("BACKUP_CRON", "30 2 * * *"),
			Dir:     getEnv("BACKUP_DIR", filepath.Join(absDataDir, "backups")),
			Keep:    getEnvAsInt("BACKUP_KEEP", 14),
		},
		S3: S3Config{
			Enabled:         getEnvAsBool("S3_ENABLED", false),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("S3_PREFIX", "backups/"),
			Keep:            getEnvAsInt("S3_KEEP", 30),
		},
		Tradier: TradierConfig{
			Env:            getEnv("TRADIER_ENV", "sandbox"),
			Token:          getEnv("TRADIER_TOKEN", ""),
			SandboxToken:   getEnv("TRADIER_SANDBOX_TOKEN", ""),
			TimeoutSeconds: getEnvAsInt("TRADIER_TIMEOUT_SECONDS", 10),
		},
	}

	// Backups below three generations defeat the rotation safety net
	if cfg.Backup.Keep < 3 {
		cfg.Backup.Keep = 3
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is present and coherent. All
// violations are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	if c.Analytics.BiasBearishThreshold >= c.Analytics.BiasBullishThreshold {
		errs = append(errs, fmt.Errorf("bias thresholds inverted: bearish %.1f must be below bullish %.1f",
			c.Analytics.BiasBearishThreshold, c.Analytics.BiasBullishThreshold))
	}

	if c.Analytics.WinRateTarget < 0 || c.Analytics.WinRateTarget > 100 {
		errs = append(errs, fmt.Errorf("win rate target %.1f out of range 0-100", c.Analytics.WinRateTarget))
	}

	if c.Analytics.EquityTrendWindow < 2 {
		errs = append(errs, fmt.Errorf("equity trend window %d too small: need at least 2", c.Analytics.EquityTrendWindow))
	}

	switch c.Tradier.Env {
	case "sandbox", "production":
	default:
		errs = append(errs, fmt.Errorf("invalid tradier environment %q: must be sandbox or production", c.Tradier.Env))
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("S3 uploads enabled but S3_BUCKET is empty"))
		}
		if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
			errs = append(errs, fmt.Errorf("S3 uploads enabled but credentials are missing"))
		}
	}

	return errors.Join(errs...)
}

// TradierToken returns the bearer token matching the configured environment
func (c *Config) TradierToken() string {
	if c.Tradier.Env == "production" {
		return c.Tradier.Token
	}
	return c.Tradier.SandboxToken
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
