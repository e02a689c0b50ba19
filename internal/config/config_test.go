package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "trades.csv"), cfg.LedgerCSV)
	assert.Equal(t, filepath.Join(dir, "archive.db"), cfg.ArchiveDB)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.SnapshotCache)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)

	assert.InDelta(t, 50, cfg.Analytics.BiasBullishThreshold, 1e-9)
	assert.InDelta(t, -50, cfg.Analytics.BiasBearishThreshold, 1e-9)
	assert.InDelta(t, 75, cfg.Analytics.WinRateTarget, 1e-9)
	assert.InDelta(t, 2.0, cfg.Analytics.ProfitFactorStrong, 1e-9)
	assert.InDelta(t, 1.5, cfg.Analytics.ProfitFactorAdequate, 1e-9)
	assert.Equal(t, 20, cfg.Analytics.EquityTrendWindow)

	assert.Equal(t, "* * * * *", cfg.Scheduler.ReloadCron)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, 14, cfg.Backup.Keep)
	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, "sandbox", cfg.Tradier.Env)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("PORT", "9999")
	t.Setenv("LEDGER_CSV", "/tmp/other.csv")
	t.Setenv("BIAS_BULLISH_THRESHOLD", "120")
	t.Setenv("BIAS_BEARISH_THRESHOLD", "-120")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "/tmp/other.csv", cfg.LedgerCSV)
	assert.InDelta(t, 120, cfg.Analytics.BiasBullishThreshold, 1e-9)
	assert.InDelta(t, -120, cfg.Analytics.BiasBearishThreshold, 1e-9)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.LogPretty)
}

func TestLoadClampsBackupKeep(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_KEEP", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Backup.Keep)
}

func TestLoadRejectsInvertedBiasThresholds(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BIAS_BULLISH_THRESHOLD", "-10")
	t.Setenv("BIAS_BEARISH_THRESHOLD", "10")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bias thresholds inverted")
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestLoadRejectsUnknownTradierEnv(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("TRADIER_ENV", "staging")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tradier environment")
}

func TestValidateReportsAllViolations(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "70000")
	t.Setenv("TRADIER_ENV", "staging")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "tradier environment")
}

func TestLoadRejectsS3WithoutBucket(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestTradierTokenFollowsEnvironment(t *testing.T) {
	cfg := &Config{
		Tradier: TradierConfig{
			Env:          "sandbox",
			Token:        "prod-token",
			SandboxToken: "sandbox-token",
		},
	}
	assert.Equal(t, "sandbox-token", cfg.TradierToken())

	cfg.Tradier.Env = "production"
	assert.Equal(t, "prod-token", cfg.TradierToken())
}
