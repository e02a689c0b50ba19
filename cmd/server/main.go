// Command server runs the vantage API: it serves the trade analytics
// endpoints, keeps the ledger archive in sync with the CSV source and
// schedules backups and database maintenance.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/clients/tradier"
	"github.com/aristath/vantage/internal/config"
	"github.com/aristath/vantage/internal/database"
	"github.com/aristath/vantage/internal/events"
	"github.com/aristath/vantage/internal/modules/analytics"
	"github.com/aristath/vantage/internal/modules/ledger"
	"github.com/aristath/vantage/internal/reliability"
	"github.com/aristath/vantage/internal/scheduler"
	"github.com/aristath/vantage/internal/server"
	"github.com/aristath/vantage/pkg/logger"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The configured log level lives in the config we failed to load.
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log.Info().
		Str("version", version).
		Str("data_dir", cfg.DataDir).
		Msg("Starting vantage")

	archiveDB, err := database.New(database.Config{
		Path:    cfg.ArchiveDB,
		Profile: database.ProfileLedger,
		Name:    "archive",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open archive database")
	}
	defer archiveDB.Close()

	if err := archiveDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate archive database")
	}

	store, err := ledger.Open(cfg.LedgerCSV, ledger.Options{SnapshotCache: cfg.SnapshotCache}, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LedgerCSV).Msg("Failed to load ledger")
	}
	log.Info().
		Int("records", store.Len()).
		Str("sha256", store.Info().SHA256).
		Msg("Ledger loaded")

	repo := ledger.NewRepository(archiveDB, log)
	if err := seedArchive(store, repo, log); err != nil {
		// The API serves from memory either way; the archive copy catches
		// up on the next source change.
		log.Error().Err(err).Msg("Failed to seed archive database")
	}

	bus := events.NewBus(log)
	eventMgr := events.NewManager(bus, log)

	analyticsSvc := analytics.NewService(store, analytics.Config{
		Thresholds: analytics.Thresholds{
			Bullish: cfg.Analytics.BiasBullishThreshold,
			Bearish: cfg.Analytics.BiasBearishThreshold,
		},
		WinRateTarget:        cfg.Analytics.WinRateTarget,
		ProfitFactorStrong:   cfg.Analytics.ProfitFactorStrong,
		ProfitFactorAdequate: cfg.Analytics.ProfitFactorAdequate,
		EquityTrendWindow:    cfg.Analytics.EquityTrendWindow,
	}, log)

	tradierClient := newTradierClient(cfg, log)
	s3Client := newS3Client(cfg, log)

	backupSvc := reliability.NewBackupService(reliability.BackupConfig{
		LedgerPath: cfg.LedgerCSV,
		BackupDir:  cfg.Backup.Dir,
		Keep:       cfg.Backup.Keep,
		RemoteKeep: cfg.S3.Keep,
	}, archiveDB, s3Client, log)

	maintenanceSvc := reliability.NewMaintenanceService(reliability.MaintenanceConfig{
		DataDir: cfg.DataDir,
	}, archiveDB, repo, log)

	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, store, repo, eventMgr, backupSvc, maintenanceSvc, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:                log,
		Host:               cfg.Host,
		Port:               cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DataDir:            cfg.DataDir,
		Version:            version,
		Store:              store,
		Archive:            repo,
		Analytics:          analyticsSvc,
		EventManager:       eventMgr,
		Tradier:            tradierClient,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the scheduler first so no job races the closing database.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// seedArchive copies the current load into the archive unless the newest
// archived load already carries the source hash.
func seedArchive(store *ledger.Store, repo *ledger.Repository, log zerolog.Logger) error {
	history, err := repo.LoadHistory(1)
	if err != nil {
		return err
	}
	info := store.Info()
	if len(history) > 0 && history[0].SourceHash == info.SHA256 {
		return nil
	}
	loadID, err := repo.ReplaceAll(store.Records(), info)
	if err != nil {
		return err
	}
	log.Info().Int64("load_id", loadID).Int("records", info.Records).Msg("Archive seeded from ledger")
	return nil
}

func newTradierClient(cfg *config.Config, log zerolog.Logger) *tradier.Client {
	token := cfg.TradierToken()
	if token == "" {
		log.Info().Msg("No Tradier token configured, connectivity checks disabled")
		return nil
	}
	baseURL := tradier.SandboxBaseURL
	if cfg.Tradier.Env == "production" {
		baseURL = tradier.ProductionBaseURL
	}
	return tradier.New(tradier.Config{
		BaseURL: baseURL,
		Token:   token,
		Timeout: time.Duration(cfg.Tradier.TimeoutSeconds) * time.Second,
	}, log)
}

// newS3Client builds the upload client when S3 is enabled. A failure here
// downgrades backups to local-only instead of blocking startup.
func newS3Client(cfg *config.Config, log zerolog.Logger) *reliability.S3Client {
	if !cfg.S3.Enabled {
		return nil
	}
	client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Prefix:          cfg.S3.Prefix,
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("S3 client unavailable, backups stay local")
		return nil
	}
	return client
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	store *ledger.Store,
	repo *ledger.Repository,
	eventMgr *events.Manager,
	backupSvc *reliability.BackupService,
	maintenanceSvc *reliability.MaintenanceService,
	log zerolog.Logger,
) error {
	if err := sched.AddJob(cfg.Scheduler.ReloadCron, scheduler.NewLedgerReloadJob(store, repo, eventMgr, log)); err != nil {
		return err
	}
	if cfg.Backup.Enabled {
		if err := sched.AddJob(cfg.Backup.Cron, reliability.NewBackupJob(backupSvc, eventMgr, log)); err != nil {
			return err
		}
	}
	return sched.AddJob(cfg.Scheduler.MaintenanceCron, reliability.NewMaintenanceJob(maintenanceSvc, eventMgr, log))
}
