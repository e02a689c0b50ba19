package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/vantage/internal/database"
	"github.com/aristath/vantage/internal/events"
	"github.com/aristath/vantage/internal/modules/ledger"
)

// Disk space thresholds for the data directory, in GB.
const (
	diskCriticalGB = 0.5
	diskLowGB      = 5.0
)

// defaultLoadKeep is how many ledger load records the archive retains.
const defaultLoadKeep = 30

// MaintenanceConfig holds maintenance service configuration
type MaintenanceConfig struct {
	DataDir  string
	LoadKeep int // load history rows to retain, 0 uses the default
}

// MaintenanceService runs the periodic health tasks for the archive
// database and the data directory.
type MaintenanceService struct {
	cfg     MaintenanceConfig
	db      *database.DB
	archive *ledger.Repository
	log     zerolog.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(cfg MaintenanceConfig, db *database.DB, archive *ledger.Repository, log zerolog.Logger) *MaintenanceService {
	if cfg.LoadKeep <= 0 {
		cfg.LoadKeep = defaultLoadKeep
	}

	return &MaintenanceService{
		cfg:     cfg,
		db:      db,
		archive: archive,
		log:     log.With().Str("service", "maintenance").Logger(),
	}
}

// MaintenanceResult describes what a maintenance run accomplished
type MaintenanceResult struct {
	WALCheckpointed bool
	IntegrityOK     bool
	LoadsPruned     int64
	DiskFreeBytes   int64
}

// Run executes every maintenance step and keeps going past individual
// failures. The returned error is the first one encountered.
func (s *MaintenanceService) Run(ctx context.Context) (*MaintenanceResult, error) {
	s.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	result := &MaintenanceResult{}
	var firstErr error

	recordErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if s.db != nil {
		// Step 1: WAL checkpoint (prevent bloat)
		if err := s.db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical, the next checkpoint catches up.
			s.log.Warn().Err(err).Msg("WAL checkpoint failed")
		} else {
			result.WALCheckpointed = true
		}

		// Step 2: Integrity check
		if err := s.db.HealthCheck(ctx); err != nil {
			s.log.Error().Err(err).Msg("Archive integrity check failed")
			recordErr(fmt.Errorf("integrity check failed: %w", err))
		} else {
			result.IntegrityOK = true
		}
	}

	// Step 3: Prune ledger load history
	if s.archive != nil {
		pruned, err := s.archive.PruneLoads(s.cfg.LoadKeep)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to prune load history")
			recordErr(fmt.Errorf("failed to prune load history: %w", err))
		} else {
			result.LoadsPruned = pruned
			if pruned > 0 {
				s.log.Info().
					Int64("pruned", pruned).
					Int("keep", s.cfg.LoadKeep).
					Msg("Pruned load history")
			}
		}
	}

	// Step 4: Disk space floor on the data directory
	usage, err := disk.Usage(s.cfg.DataDir)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to check disk space")
		recordErr(fmt.Errorf("failed to check disk space: %w", err))
	} else {
		result.DiskFreeBytes = int64(usage.Free)
		freeGB := float64(usage.Free) / 1e9

		s.log.Debug().Float64("free_gb", freeGB).Msg("Disk space check")

		if freeGB < diskCriticalGB {
			s.log.Error().
				Float64("free_gb", freeGB).
				Msg("CRITICAL: Insufficient disk space")
			recordErr(fmt.Errorf("only %.2f GB free on %s", freeGB, s.cfg.DataDir))
		} else if freeGB < diskLowGB {
			s.log.Warn().
				Float64("free_gb", freeGB).
				Msg("Disk space running low")
		}
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Bool("wal_checkpointed", result.WALCheckpointed).
		Bool("integrity_ok", result.IntegrityOK).
		Int64("loads_pruned", result.LoadsPruned).
		Msg("Maintenance completed")

	return result, firstErr
}

// MaintenanceJob runs the maintenance service on a schedule and reports
// the outcome on the event bus.
type MaintenanceJob struct {
	service *MaintenanceService
	events  *events.Manager
	log     zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(service *MaintenanceService, eventMgr *events.Manager, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		service: service,
		events:  eventMgr,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Run executes the maintenance job. The completion event carries the
// per-step outcome, so it is emitted even when a step failed.
func (j *MaintenanceJob) Run() error {
	result, err := j.service.Run(context.Background())

	if j.events != nil && result != nil {
		j.events.EmitTyped(events.MaintenanceCompleted, "maintenance", &events.MaintenanceCompletedData{
			WALCheckpointed: result.WALCheckpointed,
			IntegrityOK:     result.IntegrityOK,
			LoadsPruned:     result.LoadsPruned,
			DiskFreeBytes:   result.DiskFreeBytes,
		})
	}

	return err
}

// Name returns the job name for the scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}
