package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/events"
	"github.com/aristath/vantage/internal/modules/ledger"
)

// LedgerReloadJob polls the ledger CSV and refreshes the in-memory store
// when the file content changed. A new load is archived and announced on
// the event bus.
type LedgerReloadJob struct {
	store   *ledger.Store
	archive *ledger.Repository
	events  *events.Manager
	log     zerolog.Logger
}

// NewLedgerReloadJob creates a new ledger reload job. The archive and the
// event manager may be nil.
func NewLedgerReloadJob(store *ledger.Store, archive *ledger.Repository, eventMgr *events.Manager, log zerolog.Logger) *LedgerReloadJob {
	return &LedgerReloadJob{
		store:   store,
		archive: archive,
		events:  eventMgr,
		log:     log.With().Str("job", "ledger_reload").Logger(),
	}
}

// Run executes the reload job
func (j *LedgerReloadJob) Run() error {
	reloaded, err := j.store.Reload()
	if err != nil {
		if j.events != nil {
			j.events.EmitError("ledger", err, map[string]interface{}{"path": j.store.Info().Path})
		}
		return err
	}

	if !reloaded {
		return nil
	}

	info := j.store.Info()
	j.log.Info().
		Int("records", info.Records).
		Str("sha256", info.SHA256).
		Msg("Ledger source changed, store reloaded")

	if j.events != nil {
		j.events.EmitTyped(events.LedgerReloaded, "ledger", &events.LedgerReloadedData{
			Records:    info.Records,
			SourcePath: info.Path,
			SourceHash: info.SHA256,
		})
	}

	if j.archive != nil {
		loadID, err := j.archive.ReplaceAll(j.store.Records(), info)
		if err != nil {
			// The store already serves the new records; only the archive
			// copy is stale.
			j.log.Error().Err(err).Msg("Failed to archive reloaded ledger")
			return err
		}

		if j.events != nil {
			j.events.EmitTyped(events.ArchiveUpdated, "ledger", &events.ArchiveUpdatedData{
				LoadID:  loadID,
				Records: info.Records,
			})
		}
	}

	return nil
}

// Name returns the job name for the scheduler
func (j *LedgerReloadJob) Name() string {
	return "ledger_reload"
}
