package ledger

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/vantage/internal/domain"
)

// snapshotFile is the msgpack payload cached beside the ledger source.
// The fingerprint keys the cache: a snapshot only serves a source with the
// same content hash, so editing the CSV invalidates it automatically.
type snapshotFile struct {
	Fingerprint Fingerprint          `msgpack:"fingerprint"`
	Records     []domain.TradeRecord `msgpack:"records"`
}

// readSnapshot decodes the snapshot at path if it matches want. Any failure
// (absent, corrupt, stale) reports a miss; the caller falls back to parsing.
func readSnapshot(path string, want Fingerprint, log zerolog.Logger) ([]domain.TradeRecord, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var snap snapshotFile
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Corrupt ledger snapshot, reparsing source")
		return nil, false
	}

	if !snap.Fingerprint.sameContent(want) {
		return nil, false
	}

	// msgpack decodes times in the local zone; the engine works with UTC
	// midnights, so normalize before serving.
	for i := range snap.Records {
		snap.Records[i].OpenDate = snap.Records[i].OpenDate.UTC()
		snap.Records[i].CloseDate = snap.Records[i].CloseDate.UTC()
	}

	return snap.Records, true
}

// writeSnapshot encodes records with their source fingerprint. The write
// goes through a temp file and rename so a crash never leaves a truncated
// snapshot behind.
func writeSnapshot(path string, fp Fingerprint, records []domain.TradeRecord) error {
	data, err := msgpack.Marshal(snapshotFile{Fingerprint: fp, Records: records})
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move ledger snapshot into place: %w", err)
	}

	return nil
}
