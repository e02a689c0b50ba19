package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/domain"
	"github.com/aristath/vantage/internal/utils"
)

// Fingerprint identifies the exact content of a ledger source file.
// Content identity is sha256 + size; path and mtime are informational.
type Fingerprint struct {
	Path    string `msgpack:"path" json:"path"`
	Size    int64  `msgpack:"size" json:"size"`
	ModTime int64  `msgpack:"mod_time" json:"mod_time"` // unix seconds
	SHA256  string `msgpack:"sha256" json:"sha256"`
}

func (fp Fingerprint) sameContent(other Fingerprint) bool {
	return fp.SHA256 == other.SHA256 && fp.Size == other.Size
}

func fingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to stat ledger file: %w", err)
	}

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return Fingerprint{}, fmt.Errorf("failed to hash ledger file: %w", err)
	}

	return Fingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
		SHA256:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// SourceInfo describes the currently loaded ledger for the API.
type SourceInfo struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
	SHA256    string    `json:"sha256"`
	Records   int       `json:"records"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Options tune how the store loads.
type Options struct {
	// SnapshotCache enables the msgpack snapshot beside the source file.
	SnapshotCache bool
	// SnapshotPath overrides the default snapshot location.
	SnapshotPath string
}

// Store holds the loaded ledger. The record slice is replaced wholesale on
// reload and never mutated in place, so readers may hold the returned slice
// across a reload without synchronization.
type Store struct {
	mu       sync.RWMutex
	records  []domain.TradeRecord
	fp       Fingerprint
	loadedAt time.Time

	path string
	opts Options
	log  zerolog.Logger
}

// Open loads the ledger at path. When the snapshot cache is enabled and the
// snapshot matches the file's fingerprint, the parsed records come from the
// snapshot instead of a fresh parse.
func Open(path string, opts Options, log zerolog.Logger) (*Store, error) {
	s := &Store{
		path: path,
		opts: opts,
		log:  log.With().Str("component", "ledger-store").Logger(),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// load parses (or decodes) the source and swaps the record slice.
func (s *Store) load() error {
	timer := utils.NewTimer("ledger load", s.log)
	defer timer.Stop()

	fp, err := fingerprintFile(s.path)
	if err != nil {
		return err
	}

	var records []domain.TradeRecord
	fromSnapshot := false

	if s.opts.SnapshotCache {
		if cached, ok := readSnapshot(s.snapshotPath(), fp, s.log); ok {
			records = cached
			fromSnapshot = true
		}
	}

	if !fromSnapshot {
		records, err = LoadFile(s.path)
		if err != nil {
			return err
		}
		if s.opts.SnapshotCache {
			if err := writeSnapshot(s.snapshotPath(), fp, records); err != nil {
				// Best effort: a failed snapshot write never fails the load.
				s.log.Warn().Err(err).Msg("Failed to write ledger snapshot")
			}
		}
	}

	s.mu.Lock()
	s.records = records
	s.fp = fp
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	s.log.Info().
		Int("records", len(records)).
		Bool("from_snapshot", fromSnapshot).
		Str("sha256", fp.SHA256[:12]).
		Msg("Ledger loaded")

	return nil
}

func (s *Store) snapshotPath() string {
	if s.opts.SnapshotPath != "" {
		return s.opts.SnapshotPath
	}
	return s.path + ".snapshot.msgpack"
}

// Records returns the loaded records. The slice is shared and read-only;
// callers must copy before sorting or mutating.
func (s *Store) Records() []domain.TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Fingerprint returns the fingerprint of the loaded source.
func (s *Store) Fingerprint() Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fp
}

// Info describes the loaded source for the API.
func (s *Store) Info() SourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SourceInfo{
		Path:      s.fp.Path,
		SizeBytes: s.fp.Size,
		ModTime:   time.Unix(s.fp.ModTime, 0).UTC(),
		SHA256:    s.fp.SHA256,
		Records:   len(s.records),
		LoadedAt:  s.loadedAt,
	}
}

// Reload re-reads the source if its content changed. Returns true when a new
// record set was swapped in. A parse failure leaves the previous records in
// place.
func (s *Store) Reload() (bool, error) {
	fp, err := fingerprintFile(s.path)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	unchanged := fp.sameContent(s.fp)
	s.mu.RUnlock()

	if unchanged {
		return false, nil
	}

	if err := s.load(); err != nil {
		return false, err
	}

	return true, nil
}
