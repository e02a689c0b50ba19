// Package reliability provides backups and database maintenance for the
// ledger and its archive.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/database"
	"github.com/aristath/vantage/internal/events"
)

const (
	backupPrefix     = "vantage_backup_"
	backupTimeFormat = "2006-01-02-150405"
	manifestName     = "backup-metadata.json"
	manifestVersion  = "1.0.0"

	// Rotation never drops below this many archives, local or remote.
	minBackupsToKeep = 3
)

// BackupConfig holds backup service configuration
type BackupConfig struct {
	LedgerPath string // CSV source of truth
	BackupDir  string
	Keep       int // local archives to retain
	RemoteKeep int // uploaded archives to retain, 0 keeps everything
}

// BackupService creates verified tar.gz backups of the ledger CSV and the
// archive database, rotates old ones, and optionally uploads to S3.
type BackupService struct {
	cfg     BackupConfig
	archive *database.DB // nil when the archive database is disabled
	s3      *S3Client    // nil when uploads are not configured
	log     zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(cfg BackupConfig, archive *database.DB, s3 *S3Client, log zerolog.Logger) *BackupService {
	return &BackupService{
		cfg:     cfg,
		archive: archive,
		s3:      s3,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// BackupResult describes a completed backup
type BackupResult struct {
	Path      string
	SizeBytes int64
	SHA256    string
	Uploaded  bool
	Deleted   int // local archives removed by rotation
}

// BackupManifest describes the contents of a backup archive
type BackupManifest struct {
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Files     []FileManifest `json:"files"`
}

// FileManifest describes a single file in the backup archive
type FileManifest struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// Run creates a backup archive, verifies it, rotates old backups, and
// uploads the archive when S3 is configured. Upload and rotation failures
// are logged but do not fail the backup once the local archive is in place.
func (s *BackupService) Run(ctx context.Context) (*BackupResult, error) {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	if err := os.MkdirAll(s.cfg.BackupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	stagingDir, err := os.MkdirTemp(s.cfg.BackupDir, "staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	// Stage the ledger CSV
	ledgerName := filepath.Base(s.cfg.LedgerPath)
	if err := copyFile(s.cfg.LedgerPath, filepath.Join(stagingDir, ledgerName)); err != nil {
		return nil, fmt.Errorf("failed to stage ledger: %w", err)
	}
	names := []string{ledgerName}

	// Stage a consistent snapshot of the archive database
	if s.archive != nil {
		dbName := filepath.Base(s.archive.Path())
		if err := s.snapshotArchive(filepath.Join(stagingDir, dbName)); err != nil {
			return nil, err
		}
		names = append(names, dbName)
	}

	manifest := BackupManifest{
		Timestamp: time.Now().UTC(),
		Version:   manifestVersion,
		Files:     make([]FileManifest, 0, len(names)),
	}

	for _, name := range names {
		path := filepath.Join(stagingDir, name)

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}

		sum, err := calculateChecksum(path)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for %s: %w", name, err)
		}

		manifest.Files = append(manifest.Files, FileManifest{
			Name:      name,
			SizeBytes: info.Size(),
			Checksum:  "sha256:" + sum,
		})
	}

	if err := writeManifest(filepath.Join(stagingDir, manifestName), manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	names = append(names, manifestName)

	// Build the archive in staging, verify it, then move it into place.
	archiveName := fmt.Sprintf("%s%s_%s.tar.gz", backupPrefix, time.Now().Format(backupTimeFormat), shortID())
	stagedArchive := filepath.Join(stagingDir, archiveName)

	if err := createArchive(stagedArchive, stagingDir, names); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	sum, err := calculateChecksum(stagedArchive)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum archive: %w", err)
	}

	if err := verifyArchive(stagedArchive, manifest); err != nil {
		return nil, fmt.Errorf("backup verification failed: %w", err)
	}

	finalPath := filepath.Join(s.cfg.BackupDir, archiveName)
	if err := os.Rename(stagedArchive, finalPath); err != nil {
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}

	sidecarPath := finalPath + ".sha256"
	sidecar := fmt.Sprintf("%s  %s\n", sum, archiveName)
	if err := os.WriteFile(sidecarPath, []byte(sidecar), 0644); err != nil {
		return nil, fmt.Errorf("failed to write checksum file: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	result := &BackupResult{
		Path:      finalPath,
		SizeBytes: info.Size(),
		SHA256:    sum,
	}

	deleted, err := s.rotateLocal()
	if err != nil {
		s.log.Warn().Err(err).Msg("Local backup rotation failed")
	}
	result.Deleted = deleted

	if s.s3 != nil {
		if err := s.upload(ctx, finalPath, sidecarPath, archiveName); err != nil {
			s.log.Error().Err(err).Msg("Backup upload failed")
		} else {
			result.Uploaded = true
			if err := s.rotateRemote(ctx); err != nil {
				s.log.Warn().Err(err).Msg("Remote backup rotation failed")
			}
		}
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", result.SizeBytes).
		Bool("uploaded", result.Uploaded).
		Msg("Backup completed successfully")

	return result, nil
}

// snapshotArchive writes a consistent copy of the archive database and
// verifies the copy's integrity before it is packed.
func (s *BackupService) snapshotArchive(destPath string) error {
	s.log.Debug().Str("backup_path", destPath).Msg("Backing up archive database")

	// VACUUM INTO produces a fresh copy without WAL files.
	if _, err := s.archive.Conn().Exec(fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("VACUUM INTO failed: %w", err)
	}

	backupDB, err := sql.Open("sqlite", destPath)
	if err != nil {
		return fmt.Errorf("failed to open backup for verification: %w", err)
	}
	defer backupDB.Close()

	var result string
	if err := backupDB.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check returned %q", result)
	}

	return nil
}

// rotateLocal deletes the oldest local archives beyond the retention count
func (s *BackupService) rotateLocal() (int, error) {
	keep := s.cfg.Keep
	if keep < minBackupsToKeep {
		keep = minBackupsToKeep
	}

	entries, err := os.ReadDir(s.cfg.BackupDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, ".tar.gz") {
			names = append(names, name)
		}
	}

	if len(names) <= keep {
		return 0, nil
	}

	// The timestamp in the name makes lexicographic order chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	deleted := 0
	for _, name := range names[keep:] {
		path := filepath.Join(s.cfg.BackupDir, name)
		if err := os.Remove(path); err != nil {
			s.log.Error().Err(err).Str("filename", name).Msg("Failed to delete old backup")
			continue
		}
		// The sidecar may already be gone.
		os.Remove(path + ".sha256")

		s.log.Info().Str("filename", name).Msg("Deleted old backup")
		deleted++
	}

	return deleted, nil
}

// upload sends the archive and its checksum file to the configured bucket
func (s *BackupService) upload(ctx context.Context, archivePath, sidecarPath, archiveName string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	archiveInfo, err := archiveFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	if err := s.s3.Upload(ctx, archiveName, archiveFile, archiveInfo.Size()); err != nil {
		return err
	}

	sidecarFile, err := os.Open(sidecarPath)
	if err != nil {
		return fmt.Errorf("failed to open checksum file: %w", err)
	}
	defer sidecarFile.Close()

	sidecarInfo, err := sidecarFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat checksum file: %w", err)
	}

	return s.s3.Upload(ctx, archiveName+".sha256", sidecarFile, sidecarInfo.Size())
}

// RemoteBackup describes a backup archive stored in the bucket
type RemoteBackup struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// ListRemoteBackups lists backup archives stored in the bucket, newest first
func (s *BackupService) ListRemoteBackups(ctx context.Context) ([]RemoteBackup, error) {
	objects, err := s.s3.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote backups: %w", err)
	}

	backups := make([]RemoteBackup, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		// Checksum sidecars and foreign objects fail the parse.
		filename := strings.TrimPrefix(*obj.Key, s.s3.Prefix())
		timestamp, ok := parseBackupTimestamp(filename)
		if !ok {
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, RemoteBackup{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// rotateRemote deletes the oldest uploaded archives beyond the retention count
func (s *BackupService) rotateRemote(ctx context.Context) error {
	keep := s.cfg.RemoteKeep
	if keep <= 0 {
		return nil
	}
	if keep < minBackupsToKeep {
		keep = minBackupsToKeep
	}

	backups, err := s.ListRemoteBackups(ctx)
	if err != nil {
		return err
	}

	if len(backups) <= keep {
		return nil
	}

	deleted := 0
	for _, backup := range backups[keep:] {
		if err := s.s3.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete remote backup")
			continue
		}
		if err := s.s3.Delete(ctx, backup.Filename+".sha256"); err != nil {
			s.log.Warn().Err(err).Str("filename", backup.Filename).Msg("Failed to delete remote checksum")
		}

		s.log.Info().Str("filename", backup.Filename).Msg("Deleted remote backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Remote backup rotation completed")

	return nil
}

// Restore extracts a backup archive into destDir. When a checksum file
// exists next to the archive, the archive is verified against it first.
func (s *BackupService) Restore(archivePath, destDir string) error {
	sum, err := readChecksumFile(archivePath + ".sha256")
	switch {
	case err == nil:
		actual, herr := calculateChecksum(archivePath)
		if herr != nil {
			return fmt.Errorf("failed to checksum archive: %w", herr)
		}
		if actual != sum {
			return fmt.Errorf("archive checksum mismatch: got %s, want %s", actual, sum)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create restore directory: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("corrupt archive: %w", err)
		}

		// Entries are flat files; reject anything that would escape destDir.
		if filepath.Base(header.Name) != header.Name {
			return fmt.Errorf("unexpected path in archive: %s", header.Name)
		}

		outPath := filepath.Join(destDir, header.Name)
		out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		if _, err := io.Copy(out, tarReader); err != nil {
			out.Close()
			return fmt.Errorf("failed to extract %s: %w", header.Name, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", outPath, err)
		}
	}

	s.log.Info().
		Str("archive", archivePath).
		Str("dest", destDir).
		Msg("Backup restored")

	return nil
}

// verifyArchive re-reads the finished archive and re-hashes every entry
// against the manifest
func verifyArchive(archivePath string, manifest BackupManifest) error {
	sums := make(map[string]string, len(manifest.Files))
	for _, fm := range manifest.Files {
		sums[fm.Name] = fm.Checksum
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	seen := 0
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("corrupt archive: %w", err)
		}

		want, ok := sums[header.Name]
		if !ok {
			// The manifest cannot checksum itself.
			if header.Name == manifestName {
				continue
			}
			return fmt.Errorf("unexpected file in archive: %s", header.Name)
		}

		hash := sha256.New()
		if _, err := io.Copy(hash, tarReader); err != nil {
			return fmt.Errorf("failed to hash %s: %w", header.Name, err)
		}
		if got := fmt.Sprintf("sha256:%x", hash.Sum(nil)); got != want {
			return fmt.Errorf("checksum mismatch for %s", header.Name)
		}
		seen++
	}

	if seen != len(manifest.Files) {
		return fmt.Errorf("archive has %d of %d expected files", seen, len(manifest.Files))
	}

	return nil
}

// createArchive creates a tar.gz archive of the named files
func createArchive(archivePath, sourceDir string, names []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, name := range names {
		if err := addFileToArchive(tarWriter, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	return nil
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}

// calculateChecksum calculates the SHA256 checksum of a file as hex
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// readChecksumFile reads the hex digest from a shasum-format sidecar
func readChecksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file: %s", path)
	}

	return fields[0], nil
}

// writeManifest writes backup metadata to a JSON file
func writeManifest(path string, manifest BackupManifest) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest)
}

// copyFile copies src to dst, creating or truncating dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}

// parseBackupTimestamp extracts the creation time from an archive filename.
// Names look like vantage_backup_2026-08-25-023000_1a2b3c4d.tar.gz.
func parseBackupTimestamp(filename string) (time.Time, bool) {
	if !strings.HasPrefix(filename, backupPrefix) || !strings.HasSuffix(filename, ".tar.gz") {
		return time.Time{}, false
	}

	trimmed := strings.TrimPrefix(filename, backupPrefix)
	trimmed = strings.TrimSuffix(trimmed, ".tar.gz")

	idx := strings.LastIndex(trimmed, "_")
	if idx < 0 {
		return time.Time{}, false
	}

	timestamp, err := time.Parse(backupTimeFormat, trimmed[:idx])
	if err != nil {
		return time.Time{}, false
	}

	return timestamp, true
}

// shortID returns a unique suffix so two backups created within the same
// second cannot collide.
func shortID() string {
	return uuid.New().String()[:8]
}

// BackupJob runs the backup service on a schedule and reports the outcome
// on the event bus.
type BackupJob struct {
	service *BackupService
	events  *events.Manager
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, eventMgr *events.Manager, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		events:  eventMgr,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	result, err := j.service.Run(context.Background())
	if err != nil {
		if j.events != nil {
			j.events.EmitError("backup", err, nil)
		}
		return err
	}

	if j.events != nil {
		j.events.EmitTyped(events.BackupCompleted, "backup", &events.BackupCompletedData{
			Path:      result.Path,
			SizeBytes: result.SizeBytes,
			SHA256:    result.SHA256,
			Uploaded:  result.Uploaded,
		})
	}

	return nil
}

// Name returns the job name for the scheduler
func (j *BackupJob) Name() string {
	return "backup"
}
