package events

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// LedgerReloadedData contains data for LedgerReloaded events
type LedgerReloadedData struct {
	Records    int    `json:"records"`
	SourcePath string `json:"source_path"`
	SourceHash string `json:"source_hash"`
	Forced     bool   `json:"forced,omitempty"`
}

// EventType returns the event type for LedgerReloadedData
func (d *LedgerReloadedData) EventType() EventType {
	return LedgerReloaded
}

// ArchiveUpdatedData contains data for ArchiveUpdated events
type ArchiveUpdatedData struct {
	LoadID  int64 `json:"load_id"`
	Records int   `json:"records"`
}

// EventType returns the event type for ArchiveUpdatedData
func (d *ArchiveUpdatedData) EventType() EventType {
	return ArchiveUpdated
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
	Uploaded  bool   `json:"uploaded,omitempty"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// MaintenanceCompletedData contains data for MaintenanceCompleted events
type MaintenanceCompletedData struct {
	WALCheckpointed bool  `json:"wal_checkpointed"`
	IntegrityOK     bool  `json:"integrity_ok"`
	LoadsPruned     int64 `json:"loads_pruned"`
	DiskFreeBytes   int64 `json:"disk_free_bytes,omitempty"`
}

// EventType returns the event type for MaintenanceCompletedData
func (d *MaintenanceCompletedData) EventType() EventType {
	return MaintenanceCompleted
}

// SystemStatusChangedData contains data for SystemStatusChanged events
type SystemStatusChangedData struct {
	Status        string `json:"status,omitempty"`
	Goroutines    int    `json:"goroutines,omitempty"`
	LedgerRecords int    `json:"ledger_records,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// EventType returns the event type for SystemStatusChangedData
func (d *SystemStatusChangedData) EventType() EventType {
	return SystemStatusChanged
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
