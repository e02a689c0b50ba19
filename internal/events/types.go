// Package events provides event management functionality.
package events

// EventType represents different event types
type EventType string

const (
	LedgerReloaded       EventType = "LEDGER_RELOADED"
	ArchiveUpdated       EventType = "ARCHIVE_UPDATED"
	BackupCompleted      EventType = "BACKUP_COMPLETED"
	MaintenanceCompleted EventType = "MAINTENANCE_COMPLETED"
	SystemStatusChanged  EventType = "SYSTEM_STATUS_CHANGED"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every event type the stream endpoint can subscribe to.
var AllEventTypes = []EventType{
	LedgerReloaded,
	ArchiveUpdated,
	BackupCompleted,
	MaintenanceCompleted,
	SystemStatusChanged,
	ErrorOccurred,
}
