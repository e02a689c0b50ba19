// Package server provides the HTTP server and routing for Vantage.
package server

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/events"
	"github.com/aristath/vantage/internal/modules/ledger"
)

// StatusMonitor periodically emits system status events so stream clients
// can refresh health panels without polling.
type StatusMonitor struct {
	eventManager *events.Manager
	store        *ledger.Store
	log          zerolog.Logger
	stop         chan struct{}
}

// NewStatusMonitor creates a new status monitor
func NewStatusMonitor(eventManager *events.Manager, store *ledger.Store, log zerolog.Logger) *StatusMonitor {
	return &StatusMonitor{
		eventManager: eventManager,
		store:        store,
		log:          log.With().Str("component", "status_monitor").Logger(),
		stop:         make(chan struct{}),
	}
}

// Start begins periodic status monitoring
func (m *StatusMonitor) Start(interval time.Duration) {
	go m.monitor(interval)
}

// Stop halts the monitoring loop. Must be called at most once.
func (m *StatusMonitor) Stop() {
	close(m.stop)
}

// monitor runs the periodic monitoring loop
func (m *StatusMonitor) monitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial emission so clients see state right after connecting
	m.emitStatus()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.emitStatus()
		}
	}
}

// emitStatus publishes a light status snapshot. The full system status with
// CPU sampling is too expensive to collect every tick.
func (m *StatusMonitor) emitStatus() {
	if m.eventManager == nil {
		return
	}

	data := &events.SystemStatusChangedData{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if m.store != nil {
		data.LedgerRecords = m.store.Len()
	}

	m.eventManager.EmitTyped(events.SystemStatusChanged, "status_monitor", data)
}
