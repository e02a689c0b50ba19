// Package server provides the HTTP server and routing for Vantage.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/vantage/internal/modules/ledger"
)

// SystemHandlers serves runtime and host diagnostics for the dashboard.
type SystemHandlers struct {
	store   *ledger.Store
	archive *ledger.Repository
	dataDir string
	version string
	started time.Time
	log     zerolog.Logger
}

// NewSystemHandlers creates system handlers. The archive repository may be
// nil when archiving is disabled.
func NewSystemHandlers(
	store *ledger.Store,
	archive *ledger.Repository,
	dataDir string,
	version string,
	log zerolog.Logger,
) *SystemHandlers {
	return &SystemHandlers{
		store:   store,
		archive: archive,
		dataDir: dataDir,
		version: version,
		started: time.Now(),
		log:     log.With().Str("component", "system_handlers").Logger(),
	}
}

// MemoryStatus reports host memory usage.
type MemoryStatus struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskStatus reports usage of the volume holding the data directory.
type DiskStatus struct {
	Path        string  `json:"path"`
	TotalGB     float64 `json:"total_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// LedgerStatus reports the currently loaded ledger.
type LedgerStatus struct {
	Records  int       `json:"records"`
	Path     string    `json:"path"`
	SHA256   string    `json:"sha256"`
	LoadedAt time.Time `json:"loaded_at"`
}

// SystemStatusResponse is the body of GET /api/system/status.
type SystemStatusResponse struct {
	Status            string       `json:"status"`
	Version           string       `json:"version"`
	Timestamp         string       `json:"timestamp"`
	CPUPercent        float64      `json:"cpu_percent"`
	Memory            MemoryStatus `json:"memory"`
	Disk              DiskStatus   `json:"disk"`
	HostUptimeSeconds uint64       `json:"host_uptime_seconds"`
	Goroutines        int          `json:"goroutines"`
	GoVersion         string       `json:"go_version"`
	Ledger            LedgerStatus `json:"ledger"`
	ArchivedTrades    *int         `json:"archived_trades,omitempty"`
}

// GetSystemStatusSnapshot collects host and service metrics. Collection
// errors degrade individual fields to zero values instead of failing the
// whole snapshot; the first error is returned for logging.
func (h *SystemHandlers) GetSystemStatusSnapshot() (SystemStatusResponse, error) {
	var firstErr error
	recordErr := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	// Sampled over 100ms; the first element is the aggregate across cores.
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		recordErr(err)
		cpuPercent = []float64{0}
	}

	memory := MemoryStatus{}
	if vmStat, err := mem.VirtualMemory(); err != nil {
		recordErr(err)
	} else {
		memory = MemoryStatus{
			TotalMB:     float64(vmStat.Total) / 1024 / 1024,
			UsedMB:      float64(vmStat.Used) / 1024 / 1024,
			UsedPercent: vmStat.UsedPercent,
		}
	}

	diskStatus := DiskStatus{Path: h.dataDir}
	if usage, err := disk.Usage(h.dataDir); err != nil {
		recordErr(err)
	} else {
		diskStatus.TotalGB = float64(usage.Total) / 1024 / 1024 / 1024
		diskStatus.FreeGB = float64(usage.Free) / 1024 / 1024 / 1024
		diskStatus.UsedPercent = usage.UsedPercent
	}

	uptime, err := host.Uptime()
	if err != nil {
		recordErr(err)
		uptime = 0
	}

	response := SystemStatusResponse{
		Status:            "healthy",
		Version:           h.version,
		Timestamp:         time.Now().Format(time.RFC3339),
		CPUPercent:        cpuPercent[0],
		Memory:            memory,
		Disk:              diskStatus,
		HostUptimeSeconds: uptime,
		Goroutines:        runtime.NumGoroutine(),
		GoVersion:         runtime.Version(),
	}

	if h.store != nil {
		info := h.store.Info()
		response.Ledger = LedgerStatus{
			Records:  info.Records,
			Path:     info.Path,
			SHA256:   info.SHA256,
			LoadedAt: info.LoadedAt,
		}
	}

	if h.archive != nil {
		if count, err := h.archive.Count(); err != nil {
			recordErr(err)
		} else {
			response.ArchivedTrades = &count
		}
	}

	return response, firstErr
}

// HandleSystemStatus returns host and service metrics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response, err := h.GetSystemStatusSnapshot()
	if err != nil {
		h.log.Warn().Err(err).Msg("System status collected with warnings")
	}

	h.writeJSON(w, response)
}

// SystemInfoResponse is the body of GET /api/system/info.
type SystemInfoResponse struct {
	Service       string  `json:"service"`
	Version       string  `json:"version"`
	GoVersion     string  `json:"go_version"`
	OS            string  `json:"os"`
	Arch          string  `json:"arch"`
	NumCPU        int     `json:"num_cpu"`
	PID           int     `json:"pid"`
	Hostname      string  `json:"hostname,omitempty"`
	Platform      string  `json:"platform,omitempty"`
	StartedAt     string  `json:"started_at"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	DataDir       string  `json:"data_dir"`
}

// HandleSystemInfo returns static build and runtime information
func (h *SystemHandlers) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	response := SystemInfoResponse{
		Service:       "vantage",
		Version:       h.version,
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		PID:           os.Getpid(),
		StartedAt:     h.started.Format(time.RFC3339),
		UptimeSeconds: time.Since(h.started).Seconds(),
		DataDir:       h.dataDir,
	}

	if info, err := host.Info(); err == nil {
		response.Hostname = info.Hostname
		response.Platform = info.Platform
	}

	h.writeJSON(w, response)
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
