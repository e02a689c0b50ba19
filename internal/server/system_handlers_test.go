package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vantage/internal/modules/ledger"
	testingpkg "github.com/aristath/vantage/internal/testing"
)

const testLedgerCSV = `openDate,closeDate,type,symbol,status,quantity,pnl,returnPct,daysInTrade,estimated_delta,delta_category
2025-01-06,2025-01-24,Iron Condor,SPY,closed,1,100,8,18,-5,Neutral
2025-01-13,2025-02-21,Short Put Spread,AAPL,expired,2,-50,-4.5,39,30,Bullish
2025-02-03,2025-02-28,Iron Condor,SPY,closed,1,200,15,25,2,Neutral
`

func newTestStore(t *testing.T, dir string) *ledger.Store {
	t.Helper()

	path := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(testLedgerCSV), 0644))

	store, err := ledger.Open(path, ledger.Options{}, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestHandleSystemStatus(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)
	handlers := NewSystemHandlers(store, nil, dir, "1.2.3", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()

	handlers.HandleSystemStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "1.2.3", response.Version)
	assert.Equal(t, runtime.Version(), response.GoVersion)
	assert.Greater(t, response.Goroutines, 0)
	assert.NotEmpty(t, response.Timestamp)

	assert.Equal(t, 3, response.Ledger.Records)
	assert.Len(t, response.Ledger.SHA256, 64)
	assert.Equal(t, filepath.Join(dir, "trades.csv"), response.Ledger.Path)

	// Host metrics come from the machine running the test; only sanity-check.
	assert.Greater(t, response.Memory.TotalMB, 0.0)
	assert.Equal(t, dir, response.Disk.Path)
	assert.Greater(t, response.Disk.TotalGB, 0.0)

	// No archive was wired, so the field is omitted.
	assert.Nil(t, response.ArchivedTrades)
}

func TestHandleSystemStatus_WithArchive(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)

	db, cleanup := testingpkg.NewTestDB(t, "server_archive")
	t.Cleanup(cleanup)

	repo := ledger.NewRepository(db, zerolog.Nop())
	_, err := repo.ReplaceAll(store.Records(), store.Info())
	require.NoError(t, err)

	handlers := NewSystemHandlers(store, repo, dir, "test", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()

	handlers.HandleSystemStatus(rec, req)

	var response SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	require.NotNil(t, response.ArchivedTrades)
	assert.Equal(t, 3, *response.ArchivedTrades)
}

func TestHandleSystemInfo(t *testing.T) {
	dir := t.TempDir()
	handlers := NewSystemHandlers(nil, nil, dir, "1.2.3", zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/system/info", nil)
	rec := httptest.NewRecorder()

	handlers.HandleSystemInfo(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response SystemInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "vantage", response.Service)
	assert.Equal(t, "1.2.3", response.Version)
	assert.Equal(t, runtime.Version(), response.GoVersion)
	assert.Equal(t, runtime.GOOS, response.OS)
	assert.Equal(t, runtime.GOARCH, response.Arch)
	assert.Equal(t, runtime.NumCPU(), response.NumCPU)
	assert.Equal(t, os.Getpid(), response.PID)
	assert.Equal(t, dir, response.DataDir)
	assert.NotEmpty(t, response.StartedAt)
	assert.GreaterOrEqual(t, response.UptimeSeconds, 0.0)
}
