package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vantage/internal/events"
)

// streamClient keeps a 5s ceiling on body reads so a missing frame fails the
// test instead of hanging it.
var streamClient = &http.Client{Timeout: 5 * time.Second}

// readFrame reads lines until the next SSE data frame and decodes it.
func readFrame(t *testing.T, reader *bufio.Reader) map[string]interface{} {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var frame map[string]interface{}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		require.NoError(t, json.Unmarshal([]byte(payload), &frame))
		return frame
	}
}

func TestEventsStream_DeliversEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(NewEventsStreamHandler(bus, zerolog.Nop()))
	defer srv.Close()

	resp, err := streamClient.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	reader := bufio.NewReader(resp.Body)

	// The connected frame is written after all subscriptions are in place.
	frame := readFrame(t, reader)
	assert.Equal(t, "connected", frame["type"])

	for _, eventType := range events.AllEventTypes {
		assert.Equal(t, 1, bus.SubscriberCount(eventType))
	}

	bus.Emit(events.LedgerReloaded, "ledger", map[string]interface{}{"records": 12})

	frame = readFrame(t, reader)
	assert.Equal(t, "LEDGER_RELOADED", frame["type"])
	assert.Equal(t, "ledger", frame["module"])
	assert.NotEmpty(t, frame["timestamp"])

	data, ok := frame["data"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 12, data["records"])
}

func TestEventsStream_TypeFilter(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(NewEventsStreamHandler(bus, zerolog.Nop()))
	defer srv.Close()

	resp, err := streamClient.Get(srv.URL + "?types=LEDGER_RELOADED")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	frame := readFrame(t, reader)
	assert.Equal(t, "connected", frame["type"])

	assert.Equal(t, 1, bus.SubscriberCount(events.LedgerReloaded))
	assert.Equal(t, 0, bus.SubscriberCount(events.BackupCompleted))

	// The backup event is outside the filter; the reload event following it
	// must be the next frame on the wire.
	bus.Emit(events.BackupCompleted, "backup", nil)
	bus.Emit(events.LedgerReloaded, "ledger", nil)

	frame = readFrame(t, reader)
	assert.Equal(t, "LEDGER_RELOADED", frame["type"])
}

func TestEventsStream_UnsubscribesOnDisconnect(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	srv := httptest.NewServer(NewEventsStreamHandler(bus, zerolog.Nop()))
	defer srv.Close()

	resp, err := streamClient.Get(srv.URL)
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	frame := readFrame(t, reader)
	assert.Equal(t, "connected", frame["type"])

	require.NoError(t, resp.Body.Close())

	require.Eventually(t, func() bool {
		for _, eventType := range events.AllEventTypes {
			if bus.SubscriberCount(eventType) != 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventsStream_Heartbeat(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	handler := NewEventsStreamHandler(bus, zerolog.Nop())
	handler.heartbeatInterval = 20 * time.Millisecond

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := streamClient.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	frame := readFrame(t, reader)
	assert.Equal(t, "connected", frame["type"])

	frame = readFrame(t, reader)
	assert.Equal(t, "heartbeat", frame["type"])
	assert.NotEmpty(t, frame["timestamp"])
}

func TestEventsStream_MethodNotAllowed(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	handler := NewEventsStreamHandler(bus, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/events/stream", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
