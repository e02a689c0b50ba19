package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/vantage/internal/testing"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.snapshot.msgpack")
	fp := Fingerprint{Path: "ledger.csv", Size: 42, ModTime: 1700000000, SHA256: "abc123"}
	records := testingpkg.ScenarioRecords()

	require.NoError(t, writeSnapshot(path, fp, records))

	got, ok := readSnapshot(path, fp, zerolog.Nop())
	require.True(t, ok)
	require.Len(t, got, len(records))
	assert.Equal(t, records[0].Symbol, got[0].Symbol)
	assert.Equal(t, records[0].Pnl, got[0].Pnl)
	assert.Equal(t, records[0].OpenDate.Unix(), got[0].OpenDate.Unix())
	assert.Equal(t, records[3].DeltaCategory, got[3].DeltaCategory)
}

func TestSnapshot_MissWhenAbsent(t *testing.T) {
	_, ok := readSnapshot(filepath.Join(t.TempDir(), "nope.msgpack"), Fingerprint{}, zerolog.Nop())
	assert.False(t, ok)
}

func TestSnapshot_MissWhenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.snapshot.msgpack")
	require.NoError(t, os.WriteFile(path, []byte("not msgpack at all"), 0644))

	_, ok := readSnapshot(path, Fingerprint{}, zerolog.Nop())
	assert.False(t, ok)
}

func TestSnapshot_MissWhenFingerprintDiffers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.snapshot.msgpack")
	written := Fingerprint{Size: 42, SHA256: "abc123"}
	require.NoError(t, writeSnapshot(path, written, testingpkg.ScenarioRecords()))

	_, ok := readSnapshot(path, Fingerprint{Size: 42, SHA256: "different"}, zerolog.Nop())
	assert.False(t, ok)
}

func TestSnapshot_ContentIdentityIgnoresModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.snapshot.msgpack")
	written := Fingerprint{Size: 42, ModTime: 1700000000, SHA256: "abc123"}
	require.NoError(t, writeSnapshot(path, written, testingpkg.ScenarioRecords()))

	// A touched file with identical content still hits.
	want := Fingerprint{Size: 42, ModTime: 1800000000, SHA256: "abc123"}
	_, ok := readSnapshot(path, want, zerolog.Nop())
	assert.True(t, ok)
}

func TestSnapshot_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.snapshot.msgpack")
	require.NoError(t, writeSnapshot(path, Fingerprint{SHA256: "abc"}, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.snapshot.msgpack", entries[0].Name())
}
