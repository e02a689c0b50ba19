package testing

import (
	"sync"

	"github.com/aristath/vantage/internal/domain"
)

// MockRecordSource is an in-memory record source for testing services and
// handlers without a ledger file. It satisfies the analytics RecordSource
// interface.
type MockRecordSource struct {
	mu      sync.RWMutex
	records []domain.TradeRecord
}

// NewMockRecordSource creates a mock source seeded with the given records.
func NewMockRecordSource(records []domain.TradeRecord) *MockRecordSource {
	return &MockRecordSource{records: records}
}

// SetRecords replaces the records the source serves.
func (m *MockRecordSource) SetRecords(records []domain.TradeRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

// Records returns the current records.
func (m *MockRecordSource) Records() []domain.TradeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records
}
