package analytics

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/vantage/internal/testing"
)

func newTestService(t *testing.T) (*Service, *testingpkg.MockRecordSource) {
	t.Helper()

	source := testingpkg.NewMockRecordSource(testingpkg.SampleRecords())
	cfg := Config{
		Thresholds:           Thresholds{Bullish: 50, Bearish: -50},
		WinRateTarget:        75,
		ProfitFactorStrong:   2.0,
		ProfitFactorAdequate: 1.5,
		EquityTrendWindow:    3,
	}
	return NewService(source, cfg, zerolog.Nop()), source
}

func TestService_Summary(t *testing.T) {
	svc, _ := newTestService(t)

	all := svc.Summary(Filter{})
	assert.Equal(t, 12, all.TotalTrades)

	closed := svc.Summary(Filter{Status: "closed"})
	assert.Less(t, closed.TotalTrades, all.TotalTrades)
	assert.Greater(t, closed.TotalTrades, 0)
}

func TestService_SummaryReflectsSourceSwap(t *testing.T) {
	svc, source := newTestService(t)

	source.SetRecords(testingpkg.ScenarioRecords())

	summary := svc.Summary(Filter{})
	assert.Equal(t, 4, summary.TotalTrades)
	assert.InDelta(t, 230.0, summary.TotalPnl, 1e-9)
}

func TestService_Groups(t *testing.T) {
	svc, _ := newTestService(t)

	groups, err := svc.Groups(Filter{}, []GroupKey{GroupByStrategy})
	require.NoError(t, err)
	assert.Len(t, groups, 3)

	_, err = svc.Groups(Filter{}, []GroupKey{"bogus"})
	assert.ErrorIs(t, err, ErrInvalidGroupKeys)
}

func TestService_Top(t *testing.T) {
	svc, _ := newTestService(t)

	top, err := svc.Top(Filter{Status: "closed"}, 3, Best)
	require.NoError(t, err)
	require.Len(t, top, 3)
	for _, rec := range top {
		assert.Equal(t, "closed", string(rec.Status))
	}
}

func TestService_ExposureUsesConfiguredThresholds(t *testing.T) {
	source := testingpkg.NewMockRecordSource(testingpkg.ManyRecords(1))
	records := source.Records()
	records[0].EstimatedDelta = 30
	source.SetRecords(records)

	tight := NewService(source, Config{Thresholds: Thresholds{Bullish: 10, Bearish: -10}}, zerolog.Nop())

	report := tight.Exposure(Filter{})
	assert.Equal(t, "Bullish", string(report.Bias))
}

func TestService_EquityWindowFallback(t *testing.T) {
	svc, source := newTestService(t)
	source.SetRecords(testingpkg.SampleRecords())

	// window <= 0 falls back to the configured window of 3.
	curve := svc.Equity(Filter{}, 0)
	require.Len(t, curve, 12)
	assert.Nil(t, curve[1].SMA)
	assert.NotNil(t, curve[2].SMA)

	wide := svc.Equity(Filter{}, 5)
	assert.Nil(t, wide[3].SMA)
	assert.NotNil(t, wide[4].SMA)
}

func TestService_MonthlyAndBreakdown(t *testing.T) {
	svc, source := newTestService(t)
	source.SetRecords(testingpkg.ScenarioRecords())

	months := svc.Monthly(Filter{})
	assert.Len(t, months, 2)

	b := svc.Breakdown(Filter{})
	assert.Equal(t, 2, b.Wins)

	comparison := svc.StatusComparison(Filter{})
	assert.NotNil(t, comparison.Multiplier)
}

func TestService_ConfigExposed(t *testing.T) {
	svc, _ := newTestService(t)

	cfg := svc.Config()
	assert.InDelta(t, 75.0, cfg.WinRateTarget, 1e-9)
	assert.InDelta(t, 2.0, cfg.ProfitFactorStrong, 1e-9)
}
