package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vantage/internal/domain"
	testingpkg "github.com/aristath/vantage/internal/testing"
)

func TestEquityCurve(t *testing.T) {
	records := testingpkg.ScenarioRecords()

	curve := EquityCurve(records)
	require.Len(t, curve, len(records))

	// Dates never go backwards.
	for i := 1; i < len(curve); i++ {
		assert.LessOrEqual(t, curve[i-1].Date, curve[i].Date)
	}

	// The final point equals the subset's total P&L.
	summary := Summarize(records)
	assert.InDelta(t, summary.TotalPnl, curve[len(curve)-1].CumulativePnl, 1e-9)
}

func TestEquityCurve_OrdersByCloseDate(t *testing.T) {
	records := testingpkg.ScenarioRecords()
	// Close dates 01-24, 02-21, 02-28, 03-21 are already ascending, so the
	// curve follows load order here; reverse the input to prove sorting.
	reversed := []domain.TradeRecord{records[3], records[2], records[1], records[0]}

	curve := EquityCurve(reversed)

	assert.Equal(t, "2025-01-24", curve[0].Date)
	assert.Equal(t, 0, curve[0].TradeID)
	assert.InDelta(t, 100.0, curve[0].CumulativePnl, 1e-9)
	assert.InDelta(t, 230.0, curve[3].CumulativePnl, 1e-9)
}

func TestEquityCurve_StableOnEqualDates(t *testing.T) {
	records := testingpkg.ManyRecords(3)
	for i := range records {
		records[i].CloseDate = testingpkg.Day("2025-02-28")
	}

	curve := EquityCurve(records)

	assert.Equal(t, 0, curve[0].TradeID)
	assert.Equal(t, 1, curve[1].TradeID)
	assert.Equal(t, 2, curve[2].TradeID)
}

func TestEquityCurve_Empty(t *testing.T) {
	assert.Empty(t, EquityCurve(nil))
}

func TestWithTrend(t *testing.T) {
	records := testingpkg.SampleRecords()
	curve := EquityCurve(records)

	trended := WithTrend(curve, 3)
	require.Len(t, trended, len(curve))

	// Nothing before the window fills, values after.
	assert.Nil(t, trended[0].SMA)
	assert.Nil(t, trended[1].SMA)
	require.NotNil(t, trended[2].SMA)
	require.NotNil(t, trended[2].EMA)

	want := (curve[0].CumulativePnl + curve[1].CumulativePnl + curve[2].CumulativePnl) / 3
	assert.InDelta(t, want, *trended[2].SMA, 1e-9)

	// The curve values pass through untouched.
	for i := range curve {
		assert.Equal(t, curve[i].CumulativePnl, trended[i].CumulativePnl)
	}
}

func TestWithTrend_WindowLargerThanCurve(t *testing.T) {
	curve := EquityCurve(testingpkg.ScenarioRecords())

	trended := WithTrend(curve, 50)

	for _, p := range trended {
		assert.Nil(t, p.SMA)
		assert.Nil(t, p.EMA)
	}
}

func TestMonthlyPnl(t *testing.T) {
	records := testingpkg.ScenarioRecords()

	buckets := MonthlyPnl(records)
	require.Len(t, buckets, 2)

	assert.Equal(t, "2025-01", buckets[0].Month)
	assert.InDelta(t, 50.0, buckets[0].TotalPnl, 1e-9) // 100 - 50
	assert.Equal(t, 2, buckets[0].Trades)
	require.NotNil(t, buckets[0].WinRate)
	assert.InDelta(t, 50.0, *buckets[0].WinRate, 1e-9)

	assert.Equal(t, "2025-02", buckets[1].Month)
	assert.InDelta(t, 180.0, buckets[1].TotalPnl, 1e-9) // 200 - 20
}

func TestMonthlyPnl_Chronological(t *testing.T) {
	buckets := MonthlyPnl(testingpkg.SampleRecords())

	require.NotEmpty(t, buckets)
	for i := 1; i < len(buckets); i++ {
		assert.Less(t, buckets[i-1].Month, buckets[i].Month)
	}
}

func TestMonthlyPnl_Empty(t *testing.T) {
	assert.Empty(t, MonthlyPnl(nil))
}

func TestBreakdown(t *testing.T) {
	b := Breakdown(testingpkg.ScenarioRecords())

	assert.Equal(t, 2, b.Wins)
	assert.Equal(t, 2, b.Losses)
	assert.InDelta(t, 300.0, b.WinPnl, 1e-9)
	assert.InDelta(t, -70.0, b.LossPnl, 1e-9)
	require.NotNil(t, b.AvgWin)
	assert.InDelta(t, 150.0, *b.AvgWin, 1e-9)
	require.NotNil(t, b.AvgLoss)
	assert.InDelta(t, -35.0, *b.AvgLoss, 1e-9)
}

func TestBreakdown_ScratchCountsAsLoss(t *testing.T) {
	records := testingpkg.ManyRecords(2)
	records[0].Pnl = 0
	records[1].Pnl = 10

	b := Breakdown(records)

	assert.Equal(t, 1, b.Wins)
	assert.Equal(t, 1, b.Losses)
	require.NotNil(t, b.AvgLoss)
	assert.Zero(t, *b.AvgLoss)
}

func TestBreakdown_OneSided(t *testing.T) {
	records := testingpkg.ManyRecords(3) // pnl 3, 2, 1, all wins

	b := Breakdown(records)

	assert.Equal(t, 3, b.Wins)
	assert.Zero(t, b.Losses)
	assert.NotNil(t, b.AvgWin)
	assert.Nil(t, b.AvgLoss)
}

func TestBreakdown_Empty(t *testing.T) {
	b := Breakdown(nil)

	assert.Zero(t, b.Wins)
	assert.Zero(t, b.Losses)
	assert.Nil(t, b.AvgWin)
	assert.Nil(t, b.AvgLoss)
}

func TestCompareStatus(t *testing.T) {
	comparison := CompareStatus(testingpkg.ScenarioRecords())

	assert.Equal(t, 2, comparison.ClosedTrades)
	assert.Equal(t, 2, comparison.ExpiredTrades)
	require.NotNil(t, comparison.ClosedAvgPnl)
	assert.InDelta(t, 150.0, *comparison.ClosedAvgPnl, 1e-9)
	require.NotNil(t, comparison.ExpiredAvgPnl)
	assert.InDelta(t, -35.0, *comparison.ExpiredAvgPnl, 1e-9)
	require.NotNil(t, comparison.Multiplier)
	assert.InDelta(t, 150.0/-35.0, *comparison.Multiplier, 1e-9)
}

func TestCompareStatus_MissingStatus(t *testing.T) {
	records := Apply(testingpkg.ScenarioRecords(), Filter{Status: "closed"})

	comparison := CompareStatus(records)

	assert.Equal(t, 2, comparison.ClosedTrades)
	assert.Zero(t, comparison.ExpiredTrades)
	assert.NotNil(t, comparison.ClosedAvgPnl)
	assert.Nil(t, comparison.ExpiredAvgPnl)
	assert.Nil(t, comparison.Multiplier, "no expired trades means no ratio")
}

func TestCompareStatus_ZeroExpiredAverage(t *testing.T) {
	records := testingpkg.ManyRecords(2)
	records[0].Status = domain.StatusClosed
	records[0].Pnl = 80
	records[1].Status = domain.StatusExpired
	records[1].Pnl = 0

	comparison := CompareStatus(records)

	require.NotNil(t, comparison.ExpiredAvgPnl)
	assert.Zero(t, *comparison.ExpiredAvgPnl)
	assert.Nil(t, comparison.Multiplier, "division by a zero average is reported as no data")
}
