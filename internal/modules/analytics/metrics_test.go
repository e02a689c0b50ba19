package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vantage/internal/domain"
	testingpkg "github.com/aristath/vantage/internal/testing"
)

func TestSummarize_FourTradeScenario(t *testing.T) {
	summary := Summarize(testingpkg.ScenarioRecords())

	assert.Equal(t, 4, summary.TotalTrades)
	assert.InDelta(t, 230.0, summary.TotalPnl, 1e-9)
	assert.InDelta(t, 300.0, summary.GrossProfit, 1e-9)
	assert.InDelta(t, 70.0, summary.GrossLoss, 1e-9)

	require.NotNil(t, summary.AvgPnl)
	assert.InDelta(t, 57.5, *summary.AvgPnl, 1e-9)

	require.NotNil(t, summary.MedianPnl)
	assert.InDelta(t, 40.0, *summary.MedianPnl, 1e-9) // mean of -20 and 100

	require.NotNil(t, summary.WinRate)
	assert.InDelta(t, 50.0, *summary.WinRate, 1e-9)

	require.True(t, summary.ProfitFactor.IsFinite())
	assert.InDelta(t, 300.0/70.0, summary.ProfitFactor.Value, 1e-9)
}

func TestSummarize_NoLossesIsInfinite(t *testing.T) {
	records := Apply(testingpkg.ScenarioRecords(), Filter{Status: "closed"})
	require.Len(t, records, 2)

	summary := Summarize(records)

	assert.InDelta(t, 300.0, summary.TotalPnl, 1e-9)
	require.NotNil(t, summary.WinRate)
	assert.InDelta(t, 100.0, *summary.WinRate, 1e-9)
	assert.InDelta(t, 0.0, summary.GrossLoss, 1e-9)
	assert.Equal(t, domain.ProfitFactorInfinite, summary.ProfitFactor.State)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalTrades)
	assert.Zero(t, summary.TotalPnl)
	assert.Nil(t, summary.AvgPnl)
	assert.Nil(t, summary.MedianPnl)
	assert.Nil(t, summary.WinRate)
	assert.Equal(t, domain.ProfitFactorUndefined, summary.ProfitFactor.State)
	assert.False(t, summary.HasData())
}

func TestSummarize_AllZeroPnlIsInfinite(t *testing.T) {
	// No losing trades means an infinite profit factor even when nothing was
	// won either.
	records := testingpkg.ScenarioRecords()[:2]
	records[0].Pnl = 0
	records[1].Pnl = 0

	summary := Summarize(records)

	assert.Zero(t, summary.GrossProfit)
	assert.Zero(t, summary.GrossLoss)
	assert.Equal(t, domain.ProfitFactorInfinite, summary.ProfitFactor.State)
	require.NotNil(t, summary.WinRate)
	assert.Zero(t, *summary.WinRate) // zero pnl is not a win
}

func TestSummarize_AllLosses(t *testing.T) {
	records := testingpkg.ScenarioRecords()
	for i := range records {
		records[i].Pnl = -float64(i+1) * 10
	}

	summary := Summarize(records)

	assert.Greater(t, summary.GrossLoss, 0.0)
	assert.Zero(t, summary.GrossProfit)
	require.True(t, summary.ProfitFactor.IsFinite())
	assert.Zero(t, summary.ProfitFactor.Value)
	require.NotNil(t, summary.WinRate)
	assert.Zero(t, *summary.WinRate)
}

func TestSummarize_WinRateBounds(t *testing.T) {
	cases := [][]float64{
		{1, 2, 3},
		{-1, -2, -3},
		{0, 0, 0},
		{5, -5, 0, 10, -10},
		{42},
	}

	for _, pnls := range cases {
		records := testingpkg.ManyRecords(len(pnls))
		for i, pnl := range pnls {
			records[i].Pnl = pnl
		}

		summary := Summarize(records)

		require.NotNil(t, summary.WinRate)
		assert.GreaterOrEqual(t, *summary.WinRate, 0.0)
		assert.LessOrEqual(t, *summary.WinRate, 100.0)
	}
}

func TestSummarize_Additivity(t *testing.T) {
	records := testingpkg.SampleRecords()

	var want float64
	for _, rec := range records {
		want += rec.Pnl
	}

	assert.InDelta(t, want, Summarize(records).TotalPnl, 1e-9)

	// Partitioning by status preserves the total.
	closed := Summarize(Apply(records, Filter{Status: "closed"}))
	expired := Summarize(Apply(records, Filter{Status: "expired"}))
	assert.InDelta(t, want, closed.TotalPnl+expired.TotalPnl, 1e-9)
}

func TestSummarize_SingleTrade(t *testing.T) {
	records := testingpkg.ScenarioRecords()[:1]

	summary := Summarize(records)

	assert.Equal(t, 1, summary.TotalTrades)
	require.NotNil(t, summary.AvgPnl)
	require.NotNil(t, summary.MedianPnl)
	assert.InDelta(t, *summary.AvgPnl, *summary.MedianPnl, 1e-9)
	assert.True(t, summary.HasData())
}
