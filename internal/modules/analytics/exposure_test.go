package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vantage/internal/domain"
	testingpkg "github.com/aristath/vantage/internal/testing"
)

var testThresholds = Thresholds{Bullish: 50, Bearish: -50}

func TestExposure_Totals(t *testing.T) {
	records := testingpkg.ScenarioRecords() // deltas -5, 30, 2, -40

	report := Exposure(records, testThresholds)

	assert.InDelta(t, -13.0, report.TotalDelta, 1e-9)
	require.NotNil(t, report.AvgDelta)
	assert.InDelta(t, -13.0/4, *report.AvgDelta, 1e-9)
	assert.Equal(t, domain.BiasNeutral, report.Bias)
}

func TestExposure_BiasClassification(t *testing.T) {
	tests := []struct {
		name   string
		deltas []float64
		want   domain.Bias
	}{
		{"clearly bullish", []float64{40, 30}, domain.BiasBullish},
		{"clearly bearish", []float64{-60, -20}, domain.BiasBearish},
		{"inside the band", []float64{20, 10}, domain.BiasNeutral},
		{"exactly on bullish threshold", []float64{50}, domain.BiasNeutral},
		{"exactly on bearish threshold", []float64{-50}, domain.BiasNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := testingpkg.ManyRecords(len(tt.deltas))
			for i, d := range tt.deltas {
				records[i].EstimatedDelta = d
			}

			report := Exposure(records, testThresholds)
			assert.Equal(t, tt.want, report.Bias)
		})
	}
}

func TestExposure_ConfigurableThresholds(t *testing.T) {
	records := testingpkg.ManyRecords(1)
	records[0].EstimatedDelta = 30

	tight := Exposure(records, Thresholds{Bullish: 10, Bearish: -10})
	assert.Equal(t, domain.BiasBullish, tight.Bias)

	loose := Exposure(records, testThresholds)
	assert.Equal(t, domain.BiasNeutral, loose.Bias)
}

func TestExposure_NeutralPct(t *testing.T) {
	records := testingpkg.ScenarioRecords() // 2 of 4 are Neutral

	report := Exposure(records, testThresholds)

	require.NotNil(t, report.NeutralPct)
	assert.InDelta(t, 50.0, *report.NeutralPct, 1e-9)
}

func TestExposure_CategoryCounts(t *testing.T) {
	records := testingpkg.SampleRecords()

	report := Exposure(records, testThresholds)

	want := map[string]int{}
	for _, rec := range records {
		want[string(rec.DeltaCategory)]++
	}

	total := 0
	for _, c := range report.Categories {
		assert.Equal(t, want[c.Category], c.Trades)
		total += c.Trades
	}
	assert.Equal(t, len(records), total)

	for i := 1; i < len(report.Categories); i++ {
		assert.GreaterOrEqual(t, report.Categories[i-1].Trades, report.Categories[i].Trades)
	}
}

func TestExposure_ByStrategy(t *testing.T) {
	records := testingpkg.SampleRecords()

	report := Exposure(records, testThresholds)

	require.Len(t, report.ByStrategy, 3)

	// Ordered by descending total P&L.
	for i := 1; i < len(report.ByStrategy); i++ {
		assert.GreaterOrEqual(t, report.ByStrategy[i-1].TotalPnl, report.ByStrategy[i].TotalPnl)
	}

	for _, exp := range report.ByStrategy {
		assert.Greater(t, exp.Trades, 0)
		assert.InDelta(t, exp.TotalDelta/float64(exp.Trades), exp.AvgDelta, 1e-9)
	}
}

func TestExposure_Empty(t *testing.T) {
	report := Exposure(nil, testThresholds)

	assert.Zero(t, report.TotalDelta)
	assert.Nil(t, report.AvgDelta)
	assert.Nil(t, report.NeutralPct)
	assert.Equal(t, domain.BiasNeutral, report.Bias)
	assert.Empty(t, report.Categories)
	assert.Empty(t, report.ByStrategy)
}
