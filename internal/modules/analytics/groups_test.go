package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/vantage/internal/testing"
)

func TestAggregate_ByStatusScenario(t *testing.T) {
	groups, err := Aggregate(testingpkg.ScenarioRecords(), []GroupKey{GroupByStatus})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Descending total P&L: closed (300) before expired (-70).
	assert.Equal(t, "closed", groups[0].Keys["status"])
	assert.InDelta(t, 300.0, groups[0].Summary.TotalPnl, 1e-9)
	assert.Equal(t, 2, groups[0].Summary.TotalTrades)

	assert.Equal(t, "expired", groups[1].Keys["status"])
	assert.InDelta(t, -70.0, groups[1].Summary.TotalPnl, 1e-9)
	assert.Equal(t, 2, groups[1].Summary.TotalTrades)
}

func TestAggregate_OnlyPresentCombinations(t *testing.T) {
	records := testingpkg.SampleRecords()

	groups, err := Aggregate(records, []GroupKey{GroupByStrategy, GroupByStatus})
	require.NoError(t, err)

	present := make(map[string]bool)
	for _, rec := range records {
		present[rec.StrategyType+"|"+string(rec.Status)] = true
	}

	assert.Len(t, groups, len(present))
	for _, g := range groups {
		combo := g.Keys["strategy"] + "|" + g.Keys["status"]
		assert.True(t, present[combo], "group %s must exist in the data", combo)
	}
}

func TestAggregate_PartitionCompleteness(t *testing.T) {
	records := testingpkg.SampleRecords()

	groups, err := Aggregate(records, []GroupKey{GroupByStrategy, GroupByMonth})
	require.NoError(t, err)

	total := 0
	var totalPnl float64
	for _, g := range groups {
		total += g.Summary.TotalTrades
		totalPnl += g.Summary.TotalPnl
	}

	// No overlap, no omission.
	assert.Equal(t, len(records), total)
	assert.InDelta(t, Summarize(records).TotalPnl, totalPnl, 1e-9)
}

func TestAggregate_StrategyExtras(t *testing.T) {
	groups, err := Aggregate(testingpkg.SampleRecords(), []GroupKey{GroupByStrategy})
	require.NoError(t, err)

	for _, g := range groups {
		require.NotNil(t, g.AvgDaysInTrade)
		assert.Greater(t, *g.AvgDaysInTrade, 0.0)
		require.NotNil(t, g.AvgReturnPct, "strategy groupings report mean return")
	}
}

func TestAggregate_NoReturnPctWithoutStrategyKey(t *testing.T) {
	groups, err := Aggregate(testingpkg.SampleRecords(), []GroupKey{GroupBySymbol})
	require.NoError(t, err)

	for _, g := range groups {
		require.NotNil(t, g.AvgDaysInTrade)
		assert.Nil(t, g.AvgReturnPct)
	}
}

func TestAggregate_TieOrderStable(t *testing.T) {
	records := testingpkg.ManyRecords(4)
	// Two symbols with identical totals; AAA seen first.
	records[0].Symbol = "AAA"
	records[0].Pnl = 10
	records[1].Symbol = "BBB"
	records[1].Pnl = 10
	records[2].Symbol = "AAA"
	records[2].Pnl = 5
	records[3].Symbol = "BBB"
	records[3].Pnl = 5

	groups, err := Aggregate(records, []GroupKey{GroupBySymbol})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "AAA", groups[0].Keys["symbol"])
	assert.Equal(t, "BBB", groups[1].Keys["symbol"])
}

func TestAggregate_InvalidKeys(t *testing.T) {
	records := testingpkg.ScenarioRecords()

	tests := []struct {
		name string
		keys []GroupKey
	}{
		{"no keys", nil},
		{"three keys", []GroupKey{GroupByStrategy, GroupByStatus, GroupBySymbol}},
		{"duplicate", []GroupKey{GroupByStatus, GroupByStatus}},
		{"unknown", []GroupKey{"pnl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(records, tt.keys)
			assert.ErrorIs(t, err, ErrInvalidGroupKeys)
		})
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	groups, err := Aggregate(nil, []GroupKey{GroupByStatus})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestParseGroupKey(t *testing.T) {
	for _, raw := range []string{"strategy", "status", "symbol", "month", "delta_category"} {
		key, err := ParseGroupKey(raw)
		require.NoError(t, err)
		assert.Equal(t, GroupKey(raw), key)
	}

	_, err := ParseGroupKey("quantity")
	assert.ErrorIs(t, err, ErrInvalidGroupKeys)
}

func TestPivot_DenseMatrix(t *testing.T) {
	records := testingpkg.SampleRecords()

	table, err := Pivot(records, GroupByStatus, GroupByStrategy)
	require.NoError(t, err)

	assert.Len(t, table.Rows, 2)
	assert.Len(t, table.Cols, 3)
	require.Len(t, table.Cells, len(table.Rows))
	for _, row := range table.Cells {
		assert.Len(t, row, len(table.Cols))
	}

	// Every combination present in the data must be a populated cell; every
	// combination absent must be an explicit no-data cell.
	present := make(map[string]bool)
	for _, rec := range records {
		present[string(rec.Status)+"|"+rec.StrategyType] = true
	}
	for i, rowLabel := range table.Rows {
		for j, colLabel := range table.Cols {
			cell := table.Cells[i][j]
			if present[rowLabel+"|"+colLabel] {
				assert.True(t, cell.HasData)
				assert.Greater(t, cell.Trades, 0)
			} else {
				assert.False(t, cell.HasData)
				assert.Zero(t, cell.Trades)
			}
		}
	}
}

func TestPivot_NoDataCellDistinctFromZero(t *testing.T) {
	records := testingpkg.ManyRecords(3)
	records[0].Symbol = "AAA"
	records[0].Pnl = 0 // nets to zero but has data
	records[1].Symbol = "BBB"
	records[1].Pnl = 7
	records[2].Symbol = "BBB"
	records[2].Status = records[0].Status

	// Force a hole: AAA appears under only one status.
	table, err := Pivot(records, GroupBySymbol, GroupByStatus)
	require.NoError(t, err)

	foundZeroWithData := false
	foundHole := false
	for i := range table.Cells {
		for j := range table.Cells[i] {
			cell := table.Cells[i][j]
			if cell.HasData && cell.TotalPnl == 0 {
				foundZeroWithData = true
			}
			if !cell.HasData {
				foundHole = true
			}
		}
	}
	assert.True(t, foundZeroWithData, "a zero-total cell with trades must report HasData")
	assert.True(t, foundHole, "absent combinations must appear as no-data cells")
}

func TestPivot_RowAndColumnOrder(t *testing.T) {
	records := testingpkg.SampleRecords()

	table, err := Pivot(records, GroupByStrategy, GroupByMonth)
	require.NoError(t, err)

	// Rows: descending total P&L of the row attribute.
	rowGroups, err := Aggregate(records, []GroupKey{GroupByStrategy})
	require.NoError(t, err)
	for i, g := range rowGroups {
		assert.Equal(t, g.Keys["strategy"], table.Rows[i])
	}

	// Columns: ascending labels, which is chronological for months.
	for j := 1; j < len(table.Cols); j++ {
		assert.Less(t, table.Cols[j-1], table.Cols[j])
	}
}

func TestPivot_AvgPnl(t *testing.T) {
	records := testingpkg.ScenarioRecords()

	table, err := Pivot(records, GroupByStatus, GroupBySymbol)
	require.NoError(t, err)

	for i := range table.Cells {
		for j := range table.Cells[i] {
			cell := table.Cells[i][j]
			if cell.HasData {
				assert.InDelta(t, cell.TotalPnl/float64(cell.Trades), cell.AvgPnl, 1e-9)
			}
		}
	}
}

func TestPivot_InvalidKeys(t *testing.T) {
	records := testingpkg.ScenarioRecords()

	_, err := Pivot(records, GroupByStatus, GroupByStatus)
	assert.ErrorIs(t, err, ErrInvalidGroupKeys)

	_, err = Pivot(records, GroupKey("bogus"), GroupByStatus)
	assert.ErrorIs(t, err, ErrInvalidGroupKeys)
}

func TestPivot_Empty(t *testing.T) {
	table, err := Pivot(nil, GroupByStatus, GroupByStrategy)
	require.NoError(t, err)

	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Cols)
	assert.Empty(t, table.Cells)
}
