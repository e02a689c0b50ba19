package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/vantage/internal/domain"
	"github.com/aristath/vantage/pkg/formulas"
)

// GroupKey selects the record attribute a grouping is keyed on.
type GroupKey string

const (
	GroupByStrategy      GroupKey = "strategy"
	GroupByStatus        GroupKey = "status"
	GroupBySymbol        GroupKey = "symbol"
	GroupByMonth         GroupKey = "month"
	GroupByDeltaCategory GroupKey = "delta_category"
)

// ErrInvalidGroupKeys is returned for an unknown key, duplicate keys, or a
// key count outside 1..2.
var ErrInvalidGroupKeys = errors.New("invalid group keys")

// ParseGroupKey validates a raw key name from the API.
func ParseGroupKey(raw string) (GroupKey, error) {
	key := GroupKey(raw)
	switch key {
	case GroupByStrategy, GroupByStatus, GroupBySymbol, GroupByMonth, GroupByDeltaCategory:
		return key, nil
	}
	return "", fmt.Errorf("%w: unknown key %q", ErrInvalidGroupKeys, raw)
}

// keyValue extracts the grouping label for a record. Unrecognized status or
// delta-category values pass through and group under their raw label.
func keyValue(rec domain.TradeRecord, key GroupKey) string {
	switch key {
	case GroupByStrategy:
		return rec.StrategyType
	case GroupByStatus:
		return string(rec.Status)
	case GroupBySymbol:
		return rec.Symbol
	case GroupByMonth:
		return rec.Month
	case GroupByDeltaCategory:
		return string(rec.DeltaCategory)
	}
	return ""
}

// GroupResult is one bucket of an aggregation: the key values that define it
// and the metrics computed over its members. AvgReturnPct is populated only
// when the grouping includes the strategy key.
type GroupResult struct {
	Keys           map[string]string     `json:"keys"`
	Summary        domain.MetricsSummary `json:"summary"`
	AvgDaysInTrade *float64              `json:"avg_days_in_trade"`
	AvgReturnPct   *float64              `json:"avg_return_pct,omitempty"`
}

func validateKeys(keys []GroupKey) error {
	if len(keys) < 1 || len(keys) > 2 {
		return fmt.Errorf("%w: expected 1 or 2 keys, got %d", ErrInvalidGroupKeys, len(keys))
	}
	seen := make(map[GroupKey]bool, len(keys))
	for _, key := range keys {
		if _, err := ParseGroupKey(string(key)); err != nil {
			return err
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidGroupKeys, key)
		}
		seen[key] = true
	}
	return nil
}

// Aggregate buckets records by one or two keys and summarizes each bucket.
// Only combinations present in the input produce a bucket; a dense matrix is
// Pivot's job. Results are ordered by descending total P&L, with first-seen
// order breaking ties.
func Aggregate(records []domain.TradeRecord, keys []GroupKey) ([]GroupResult, error) {
	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	type bucket struct {
		values []string
		recs   []domain.TradeRecord
	}

	byKey := make(map[string]*bucket)
	var order []*bucket

	for _, rec := range records {
		values := make([]string, len(keys))
		for i, key := range keys {
			values[i] = keyValue(rec, key)
		}
		composite := strings.Join(values, "\x1f")

		b, ok := byKey[composite]
		if !ok {
			b = &bucket{values: values}
			byKey[composite] = b
			order = append(order, b)
		}
		b.recs = append(b.recs, rec)
	}

	withStrategy := false
	for _, key := range keys {
		if key == GroupByStrategy {
			withStrategy = true
		}
	}

	results := make([]GroupResult, 0, len(order))
	for _, b := range order {
		keyMap := make(map[string]string, len(keys))
		for i, key := range keys {
			keyMap[string(key)] = b.values[i]
		}

		result := GroupResult{
			Keys:    keyMap,
			Summary: Summarize(b.recs),
		}

		days := make([]float64, len(b.recs))
		for i, rec := range b.recs {
			days[i] = rec.DaysInTrade
		}
		avgDays := formulas.Mean(days)
		result.AvgDaysInTrade = &avgDays

		if withStrategy {
			returns := make([]float64, len(b.recs))
			for i, rec := range b.recs {
				returns[i] = rec.ReturnPct
			}
			avgReturn := formulas.Mean(returns)
			result.AvgReturnPct = &avgReturn
		}

		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Summary.TotalPnl > results[j].Summary.TotalPnl
	})

	return results, nil
}

// PivotCell is one cell of a dense pivot table. HasData distinguishes a
// combination absent from the data from one that nets to zero.
type PivotCell struct {
	HasData  bool    `json:"has_data"`
	TotalPnl float64 `json:"total_pnl"`
	AvgPnl   float64 `json:"avg_pnl"`
	Trades   int     `json:"trades"`
}

// PivotTable is a two-key aggregation reshaped into a matrix covering every
// distinct row value crossed with every distinct column value. Rows are
// ordered by descending row-total P&L; columns sort ascending by label, which
// puts YYYY-MM months in chronological order.
type PivotTable struct {
	RowKey GroupKey      `json:"row_key"`
	ColKey GroupKey      `json:"col_key"`
	Rows   []string      `json:"rows"`
	Cols   []string      `json:"cols"`
	Cells  [][]PivotCell `json:"cells"`
}

// Pivot cross-tabulates records over two distinct keys.
func Pivot(records []domain.TradeRecord, rowKey, colKey GroupKey) (*PivotTable, error) {
	if err := validateKeys([]GroupKey{rowKey, colKey}); err != nil {
		return nil, err
	}

	// Row order follows the one-key aggregation of the row attribute.
	rowGroups, err := Aggregate(records, []GroupKey{rowKey})
	if err != nil {
		return nil, err
	}

	rows := make([]string, len(rowGroups))
	rowIndex := make(map[string]int, len(rowGroups))
	for i, g := range rowGroups {
		label := g.Keys[string(rowKey)]
		rows[i] = label
		rowIndex[label] = i
	}

	colSet := make(map[string]bool)
	for _, rec := range records {
		colSet[keyValue(rec, colKey)] = true
	}
	cols := make([]string, 0, len(colSet))
	for label := range colSet {
		cols = append(cols, label)
	}
	sort.Strings(cols)

	colIndex := make(map[string]int, len(cols))
	for i, label := range cols {
		colIndex[label] = i
	}

	cells := make([][]PivotCell, len(rows))
	for i := range cells {
		cells[i] = make([]PivotCell, len(cols))
	}

	for _, rec := range records {
		i := rowIndex[keyValue(rec, rowKey)]
		j := colIndex[keyValue(rec, colKey)]
		cell := &cells[i][j]
		cell.HasData = true
		cell.TotalPnl += rec.Pnl
		cell.Trades++
	}

	for i := range cells {
		for j := range cells[i] {
			if cells[i][j].Trades > 0 {
				cells[i][j].AvgPnl = cells[i][j].TotalPnl / float64(cells[i][j].Trades)
			}
		}
	}

	return &PivotTable{
		RowKey: rowKey,
		ColKey: colKey,
		Rows:   rows,
		Cols:   cols,
		Cells:  cells,
	}, nil
}
