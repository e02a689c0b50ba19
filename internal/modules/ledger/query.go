package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/vantage/internal/domain"
)

// ErrUnknownSortKey is returned when a sort key is not one of the source
// column names.
var ErrUnknownSortKey = errors.New("unknown sort key")

// Sorted returns a copy of records ordered by the named column. Sort keys are
// the source column names; the sort is stable so equal values keep their
// load order.
func Sorted(records []domain.TradeRecord, key string, descending bool) ([]domain.TradeRecord, error) {
	less, err := lessFunc(key)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TradeRecord, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	return out, nil
}

func lessFunc(key string) (func(a, b domain.TradeRecord) bool, error) {
	switch key {
	case "openDate":
		return func(a, b domain.TradeRecord) bool { return a.OpenDate.Before(b.OpenDate) }, nil
	case "closeDate":
		return func(a, b domain.TradeRecord) bool { return a.CloseDate.Before(b.CloseDate) }, nil
	case "type":
		return func(a, b domain.TradeRecord) bool { return a.StrategyType < b.StrategyType }, nil
	case "symbol":
		return func(a, b domain.TradeRecord) bool { return a.Symbol < b.Symbol }, nil
	case "status":
		return func(a, b domain.TradeRecord) bool { return a.Status < b.Status }, nil
	case "quantity":
		return func(a, b domain.TradeRecord) bool { return a.Quantity < b.Quantity }, nil
	case "pnl":
		return func(a, b domain.TradeRecord) bool { return a.Pnl < b.Pnl }, nil
	case "returnPct":
		return func(a, b domain.TradeRecord) bool { return a.ReturnPct < b.ReturnPct }, nil
	case "daysInTrade":
		return func(a, b domain.TradeRecord) bool { return a.DaysInTrade < b.DaysInTrade }, nil
	case "estimated_delta":
		return func(a, b domain.TradeRecord) bool { return a.EstimatedDelta < b.EstimatedDelta }, nil
	case "delta_category":
		return func(a, b domain.TradeRecord) bool { return a.DeltaCategory < b.DeltaCategory }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
}

// Search returns the records whose stringified fields contain query,
// case-insensitively. An empty query matches everything.
func Search(records []domain.TradeRecord, query string) []domain.TradeRecord {
	if query == "" {
		out := make([]domain.TradeRecord, len(records))
		copy(out, records)
		return out
	}

	needle := strings.ToLower(query)
	out := make([]domain.TradeRecord, 0, len(records))
	for _, rec := range records {
		if matchesSearch(rec, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// matchesSearch checks every field the trade log displays, stringified the
// same way the export writes them.
func matchesSearch(rec domain.TradeRecord, needle string) bool {
	fields := []string{
		rec.OpenDate.Format("2006-01-02"),
		rec.CloseDate.Format("2006-01-02"),
		rec.StrategyType,
		rec.Symbol,
		string(rec.Status),
		strconv.Itoa(rec.Quantity),
		formatFloat(rec.Pnl),
		formatFloat(rec.ReturnPct),
		formatFloat(rec.DaysInTrade),
		formatFloat(rec.EstimatedDelta),
		string(rec.DeltaCategory),
		rec.Month,
	}

	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
