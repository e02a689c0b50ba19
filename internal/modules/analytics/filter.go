// Package analytics computes performance metrics over ledger trade records.
// Every operation is a pure function of (records, criteria); nothing here
// mutates the input slice.
package analytics

import (
	"net/url"
	"time"

	"github.com/aristath/vantage/internal/domain"
)

// Filter holds optional constraints combined with AND. A zero-value field
// means no constraint. String matches are exact and case-sensitive. The date
// range applies to OpenDate at day granularity, inclusive on both ends; a
// range with only one bound set is ignored entirely.
type Filter struct {
	Strategy string
	Status   string
	Symbol   string
	From     time.Time
	To       time.Time
}

// IsZero reports whether the filter constrains anything.
func (f Filter) IsZero() bool {
	return f.Strategy == "" && f.Status == "" && f.Symbol == "" &&
		f.From.IsZero() && f.To.IsZero()
}

// dateRange returns the active day-granularity bounds, or ok=false when the
// range is absent or malformed (one bound missing).
func (f Filter) dateRange() (from, to time.Time, ok bool) {
	if f.From.IsZero() || f.To.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return truncateDay(f.From), truncateDay(f.To), true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Apply returns the records satisfying every active constraint, preserving
// their relative order. A reversed range (From after To) matches nothing.
// The result is always non-nil.
func Apply(records []domain.TradeRecord, f Filter) []domain.TradeRecord {
	out := make([]domain.TradeRecord, 0, len(records))

	from, to, dateConstrained := f.dateRange()

	for _, rec := range records {
		if f.Strategy != "" && rec.StrategyType != f.Strategy {
			continue
		}
		if f.Status != "" && string(rec.Status) != f.Status {
			continue
		}
		if f.Symbol != "" && rec.Symbol != f.Symbol {
			continue
		}
		if dateConstrained {
			day := truncateDay(rec.OpenDate)
			if day.Before(from) || day.After(to) {
				continue
			}
		}
		out = append(out, rec)
	}

	return out
}

// FilterFromQuery builds a Filter from HTTP query parameters
// (strategy, status, symbol, from, to). Unparseable dates are dropped,
// which degrades the range to "no constraint" rather than failing the
// request.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{
		Strategy: q.Get("strategy"),
		Status:   q.Get("status"),
		Symbol:   q.Get("symbol"),
	}

	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			f.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			f.To = t
		}
	}

	return f
}
