package testing

import (
	"fmt"
	"time"

	"github.com/aristath/vantage/internal/domain"
)

// Day parses a YYYY-MM-DD fixture date as UTC midnight. Panics on a
// malformed value; fixture dates are compile-time constants.
func Day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(fmt.Sprintf("bad fixture date %q: %v", value, err))
	}
	return t
}

// record builds a TradeRecord with the derived fields populated the way the
// loader populates them.
func record(id int, open, close string, strategy, symbol string, status domain.TradeStatus,
	quantity int, pnl, returnPct, delta float64, category domain.DeltaCategory) domain.TradeRecord {

	openDate := Day(open)
	closeDate := Day(close)

	return domain.TradeRecord{
		ID:             id,
		OpenDate:       openDate,
		CloseDate:      closeDate,
		StrategyType:   strategy,
		Symbol:         symbol,
		Status:         status,
		Quantity:       quantity,
		Pnl:            pnl,
		ReturnPct:      returnPct,
		DaysInTrade:    closeDate.Sub(openDate).Hours() / 24,
		EstimatedDelta: delta,
		DeltaCategory:  category,
		WinningTrade:   pnl > 0,
		Month:          openDate.Format("2006-01"),
	}
}

// ScenarioRecords returns the canonical four-trade set used across the
// engine tests: pnl 100/-50/200/-20, status closed/expired/closed/expired.
func ScenarioRecords() []domain.TradeRecord {
	return []domain.TradeRecord{
		record(0, "2025-01-06", "2025-01-24", "Iron Condor", "SPY", domain.StatusClosed, 1, 100, 8.0, -5, domain.DeltaNeutral),
		record(1, "2025-01-13", "2025-02-21", "Short Put Spread", "AAPL", domain.StatusExpired, 2, -50, -4.5, 30, domain.DeltaBullish),
		record(2, "2025-02-03", "2025-02-28", "Iron Condor", "SPY", domain.StatusClosed, 1, 200, 15.0, 2, domain.DeltaNeutral),
		record(3, "2025-02-10", "2025-03-21", "Covered Call", "TSLA", domain.StatusExpired, 3, -20, -1.2, -40, domain.DeltaBearish),
	}
}

// SampleRecords returns a wider set spanning three strategies, four symbols,
// four months, and all delta categories. Pnl values are all distinct so
// ranking tests see no boundary ties.
func SampleRecords() []domain.TradeRecord {
	return []domain.TradeRecord{
		record(0, "2025-01-02", "2025-01-17", "Iron Condor", "SPY", domain.StatusClosed, 1, 120, 9.0, -3, domain.DeltaNeutral),
		record(1, "2025-01-06", "2025-01-31", "Iron Condor", "QQQ", domain.StatusExpired, 2, -45, -3.0, 4, domain.DeltaNeutral),
		record(2, "2025-01-08", "2025-02-21", "Short Put Spread", "AAPL", domain.StatusClosed, 1, 85, 6.5, 28, domain.DeltaBullish),
		record(3, "2025-01-13", "2025-02-07", "Covered Call", "TSLA", domain.StatusClosed, 2, 310, 18.0, 55, domain.DeltaBullish),
		record(4, "2025-01-21", "2025-02-21", "Short Put Spread", "SPY", domain.StatusExpired, 1, -130, -8.0, 35, domain.DeltaBullish),
		record(5, "2025-02-03", "2025-02-28", "Iron Condor", "SPY", domain.StatusClosed, 1, 65, 5.0, -2, domain.DeltaNeutral),
		record(6, "2025-02-05", "2025-03-21", "Covered Call", "AAPL", domain.StatusExpired, 1, 240, 14.0, 48, domain.DeltaBullish),
		record(7, "2025-02-10", "2025-03-07", "Short Put Spread", "QQQ", domain.StatusClosed, 3, -75, -5.5, 22, domain.DeltaBullish),
		record(8, "2025-02-18", "2025-03-21", "Iron Condor", "TSLA", domain.StatusClosed, 1, 150, 11.0, -8, domain.DeltaNeutral),
		record(9, "2025-03-03", "2025-03-28", "Covered Call", "SPY", domain.StatusClosed, 2, -25, -1.5, -60, domain.DeltaBearish),
		record(10, "2025-03-05", "2025-04-04", "Short Put Spread", "TSLA", domain.StatusExpired, 1, 95, 7.0, 18, domain.DeltaBullish),
		record(11, "2025-03-12", "2025-04-17", "Iron Condor", "AAPL", domain.StatusClosed, 1, 40, 3.0, -12, domain.DeltaBearish),
	}
}

// ManyRecords returns n records with strictly decreasing pnl (n, n-1, ...)
// and alternating status, for ranking and partition property tests.
func ManyRecords(n int) []domain.TradeRecord {
	records := make([]domain.TradeRecord, n)
	for i := 0; i < n; i++ {
		status := domain.StatusClosed
		if i%2 == 1 {
			status = domain.StatusExpired
		}
		day := fmt.Sprintf("2025-01-%02d", i%27+1)
		records[i] = record(i, day, "2025-02-28", "Iron Condor", "SPY", status,
			1, float64(n-i), float64(n-i)/10, float64(i), domain.DeltaNeutral)
	}
	return records
}
