package analytics

import (
	"sort"

	"github.com/aristath/vantage/internal/domain"
	"github.com/aristath/vantage/pkg/formulas"
)

// EquityPoint is one realized trade on the cumulative P&L curve.
type EquityPoint struct {
	Date          string  `json:"date"` // close date, YYYY-MM-DD
	TradeID       int     `json:"trade_id"`
	Pnl           float64 `json:"pnl"`
	CumulativePnl float64 `json:"cumulative_pnl"`
}

// TrendedPoint decorates an equity point with moving-average values over the
// cumulative series. Both are nil until the window has filled.
type TrendedPoint struct {
	EquityPoint
	SMA *float64 `json:"sma"`
	EMA *float64 `json:"ema"`
}

// EquityCurve orders records by close date (load order on equal dates) and
// accumulates realized P&L. The last point's cumulative value equals the
// subset's total P&L.
func EquityCurve(records []domain.TradeRecord) []EquityPoint {
	sorted := make([]domain.TradeRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CloseDate.Before(sorted[j].CloseDate)
	})

	curve := make([]EquityPoint, len(sorted))
	var running float64
	for i, rec := range sorted {
		running += rec.Pnl
		curve[i] = EquityPoint{
			Date:          rec.CloseDate.Format("2006-01-02"),
			TradeID:       rec.ID,
			Pnl:           rec.Pnl,
			CumulativePnl: running,
		}
	}

	return curve
}

// WithTrend overlays SMA and EMA of the cumulative series onto the curve.
func WithTrend(curve []EquityPoint, window int) []TrendedPoint {
	cumulative := make([]float64, len(curve))
	for i, point := range curve {
		cumulative[i] = point.CumulativePnl
	}

	sma := formulas.SMA(cumulative, window)
	ema := formulas.EMA(cumulative, window)

	trended := make([]TrendedPoint, len(curve))
	for i, point := range curve {
		trended[i] = TrendedPoint{EquityPoint: point, SMA: sma[i], EMA: ema[i]}
	}

	return trended
}

// MonthlyBucket aggregates the trades opened in one calendar month.
type MonthlyBucket struct {
	Month    string   `json:"month"` // YYYY-MM
	TotalPnl float64  `json:"total_pnl"`
	Trades   int      `json:"trades"`
	WinRate  *float64 `json:"win_rate"`
}

// MonthlyPnl buckets records by the month the trade was opened,
// in chronological order.
func MonthlyPnl(records []domain.TradeRecord) []MonthlyBucket {
	index := make(map[string]int)
	buckets := []MonthlyBucket{}
	wins := make(map[string]int)

	for _, rec := range records {
		i, ok := index[rec.Month]
		if !ok {
			i = len(buckets)
			index[rec.Month] = i
			buckets = append(buckets, MonthlyBucket{Month: rec.Month})
		}
		buckets[i].TotalPnl += rec.Pnl
		buckets[i].Trades++
		if rec.WinningTrade {
			wins[rec.Month]++
		}
	}

	for i := range buckets {
		rate := float64(wins[buckets[i].Month]) / float64(buckets[i].Trades) * 100
		buckets[i].WinRate = &rate
	}

	// YYYY-MM sorts lexically in chronological order.
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Month < buckets[j].Month
	})

	return buckets
}

// WinLossBreakdown splits a subset into winners (pnl > 0) and losers
// (pnl <= 0, scratches included on the losing side). Averages are nil when
// the corresponding side is empty.
type WinLossBreakdown struct {
	Wins    int      `json:"wins"`
	Losses  int      `json:"losses"`
	WinPnl  float64  `json:"win_pnl"`
	LossPnl float64  `json:"loss_pnl"`
	AvgWin  *float64 `json:"avg_win"`
	AvgLoss *float64 `json:"avg_loss"`
}

// Breakdown computes the win/loss split of a subset.
func Breakdown(records []domain.TradeRecord) WinLossBreakdown {
	var b WinLossBreakdown

	for _, rec := range records {
		if rec.Pnl > 0 {
			b.Wins++
			b.WinPnl += rec.Pnl
		} else {
			b.Losses++
			b.LossPnl += rec.Pnl
		}
	}

	if b.Wins > 0 {
		avg := b.WinPnl / float64(b.Wins)
		b.AvgWin = &avg
	}
	if b.Losses > 0 {
		avg := b.LossPnl / float64(b.Losses)
		b.AvgLoss = &avg
	}

	return b
}

// StatusComparison contrasts trades closed early against trades held to
// expiration. Multiplier is the closed average divided by the expired
// average; it is nil when either status is absent or the expired average is
// zero, rather than a zero sentinel.
type StatusComparison struct {
	ClosedTrades  int      `json:"closed_trades"`
	ExpiredTrades int      `json:"expired_trades"`
	ClosedAvgPnl  *float64 `json:"closed_avg_pnl"`
	ExpiredAvgPnl *float64 `json:"expired_avg_pnl"`
	Multiplier    *float64 `json:"multiplier"`
}

// CompareStatus computes the closed-vs-expired performance comparison.
func CompareStatus(records []domain.TradeRecord) StatusComparison {
	var comparison StatusComparison
	var closedPnl, expiredPnl float64

	for _, rec := range records {
		switch rec.Status {
		case domain.StatusClosed:
			comparison.ClosedTrades++
			closedPnl += rec.Pnl
		case domain.StatusExpired:
			comparison.ExpiredTrades++
			expiredPnl += rec.Pnl
		}
	}

	if comparison.ClosedTrades > 0 {
		avg := closedPnl / float64(comparison.ClosedTrades)
		comparison.ClosedAvgPnl = &avg
	}
	if comparison.ExpiredTrades > 0 {
		avg := expiredPnl / float64(comparison.ExpiredTrades)
		comparison.ExpiredAvgPnl = &avg
	}

	if comparison.ClosedAvgPnl != nil && comparison.ExpiredAvgPnl != nil && *comparison.ExpiredAvgPnl != 0 {
		multiplier := *comparison.ClosedAvgPnl / *comparison.ExpiredAvgPnl
		comparison.Multiplier = &multiplier
	}

	return comparison
}
