package analytics

import (
	"github.com/aristath/vantage/internal/domain"
	"github.com/aristath/vantage/pkg/formulas"
)

// Summarize computes the headline performance metrics for a set of records.
// An empty input is valid: the summary reports zero trades, zero total P&L,
// nil for the per-trade metrics, and an undefined profit factor.
//
// Gross loss is reported as an absolute value. A subset with no losing
// trades has an infinite profit factor even when gross profit is also zero;
// the dashboard renders that as "∞" rather than a division error.
func Summarize(records []domain.TradeRecord) domain.MetricsSummary {
	summary := domain.MetricsSummary{
		TotalTrades:  len(records),
		ProfitFactor: domain.UndefinedProfitFactor(),
	}

	if len(records) == 0 {
		return summary
	}

	pnls := make([]float64, len(records))
	wins := 0
	var grossProfit, grossLoss float64

	for i, rec := range records {
		pnls[i] = rec.Pnl
		summary.TotalPnl += rec.Pnl

		if rec.Pnl > 0 {
			wins++
			grossProfit += rec.Pnl
		} else if rec.Pnl < 0 {
			grossLoss += -rec.Pnl
		}
	}

	avg := formulas.Mean(pnls)
	median := formulas.Median(pnls)
	winRate := float64(wins) / float64(len(records)) * 100

	summary.AvgPnl = &avg
	summary.MedianPnl = &median
	summary.WinRate = &winRate
	summary.GrossProfit = grossProfit
	summary.GrossLoss = grossLoss

	if grossLoss > 0 {
		summary.ProfitFactor = domain.FiniteProfitFactor(grossProfit / grossLoss)
	} else {
		summary.ProfitFactor = domain.InfiniteProfitFactor()
	}

	return summary
}
