package analytics

import (
	"sort"

	"github.com/aristath/vantage/internal/domain"
	"github.com/aristath/vantage/pkg/formulas"
)

// Thresholds are the portfolio-bias cut lines on total estimated delta.
// They come from configuration; the defaults are +50/-50.
type Thresholds struct {
	Bullish float64 `json:"bullish"`
	Bearish float64 `json:"bearish"`
}

// CategoryCount is the number of trades carrying a delta category label.
type CategoryCount struct {
	Category string `json:"category"`
	Trades   int    `json:"trades"`
}

// StrategyExposure is the per-strategy slice of the delta picture.
type StrategyExposure struct {
	Strategy   string  `json:"strategy"`
	AvgDelta   float64 `json:"avg_delta"`
	TotalDelta float64 `json:"total_delta"`
	TotalPnl   float64 `json:"total_pnl"`
	Trades     int     `json:"trades"`
}

// ExposureReport describes the directional exposure of a set of trades.
// AvgDelta and NeutralPct are nil when the set is empty.
type ExposureReport struct {
	TotalDelta float64            `json:"total_delta"`
	AvgDelta   *float64           `json:"avg_delta"`
	Bias       domain.Bias        `json:"bias"`
	NeutralPct *float64           `json:"neutral_pct"`
	Categories []CategoryCount    `json:"categories"`
	ByStrategy []StrategyExposure `json:"by_strategy"`
}

// classifyBias maps a total delta onto the configured bias bands. A total
// sitting exactly on a threshold is neutral.
func classifyBias(totalDelta float64, th Thresholds) domain.Bias {
	switch {
	case totalDelta > th.Bullish:
		return domain.BiasBullish
	case totalDelta < th.Bearish:
		return domain.BiasBearish
	default:
		return domain.BiasNeutral
	}
}

// Exposure sums estimated deltas into a portfolio bias and breaks the
// exposure down by delta category and by strategy. Category counts order by
// descending trade count, strategies by descending total P&L, ties in
// first-seen order.
func Exposure(records []domain.TradeRecord, th Thresholds) ExposureReport {
	report := ExposureReport{
		Categories: []CategoryCount{},
		ByStrategy: []StrategyExposure{},
	}

	if len(records) == 0 {
		report.Bias = classifyBias(0, th)
		return report
	}

	deltas := make([]float64, len(records))
	neutral := 0

	categoryIndex := make(map[string]int)
	strategyIndex := make(map[string]int)

	for i, rec := range records {
		deltas[i] = rec.EstimatedDelta
		report.TotalDelta += rec.EstimatedDelta

		if rec.DeltaCategory == domain.DeltaNeutral {
			neutral++
		}

		category := string(rec.DeltaCategory)
		ci, ok := categoryIndex[category]
		if !ok {
			ci = len(report.Categories)
			categoryIndex[category] = ci
			report.Categories = append(report.Categories, CategoryCount{Category: category})
		}
		report.Categories[ci].Trades++

		si, ok := strategyIndex[rec.StrategyType]
		if !ok {
			si = len(report.ByStrategy)
			strategyIndex[rec.StrategyType] = si
			report.ByStrategy = append(report.ByStrategy, StrategyExposure{Strategy: rec.StrategyType})
		}
		exp := &report.ByStrategy[si]
		exp.TotalDelta += rec.EstimatedDelta
		exp.TotalPnl += rec.Pnl
		exp.Trades++
	}

	avg := formulas.Mean(deltas)
	pct := float64(neutral) / float64(len(records)) * 100
	report.AvgDelta = &avg
	report.NeutralPct = &pct
	report.Bias = classifyBias(report.TotalDelta, th)

	for i := range report.ByStrategy {
		report.ByStrategy[i].AvgDelta = report.ByStrategy[i].TotalDelta / float64(report.ByStrategy[i].Trades)
	}

	sort.SliceStable(report.Categories, func(i, j int) bool {
		return report.Categories[i].Trades > report.Categories[j].Trades
	})
	sort.SliceStable(report.ByStrategy, func(i, j int) bool {
		return report.ByStrategy[i].TotalPnl > report.ByStrategy[j].TotalPnl
	})

	return report
}
