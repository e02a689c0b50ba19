package analytics

import (
	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/domain"
)

// RecordSource supplies the current ledger records.
// Defined here so the engine does not depend on the ledger package;
// *ledger.Store satisfies it.
type RecordSource interface {
	Records() []domain.TradeRecord
}

// Config carries the policy values the engine must not hard-code: bias
// thresholds for exposure classification and the presentation targets the
// dashboard renders alongside the numbers.
type Config struct {
	Thresholds           Thresholds `json:"thresholds"`
	WinRateTarget        float64    `json:"win_rate_target"`
	ProfitFactorStrong   float64    `json:"profit_factor_strong"`
	ProfitFactorAdequate float64    `json:"profit_factor_adequate"`
	EquityTrendWindow    int        `json:"equity_trend_window"`
}

// Service answers analytics queries against the live record source.
// Every method snapshots the records, applies the filter, and delegates to
// the pure functions; no lock is held while computing.
type Service struct {
	source RecordSource
	cfg    Config
	log    zerolog.Logger
}

// NewService creates the analytics service.
func NewService(source RecordSource, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		cfg:    cfg,
		log:    log.With().Str("service", "analytics").Logger(),
	}
}

// Config returns the policy values the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// Subset returns the filtered records themselves.
func (s *Service) Subset(f Filter) []domain.TradeRecord {
	return Apply(s.source.Records(), f)
}

// Summary computes headline metrics for the filtered subset.
func (s *Service) Summary(f Filter) domain.MetricsSummary {
	return Summarize(s.Subset(f))
}

// Groups aggregates the filtered subset by one or two keys.
func (s *Service) Groups(f Filter, keys []GroupKey) ([]GroupResult, error) {
	return Aggregate(s.Subset(f), keys)
}

// Pivot cross-tabulates the filtered subset.
func (s *Service) Pivot(f Filter, rowKey, colKey GroupKey) (*PivotTable, error) {
	return Pivot(s.Subset(f), rowKey, colKey)
}

// Top ranks the filtered subset by P&L.
func (s *Service) Top(f Filter, n int, dir Direction) ([]domain.TradeRecord, error) {
	return TopByPnl(s.Subset(f), n, dir)
}

// Exposure reports directional exposure of the filtered subset using the
// configured bias thresholds.
func (s *Service) Exposure(f Filter) ExposureReport {
	return Exposure(s.Subset(f), s.cfg.Thresholds)
}

// Equity builds the cumulative P&L curve with trend overlays. A window of
// zero or less falls back to the configured trend window.
func (s *Service) Equity(f Filter, window int) []TrendedPoint {
	if window <= 0 {
		window = s.cfg.EquityTrendWindow
	}
	return WithTrend(EquityCurve(s.Subset(f)), window)
}

// Monthly buckets the filtered subset by open month.
func (s *Service) Monthly(f Filter) []MonthlyBucket {
	return MonthlyPnl(s.Subset(f))
}

// Breakdown splits the filtered subset into winners and losers.
func (s *Service) Breakdown(f Filter) WinLossBreakdown {
	return Breakdown(s.Subset(f))
}

// StatusComparison contrasts closed and expired trades in the subset.
func (s *Service) StatusComparison(f Filter) StatusComparison {
	return CompareStatus(s.Subset(f))
}
