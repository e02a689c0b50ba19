// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"time"
)

// TradeStatus represents the terminal state of an options position
type TradeStatus string

const (
	// StatusClosed means the position was actively closed before expiry
	StatusClosed TradeStatus = "closed"
	// StatusExpired means the position was held to contract expiration
	StatusExpired TradeStatus = "expired"
)

// DeltaCategory is the coarse directional label supplied with each record.
// Values outside the known set pass through and group under their raw label.
type DeltaCategory string

const (
	DeltaBullish DeltaCategory = "Bullish"
	DeltaBearish DeltaCategory = "Bearish"
	DeltaNeutral DeltaCategory = "Neutral"
)

// Bias classifies aggregate directional exposure over a set of trades
type Bias string

const (
	BiasBullish Bias = "Bullish"
	BiasBearish Bias = "Bearish"
	BiasNeutral Bias = "Neutral"
)

// TradeRecord represents one closed or expired options position.
//
// Records are created once by the ledger loader and never mutated afterward;
// WinningTrade and Month are derived at load time.
type TradeRecord struct {
	OpenDate       time.Time     `json:"open_date" msgpack:"open_date"`
	CloseDate      time.Time     `json:"close_date" msgpack:"close_date"`
	Symbol         string        `json:"symbol" msgpack:"symbol"`
	StrategyType   string        `json:"strategy_type" msgpack:"strategy_type"`
	Status         TradeStatus   `json:"status" msgpack:"status"`
	DeltaCategory  DeltaCategory `json:"delta_category" msgpack:"delta_category"`
	Month          string        `json:"month" msgpack:"month"`
	ID             int           `json:"id" msgpack:"id"`
	Quantity       int           `json:"quantity" msgpack:"quantity"`
	Pnl            float64       `json:"pnl" msgpack:"pnl"`
	ReturnPct      float64       `json:"return_pct" msgpack:"return_pct"`
	DaysInTrade    float64       `json:"days_in_trade" msgpack:"days_in_trade"`
	EstimatedDelta float64       `json:"estimated_delta" msgpack:"estimated_delta"`
	WinningTrade   bool          `json:"winning_trade" msgpack:"winning_trade"`
}

// ProfitFactorState labels the outcome of a profit factor computation
type ProfitFactorState string

const (
	// ProfitFactorFinite means gross loss was positive and the ratio is a real number
	ProfitFactorFinite ProfitFactorState = "finite"
	// ProfitFactorInfinite means gross loss was zero on a non-empty set of trades
	ProfitFactorInfinite ProfitFactorState = "infinite"
	// ProfitFactorUndefined means there were no trades to measure
	ProfitFactorUndefined ProfitFactorState = "undefined"
)

// ProfitFactor is the gross profit / gross loss ratio as a tagged outcome.
// Keeping the infinite and undefined cases explicit avoids floating-point
// sentinels leaking into JSON responses.
type ProfitFactor struct {
	State ProfitFactorState `json:"state"`
	Value float64           `json:"value"` // meaningful only when State is finite
}

// FiniteProfitFactor builds a finite profit factor
func FiniteProfitFactor(v float64) ProfitFactor {
	return ProfitFactor{State: ProfitFactorFinite, Value: v}
}

// InfiniteProfitFactor builds the zero-gross-loss outcome
func InfiniteProfitFactor() ProfitFactor {
	return ProfitFactor{State: ProfitFactorInfinite}
}

// UndefinedProfitFactor builds the empty-set outcome
func UndefinedProfitFactor() ProfitFactor {
	return ProfitFactor{State: ProfitFactorUndefined}
}

// IsFinite reports whether the profit factor carries a usable value
func (pf ProfitFactor) IsFinite() bool {
	return pf.State == ProfitFactorFinite
}

// MarshalJSON emits the value field only for the finite state
func (pf ProfitFactor) MarshalJSON() ([]byte, error) {
	if pf.State == ProfitFactorFinite {
		return json.Marshal(struct {
			State ProfitFactorState `json:"state"`
			Value float64           `json:"value"`
		}{pf.State, pf.Value})
	}
	return json.Marshal(struct {
		State ProfitFactorState `json:"state"`
	}{pf.State})
}

// UnmarshalJSON accepts both shapes emitted by MarshalJSON
func (pf *ProfitFactor) UnmarshalJSON(data []byte) error {
	var raw struct {
		State ProfitFactorState `json:"state"`
		Value float64           `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pf.State = raw.State
	pf.Value = raw.Value
	return nil
}

// MetricsSummary holds the scalar performance metrics for a set of trades.
// Pointer fields are nil when the set was empty and there is nothing to
// measure; they serialize as JSON null.
type MetricsSummary struct {
	TotalTrades  int          `json:"total_trades"`
	TotalPnl     float64      `json:"total_pnl"`
	AvgPnl       *float64     `json:"avg_pnl"`
	MedianPnl    *float64     `json:"median_pnl"`
	WinRate      *float64     `json:"win_rate"` // percentage, 0-100
	GrossProfit  float64      `json:"gross_profit"`
	GrossLoss    float64      `json:"gross_loss"` // absolute value
	ProfitFactor ProfitFactor `json:"profit_factor"`
}

// HasData reports whether the summary was computed over at least one trade
func (m MetricsSummary) HasData() bool {
	return m.TotalTrades > 0
}
