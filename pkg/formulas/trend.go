package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the Simple Moving Average over a series.
//
// The result is aligned with the input: positions before the window has
// filled carry nil instead of a value, so callers never mistake the
// warm-up region for a real average.
func SMA(series []float64, window int) []*float64 {
	out := make([]*float64, len(series))
	if window < 2 || len(series) < window {
		return out
	}

	sma := talib.Sma(series, window)
	for i := window - 1; i < len(sma); i++ {
		v := sma[i]
		out[i] = &v
	}
	return out
}

// EMA calculates the Exponential Moving Average over a series.
//
// Same alignment contract as SMA: nil until the first full window, then the
// talib EMA (seeded with the SMA of the first window).
func EMA(series []float64, window int) []*float64 {
	out := make([]*float64, len(series))
	if window < 2 || len(series) < window {
		return out
	}

	ema := talib.Ema(series, window)
	for i := window - 1; i < len(ema); i++ {
		v := ema[i]
		out[i] = &v
	}
	return out
}
