package analytics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aristath/vantage/internal/domain"
)

// Direction selects which end of the P&L distribution a ranking takes.
type Direction string

const (
	Best  Direction = "best"
	Worst Direction = "worst"
)

// ErrInvalidDirection is returned for a direction other than best or worst.
var ErrInvalidDirection = errors.New("invalid ranking direction")

// ParseDirection validates a raw direction name from the API.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(raw) {
	case Best:
		return Best, nil
	case Worst:
		return Worst, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, raw)
}

// TopByPnl returns the n best (largest P&L) or worst (smallest P&L) records.
// Equal P&L values rank in original load order, including at the selection
// boundary, so repeated calls over the same data return the same records.
// n <= 0 returns an empty slice; n beyond the input size returns everything,
// sorted. The input slice is not modified.
func TopByPnl(records []domain.TradeRecord, n int, dir Direction) ([]domain.TradeRecord, error) {
	if dir != Best && dir != Worst {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	if n <= 0 || len(records) == 0 {
		return []domain.TradeRecord{}, nil
	}

	ranked := make([]domain.TradeRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Pnl != ranked[j].Pnl {
			if dir == Best {
				return ranked[i].Pnl > ranked[j].Pnl
			}
			return ranked[i].Pnl < ranked[j].Pnl
		}
		return ranked[i].ID < ranked[j].ID
	})

	if n > len(ranked) {
		n = len(ranked)
	}

	return ranked[:n], nil
}
