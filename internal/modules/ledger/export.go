package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aristath/vantage/internal/domain"
)

// Export writes records in the same tabular shape the loader accepts: the
// eleven source columns, no derived fields. Floats use the shortest exact
// representation and dates normalize to YYYY-MM-DD, so load → filter →
// export → load reproduces the field values exactly (IDs renumber to the
// exported order).
func Export(w io.Writer, records []domain.TradeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(requiredColumns); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, rec := range records {
		row := []string{
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
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write export row %d: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportFilename names a download after the day it was taken,
// e.g. trading_data_20250314.csv.
func ExportFilename(day time.Time) string {
	return "trading_data_" + day.Format("20060102") + ".csv"
}
