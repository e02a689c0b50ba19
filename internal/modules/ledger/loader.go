// Package ledger loads, caches, and serves the trade ledger: a CSV of closed
// options positions that the analytics engine computes over. The loader is
// strict: a single malformed row fails the whole load, so the engine never
// sees partial data.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/vantage/internal/domain"
)

// requiredColumns is the ledger header contract, in canonical order. The
// exporter writes the same columns so a round trip reparses cleanly. The
// "type" column maps to StrategyType.
var requiredColumns = []string{
	"openDate", "closeDate", "type", "symbol", "status", "quantity",
	"pnl", "returnPct", "daysInTrade", "estimated_delta", "delta_category",
}

// LoadError describes a ledger table that failed validation. Either Missing
// lists required columns absent from the header, or Row/Column/Err locate a
// bad value. Both forms are fatal: no partial loads.
type LoadError struct {
	Missing []string // required columns absent from the header
	Row     int      // 1-based data row (header excluded)
	Column  string
	Err     error
}

func (e *LoadError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("ledger load failed: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	if e.Column != "" {
		return fmt.Sprintf("ledger load failed at row %d, column %q: %v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("ledger load failed at row %d: %v", e.Row, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// dateLayouts are the formats the loader accepts. Time-of-day is dropped;
// the engine works at day granularity.
var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// Load parses a ledger table from r. Record IDs are assigned in file order
// and the two derived fields (WinningTrade, Month) are computed here; they
// are never read from the file.
func Load(r io.Reader) ([]domain.TradeRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Missing: requiredColumns}
	}
	if err != nil {
		return nil, &LoadError{Row: 0, Err: fmt.Errorf("unreadable header: %w", err)}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Missing: missing}
	}

	var records []domain.TradeRecord
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Row: row, Err: err}
		}

		rec, lerr := parseRow(fields, index, row)
		if lerr != nil {
			return nil, lerr
		}

		rec.ID = len(records)
		records = append(records, rec)
	}

	return records, nil
}

// LoadFile opens and parses a ledger file.
func LoadFile(path string) ([]domain.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func parseRow(fields []string, index map[string]int, row int) (domain.TradeRecord, *LoadError) {
	var rec domain.TradeRecord

	get := func(col string) string {
		return strings.TrimSpace(fields[index[col]])
	}

	openDate, err := parseDate(get("openDate"))
	if err != nil {
		return rec, &LoadError{Row: row, Column: "openDate", Err: err}
	}
	closeDate, err := parseDate(get("closeDate"))
	if err != nil {
		return rec, &LoadError{Row: row, Column: "closeDate", Err: err}
	}
	if closeDate.Before(openDate) {
		return rec, &LoadError{Row: row, Column: "closeDate",
			Err: fmt.Errorf("close date %s precedes open date %s",
				closeDate.Format("2006-01-02"), openDate.Format("2006-01-02"))}
	}

	symbol := get("symbol")
	if symbol == "" {
		return rec, &LoadError{Row: row, Column: "symbol", Err: errors.New("empty symbol")}
	}

	quantity, err := strconv.Atoi(get("quantity"))
	if err != nil {
		return rec, &LoadError{Row: row, Column: "quantity", Err: err}
	}
	if quantity == 0 {
		return rec, &LoadError{Row: row, Column: "quantity", Err: errors.New("zero quantity")}
	}

	pnl, err := strconv.ParseFloat(get("pnl"), 64)
	if err != nil {
		return rec, &LoadError{Row: row, Column: "pnl", Err: err}
	}
	returnPct, err := strconv.ParseFloat(get("returnPct"), 64)
	if err != nil {
		return rec, &LoadError{Row: row, Column: "returnPct", Err: err}
	}
	daysInTrade, err := strconv.ParseFloat(get("daysInTrade"), 64)
	if err != nil {
		return rec, &LoadError{Row: row, Column: "daysInTrade", Err: err}
	}
	if daysInTrade < 0 {
		return rec, &LoadError{Row: row, Column: "daysInTrade",
			Err: fmt.Errorf("negative days in trade %v", daysInTrade)}
	}
	estimatedDelta, err := strconv.ParseFloat(get("estimated_delta"), 64)
	if err != nil {
		return rec, &LoadError{Row: row, Column: "estimated_delta", Err: err}
	}

	rec.OpenDate = openDate
	rec.CloseDate = closeDate
	rec.StrategyType = get("type")
	rec.Symbol = symbol
	rec.Status = domain.TradeStatus(get("status"))
	rec.Quantity = quantity
	rec.Pnl = pnl
	rec.ReturnPct = returnPct
	rec.DaysInTrade = daysInTrade
	rec.EstimatedDelta = estimatedDelta
	rec.DeltaCategory = domain.DeltaCategory(get("delta_category"))

	rec.WinningTrade = pnl > 0
	rec.Month = openDate.Format("2006-01")

	return rec, nil
}
