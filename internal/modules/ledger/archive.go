package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/database"
	"github.com/aristath/vantage/internal/domain"
)

// tradeColumns is the list of columns for the trades table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match scanTrade() expectations.
const tradeColumns = `id, open_date, close_date, strategy_type, symbol, status, quantity, pnl, return_pct, days_in_trade, estimated_delta, delta_category, month, winning_trade`

// Repository archives ledger loads to SQLite. The trades table always holds
// the latest load; the loads table keeps one audit row per reload so the
// history of record counts and source hashes survives the wipe.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new archive repository.
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "archive").Logger(),
	}
}

// LoadRecord describes one archived ledger load.
type LoadRecord struct {
	ID          int64     `json:"id"`
	LoadedAt    time.Time `json:"loaded_at"`
	SourcePath  string    `json:"source_path"`
	SourceHash  string    `json:"source_hash"`
	RecordCount int       `json:"record_count"`
}

// ReplaceAll archives a full ledger load and returns the new load ID. The
// insert and the wipe of the previous load's trades happen in one
// transaction, so a failure leaves the previous archive intact.
func (r *Repository) ReplaceAll(records []domain.TradeRecord, info SourceInfo) (int64, error) {
	var loadID int64

	err := database.WithTransaction(r.db.Conn(), func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO loads (loaded_at, source_path, source_hash, record_count)
			VALUES (?, ?, ?, ?)
		`, info.LoadedAt.UTC().Format(time.RFC3339), info.Path, info.SHA256, len(records))
		if err != nil {
			return fmt.Errorf("failed to insert load: %w", err)
		}

		loadID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get load ID: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO trades
			(load_id, id, open_date, close_date, strategy_type, symbol, status,
			 quantity, pnl, return_pct, days_in_trade, estimated_delta,
			 delta_category, month, winning_trade)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare trade insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			winning := 0
			if rec.WinningTrade {
				winning = 1
			}
			_, err := stmt.Exec(
				loadID,
				rec.ID,
				rec.OpenDate.Format("2006-01-02"),
				rec.CloseDate.Format("2006-01-02"),
				rec.StrategyType,
				rec.Symbol,
				string(rec.Status),
				rec.Quantity,
				rec.Pnl,
				rec.ReturnPct,
				rec.DaysInTrade,
				rec.EstimatedDelta,
				string(rec.DeltaCategory),
				rec.Month,
				winning,
			)
			if err != nil {
				return fmt.Errorf("failed to insert trade %d: %w", rec.ID, err)
			}
		}

		// Only the latest load's trades are kept; the loads rows stay
		// behind as the reload audit trail.
		if _, err := tx.Exec(`DELETE FROM trades WHERE load_id != ?`, loadID); err != nil {
			return fmt.Errorf("failed to wipe previous load: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Info().
		Int64("load_id", loadID).
		Int("records", len(records)).
		Msg("Archived ledger load")

	return loadID, nil
}

// Count returns the number of trades in the latest archived load.
func (r *Repository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM trades
		WHERE load_id = (SELECT MAX(id) FROM loads)
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived trades: %w", err)
	}
	return count, nil
}

// Latest returns trades from the most recent archived load in load order.
// A limit of 0 returns all of them.
func (r *Repository) Latest(limit int) ([]domain.TradeRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trades
		WHERE load_id = (SELECT MAX(id) FROM loads)
		ORDER BY id ASC
	`, tradeColumns)

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived trades: %w", err)
	}
	defer rows.Close()

	var records []domain.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate archived trades: %w", err)
	}

	return records, nil
}

// PruneLoads trims the reload audit trail to the newest keep rows and
// returns how many were removed. The cascade drops any trades still attached
// to the pruned loads.
func (r *Repository) PruneLoads(keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}

	res, err := r.db.Exec(`
		DELETE FROM loads
		WHERE id NOT IN (SELECT id FROM loads ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune load history: %w", err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned loads: %w", err)
	}

	if pruned > 0 {
		r.log.Debug().
			Int64("pruned", pruned).
			Int("keep", keep).
			Msg("Pruned load history")
	}

	return pruned, nil
}

// LoadHistory returns archived loads, newest first. A limit of 0 returns all
// of them.
func (r *Repository) LoadHistory(limit int) ([]LoadRecord, error) {
	query := `
		SELECT id, loaded_at, source_path, source_hash, record_count
		FROM loads
		ORDER BY id DESC
	`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query load history: %w", err)
	}
	defer rows.Close()

	var loads []LoadRecord
	for rows.Next() {
		var load LoadRecord
		var loadedAt string
		if err := rows.Scan(&load.ID, &loadedAt, &load.SourcePath, &load.SourceHash, &load.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		load.LoadedAt, err = time.Parse(time.RFC3339, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse loaded_at %q: %w", loadedAt, err)
		}
		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate load history: %w", err)
	}

	return loads, nil
}

// scanTrade scans a trade row. Column order must match tradeColumns.
func scanTrade(rows *sql.Rows) (domain.TradeRecord, error) {
	var rec domain.TradeRecord
	var openDate, closeDate, status, category string
	var winning int

	err := rows.Scan(
		&rec.ID,
		&openDate,
		&closeDate,
		&rec.StrategyType,
		&rec.Symbol,
		&status,
		&rec.Quantity,
		&rec.Pnl,
		&rec.ReturnPct,
		&rec.DaysInTrade,
		&rec.EstimatedDelta,
		&category,
		&rec.Month,
		&winning,
	)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("failed to scan trade: %w", err)
	}

	rec.OpenDate, err = time.Parse("2006-01-02", openDate)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("failed to parse open date %q: %w", openDate, err)
	}
	rec.CloseDate, err = time.Parse("2006-01-02", closeDate)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("failed to parse close date %q: %w", closeDate, err)
	}

	rec.Status = domain.TradeStatus(status)
	rec.DeltaCategory = domain.DeltaCategory(category)
	rec.WinningTrade = winning != 0

	return rec, nil
}
