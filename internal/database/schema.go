package database

// ArchiveSchema defines the trade archive tables. Each ledger reload writes
// an audit row to loads; the trades table holds the rows of the latest load
// only, keyed by (load_id, id).
const ArchiveSchema = `
CREATE TABLE IF NOT EXISTS loads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    loaded_at TEXT NOT NULL,
    source_path TEXT NOT NULL,
    source_hash TEXT NOT NULL,
    record_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    load_id INTEGER NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
    id INTEGER NOT NULL,
    open_date TEXT NOT NULL,
    close_date TEXT NOT NULL,
    strategy_type TEXT NOT NULL,
    symbol TEXT NOT NULL,
    status TEXT NOT NULL,
    quantity INTEGER NOT NULL,
    pnl REAL NOT NULL,
    return_pct REAL NOT NULL,
    days_in_trade REAL NOT NULL,
    estimated_delta REAL NOT NULL,
    delta_category TEXT NOT NULL,
    month TEXT NOT NULL,
    winning_trade INTEGER NOT NULL,
    PRIMARY KEY (load_id, id)
);

CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy_type);
`
