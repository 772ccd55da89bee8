package writer

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// JournalSchema creates the run and trade tables.
const JournalSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	interval TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	current_capital REAL NOT NULL,
	peak_capital REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL,
	bars_processed INTEGER NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT NOT NULL,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	size REAL NOT NULL,
	leverage REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	fee REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(run_id, exit_time);
`

// Journal persists runs and their trades to SQLite.
type Journal struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// NewJournal opens or creates the journal at path.
func NewJournal(path string, log *logger.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "failed to open journal", err)
	}

	if _, err := db.Exec(JournalSchema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "failed to create journal schema", err)
	}

	return &Journal{db: db, logger: log.Named("journal")}, nil
}

// RecordTrade inserts one closed trade under runID.
func (j *Journal) RecordTrade(ctx context.Context, runID string, t types.Trade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, run_id, symbol, direction, size, leverage, entry_price, exit_price,
		 entry_time, exit_time, stop_loss, take_profit, realized_pnl, fee, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, runID, t.Symbol, string(t.Direction), t.Size, t.Leverage, t.EntryPrice, t.ExitPrice,
		t.EntryTime.UTC(), t.Timestamp.UTC(), t.StopLoss, t.TakeProfit, t.RealizedPnL, t.Fee, string(t.ExitReason),
	)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeJournalFailed, err, "failed to record trade %s", t.ID)
	}

	return nil
}

// RecordRun upserts the run summary and inserts any trades not yet recorded.
func (j *Journal) RecordRun(ctx context.Context, result types.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "failed to begin transaction", err)
	}

	var endTime any
	if !result.EndTime.IsZero() {
		endTime = result.EndTime.UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, symbol, interval, initial_capital, current_capital, peak_capital, max_drawdown,
		 trades, bars_processed, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			current_capital = excluded.current_capital,
			peak_capital = excluded.peak_capital,
			max_drawdown = excluded.max_drawdown,
			trades = excluded.trades,
			bars_processed = excluded.bars_processed,
			end_time = excluded.end_time`,
		result.ID, result.Symbol, result.Interval, result.InitialCapital, result.CurrentCapital,
		result.PeakCapital, result.MaxDrawdown, len(result.Trades), result.BarsProcessed,
		result.StartTime.UTC(), endTime,
	)
	if err != nil {
		_ = tx.Rollback()

		return errors.Wrapf(errors.ErrCodeJournalFailed, err, "failed to record run %s", result.ID)
	}

	for _, t := range result.Trades {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO trades
			(trade_id, run_id, symbol, direction, size, leverage, entry_price, exit_price,
			 entry_time, exit_time, stop_loss, take_profit, realized_pnl, fee, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, result.ID, t.Symbol, string(t.Direction), t.Size, t.Leverage, t.EntryPrice, t.ExitPrice,
			t.EntryTime.UTC(), t.Timestamp.UTC(), t.StopLoss, t.TakeProfit, t.RealizedPnL, t.Fee, string(t.ExitReason),
		)
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrapf(errors.ErrCodeJournalFailed, err, "failed to record trade %s", t.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalFailed, "failed to commit run", err)
	}

	j.logger.Debug("Run recorded",
		zap.String("run_id", result.ID),
		zap.Int("trades", len(result.Trades)),
	)

	return nil
}

// Trades lists the trades of a run ordered by exit time.
func (j *Journal) Trades(ctx context.Context, runID string) ([]types.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, symbol, direction, size, leverage, entry_price, exit_price,
		       entry_time, exit_time, stop_loss, take_profit, realized_pnl, fee, reason
		FROM trades WHERE run_id = ? ORDER BY exit_time, trade_id`, runID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			t                   types.Trade
			direction, reason   string
			entryTime, exitTime time.Time
		)

		err := rows.Scan(&t.ID, &t.Symbol, &direction, &t.Size, &t.Leverage, &t.EntryPrice, &t.ExitPrice,
			&entryTime, &exitTime, &t.StopLoss, &t.TakeProfit, &t.RealizedPnL, &t.Fee, &reason)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalFailed, "failed to scan trade", err)
		}

		t.Direction = types.Direction(direction)
		t.ExitReason = types.ExitReason(reason)
		t.EntryTime = entryTime.UTC()
		t.Timestamp = exitTime.UTC()
		t.HoldingPeriod = t.Timestamp.Sub(t.EntryTime)
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Observer returns a simulation observer that journals every closed trade
// under runID. Failures are logged, never returned to the engine.
func (j *Journal) Observer(runID string) func(types.Update) {
	return func(update types.Update) {
		if update.Closed == nil {
			return
		}

		if err := j.RecordTrade(context.Background(), runID, *update.Closed); err != nil {
			j.logger.Error("Failed to journal trade",
				zap.String("run_id", runID),
				zap.String("trade_id", update.Closed.ID),
				zap.Error(err),
			)
		}
	}
}

func (j *Journal) Close() error {
	return j.db.Close()
}
