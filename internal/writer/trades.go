package writer

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

const insertBatchSize = 500

const tradesTable = `
CREATE TABLE trades (
	id TEXT,
	symbol TEXT,
	direction TEXT,
	entry_time TIMESTAMP,
	exit_time TIMESTAMP,
	entry_price DOUBLE,
	exit_price DOUBLE,
	size DOUBLE,
	leverage DOUBLE,
	stop_loss DOUBLE,
	take_profit DOUBLE,
	realized_pnl DOUBLE,
	fee DOUBLE,
	exit_reason TEXT,
	holding_minutes DOUBLE
)`

// ExportTrades writes the trade log to a parquet file. An empty log still
// produces a file with the schema.
func ExportTrades(path string, trades []types.Trade) error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriterFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	if _, err := db.Exec(tradesTable); err != nil {
		return errors.Wrap(errors.ErrCodeWriterFailed, "failed to create trades table", err)
	}

	for start := 0; start < len(trades); start += insertBatchSize {
		end := min(start+insertBatchSize, len(trades))

		if err := insertTrades(db, trades[start:end]); err != nil {
			return err
		}
	}

	_, err = db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY exit_time, id) TO '%s' (FORMAT PARQUET)`, quote(path)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriterFailed, "failed to export trades", err)
	}

	return nil
}

func insertTrades(db *sql.DB, trades []types.Trade) error {
	insert := squirrel.Insert("trades").Columns(
		"id", "symbol", "direction", "entry_time", "exit_time",
		"entry_price", "exit_price", "size", "leverage", "stop_loss", "take_profit",
		"realized_pnl", "fee", "exit_reason", "holding_minutes",
	)

	for _, t := range trades {
		insert = insert.Values(
			t.ID, t.Symbol, string(t.Direction), t.EntryTime.UTC(), t.Timestamp.UTC(),
			t.EntryPrice, t.ExitPrice, t.Size, t.Leverage, t.StopLoss, t.TakeProfit,
			t.RealizedPnL, t.Fee, string(t.ExitReason), t.HoldingMinutes(),
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriterFailed, "failed to build insert", err)
	}

	if _, err := db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeWriterFailed, "failed to insert trades", err)
	}

	return nil
}
