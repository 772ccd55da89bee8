package writer

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// BarWriter buffers bars in an in-memory DuckDB table and exports them to
// a parquet file on Finalize.
type BarWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	written    int
	logger     *logger.Logger
}

func NewBarWriter(outputPath string, log *logger.Logger) *BarWriter {
	return &BarWriter{
		outputPath: outputPath,
		logger:     log.Named("bar_writer"),
	}
}

// Initialize creates the table, opens a transaction and prepares the insert.
func (w *BarWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open duckdb", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

func (w *BarWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeInvalidState, "writer not initialized")
	}

	_, err := w.stmt.Exec(bar.Time.UTC(), bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert bar", err)
	}

	w.written++

	return nil
}

// Finalize commits and exports the bars ordered by symbol and time.
func (w *BarWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeInvalidState, "writer not initialized")
	}

	if err := w.stmt.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close statement", err)
	}

	w.stmt = nil

	if err := w.tx.Commit(); err != nil {
		_ = w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	_, err := w.db.Exec(fmt.Sprintf(
		`COPY (SELECT * FROM market_data ORDER BY symbol, time) TO '%s' (FORMAT PARQUET)`,
		quote(w.outputPath),
	))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to parquet", err)
	}

	w.logger.Info("Exported market data",
		zap.String("path", w.outputPath),
		zap.Int("bars", w.written),
	)

	return w.outputPath, nil
}

// Written returns the number of bars accepted so far.
func (w *BarWriter) Written() int {
	return w.written
}

func (w *BarWriter) OutputPath() string {
	return w.outputPath
}

// Close releases the statement, transaction and database.
func (w *BarWriter) Close() error {
	var failures []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			failures = append(failures, fmt.Sprintf("close statement: %v", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("Failed to roll back transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			failures = append(failures, fmt.Sprintf("close db: %v", err))
		}

		w.db = nil
	}

	if len(failures) > 0 {
		return errors.Newf(errors.ErrCodeWriterFailed, "errors occurred during close: %s", strings.Join(failures, "; "))
	}

	return nil
}

func quote(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
