package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

const viewName = "market_data"

// Query narrows the bars returned by a Source.
type Query struct {
	Symbol optional.Option[string]
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
	// Limit caps the number of bars, 0 means no limit
	Limit uint64
}

// Source reads bars from parquet or CSV files through an in-process DuckDB.
type Source struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	loaded bool
	logger *logger.Logger
}

// NewSource opens an in-memory DuckDB database. Close releases it.
func NewSource(log *logger.Logger) (*Source, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &Source{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		loaded: false,
		logger: log.Named("datasource"),
	}, nil
}

// Load points the source at a parquet or CSV file, chosen by extension.
// Loading again replaces the previous file.
func (s *Source) Load(path string) error {
	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	s.logger.Debug("Loading market data", zap.String("path", path))

	if _, err := s.db.Exec(`DROP VIEW IF EXISTS ` + viewName); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW
	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s('%s')`,
		viewName, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load %s", path)
	}

	s.loaded = true

	return nil
}

// Bars returns the bars matching q in ascending time order.
func (s *Source) Bars(ctx context.Context, q Query) ([]types.Bar, error) {
	if !s.loaded {
		return nil, errors.New(errors.ErrCodeInvalidState, "no market data loaded")
	}

	builder := s.sq.
		Select(
			"CAST(time AS TIMESTAMP) AS time",
			"CAST(symbol AS VARCHAR) AS symbol",
			"CAST(open AS DOUBLE) AS open",
			"CAST(high AS DOUBLE) AS high",
			"CAST(low AS DOUBLE) AS low",
			"CAST(close AS DOUBLE) AS close",
			"CAST(volume AS DOUBLE) AS volume",
		).
		From(viewName).
		Where(conditions(q)).
		OrderBy("time ASC")

	if q.Limit > 0 {
		builder = builder.Limit(q.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0, 1024)

	for rows.Next() {
		var bar types.Bar

		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		bar.Time = bar.Time.UTC()
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	s.logger.Debug("Market data read", zap.Int("bars", len(bars)))

	return bars, nil
}

// Count returns how many bars match q, ignoring its limit.
func (s *Source) Count(ctx context.Context, q Query) (int, error) {
	if !s.loaded {
		return 0, errors.New(errors.ErrCodeInvalidState, "no market data loaded")
	}

	query, args, err := s.sq.Select("COUNT(*)").From(viewName).Where(conditions(q)).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// Symbols lists the distinct symbols in the loaded file.
func (s *Source) Symbols(ctx context.Context) ([]string, error) {
	if !s.loaded {
		return nil, errors.New(errors.ErrCodeInvalidState, "no market data loaded")
	}

	query, args, err := s.sq.Select("DISTINCT CAST(symbol AS VARCHAR)").From(viewName).OrderBy("1").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return symbols, nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

// LoadBars is the one-shot form used by the CLI: open, load, read, close.
func LoadBars(ctx context.Context, path string, q Query, log *logger.Logger) ([]types.Bar, error) {
	source, err := NewSource(log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Load(path); err != nil {
		return nil, err
	}

	return source.Bars(ctx, q)
}

func conditions(q Query) squirrel.And {
	where := squirrel.And{}

	if symbol, err := q.Symbol.Take(); err == nil {
		where = append(where, squirrel.Eq{"symbol": symbol})
	}

	if start, err := q.Start.Take(); err == nil {
		where = append(where, squirrel.GtOrEq{"time": start})
	}

	if end, err := q.End.Take(); err == nil {
		where = append(where, squirrel.LtOrEq{"time": end})
	}

	return where
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet", nil
	case ".csv":
		return "read_csv_auto", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data file: %s", path)
	}
}
