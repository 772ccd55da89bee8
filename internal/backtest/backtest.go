// Package backtest replays a bounded bar series through an engine.
package backtest

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// ProgressCallback is called after each processed bar.
type ProgressCallback func(current int, total int)

type options struct {
	logger        *logger.Logger
	progress      ProgressCallback
	id            string
	engineOptions []engine.Option
}

type Option func(*options)

// WithLogger sets the logger used by the run and its engine.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithProgress reports progress after every bar.
func WithProgress(callback ProgressCallback) Option {
	return func(o *options) {
		o.progress = callback
	}
}

// WithID stamps the result with id.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithEngineOptions forwards options to the engine, e.g. custom registries.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) {
		o.engineOptions = append(o.engineOptions, opts...)
	}
}

// RunBacktest replays series in order and force-closes any position left
// open after the last bar. The same inputs always give the same result.
// On any error no result is returned.
func RunBacktest(ctx context.Context, series []types.Bar, config engine.Config, opts ...Option) (types.Result, error) {
	o := options{logger: logger.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger.Named("backtest")

	if err := ValidateSeries(series); err != nil {
		return types.Result{}, err
	}

	e, err := engine.New(config, append([]engine.Option{engine.WithLogger(o.logger)}, o.engineOptions...)...)
	if err != nil {
		return types.Result{}, err
	}

	log.Info("Backtest started",
		zap.String("symbol", config.Symbol),
		zap.Int("bars", len(series)),
		zap.Time("from", series[0].Time),
		zap.Time("to", series[len(series)-1].Time),
	)

	total := len(series)

	for i, bar := range series {
		if err := ctx.Err(); err != nil {
			log.Warn("Backtest cancelled", zap.Int("processed", i))

			return types.Result{}, err
		}

		if _, err := e.OnBar(bar); err != nil {
			log.Error("Backtest step failed",
				zap.Int("index", i),
				zap.Time("time", bar.Time),
				zap.Error(err),
			)

			return types.Result{}, err
		}

		if o.progress != nil {
			o.progress(i+1, total)
		}
	}

	if _, err := e.ForceClose(types.ExitReasonEndOfPeriod); err != nil {
		return types.Result{}, err
	}

	result := e.Result()
	result.ID = o.id

	log.Info("Backtest finished",
		zap.String("symbol", result.Symbol),
		zap.Int("trades", result.Stats.NumberOfTrades),
		zap.Float64("total_pnl", result.Stats.TotalPnL),
		zap.Float64("max_drawdown", result.MaxDrawdown),
		zap.Float64("sharpe_ratio", result.Stats.SharpeRatio),
	)

	return result, nil
}

// ValidateSeries rejects empty series and series whose timestamps go
// backwards.
func ValidateSeries(series []types.Bar) error {
	if len(series) == 0 {
		return errors.New(errors.ErrCodeEmptyData, "empty series")
	}

	for i := 1; i < len(series); i++ {
		if series[i].Time.Before(series[i-1].Time) {
			return errors.Newf(errors.ErrCodeEmptyData,
				"unusable series: bar %d at %s precedes bar %d at %s",
				i, series[i].Time.Format(time.RFC3339),
				i-1, series[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}
