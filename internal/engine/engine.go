// Package engine runs the position lifecycle for one instrument: each bar
// is evaluated by every provider, the votes are folded into a decision,
// and the single position slot is opened or closed under the risk policy.
package engine

import (
	"math"

	"github.com/rxtech-lab/argo-consensus/internal/commission"
	"github.com/rxtech-lab/argo-consensus/internal/consensus"
	"github.com/rxtech-lab/argo-consensus/internal/engine/stats"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/risk"
	"github.com/rxtech-lab/argo-consensus/internal/strategy"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// Engine is not safe for concurrent use; the streaming driver serialises
// access to it.
type Engine struct {
	config     Config
	providers  []strategy.Provider
	policy     risk.Policy
	fee        commission.Fee
	stats      *stats.Accumulator
	ids        *idGenerator
	window     []types.Bar
	position   *types.Position
	trades     []types.Trade
	firstBar   types.Bar
	lastBar    types.Bar
	barsSeen   int
	logger     *logger.Logger
	strategies *strategy.Registry
	policies   *risk.Registry
}

type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.logger = log
	}
}

// WithStrategyRegistry resolves strategy names against registry instead of
// the built-in providers.
func WithStrategyRegistry(registry *strategy.Registry) Option {
	return func(e *Engine) {
		e.strategies = registry
	}
}

// WithRiskRegistry resolves the risk policy name against registry.
func WithRiskRegistry(registry *risk.Registry) Option {
	return func(e *Engine) {
		e.policies = registry
	}
}

// WithProviders replaces the providers built from the config.
func WithProviders(providers ...strategy.Provider) Option {
	return func(e *Engine) {
		e.providers = providers
	}
}

// WithPolicy replaces the policy built from the config.
func WithPolicy(policy risk.Policy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// New validates config and builds its providers, policy and fee model.
func New(config Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		config:     config,
		window:     make([]types.Bar, 0),
		trades:     make([]types.Trade, 0),
		ids:        newIDGenerator(),
		logger:     logger.NewNopLogger(),
		strategies: strategy.DefaultRegistry(),
		policies:   risk.DefaultRegistry(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.Named("engine")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if e.providers == nil {
		for _, sc := range config.Strategies {
			provider, err := e.strategies.New(sc.Name, sc.Params)
			if err != nil {
				return nil, err
			}

			e.providers = append(e.providers, provider)
		}
	}

	if e.policy == nil {
		policy, err := e.policies.New(config.Risk.Name, config.Risk.Params)
		if err != nil {
			return nil, err
		}

		e.policy = policy
	}

	fee, err := commission.New(config.Commission)
	if err != nil {
		return nil, err
	}

	e.fee = fee

	if config.MaxWindow > 0 {
		for _, provider := range e.providers {
			if provider.WarmupPeriod() > config.MaxWindow {
				return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
					"max_window %d is shorter than the %s warm-up of %d bars",
					config.MaxWindow, provider.Name(), provider.WarmupPeriod())
			}
		}
	}

	e.stats = stats.NewAccumulator(config.InitialCapital, e.logger)

	e.logger.Debug("Engine initialized",
		zap.String("symbol", config.Symbol),
		zap.Int("providers", len(e.providers)),
		zap.String("risk", e.policy.Name()),
		zap.Float64("initial_capital", config.InitialCapital),
	)

	return e, nil
}

// Config returns the config the engine was built from.
func (e *Engine) Config() Config {
	return e.config
}

// HasPosition reports whether the slot is occupied.
func (e *Engine) HasPosition() bool {
	return e.position != nil
}

// OnBar runs one lifecycle step. A failed step leaves the window, the slot
// and the trade log as they were before the call.
func (e *Engine) OnBar(bar types.Bar) (types.Update, error) {
	e.window = append(e.window, bar)

	window := e.window
	if e.config.MaxWindow > 0 && len(window) > e.config.MaxWindow {
		window = window[len(window)-e.config.MaxWindow:]
	}

	update, err := e.step(bar, window)
	if err != nil {
		e.window = e.window[:len(e.window)-1]
		update.Err = err
		update.Error = err.Error()

		return update, err
	}

	e.window = window

	if e.barsSeen == 0 {
		e.firstBar = bar
	}

	e.barsSeen++
	e.lastBar = bar

	e.logger.Debug("Bar processed",
		zap.Time("time", bar.Time),
		zap.Float64("close", bar.Close),
		zap.String("decision", string(update.Decision)),
		zap.Bool("open", e.position != nil),
	)

	return update, nil
}

// step either tries to enter or manages the open position, never both.
func (e *Engine) step(bar types.Bar, window []types.Bar) (types.Update, error) {
	update := types.Update{Bar: bar}

	signals, err := e.evaluate(window)
	if err != nil {
		return update, err
	}

	update.Signals = signals
	update.Decision = consensus.Decide(signals)

	if e.position == nil {
		opened, err := e.maybeOpen(bar, signals, update.Decision)
		update.Opened = opened

		return update, err
	}

	closed, err := e.manage(bar, signals)
	update.Closed = closed

	return update, err
}

func (e *Engine) evaluate(window []types.Bar) ([]types.Signal, error) {
	signals := make([]types.Signal, 0, len(e.providers))

	for _, provider := range e.providers {
		signal, err := provider.Evaluate(window)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed", provider.Name())
		}

		signals = append(signals, signal)
	}

	return signals, nil
}

func (e *Engine) maybeOpen(bar types.Bar, signals []types.Signal, decision types.Direction) (*types.Position, error) {
	if decision == types.DirectionNone {
		return nil, nil
	}

	hint, volatility := consensus.EntryHints(signals, decision)
	entry := hint.TakeOr(bar.Close)

	stop, target := e.policy.StopAndTarget(entry, decision, volatility)
	size := e.policy.Size(e.stats.CurrentCapital(), entry, stop)

	if !finite(stop, target, size) {
		return nil, errors.Newf(errors.ErrCodeRiskRuntimeError,
			"risk policy %s produced stop=%v target=%v size=%v", e.policy.Name(), stop, target, size)
	}

	if size <= 0 {
		e.logger.Debug("Entry skipped, zero size",
			zap.String("direction", string(decision)),
			zap.Float64("entry", entry),
			zap.Float64("stop_loss", stop),
		)

		return nil, nil
	}

	leverage := math.Max(1, e.policy.Leverage())

	e.position = &types.Position{
		Symbol:     e.config.Symbol,
		Direction:  decision,
		EntryPrice: entry,
		Size:       size,
		Leverage:   leverage,
		StopLoss:   stop,
		TakeProfit: target,
		EntryTime:  bar.Time,
		EntryFee:   e.fee.Calculate(size, entry),
		BestPrice:  entry,
	}

	e.logger.Info("Position opened",
		zap.String("symbol", e.config.Symbol),
		zap.String("direction", string(decision)),
		zap.Float64("entry", entry),
		zap.Float64("size", size),
		zap.Float64("stop_loss", stop),
		zap.Float64("take_profit", target),
	)

	opened := *e.position

	return &opened, nil
}

func (e *Engine) manage(bar types.Bar, signals []types.Signal) (*types.Trade, error) {
	// work on a copy so a failed step leaves the slot untouched
	position := *e.position
	price := bar.Close

	if position.IsFavorable(price) && betterThan(position.Direction, price, position.BestPrice) {
		position.BestPrice = price
	}

	if adjuster, ok := e.policy.(risk.StopAdjuster); ok {
		if stop, err := adjuster.AdjustStop(position, price).Take(); err == nil && tightens(position, stop) {
			e.logger.Debug("Stop adjusted",
				zap.Float64("from", position.StopLoss),
				zap.Float64("to", stop),
			)
			position.StopLoss = stop
		}
	}

	closed, reason := e.policy.ShouldClose(risk.CloseInput{
		Direction:     position.Direction,
		EntryPrice:    position.EntryPrice,
		CurrentPrice:  price,
		StopLoss:      position.StopLoss,
		TakeProfit:    position.TakeProfit,
		UnrealizedPnL: position.UnrealizedPnL(price),
		HoldingPeriod: bar.Time.Sub(position.EntryTime),
		BestPrice:     position.BestPrice,
	})

	if !closed && consensus.AnyExit(signals) {
		closed, reason = true, types.ExitReasonSignal
	}

	if closed && !reason.Valid() {
		return nil, errors.Newf(errors.ErrCodeRiskRuntimeError, "risk policy %s returned exit reason %q", e.policy.Name(), reason)
	}

	if !closed {
		*e.position = position

		return nil, nil
	}

	return e.close(position, bar, reason)
}

// ForceClose closes the open position at the last bar's close. It returns
// nil when the slot is empty.
func (e *Engine) ForceClose(reason types.ExitReason) (*types.Trade, error) {
	if !reason.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid exit reason %q", reason)
	}

	if e.position == nil {
		return nil, nil
	}

	return e.close(*e.position, e.lastBar, reason)
}

// close records the trade and frees the slot in one step. The slot is
// untouched when the trade cannot be issued.
func (e *Engine) close(position types.Position, bar types.Bar, reason types.ExitReason) (*types.Trade, error) {
	id, err := e.ids.next(bar.Time)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidState, "failed to issue trade id", err)
	}

	exitFee := e.fee.Calculate(position.Size, bar.Close)
	fee := position.EntryFee + exitFee

	trade := types.Trade{
		ID:            id,
		Timestamp:     bar.Time,
		EntryTime:     position.EntryTime,
		Symbol:        position.Symbol,
		Direction:     position.Direction,
		EntryPrice:    position.EntryPrice,
		ExitPrice:     bar.Close,
		Size:          position.Size,
		Leverage:      position.Leverage,
		RealizedPnL:   position.UnrealizedPnL(bar.Close) - fee,
		Fee:           fee,
		StopLoss:      position.StopLoss,
		TakeProfit:    position.TakeProfit,
		ExitReason:    reason,
		HoldingPeriod: bar.Time.Sub(position.EntryTime),
	}

	e.trades = append(e.trades, trade)
	e.stats.Record(trade)
	e.position = nil

	e.logger.Info("Position closed",
		zap.String("symbol", trade.Symbol),
		zap.String("direction", string(trade.Direction)),
		zap.String("reason", string(reason)),
		zap.Float64("exit", trade.ExitPrice),
		zap.Float64("pnl", trade.RealizedPnL),
		zap.Float64("capital", e.stats.CurrentCapital()),
	)

	return &trade, nil
}

// Result returns a snapshot that shares no state with the engine.
func (e *Engine) Result() types.Result {
	result := types.Result{
		Symbol:         e.config.Symbol,
		Interval:       e.config.Interval,
		InitialCapital: e.config.InitialCapital,
		CurrentCapital: e.stats.CurrentCapital(),
		PeakCapital:    e.stats.PeakCapital(),
		MaxDrawdown:    e.stats.MaxDrawdown(),
		Stats:          e.stats.Stats(),
		Trades:         append([]types.Trade(nil), e.trades...),
		BarsProcessed:  e.barsSeen,
	}

	if e.barsSeen > 0 {
		result.StartTime = e.firstBar.Time
		result.EndTime = e.lastBar.Time
	}

	if e.position != nil {
		position := *e.position
		result.OpenPosition = &position
	}

	return result
}

func betterThan(direction types.Direction, price, best float64) bool {
	if direction == types.DirectionShort {
		return price < best
	}

	return price > best
}

// tightens reports whether stop is strictly closer to price than the
// current stop.
func tightens(position types.Position, stop float64) bool {
	if position.Direction == types.DirectionShort {
		return stop < position.StopLoss
	}

	return stop > position.StopLoss
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
