// Package stats accumulates account metrics as trades close.
package stats

import (
	"math"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// TradingDaysPerYear annualizes the Sharpe ratio.
	TradingDaysPerYear = 252
	// RiskFreeRate is the annual risk-free rate subtracted from returns.
	RiskFreeRate = 0.02
)

// Accumulator tracks capital, peak, drawdown and trade statistics.
// Capital sums are kept in decimal so that current capital is exactly
// initial capital plus the realized PnL of every recorded trade.
type Accumulator struct {
	initialCapital decimal.Decimal
	currentCapital decimal.Decimal
	peakCapital    decimal.Decimal
	maxDrawdown    float64

	totalFees   decimal.Decimal
	grossProfit decimal.Decimal
	grossLoss   decimal.Decimal

	trades       int
	winning      int
	losing       int
	largestWin   float64
	largestLoss  float64
	totalHolding time.Duration
	// returns are per-trade PnL over initial capital
	returns []float64

	mu     sync.Mutex
	logger *logger.Logger
}

// NewAccumulator starts an accumulator at initialCapital.
func NewAccumulator(initialCapital float64, log *logger.Logger) *Accumulator {
	capital := decimal.NewFromFloat(initialCapital)

	return &Accumulator{
		initialCapital: capital,
		currentCapital: capital,
		peakCapital:    capital,
		maxDrawdown:    0,
		totalFees:      decimal.Zero,
		grossProfit:    decimal.Zero,
		grossLoss:      decimal.Zero,
		returns:        make([]float64, 0),
		mu:             sync.Mutex{},
		logger:         log.Named("stats"),
	}
}

// Record applies a closed trade.
func (a *Accumulator) Record(trade types.Trade) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pnl := decimal.NewFromFloat(trade.RealizedPnL)

	a.trades++
	a.currentCapital = a.currentCapital.Add(pnl)
	a.totalFees = a.totalFees.Add(decimal.NewFromFloat(trade.Fee))
	a.totalHolding += trade.HoldingPeriod

	if trade.RealizedPnL > 0 {
		a.winning++
		a.grossProfit = a.grossProfit.Add(pnl)
		a.largestWin = math.Max(a.largestWin, trade.RealizedPnL)
	} else {
		a.losing++
		a.grossLoss = a.grossLoss.Add(pnl.Abs())
		a.largestLoss = math.Min(a.largestLoss, trade.RealizedPnL)
	}

	if a.currentCapital.GreaterThan(a.peakCapital) {
		a.peakCapital = a.currentCapital
	}

	if a.peakCapital.IsPositive() {
		drawdown := a.peakCapital.Sub(a.currentCapital).Div(a.peakCapital).InexactFloat64()
		if drawdown > a.maxDrawdown {
			a.maxDrawdown = drawdown
		}
	}

	if !a.initialCapital.IsZero() {
		a.returns = append(a.returns, pnl.Div(a.initialCapital).InexactFloat64())
	}

	a.logger.Debug("Trade recorded",
		zap.String("trade_id", trade.ID),
		zap.Float64("pnl", trade.RealizedPnL),
		zap.String("capital", a.currentCapital.String()),
		zap.Float64("max_drawdown", a.maxDrawdown),
		zap.Int("total_trades", a.trades),
	)
}

// InitialCapital returns the starting capital.
func (a *Accumulator) InitialCapital() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.initialCapital.InexactFloat64()
}

// CurrentCapital returns initial capital plus realized PnL.
func (a *Accumulator) CurrentCapital() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.currentCapital.InexactFloat64()
}

// PeakCapital returns the highest capital seen, never below initial capital.
func (a *Accumulator) PeakCapital() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.peakCapital.InexactFloat64()
}

// MaxDrawdown returns the largest peak-to-trough fraction seen.
func (a *Accumulator) MaxDrawdown() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.maxDrawdown
}

// Stats derives the summary metrics.
func (a *Accumulator) Stats() types.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := types.Stats{
		NumberOfTrades:        a.trades,
		NumberOfWinningTrades: a.winning,
		NumberOfLosingTrades:  a.losing,
		TotalPnL:              a.currentCapital.Sub(a.initialCapital).InexactFloat64(),
		TotalFees:             a.totalFees.InexactFloat64(),
		SharpeRatio:           SharpeRatio(a.returns),
		LargestWin:            a.largestWin,
		LargestLoss:           a.largestLoss,
	}

	if a.trades > 0 {
		stats.WinRate = float64(a.winning) / float64(a.trades)
		stats.AverageHoldingPeriod = a.totalHolding / time.Duration(a.trades)
	}

	if a.winning > 0 {
		stats.AverageWin = a.grossProfit.Div(decimal.NewFromInt(int64(a.winning))).InexactFloat64()
	}

	if a.losing > 0 {
		stats.AverageLoss = a.grossLoss.Neg().Div(decimal.NewFromInt(int64(a.losing))).InexactFloat64()
	}

	if a.grossLoss.IsPositive() {
		stats.ProfitFactor = a.grossProfit.Div(a.grossLoss).InexactFloat64()
	}

	if !a.initialCapital.IsZero() {
		stats.TotalReturn = a.currentCapital.Sub(a.initialCapital).Div(a.initialCapital).InexactFloat64()
	}

	return stats
}

// SharpeRatio annualizes the mean excess per-trade return over its sample
// standard deviation. It is 0 with fewer than two returns or no dispersion.
func SharpeRatio(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}

	daily := RiskFreeRate / TradingDaysPerYear
	excess := make([]float64, n)
	mean := 0.0

	for i, r := range returns {
		excess[i] = r - daily
		mean += excess[i]
	}

	mean /= float64(n)

	variance := 0.0
	for _, e := range excess {
		variance += (e - mean) * (e - mean)
	}

	std := math.Sqrt(variance / float64(n-1))
	if std == 0 {
		return 0
	}

	return math.Sqrt(TradingDaysPerYear) * mean / std
}
