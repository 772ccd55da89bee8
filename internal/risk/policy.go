// Package risk implements the policies that size positions, place their
// protective levels and decide when they close.
package risk

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
)

const (
	NameFixed = "fixed"
	NameATR   = "atr"
	NameBasic = "basic"
)

// fallbackStopFraction is the stop distance, as a fraction of entry, used
// when a policy needs a volatility estimate and none is available.
const fallbackStopFraction = 0.01

// CloseInput is the state a policy inspects to decide on a close.
type CloseInput struct {
	Direction     types.Direction
	EntryPrice    float64
	CurrentPrice  float64
	StopLoss      float64
	TakeProfit    float64
	UnrealizedPnL float64
	HoldingPeriod time.Duration
	// BestPrice is the most favourable price seen since entry
	BestPrice float64
}

// Policy sizes, protects and closes a position.
type Policy interface {
	Name() string
	// RiskFraction is the share of capital put at risk per trade
	RiskFraction() float64
	// Leverage multiplies PnL, at least 1
	Leverage() float64
	// Size returns capital * risk_fraction / |entry - stop|, or 0 when the
	// trade should not be entered
	Size(capital, entryPrice, stopLoss float64) float64
	// StopAndTarget places the stop on the adverse side of entry and the
	// target at reward ratio times the stop distance on the favourable side
	StopAndTarget(entryPrice float64, direction types.Direction, volatility optional.Option[float64]) (stopLoss, takeProfit float64)
	// ShouldClose checks holding period, stop, target and trailing stop in that order
	ShouldClose(in CloseInput) (bool, types.ExitReason)
}

// StopAdjuster is implemented by policies that trail their stop. The
// returned stop is never looser than position.StopLoss.
type StopAdjuster interface {
	AdjustStop(position types.Position, currentPrice float64) optional.Option[float64]
}

// Registry maps policy names to constructors.
type Registry = variant.Registry[Policy]

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return variant.NewRegistry[Policy]("risk policy")
}

// DefaultRegistry returns a registry carrying the built-in policies.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	// names are distinct, registration cannot fail
	_ = registry.Register(NameFixed, constructor(NewFixed), variant.SchemaOf(DefaultFixedConfig()))
	_ = registry.Register(NameATR, constructor(NewATR), variant.SchemaOf(DefaultATRConfig()))
	_ = registry.Register(NameBasic, constructor(NewBasic), variant.SchemaOf(DefaultBasicConfig()))

	return registry
}

func constructor[T Policy](build func(map[string]any) (T, error)) variant.Constructor[Policy] {
	return func(params map[string]any) (Policy, error) {
		policy, err := build(params)
		if err != nil {
			return nil, err
		}

		return policy, nil
	}
}

// sizing holds the parameters every policy shares.
type sizing struct {
	riskPerTrade    float64
	riskRewardRatio float64
	leverage        float64
	maxHolding      time.Duration
}

func (s sizing) RiskFraction() float64 { return s.riskPerTrade }

func (s sizing) Leverage() float64 { return s.leverage }

func (s sizing) Size(capital, entryPrice, stopLoss float64) float64 {
	distance := math.Abs(entryPrice - stopLoss)
	if distance == 0 || capital <= 0 {
		return 0
	}

	return math.Max(0, capital*s.riskPerTrade/distance)
}

// levels places the stop distance away from entry and the target at the
// reward ratio beyond it.
func (s sizing) levels(entryPrice float64, direction types.Direction, distance float64) (float64, float64) {
	target := distance * s.riskRewardRatio

	if direction == types.DirectionShort {
		return entryPrice + distance, entryPrice - target
	}

	return entryPrice - distance, entryPrice + target
}

// closeOnLimits runs the holding period, stop and target checks.
func (s sizing) closeOnLimits(in CloseInput) (bool, types.ExitReason) {
	if s.maxHolding > 0 && in.HoldingPeriod >= s.maxHolding {
		return true, types.ExitReasonMaxHoldingPeriod
	}

	if in.Direction == types.DirectionShort {
		if in.CurrentPrice >= in.StopLoss {
			return true, types.ExitReasonStopLoss
		}

		if in.CurrentPrice <= in.TakeProfit {
			return true, types.ExitReasonTakeProfit
		}

		return false, ""
	}

	if in.CurrentPrice <= in.StopLoss {
		return true, types.ExitReasonStopLoss
	}

	if in.CurrentPrice >= in.TakeProfit {
		return true, types.ExitReasonTakeProfit
	}

	return false, ""
}

// volatilityDistance returns multiplier * volatility, falling back to a
// fixed fraction of entry.
func volatilityDistance(entryPrice float64, volatility optional.Option[float64], multiplier float64) float64 {
	if v, err := volatility.Take(); err == nil && v > 0 {
		return v * multiplier
	}

	return entryPrice * fallbackStopFraction
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
