package risk

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
)

// ATRConfig configures the volatility-multiple policy.
type ATRConfig struct {
	RiskPerTrade      float64 `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"title=Risk Per Trade,default=0.02" validate:"gt=0,lte=0.1"`
	ATRMultiplier     float64 `yaml:"atr_multiplier" json:"atr_multiplier" jsonschema:"title=ATR Multiplier,description=Stop distance in volatility units,default=2" validate:"gt=0"`
	RiskRewardRatio   float64 `yaml:"risk_reward_ratio" json:"risk_reward_ratio" jsonschema:"title=Risk Reward Ratio,default=2" validate:"gt=0"`
	Leverage          float64 `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,default=1" validate:"gte=1"`
	MaxHoldingMinutes int     `yaml:"max_holding_minutes" json:"max_holding_minutes" jsonschema:"title=Max Holding Minutes,description=0 disables the limit,default=0" validate:"gte=0"`
}

// DefaultATRConfig returns the documented defaults.
func DefaultATRConfig() ATRConfig {
	return ATRConfig{
		RiskPerTrade:    0.02,
		ATRMultiplier:   2,
		RiskRewardRatio: 2,
		Leverage:        1,
	}
}

// ATR places the stop a multiple of the volatility estimate away and moves
// it to breakeven once the position is in profit.
type ATR struct {
	sizing
	config ATRConfig
}

// NewATR validates params over the defaults.
func NewATR(params map[string]any) (*ATR, error) {
	config := DefaultATRConfig()
	if err := variant.DecodeAndValidate(params, &config); err != nil {
		return nil, err
	}

	return &ATR{
		sizing: sizing{
			riskPerTrade:    config.RiskPerTrade,
			riskRewardRatio: config.RiskRewardRatio,
			leverage:        config.Leverage,
			maxHolding:      minutes(config.MaxHoldingMinutes),
		},
		config: config,
	}, nil
}

func (p *ATR) Name() string { return NameATR }

// Config returns the bound parameters.
func (p *ATR) Config() ATRConfig { return p.config }

func (p *ATR) StopAndTarget(entryPrice float64, direction types.Direction, volatility optional.Option[float64]) (float64, float64) {
	return p.levels(entryPrice, direction, volatilityDistance(entryPrice, volatility, p.config.ATRMultiplier))
}

func (p *ATR) ShouldClose(in CloseInput) (bool, types.ExitReason) {
	return p.closeOnLimits(in)
}

// AdjustStop moves the stop to the entry price once price is beyond entry
// on the profitable side. It returns None when the stop would not tighten.
func (p *ATR) AdjustStop(position types.Position, currentPrice float64) optional.Option[float64] {
	if position.UnrealizedPnL(currentPrice) <= 0 || !position.IsFavorable(currentPrice) {
		return optional.None[float64]()
	}

	if position.Direction == types.DirectionShort {
		stop := math.Min(position.EntryPrice, position.StopLoss)
		if stop < position.StopLoss {
			return optional.Some(stop)
		}

		return optional.None[float64]()
	}

	stop := math.Max(position.EntryPrice, position.StopLoss)
	if stop > position.StopLoss {
		return optional.Some(stop)
	}

	return optional.None[float64]()
}
