package risk

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
)

// FixedConfig configures the fixed-fraction policy.
type FixedConfig struct {
	RiskPerTrade      float64 `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"title=Risk Per Trade,description=Fraction of capital risked per trade,default=0.02" validate:"gt=0,lte=0.1"`
	RiskRewardRatio   float64 `yaml:"risk_reward_ratio" json:"risk_reward_ratio" jsonschema:"title=Risk Reward Ratio,default=2" validate:"gt=0"`
	Leverage          float64 `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,default=1" validate:"gte=1"`
	MaxHoldingMinutes int     `yaml:"max_holding_minutes" json:"max_holding_minutes" jsonschema:"title=Max Holding Minutes,description=0 disables the limit,default=0" validate:"gte=0"`
}

// DefaultFixedConfig returns the documented defaults.
func DefaultFixedConfig() FixedConfig {
	return FixedConfig{
		RiskPerTrade:    0.02,
		RiskRewardRatio: 2,
		Leverage:        1,
	}
}

// Fixed places the stop one volatility unit from entry, or 1% away when the
// signal carries no volatility.
type Fixed struct {
	sizing
	config FixedConfig
}

// NewFixed validates params over the defaults.
func NewFixed(params map[string]any) (*Fixed, error) {
	config := DefaultFixedConfig()
	if err := variant.DecodeAndValidate(params, &config); err != nil {
		return nil, err
	}

	return &Fixed{
		sizing: sizing{
			riskPerTrade:    config.RiskPerTrade,
			riskRewardRatio: config.RiskRewardRatio,
			leverage:        config.Leverage,
			maxHolding:      minutes(config.MaxHoldingMinutes),
		},
		config: config,
	}, nil
}

func (p *Fixed) Name() string { return NameFixed }

// Config returns the bound parameters.
func (p *Fixed) Config() FixedConfig { return p.config }

func (p *Fixed) StopAndTarget(entryPrice float64, direction types.Direction, volatility optional.Option[float64]) (float64, float64) {
	return p.levels(entryPrice, direction, volatilityDistance(entryPrice, volatility, 1))
}

func (p *Fixed) ShouldClose(in CloseInput) (bool, types.ExitReason) {
	return p.closeOnLimits(in)
}
