package risk

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
)

// BasicConfig configures the percentage-stop policy.
type BasicConfig struct {
	StopLossPct       float64  `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss %,description=Stop distance in percent of entry,default=2" validate:"gt=0,lt=100"`
	RiskRewardRatio   float64  `yaml:"risk_reward_ratio" json:"risk_reward_ratio" jsonschema:"title=Risk Reward Ratio,default=2" validate:"gt=0"`
	MaxHoldingMinutes int      `yaml:"max_holding_minutes" json:"max_holding_minutes" jsonschema:"title=Max Holding Minutes,default=1440" validate:"gt=0"`
	TrailingStopPct   *float64 `yaml:"trailing_stop_pct" json:"trailing_stop_pct,omitempty" jsonschema:"title=Trailing Stop %,description=Retracement from the best price that closes the position"  validate:"omitempty,gt=0,lt=100"`
	RiskPerTrade      float64  `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"title=Risk Per Trade,default=0.02" validate:"gt=0,lte=0.1"`
	Leverage          float64  `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,default=1" validate:"gte=1"`
}

// DefaultBasicConfig returns the documented defaults.
func DefaultBasicConfig() BasicConfig {
	return BasicConfig{
		StopLossPct:       2,
		RiskRewardRatio:   2,
		MaxHoldingMinutes: 1440,
		TrailingStopPct:   nil,
		RiskPerTrade:      0.02,
		Leverage:          1,
	}
}

// Basic uses a percentage stop, a holding limit and an optional trailing stop.
type Basic struct {
	sizing
	config BasicConfig
}

// NewBasic validates params over the defaults.
func NewBasic(params map[string]any) (*Basic, error) {
	config := DefaultBasicConfig()
	if err := variant.DecodeAndValidate(params, &config); err != nil {
		return nil, err
	}

	return &Basic{
		sizing: sizing{
			riskPerTrade:    config.RiskPerTrade,
			riskRewardRatio: config.RiskRewardRatio,
			leverage:        config.Leverage,
			maxHolding:      minutes(config.MaxHoldingMinutes),
		},
		config: config,
	}, nil
}

func (p *Basic) Name() string { return NameBasic }

// Config returns the bound parameters.
func (p *Basic) Config() BasicConfig { return p.config }

func (p *Basic) StopAndTarget(entryPrice float64, direction types.Direction, _ optional.Option[float64]) (float64, float64) {
	return p.levels(entryPrice, direction, entryPrice*p.config.StopLossPct/100)
}

func (p *Basic) ShouldClose(in CloseInput) (bool, types.ExitReason) {
	if closed, reason := p.closeOnLimits(in); closed {
		return closed, reason
	}

	if p.config.TrailingStopPct == nil {
		return false, ""
	}

	ratio := *p.config.TrailingStopPct / 100

	// the trail only arms once price has moved past entry
	if in.Direction == types.DirectionShort {
		if in.BestPrice < in.EntryPrice && in.CurrentPrice >= in.BestPrice*(1+ratio) {
			return true, types.ExitReasonTrailingStop
		}

		return false, ""
	}

	if in.BestPrice > in.EntryPrice && in.CurrentPrice <= in.BestPrice*(1-ratio) {
		return true, types.ExitReasonTrailingStop
	}

	return false, ""
}
