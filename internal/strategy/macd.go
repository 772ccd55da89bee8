package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-consensus/internal/indicator"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// MACDConfig configures the divergence provider.
type MACDConfig struct {
	FastPeriod    int     `yaml:"fast_period" json:"fast_period" jsonschema:"title=Fast Period,default=12" validate:"gt=0,ltfield=SlowPeriod"`
	SlowPeriod    int     `yaml:"slow_period" json:"slow_period" jsonschema:"title=Slow Period,default=26" validate:"gt=0"`
	SignalPeriod  int     `yaml:"signal_period" json:"signal_period" jsonschema:"title=Signal Period,default=9" validate:"gt=0"`
	ExitThreshold float64 `yaml:"exit_threshold" json:"exit_threshold" jsonschema:"title=Exit Threshold,description=Absolute histogram value below which a neutral bar asks to exit,default=0" validate:"gte=0"`
}

// DefaultMACDConfig returns the documented defaults.
func DefaultMACDConfig() MACDConfig {
	return MACDConfig{
		FastPeriod:    12,
		SlowPeriod:    26,
		SignalPeriod:  9,
		ExitThreshold: 0,
	}
}

// MACD signals on histogram sign changes.
type MACD struct {
	config MACDConfig
}

// NewMACD validates params over the defaults.
func NewMACD(params map[string]any) (*MACD, error) {
	config := DefaultMACDConfig()
	if err := variant.DecodeAndValidate(params, &config); err != nil {
		return nil, err
	}

	return &MACD{config: config}, nil
}

func (s *MACD) Name() string { return NameMACD }

func (s *MACD) WarmupPeriod() int { return s.config.SlowPeriod + s.config.SignalPeriod }

// Config returns the bound parameters.
func (s *MACD) Config() MACDConfig { return s.config }

func (s *MACD) Evaluate(window []types.Bar) (types.Signal, error) {
	if len(window) < s.WarmupPeriod() {
		return types.NeutralSignal(s.Name(), window, "warming up"), nil
	}

	series, err := indicator.MACD(types.Closes(window), s.config.FastPeriod, s.config.SlowPeriod, s.config.SignalPeriod)
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to calculate macd", err)
	}

	last := len(window) - 1
	current := series.Histogram[last]
	previous := series.Histogram[last-1]

	signal := baseSignal(s.Name(), window)
	signal.Metadata = map[string]any{
		"macd":      series.MACD[last],
		"signal":    series.Signal[last],
		"histogram": current,
	}

	switch {
	case previous < 0 && current > 0:
		signal.Direction = types.DirectionLong
		signal.Reason = "Histogram crossed above zero"
	case previous > 0 && current < 0:
		signal.Direction = types.DirectionShort
		signal.Reason = "Histogram crossed below zero"
	case math.Abs(current) < s.config.ExitThreshold:
		signal.Exit = true
		signal.Reason = "Histogram inside exit band"
	}

	return signal, nil
}
