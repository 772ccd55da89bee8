package strategy

import (
	"fmt"

	"github.com/rxtech-lab/argo-consensus/internal/indicator"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// RSIConfig configures the oscillator provider.
type RSIConfig struct {
	Period        int     `yaml:"period" json:"period" jsonschema:"title=Period,description=Number of close changes averaged,default=14" validate:"gt=0"`
	Overbought    float64 `yaml:"overbought" json:"overbought" jsonschema:"title=Overbought,description=RSI above which a short is signalled,default=70" validate:"lt=100"`
	Oversold      float64 `yaml:"oversold" json:"oversold" jsonschema:"title=Oversold,description=RSI below which a long is signalled,default=30" validate:"gt=0,ltfield=Overbought"`
	ExitThreshold float64 `yaml:"exit_threshold" json:"exit_threshold" jsonschema:"title=Exit Threshold,description=RSI above which a neutral bar asks to exit,default=50" validate:"gt=0,lt=100"`
}

// DefaultRSIConfig returns the documented defaults.
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{
		Period:        14,
		Overbought:    70,
		Oversold:      30,
		ExitThreshold: 50,
	}
}

// RSI signals long when oversold and short when overbought.
type RSI struct {
	config RSIConfig
}

// NewRSI validates params over the defaults.
func NewRSI(params map[string]any) (*RSI, error) {
	config := DefaultRSIConfig()
	if err := variant.DecodeAndValidate(params, &config); err != nil {
		return nil, err
	}

	return &RSI{config: config}, nil
}

func (s *RSI) Name() string { return NameRSI }

func (s *RSI) WarmupPeriod() int { return s.config.Period + 1 }

// Config returns the bound parameters.
func (s *RSI) Config() RSIConfig { return s.config }

func (s *RSI) Evaluate(window []types.Bar) (types.Signal, error) {
	if len(window) < s.WarmupPeriod() {
		return types.NeutralSignal(s.Name(), window, "warming up"), nil
	}

	value, err := indicator.RSI(types.Closes(window), s.config.Period)
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to calculate rsi", err)
	}

	signal := baseSignal(s.Name(), window)
	signal.Metadata = map[string]any{"rsi": value}

	switch {
	case value < s.config.Oversold:
		signal.Direction = types.DirectionLong
		signal.Reason = fmt.Sprintf("rsi %.2f below oversold %.2f", value, s.config.Oversold)
	case value > s.config.Overbought:
		signal.Direction = types.DirectionShort
		signal.Reason = fmt.Sprintf("rsi %.2f above overbought %.2f", value, s.config.Overbought)
	case value > s.config.ExitThreshold:
		signal.Exit = true
		signal.Reason = fmt.Sprintf("rsi %.2f above exit threshold %.2f", value, s.config.ExitThreshold)
	}

	return signal, nil
}
