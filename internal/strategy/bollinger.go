package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-consensus/internal/indicator"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// BollingerConfig configures the band provider.
type BollingerConfig struct {
	Period        int     `yaml:"period" json:"period" jsonschema:"title=Period,description=Moving average length,default=20" validate:"gt=1"`
	StdDev        float64 `yaml:"std_dev" json:"std_dev" jsonschema:"title=Standard Deviations,description=Band distance in sample deviations,default=2" validate:"gt=0"`
	ExitThreshold float64 `yaml:"exit_threshold" json:"exit_threshold" jsonschema:"title=Exit Threshold,description=Distance to the middle band as a fraction of band width below which a neutral bar asks to exit,default=0.5" validate:"gt=0,lt=1"`
}

// DefaultBollingerConfig returns the documented defaults.
func DefaultBollingerConfig() BollingerConfig {
	return BollingerConfig{
		Period:        20,
		StdDev:        2,
		ExitThreshold: 0.5,
	}
}

// Bollinger signals long below the lower band and short above the upper band.
type Bollinger struct {
	config BollingerConfig
}

// NewBollinger validates params over the defaults.
func NewBollinger(params map[string]any) (*Bollinger, error) {
	config := DefaultBollingerConfig()
	if err := variant.DecodeAndValidate(params, &config); err != nil {
		return nil, err
	}

	return &Bollinger{config: config}, nil
}

func (s *Bollinger) Name() string { return NameBollinger }

func (s *Bollinger) WarmupPeriod() int { return s.config.Period }

// Config returns the bound parameters.
func (s *Bollinger) Config() BollingerConfig { return s.config }

func (s *Bollinger) Evaluate(window []types.Bar) (types.Signal, error) {
	if len(window) < s.WarmupPeriod() {
		return types.NeutralSignal(s.Name(), window, "warming up"), nil
	}

	bands, err := indicator.BollingerBands(types.Closes(window), s.config.Period, s.config.StdDev)
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to calculate bollinger bands", err)
	}

	price := window[len(window)-1].Close
	signal := baseSignal(s.Name(), window)
	signal.Metadata = map[string]any{"upper": bands.Upper, "middle": bands.Middle, "lower": bands.Lower}

	switch {
	case price < bands.Lower:
		signal.Direction = types.DirectionLong
		signal.Reason = "Price below lower band"
	case price > bands.Upper:
		signal.Direction = types.DirectionShort
		signal.Reason = "Price above upper band"
	case bands.Width() > 0 && math.Abs(price-bands.Middle)/bands.Width() < s.config.ExitThreshold:
		signal.Exit = true
		signal.Reason = "Price near middle band"
	default:
		signal.Reason = "Price within bands"
	}

	return signal, nil
}
