package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/indicator"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func barsFromCloses(closes ...float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Symbol: "BTCUSDT",
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1,
		}
	}

	return bars
}

func repeat(value float64, n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}

	return values
}

func (suite *StrategyTestSuite) TestRSIDefaults() {
	provider, err := NewRSI(nil)
	suite.Require().NoError(err)
	suite.Equal(DefaultRSIConfig(), provider.Config())
	suite.Equal(15, provider.WarmupPeriod())
	suite.Equal(NameRSI, provider.Name())
}

func (suite *StrategyTestSuite) TestRSISignals() {
	provider, err := NewRSI(map[string]any{"period": 3})
	suite.Require().NoError(err)

	tests := []struct {
		name      string
		closes    []float64
		direction types.Direction
		exit      bool
	}{
		{"oversold goes long", []float64{10, 9, 8, 7}, types.DirectionLong, false},
		{"overbought goes short", []float64{7, 8, 9, 10}, types.DirectionShort, false},
		// gains 1.5, losses 1: rsi 60
		{"above exit threshold", []float64{10, 11, 10, 10.5}, types.DirectionNone, true},
		// gains 1, losses 1.5: rsi 40
		{"below exit threshold", []float64{10, 9, 10, 9.5}, types.DirectionNone, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			window := barsFromCloses(tc.closes...)
			signal, err := provider.Evaluate(window)
			suite.Require().NoError(err)
			suite.Equal(tc.direction, signal.Direction)
			suite.Equal(tc.exit, signal.Exit)
			suite.Equal(window[len(window)-1].Time, signal.Time)
			suite.Equal(tc.closes[len(tc.closes)-1], signal.EntryPrice.Unwrap())
			suite.Contains(signal.Metadata, "rsi")
		})
	}
}

func (suite *StrategyTestSuite) TestWarmupReturnsNeutral() {
	registry := DefaultRegistry()

	for _, name := range registry.Names() {
		suite.Run(name, func() {
			provider, err := registry.New(name, nil)
			suite.Require().NoError(err)

			window := barsFromCloses(repeat(100, provider.WarmupPeriod()-1)...)
			signal, err := provider.Evaluate(window)
			suite.Require().NoError(err)
			suite.Equal(types.DirectionNone, signal.Direction)
			suite.False(signal.Exit)
			suite.True(signal.EntryPrice.IsNone())

			signal, err = provider.Evaluate(nil)
			suite.Require().NoError(err)
			suite.Equal(types.DirectionNone, signal.Direction)
		})
	}
}

func (suite *StrategyTestSuite) TestEvaluateIsPure() {
	window := barsFromCloses(100, 99, 98, 97, 98, 99, 101, 100, 98, 96, 95, 97, 99, 102, 104, 103, 101, 99, 98, 97)

	for _, name := range DefaultRegistry().Names() {
		suite.Run(name, func() {
			provider, err := DefaultRegistry().New(name, map[string]any{})
			suite.Require().NoError(err)

			first, err := provider.Evaluate(window)
			suite.Require().NoError(err)
			second, err := provider.Evaluate(window)
			suite.Require().NoError(err)
			suite.Equal(first, second)
		})
	}
}

func (suite *StrategyTestSuite) TestVolatilityAttachedWhenAvailable() {
	provider, err := NewRSI(map[string]any{"period": 3})
	suite.Require().NoError(err)

	signal, err := provider.Evaluate(barsFromCloses(10, 9, 8, 7))
	suite.Require().NoError(err)
	suite.True(signal.Volatility.IsNone())

	closes := make([]float64, VolatilityPeriod+1)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}

	signal, err = provider.Evaluate(barsFromCloses(closes...))
	suite.Require().NoError(err)
	suite.True(signal.Volatility.IsSome())
	// each bar spans 1 and gaps 1 from the previous close: true range 1.5
	suite.InDelta(1.5, signal.Volatility.Unwrap(), 1e-9)
}

func (suite *StrategyTestSuite) TestRSIValidation() {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"zero period", map[string]any{"period": 0}},
		{"crossed thresholds", map[string]any{"oversold": 80, "overbought": 70}},
		{"overbought at 100", map[string]any{"overbought": 100}},
		{"zero oversold", map[string]any{"oversold": 0}},
		{"exit threshold out of range", map[string]any{"exit_threshold": 120}},
		{"unknown key", map[string]any{"lookback": 3}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := NewRSI(tc.params)
			suite.True(errors.IsConfigurationError(err), "got %v", err)
		})
	}
}

func (suite *StrategyTestSuite) TestBollingerSignals() {
	provider, err := NewBollinger(map[string]any{"period": 10, "std_dev": 2.0})
	suite.Require().NoError(err)

	tests := []struct {
		name      string
		closes    []float64
		direction types.Direction
		exit      bool
	}{
		{"below lower band", append(repeat(10, 9), 7), types.DirectionLong, false},
		{"above upper band", append(repeat(10, 9), 13), types.DirectionShort, false},
		{"near middle band", []float64{9, 11, 9, 11, 9, 11, 9, 11, 9, 10}, types.DirectionNone, true},
		{"flat bands never exit", repeat(10, 10), types.DirectionNone, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			signal, err := provider.Evaluate(barsFromCloses(tc.closes...))
			suite.Require().NoError(err)
			suite.Equal(tc.direction, signal.Direction)
			suite.Equal(tc.exit, signal.Exit)
			suite.Contains(signal.Metadata, "upper")
		})
	}
}

func (suite *StrategyTestSuite) TestBollingerValidation() {
	for _, params := range []map[string]any{
		{"period": 1},
		{"std_dev": 0},
		{"exit_threshold": 1},
		{"exit_threshold": 0},
	} {
		_, err := NewBollinger(params)
		suite.True(errors.IsConfigurationError(err), "params %v", params)
	}
}

func (suite *StrategyTestSuite) TestMACDCrossings() {
	provider, err := NewMACD(map[string]any{"fast_period": 3, "slow_period": 6, "signal_period": 3})
	suite.Require().NoError(err)

	cases := []struct {
		name      string
		closes    []float64
		direction types.Direction
		crossed   func(prev, cur float64) bool
	}{
		{
			name:      "falling then rising goes long",
			closes:    vShape(100, 20, -1),
			direction: types.DirectionLong,
			crossed:   func(prev, cur float64) bool { return prev < 0 && cur > 0 },
		},
		{
			name:      "rising then falling goes short",
			closes:    vShape(100, 20, 1),
			direction: types.DirectionShort,
			crossed:   func(prev, cur float64) bool { return prev > 0 && cur < 0 },
		},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			series, err := indicator.MACD(tc.closes, 3, 6, 3)
			suite.Require().NoError(err)

			cross := -1
			for i := provider.WarmupPeriod(); i < len(tc.closes); i++ {
				if tc.crossed(series.Histogram[i-1], series.Histogram[i]) {
					cross = i

					break
				}
			}

			suite.Require().NotEqual(-1, cross)

			signal, err := provider.Evaluate(barsFromCloses(tc.closes[:cross+1]...))
			suite.Require().NoError(err)
			suite.Equal(tc.direction, signal.Direction)
		})
	}
}

func (suite *StrategyTestSuite) TestMACDExitBand() {
	provider, err := NewMACD(map[string]any{"fast_period": 3, "slow_period": 6, "signal_period": 3, "exit_threshold": 100})
	suite.Require().NoError(err)

	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	signal, err := provider.Evaluate(barsFromCloses(closes...))
	suite.Require().NoError(err)
	suite.Equal(types.DirectionNone, signal.Direction)
	suite.True(signal.Exit)
}

func (suite *StrategyTestSuite) TestMACDValidation() {
	_, err := NewMACD(map[string]any{"fast_period": 26, "slow_period": 12})
	suite.True(errors.IsConfigurationError(err))

	_, err = NewMACD(map[string]any{"exit_threshold": -1})
	suite.True(errors.IsConfigurationError(err))
}

func (suite *StrategyTestSuite) TestDefaultRegistry() {
	registry := DefaultRegistry()
	suite.Equal([]string{NameBollinger, NameMACD, NameRSI}, registry.Names())

	_, err := registry.New("ichimoku", nil)
	suite.True(errors.IsUnknownVariantError(err))

	provider, err := registry.New(NameRSI, map[string]any{"oversold": 80})
	suite.Nil(provider)
	suite.True(errors.IsConfigurationError(err))

	schema, err := registry.Schema(NameRSI)
	suite.Require().NoError(err)
	suite.Contains(schema, "oversold")
}

// vShape returns n bars moving by step from start followed by n bars
// moving back by the opposite step.
func vShape(start float64, n int, step float64) []float64 {
	closes := make([]float64, 0, 2*n)
	price := start

	for i := 0; i < n; i++ {
		closes = append(closes, price)
		price += step
	}

	for i := 0; i < n; i++ {
		price -= 2 * step
		closes = append(closes, price)
	}

	return closes
}
