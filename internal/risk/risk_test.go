package risk

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RiskTestSuite struct {
	suite.Suite
}

func TestRiskSuite(t *testing.T) {
	suite.Run(t, new(RiskTestSuite))
}

func (suite *RiskTestSuite) TestSize() {
	policy, err := NewFixed(nil)
	suite.Require().NoError(err)

	tests := []struct {
		name     string
		capital  float64
		entry    float64
		stop     float64
		expected float64
	}{
		{"long stop below", 10000, 100, 95, 40},
		{"short stop above", 10000, 100, 105, 40},
		{"zero distance", 10000, 100, 100, 0},
		{"no capital", 0, 100, 95, 0},
		{"negative capital", -50, 100, 95, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, policy.Size(tc.capital, tc.entry, tc.stop), 1e-9)
		})
	}
}

func (suite *RiskTestSuite) TestFixedStopAndTarget() {
	policy, err := NewFixed(nil)
	suite.Require().NoError(err)

	stop, target := policy.StopAndTarget(100, types.DirectionLong, optional.Some(2.0))
	suite.InDelta(98, stop, 1e-9)
	suite.InDelta(104, target, 1e-9)

	stop, target = policy.StopAndTarget(100, types.DirectionShort, optional.Some(2.0))
	suite.InDelta(102, stop, 1e-9)
	suite.InDelta(96, target, 1e-9)

	// no volatility: 1% of entry
	stop, target = policy.StopAndTarget(200, types.DirectionLong, optional.None[float64]())
	suite.InDelta(198, stop, 1e-9)
	suite.InDelta(204, target, 1e-9)
}

func (suite *RiskTestSuite) TestATRStopAndTarget() {
	policy, err := NewATR(map[string]any{"atr_multiplier": 1.5, "risk_reward_ratio": 3})
	suite.Require().NoError(err)

	stop, target := policy.StopAndTarget(100, types.DirectionLong, optional.Some(2.0))
	suite.InDelta(97, stop, 1e-9)
	suite.InDelta(109, target, 1e-9)

	stop, target = policy.StopAndTarget(100, types.DirectionShort, optional.None[float64]())
	suite.InDelta(101, stop, 1e-9)
	suite.InDelta(97, target, 1e-9)
}

func (suite *RiskTestSuite) TestBasicStopAndTarget() {
	policy, err := NewBasic(nil)
	suite.Require().NoError(err)

	// volatility is ignored
	stop, target := policy.StopAndTarget(100, types.DirectionLong, optional.Some(10.0))
	suite.InDelta(98, stop, 1e-9)
	suite.InDelta(104, target, 1e-9)

	stop, target = policy.StopAndTarget(100, types.DirectionShort, optional.None[float64]())
	suite.InDelta(102, stop, 1e-9)
	suite.InDelta(96, target, 1e-9)
}

func (suite *RiskTestSuite) TestStopLossScenario() {
	policy, err := NewFixed(nil)
	suite.Require().NoError(err)

	closed, reason := policy.ShouldClose(CloseInput{
		Direction:    types.DirectionLong,
		EntryPrice:   100,
		CurrentPrice: 94,
		StopLoss:     95,
		TakeProfit:   110,
		BestPrice:    100,
	})
	suite.True(closed)
	suite.Equal(types.ExitReasonStopLoss, reason)
}

func (suite *RiskTestSuite) TestShouldClose() {
	policy, err := NewFixed(map[string]any{"max_holding_minutes": 60})
	suite.Require().NoError(err)

	long := CloseInput{Direction: types.DirectionLong, EntryPrice: 100, StopLoss: 95, TakeProfit: 110}
	short := CloseInput{Direction: types.DirectionShort, EntryPrice: 100, StopLoss: 105, TakeProfit: 90}

	with := func(in CloseInput, price float64, held time.Duration) CloseInput {
		in.CurrentPrice = price
		in.HoldingPeriod = held
		return in
	}

	tests := []struct {
		name   string
		in     CloseInput
		closed bool
		reason types.ExitReason
	}{
		{"long holds", with(long, 101, time.Minute), false, ""},
		{"long stop touched", with(long, 95, time.Minute), true, types.ExitReasonStopLoss},
		{"long target", with(long, 111, time.Minute), true, types.ExitReasonTakeProfit},
		{"short holds", with(short, 99, time.Minute), false, ""},
		{"short stop", with(short, 106, time.Minute), true, types.ExitReasonStopLoss},
		{"short target", with(short, 90, time.Minute), true, types.ExitReasonTakeProfit},
		// holding period is checked before the stop
		{"holding limit first", with(long, 94, time.Hour), true, types.ExitReasonMaxHoldingPeriod},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			closed, reason := policy.ShouldClose(tc.in)
			suite.Equal(tc.closed, closed)
			suite.Equal(tc.reason, reason)
		})
	}
}

func (suite *RiskTestSuite) TestHoldingLimitOff() {
	policy, err := NewATR(nil)
	suite.Require().NoError(err)

	closed, _ := policy.ShouldClose(CloseInput{
		Direction:     types.DirectionLong,
		EntryPrice:    100,
		CurrentPrice:  100,
		StopLoss:      90,
		TakeProfit:    120,
		HoldingPeriod: 30 * 24 * time.Hour,
	})
	suite.False(closed)
}

func (suite *RiskTestSuite) TestBasicTrailingStop() {
	policy, err := NewBasic(map[string]any{"trailing_stop_pct": 1, "stop_loss_pct": 5})
	suite.Require().NoError(err)

	tests := []struct {
		name   string
		in     CloseInput
		closed bool
	}{
		{
			"long retraced past trail",
			CloseInput{Direction: types.DirectionLong, EntryPrice: 100, CurrentPrice: 102.9, StopLoss: 95, TakeProfit: 110, BestPrice: 104},
			true,
		},
		{
			"long within trail",
			CloseInput{Direction: types.DirectionLong, EntryPrice: 100, CurrentPrice: 103.5, StopLoss: 95, TakeProfit: 110, BestPrice: 104},
			false,
		},
		{
			"long trail not armed",
			CloseInput{Direction: types.DirectionLong, EntryPrice: 100, CurrentPrice: 98, StopLoss: 95, TakeProfit: 110, BestPrice: 100},
			false,
		},
		{
			"short retraced past trail",
			CloseInput{Direction: types.DirectionShort, EntryPrice: 100, CurrentPrice: 97.5, StopLoss: 105, TakeProfit: 90, BestPrice: 96},
			true,
		},
		{
			"short within trail",
			CloseInput{Direction: types.DirectionShort, EntryPrice: 100, CurrentPrice: 96.5, StopLoss: 105, TakeProfit: 90, BestPrice: 96},
			false,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			closed, reason := policy.ShouldClose(tc.in)
			suite.Equal(tc.closed, closed)
			if tc.closed {
				suite.Equal(types.ExitReasonTrailingStop, reason)
			}
		})
	}
}

func (suite *RiskTestSuite) TestBasicWithoutTrail() {
	policy, err := NewBasic(nil)
	suite.Require().NoError(err)
	suite.Nil(policy.Config().TrailingStopPct)

	closed, _ := policy.ShouldClose(CloseInput{
		Direction: types.DirectionLong, EntryPrice: 100, CurrentPrice: 99, StopLoss: 98, TakeProfit: 104, BestPrice: 103.9,
	})
	suite.False(closed)

	// default holding limit is one day
	closed, reason := policy.ShouldClose(CloseInput{
		Direction: types.DirectionLong, EntryPrice: 100, CurrentPrice: 100, StopLoss: 98, TakeProfit: 104, HoldingPeriod: 24 * time.Hour,
	})
	suite.True(closed)
	suite.Equal(types.ExitReasonMaxHoldingPeriod, reason)
}

func (suite *RiskTestSuite) TestATRAdjustStop() {
	policy, err := NewATR(nil)
	suite.Require().NoError(err)

	var _ StopAdjuster = policy

	long := types.Position{Direction: types.DirectionLong, EntryPrice: 100, Size: 1, Leverage: 1, StopLoss: 96}

	suite.True(policy.AdjustStop(long, 99).IsNone(), "losing position keeps its stop")
	suite.True(policy.AdjustStop(long, 100).IsNone(), "flat position keeps its stop")

	stop := policy.AdjustStop(long, 102)
	suite.True(stop.IsSome())
	suite.InDelta(100, stop.Unwrap(), 1e-9)

	// already at breakeven: nothing to tighten
	long.StopLoss = 100
	suite.True(policy.AdjustStop(long, 105).IsNone())

	short := types.Position{Direction: types.DirectionShort, EntryPrice: 100, Size: 1, Leverage: 1, StopLoss: 104}
	suite.True(policy.AdjustStop(short, 101).IsNone())

	stop = policy.AdjustStop(short, 97)
	suite.True(stop.IsSome())
	suite.InDelta(100, stop.Unwrap(), 1e-9)
}

func (suite *RiskTestSuite) TestOnlyATRAdjusts() {
	fixed, err := NewFixed(nil)
	suite.Require().NoError(err)
	basic, err := NewBasic(nil)
	suite.Require().NoError(err)

	var policy Policy = fixed
	_, ok := policy.(StopAdjuster)
	suite.False(ok)

	policy = basic
	_, ok = policy.(StopAdjuster)
	suite.False(ok)
}

func (suite *RiskTestSuite) TestValidation() {
	tests := []struct {
		name   string
		build  func() error
		decode bool
	}{
		{"fixed risk too large", func() error { _, err := NewFixed(map[string]any{"risk_per_trade": 0.2}); return err }, false},
		{"fixed risk zero", func() error { _, err := NewFixed(map[string]any{"risk_per_trade": 0}); return err }, false},
		{"fixed leverage below one", func() error { _, err := NewFixed(map[string]any{"leverage": 0.5}); return err }, false},
		{"atr multiplier zero", func() error { _, err := NewATR(map[string]any{"atr_multiplier": 0}); return err }, false},
		{"atr negative reward", func() error { _, err := NewATR(map[string]any{"risk_reward_ratio": -1}); return err }, false},
		{"basic stop pct", func() error { _, err := NewBasic(map[string]any{"stop_loss_pct": 0}); return err }, false},
		{"basic trailing pct", func() error { _, err := NewBasic(map[string]any{"trailing_stop_pct": -1}); return err }, false},
		{"basic holding", func() error { _, err := NewBasic(map[string]any{"max_holding_minutes": 0}); return err }, false},
		{"unknown key", func() error { _, err := NewFixed(map[string]any{"stop": 1}); return err }, true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.build()
			suite.Error(err)
			suite.True(errors.IsConfigurationError(err))
			if tc.decode {
				suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
			} else {
				suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
			}
		})
	}
}

func (suite *RiskTestSuite) TestWeaklyTypedParams() {
	policy, err := NewFixed(map[string]any{"risk_per_trade": "0.05", "leverage": 3})
	suite.Require().NoError(err)
	suite.InDelta(0.05, policy.RiskFraction(), 1e-9)
	suite.InDelta(3, policy.Leverage(), 1e-9)
}

func (suite *RiskTestSuite) TestRegistry() {
	registry := DefaultRegistry()
	suite.Equal([]string{NameATR, NameBasic, NameFixed}, registry.Names())

	policy, err := registry.New(NameBasic, map[string]any{"trailing_stop_pct": 1.5})
	suite.Require().NoError(err)
	suite.Equal(NameBasic, policy.Name())

	_, err = registry.New("kelly", nil)
	suite.True(errors.IsUnknownVariantError(err))

	_, err = registry.New(NameFixed, map[string]any{"risk_per_trade": 1})
	suite.True(errors.IsConfigurationError(err))

	schema, err := registry.Schema(NameATR)
	suite.Require().NoError(err)
	suite.Contains(schema, "atr_multiplier")
}
