package consensus

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/stretchr/testify/suite"
)

type ConsensusTestSuite struct {
	suite.Suite
}

func TestConsensusSuite(t *testing.T) {
	suite.Run(t, new(ConsensusTestSuite))
}

func votes(directions ...types.Direction) []types.Signal {
	signals := make([]types.Signal, len(directions))
	for i, d := range directions {
		signals[i] = types.Signal{Direction: d}
	}

	return signals
}

const (
	long  = types.DirectionLong
	short = types.DirectionShort
	none  = types.DirectionNone
)

func (suite *ConsensusTestSuite) TestDecide() {
	tests := []struct {
		name     string
		signals  []types.Signal
		expected types.Direction
	}{
		{"no voters", nil, none},
		{"single long", votes(long), long},
		{"single short", votes(short), short},
		{"single none", votes(none), none},
		{"single zero value", votes(""), none},
		{"single unknown", votes("LONG"), none},
		{"two unknown", votes("buy", "buy"), none},
		{"unknown among three", votes(long, "buy", long), long},
		{"two long", votes(long, long), long},
		{"two short", votes(short, short), short},
		{"two disagree", votes(long, short), none},
		{"two with abstain", votes(long, none), none},
		{"long short long", votes(long, short, long), long},
		{"three split with abstain", votes(long, short, none), none},
		{"one of three", votes(long, none, none), none},
		{"four tie", votes(long, long, short, short), none},
		{"half of four", votes(long, long, none, none), none},
		{"three of four", votes(short, short, short, long), short},
		{"three of five", votes(long, long, long, short, short), long},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, Decide(tc.signals))
		})
	}
}

func (suite *ConsensusTestSuite) TestMonotoneAgreement() {
	for n := 1; n <= 7; n++ {
		all := make([]types.Direction, n)
		for i := range all {
			all[i] = long
		}
		suite.Equal(long, Decide(votes(all...)), "n=%d", n)

		for i := range all {
			all[i] = short
		}
		suite.Equal(short, Decide(votes(all...)), "n=%d", n)
	}
}

func (suite *ConsensusTestSuite) TestCount() {
	l, s := Count(votes(long, short, none, long))
	suite.Equal(2, l)
	suite.Equal(1, s)
}

func (suite *ConsensusTestSuite) TestEntryHints() {
	signals := []types.Signal{
		{Direction: short, EntryPrice: optional.Some(99.0)},
		{Direction: long, EntryPrice: optional.Some(100.0), Volatility: optional.Some(1.5)},
		{Direction: long, EntryPrice: optional.Some(101.0), Volatility: optional.Some(3.0)},
	}

	entry, volatility := EntryHints(signals, long)
	suite.Equal(100.0, entry.Unwrap())
	suite.Equal(1.5, volatility.Unwrap())

	entry, volatility = EntryHints(signals, short)
	suite.Equal(99.0, entry.Unwrap())
	suite.True(volatility.IsNone())

	entry, _ = EntryHints(signals, none)
	suite.True(entry.IsNone())

	entry, _ = EntryHints(votes(long), short)
	suite.True(entry.IsNone())
}

func (suite *ConsensusTestSuite) TestAnyExit() {
	suite.False(AnyExit(nil))
	suite.False(AnyExit(votes(long, none)))
	suite.True(AnyExit([]types.Signal{{Direction: none}, {Direction: none, Exit: true}}))
}
