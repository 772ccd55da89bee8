package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestSMA() {
	value, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	suite.Require().NoError(err)
	suite.InDelta(4.0, value, 1e-9)

	_, err = SMA([]float64{1, 2}, 3)
	suite.True(errors.IsInsufficientDataError(err))

	_, err = SMA([]float64{1, 2}, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *IndicatorTestSuite) TestStdDevIsSample() {
	// sample deviation of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	value, err := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	suite.Require().NoError(err)
	suite.InDelta(math.Sqrt(32.0/7.0), value, 1e-9)

	_, err = StdDev([]float64{1, 2}, 1)
	suite.Error(err)
}

func (suite *IndicatorTestSuite) TestEMASeries() {
	series, err := EMASeries([]float64{10, 11, 12}, 3)
	suite.Require().NoError(err)

	// alpha = 0.5, seeded with the first value
	suite.Equal([]float64{10, 10.5, 11.25}, series)

	last, err := EMA([]float64{10, 11, 12}, 3)
	suite.Require().NoError(err)
	suite.Equal(11.25, last)

	_, err = EMASeries(nil, 3)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestRSI() {
	tests := []struct {
		name     string
		closes   []float64
		period   int
		expected float64
	}{
		{"only gains", []float64{1, 2, 3, 4, 5}, 4, 100},
		{"only losses", []float64{5, 4, 3, 2, 1}, 4, 0},
		{"flat", []float64{3, 3, 3, 3, 3}, 4, 50},
		// gains 2+2 = 4, losses 1+1 = 2 over 4 changes: rs = 2
		{"mixed", []float64{10, 12, 11, 13, 12}, 4, 100 - 100/3.0},
		// only the last period changes count
		{"uses tail", []float64{100, 1, 2, 3, 4, 5}, 4, 100},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			value, err := RSI(tc.closes, tc.period)
			suite.Require().NoError(err)
			suite.InDelta(tc.expected, value, 1e-9)
		})
	}

	_, err := RSI([]float64{1, 2, 3, 4}, 4)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestBollingerBands() {
	closes := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	bands, err := BollingerBands(closes, 8, 2)
	suite.Require().NoError(err)

	deviation := math.Sqrt(32.0 / 7.0)
	suite.InDelta(5.0, bands.Middle, 1e-9)
	suite.InDelta(5+2*deviation, bands.Upper, 1e-9)
	suite.InDelta(5-2*deviation, bands.Lower, 1e-9)
	suite.InDelta(4*deviation, bands.Width(), 1e-9)

	_, err = BollingerBands(closes[:3], 8, 2)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestMACD() {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	series, err := MACD(closes, 3, 6, 4)
	suite.Require().NoError(err)
	suite.Len(series.Histogram, len(closes))

	// a steady uptrend keeps the fast average above the slow one
	suite.Greater(series.MACD[len(closes)-1], 0.0)

	for i := range closes {
		suite.InDelta(series.MACD[i]-series.Signal[i], series.Histogram[i], 1e-12)
	}

	_, err = MACD(closes, 6, 3, 4)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *IndicatorTestSuite) TestATR() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	window := []types.Bar{
		{Time: start, High: 11, Low: 9, Close: 10},
		{Time: start.Add(time.Minute), High: 12, Low: 10, Close: 11},
		{Time: start.Add(2 * time.Minute), High: 15, Low: 11, Close: 14},
	}

	// true ranges: max(2, 2, 0) = 2 and max(4, 4, 0) = 4
	value, err := ATR(window, 2)
	suite.Require().NoError(err)
	suite.InDelta(3.0, value, 1e-9)

	// a gap down counts from the previous close
	suite.InDelta(6.0, TrueRange(types.Bar{High: 9, Low: 8}, 14), 1e-9)

	_, err = ATR(window, 3)
	suite.True(errors.IsInsufficientDataError(err))
}
