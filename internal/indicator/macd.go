package indicator

import "github.com/rxtech-lab/argo-consensus/pkg/errors"

// MACDSeries holds the MACD line, its signal line and the histogram for
// every index of the input.
type MACDSeries struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes fast EMA minus slow EMA, the signal EMA of that line and
// their difference.
func MACD(closes []float64, fast, slow, signal int) (MACDSeries, error) {
	for _, period := range []int{fast, slow, signal} {
		if err := checkPeriod(TypeMACD, period); err != nil {
			return MACDSeries{}, err
		}
	}

	if fast >= slow {
		return MACDSeries{}, errors.Newf(errors.ErrCodeInvalidPeriod, "macd fast period %d must be below slow period %d", fast, slow)
	}

	fastEMA, err := EMASeries(closes, fast)
	if err != nil {
		return MACDSeries{}, err
	}

	slowEMA, err := EMASeries(closes, slow)
	if err != nil {
		return MACDSeries{}, err
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := EMASeries(line, signal)
	if err != nil {
		return MACDSeries{}, err
	}

	histogram := make([]float64, len(closes))
	for i := range line {
		histogram[i] = line[i] - signalLine[i]
	}

	return MACDSeries{MACD: line, Signal: signalLine, Histogram: histogram}, nil
}
