package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(TypeSMA, period); err != nil {
		return 0, err
	}

	if err := checkLength(TypeSMA, period, len(values)); err != nil {
		return 0, err
	}

	return mean(values[len(values)-period:]), nil
}

// StdDev returns the sample standard deviation (n-1) of the last period values.
func StdDev(values []float64, period int) (float64, error) {
	if period < 2 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "standard deviation needs a period of at least 2, got %d", period)
	}

	if err := checkLength(TypeSMA, period, len(values)); err != nil {
		return 0, err
	}

	tail := values[len(values)-period:]
	avg := mean(tail)

	var squaredDiffSum float64
	for _, v := range tail {
		diff := v - avg
		squaredDiffSum += diff * diff
	}

	return math.Sqrt(squaredDiffSum / float64(period-1)), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
