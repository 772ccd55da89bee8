package indicator

// EMASeries returns the exponential moving average of values for every
// index. The series is seeded with the first value and uses
// alpha = 2/(span+1), so it matches pandas ewm(span, adjust=False).
func EMASeries(values []float64, span int) ([]float64, error) {
	if err := checkPeriod(TypeEMA, span); err != nil {
		return nil, err
	}

	if err := checkLength(TypeEMA, 1, len(values)); err != nil {
		return nil, err
	}

	alpha := 2.0 / float64(span+1)
	series := make([]float64, len(values))
	series[0] = values[0]

	for i := 1; i < len(values); i++ {
		series[i] = values[i]*alpha + series[i-1]*(1-alpha)
	}

	return series, nil
}

// EMA returns the last value of EMASeries.
func EMA(values []float64, span int) (float64, error) {
	series, err := EMASeries(values, span)
	if err != nil {
		return 0, err
	}

	return series[len(series)-1], nil
}
