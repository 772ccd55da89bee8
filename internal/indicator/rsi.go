package indicator

// RSI returns the relative strength index of the last period close-to-close
// changes, using simple averages of gains and losses. It needs period+1
// closes. A window without losses reads 100, a flat window reads 50.
func RSI(closes []float64, period int) (float64, error) {
	if err := checkPeriod(TypeRSI, period); err != nil {
		return 0, err
	}

	if err := checkLength(TypeRSI, period+1, len(closes)); err != nil {
		return 0, err
	}

	var gains, losses float64

	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50, nil
	case avgLoss == 0:
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}
