package indicator

// Bands holds one Bollinger Bands reading.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Width is the distance between the outer bands.
func (b Bands) Width() float64 {
	return b.Upper - b.Lower
}

// BollingerBands computes the bands over the last period closes with the
// middle band as SMA and the outer bands stdDev sample deviations away.
func BollingerBands(closes []float64, period int, stdDev float64) (Bands, error) {
	middle, err := SMA(closes, period)
	if err != nil {
		return Bands{}, err
	}

	deviation, err := StdDev(closes, period)
	if err != nil {
		return Bands{}, err
	}

	return Bands{
		Upper:  middle + stdDev*deviation,
		Middle: middle,
		Lower:  middle - stdDev*deviation,
	}, nil
}
