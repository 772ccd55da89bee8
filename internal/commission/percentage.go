package commission

import "math"

// Percentage charges a fixed fraction of the filled notional.
type Percentage struct {
	rate float64
}

func NewPercentage(rate float64) Fee {
	return &Percentage{rate: rate}
}

func (c *Percentage) Calculate(quantity, price float64) float64 {
	return math.Abs(quantity*price) * c.rate
}
