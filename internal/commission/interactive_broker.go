package commission

import "math"

const (
	interactiveBrokerPerShare = 0.005
	interactiveBrokerMinimum  = 1.0
)

// InteractiveBroker charges per unit with a minimum per order.
type InteractiveBroker struct{}

func NewInteractiveBroker() Fee {
	return &InteractiveBroker{}
}

func (c *InteractiveBroker) Calculate(quantity, _ float64) float64 {
	return math.Max(interactiveBrokerMinimum, interactiveBrokerPerShare*math.Abs(quantity))
}
