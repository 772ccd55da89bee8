package commission

type Zero struct{}

func NewZero() Fee {
	return &Zero{}
}

func (c *Zero) Calculate(_, _ float64) float64 {
	return 0
}
