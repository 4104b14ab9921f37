package cost

// Zero implements Model with no transaction costs.
type Zero struct{}

// NewZero creates a free-of-charge cost model.
func NewZero() Model {
	return &Zero{}
}

// Calculate returns 0 for any fill.
func (c *Zero) Calculate(quantity, price float64) float64 {
	return 0.0
}
