package cost

import "math"

// PerTradePercentage charges a fixed amount per trade plus a percentage of
// the gross trade value.
type PerTradePercentage struct {
	perTrade   float64
	percentage float64
}

// NewPerTradePercentage creates the combined fixed-plus-percentage model.
func NewPerTradePercentage(perTrade, percentage float64) Model {
	return &PerTradePercentage{
		perTrade:   perTrade,
		percentage: percentage,
	}
}

// Calculate implements Model.
func (c *PerTradePercentage) Calculate(quantity, price float64) float64 {
	gross := math.Abs(quantity) * price

	return c.perTrade + gross*c.percentage
}
