package strategy

import (
	"math"

	"github.com/quantfold/volarb/internal/types"
)

// Sizer decides the absolute quantity to open for an actionable signal.
// Implementations must be stateless; the strategy caps the result at its
// max-risk-per-trade fraction of available cash.
type Sizer interface {
	Size(sig types.Signal, price, availableCash float64) float64
}

// FixedQuantity always opens the same number of units.
type FixedQuantity struct {
	Quantity float64
}

// Size implements Sizer.
func (s FixedQuantity) Size(sig types.Signal, price, availableCash float64) float64 {
	return s.Quantity
}

// RiskFraction spends a fixed fraction of available cash, scaled by signal
// strength and rounded down to whole units.
type RiskFraction struct {
	Fraction float64
}

// Size implements Sizer.
func (s RiskFraction) Size(sig types.Signal, price, availableCash float64) float64 {
	if price <= 0 {
		return 0
	}

	budget := availableCash * s.Fraction * sig.Strength

	return math.Floor(budget / price)
}
