package instrument

import "math"

const (
	// riskFreeRate is the flat annual risk-free rate used for pricing.
	riskFreeRate = 0.05
	// defaultVolatility is used when no usable implied volatility is observed.
	defaultVolatility = 0.20
	// maxSaneVolatility caps implied volatility at 300% before falling back.
	maxSaneVolatility = 3.0
	// daysPerYear converts calendar durations to year fractions.
	daysPerYear = 365.25
)

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func blackScholesD1(s, k, t, r, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return 0
	}

	return (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

func blackScholesD2(s, k, t, r, sigma float64) float64 {
	return blackScholesD1(s, k, t, r, sigma) - sigma*math.Sqrt(t)
}
