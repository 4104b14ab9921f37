// Package volatility provides forward volatility forecasters calibrated on
// historical return series.
package volatility

// Forecaster produces a forward volatility estimate from historical returns.
type Forecaster interface {
	// Calibrate fits the model to a series of period returns.
	Calibrate(returns []float64) error
	// Forecast returns the volatility (standard deviation, per-period terms)
	// expected over the given horizon in periods.
	Forecast(horizon int) (float64, error)
	// Name identifies the model.
	Name() string
	// Parameters returns the fitted model parameters.
	Parameters() map[string]float64
	// Clone returns a deep copy carrying the calibrated state.
	Clone() Forecaster
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return sum / float64(len(values)-1)
}
