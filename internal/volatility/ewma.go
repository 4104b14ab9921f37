package volatility

import (
	"math"

	"github.com/quantfold/volarb/pkg/errors"
)

// defaultEWMALambda is the RiskMetrics daily decay factor.
const defaultEWMALambda = 0.94

// EWMA is an exponentially weighted moving average variance model. Its
// forecast is flat across horizons.
type EWMA struct {
	lambda     float64
	variance   float64
	calibrated bool
}

// NewEWMA creates an EWMA model with the RiskMetrics decay factor.
func NewEWMA() *EWMA {
	return &EWMA{lambda: defaultEWMALambda}
}

// NewEWMAWithLambda creates an EWMA model with a custom decay factor in (0,1).
func NewEWMAWithLambda(lambda float64) (*EWMA, error) {
	if lambda <= 0 || lambda >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "lambda must be in (0,1), got %f", lambda)
	}

	return &EWMA{lambda: lambda}, nil
}

// Calibrate implements Forecaster.
func (e *EWMA) Calibrate(returns []float64) error {
	if len(returns) < minCalibrationObservations {
		return errors.Newf(errors.ErrCodeInsufficientData,
			"need at least %d observations for EWMA calibration, got %d",
			minCalibrationObservations, len(returns))
	}

	e.variance = variance(returns)
	for _, r := range returns {
		e.variance = e.lambda*e.variance + (1-e.lambda)*r*r
	}

	e.calibrated = true

	return nil
}

// Forecast implements Forecaster.
func (e *EWMA) Forecast(horizon int) (float64, error) {
	if !e.calibrated {
		return 0, errors.New(errors.ErrCodeModelNotCalibrated, "EWMA model must be calibrated before forecasting")
	}

	if horizon <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidHorizon, "horizon must be positive, got %d", horizon)
	}

	return math.Sqrt(e.variance), nil
}

// Name implements Forecaster.
func (e *EWMA) Name() string {
	return "EWMA"
}

// Parameters implements Forecaster.
func (e *EWMA) Parameters() map[string]float64 {
	return map[string]float64{
		"lambda":   e.lambda,
		"variance": e.variance,
	}
}

// Clone implements Forecaster.
func (e *EWMA) Clone() Forecaster {
	clone := *e

	return &clone
}
