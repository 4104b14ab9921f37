package volatility

import (
	"math"

	"github.com/quantfold/volarb/pkg/errors"
)

// minCalibrationObservations is the fewest returns accepted for calibration.
const minCalibrationObservations = 10

// GARCH is a GARCH(1,1) conditional variance model. Calibration uses a
// moment-matching fit off the unconditional variance rather than full
// maximum likelihood.
type GARCH struct {
	omega        float64
	alpha        float64
	beta         float64
	lastVariance float64
	longRunVar   float64
	calibrated   bool
}

// NewGARCH creates an uncalibrated GARCH(1,1) model.
func NewGARCH() *GARCH {
	return &GARCH{}
}

// NewGARCHWithParameters creates a model with fixed parameters, marked as
// calibrated. The last conditional variance starts at the long-run level.
func NewGARCHWithParameters(omega, alpha, beta float64) (*GARCH, error) {
	if omega <= 0 || alpha < 0 || beta < 0 || alpha+beta >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"invalid GARCH parameters omega=%f alpha=%f beta=%f", omega, alpha, beta)
	}

	longRun := omega / (1 - alpha - beta)

	return &GARCH{
		omega:        omega,
		alpha:        alpha,
		beta:         beta,
		lastVariance: longRun,
		longRunVar:   longRun,
		calibrated:   true,
	}, nil
}

// Calibrate implements Forecaster.
func (g *GARCH) Calibrate(returns []float64) error {
	if len(returns) < minCalibrationObservations {
		return errors.Newf(errors.ErrCodeInsufficientData,
			"need at least %d observations for GARCH calibration, got %d",
			minCalibrationObservations, len(returns))
	}

	unconditional := variance(returns)
	if unconditional <= 0 {
		return errors.New(errors.ErrCodeModelCalibration, "return series has zero variance")
	}

	g.omega = unconditional * 0.1
	g.alpha = 0.1
	g.beta = 0.8

	if g.alpha+g.beta >= 1 {
		g.alpha = 0.05
		g.beta = 0.9
	}

	g.longRunVar = g.omega / (1 - g.alpha - g.beta)

	// Filter the conditional variance through the sample to seed the forecast.
	g.lastVariance = unconditional
	for _, r := range returns {
		g.lastVariance = g.omega + g.alpha*r*r + g.beta*g.lastVariance
	}

	g.calibrated = true

	return nil
}

// Forecast implements Forecaster. The h-step variance mean-reverts to the
// long-run level at rate alpha+beta.
func (g *GARCH) Forecast(horizon int) (float64, error) {
	if !g.calibrated {
		return 0, errors.New(errors.ErrCodeModelNotCalibrated, "GARCH model must be calibrated before forecasting")
	}

	if horizon <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidHorizon, "horizon must be positive, got %d", horizon)
	}

	persistence := g.alpha + g.beta
	forecast := g.longRunVar + math.Pow(persistence, float64(horizon))*(g.lastVariance-g.longRunVar)

	return math.Sqrt(forecast), nil
}

// Name implements Forecaster.
func (g *GARCH) Name() string {
	return "GARCH(1,1)"
}

// Parameters implements Forecaster.
func (g *GARCH) Parameters() map[string]float64 {
	return map[string]float64{
		"omega":             g.omega,
		"alpha":             g.alpha,
		"beta":              g.beta,
		"long_run_variance": g.longRunVar,
		"last_variance":     g.lastVariance,
	}
}

// Clone implements Forecaster.
func (g *GARCH) Clone() Forecaster {
	clone := *g

	return &clone
}
