package instrument

import (
	"fmt"
	"math"
	"time"

	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

type OptionType string

const (
	OptionTypeCall OptionType = "C"
	OptionTypePut  OptionType = "P"
)

type ExerciseStyle string

const (
	ExerciseStyleEuropean ExerciseStyle = "european"
	ExerciseStyleAmerican ExerciseStyle = "american"
)

// Option holds the contract terms shared by both exercise styles. Pricing
// volatility comes from the observation's implied volatility when it passes a
// sanity check, otherwise a flat default is used.
type Option struct {
	underlying string
	expiry     time.Time
	strike     float64
	optType    OptionType
	style      ExerciseStyle
}

func newOption(underlying string, expiry time.Time, strike float64, optType OptionType, style ExerciseStyle) (Option, error) {
	if strike <= 0 {
		return Option{}, errors.Newf(errors.ErrCodeInvalidStrike, "strike price must be positive, got %f", strike)
	}

	return Option{
		underlying: underlying,
		expiry:     expiry,
		strike:     strike,
		optType:    optType,
		style:      style,
	}, nil
}

// Symbol implements Instrument. Encodes underlying, type, strike and expiry,
// e.g. "AAPL_C_150_20240419".
func (o *Option) Symbol() string {
	return fmt.Sprintf("%s_%s_%d_%s", o.underlying, o.optType, int(o.strike), o.expiry.Format("20060102"))
}

// Underlying implements Derivative.
func (o *Option) Underlying() string {
	return o.underlying
}

// Expiry implements Derivative.
func (o *Option) Expiry() time.Time {
	return o.expiry
}

// Strike returns the strike price.
func (o *Option) Strike() float64 {
	return o.strike
}

// OptionType returns whether the option is a call or a put.
func (o *Option) OptionType() OptionType {
	return o.optType
}

// Style returns the exercise style.
func (o *Option) Style() ExerciseStyle {
	return o.style
}

// TimeToExpiry returns the remaining life in years, 0 once expired.
func (o *Option) TimeToExpiry(now time.Time) float64 {
	if !now.Before(o.expiry) {
		return 0
	}

	return o.expiry.Sub(now).Hours() / 24 / daysPerYear
}

// pricingVolatility returns the implied volatility from the observation when
// it is in (0, 3], otherwise the flat default.
func (o *Option) pricingVolatility(obs types.Observation) float64 {
	if obs.HasAux(types.AuxImpliedVolatility) {
		iv := obs.GetAux(types.AuxImpliedVolatility)
		if iv > 0 && iv <= maxSaneVolatility {
			return iv
		}
	}

	return defaultVolatility
}

func (o *Option) intrinsicValue(spot float64) float64 {
	if o.optType == OptionTypeCall {
		return math.Max(0, spot-o.strike)
	}

	return math.Max(0, o.strike-spot)
}

// europeanPrice is the Black-Scholes closed form, falling back to intrinsic
// value at or past expiry.
func (o *Option) europeanPrice(obs types.Observation) float64 {
	s := obs.Close
	k := o.strike
	t := o.TimeToExpiry(obs.Time)
	r := riskFreeRate
	sigma := o.pricingVolatility(obs)

	if t <= 0 {
		return o.intrinsicValue(s)
	}

	if sigma <= 0 {
		return 0
	}

	d1 := blackScholesD1(s, k, t, r, sigma)
	d2 := blackScholesD2(s, k, t, r, sigma)

	if o.optType == OptionTypeCall {
		return s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	}

	return k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
}

// Delta implements Derivative.
func (o *Option) Delta(obs types.Observation) float64 {
	t := o.TimeToExpiry(obs.Time)
	if t <= 0 {
		return 0
	}

	d1 := blackScholesD1(obs.Close, o.strike, t, riskFreeRate, o.pricingVolatility(obs))

	if o.optType == OptionTypeCall {
		return normCDF(d1)
	}

	return normCDF(d1) - 1
}

// Gamma implements Derivative.
func (o *Option) Gamma(obs types.Observation) float64 {
	t := o.TimeToExpiry(obs.Time)
	sigma := o.pricingVolatility(obs)

	if t <= 0 || sigma <= 0 {
		return 0
	}

	d1 := blackScholesD1(obs.Close, o.strike, t, riskFreeRate, sigma)

	return normPDF(d1) / (obs.Close * sigma * math.Sqrt(t))
}

// Vega implements Derivative. Scaled to a one-point volatility move.
func (o *Option) Vega(obs types.Observation) float64 {
	t := o.TimeToExpiry(obs.Time)
	if t <= 0 {
		return 0
	}

	d1 := blackScholesD1(obs.Close, o.strike, t, riskFreeRate, o.pricingVolatility(obs))

	return obs.Close * normPDF(d1) * math.Sqrt(t) / 100
}

// Theta implements Derivative. Expressed per calendar day.
func (o *Option) Theta(obs types.Observation) float64 {
	s := obs.Close
	k := o.strike
	t := o.TimeToExpiry(obs.Time)
	r := riskFreeRate
	sigma := o.pricingVolatility(obs)

	if t <= 0 {
		return 0
	}

	d1 := blackScholesD1(s, k, t, r, sigma)
	d2 := blackScholesD2(s, k, t, r, sigma)

	term1 := -(s * normPDF(d1) * sigma) / (2 * math.Sqrt(t))

	if o.optType == OptionTypeCall {
		return (term1 - r*k*math.Exp(-r*t)*normCDF(d2)) / 365
	}

	return (term1 + r*k*math.Exp(-r*t)*normCDF(-d2)) / 365
}

// Rho implements Derivative. Scaled to a one-point rate move.
func (o *Option) Rho(obs types.Observation) float64 {
	k := o.strike
	t := o.TimeToExpiry(obs.Time)
	r := riskFreeRate

	if t <= 0 {
		return 0
	}

	d2 := blackScholesD2(obs.Close, k, t, r, o.pricingVolatility(obs))

	if o.optType == OptionTypeCall {
		return k * t * math.Exp(-r*t) * normCDF(d2) / 100
	}

	return -k * t * math.Exp(-r*t) * normCDF(-d2) / 100
}

// EuropeanOption prices with the Black-Scholes closed form.
type EuropeanOption struct {
	Option
}

// NewEuropeanOption creates a European option contract.
func NewEuropeanOption(underlying string, expiry time.Time, strike float64, optType OptionType) (*EuropeanOption, error) {
	opt, err := newOption(underlying, expiry, strike, optType, ExerciseStyleEuropean)
	if err != nil {
		return nil, err
	}

	return &EuropeanOption{Option: opt}, nil
}

// NewEuropeanCall creates an at-the-money style European call.
func NewEuropeanCall(underlying string, expiry time.Time, strike float64) (*EuropeanOption, error) {
	return NewEuropeanOption(underlying, expiry, strike, OptionTypeCall)
}

// Price implements Instrument.
func (o *EuropeanOption) Price(obs types.Observation) float64 {
	return o.europeanPrice(obs)
}

// Clone implements Instrument.
func (o *EuropeanOption) Clone() Instrument {
	clone := *o

	return &clone
}

// AmericanOption approximates the early-exercise premium as the maximum of
// the European value and the intrinsic value.
type AmericanOption struct {
	Option
}

// NewAmericanOption creates an American option contract.
func NewAmericanOption(underlying string, expiry time.Time, strike float64, optType OptionType) (*AmericanOption, error) {
	opt, err := newOption(underlying, expiry, strike, optType, ExerciseStyleAmerican)
	if err != nil {
		return nil, err
	}

	return &AmericanOption{Option: opt}, nil
}

// Price implements Instrument.
func (o *AmericanOption) Price(obs types.Observation) float64 {
	european := o.europeanPrice(obs)

	return math.Max(european, o.intrinsicValue(obs.Close))
}

// Clone implements Instrument.
func (o *AmericanOption) Clone() Instrument {
	clone := *o

	return &clone
}
