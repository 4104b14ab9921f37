// Package instrument provides priceable financial instruments. Equities price
// directly off the observed close; options price with the Black-Scholes model
// and expose their risk sensitivities.
package instrument

import (
	"time"

	"github.com/quantfold/volarb/internal/types"
)

// Instrument is a priceable object. Implementations must be safe to deep-copy
// via Clone so positions can own their instrument exclusively.
type Instrument interface {
	// Symbol returns the unique instrument identifier.
	Symbol() string
	// Price values the instrument against the given observation.
	Price(obs types.Observation) float64
	// Clone returns a deep copy of the instrument.
	Clone() Instrument
}

// Derivative is an instrument with a finite life and defined risk
// sensitivities against its underlying.
type Derivative interface {
	Instrument

	// Underlying returns the symbol of the underlying instrument.
	Underlying() string
	// Expiry returns the expiration timestamp.
	Expiry() time.Time

	Delta(obs types.Observation) float64
	Gamma(obs types.Observation) float64
	Vega(obs types.Observation) float64
	Theta(obs types.Observation) float64
	Rho(obs types.Observation) float64
}

// UnderlyingOf returns the symbol whose observations price the instrument:
// the underlying for derivatives, the instrument's own symbol otherwise.
func UnderlyingOf(inst Instrument) string {
	if deriv, ok := inst.(Derivative); ok {
		return deriv.Underlying()
	}

	return inst.Symbol()
}
