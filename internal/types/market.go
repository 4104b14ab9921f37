package types

import "time"

// AuxImpliedVolatility is the auxiliary field key carrying the market-implied
// volatility for the observed underlying, as a decimal fraction (0.25 = 25%).
const AuxImpliedVolatility = "implied_volatility"

// Observation is an immutable snapshot of one instrument at one timestamp.
// Identity is (Symbol, Time).
type Observation struct {
	Symbol string    `csv:"symbol"`
	Time   time.Time `csv:"time"`
	Open   float64   `csv:"open"`
	High   float64   `csv:"high"`
	Low    float64   `csv:"low"`
	Close  float64   `csv:"close"`
	Volume float64   `csv:"volume"`
	// Aux holds keyed auxiliary numeric fields such as implied volatility.
	Aux map[string]float64 `csv:"-"`
}

// HasAux reports whether the auxiliary field with the given key is present.
func (o Observation) HasAux(key string) bool {
	_, ok := o.Aux[key]

	return ok
}

// GetAux returns the auxiliary field with the given key, or 0 if absent.
func (o Observation) GetAux(key string) float64 {
	return o.Aux[key]
}

// WithAux returns a copy of the observation with the auxiliary field set.
// The receiver is left untouched.
func (o Observation) WithAux(key string, value float64) Observation {
	aux := make(map[string]float64, len(o.Aux)+1)
	for k, v := range o.Aux {
		aux[k] = v
	}

	aux[key] = value
	o.Aux = aux

	return o
}
