// Package signal generates trading signals by comparing forecast volatility
// against market-implied volatility.
package signal

import (
	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/internal/volatility"
)

// Generator emits a Signal for an instrument given a volatility forecaster
// and the current observation.
type Generator interface {
	Generate(inst instrument.Instrument, forecaster volatility.Forecaster, obs types.Observation) types.Signal
	// Clone returns a deep copy of the generator.
	Clone() Generator
}
