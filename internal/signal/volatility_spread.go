package signal

import (
	"math"

	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/internal/volatility"
)

const (
	// DefaultEntryThreshold is the volatility spread that opens a trade.
	DefaultEntryThreshold = 0.1
	// DefaultExitThreshold is the spread below which options trade at fair value.
	DefaultExitThreshold = 0.05
)

// VolatilitySpread signals on the gap between market-implied and forecast
// volatility: rich implieds are sold, cheap implieds are bought. Only options
// with an observed implied volatility produce actionable signals.
type VolatilitySpread struct {
	entryThreshold float64
	exitThreshold  float64
}

// NewVolatilitySpread creates a generator with the given entry/exit spread
// thresholds.
func NewVolatilitySpread(entryThreshold, exitThreshold float64) *VolatilitySpread {
	return &VolatilitySpread{
		entryThreshold: entryThreshold,
		exitThreshold:  exitThreshold,
	}
}

// EntryThreshold returns the spread magnitude required to enter.
func (v *VolatilitySpread) EntryThreshold() float64 {
	return v.entryThreshold
}

// ExitThreshold returns the spread magnitude treated as fair value.
func (v *VolatilitySpread) ExitThreshold() float64 {
	return v.exitThreshold
}

// Generate implements Generator.
func (v *VolatilitySpread) Generate(inst instrument.Instrument, forecaster volatility.Forecaster, obs types.Observation) types.Signal {
	hold := types.NewSignal(types.SignalTypeHold, 0, inst.Symbol(), obs.Time)

	// Only derivatives carry a volatility exposure worth trading.
	if _, ok := inst.(instrument.Derivative); !ok {
		return hold
	}

	if !obs.HasAux(types.AuxImpliedVolatility) {
		return hold
	}

	implied := obs.GetAux(types.AuxImpliedVolatility)
	if implied <= 0 {
		return hold
	}

	forecast, err := forecaster.Forecast(1)
	if err != nil {
		return hold
	}

	spread := implied - forecast
	magnitude := math.Abs(spread)

	if magnitude < v.entryThreshold {
		return hold
	}

	signalType := types.SignalTypeBuy
	if spread > 0 {
		// Implied above forecast: options are rich, sell them.
		signalType = types.SignalTypeSell
	}

	sig := types.NewSignal(signalType, magnitude, inst.Symbol(), obs.Time)
	sig.Metadata = map[string]float64{
		"implied_vol":      implied,
		"forecasted_vol":   forecast,
		"vol_spread":       spread,
		"spread_magnitude": magnitude,
	}

	return sig
}

// Clone implements Generator.
func (v *VolatilitySpread) Clone() Generator {
	clone := *v

	return &clone
}
