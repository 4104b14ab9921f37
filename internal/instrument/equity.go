package instrument

import (
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

// Equity is a plain stock holding of a fixed number of shares.
type Equity struct {
	symbol string
	shares float64
}

// NewEquity creates an equity instrument. Shares must be positive; positions
// express direction through their own signed quantity.
func NewEquity(symbol string, shares float64) (*Equity, error) {
	if shares <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidQuantity, "number of shares must be positive, got %f", shares)
	}

	return &Equity{
		symbol: symbol,
		shares: shares,
	}, nil
}

// Symbol implements Instrument.
func (e *Equity) Symbol() string {
	return e.symbol
}

// Shares returns the number of shares per unit.
func (e *Equity) Shares() float64 {
	return e.shares
}

// Price implements Instrument. The observation must be for the equity's own
// symbol; the caller routes observations by symbol.
func (e *Equity) Price(obs types.Observation) float64 {
	return obs.Close * e.shares
}

// Clone implements Instrument.
func (e *Equity) Clone() Instrument {
	clone := *e

	return &clone
}
