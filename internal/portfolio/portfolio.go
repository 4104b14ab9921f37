package portfolio

import (
	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

// Portfolio owns an ordered list of positions plus a cash balance. Order is
// insertion order and only meaningful for index-based removal. Multiple
// positions in the same instrument may coexist; there is no netting.
type Portfolio struct {
	positions []*Position
	cash      float64
}

// New creates a portfolio with the given starting cash.
func New(initialCash float64) *Portfolio {
	return &Portfolio{
		positions: nil,
		cash:      initialCash,
	}
}

// AddPosition appends a position. The portfolio takes ownership.
func (p *Portfolio) AddPosition(position *Position) {
	p.positions = append(p.positions, position)
}

// RemovePosition deletes the position at the given index.
func (p *Portfolio) RemovePosition(index int) error {
	if index < 0 || index >= len(p.positions) {
		return errors.Newf(errors.ErrCodePositionNotFound, "position index %d out of range [0,%d)", index, len(p.positions))
	}

	p.positions = append(p.positions[:index], p.positions[index+1:]...)

	return nil
}

// UpdatePosition sets a new quantity on the position at the given index.
func (p *Portfolio) UpdatePosition(index int, newQuantity float64) error {
	if index < 0 || index >= len(p.positions) {
		return errors.Newf(errors.ErrCodePositionNotFound, "position index %d out of range [0,%d)", index, len(p.positions))
	}

	p.positions[index].SetQuantity(newQuantity)

	return nil
}

// Position returns the position at the given index, or nil if out of range.
func (p *Portfolio) Position(index int) *Position {
	if index < 0 || index >= len(p.positions) {
		return nil
	}

	return p.positions[index]
}

// PositionCount returns the number of open positions.
func (p *Portfolio) PositionCount() int {
	return len(p.positions)
}

// Positions returns the positions in insertion order. The slice is a copy;
// the positions are not.
func (p *Portfolio) Positions() []*Position {
	out := make([]*Position, len(p.positions))
	copy(out, p.positions)

	return out
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	return p.cash
}

// AddCash credits the cash balance.
func (p *Portfolio) AddCash(amount float64) {
	p.cash += amount
}

// RemoveCash debits the cash balance. The balance may go negative; rejecting
// that is the caller's policy decision, not the portfolio's.
func (p *Portfolio) RemoveCash(amount float64) {
	p.cash -= amount
}

// TotalValue returns cash plus the sum of position values at the observation.
func (p *Portfolio) TotalValue(obs types.Observation) float64 {
	total := p.cash
	for _, position := range p.positions {
		total += position.Value(obs)
	}

	return total
}

// TotalPnL returns the sum of unrealized position PnLs at the observation.
func (p *Portfolio) TotalPnL(obs types.Observation) float64 {
	total := 0.0
	for _, position := range p.positions {
		total += position.PnL(obs)
	}

	return total
}

// Delta aggregates position deltas. Instruments without defined sensitivities
// contribute a fixed delta of 1 per unit.
func (p *Portfolio) Delta(obs types.Observation) float64 {
	total := 0.0

	for _, position := range p.positions {
		if deriv, ok := position.Instrument().(instrument.Derivative); ok {
			total += position.Quantity() * deriv.Delta(obs)
		} else {
			total += position.Quantity()
		}
	}

	return total
}

// Gamma aggregates position gammas. Non-derivatives contribute zero.
func (p *Portfolio) Gamma(obs types.Observation) float64 {
	total := 0.0

	for _, position := range p.positions {
		if deriv, ok := position.Instrument().(instrument.Derivative); ok {
			total += position.Quantity() * deriv.Gamma(obs)
		}
	}

	return total
}

// Vega aggregates position vegas. Non-derivatives contribute zero.
func (p *Portfolio) Vega(obs types.Observation) float64 {
	total := 0.0

	for _, position := range p.positions {
		if deriv, ok := position.Instrument().(instrument.Derivative); ok {
			total += position.Quantity() * deriv.Vega(obs)
		}
	}

	return total
}

// Theta aggregates position thetas. Non-derivatives contribute zero.
func (p *Portfolio) Theta(obs types.Observation) float64 {
	total := 0.0

	for _, position := range p.positions {
		if deriv, ok := position.Instrument().(instrument.Derivative); ok {
			total += position.Quantity() * deriv.Theta(obs)
		}
	}

	return total
}

// Clone returns a deep copy of the portfolio and every position in it.
func (p *Portfolio) Clone() *Portfolio {
	clone := &Portfolio{
		positions: make([]*Position, len(p.positions)),
		cash:      p.cash,
	}

	for i, position := range p.positions {
		clone.positions[i] = position.Clone()
	}

	return clone
}
