package strategy

import (
	"math"

	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/portfolio"
	"github.com/quantfold/volarb/internal/types"
)

// hedgeEpsilon is the quantity below which a hedge position is closed
// instead of being kept near zero.
const hedgeEpsilon = 1e-6

// Hedger adjusts portfolio composition to bring an aggregate risk sensitivity
// within tolerance of a target. Implementations are stateless beyond what is
// observable in the portfolio itself.
type Hedger interface {
	// ApplyHedge runs once per bar against the whole portfolio and returns
	// the hedge adjustment trades it executed, if any.
	ApplyHedge(p *portfolio.Portfolio, obs types.Observation) []types.Trade
	// Clone returns a copy of the hedger.
	Clone() Hedger
}

// DeltaHedger keeps the portfolio's aggregate delta within tolerance of a
// target by holding a dedicated position in the observed underlying.
type DeltaHedger struct {
	targetDelta float64
	tolerance   float64
}

// NewDeltaHedger creates a delta hedger with the given target and tolerance.
func NewDeltaHedger(targetDelta, tolerance float64) *DeltaHedger {
	return &DeltaHedger{
		targetDelta: targetDelta,
		tolerance:   tolerance,
	}
}

// TargetDelta returns the aggregate delta the hedger steers toward.
func (h *DeltaHedger) TargetDelta() float64 {
	return h.targetDelta
}

// Tolerance returns the acceptable distance from the target.
func (h *DeltaHedger) Tolerance() float64 {
	return h.tolerance
}

// ApplyHedge implements Hedger.
func (h *DeltaHedger) ApplyHedge(p *portfolio.Portfolio, obs types.Observation) []types.Trade {
	gap := p.Delta(obs) - h.targetDelta
	if math.Abs(gap) <= h.tolerance {
		return nil
	}

	adjustment := -gap
	price := obs.Close

	// Locate the dedicated hedge position in this underlying.
	hedgeIndex := -1

	for i, pos := range p.Positions() {
		if pos.IsHedge() && instrument.UnderlyingOf(pos.Instrument()) == obs.Symbol {
			hedgeIndex = i

			break
		}
	}

	if hedgeIndex >= 0 {
		newQuantity := p.Position(hedgeIndex).Quantity() + adjustment

		if math.Abs(newQuantity) < hedgeEpsilon {
			// Drop the residual rather than carry a near-zero position.
			if err := p.RemovePosition(hedgeIndex); err != nil {
				return nil
			}
		} else if err := p.UpdatePosition(hedgeIndex, newQuantity); err != nil {
			return nil
		}
	} else {
		if math.Abs(adjustment) < hedgeEpsilon {
			return nil
		}

		hedgeInstrument, err := instrument.NewEquity(obs.Symbol, 1)
		if err != nil {
			return nil
		}

		position := portfolio.NewPosition(hedgeInstrument, adjustment, price, obs.Time)
		position.SetMetadata(portfolio.MetadataIsHedge, 1)
		position.SetMetadata("target_delta", h.targetDelta)
		p.AddPosition(position)
	}

	// Buying the adjustment consumes cash, selling releases it.
	p.RemoveCash(adjustment * price)

	side := types.TradeSideBuy
	if adjustment < 0 {
		side = types.TradeSideSell
	}

	return []types.Trade{{
		InstrumentID:    obs.Symbol,
		Side:            side,
		Quantity:        math.Abs(adjustment),
		Price:           price,
		Timestamp:       obs.Time,
		TransactionCost: 0,
	}}
}

// Clone implements Hedger.
func (h *DeltaHedger) Clone() Hedger {
	clone := *h

	return &clone
}
