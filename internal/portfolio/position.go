// Package portfolio provides position and portfolio bookkeeping. The
// portfolio is pure accounting: it never rejects a transaction, risk policy
// belongs to the caller.
package portfolio

import (
	"time"

	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/types"
)

// MetadataIsHedge tags a position created by a hedging policy.
const MetadataIsHedge = "is_hedge"

// Position is a held quantity of exactly one instrument. The instrument is
// owned exclusively; cloning a position deep-copies it. Quantity is signed,
// negative for short positions.
type Position struct {
	instrument instrument.Instrument
	quantity   float64
	entryPrice float64
	entryTime  time.Time
	metadata   map[string]float64
}

// NewPosition creates a position owning the given instrument.
func NewPosition(inst instrument.Instrument, quantity, entryPrice float64, entryTime time.Time) *Position {
	return &Position{
		instrument: inst,
		quantity:   quantity,
		entryPrice: entryPrice,
		entryTime:  entryTime,
		metadata:   nil,
	}
}

// Instrument returns the owned instrument.
func (p *Position) Instrument() instrument.Instrument {
	return p.instrument
}

// Quantity returns the signed held quantity.
func (p *Position) Quantity() float64 {
	return p.quantity
}

// SetQuantity updates the held quantity. Quantity updates are the only
// mutation a position supports.
func (p *Position) SetQuantity(quantity float64) {
	p.quantity = quantity
}

// EntryPrice returns the per-unit entry price.
func (p *Position) EntryPrice() float64 {
	return p.entryPrice
}

// EntryTime returns when the position was opened.
func (p *Position) EntryTime() time.Time {
	return p.entryTime
}

// Value returns quantity times the instrument price at the observation.
func (p *Position) Value(obs types.Observation) float64 {
	return p.quantity * p.instrument.Price(obs)
}

// PnL returns the unrealized profit against the entry price.
func (p *Position) PnL(obs types.Observation) float64 {
	return p.quantity * (p.instrument.Price(obs) - p.entryPrice)
}

// SetMetadata stores a keyed numeric annotation on the position.
func (p *Position) SetMetadata(key string, value float64) {
	if p.metadata == nil {
		p.metadata = make(map[string]float64)
	}

	p.metadata[key] = value
}

// Metadata returns the annotation for the key, or 0 if absent.
func (p *Position) Metadata(key string) float64 {
	return p.metadata[key]
}

// HasMetadata reports whether the key is annotated.
func (p *Position) HasMetadata(key string) bool {
	_, ok := p.metadata[key]

	return ok
}

// IsHedge reports whether the position was created by a hedging policy.
func (p *Position) IsHedge() bool {
	return p.HasMetadata(MetadataIsHedge)
}

// Clone returns a deep copy including the owned instrument.
func (p *Position) Clone() *Position {
	clone := &Position{
		instrument: p.instrument.Clone(),
		quantity:   p.quantity,
		entryPrice: p.entryPrice,
		entryTime:  p.entryTime,
		metadata:   nil,
	}

	if p.metadata != nil {
		clone.metadata = make(map[string]float64, len(p.metadata))
		for k, v := range p.metadata {
			clone.metadata[k] = v
		}
	}

	return clone
}
