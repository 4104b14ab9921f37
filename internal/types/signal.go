package types

import (
	"fmt"
	"time"
)

type SignalType string

const (
	// SignalTypeBuy tells the strategy to open a long position
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell tells the strategy to open a short position
	SignalTypeSell SignalType = "sell"
	// SignalTypeHold tells the strategy to take no action
	SignalTypeHold SignalType = "hold"
)

// Signal is a directional recommendation for a single instrument. It is a
// transient value object that only lives within one bar step.
type Signal struct {
	// Type is the type of the signal
	Type SignalType
	// Strength is the conviction of the signal in [0, 1]
	Strength float64
	// InstrumentID identifies the instrument the signal targets
	InstrumentID string
	// Time is the time of the signal
	Time time.Time
	// Metadata carries generator-specific numeric context
	Metadata map[string]float64
}

// NewSignal creates a signal without metadata.
func NewSignal(signalType SignalType, strength float64, instrumentID string, t time.Time) Signal {
	return Signal{
		Type:         signalType,
		Strength:     strength,
		InstrumentID: instrumentID,
		Time:         t,
		Metadata:     nil,
	}
}

// IsActionable reports whether the signal should trigger trading. A signal is
// actionable iff its type is not Hold and its strength is positive.
func (s Signal) IsActionable() bool {
	return s.Type != SignalTypeHold && s.Strength > 0
}

// String returns a human readable description of the signal.
func (s Signal) String() string {
	return fmt.Sprintf("%s %s strength=%.4f at %s", s.Type, s.InstrumentID, s.Strength, s.Time.Format(time.RFC3339))
}
