package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) TestIsActionable() {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		signal   Signal
		expected bool
	}{
		{
			name:     "buy with positive strength",
			signal:   NewSignal(SignalTypeBuy, 0.9, "AAPL_C_150_20240401", now),
			expected: true,
		},
		{
			name:     "sell with positive strength",
			signal:   NewSignal(SignalTypeSell, 0.1, "AAPL_C_150_20240401", now),
			expected: true,
		},
		{
			name:     "hold is never actionable",
			signal:   NewSignal(SignalTypeHold, 1.0, "AAPL_C_150_20240401", now),
			expected: false,
		},
		{
			name:     "buy with zero strength",
			signal:   NewSignal(SignalTypeBuy, 0, "AAPL_C_150_20240401", now),
			expected: false,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(tt.expected, tt.signal.IsActionable())
		})
	}
}
