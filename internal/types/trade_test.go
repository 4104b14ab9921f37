package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestValue() {
	trade := Trade{
		InstrumentID: "X",
		Side:         TradeSideBuy,
		Quantity:     100,
		Price:        10,
		Timestamp:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	suite.Equal(1000.0, trade.Value())
}

func (suite *TradeTestSuite) TestNetValue() {
	tests := []struct {
		name     string
		trade    Trade
		expected float64
	}{
		{
			name: "buy is a cash outflow including cost",
			trade: Trade{
				Side:            TradeSideBuy,
				Quantity:        100,
				Price:           10,
				TransactionCost: 5,
			},
			expected: -1005,
		},
		{
			name: "sell is a cash inflow net of cost",
			trade: Trade{
				Side:            TradeSideSell,
				Quantity:        100,
				Price:           11,
				TransactionCost: 5,
			},
			expected: 1095,
		},
		{
			name: "zero cost sell",
			trade: Trade{
				Side:     TradeSideSell,
				Quantity: 50,
				Price:    2,
			},
			expected: 100,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.InDelta(tt.expected, tt.trade.NetValue(), 1e-9)
		})
	}
}

func (suite *TradeTestSuite) TestObservationAux() {
	obs := Observation{
		Symbol: "AAPL",
		Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Close:  150,
	}

	suite.False(obs.HasAux(AuxImpliedVolatility))
	suite.Equal(0.0, obs.GetAux(AuxImpliedVolatility))

	withIV := obs.WithAux(AuxImpliedVolatility, 0.25)
	suite.True(withIV.HasAux(AuxImpliedVolatility))
	suite.Equal(0.25, withIV.GetAux(AuxImpliedVolatility))

	// Original observation stays untouched
	suite.False(obs.HasAux(AuxImpliedVolatility))
}
