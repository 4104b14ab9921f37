package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantfold/volarb/internal/backtest"
	"github.com/quantfold/volarb/internal/types"
)

type ResultStoreTestSuite struct {
	suite.Suite
	store *ResultStore
}

func TestResultStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreTestSuite))
}

func (s *ResultStoreTestSuite) SetupTest() {
	store, err := NewResultStore("", nil)
	s.Require().NoError(err)
	s.Require().NoError(store.Initialize())
	s.store = store
}

func (s *ResultStoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *ResultStoreTestSuite) sampleResult() *backtest.Result {
	curve := []backtest.EquityPoint{
		{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 100000},
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Value: 101000},
	}
	trades := []types.Trade{
		{
			InstrumentID:    "SPY_C_470_20240201",
			Side:            types.TradeSideBuy,
			Quantity:        10,
			Price:           5.25,
			Timestamp:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			TransactionCost: 1.5,
		},
		{
			InstrumentID:    "SPY_C_470_20240201",
			Side:            types.TradeSideSell,
			Quantity:        10,
			Price:           6.00,
			Timestamp:       time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			TransactionCost: 1.5,
		},
	}

	return backtest.NewResult(100000, curve, trades)
}

func (s *ResultStoreTestSuite) TestWriteAndReadBack() {
	runID, err := s.store.WriteResult("garch_spy", s.sampleResult())
	s.Require().NoError(err)
	s.Require().NotEmpty(runID)

	trades, err := s.store.GetTrades(runID)
	s.Require().NoError(err)
	s.Require().Len(trades, 2)
	s.Equal(types.TradeSideBuy, trades[0].Side)
	s.Equal("SPY_C_470_20240201", trades[0].InstrumentID)
	s.InDelta(5.25, trades[0].Price, 1e-9)
	s.InDelta(1.5, trades[0].TransactionCost, 1e-9)

	curve, err := s.store.GetEquityCurve(runID)
	s.Require().NoError(err)
	s.Require().Len(curve, 2)
	s.InDelta(100000.0, curve[0].Value, 1e-9)
	s.InDelta(101000.0, curve[1].Value, 1e-9)
}

func (s *ResultStoreTestSuite) TestListRuns() {
	first, err := s.store.WriteResult("first", s.sampleResult())
	s.Require().NoError(err)

	second, err := s.store.WriteResult("second", s.sampleResult())
	s.Require().NoError(err)

	runs, err := s.store.ListRuns()
	s.Require().NoError(err)
	s.Require().Len(runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	s.Contains(ids, first)
	s.Contains(ids, second)
	s.InDelta(100000.0, runs[0].InitialCash, 1e-9)
}

func (s *ResultStoreTestSuite) TestUnknownRunIsEmpty() {
	trades, err := s.store.GetTrades("missing")
	s.Require().NoError(err)
	s.Empty(trades)

	curve, err := s.store.GetEquityCurve("missing")
	s.Require().NoError(err)
	s.Empty(curve)
}
