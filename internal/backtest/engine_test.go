package backtest

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfold/volarb/internal/backtest/cost"
	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/portfolio"
	"github.com/quantfold/volarb/internal/strategy"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

// recordingStrategy captures the bars it sees and holds only cash.
type recordingStrategy struct {
	p    *portfolio.Portfolio
	bars []types.Observation
}

func (s *recordingStrategy) Name() string { return "recording" }

func (s *recordingStrategy) Initialize(initialCash float64, costs cost.Model) {
	s.p = portfolio.New(initialCash)
	s.bars = nil
}

func (s *recordingStrategy) ProcessBar(obs types.Observation) []types.Trade {
	s.bars = append(s.bars, obs)

	return nil
}

func (s *recordingStrategy) Portfolio() *portfolio.Portfolio { return s.p }

func (s *recordingStrategy) Clone() strategy.Strategy {
	return &recordingStrategy{}
}

// buyOnceStrategy buys one share of the first symbol it sees and holds it.
type buyOnceStrategy struct {
	p      *portfolio.Portfolio
	bought bool
}

func (s *buyOnceStrategy) Name() string { return "buy_once" }

func (s *buyOnceStrategy) Initialize(initialCash float64, costs cost.Model) {
	s.p = portfolio.New(initialCash)
	s.bought = false
}

func (s *buyOnceStrategy) ProcessBar(obs types.Observation) []types.Trade {
	if s.bought {
		return nil
	}

	eq, err := instrument.NewEquity(obs.Symbol, 1)
	if err != nil {
		return nil
	}

	s.p.AddPosition(portfolio.NewPosition(eq, 1, obs.Close, obs.Time))
	s.p.RemoveCash(obs.Close)
	s.bought = true

	return []types.Trade{{
		InstrumentID: obs.Symbol,
		Side:         types.TradeSideBuy,
		Quantity:     1,
		Price:        obs.Close,
		Timestamp:    obs.Time,
	}}
}

func (s *buyOnceStrategy) Portfolio() *portfolio.Portfolio { return s.p }

func (s *buyOnceStrategy) Clone() strategy.Strategy {
	return &buyOnceStrategy{}
}

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.engine = NewEngine(nil)
}

func (s *EngineTestSuite) observation(symbol string, day int, close float64) types.Observation {
	return types.Observation{
		Symbol: symbol,
		Time:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 1000,
	}
}

func (s *EngineTestSuite) params(symbols ...string) Parameters {
	return Parameters{
		InitialCash: 100000,
		Symbols:     symbols,
		CostPolicy:  cost.PolicyZero,
	}
}

func (s *EngineTestSuite) TestRunReplaysChronologically() {
	s.engine.AddHistory("SPY", []types.Observation{
		s.observation("SPY", 3, 101),
		s.observation("SPY", 2, 100),
		s.observation("SPY", 4, 102),
	})

	strat := &recordingStrategy{}

	result, err := s.engine.Run(s.params("SPY"), strat)
	s.Require().NoError(err)

	s.Require().Len(strat.bars, 3)
	s.Equal(2, strat.bars[0].Time.Day())
	s.Equal(3, strat.bars[1].Time.Day())
	s.Equal(4, strat.bars[2].Time.Day())
	s.Len(result.EquityCurve(), 3)
}

func (s *EngineTestSuite) TestDisjointTimestampsMerge() {
	s.engine.AddHistory("SPY", []types.Observation{
		s.observation("SPY", 2, 100),
		s.observation("SPY", 4, 102),
	})
	s.engine.AddHistory("QQQ", []types.Observation{
		s.observation("QQQ", 3, 200),
		s.observation("QQQ", 5, 204),
	})

	strat := &recordingStrategy{}

	_, err := s.engine.Run(s.params("SPY", "QQQ"), strat)
	s.Require().NoError(err)

	s.Require().Len(strat.bars, 4)
	s.Equal("SPY", strat.bars[0].Symbol)
	s.Equal("QQQ", strat.bars[1].Symbol)
	s.Equal("SPY", strat.bars[2].Symbol)
	s.Equal("QQQ", strat.bars[3].Symbol)
}

func (s *EngineTestSuite) TestSharedTimestampOrderedBySymbol() {
	s.engine.AddHistory("SPY", []types.Observation{s.observation("SPY", 2, 100)})
	s.engine.AddHistory("QQQ", []types.Observation{s.observation("QQQ", 2, 200)})

	strat := &recordingStrategy{}

	_, err := s.engine.Run(s.params("SPY", "QQQ"), strat)
	s.Require().NoError(err)

	s.Require().Len(strat.bars, 2)
	s.Equal("QQQ", strat.bars[0].Symbol)
	s.Equal("SPY", strat.bars[1].Symbol)
}

func (s *EngineTestSuite) TestOneEquityPointPerTimestamp() {
	s.engine.AddHistory("SPY", []types.Observation{
		s.observation("SPY", 2, 100),
		s.observation("SPY", 3, 101),
	})
	s.engine.AddHistory("QQQ", []types.Observation{
		s.observation("QQQ", 2, 200),
		s.observation("QQQ", 3, 202),
	})

	result, err := s.engine.Run(s.params("SPY", "QQQ"), &recordingStrategy{})
	s.Require().NoError(err)

	curve := result.EquityCurve()
	s.Require().Len(curve, 2)

	for i := 1; i < len(curve); i++ {
		s.True(curve[i-1].Time.Before(curve[i].Time))
	}
}

func (s *EngineTestSuite) TestMissingSymbol() {
	_, err := s.engine.Run(s.params("SPY"), &recordingStrategy{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeMissingData))
}

func (s *EngineTestSuite) TestEmptyPeriod() {
	s.engine.AddHistory("SPY", []types.Observation{s.observation("SPY", 2, 100)})

	params := s.params("SPY")
	params.StartTime = optional.Some(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := s.engine.Run(params, &recordingStrategy{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeNoData))
}

func (s *EngineTestSuite) TestInvalidParameters() {
	params := Parameters{InitialCash: 0, Symbols: []string{"SPY"}}

	_, err := s.engine.Run(params, &recordingStrategy{})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *EngineTestSuite) TestMarkToMarketTracksHoldings() {
	s.engine.AddHistory("SPY", []types.Observation{
		s.observation("SPY", 2, 100),
		s.observation("SPY", 3, 110),
	})

	result, err := s.engine.Run(s.params("SPY"), &buyOnceStrategy{})
	s.Require().NoError(err)

	curve := result.EquityCurve()
	s.Require().Len(curve, 2)

	// Bar 1: cash 99900 plus one share at 100.
	s.InDelta(100000.0, curve[0].Value, 1e-9)
	// Bar 2: the held share is revalued at 110.
	s.InDelta(100010.0, curve[1].Value, 1e-9)
}

func (s *EngineTestSuite) TestDeterministicRuns() {
	s.engine.AddHistory("SPY", []types.Observation{
		s.observation("SPY", 2, 100),
		s.observation("SPY", 3, 110),
		s.observation("SPY", 4, 95),
	})

	first, err := s.engine.Run(s.params("SPY"), &buyOnceStrategy{})
	s.Require().NoError(err)

	second, err := s.engine.Run(s.params("SPY"), &buyOnceStrategy{})
	s.Require().NoError(err)

	s.Equal(first.EquityCurve(), second.EquityCurve())
	s.Equal(first.Trades(), second.Trades())
}

func (s *EngineTestSuite) TestRunMonteCarlo() {
	history := make([]types.Observation, 0, 20)
	price := 100.0

	for day := 1; day <= 20; day++ {
		price *= 1 + 0.01*float64(day%3-1)
		history = append(history, s.observation("SPY", day, price))
	}

	s.engine.AddHistory("SPY", history)

	results, err := s.engine.RunMonteCarlo(s.params("SPY"), &buyOnceStrategy{}, 5)
	s.Require().NoError(err)
	s.Require().Len(results, 5)

	// A deterministic strategy produces identical trials.
	for i := 1; i < len(results); i++ {
		s.Equal(results[0].EquityCurve(), results[i].EquityCurve())
		s.Equal(results[0].Trades(), results[i].Trades())
	}
}

func (s *EngineTestSuite) TestRunMonteCarloRejectsZeroTrials() {
	s.engine.AddHistory("SPY", []types.Observation{s.observation("SPY", 2, 100)})

	_, err := s.engine.RunMonteCarlo(s.params("SPY"), &recordingStrategy{}, 0)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (s *EngineTestSuite) TestSymbolsAndClear() {
	s.engine.AddHistory("SPY", nil)
	s.engine.AddHistory("QQQ", nil)

	s.Equal([]string{"QQQ", "SPY"}, s.engine.Symbols())
	s.True(s.engine.HasHistory("SPY"))

	s.engine.ClearHistories()
	s.False(s.engine.HasHistory("SPY"))
	s.Empty(s.engine.Symbols())
}
