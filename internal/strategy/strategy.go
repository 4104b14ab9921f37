// Package strategy contains the trading strategies driven bar by bar by the
// backtest engine, plus the hedging policies they apply.
package strategy

import (
	"github.com/quantfold/volarb/internal/backtest/cost"
	"github.com/quantfold/volarb/internal/portfolio"
	"github.com/quantfold/volarb/internal/types"
)

// Strategy is a bar-driven trading strategy. Implementations report every
// execution explicitly through the trades returned from ProcessBar; the
// engine never infers trading activity from portfolio state.
type Strategy interface {
	// Name identifies the strategy in logs and reports.
	Name() string
	// Initialize resets the strategy for a fresh run with the given starting
	// cash and transaction cost model.
	Initialize(initialCash float64, costs cost.Model)
	// ProcessBar advances the strategy by one observation and returns the
	// trades executed during the bar, in execution order.
	ProcessBar(obs types.Observation) []types.Trade
	// Portfolio exposes the strategy's portfolio for valuation.
	Portfolio() *portfolio.Portfolio
	// Clone returns a deep copy so independent trials never share state.
	Clone() Strategy
}
