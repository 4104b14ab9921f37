// Package backtest replays historical observations through a strategy and
// collects the resulting equity curve and trade log.
package backtest

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantfold/volarb/internal/dataloader"
	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/logger"
	"github.com/quantfold/volarb/internal/strategy"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

// Engine owns the loaded histories and drives a single-threaded,
// chronological replay. Two runs over the same inputs produce identical
// results.
type Engine struct {
	histories map[string][]types.Observation
	loader    *dataloader.Loader
	logger    *logger.Logger
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{
		histories: make(map[string][]types.Observation),
		loader:    dataloader.New(log),
		logger:    log,
	}
}

// AddHistory registers observation history for a symbol, replacing any
// previous history. The engine keeps its own chronologically sorted copy.
func (e *Engine) AddHistory(symbol string, observations []types.Observation) {
	history := append([]types.Observation(nil), observations...)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Time.Before(history[j].Time)
	})

	e.histories[symbol] = history
}

// LoadCSV loads a symbol's history from a CSV file.
func (e *Engine) LoadCSV(symbol, path string) error {
	observations, err := e.loader.LoadFile(path, symbol)
	if err != nil {
		return err
	}

	e.AddHistory(symbol, observations)
	e.logger.Info("loaded history",
		zap.String("symbol", symbol),
		zap.String("path", path),
		zap.Int("bars", len(observations)),
	)

	return nil
}

// HasHistory reports whether the symbol has loaded history.
func (e *Engine) HasHistory(symbol string) bool {
	_, ok := e.histories[symbol]

	return ok
}

// Symbols returns the loaded symbols in sorted order.
func (e *Engine) Symbols() []string {
	symbols := make([]string, 0, len(e.histories))
	for symbol := range e.histories {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// ClearHistories drops all loaded history.
func (e *Engine) ClearHistories() {
	e.histories = make(map[string][]types.Observation)
}

// Run replays the selected histories through the strategy and returns the
// collected result. The strategy is initialized fresh at the start of the
// run.
func (e *Engine) Run(params Parameters, strat strategy.Strategy) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	for _, symbol := range params.Symbols {
		if !e.HasHistory(symbol) {
			return nil, errors.Newf(errors.ErrCodeMissingData, "no history loaded for symbol %s", symbol)
		}
	}

	bars := e.collectBars(params)
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeNoData, "no observations in the selected period")
	}

	strat.Initialize(params.InitialCash, params.CostModel())

	var trades []types.Trade

	equityCurve := make([]EquityPoint, 0, len(bars))
	latest := make(map[string]types.Observation)

	e.logger.Info("starting backtest",
		zap.String("strategy", strat.Name()),
		zap.Int("bars", len(bars)),
		zap.Float64("initial_cash", params.InitialCash),
	)

	for i, obs := range bars {
		trades = append(trades, strat.ProcessBar(obs)...)
		latest[obs.Symbol] = obs

		// One equity point per distinct timestamp, taken after every bar
		// sharing it has been processed, so the curve stays strictly
		// increasing in time.
		if i == len(bars)-1 || !bars[i+1].Time.Equal(obs.Time) {
			equityCurve = append(equityCurve, EquityPoint{
				Time:  obs.Time,
				Value: markToMarket(strat, latest),
			})
		}
	}

	result := NewResult(params.InitialCash, equityCurve, trades)

	e.logger.Info("backtest complete",
		zap.Int("trades", len(trades)),
		zap.Float64("final_equity", result.FinalEquity()),
	)

	return result, nil
}

// RunMonteCarlo runs the same backtest repeatedly, each trial against an
// independent clone of the strategy, and collects the per-trial results.
// Trials only diverge when the strategy itself carries a source of
// randomness; a deterministic strategy yields identical results.
func (e *Engine) RunMonteCarlo(params Parameters, strat strategy.Strategy, trials int) ([]*Result, error) {
	if trials <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "trials must be positive")
	}

	results := make([]*Result, 0, trials)

	for trial := 0; trial < trials; trial++ {
		result, err := e.Run(params, strat.Clone())
		if err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "monte carlo trial %d failed", trial)
		}

		results = append(results, result)
	}

	return results, nil
}

// collectBars merges the selected histories into one chronological stream.
// Bars sharing a timestamp are ordered by symbol so replay order is
// deterministic.
func (e *Engine) collectBars(params Parameters) []types.Observation {
	symbols := append([]string(nil), params.Symbols...)
	sort.Strings(symbols)

	var bars []types.Observation

	for _, symbol := range symbols {
		for _, obs := range e.histories[symbol] {
			if !inPeriod(obs.Time, params) {
				continue
			}

			bars = append(bars, obs)
		}
	}

	sort.SliceStable(bars, func(i, j int) bool {
		if bars[i].Time.Equal(bars[j].Time) {
			return bars[i].Symbol < bars[j].Symbol
		}

		return bars[i].Time.Before(bars[j].Time)
	})

	return bars
}

func inPeriod(t time.Time, params Parameters) bool {
	if params.StartTime.IsSome() && t.Before(params.StartTime.Unwrap()) {
		return false
	}

	if params.EndTime.IsSome() && t.After(params.EndTime.Unwrap()) {
		return false
	}

	return true
}

// markToMarket values the whole book at the latest observation per
// underlying. Positions whose underlying has not been observed yet are
// valued at their entry price.
func markToMarket(strat strategy.Strategy, latest map[string]types.Observation) float64 {
	p := strat.Portfolio()
	total := p.Cash()

	for _, pos := range p.Positions() {
		underlying := instrument.UnderlyingOf(pos.Instrument())

		if obs, ok := latest[underlying]; ok {
			total += pos.Value(obs)
		} else {
			total += pos.Quantity() * pos.EntryPrice()
		}
	}

	return total
}
