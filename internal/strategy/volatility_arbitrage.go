package strategy

import (
	"math"

	"github.com/quantfold/volarb/internal/backtest/cost"
	"github.com/quantfold/volarb/internal/instrument"
	"github.com/quantfold/volarb/internal/portfolio"
	"github.com/quantfold/volarb/internal/signal"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/internal/volatility"
)

const (
	// DefaultHoldingPeriod is the number of observed bars a position is held.
	DefaultHoldingPeriod = 30
	// DefaultMaxRiskPerTrade caps a single open at this fraction of cash.
	DefaultMaxRiskPerTrade = 0.05
	// DefaultOptionExpiryDays is the tenor of the options the strategy trades.
	DefaultOptionExpiryDays = 30
	// minReturnsForCalibration is the fewest returns before the forecaster
	// is calibrated and signals can fire.
	minReturnsForCalibration = 10
)

// VolatilityArbitrageConfig bundles the collaborators and knobs of the
// volatility arbitrage strategy. Zero values fall back to defaults.
type VolatilityArbitrageConfig struct {
	Forecaster      volatility.Forecaster
	Generator       signal.Generator
	Hedger          Hedger
	Sizer           Sizer
	HoldingPeriod   int
	MaxRiskPerTrade float64
	// OptionExpiryDays is the days-to-expiry of the at-the-money options the
	// strategy constructs each bar.
	OptionExpiryDays int
}

// VolatilityArbitrage trades the spread between forecast and market-implied
// volatility through at-the-money options, delta hedging the book each bar.
//
// Per tracked instrument the lifecycle is flat -> open -> flat: an actionable
// signal opens a position when cash allows, additional signals while open are
// ignored, and the position closes once it has been held for the configured
// number of observed bars.
type VolatilityArbitrage struct {
	forecaster       volatility.Forecaster
	generator        signal.Generator
	hedger           Hedger
	sizer            Sizer
	holdingPeriod    int
	maxRiskPerTrade  float64
	optionExpiryDays int

	portfolio *portfolio.Portfolio
	costs     cost.Model

	// daysHeld tracks observed bars per open instrument id.
	daysHeld map[string]int
	// returns and lastClose accumulate per-underlying return history for
	// forecaster calibration.
	returns   map[string][]float64
	lastClose map[string]float64
}

// NewVolatilityArbitrage creates the strategy from its configuration.
func NewVolatilityArbitrage(cfg VolatilityArbitrageConfig) *VolatilityArbitrage {
	if cfg.Forecaster == nil {
		cfg.Forecaster = volatility.NewGARCH()
	}

	if cfg.Generator == nil {
		cfg.Generator = signal.NewVolatilitySpread(signal.DefaultEntryThreshold, signal.DefaultExitThreshold)
	}

	if cfg.Hedger == nil {
		cfg.Hedger = NewDeltaHedger(0, 0.01)
	}

	if cfg.Sizer == nil {
		cfg.Sizer = RiskFraction{Fraction: DefaultMaxRiskPerTrade}
	}

	if cfg.HoldingPeriod <= 0 {
		cfg.HoldingPeriod = DefaultHoldingPeriod
	}

	if cfg.MaxRiskPerTrade <= 0 {
		cfg.MaxRiskPerTrade = DefaultMaxRiskPerTrade
	}

	if cfg.OptionExpiryDays <= 0 {
		cfg.OptionExpiryDays = DefaultOptionExpiryDays
	}

	return &VolatilityArbitrage{
		forecaster:       cfg.Forecaster,
		generator:        cfg.Generator,
		hedger:           cfg.Hedger,
		sizer:            cfg.Sizer,
		holdingPeriod:    cfg.HoldingPeriod,
		maxRiskPerTrade:  cfg.MaxRiskPerTrade,
		optionExpiryDays: cfg.OptionExpiryDays,
		portfolio:        portfolio.New(0),
		costs:            cost.NewZero(),
		daysHeld:         make(map[string]int),
		returns:          make(map[string][]float64),
		lastClose:        make(map[string]float64),
	}
}

// Name implements Strategy.
func (s *VolatilityArbitrage) Name() string {
	return "volatility_arbitrage"
}

// HoldingPeriod returns the configured holding period in observed bars.
func (s *VolatilityArbitrage) HoldingPeriod() int {
	return s.holdingPeriod
}

// Initialize implements Strategy.
func (s *VolatilityArbitrage) Initialize(initialCash float64, costs cost.Model) {
	s.portfolio = portfolio.New(initialCash)

	if costs == nil {
		costs = cost.NewZero()
	}

	s.costs = costs
	s.daysHeld = make(map[string]int)
	s.returns = make(map[string][]float64)
	s.lastClose = make(map[string]float64)
}

// Portfolio implements Strategy.
func (s *VolatilityArbitrage) Portfolio() *portfolio.Portfolio {
	return s.portfolio
}

// ProcessBar implements Strategy. The order within a bar is fixed: expire
// positions that hit their holding period, then evaluate the entry signal,
// then hedge the whole book once.
func (s *VolatilityArbitrage) ProcessBar(obs types.Observation) []types.Trade {
	var trades []types.Trade

	trades = append(trades, s.updatePositions(obs)...)

	s.recordReturn(obs)

	option := s.tradableOption(obs)
	if option != nil {
		sig := s.generator.Generate(option, s.forecaster, obs)
		if sig.IsActionable() {
			trades = append(trades, s.processSignal(sig, option, obs)...)
		}
	}

	trades = append(trades, s.hedger.ApplyHedge(s.portfolio, obs)...)

	return trades
}

// Clone implements Strategy.
func (s *VolatilityArbitrage) Clone() Strategy {
	clone := &VolatilityArbitrage{
		forecaster:       s.forecaster.Clone(),
		generator:        s.generator.Clone(),
		hedger:           s.hedger.Clone(),
		sizer:            s.sizer,
		holdingPeriod:    s.holdingPeriod,
		maxRiskPerTrade:  s.maxRiskPerTrade,
		optionExpiryDays: s.optionExpiryDays,
		portfolio:        s.portfolio.Clone(),
		costs:            s.costs,
		daysHeld:         make(map[string]int, len(s.daysHeld)),
		returns:          make(map[string][]float64, len(s.returns)),
		lastClose:        make(map[string]float64, len(s.lastClose)),
	}

	for k, v := range s.daysHeld {
		clone.daysHeld[k] = v
	}

	for k, v := range s.returns {
		clone.returns[k] = append([]float64(nil), v...)
	}

	for k, v := range s.lastClose {
		clone.lastClose[k] = v
	}

	return clone
}

// tradableOption builds the at-the-money option the strategy would trade on
// this bar.
func (s *VolatilityArbitrage) tradableOption(obs types.Observation) *instrument.EuropeanOption {
	if obs.Close <= 0 {
		return nil
	}

	expiry := obs.Time.AddDate(0, 0, s.optionExpiryDays)

	option, err := instrument.NewEuropeanCall(obs.Symbol, expiry, obs.Close)
	if err != nil {
		return nil
	}

	return option
}

// recordReturn appends the bar's simple return for the observed symbol and
// recalibrates the forecaster once enough history has accumulated.
func (s *VolatilityArbitrage) recordReturn(obs types.Observation) {
	last, ok := s.lastClose[obs.Symbol]
	s.lastClose[obs.Symbol] = obs.Close

	if !ok || last <= 0 {
		return
	}

	s.returns[obs.Symbol] = append(s.returns[obs.Symbol], obs.Close/last-1)

	history := s.returns[obs.Symbol]
	if len(history) >= minReturnsForCalibration {
		// Calibration failure leaves the previous fit in place.
		_ = s.forecaster.Calibrate(history)
	}
}

// processSignal handles the flat -> open transition.
func (s *VolatilityArbitrage) processSignal(sig types.Signal, option *instrument.EuropeanOption, obs types.Observation) []types.Trade {
	// Already open in this underlying: no pyramiding.
	if s.hasOpenPosition(obs.Symbol) {
		return nil
	}

	price := option.Price(obs)
	if price <= 0 {
		return nil
	}

	availableCash := s.portfolio.Cash()

	quantity := s.sizer.Size(sig, price, availableCash)
	if quantity <= 0 {
		return nil
	}

	// Cap the open at the max-risk-per-trade fraction of cash.
	maxCost := availableCash * s.maxRiskPerTrade
	if quantity*price > maxCost {
		quantity = math.Floor(maxCost / price)
	}

	if quantity <= 0 {
		return nil
	}

	if sig.Type == types.SignalTypeSell {
		quantity = -quantity
	}

	totalCost := math.Abs(quantity) * price
	if totalCost > availableCash {
		// Insufficient cash: the signal is dropped, no partial fill.
		return nil
	}

	fee := s.costs.Calculate(quantity, price)

	position := portfolio.NewPosition(option.Clone(), quantity, price, obs.Time)
	position.SetMetadata("signal_strength", sig.Strength)
	s.portfolio.AddPosition(position)

	if quantity > 0 {
		s.portfolio.RemoveCash(totalCost)
	} else {
		s.portfolio.AddCash(totalCost)
	}

	s.portfolio.RemoveCash(fee)

	s.daysHeld[sig.InstrumentID] = 0

	side := types.TradeSideBuy
	if quantity < 0 {
		side = types.TradeSideSell
	}

	return []types.Trade{{
		InstrumentID:    sig.InstrumentID,
		Side:            side,
		Quantity:        math.Abs(quantity),
		Price:           price,
		Timestamp:       obs.Time,
		TransactionCost: fee,
	}}
}

// hasOpenPosition reports whether a non-hedge position on the underlying is
// already open.
func (s *VolatilityArbitrage) hasOpenPosition(underlying string) bool {
	for _, pos := range s.portfolio.Positions() {
		if !pos.IsHedge() && instrument.UnderlyingOf(pos.Instrument()) == underlying {
			return true
		}
	}

	return false
}

// updatePositions advances days-held counters for positions priced by this
// bar's symbol and closes those that reached the holding period. Positions
// whose underlying supplies no observation this bar are held over.
func (s *VolatilityArbitrage) updatePositions(obs types.Observation) []types.Trade {
	for _, pos := range s.portfolio.Positions() {
		if pos.IsHedge() {
			continue
		}

		id := pos.Instrument().Symbol()
		if _, tracked := s.daysHeld[id]; !tracked {
			continue
		}

		if instrument.UnderlyingOf(pos.Instrument()) == obs.Symbol {
			s.daysHeld[id]++
		}
	}

	var closeIndexes []int

	for i, pos := range s.portfolio.Positions() {
		if pos.IsHedge() {
			continue
		}

		id := pos.Instrument().Symbol()
		if held, tracked := s.daysHeld[id]; tracked && held >= s.holdingPeriod &&
			instrument.UnderlyingOf(pos.Instrument()) == obs.Symbol {
			closeIndexes = append(closeIndexes, i)
		}
	}

	var trades []types.Trade

	// Close in reverse order so earlier indexes stay valid.
	for i := len(closeIndexes) - 1; i >= 0; i-- {
		index := closeIndexes[i]
		pos := s.portfolio.Position(index)

		quantity := pos.Quantity()
		price := pos.Instrument().Price(obs)
		proceeds := quantity * price
		fee := s.costs.Calculate(quantity, price)

		// Signed proceeds settle both directions: longs collect, shorts pay.
		s.portfolio.AddCash(proceeds)
		s.portfolio.RemoveCash(fee)

		id := pos.Instrument().Symbol()
		if err := s.portfolio.RemovePosition(index); err != nil {
			continue
		}

		delete(s.daysHeld, id)

		side := types.TradeSideSell
		if quantity < 0 {
			side = types.TradeSideBuy
		}

		trades = append(trades, types.Trade{
			InstrumentID:    id,
			Side:            side,
			Quantity:        math.Abs(quantity),
			Price:           price,
			Timestamp:       obs.Time,
			TransactionCost: fee,
		})
	}

	return trades
}
