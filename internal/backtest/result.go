package backtest

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

const (
	// tradingDaysPerYear annualizes volatility and risk-adjusted ratios.
	tradingDaysPerYear = 252.0
	// calendarDaysPerYear annualizes total return over the run's duration.
	calendarDaysPerYear = 365.25
	// drawdownPeriodThreshold is the minimum depth for a drawdown to count
	// as a period.
	drawdownPeriodThreshold = 0.01
)

// EquityPoint is one sample of total account value.
type EquityPoint struct {
	Time  time.Time `yaml:"time" csv:"time"`
	Value float64   `yaml:"value" csv:"value"`
}

// DrawdownPoint is one sample of the drawdown path, as a non-positive
// fraction of the running equity peak.
type DrawdownPoint struct {
	Time     time.Time `yaml:"time" csv:"time"`
	Drawdown float64   `yaml:"drawdown" csv:"drawdown"`
}

// DrawdownPeriod describes one peak-to-recovery excursion below a prior
// equity peak.
type DrawdownPeriod struct {
	Start  time.Time `yaml:"start"`
	Trough time.Time `yaml:"trough"`
	End    time.Time `yaml:"end"`
	// Depth is the worst drawdown within the period as a positive fraction.
	Depth float64 `yaml:"depth"`
}

// Summary is the flat metric set of a finished run.
type Summary struct {
	InitialCash          float64 `yaml:"initial_cash"`
	FinalEquity          float64 `yaml:"final_equity"`
	TotalReturn          float64 `yaml:"total_return"`
	AnnualizedReturn     float64 `yaml:"annualized_return"`
	AnnualizedVolatility float64 `yaml:"annualized_volatility"`
	SharpeRatio          float64 `yaml:"sharpe_ratio"`
	SortinoRatio         float64 `yaml:"sortino_ratio"`
	MaxDrawdown          float64 `yaml:"max_drawdown"`
	WinRate              float64 `yaml:"win_rate"`
	ProfitFactor         float64 `yaml:"profit_factor"`
	TradeCount           int     `yaml:"trade_count"`
}

// String renders the summary as an aligned human-readable block.
func (s Summary) String() string {
	return fmt.Sprintf(
		"Initial cash:          %.2f\n"+
			"Final equity:          %.2f\n"+
			"Total return:          %.2f%%\n"+
			"Annualized return:     %.2f%%\n"+
			"Annualized volatility: %.2f%%\n"+
			"Sharpe ratio:          %.2f\n"+
			"Sortino ratio:         %.2f\n"+
			"Max drawdown:          %.2f%%\n"+
			"Win rate:              %.2f%%\n"+
			"Profit factor:         %.2f\n"+
			"Trades:                %d",
		s.InitialCash,
		s.FinalEquity,
		s.TotalReturn*100,
		s.AnnualizedReturn*100,
		s.AnnualizedVolatility*100,
		s.SharpeRatio,
		s.SortinoRatio,
		s.MaxDrawdown*100,
		s.WinRate*100,
		s.ProfitFactor,
		s.TradeCount,
	)
}

// Result holds a finished run's equity curve and trade log and computes
// performance metrics lazily. Metrics are cached until the underlying data
// changes, at which point the whole cache is dropped.
type Result struct {
	initialCash float64
	equityCurve []EquityPoint
	trades      []types.Trade
	metrics     map[string]float64
}

// NewResult creates a result over the given equity curve and trade log.
func NewResult(initialCash float64, equityCurve []EquityPoint, trades []types.Trade) *Result {
	return &Result{
		initialCash: initialCash,
		equityCurve: append([]EquityPoint(nil), equityCurve...),
		trades:      append([]types.Trade(nil), trades...),
	}
}

// InitialCash returns the starting balance of the run.
func (r *Result) InitialCash() float64 {
	return r.initialCash
}

// EquityCurve returns a copy of the equity samples.
func (r *Result) EquityCurve() []EquityPoint {
	return append([]EquityPoint(nil), r.equityCurve...)
}

// Trades returns a copy of the trade log.
func (r *Result) Trades() []types.Trade {
	return append([]types.Trade(nil), r.trades...)
}

// FinalEquity returns the last equity sample, or the initial cash when the
// curve is empty.
func (r *Result) FinalEquity() float64 {
	if len(r.equityCurve) == 0 {
		return r.initialCash
	}

	return r.equityCurve[len(r.equityCurve)-1].Value
}

// SetEquityCurve replaces the equity curve and drops all cached metrics.
func (r *Result) SetEquityCurve(equityCurve []EquityPoint) {
	r.equityCurve = append([]EquityPoint(nil), equityCurve...)
	r.metrics = nil
}

// SetTrades replaces the trade log and drops all cached metrics.
func (r *Result) SetTrades(trades []types.Trade) {
	r.trades = append([]types.Trade(nil), trades...)
	r.metrics = nil
}

// metric returns the cached value for the named metric, computing and
// caching it on first use.
func (r *Result) metric(name string, compute func() float64) float64 {
	if r.metrics == nil {
		r.metrics = make(map[string]float64)
	}

	if value, ok := r.metrics[name]; ok {
		return value
	}

	value := compute()
	r.metrics[name] = value

	return value
}

// returns computes simple period-over-period returns from the equity curve.
func (r *Result) returns() []float64 {
	if len(r.equityCurve) < 2 {
		return nil
	}

	out := make([]float64, 0, len(r.equityCurve)-1)

	for i := 1; i < len(r.equityCurve); i++ {
		prev := r.equityCurve[i-1].Value
		if prev == 0 {
			continue
		}

		out = append(out, r.equityCurve[i].Value/prev-1)
	}

	return out
}

// TotalReturn is the fractional gain from the first equity sample to the
// last.
func (r *Result) TotalReturn() float64 {
	return r.metric("total_return", func() float64 {
		if len(r.equityCurve) == 0 {
			return 0
		}

		first := r.equityCurve[0].Value
		if first == 0 {
			return 0
		}

		return (r.FinalEquity() - first) / first
	})
}

// AnnualizedReturn compounds the total return over the run's calendar
// duration.
func (r *Result) AnnualizedReturn() float64 {
	return r.metric("annualized_return", func() float64 {
		if len(r.equityCurve) < 2 {
			return 0
		}

		days := r.equityCurve[len(r.equityCurve)-1].Time.Sub(r.equityCurve[0].Time).Hours() / 24
		if days <= 0 {
			return 0
		}

		total := r.TotalReturn()
		if total <= -1 {
			return -1
		}

		return math.Pow(1+total, calendarDaysPerYear/days) - 1
	})
}

// AnnualizedVolatility scales the standard deviation of per-bar returns to a
// trading year.
func (r *Result) AnnualizedVolatility() float64 {
	return r.metric("annualized_volatility", func() float64 {
		return stddev(r.returns()) * math.Sqrt(tradingDaysPerYear)
	})
}

// SharpeRatio is the ratio of mean period return to return volatility, with
// a zero risk-free rate. Both sides carry the same annualization factor, so
// it cancels.
func (r *Result) SharpeRatio() float64 {
	return r.metric("sharpe_ratio", func() float64 {
		rets := r.returns()

		sd := stddev(rets)
		if sd == 0 {
			return 0
		}

		return mean(rets) / sd
	})
}

// SortinoRatio is the ratio of mean period return to downside deviation.
func (r *Result) SortinoRatio() float64 {
	return r.metric("sortino_ratio", func() float64 {
		rets := r.returns()
		if len(rets) == 0 {
			return 0
		}

		sumSquares := 0.0

		for _, ret := range rets {
			if ret < 0 {
				sumSquares += ret * ret
			}
		}

		downside := math.Sqrt(sumSquares / float64(len(rets)))
		if downside == 0 {
			return 0
		}

		return mean(rets) / downside
	})
}

// MaxDrawdown is the deepest peak-to-trough decline as a positive fraction.
func (r *Result) MaxDrawdown() float64 {
	return r.metric("max_drawdown", func() float64 {
		worst := 0.0
		peak := math.Inf(-1)

		for _, point := range r.equityCurve {
			if point.Value > peak {
				peak = point.Value
			}

			if peak > 0 {
				if dd := (peak - point.Value) / peak; dd > worst {
					worst = dd
				}
			}
		}

		return worst
	})
}

// DrawdownSeries returns the drawdown at each equity sample as a
// non-positive fraction of the running peak.
func (r *Result) DrawdownSeries() []DrawdownPoint {
	series := make([]DrawdownPoint, len(r.equityCurve))
	peak := math.Inf(-1)

	for i, point := range r.equityCurve {
		if point.Value > peak {
			peak = point.Value
		}

		series[i] = DrawdownPoint{Time: point.Time}
		if peak > 0 {
			series[i].Drawdown = (point.Value - peak) / peak
		}
	}

	return series
}

// DrawdownPeriods finds excursions deeper than one percent below a prior
// peak. A drawdown still open at the end of the curve closes at the last
// timestamp.
func (r *Result) DrawdownPeriods() []DrawdownPeriod {
	series := r.DrawdownSeries()

	var periods []DrawdownPeriod

	inDrawdown := false

	var current DrawdownPeriod

	for _, point := range series {
		switch {
		case !inDrawdown && point.Drawdown <= -drawdownPeriodThreshold:
			inDrawdown = true
			current = DrawdownPeriod{
				Start:  point.Time,
				Trough: point.Time,
				Depth:  -point.Drawdown,
			}
		case inDrawdown && point.Drawdown == 0:
			current.End = point.Time
			periods = append(periods, current)
			inDrawdown = false
		case inDrawdown:
			if -point.Drawdown > current.Depth {
				current.Depth = -point.Drawdown
				current.Trough = point.Time
			}
		}
	}

	if inDrawdown {
		current.End = r.equityCurve[len(r.equityCurve)-1].Time
		periods = append(periods, current)
	}

	return periods
}

// WinRate is the fraction of trades with a positive net cash flow. With no
// trades it is zero.
func (r *Result) WinRate() float64 {
	return r.metric("win_rate", func() float64 {
		if len(r.trades) == 0 {
			return 0
		}

		wins := 0

		for _, trade := range r.trades {
			if trade.NetValue() > 0 {
				wins++
			}
		}

		return float64(wins) / float64(len(r.trades))
	})
}

// ProfitFactor is the gross value of winning trades over the gross value of
// losing trades. It is +Inf when there are wins but no losses and zero when
// there are no trades.
func (r *Result) ProfitFactor() float64 {
	return r.metric("profit_factor", func() float64 {
		grossProfit := decimal.Zero
		grossLoss := decimal.Zero

		for _, trade := range r.trades {
			net := decimal.NewFromFloat(trade.NetValue())
			if net.IsPositive() {
				grossProfit = grossProfit.Add(net)
			} else {
				grossLoss = grossLoss.Add(net.Neg())
			}
		}

		if grossLoss.IsZero() {
			if grossProfit.IsPositive() {
				return math.Inf(1)
			}

			return 0
		}

		factor, _ := grossProfit.Div(grossLoss).Float64()

		return factor
	})
}

// ReturnsByMonth sums period returns per calendar month 1-12, aggregating the
// same month across years.
func (r *Result) ReturnsByMonth() map[int]float64 {
	return r.bucketReturns(func(t time.Time) int {
		return int(t.Month())
	})
}

// ReturnsByYear sums period returns per calendar year.
func (r *Result) ReturnsByYear() map[int]float64 {
	return r.bucketReturns(func(t time.Time) int {
		return t.Year()
	})
}

// bucketReturns assigns each period return to the bucket of the period's end
// timestamp and sums per bucket.
func (r *Result) bucketReturns(bucket func(time.Time) int) map[int]float64 {
	out := make(map[int]float64)

	for i := 1; i < len(r.equityCurve); i++ {
		prev := r.equityCurve[i-1].Value
		if prev == 0 {
			continue
		}

		point := r.equityCurve[i]
		out[bucket(point.Time)] += point.Value/prev - 1
	}

	return out
}

// Summarize collects the headline metrics.
func (r *Result) Summarize() Summary {
	return Summary{
		InitialCash:          r.initialCash,
		FinalEquity:          r.FinalEquity(),
		TotalReturn:          r.TotalReturn(),
		AnnualizedReturn:     r.AnnualizedReturn(),
		AnnualizedVolatility: r.AnnualizedVolatility(),
		SharpeRatio:          r.SharpeRatio(),
		SortinoRatio:         r.SortinoRatio(),
		MaxDrawdown:          r.MaxDrawdown(),
		WinRate:              r.WinRate(),
		ProfitFactor:         r.ProfitFactor(),
		TradeCount:           len(r.trades),
	}
}

// WriteSummaryYAML writes the headline metrics to a YAML file.
func (r *Result) WriteSummaryYAML(path string) error {
	content, err := yaml.Marshal(r.Summarize())
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestReport, "failed to marshal summary", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestReport, err, "failed to write summary to %s", path)
	}

	return nil
}

// WriteTradesCSV writes the trade log to a CSV file.
func (r *Result) WriteTradesCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestReport, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&r.trades, file); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestReport, "failed to write trades", err)
	}

	return nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)
	sum := 0.0

	for _, v := range values {
		sum += (v - m) * (v - m)
	}

	return math.Sqrt(sum / float64(len(values)-1))
}
