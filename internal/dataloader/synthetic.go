package dataloader

import (
	"math"
	"math/rand"
	"time"

	"github.com/quantfold/volarb/internal/types"
)

// SyntheticConfig configures generated observation history.
type SyntheticConfig struct {
	// Symbol is the underlying symbol stamped on every bar.
	Symbol string
	// StartTime is the timestamp of the first bar.
	StartTime time.Time
	// Interval is the duration between bars.
	Interval time.Duration
	// Count is the number of bars to generate.
	Count int
	// InitialPrice is the starting price.
	InitialPrice float64
	// Volatility is the per-bar return volatility of the simulated path.
	Volatility float64
	// Trend is the total drift distributed across all bars.
	Trend float64
	// VolumeBase is the average volume per bar.
	VolumeBase float64
	// ImpliedVolatility, when positive, attaches an implied volatility to
	// every bar. ImpliedVolatilityNoise adds uniform jitter around it.
	ImpliedVolatility      float64
	ImpliedVolatilityNoise float64
}

// DefaultSyntheticConfig returns a daily-bar configuration suitable for
// tests.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Symbol:       "TEST",
		StartTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:     24 * time.Hour,
		Count:        252,
		InitialPrice: 100.0,
		Volatility:   0.0126, // roughly 20% annualized
		Trend:        0.0,
		VolumeBase:   10000,
	}
}

// SyntheticGenerator produces observation history from a seeded geometric
// Brownian motion, so tests and benchmarks get realistic but reproducible
// price paths.
type SyntheticGenerator struct {
	rng *rand.Rand
}

// NewSyntheticGenerator creates a generator. The seed fixes the path.
func NewSyntheticGenerator(seed int64) *SyntheticGenerator {
	return &SyntheticGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate builds the configured number of bars.
func (g *SyntheticGenerator) Generate(config SyntheticConfig) []types.Observation {
	observations := make([]types.Observation, config.Count)
	price := config.InitialPrice
	current := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller transform for a standard normal draw.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (1 + (g.rng.Float64()*2-1)*0.3)
		if volume < 0 {
			volume = 0
		}

		obs := types.Observation{
			Symbol: config.Symbol,
			Time:   current,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		}

		if config.ImpliedVolatility > 0 {
			implied := config.ImpliedVolatility
			if config.ImpliedVolatilityNoise > 0 {
				implied += (g.rng.Float64()*2 - 1) * config.ImpliedVolatilityNoise
			}

			if implied > 0 {
				obs = obs.WithAux(types.AuxImpliedVolatility, implied)
			}
		}

		observations[i] = obs
		price = close
		current = current.Add(config.Interval)
	}

	return observations
}
