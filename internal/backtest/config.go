package backtest

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/quantfold/volarb/internal/backtest/cost"
	"github.com/quantfold/volarb/internal/signal"
	"github.com/quantfold/volarb/internal/strategy"
	"github.com/quantfold/volarb/internal/volatility"
	"github.com/quantfold/volarb/pkg/errors"
)

// ForecastModel names a volatility forecasting model in configuration.
type ForecastModel string

const (
	ForecastModelGARCH ForecastModel = "garch"
	ForecastModelEWMA  ForecastModel = "ewma"
)

// AllForecastModels lists the configurable forecast models.
var AllForecastModels = []any{
	ForecastModelGARCH,
	ForecastModelEWMA,
}

// Config is the YAML-facing configuration of a backtest run and its
// volatility arbitrage strategy.
type Config struct {
	InitialCash    float64                    `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,description=Starting capital for the backtest in account currency,minimum=0"`
	Symbols        []string                   `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Underlyings replayed through the strategy"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the replayed period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the replayed period"`
	CostPolicy     cost.Policy                `yaml:"cost_policy" json:"cost_policy" jsonschema:"title=Cost Policy,description=Transaction cost model applied to fills"`
	CostPerTrade   float64                    `yaml:"cost_per_trade" json:"cost_per_trade" jsonschema:"title=Cost Per Trade,description=Fixed cost charged per trade,minimum=0"`
	CostPercentage float64                    `yaml:"cost_percentage" json:"cost_percentage" jsonschema:"title=Cost Percentage,description=Cost as a fraction of gross trade value,minimum=0"`

	ForecastModel   ForecastModel `yaml:"forecast_model" json:"forecast_model" jsonschema:"title=Forecast Model,description=Volatility forecasting model"`
	EntryThreshold  float64       `yaml:"entry_threshold" json:"entry_threshold" jsonschema:"title=Entry Threshold,description=Volatility spread magnitude that opens a trade,minimum=0"`
	ExitThreshold   float64       `yaml:"exit_threshold" json:"exit_threshold" jsonschema:"title=Exit Threshold,description=Volatility spread magnitude treated as fair value,minimum=0"`
	HoldingPeriod   int           `yaml:"holding_period" json:"holding_period" jsonschema:"title=Holding Period,description=Observed bars a position is held before closing,minimum=1"`
	MaxRiskPerTrade float64       `yaml:"max_risk_per_trade" json:"max_risk_per_trade" jsonschema:"title=Max Risk Per Trade,description=Fraction of cash a single open may consume,minimum=0,maximum=1"`
	TargetDelta     float64       `yaml:"target_delta" json:"target_delta" jsonschema:"title=Target Delta,description=Aggregate delta the hedger steers toward"`
	HedgeTolerance  float64       `yaml:"hedge_tolerance" json:"hedge_tolerance" jsonschema:"title=Hedge Tolerance,description=Acceptable distance from the target delta,minimum=0"`
}

// UnmarshalYAML implements custom unmarshaling so optional times accept plain
// YAML timestamps.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		InitialCash    float64     `yaml:"initial_cash"`
		Symbols        []string    `yaml:"symbols"`
		StartTime      *time.Time  `yaml:"start_time"`
		EndTime        *time.Time  `yaml:"end_time"`
		CostPolicy     cost.Policy `yaml:"cost_policy"`
		CostPerTrade   float64     `yaml:"cost_per_trade"`
		CostPercentage float64     `yaml:"cost_percentage"`

		ForecastModel   ForecastModel `yaml:"forecast_model"`
		EntryThreshold  float64       `yaml:"entry_threshold"`
		ExitThreshold   float64       `yaml:"exit_threshold"`
		HoldingPeriod   int           `yaml:"holding_period"`
		MaxRiskPerTrade float64       `yaml:"max_risk_per_trade"`
		TargetDelta     float64       `yaml:"target_delta"`
		HedgeTolerance  float64       `yaml:"hedge_tolerance"`
	}

	var parsed plain
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	c.InitialCash = parsed.InitialCash
	c.Symbols = parsed.Symbols
	c.CostPolicy = parsed.CostPolicy
	c.CostPerTrade = parsed.CostPerTrade
	c.CostPercentage = parsed.CostPercentage
	c.ForecastModel = parsed.ForecastModel
	c.EntryThreshold = parsed.EntryThreshold
	c.ExitThreshold = parsed.ExitThreshold
	c.HoldingPeriod = parsed.HoldingPeriod
	c.MaxRiskPerTrade = parsed.MaxRiskPerTrade
	c.TargetDelta = parsed.TargetDelta
	c.HedgeTolerance = parsed.HedgeTolerance

	if parsed.StartTime != nil {
		c.StartTime = optional.Some(*parsed.StartTime)
	}

	if parsed.EndTime != nil {
		c.EndTime = optional.Some(*parsed.EndTime)
	}

	return nil
}

// ParseConfig parses a YAML configuration document.
func ParseConfig(content []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	return config, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return ParseConfig(content)
}

// DefaultConfig returns a config with the strategy defaults filled in.
func DefaultConfig() Config {
	return Config{
		InitialCash:     100000,
		CostPolicy:      cost.PolicyZero,
		ForecastModel:   ForecastModelGARCH,
		EntryThreshold:  signal.DefaultEntryThreshold,
		ExitThreshold:   signal.DefaultExitThreshold,
		HoldingPeriod:   strategy.DefaultHoldingPeriod,
		MaxRiskPerTrade: strategy.DefaultMaxRiskPerTrade,
		TargetDelta:     0,
		HedgeTolerance:  0.01,
		StartTime:       optional.None[time.Time](),
		EndTime:         optional.None[time.Time](),
	}
}

// Parameters converts the config into run parameters.
func (c Config) Parameters() Parameters {
	return Parameters{
		InitialCash:    c.InitialCash,
		Symbols:        c.Symbols,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		CostPolicy:     c.CostPolicy,
		CostPerTrade:   c.CostPerTrade,
		CostPercentage: c.CostPercentage,
	}
}

// NewStrategy builds the volatility arbitrage strategy the config describes.
func (c Config) NewStrategy() (*strategy.VolatilityArbitrage, error) {
	var forecaster volatility.Forecaster

	switch c.ForecastModel {
	case ForecastModelGARCH, "":
		forecaster = volatility.NewGARCH()
	case ForecastModelEWMA:
		forecaster = volatility.NewEWMA()
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown forecast model %q", c.ForecastModel)
	}

	entry := c.EntryThreshold
	if entry <= 0 {
		entry = signal.DefaultEntryThreshold
	}

	exit := c.ExitThreshold
	if exit <= 0 {
		exit = signal.DefaultExitThreshold
	}

	tolerance := c.HedgeTolerance
	if tolerance <= 0 {
		tolerance = 0.01
	}

	return strategy.NewVolatilityArbitrage(strategy.VolatilityArbitrageConfig{
		Forecaster:      forecaster,
		Generator:       signal.NewVolatilitySpread(entry, exit),
		Hedger:          strategy.NewDeltaHedger(c.TargetDelta, tolerance),
		HoldingPeriod:   c.HoldingPeriod,
		MaxRiskPerTrade: c.MaxRiskPerTrade,
	}), nil
}

// GenerateSchema generates a JSON schema for Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "cost.Policy") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: cost.AllPolicies,
				}
			}

			if strings.Contains(t.String(), "backtest.ForecastModel") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllForecastModels,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "volarb-backtest-config"
	schema.Description = "Configuration schema for volatility arbitrage backtests"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON renders the config schema as indented JSON.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
