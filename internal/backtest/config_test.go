package backtest

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfold/volarb/internal/backtest/cost"
	"github.com/quantfold/volarb/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (c Config) withSymbols(symbols ...string) Config {
	c.Symbols = symbols

	return c
}

func someTime(year int, month time.Month, day int) optional.Option[time.Time] {
	return optional.Some(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestParseFullConfig() {
	content := `
initial_cash: 250000
symbols:
  - SPY
  - QQQ
start_time: 2024-01-01T00:00:00Z
end_time: 2024-06-30T00:00:00Z
cost_policy: per_trade_percentage
cost_per_trade: 1.0
cost_percentage: 0.001
forecast_model: garch
entry_threshold: 0.08
exit_threshold: 0.04
holding_period: 20
max_risk_per_trade: 0.1
target_delta: 0
hedge_tolerance: 0.02
`

	config, err := ParseConfig([]byte(content))
	s.Require().NoError(err)

	s.InDelta(250000.0, config.InitialCash, 1e-9)
	s.Equal([]string{"SPY", "QQQ"}, config.Symbols)
	s.Equal(cost.PolicyPerTradePercentage, config.CostPolicy)
	s.Equal(ForecastModelGARCH, config.ForecastModel)
	s.Equal(20, config.HoldingPeriod)

	s.Require().True(config.StartTime.IsSome())
	s.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	s.Require().True(config.EndTime.IsSome())
}

func (s *ConfigTestSuite) TestParseOmitsOptionalTimes() {
	config, err := ParseConfig([]byte("initial_cash: 1000\nsymbols: [SPY]\n"))
	s.Require().NoError(err)
	s.True(config.StartTime.IsNone())
	s.True(config.EndTime.IsNone())
}

func (s *ConfigTestSuite) TestParseInvalidYAML() {
	_, err := ParseConfig([]byte("initial_cash: [not a number"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestLoadConfigMissingFile() {
	_, err := LoadConfig("/nonexistent/config.yaml")
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestNewStrategyUnknownModel() {
	config := DefaultConfig()
	config.ForecastModel = "nope"

	_, err := config.NewStrategy()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestNewStrategyDefaults() {
	config := DefaultConfig()

	strat, err := config.NewStrategy()
	s.Require().NoError(err)
	s.Equal("volatility_arbitrage", strat.Name())
}

func (s *ConfigTestSuite) TestParametersValidation() {
	s.Require().NoError(DefaultConfig().withSymbols("SPY").Parameters().Validate())

	noCash := Parameters{Symbols: []string{"SPY"}}
	s.True(errors.HasCode(noCash.Validate(), errors.ErrCodeInvalidConfiguration))

	noSymbols := Parameters{InitialCash: 1000}
	s.True(errors.HasCode(noSymbols.Validate(), errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestParametersRejectInvertedPeriod() {
	params := DefaultConfig().withSymbols("SPY").Parameters()
	params.StartTime = someTime(2024, 6, 1)
	params.EndTime = someTime(2024, 1, 1)

	err := params.Validate()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestParametersRejectZeroLengthPeriod() {
	params := DefaultConfig().withSymbols("SPY").Parameters()
	params.StartTime = someTime(2024, 6, 1)
	params.EndTime = someTime(2024, 6, 1)

	err := params.Validate()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	s.Require().NoError(err)
	s.Contains(schema, "initial_cash")
	s.Contains(schema, "forecast_model")
	s.Contains(schema, "per_trade_percentage")
}
