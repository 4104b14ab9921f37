package backtest

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/quantfold/volarb/internal/backtest/cost"
	"github.com/quantfold/volarb/pkg/errors"
)

// Parameters controls a single backtest run.
type Parameters struct {
	// InitialCash is the starting account balance.
	InitialCash float64 `validate:"gt=0"`
	// Symbols are the underlyings replayed through the strategy. Every
	// symbol must have loaded history.
	Symbols []string `validate:"required,min=1,dive,required"`
	// StartTime and EndTime optionally bound the replayed period. Bars
	// outside the bounds are ignored.
	StartTime optional.Option[time.Time]
	EndTime   optional.Option[time.Time]
	// CostPolicy selects the transaction cost model applied to fills.
	CostPolicy     cost.Policy
	CostPerTrade   float64 `validate:"gte=0"`
	CostPercentage float64 `validate:"gte=0"`
}

// Validate checks the parameters before a run.
func (p Parameters) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest parameters", err)
	}

	if p.StartTime.IsSome() && p.EndTime.IsSome() && !p.EndTime.Unwrap().After(p.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end time must be after start time")
	}

	return nil
}

// CostModel builds the transaction cost model the parameters describe.
func (p Parameters) CostModel() cost.Model {
	return cost.ForPolicy(p.CostPolicy, p.CostPerTrade, p.CostPercentage)
}
