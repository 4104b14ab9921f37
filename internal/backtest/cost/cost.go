// Package cost provides transaction cost policies applied to simulated fills.
package cost

// Model calculates the transaction cost in account currency for a fill of
// the given absolute quantity at the given price.
type Model interface {
	Calculate(quantity, price float64) float64
}

type Policy string

const (
	PolicyPerTradePercentage Policy = "per_trade_percentage"
	PolicyZero               Policy = "zero"
)

var AllPolicies = []any{
	PolicyPerTradePercentage,
	PolicyZero,
}

// ForPolicy returns the cost model for a named policy. Unknown policies cost
// nothing.
func ForPolicy(policy Policy, perTrade, percentage float64) Model {
	switch policy {
	case PolicyPerTradePercentage:
		return NewPerTradePercentage(perTrade, percentage)
	case PolicyZero:
		return NewZero()
	default:
		return NewZero()
	}
}
