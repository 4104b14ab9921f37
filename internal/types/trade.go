package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Trade is one immutable execution record. The engine keeps an append-only
// log with one entry per open, close, and hedge adjustment.
type Trade struct {
	InstrumentID    string    `csv:"instrument_id" yaml:"instrument_id"`
	Side            TradeSide `csv:"side" yaml:"side"`
	Quantity        float64   `csv:"quantity" yaml:"quantity"`
	Price           float64   `csv:"price" yaml:"price"`
	Timestamp       time.Time `csv:"timestamp" yaml:"timestamp"`
	TransactionCost float64   `csv:"transaction_cost" yaml:"transaction_cost"`
}

// Value returns the gross value of the trade, quantity times price.
func (t Trade) Value() float64 {
	qty := decimal.NewFromFloat(t.Quantity)
	price := decimal.NewFromFloat(t.Price)

	value, _ := qty.Mul(price).Float64()

	return value
}

// NetValue returns the signed cash flow of the trade: buys are outflows
// including the transaction cost, sells are inflows net of it.
func (t Trade) NetValue() float64 {
	gross := decimal.NewFromFloat(t.Value())
	cost := decimal.NewFromFloat(t.TransactionCost)

	var net decimal.Decimal
	if t.Side == TradeSideBuy {
		net = gross.Add(cost).Neg()
	} else {
		net = gross.Sub(cost)
	}

	value, _ := net.Float64()

	return value
}

// String returns a human readable description of the trade.
func (t Trade) String() string {
	return fmt.Sprintf("%s %.4f %s @ %.4f (cost %.4f) at %s",
		t.Side, t.Quantity, t.InstrumentID, t.Price, t.TransactionCost, t.Timestamp.Format(time.RFC3339))
}
