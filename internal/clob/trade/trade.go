// Package trade implements the matching core's immutable trade record.
package trade

import (
	"time"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

// Trade is an immutable execution result: once constructed, none of its
// fields are mutated. Orders do not reference trades (spec.md §3
// ownership: the trade history owns trade records).
type Trade struct {
	ID        string
	Timestamp time.Time
	Symbol    string
	Price     clobdecimal.Decimal
	Quantity  clobdecimal.Decimal

	AggressorSide order.Side

	MakerOrderID string
	TakerOrderID string

	MakerFee     clobdecimal.Decimal
	TakerFee     clobdecimal.Decimal
	FeeCurrency  string
}

// Value returns price * quantity.
func (t Trade) Value() clobdecimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// Fees carries the two fee legs computed for a fill, kept as a separate
// argument group since the fee calculator runs after the match itself is
// decided.
type Fees struct {
	MakerFee    clobdecimal.Decimal
	TakerFee    clobdecimal.Decimal
	FeeCurrency string
}

// New constructs a Trade. price is always the resting maker's limit
// price (spec.md §3: "price improvement always favours the taker").
func New(id string, now time.Time, symbol string, price, quantity clobdecimal.Decimal, aggressor order.Side, makerOrderID, takerOrderID string, fees Fees) Trade {
	return Trade{
		ID:            id,
		Timestamp:     now,
		Symbol:        symbol,
		Price:         price,
		Quantity:      quantity,
		AggressorSide: aggressor,
		MakerOrderID:  makerOrderID,
		TakerOrderID:  takerOrderID,
		MakerFee:      fees.MakerFee,
		TakerFee:      fees.TakerFee,
		FeeCurrency:   fees.FeeCurrency,
	}
}
