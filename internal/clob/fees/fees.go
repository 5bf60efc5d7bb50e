// Package fees implements the matching core's tiered maker/taker fee
// lookup: a pure function from (price, quantity, maker/taker, tier) to a
// rate, an amount, and a settlement currency.
package fees

import "github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"

// DefaultTier is the fallback used when a requested tier is unknown.
const DefaultTier = "default"

// Tier holds the maker and taker rates for one fee tier.
type Tier struct {
	MakerRate clobdecimal.Decimal
	TakerRate clobdecimal.Decimal
}

// Calculator computes per-fill fee amounts from a configured tier table.
type Calculator struct {
	tiers     map[string]Tier
	currency  string
	precision int32
}

// NewCalculator builds a Calculator from a tier table and fee currency.
// A "default" tier is synthesized at zero rates if the table omits one,
// so unknown-tier lookups never fail.
func NewCalculator(tiers map[string]Tier, currency string, precision int32) *Calculator {
	table := make(map[string]Tier, len(tiers)+1)
	for k, v := range tiers {
		table[k] = v
	}
	if _, ok := table[DefaultTier]; !ok {
		table[DefaultTier] = Tier{MakerRate: clobdecimal.Zero, TakerRate: clobdecimal.Zero}
	}
	return &Calculator{tiers: table, currency: currency, precision: precision}
}

// Compute returns the rate applied, the fee amount (price * quantity *
// rate, rounded half-even to the configured precision), and the
// settlement currency for one fill leg.
func (c *Calculator) Compute(price, quantity clobdecimal.Decimal, isMaker bool, tier string) (rate, amount clobdecimal.Decimal, currency string) {
	t, ok := c.tiers[tier]
	if !ok {
		t = c.tiers[DefaultTier]
	}
	if isMaker {
		rate = t.MakerRate
	} else {
		rate = t.TakerRate
	}
	amount = price.Mul(quantity).Mul(rate).RoundBank(c.precision)
	return rate, amount, c.currency
}
