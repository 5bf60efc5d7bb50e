package engine

import (
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

// ConditionalKind is the trigger flavor of a conditional order (spec.md §3).
type ConditionalKind string

const (
	ConditionalStopLoss   ConditionalKind = "STOP_LOSS"
	ConditionalStopLimit  ConditionalKind = "STOP_LIMIT"
	ConditionalTakeProfit ConditionalKind = "TAKE_PROFIT"
)

// ConditionalOrder is a not-yet-live order waiting on a trigger price.
type ConditionalOrder struct {
	OrderID       string
	Symbol        string
	Side          order.Side
	Quantity      clobdecimal.Decimal
	Kind          ConditionalKind
	TriggerPrice  clobdecimal.Decimal
	HasLimitPrice bool
	LimitPrice    clobdecimal.Decimal
	ClientID      string
}

// symbolRegistry holds one symbol's conditional orders in two trigger-price
// trees: "down" fires when last_trade_price falls to or below a trigger,
// "up" fires when it rises to or above one (spec.md §4.5.7). Collapsing
// the four (side, kind) combinations into these two buckets keyed by
// direction, rather than a single flat list, is the per-symbol priority
// structure spec.md §9 redesign note 3 calls for.
type symbolRegistry struct {
	down *treemap.Map // triggerPrice -> []ConditionalOrder, fires when lastPrice <= triggerPrice
	up   *treemap.Map // triggerPrice -> []ConditionalOrder, fires when lastPrice >= triggerPrice
}

func newSymbolRegistry() *symbolRegistry {
	return &symbolRegistry{
		down: treemap.NewWith(priceComparator),
		up:   treemap.NewWith(priceComparator),
	}
}

// conditionalRegistry is the engine-wide conditional order store, one
// symbolRegistry per symbol.
type conditionalRegistry struct {
	bySymbol map[string]*symbolRegistry
}

func newConditionalRegistry() *conditionalRegistry {
	return &conditionalRegistry{bySymbol: make(map[string]*symbolRegistry)}
}

func priceComparator(a, b interface{}) int {
	return a.(clobdecimal.Decimal).Cmp(b.(clobdecimal.Decimal))
}

// bucketFor classifies a conditional order's (side, kind) into the down
// or up trigger direction per the table in spec.md §4.5.7.
func bucketFor(side order.Side, kind ConditionalKind) bool {
	isStopLike := kind == ConditionalStopLoss || kind == ConditionalStopLimit
	switch side {
	case order.SideBuy:
		return isStopLike // BUY stop-like: down (last_price <= trigger)
	default:
		return !isStopLike // SELL take-profit: down; SELL stop-like: up
	}
}

// Register files a conditional order into the appropriate per-symbol
// trigger-price bucket.
func (r *conditionalRegistry) Register(c ConditionalOrder) {
	sr, ok := r.bySymbol[c.Symbol]
	if !ok {
		sr = newSymbolRegistry()
		r.bySymbol[c.Symbol] = sr
	}
	tree := sr.up
	if bucketFor(c.Side, c.Kind) {
		tree = sr.down
	}
	if existing, ok := tree.Get(c.TriggerPrice); ok {
		tree.Put(c.TriggerPrice, append(existing.([]ConditionalOrder), c))
	} else {
		tree.Put(c.TriggerPrice, []ConditionalOrder{c})
	}
}

// TriggerScan removes and returns every conditional order on symbol whose
// trigger condition is now satisfied by lastPrice, scanning each of the
// two buckets from the side nearest lastPrice outward and stopping as
// soon as one entry fails to qualify (sorted order makes every entry
// beyond that point also fail).
func (r *conditionalRegistry) TriggerScan(symbol string, lastPrice clobdecimal.Decimal) []ConditionalOrder {
	sr, ok := r.bySymbol[symbol]
	if !ok {
		return nil
	}
	var out []ConditionalOrder
	out = append(out, scanDescendingWhile(sr.down, func(trigger clobdecimal.Decimal) bool {
		return lastPrice.LessThanOrEqual(trigger)
	})...)
	out = append(out, scanAscendingWhile(sr.up, func(trigger clobdecimal.Decimal) bool {
		return lastPrice.GreaterThanOrEqual(trigger)
	})...)
	return out
}

// scanDescendingWhile walks tree from its highest key down, collecting and
// removing every entry while satisfies holds, stopping at the first
// failure.
func scanDescendingWhile(tree *treemap.Map, satisfies func(clobdecimal.Decimal) bool) []ConditionalOrder {
	it := tree.Iterator()
	if !it.Last() {
		return nil
	}
	var out []ConditionalOrder
	var doomed []clobdecimal.Decimal
	for {
		key := it.Key().(clobdecimal.Decimal)
		if !satisfies(key) {
			break
		}
		out = append(out, it.Value().([]ConditionalOrder)...)
		doomed = append(doomed, key)
		if !it.Prev() {
			break
		}
	}
	for _, k := range doomed {
		tree.Remove(k)
	}
	return out
}

// scanAscendingWhile is scanDescendingWhile's mirror, walking from the
// lowest key upward.
func scanAscendingWhile(tree *treemap.Map, satisfies func(clobdecimal.Decimal) bool) []ConditionalOrder {
	it := tree.Iterator()
	if !it.First() {
		return nil
	}
	var out []ConditionalOrder
	var doomed []clobdecimal.Decimal
	for {
		key := it.Key().(clobdecimal.Decimal)
		if !satisfies(key) {
			break
		}
		out = append(out, it.Value().([]ConditionalOrder)...)
		doomed = append(doomed, key)
		if !it.Next() {
			break
		}
	}
	for _, k := range doomed {
		tree.Remove(k)
	}
	return out
}
