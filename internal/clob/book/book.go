// Package book implements the per-symbol, two-sided order book: sorted
// price levels backed by a red-black tree (github.com/emirpasic/gods) for
// O(log P) insert/delete and O(1) best-price retrieval, a FIFO queue per
// level, and a hash index for O(1) order lookup and O(1) cancel.
package book

import (
	"github.com/emirpasic/gods/maps/treemap"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/errs"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

// locator is the id-index's non-owning secondary lookup into a resting
// order's level and node, so Remove(orderID) needs no side scan.
type locator struct {
	side  order.Side
	price clobdecimal.Decimal
	node  *node
}

// LevelView is a read-only (price, aggregate remaining quantity, order
// count) entry returned by Depth.
type LevelView struct {
	Price    clobdecimal.Decimal
	Quantity clobdecimal.Decimal
	Orders   int
}

// BBO is the best-bid/offer cache: §4.3 of spec.md.
type BBO struct {
	HasBid       bool
	BestBidPrice clobdecimal.Decimal
	BestBidQty   clobdecimal.Decimal
	HasAsk       bool
	BestAskPrice clobdecimal.Decimal
	BestAskQty   clobdecimal.Decimal
	HasSpread    bool
	SpreadBps    clobdecimal.Decimal
}

func priceComparator(a, b interface{}) int {
	return a.(clobdecimal.Decimal).Cmp(b.(clobdecimal.Decimal))
}

// Book is one symbol's complete order book.
type Book struct {
	Symbol string

	// bids and asks are price -> *Level treemaps ordered ascending by
	// price; best bid is bids.Max(), best ask is asks.Min().
	bids *treemap.Map
	asks *treemap.Map

	index map[string]*locator

	dirty     bool
	cachedBBO BBO
}

// New creates an empty order book for symbol.
func New(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids:   treemap.NewWith(priceComparator),
		asks:   treemap.NewWith(priceComparator),
		index:  make(map[string]*locator),
		dirty:  true,
	}
}

func (b *Book) treeFor(side order.Side) *treemap.Map {
	if side == order.SideBuy {
		return b.bids
	}
	return b.asks
}

func (b *Book) levelFor(side order.Side, price clobdecimal.Decimal, createIfMissing bool) *Level {
	tree := b.treeFor(side)
	if v, ok := tree.Get(price); ok {
		return v.(*Level)
	}
	if !createIfMissing {
		return nil
	}
	lvl := newLevel(price)
	tree.Put(price, lvl)
	return lvl
}

func (b *Book) dropLevelIfEmpty(side order.Side, lvl *Level) {
	if lvl.Empty() {
		b.treeFor(side).Remove(lvl.Price)
	}
}

// Add inserts a resting order at its price level's tail. Fails if the
// order's id is already present. Dirties the BBO cache.
func (b *Book) Add(o *order.Order) error {
	if _, exists := b.index[o.ID]; exists {
		return errs.Newf(errs.ErrDuplicateOrder, "order %s already on book", o.ID)
	}
	if !o.HasPrice {
		return errs.Newf(errs.ErrValidation, "order %s has no price, cannot rest on the book", o.ID)
	}
	if o.Status == order.StatusPending {
		o.Status = order.StatusOpen
	}
	lvl := b.levelFor(o.Side, o.Price, true)
	n := lvl.pushBack(o)
	b.index[o.ID] = &locator{side: o.Side, price: o.Price, node: n}
	b.dirty = true
	return nil
}

// Remove unlinks an order by id, returning it if found: an O(1) id-index
// lookup, an O(log P) lookup of its level, and an O(1) unlink from the
// level's FIFO through the stored node handle.
func (b *Book) Remove(orderID string) (*order.Order, bool) {
	loc, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	lvl := b.levelFor(loc.side, loc.price, false)
	if lvl == nil {
		delete(b.index, orderID)
		return nil, false
	}
	lvl.remove(loc.node)
	delete(b.index, orderID)
	b.dropLevelIfEmpty(loc.side, lvl)
	b.dirty = true
	return loc.node.order, true
}

// Get looks up a resting order by id without removing it.
func (b *Book) Get(orderID string) (*order.Order, bool) {
	loc, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	return loc.node.order, true
}

// bestLevel returns the best level on the resting side (Buy => best bid,
// Sell => best ask).
func (b *Book) bestLevel(side order.Side) (*Level, bool) {
	tree := b.treeFor(side)
	var key, value interface{}
	if side == order.SideBuy {
		key, value = tree.Max()
	} else {
		key, value = tree.Min()
	}
	if key == nil {
		return nil, false
	}
	return value.(*Level), true
}

// BestPrice returns the best resting price on side, if any.
func (b *Book) BestPrice(side order.Side) (clobdecimal.Decimal, bool) {
	lvl, ok := b.bestLevel(side)
	if !ok {
		return clobdecimal.Zero, false
	}
	return lvl.Price, true
}

// BestOrder peeks the head (oldest arrival) order of the best level on
// side without removing it.
func (b *Book) BestOrder(side order.Side) (*order.Order, bool) {
	lvl, ok := b.bestLevel(side)
	if !ok {
		return nil, false
	}
	return lvl.Front()
}

// RemoveHead removes and returns the head order of the best level on
// side — used by the matching walk once a maker has been fully consumed.
// Drops the level if it becomes empty. Dirties the BBO cache.
func (b *Book) RemoveHead(side order.Side) (*order.Order, bool) {
	lvl, ok := b.bestLevel(side)
	if !ok {
		return nil, false
	}
	o, ok := lvl.popFront()
	if ok {
		delete(b.index, o.ID)
	}
	b.dropLevelIfEmpty(side, lvl)
	b.dirty = true
	return o, ok
}

// TouchBest marks the BBO cache dirty; used after in-place mutation of
// the best level's head order (a partial fill that doesn't remove it).
func (b *Book) TouchBest() {
	b.dirty = true
}

// Empty reports whether side has no resting orders at all.
func (b *Book) Empty(side order.Side) bool {
	return b.treeFor(side).Size() == 0
}

// OrderCount returns the number of resting orders on both sides.
func (b *Book) OrderCount() int {
	return len(b.index)
}

// LevelExport is one price level's resting orders in strict arrival
// order, for snapshotting (spec.md §4.7).
type LevelExport struct {
	Price  clobdecimal.Decimal
	Orders []*order.Order
}

// ExportLevels walks side ascending by price and returns every level's
// orders, for snapshot serialization. Order within a level is arrival
// order, matching the restore path's requirement to replay in the same
// sequence.
func (b *Book) ExportLevels(side order.Side) []LevelExport {
	tree := b.treeFor(side)
	it := tree.Iterator()
	out := make([]LevelExport, 0, tree.Size())
	if !it.First() {
		return out
	}
	for {
		lvl := it.Value().(*Level)
		out = append(out, LevelExport{Price: lvl.Price, Orders: lvl.Orders()})
		if !it.Next() {
			break
		}
	}
	return out
}

// BBO returns the best-bid/offer cache, recomputing it lazily if dirty.
func (b *Book) BBO() BBO {
	if !b.dirty {
		return b.cachedBBO
	}
	var bbo BBO
	if lvl, ok := b.bestLevel(order.SideBuy); ok {
		bbo.HasBid = true
		bbo.BestBidPrice = lvl.Price
		bbo.BestBidQty = lvl.AggregateRemaining()
	}
	if lvl, ok := b.bestLevel(order.SideSell); ok {
		bbo.HasAsk = true
		bbo.BestAskPrice = lvl.Price
		bbo.BestAskQty = lvl.AggregateRemaining()
	}
	if bbo.HasBid && bbo.HasAsk {
		bbo.HasSpread = true
		spread := bbo.BestAskPrice.Sub(bbo.BestBidPrice)
		bbo.SpreadBps = clobdecimal.DivBank(spread.Mul(clobdecimal.MustParse("10000")), bbo.BestBidPrice, 8)
	}
	b.cachedBBO = bbo
	b.dirty = false
	return bbo
}

// Depth returns the top n price levels per side as (price, aggregate
// remaining quantity, order count), bids highest-first, asks
// lowest-first.
func (b *Book) Depth(n int) (bids, asks []LevelView) {
	bids = b.depthSide(order.SideBuy, n)
	asks = b.depthSide(order.SideSell, n)
	return bids, asks
}

func (b *Book) depthSide(side order.Side, n int) []LevelView {
	tree := b.treeFor(side)
	it := tree.Iterator()
	out := make([]LevelView, 0, n)

	// Ascending treemap order: Sell (asks) wants lowest-first, so walk
	// forward from First(); Buy (bids) wants highest-first, so walk
	// backward from Last().
	advance := it.Next
	started := it.First
	if side == order.SideBuy {
		advance = it.Prev
		started = it.Last
	}

	if !started() {
		return out
	}
	for len(out) < n {
		lvl := it.Value().(*Level)
		out = append(out, LevelView{Price: lvl.Price, Quantity: lvl.AggregateRemaining(), Orders: lvl.Count()})
		if !advance() {
			break
		}
	}
	return out
}

// CrossableQuantity walks the resting side opposite a hypothetical taker
// without mutating the book, summing how much quantity is reachable at
// acceptable prices, stopping early once the running total reaches
// target. unconstrained is true for a MARKET taker (no price check); for
// a priced taker, cross reports whether takerPrice may trade against a
// given resting price. This is the FOK dry-run's non-destructive
// simulation (spec.md §4.5.5, §9 redesign note 3) — it is a read-only
// traversal of the live structure, never a deep copy of the book.
func (b *Book) CrossableQuantity(restingSide order.Side, unconstrained bool, cross func(restingPrice clobdecimal.Decimal) bool, target clobdecimal.Decimal) clobdecimal.Decimal {
	tree := b.treeFor(restingSide)
	it := tree.Iterator()

	advance := it.Next
	started := it.First
	if restingSide == order.SideBuy {
		advance = it.Prev
		started = it.Last
	}

	total := clobdecimal.Zero
	if !started() {
		return total
	}
	for {
		lvl := it.Value().(*Level)
		if !unconstrained && !cross(lvl.Price) {
			break
		}
		total = total.Add(lvl.AggregateRemaining())
		if total.GreaterThanOrEqual(target) {
			return total
		}
		if !advance() {
			break
		}
	}
	return total
}
