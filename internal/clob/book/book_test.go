package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

func mustOrder(t *testing.T, id string, side order.Side, price, qty string, seq uint64) *order.Order {
	t.Helper()
	o := order.New(id)
	err := o.Initialize("BTC-USD", side, order.TypeLimit, true, clobdecimal.MustParse(price), clobdecimal.MustParse(qty), "", seq, time.Unix(0, 0))
	require.NoError(t, err)
	return o
}

func TestAddAndBestPrice(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "100", "1", 1)))
	require.NoError(t, b.Add(mustOrder(t, "b2", order.SideBuy, "101", "1", 2)))
	require.NoError(t, b.Add(mustOrder(t, "a1", order.SideSell, "105", "1", 3)))
	require.NoError(t, b.Add(mustOrder(t, "a2", order.SideSell, "104", "1", 4)))

	bestBid, ok := b.BestPrice(order.SideBuy)
	require.True(t, ok)
	assert.True(t, bestBid.Equal(clobdecimal.MustParse("101")))

	bestAsk, ok := b.BestPrice(order.SideSell)
	require.True(t, ok)
	assert.True(t, bestAsk.Equal(clobdecimal.MustParse("104")))
}

func TestAddDuplicateIDRejected(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "100", "1", 1)))
	err := b.Add(mustOrder(t, "b1", order.SideBuy, "100", "1", 2))
	assert.Error(t, err)
}

func TestRemoveByIDIsO1AndDropsEmptyLevel(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "100", "1", 1)))

	removed, ok := b.Remove("b1")
	require.True(t, ok)
	assert.Equal(t, "b1", removed.ID)

	_, ok = b.BestPrice(order.SideBuy)
	assert.False(t, ok)

	_, ok = b.Remove("b1")
	assert.False(t, ok)
}

func TestFIFOWithinLevel(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "100", "1", 1)))
	require.NoError(t, b.Add(mustOrder(t, "b2", order.SideBuy, "100", "1", 2)))

	head, ok := b.BestOrder(order.SideBuy)
	require.True(t, ok)
	assert.Equal(t, "b1", head.ID)

	popped, ok := b.RemoveHead(order.SideBuy)
	require.True(t, ok)
	assert.Equal(t, "b1", popped.ID)

	head, ok = b.BestOrder(order.SideBuy)
	require.True(t, ok)
	assert.Equal(t, "b2", head.ID)
}

func TestBBOCacheAndSpread(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "100", "2", 1)))
	require.NoError(t, b.Add(mustOrder(t, "a1", order.SideSell, "102", "3", 2)))

	bbo := b.BBO()
	require.True(t, bbo.HasBid)
	require.True(t, bbo.HasAsk)
	require.True(t, bbo.HasSpread)
	assert.True(t, bbo.BestBidPrice.Equal(clobdecimal.MustParse("100")))
	assert.True(t, bbo.BestAskPrice.Equal(clobdecimal.MustParse("102")))
	assert.True(t, bbo.BestBidQty.Equal(clobdecimal.MustParse("2")))

	_, ok := b.Remove("b1")
	require.True(t, ok)
	bbo = b.BBO()
	assert.False(t, bbo.HasBid)
	assert.False(t, bbo.HasSpread)
}

func TestDepthOrdering(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "99", "1", 1)))
	require.NoError(t, b.Add(mustOrder(t, "b2", order.SideBuy, "101", "1", 2)))
	require.NoError(t, b.Add(mustOrder(t, "b3", order.SideBuy, "100", "1", 3)))
	require.NoError(t, b.Add(mustOrder(t, "a1", order.SideSell, "105", "1", 4)))
	require.NoError(t, b.Add(mustOrder(t, "a2", order.SideSell, "103", "1", 5)))

	bids, asks := b.Depth(10)
	require.Len(t, bids, 3)
	assert.True(t, bids[0].Price.Equal(clobdecimal.MustParse("101")))
	assert.True(t, bids[1].Price.Equal(clobdecimal.MustParse("100")))
	assert.True(t, bids[2].Price.Equal(clobdecimal.MustParse("99")))

	require.Len(t, asks, 2)
	assert.True(t, asks[0].Price.Equal(clobdecimal.MustParse("103")))
	assert.True(t, asks[1].Price.Equal(clobdecimal.MustParse("105")))
}

func TestDepthTruncatesToN(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "99", "1", 1)))
	require.NoError(t, b.Add(mustOrder(t, "b2", order.SideBuy, "101", "1", 2)))
	require.NoError(t, b.Add(mustOrder(t, "b3", order.SideBuy, "100", "1", 3)))

	bids, _ := b.Depth(2)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Price.Equal(clobdecimal.MustParse("101")))
	assert.True(t, bids[1].Price.Equal(clobdecimal.MustParse("100")))
}

func TestCrossableQuantityStopsEarlyAtTarget(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "a1", order.SideSell, "100", "2", 1)))
	require.NoError(t, b.Add(mustOrder(t, "a2", order.SideSell, "101", "5", 2)))

	takerPrice := clobdecimal.MustParse("101")
	cross := func(restingPrice clobdecimal.Decimal) bool {
		return restingPrice.LessThanOrEqual(takerPrice)
	}
	total := b.CrossableQuantity(order.SideSell, false, cross, clobdecimal.MustParse("3"))
	assert.True(t, total.GreaterThanOrEqual(clobdecimal.MustParse("3")))
}

func TestCrossableQuantityRespectsPriceBound(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "a1", order.SideSell, "100", "2", 1)))
	require.NoError(t, b.Add(mustOrder(t, "a2", order.SideSell, "110", "5", 2)))

	takerPrice := clobdecimal.MustParse("105")
	cross := func(restingPrice clobdecimal.Decimal) bool {
		return restingPrice.LessThanOrEqual(takerPrice)
	}
	total := b.CrossableQuantity(order.SideSell, false, cross, clobdecimal.MustParse("100"))
	assert.True(t, total.Equal(clobdecimal.MustParse("2")))
}

func TestCrossableQuantityUnconstrainedIgnoresPrice(t *testing.T) {
	b := New("BTC-USD")
	require.NoError(t, b.Add(mustOrder(t, "a1", order.SideSell, "100", "2", 1)))
	require.NoError(t, b.Add(mustOrder(t, "a2", order.SideSell, "500", "5", 2)))

	total := b.CrossableQuantity(order.SideSell, true, nil, clobdecimal.MustParse("100"))
	assert.True(t, total.Equal(clobdecimal.MustParse("7")))
}

func TestEmpty(t *testing.T) {
	b := New("BTC-USD")
	assert.True(t, b.Empty(order.SideBuy))
	require.NoError(t, b.Add(mustOrder(t, "b1", order.SideBuy, "100", "1", 1)))
	assert.False(t, b.Empty(order.SideBuy))
}
