package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

func TestBucketForClassification(t *testing.T) {
	assert.True(t, bucketFor(order.SideBuy, ConditionalStopLoss), "buy stop-loss fires on the way down")
	assert.True(t, bucketFor(order.SideBuy, ConditionalStopLimit), "buy stop-limit fires on the way down")
	assert.False(t, bucketFor(order.SideBuy, ConditionalTakeProfit), "buy take-profit fires on the way up")
	assert.False(t, bucketFor(order.SideSell, ConditionalStopLoss), "sell stop-loss fires on the way up")
	assert.True(t, bucketFor(order.SideSell, ConditionalTakeProfit), "sell take-profit fires on the way down")
}

func TestTriggerScanStopsAtFirstNonQualifyingEntry(t *testing.T) {
	r := newConditionalRegistry()

	mk := func(id string, side order.Side, kind ConditionalKind, trigger string) ConditionalOrder {
		return ConditionalOrder{
			OrderID:      id,
			Symbol:       "BTC-USD",
			Side:         side,
			Quantity:     clobdecimal.MustParse("1"),
			Kind:         kind,
			TriggerPrice: clobdecimal.MustParse(trigger),
		}
	}

	// Buy stop-losses at 90, 95, 99 (all fire when last price falls to/below trigger).
	r.Register(mk("c-90", order.SideBuy, ConditionalStopLoss, "90"))
	r.Register(mk("c-95", order.SideBuy, ConditionalStopLoss, "95"))
	r.Register(mk("c-99", order.SideBuy, ConditionalStopLoss, "99"))

	// last price falls to 96: only the 99 bucket qualifies (96 <= 99), not 95 or 90.
	fired := r.TriggerScan("BTC-USD", clobdecimal.MustParse("96"))
	require.Len(t, fired, 1)
	assert.Equal(t, "c-99", fired[0].OrderID)

	// the 99 entry was removed; a further scan at the same price fires nothing more.
	fired = r.TriggerScan("BTC-USD", clobdecimal.MustParse("96"))
	assert.Empty(t, fired)

	// dropping further to 94 now also fires the 95 bucket, but not the 90 one.
	fired = r.TriggerScan("BTC-USD", clobdecimal.MustParse("94"))
	require.Len(t, fired, 1)
	assert.Equal(t, "c-95", fired[0].OrderID)
}

func TestTriggerScanUnknownSymbolReturnsNil(t *testing.T) {
	r := newConditionalRegistry()
	assert.Nil(t, r.TriggerScan("NOPE-USD", clobdecimal.MustParse("1")))
}

func TestTriggerScanGroupsMultipleOrdersAtSameTrigger(t *testing.T) {
	r := newConditionalRegistry()
	r.Register(ConditionalOrder{OrderID: "a", Symbol: "ETH-USD", Side: order.SideSell, Kind: ConditionalTakeProfit, TriggerPrice: clobdecimal.MustParse("50")})
	r.Register(ConditionalOrder{OrderID: "b", Symbol: "ETH-USD", Side: order.SideSell, Kind: ConditionalTakeProfit, TriggerPrice: clobdecimal.MustParse("50")})

	fired := r.TriggerScan("ETH-USD", clobdecimal.MustParse("40"))
	require.Len(t, fired, 2)
}
