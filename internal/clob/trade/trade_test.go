package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

func TestNewCarriesFeesAndComputesValue(t *testing.T) {
	now := time.Now()
	tr := New("TRD-1", now, "BTC-USD", clobdecimal.MustParse("100"), clobdecimal.MustParse("2"), order.SideBuy, "ORD-maker", "ORD-taker", Fees{
		MakerFee:    clobdecimal.MustParse("0.1"),
		TakerFee:    clobdecimal.MustParse("0.2"),
		FeeCurrency: "USD",
	})

	assert.Equal(t, "TRD-1", tr.ID)
	assert.Equal(t, "ORD-maker", tr.MakerOrderID)
	assert.Equal(t, "ORD-taker", tr.TakerOrderID)
	assert.True(t, tr.MakerFee.Equal(clobdecimal.MustParse("0.1")))
	assert.True(t, tr.TakerFee.Equal(clobdecimal.MustParse("0.2")))
	assert.Equal(t, "USD", tr.FeeCurrency)
	assert.True(t, tr.Value().Equal(clobdecimal.MustParse("200")))
}
