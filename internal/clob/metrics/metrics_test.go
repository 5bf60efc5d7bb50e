package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
)

func TestRegistryCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.OrderProcessed()
	r.OrderProcessed()
	r.TradeExecuted(clobdecimal.MustParse("100"))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, f := range families {
		byName[f.GetName()] = f
	}

	assert.Contains(t, byName, "clob_orders_processed_total")
	assert.Equal(t, float64(2), byName["clob_orders_processed_total"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(1), byName["clob_trades_executed_total"].Metric[0].GetCounter().GetValue())
	assert.Equal(t, float64(100), byName["clob_total_volume"].Metric[0].GetCounter().GetValue())
}
