// Package metrics exposes the engine's counters for an external
// telemetry scraper. No HTTP handler is wired here — the scrape surface
// is out of scope (spec.md §1); callers that want one hand the registerer
// they passed to New to their own handler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
)

// Registry holds the engine-wide metric counters (spec.md §3 "Engine
// metrics"): orders_processed, trades_executed, total_volume, start_time.
type Registry struct {
	ordersProcessed prometheus.Counter
	tradesExecuted  prometheus.Counter
	totalVolume     prometheus.Counter
	startTime       prometheus.Gauge
}

// New registers the counters against reg. Pass prometheus.NewRegistry()
// for an isolated instance (tests, multiple engines in one process); with
// nil the counters are created but registered nowhere.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	r := &Registry{
		ordersProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "clob_orders_processed_total",
			Help: "Total number of order submissions processed.",
		}),
		tradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "clob_trades_executed_total",
			Help: "Total number of trades executed.",
		}),
		totalVolume: factory.NewCounter(prometheus.CounterOpts{
			Name: "clob_total_volume",
			Help: "Cumulative traded notional value (price * quantity) across all trades.",
		}),
		startTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clob_start_time_seconds",
			Help: "Unix timestamp at which the engine process started.",
		}),
	}
	r.startTime.Set(float64(time.Now().Unix()))
	return r
}

// OrderProcessed increments the orders_processed counter.
func (r *Registry) OrderProcessed() {
	r.ordersProcessed.Inc()
}

// TradeExecuted increments trades_executed and adds volume to
// total_volume.
func (r *Registry) TradeExecuted(volume clobdecimal.Decimal) {
	r.tradesExecuted.Inc()
	v, _ := volume.Float64()
	r.totalVolume.Add(v)
}
