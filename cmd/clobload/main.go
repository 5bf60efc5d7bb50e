// Command clobload is a synthetic order generator for exercising a
// matching engine by hand: it submits alternating buy/sell limit orders
// in-process and reports throughput and latency percentiles, in the
// spirit of the teacher's cmd/benchmark tooling.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobid"
	"github.com/abdoElHodaky/clob-core/internal/clob/engine"
	"github.com/abdoElHodaky/clob-core/internal/clob/fees"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

func main() {
	symbol := flag.String("symbol", "BTC-USD", "symbol to trade against")
	numOrders := flag.Int("orders", 10000, "number of orders to submit")
	basePrice := flag.Float64("price", 50000, "center price orders are generated around")
	spread := flag.Float64("spread", 100, "price jitter range around the center price")
	seed := flag.Int64("seed", 1, "random seed, for reproducible runs")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	calc := fees.NewCalculator(nil, "USD", 8)
	eng := engine.New(engine.DefaultConfig(), logger, calc, clobid.NewGenerator(), nil, nil, nil)

	rng := rand.New(rand.NewSource(*seed))
	latencies := make([]time.Duration, 0, *numOrders)

	start := time.Now()
	var trades int
	for i := 0; i < *numOrders; i++ {
		side := order.SideBuy
		if i%2 == 1 {
			side = order.SideSell
		}
		jitter := (rng.Float64()*2 - 1) * *spread
		price := clobdecimal.MustParse(fmt.Sprintf("%.2f", *basePrice+jitter))
		qty := clobdecimal.MustParse(fmt.Sprintf("%.4f", 0.1+rng.Float64()*0.9))

		t0 := time.Now()
		resp := eng.Submit(engine.SubmitRequest{
			Symbol:   *symbol,
			Type:     order.TypeLimit,
			Side:     side,
			HasPrice: true,
			Price:    price,
			Quantity: qty,
		})
		latencies = append(latencies, time.Since(t0))
		trades += len(resp.Trades)
	}
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	health := eng.Health()

	logger.Info("load run complete",
		zap.Int("orders", *numOrders),
		zap.Int("trades", trades),
		zap.Duration("elapsed", elapsed),
		zap.Float64("orders_per_second", float64(*numOrders)/elapsed.Seconds()),
		zap.Duration("p50_latency", percentile(latencies, 0.50)),
		zap.Duration("p99_latency", percentile(latencies, 0.99)),
		zap.Int("active_orders", health.ActiveOrders),
	)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
