// Package module wires the matching core's components into an fx
// application: logger, config, fee calculator, id generator, WAL,
// snapshot store, and engine, plus the lifecycle hooks that replay the
// WAL on start and drain/snapshot/flush on stop (spec.md §5).
package module

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobid"
	"github.com/abdoElHodaky/clob-core/internal/clob/engine"
	"github.com/abdoElHodaky/clob-core/internal/clob/fees"
	"github.com/abdoElHodaky/clob-core/internal/clob/metrics"
	"github.com/abdoElHodaky/clob-core/internal/clob/snapshot"
	"github.com/abdoElHodaky/clob-core/internal/clob/wal"
	"github.com/abdoElHodaky/clob-core/internal/config"
)

// Module provides every component the matching core needs for an fx
// application, following the teacher's internal/trading/order_matching
// Module shape.
var Module = fx.Options(
	fx.Provide(NewConfig),
	fx.Provide(NewPrometheusRegistry),
	fx.Provide(NewMetricsRegistry),
	fx.Provide(NewFeeCalculator),
	fx.Provide(clobid.NewGenerator),
	fx.Provide(NewWALWriter),
	fx.Provide(NewSnapshotStore),
	fx.Provide(NewEngine),
)

// NewConfig loads the process-wide Config.
func NewConfig() (*config.Config, error) {
	return config.LoadConfig("")
}

// NewPrometheusRegistry returns a fresh registry so repeated fx.New calls
// in the same test binary never collide on metric registration.
func NewPrometheusRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// NewMetricsRegistry adapts the Prometheus registry to the engine's
// Metrics interface.
func NewMetricsRegistry(reg *prometheus.Registry) *metrics.Registry {
	return metrics.New(reg)
}

// NewFeeCalculator parses cfg.FeeTiers into the decimal tier table the
// fees package expects.
func NewFeeCalculator(cfg *config.Config) (*fees.Calculator, error) {
	tiers := make(map[string]fees.Tier, len(cfg.FeeTiers))
	for name, t := range cfg.FeeTiers {
		maker, err := clobdecimal.Parse(t.MakerRate)
		if err != nil {
			return nil, err
		}
		taker, err := clobdecimal.Parse(t.TakerRate)
		if err != nil {
			return nil, err
		}
		tiers[name] = fees.Tier{MakerRate: maker, TakerRate: taker}
	}
	return fees.NewCalculator(tiers, cfg.FeeCurrency, cfg.FeePrecision), nil
}

// NewWALWriter opens the WAL file at cfg.WALPath with fsync-per-append,
// the safer of the two durability choices spec.md §9 leaves open.
func NewWALWriter(cfg *config.Config, logger *zap.Logger, lifecycle fx.Lifecycle) (*wal.Writer, error) {
	w, err := wal.Open(cfg.WALPath, wal.SyncAlways, 0, logger)
	if err != nil {
		return nil, err
	}
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return w.Close()
		},
	})
	return w, nil
}

// NewSnapshotStore builds the retention-bounded snapshot store.
func NewSnapshotStore(cfg *config.Config, logger *zap.Logger) *snapshot.Store {
	return snapshot.NewStore(cfg.SnapshotDir, cfg.SnapshotRetainN, logger)
}

// EngineParams groups the engine's dependencies as an fx.In struct,
// following the teacher's MetricsParams pattern.
type EngineParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	FeeCalc   *fees.Calculator
	IDs       *clobid.Generator
	WAL       *wal.Writer
	Metrics   *metrics.Registry
	Store     *snapshot.Store
	Lifecycle fx.Lifecycle
}

// NewEngine constructs the matching engine and registers the graceful
// startup/shutdown lifecycle: replay the WAL before serving, and on stop
// write a final snapshot before flushing the WAL closed.
func NewEngine(p EngineParams) (*engine.Engine, error) {
	engineCfg := engine.DefaultConfig()
	if maxQty, err := clobdecimal.Parse(p.Config.MaxOrderQuantity); err == nil {
		engineCfg.MaxOrderQuantity = maxQty
	}
	if maxPrice, err := clobdecimal.Parse(p.Config.MaxPrice); err == nil {
		engineCfg.MaxPrice = maxPrice
	}
	engineCfg.ConditionalCascadeCap = p.Config.ConditionalCascadeCap
	engineCfg.Symbols = p.Config.Symbols

	eng := engine.New(engineCfg, p.Logger, p.FeeCalc, p.IDs, p.WAL, p.Metrics, nil)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("replaying write-ahead log", zap.String("path", p.Config.WALPath))
			if err := wal.Replay(p.Config.WALPath, eng); err != nil {
				return err
			}
			p.Logger.Info("matching engine ready")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("draining and writing final snapshot")
			if _, err := p.Store.Save(eng); err != nil {
				p.Logger.Warn("final snapshot failed", zap.Error(err))
			}
			return nil
		},
	})

	return eng, nil
}
