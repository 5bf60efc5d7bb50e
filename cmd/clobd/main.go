package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abdoElHodaky/clob-core/internal/clob/engine"
	"github.com/abdoElHodaky/clob-core/internal/clob/module"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	app := fx.New(
		fx.Supply(logger),
		module.Module,
		fx.Invoke(func(eng *engine.Engine) {
			health := eng.Health()
			logger.Info("matching core started",
				zap.Int("active_symbols", health.ActiveSymbols),
				zap.Uint64("orders_processed", health.OrdersProcessed),
			)
		}),
	)

	app.Run()
}
