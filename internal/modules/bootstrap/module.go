package bootstrap

import (
	"context"
	"time"

	"go.uber.org/fx"

	bootstrap "pump_screener/internal/modules/bootstrap/service"
	"pump_screener/internal/modules/config"
	screener "pump_screener/internal/modules/screener/service"
	"pump_screener/pkg/logger"
)

// Module - опциональный прогрев якорей до подключения к стриму.
// Должен стоять раньше binance_websocket.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(cfg *config.Config, engine *screener.Engine) *bootstrap.Warmuper {
				return bootstrap.NewWarmuper(cfg, engine)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, wu *bootstrap.Warmuper) {
			if !cfg.Binance.Warmup {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
					defer cancel()

					n, err := wu.Warmup(ctx)
					if err != nil {
						// стрим засеет якоря сам
						logger.Warn("[BOOT] warmup error: %v", err)
						return nil
					}
					logger.Info("[BOOT] warmup done: %d tickers", n)
					return nil
				},
			})
		}),
	)
}
