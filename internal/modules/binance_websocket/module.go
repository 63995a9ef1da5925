package binance_websocket

import (
	"context"

	"go.uber.org/fx"

	"pump_screener/internal/modules/binance_websocket/service"
	"pump_screener/internal/modules/config"
	health "pump_screener/internal/modules/health/service"
	screener "pump_screener/internal/modules/screener/service"
)

// Module поднимает стример тикеров Binance и кормит им движок.
func Module() fx.Option {
	return fx.Module("binance_websocket",
		fx.Provide(
			func(cfg *config.Config, engine *screener.Engine, state *health.State) *service.Client {
				return service.NewClient(cfg, engine, state)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					go c.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					if cancel != nil {
						cancel()
					}
					return nil
				},
			})
		}),
	)
}
