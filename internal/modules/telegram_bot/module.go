package telegram

import (
	"context"

	"go.uber.org/fx"

	"pump_screener/internal/modules/screener"
	"pump_screener/internal/modules/telegram_bot/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,
			screener.AsSink(func(t *service.Telegram) *service.Telegram { return t }),
		),
		// Запуск отправки через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				var cancel context.CancelFunc
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						var ctx context.Context
						ctx, cancel = context.WithCancel(context.Background())
						t.Start(ctx)
						return nil
					},
					OnStop: func(context.Context) error {
						if cancel != nil {
							cancel()
						}
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
