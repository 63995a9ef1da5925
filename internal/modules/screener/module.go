package screener

import (
	"context"

	"go.uber.org/fx"

	"pump_screener/internal/metrics"
	"pump_screener/internal/modules/config"
	"pump_screener/internal/modules/screener/service"
)

type sinksIn struct {
	fx.In

	Sinks []service.Sink `group:"sinks"`
}

func newFanout(in sinksIn) service.Sink {
	return service.NewFanout(in.Sinks...)
}

// AsSink регистрирует конструктор как подписчика движка.
func AsSink(f any) any {
	return fx.Annotate(f, fx.As(new(service.Sink)), fx.ResultTags(`group:"sinks"`))
}

func Module() fx.Option {
	return fx.Module("screener",
		fx.Provide(
			service.NewFilterStore,
			func(ctx context.Context, p service.ListPersister) *service.ListStore {
				return service.NewListStore(ctx, p)
			},
			newFanout,
			service.NewEngine,
			AsSink(metrics.NewSink),
		),

		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, engine *service.Engine) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					// ctx хука живёт только на время старта
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					go engine.Run(ctx)
					go engine.RunCoverage(ctx, cfg.Coverage.Interval)
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
