package signal_bus

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	"pump_screener/internal/modules/config"
	screenersvc "pump_screener/internal/modules/screener/service"
	"pump_screener/internal/modules/signal_bus/service"
	"pump_screener/pkg/logger"
)

type busOut struct {
	fx.Out

	Sink screenersvc.Sink `group:"sinks"`
}

// newBus поднимает redis-клиент. Без redis.addr подписчика нет:
// в группу уходит nil, Fanout его пропускает.
func newBus(lc fx.Lifecycle, cfg *config.Config) (busOut, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("[BUS] redis.addr is empty, signal bus disabled")
		return busOut{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	bus := service.NewBus(client, cfg.Redis.Channel, cfg.Redis.Keep)

	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return err
			}
			logger.Info("[BUS] connected to redis %s, channel %s", cfg.Redis.Addr, cfg.Redis.Channel)
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			bus.Start(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
				bus.Wait()
			}
			return client.Close()
		},
	})
	return busOut{Sink: bus}, nil
}

func Module() fx.Option {
	return fx.Module("signal_bus",
		fx.Provide(newBus),
	)
}
