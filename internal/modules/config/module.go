package config

import (
	"pump_screener/pkg/logger"

	"go.uber.org/fx"
)

// Module регистрирует конфиг и поднимает логгер по его уровню.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *Config) error {
			logger.SetServiceName("pump_screener")
			if err := logger.Init(cfg.Logging.Level); err != nil {
				return err
			}
			lc.Append(fx.StopHook(logger.Sync))
			return nil
		}),
	)
}
