package tracing

import (
	"go.uber.org/fx"

	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
	"pump_screener/pkg/tracing"
)

// Module включает jaeger, если tracing.enabled. Без него остаётся
// глобальный noop-трейсер opentracing.
func Module() fx.Option {
	return fx.Module("tracing",
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if !cfg.Tracing.Enabled {
				return nil
			}
			_, closer, err := tracing.InitTracer(tracing.Config{
				ServiceName: "pump_screener",
				Host:        cfg.Tracing.Host,
				Port:        cfg.Tracing.Port,
				SampleRate:  cfg.Tracing.SampleRate,
			})
			if err != nil {
				return err
			}
			logger.Info("[TRACE] jaeger agent %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
			lc.Append(fx.StopHook(closer))
			return nil
		}),
	)
}
