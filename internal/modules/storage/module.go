package storage

import (
	"go.uber.org/fx"

	"pump_screener/internal/modules/config"
	screener "pump_screener/internal/modules/screener/service"
	"pump_screener/internal/modules/storage/service"
)

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(
			func(cfg *config.Config) *service.Lists {
				return service.NewLists(cfg.Lists.Path)
			},
			func(l *service.Lists) screener.ListPersister { return l },
		),
	)
}
