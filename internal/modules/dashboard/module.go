package dashboard

import (
	"net/http"

	"go.uber.org/fx"

	"pump_screener/internal/modules/dashboard/service"
	"pump_screener/internal/modules/screener"
	screenersvc "pump_screener/internal/modules/screener/service"
)

// Module вешает API дашборда на общий http-мукс и подписывает хаб на движок.
func Module() fx.Option {
	return fx.Module("dashboard",
		fx.Provide(
			service.NewHub,
			screener.AsSink(func(h *service.Hub) *service.Hub { return h }),
			func(e *screenersvc.Engine, h *service.Hub) *service.API {
				return service.NewAPI(e, h)
			},
		),
		fx.Invoke(func(api *service.API, mux *http.ServeMux) {
			api.Register(mux)
		}),
	)
}
