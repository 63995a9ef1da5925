package main

import (
	"context"

	"go.uber.org/fx"

	"pump_screener/internal/modules/audit"
	"pump_screener/internal/modules/binance_websocket"
	"pump_screener/internal/modules/bootstrap"
	"pump_screener/internal/modules/config"
	"pump_screener/internal/modules/dashboard"
	"pump_screener/internal/modules/health"
	"pump_screener/internal/modules/postgres"
	"pump_screener/internal/modules/screener"
	"pump_screener/internal/modules/signal_bus"
	"pump_screener/internal/modules/storage"
	telegram "pump_screener/internal/modules/telegram_bot"
	"pump_screener/internal/modules/tracing"
)

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		// config первым: он поднимает логгер
		config.Module(),
		tracing.Module(),
		postgres.Module(),
		storage.Module(),
		audit.Module(),
		screener.Module(),
		health.Module(),
		dashboard.Module(),
		telegram.Module(),
		signal_bus.Module(),
		bootstrap.Module(),
		binance_websocket.Module(),
	)
	app.Run()
}
