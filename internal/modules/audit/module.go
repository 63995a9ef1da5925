package audit

import (
	"context"

	"go.uber.org/fx"

	"pump_screener/internal/modules/audit/service"
	"pump_screener/internal/modules/config"
	screener "pump_screener/internal/modules/screener/service"
	"pump_screener/pkg/db"
	"pump_screener/pkg/logger"
)

func newCSV(cfg *config.Config) *service.CSV {
	return service.NewCSV(cfg.Audit.Dir, cfg.Audit.FilePrefix)
}

// newAuditLog - CSV всегда, Postgres только если задан DSN.
func newAuditLog(lc fx.Lifecycle, csv *service.CSV, pg *db.PgTxManager) screener.AuditLog {
	if err := csv.EnsureHeader(); err != nil {
		logger.Error("[AUDIT] init csv: %v", err)
	}
	if pg == nil {
		return service.NewMulti(csv)
	}

	mirror := service.NewPostgres(pg, 4096)
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := mirror.Migrate(ctx); err != nil {
				return err
			}
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			mirror.Start(runCtx)
			logger.Info("[AUDIT] postgres mirror started")
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
				mirror.Wait()
			}
			return nil
		},
	})
	return service.NewMulti(csv, mirror)
}

func Module() fx.Option {
	return fx.Module("audit",
		fx.Provide(
			newCSV,
			newAuditLog,
		),
	)
}
