package postgres

import (
	"context"
	"fmt"

	"pump_screener/internal/modules/config"
	"pump_screener/pkg/db"
	"pump_screener/pkg/logger"

	"go.uber.org/fx"
)

// Module отдаёт *db.PgTxManager или nil, если DSN не задан:
// Postgres в этом сервисе опционален (зеркало аудит-лога).
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("[PG] db_dsn is empty, postgres audit mirror disabled")
					return nil, nil
				}
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN:      cfg.DB,
					MaxConns: 4,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					poolMaster.Close()
					return nil, err
				}

				m := db.NewPgTxManager(poolMaster)
				lc.Append(fx.StopHook(m.Close))
				return m, nil
			},
		),
	)
}
