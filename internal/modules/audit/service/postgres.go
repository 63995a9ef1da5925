package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"pump_screener/internal/models"
	"pump_screener/pkg/db"
	"pump_screener/pkg/logger"
)

const createAuditTable = `CREATE TABLE IF NOT EXISTS signal_audit (
	id           BIGSERIAL PRIMARY KEY,
	symbol       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	price        TEXT NOT NULL,
	change_pct   TEXT NOT NULL,
	change_24h   TEXT NOT NULL,
	vol_delta    TEXT NOT NULL,
	trades_delta TEXT NOT NULL,
	vol_24h      TEXT NOT NULL,
	trades_24h   TEXT NOT NULL,
	event_time   TEXT NOT NULL,
	message      TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const insertAudit = `INSERT INTO signal_audit
	(symbol, kind, price, change_pct, change_24h, vol_delta, trades_delta, vol_24h, trades_24h, event_time, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Postgres - зеркало аудит-лога в БД. Запись асинхронная: Append только
// кладёт строку в очередь, воркер пишет батчами в одной транзакции.
type Postgres struct {
	db    db.TxManager
	queue chan models.AuditRecord

	flushEvery time.Duration
	batchSize  int

	wg sync.WaitGroup
}

func NewPostgres(m db.TxManager, queueSize int) *Postgres {
	if queueSize < 1 {
		queueSize = 1024
	}
	return &Postgres{
		db:         m,
		queue:      make(chan models.AuditRecord, queueSize),
		flushEvery: time.Second,
		batchSize:  256,
	}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.Conn().Exec(ctx, createAuditTable)
	return errors.Wrap(err, "create signal_audit")
}

// Append не блокирует: при полной очереди строка теряется с ошибкой.
func (p *Postgres) Append(_ context.Context, rec models.AuditRecord) error {
	select {
	case p.queue <- rec:
		return nil
	default:
		return errors.New("postgres audit queue full")
	}
}

func (p *Postgres) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.loop(ctx)
	}()
}

func (p *Postgres) Wait() { p.wg.Wait() }

func (p *Postgres) loop(ctx context.Context) {
	t := time.NewTicker(p.flushEvery)
	defer t.Stop()

	buf := make([]models.AuditRecord, 0, p.batchSize)
	flush := func(ctx context.Context) {
		if len(buf) == 0 {
			return
		}
		if err := p.write(ctx, buf); err != nil {
			logger.Error("[AUDIT] postgres write %d rows: %v", len(buf), err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-ctx.Done():
			// дописываем то, что уже в очереди
			for {
				select {
				case rec := <-p.queue:
					buf = append(buf, rec)
				default:
					flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					flush(flushCtx)
					cancel()
					return
				}
			}
		case rec := <-p.queue:
			buf = append(buf, rec)
			if len(buf) >= p.batchSize {
				flush(ctx)
			}
		case <-t.C:
			flush(ctx)
		}
	}
}

func (p *Postgres) write(ctx context.Context, rows []models.AuditRecord) error {
	return p.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(insertAudit,
				r.Symbol, r.Type, r.Price, r.ChangePct, r.Change24h, r.VolDeltaUSD,
				r.TradesDelta, r.Vol24h, r.Trades24h, r.Time, r.Message,
			)
		}
		return tx.SendBatch(ctxTx, batch).Close()
	})
}
