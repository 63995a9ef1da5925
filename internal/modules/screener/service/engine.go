package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"

	"pump_screener/internal/metrics"
	"pump_screener/internal/models"
	"pump_screener/internal/modules/config"
	"pump_screener/pkg/logger"
)

// Engine - детектор сигналов. Батчи обрабатываются строго по одному,
// админские операции берут лок только своего ресурса.
type Engine struct {
	filters  *FilterStore
	lists    *ListStore
	anchors  *AnchorTable
	coverage *Coverage
	history  *History

	sink  Sink
	audit AuditLog

	queue  chan []models.RawTicker
	procMu sync.Mutex
	now    func() time.Time

	// выброшенные батчи с последнего предупреждения в лог
	dropped     atomic.Int64
	lastDropLog atomic.Int64
}

// dropLogEvery - не чаще одного предупреждения о переполнении за период.
const dropLogEvery = 10 * time.Second

func NewEngine(cfg *config.Config, filters *FilterStore, lists *ListStore, sink Sink, audit AuditLog) *Engine {
	if sink == nil {
		sink = Fanout(nil)
	}
	if audit == nil {
		audit = nopAudit{}
	}
	queueSize := cfg.Binance.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	return &Engine{
		filters:  filters,
		lists:    lists,
		anchors:  NewAnchorTable(),
		coverage: NewCoverage(),
		history:  NewHistory(cfg.History.MaxEvents),
		sink:     sink,
		audit:    audit,
		queue:    make(chan []models.RawTicker, queueSize),
		now:      time.Now,
	}
}

// Submit ставит батч в очередь на обработку. Транспорт не ждёт:
// при переполненной очереди батч выбрасывается.
func (e *Engine) Submit(batch []models.RawTicker) bool {
	if len(batch) == 0 {
		return false
	}
	select {
	case e.queue <- batch:
		return true
	default:
		e.noteDrop(len(batch))
		return false
	}
}

func (e *Engine) noteDrop(size int) {
	metrics.BatchesDropped.Inc()
	e.dropped.Add(1)

	now := e.now().UnixNano()
	last := e.lastDropLog.Load()
	if last != 0 && now-last < int64(dropLogEvery) {
		return
	}
	if !e.lastDropLog.CompareAndSwap(last, now) {
		return
	}
	logger.Warn("[ENGINE] queue full, dropped %d batches since last report (last one %d tickers)", e.dropped.Swap(0), size)
}

// Run - единственный цикл обработки батчей.
func (e *Engine) Run(ctx context.Context) {
	logger.Info("[ENGINE] ingest loop started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("[ENGINE] ingest loop stopped")
			return
		case batch := <-e.queue:
			e.Process(ctx, batch)
		}
	}
}

// RunCoverage периодически публикует снимок покрытия.
func (e *Engine) RunCoverage(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.sink.OnCoverageTick(ctx, e.CoverageSnapshot())
		}
	}
}

// Process прогоняет батч через фильтры и детекторы и возвращает
// события в порядке эмиссии. Все события батча имеют одно время.
func (e *Engine) Process(ctx context.Context, batch []models.RawTicker) []models.SignalEvent {
	if len(batch) == 0 {
		return nil
	}

	e.procMu.Lock()
	defer e.procMu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "screener.process_batch")
	defer span.Finish()
	span.SetTag("tickers", len(batch))

	at := e.now()
	cfg := e.filters.Get()
	lists := e.lists.View()

	var events []models.SignalEvent
	for _, raw := range batch {
		t, ok := admit(raw, cfg, lists, e.coverage)
		if !ok {
			continue
		}
		evs := e.anchors.Evaluate(t, cfg, newTickMeta(t, at))
		for _, ev := range evs {
			e.appendAudit(ctx, auditRecord(ev))
		}
		events = append(events, evs...)
	}
	metrics.TickersTotal.Add(float64(len(batch)))
	span.SetTag("events", len(events))

	e.publish(ctx, events)
	return events
}

func (e *Engine) publish(ctx context.Context, events []models.SignalEvent) {
	if len(events) == 0 {
		return
	}
	e.history.Push(events)
	for _, ev := range events {
		e.sink.OnSignal(ctx, ev)
		if ev.Alert {
			e.sink.OnAlert(ctx, ev.Symbol, fmt.Sprintf("PUMP %dx", ev.Streak))
		}
	}
}

// appendAudit: ошибка записи не должна ломать обработку тикеров.
func (e *Engine) appendAudit(ctx context.Context, rec models.AuditRecord) {
	if err := e.audit.Append(ctx, rec); err != nil {
		metrics.AuditErrors.Inc()
		logger.Error("[AUDIT] append error: %v", err)
	}
}

// ConnectionStatus пробрасывает здоровье транспорта подписчикам.
func (e *Engine) ConnectionStatus(ctx context.Context, st models.ConnectionStatus) {
	e.sink.OnConnectionStatus(ctx, st)
}

// ResetSession чистит историю, счётчики и покрытие. Якоря и настройки
// остаются; в аудит пишется разделитель.
func (e *Engine) ResetSession(ctx context.Context) {
	e.procMu.Lock()
	defer e.procMu.Unlock()

	ts := e.now().Format(timeLayout)
	e.history.Clear()
	e.anchors.ResetStreaks()
	e.coverage.Reset()
	e.appendAudit(ctx, sessionRecord(ts))
	logger.Info("[ENGINE] session reset")
}

// ---- админский API ----

func (e *Engine) GetConfig() models.FilterConfig { return e.filters.Get() }

func (e *Engine) UpdateConfig(raw map[string]string) error { return e.filters.Update(raw) }

func (e *Engine) Lists() models.SymbolLists { return e.lists.Lists() }

func (e *Engine) AddToMonitor(ctx context.Context, sym string) error {
	return e.lists.AddToMonitor(ctx, sym)
}

func (e *Engine) RemoveFromMonitor(ctx context.Context, sym string) error {
	return e.lists.RemoveFromMonitor(ctx, sym)
}

func (e *Engine) AddToIgnore(ctx context.Context, sym string) error {
	return e.lists.AddToIgnore(ctx, sym)
}

func (e *Engine) RemoveFromIgnore(ctx context.Context, sym string) error {
	return e.lists.RemoveFromIgnore(ctx, sym)
}

func (e *Engine) CoverageSnapshot() models.CoverageSnapshot {
	snap := e.coverage.Snapshot()
	snap.MonitorCount, snap.IgnoreCount = e.lists.Counts()
	snap.Timestamp = e.now().Format(timeLayout)
	return snap
}

func (e *Engine) History() []models.SignalEvent { return e.history.Snapshot() }

// Anchor - копия состояния якорей символа.
func (e *Engine) Anchor(symbol string) (models.AnchorState, bool) {
	return e.anchors.Get(symbol)
}
