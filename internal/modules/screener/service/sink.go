package service

import (
	"context"

	"pump_screener/internal/models"
	"pump_screener/pkg/logger"
)

// Sink - получатель событий движка. Реализации не должны блокировать:
// медленный подписчик теряет сообщения, а не тормозит обработку тикеров.
type Sink interface {
	OnSignal(ctx context.Context, ev models.SignalEvent)
	OnAlert(ctx context.Context, symbol, msg string)
	OnCoverageTick(ctx context.Context, snap models.CoverageSnapshot)
	OnConnectionStatus(ctx context.Context, st models.ConnectionStatus)
}

// AuditLog - append-only журнал сигналов.
type AuditLog interface {
	Append(ctx context.Context, rec models.AuditRecord) error
}

// Fanout раздаёт каждое событие всем синкам по очереди.
type Fanout []Sink

func NewFanout(sinks ...Sink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) OnSignal(ctx context.Context, ev models.SignalEvent) {
	for _, s := range f {
		guard("OnSignal", func() { s.OnSignal(ctx, ev) })
	}
}

func (f Fanout) OnAlert(ctx context.Context, symbol, msg string) {
	for _, s := range f {
		guard("OnAlert", func() { s.OnAlert(ctx, symbol, msg) })
	}
}

func (f Fanout) OnCoverageTick(ctx context.Context, snap models.CoverageSnapshot) {
	for _, s := range f {
		guard("OnCoverageTick", func() { s.OnCoverageTick(ctx, snap) })
	}
}

func (f Fanout) OnConnectionStatus(ctx context.Context, st models.ConnectionStatus) {
	for _, s := range f {
		guard("OnConnectionStatus", func() { s.OnConnectionStatus(ctx, st) })
	}
}

// guard глотает панику подписчика, движок продолжает работу.
func guard(op string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("[SINK] %s panic: %v", op, p)
		}
	}()
	fn()
}

type nopAudit struct{}

func (nopAudit) Append(context.Context, models.AuditRecord) error { return nil }
