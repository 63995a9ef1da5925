package metrics

import (
	"context"

	"pump_screener/internal/models"
)

// Sink переводит события движка в метрики.
type Sink struct{}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) OnSignal(_ context.Context, ev models.SignalEvent) {
	SignalsTotal.WithLabelValues(string(ev.Kind)).Inc()
}

func (s *Sink) OnAlert(context.Context, string, string) {
	AlertsTotal.Inc()
}

func (s *Sink) OnCoverageTick(_ context.Context, snap models.CoverageSnapshot) {
	Coverage.WithLabelValues("seen").Set(float64(snap.SeenTotal))
	Coverage.WithLabelValues("eligible").Set(float64(snap.EligibleTotal))
	Coverage.WithLabelValues("filtered").Set(float64(snap.FilteredTotal))
}

func (s *Sink) OnConnectionStatus(_ context.Context, st models.ConnectionStatus) {
	if st.Status == models.ConnectionOK {
		WSConnected.Set(1)
		return
	}
	WSConnected.Set(0)
}
