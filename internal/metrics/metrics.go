package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TickersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "screener_tickers_total", Help: "Raw tickers received by the engine"},
	)
	BatchesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "screener_batches_dropped_total", Help: "Ticker batches dropped on a full ingest queue"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "screener_signals_total", Help: "Signals emitted"},
		[]string{"kind"},
	)
	AlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "screener_alerts_total", Help: "Pump alerts emitted"},
	)
	AuditErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "screener_audit_errors_total", Help: "Failed audit log appends"},
	)
	Coverage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "screener_coverage_symbols", Help: "Symbols seen/eligible/filtered in the current session"},
		[]string{"set"},
	)
	WSConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "screener_ws_connected", Help: "1 when the exchange stream is healthy"},
	)
	DashboardClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "screener_dashboard_clients", Help: "Connected dashboard websocket clients"},
	)
	DashboardDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "screener_dashboard_dropped_total", Help: "Dashboard messages dropped for slow clients"},
	)
)

func init() {
	prometheus.MustRegister(
		TickersTotal, BatchesDropped, SignalsTotal, AlertsTotal, AuditErrors,
		Coverage, WSConnected, DashboardClients, DashboardDropped,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
