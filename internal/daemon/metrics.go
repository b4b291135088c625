package daemon

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's Prometheus registry and instruments.
type Metrics struct {
	registry *prom.Registry

	WritesTotal         *prom.CounterVec
	WritesRejectedTotal prom.Counter
	BroadcastsTotal     prom.Counter
	ScheduleRunsTotal   prom.Counter
	SSEClients          prom.Gauge
}

// NewMetrics creates and registers all instruments on a fresh registry,
// including the standard go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		WritesTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "luxd", Name: "writes_total",
			Help: "Accepted state writes by origin",
		}, []string{"origin"}),
		WritesRejectedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxd", Name: "writes_rejected_total",
			Help: "Remote writes rejected by the lockout window",
		}),
		BroadcastsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxd", Name: "broadcasts_total",
			Help: "Lighting frames pushed to SSE subscribers",
		}),
		ScheduleRunsTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxd", Name: "schedule_runs_total",
			Help: "Schedule start/end firings executed",
		}),
		SSEClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "luxd", Name: "sse_clients",
			Help: "Currently connected SSE subscribers",
		}),
	}

	m.registry.MustRegister(
		m.WritesTotal, m.WritesRejectedTotal, m.BroadcastsTotal,
		m.ScheduleRunsTotal, m.SSEClients,
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the /metrics scrape handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
