package openlibrary

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
	outcomeStale  = "stale"
)

type Metrics struct {
	Searches *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookshelf_search_requests_total",
				Help: "Open Library title searches by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.Searches)
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}
