package catalog

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Books          prometheus.Gauge
	SnapshotWrites *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Books: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookshelf_books",
			Help: "Records currently in the catalog",
		}),
		SnapshotWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookshelf_snapshot_writes_total",
				Help: "Snapshot writes by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.Books, m.SnapshotWrites)
	return m
}

func (m *Metrics) observeWrite(err error) {
	if err != nil {
		m.SnapshotWrites.WithLabelValues("error").Inc()
		return
	}
	m.SnapshotWrites.WithLabelValues("ok").Inc()
}
