package reqray

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCallTreeCollector exports finished call trees as Prometheus
// counters, one series per call path. The call_path label joins the
// span names from the root down, e.g. "request/nested/repeated".
type MetricsCallTreeCollector struct {
	calls       *prometheus.CounterVec
	busySeconds *prometheus.CounterVec
	ownSeconds  *prometheus.CounterVec
}

// NewMetricsCallTreeCollector creates a metrics processor and registers
// its collectors with reg, e.g. prometheus.DefaultRegisterer.
func NewMetricsCallTreeCollector(reg prometheus.Registerer) *MetricsCallTreeCollector {
	m := &MetricsCallTreeCollector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reqray_calls_total",
			Help: "Number of spans created per call path.",
		}, []string{"call_path"}),
		busySeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reqray_busy_seconds_total",
			Help: "Seconds spans were entered per call path, child time included.",
		}, []string{"call_path"}),
		ownSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reqray_own_busy_seconds_total",
			Help: "Seconds spans were entered per call path, child time excluded.",
		}, []string{"call_path"}),
	}
	reg.MustRegister(m.calls, m.busySeconds, m.ownSeconds)
	return m
}

// ProcessFinishedCall adds the tree's aggregates to the exported
// counters.
func (m *MetricsCallTreeCollector) ProcessFinishedCall(pool *CallPathPool) {
	// Parents are appended to the pool before their children, so one
	// forward pass can build every path from its parent's.
	paths := make([]string, pool.Len())
	for i := 0; i < pool.Len(); i++ {
		node := pool.At(CallPathID(i))
		if parent, ok := node.Parent(); ok {
			paths[i] = paths[parent] + "/" + node.Metadata().Name
		} else {
			paths[i] = node.Metadata().Name
		}

		m.calls.WithLabelValues(paths[i]).Add(float64(node.CallCount()))
		m.busySeconds.WithLabelValues(paths[i]).Add(node.SumWithChildren().Seconds())
		m.ownSeconds.WithLabelValues(paths[i]).Add(node.SumWithoutChildren().Seconds())
	}
}
