package bench

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "syncbench"

// Metrics 每个阶段的耗时与操作数，注册在独立的 Registry 上
type Metrics struct {
	registry     *prometheus.Registry
	phaseSeconds *prometheus.GaugeVec
	operations   *prometheus.CounterVec
	phases       prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		phaseSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_seconds",
			Help:      "Wall-clock seconds of the last phase per primitive.",
		}, []string{"primitive"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Coordinated workload iterations completed per primitive.",
		}, []string{"primitive"}),
		phases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phases_total",
			Help:      "Phases recorded.",
		}),
	}
	m.registry.MustRegister(m.phaseSeconds, m.operations, m.phases)
	return m
}

func (m *Metrics) observe(name string, seconds float64, ops int) {
	m.phaseSeconds.WithLabelValues(name).Set(seconds)
	m.operations.WithLabelValues(name).Add(float64(ops))
	m.phases.Inc()
}

// Registry 供调用方注册额外的 collector
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteText 以 Prometheus 文本格式输出全部指标
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
