package echoapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bainum/dashboard/core/access"
	"github.com/bainum/dashboard/core/session"
)

const metricsNamespace = "dashboard"

type metrics struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	workflow  *prometheus.CounterVec
}

func newMetrics(sessions *session.Manager) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "gate_decisions_total",
			Help:      "Access gate decisions, by outcome.",
		}, []string{"decision"}),
		workflow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_workflow_operations_total",
			Help:      "Upload-review workflow operations, by operation and result.",
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.workflow,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Live sessions held by this instance.",
		}, func() float64 { return float64(sessions.Len()) }),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeDecision(d access.Decision) {
	var label string
	switch d.(type) {
	case access.Loading:
		label = "loading"
	case access.Render:
		label = "render"
	case access.Redirect:
		label = "redirect"
	case access.Deny:
		label = "deny"
	}
	m.decisions.WithLabelValues(label).Inc()
}

func (m *metrics) observeWorkflow(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.workflow.WithLabelValues(op, result).Inc()
}
