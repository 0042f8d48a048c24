package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wall-inspector/internal/domain/port"
)

// Metrics метрики конвейера проверки в собственном реестре Prometheus
type Metrics struct {
	uploads       *prometheus.CounterVec
	detections    *prometheus.CounterVec
	unknownLabels *prometheus.CounterVec
	inference     prometheus.Histogram

	registry *prometheus.Registry
}

// New создаёт метрики и регистрирует их
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wall_inspector_uploads_total",
			Help: "Uploads handled, by outcome",
		}, []string{"outcome"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wall_inspector_detections_total",
			Help: "Reported detections, by label",
		}, []string{"label"}),
		unknownLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wall_inspector_unknown_labels_total",
			Help: "Detections whose label has no advisory",
		}, []string{"label"}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wall_inspector_inference_seconds",
			Help:    "Detector call duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	m.registry.MustRegister(m.uploads, m.detections, m.unknownLabels, m.inference)
	return m
}

func (m *Metrics) ObserveUpload(outcome string) {
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDetection(label string) {
	m.detections.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveUnknownLabel(label string) {
	m.unknownLabels.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveInference(d time.Duration) {
	m.inference.Observe(d.Seconds())
}

// Registry реестр метрик конвейера
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ port.PipelineMetrics = (*Metrics)(nil)
