package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EventingMetrics records outbox dispatch and consumer progress. The backlog
// gauge is the operational signal for permanently stuck unpublished rows.
type EventingMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	consumed  *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	backlog   prometheus.Gauge
}

// NewEventingMetrics registers the eventing metrics on the provided registerer.
func NewEventingMetrics(reg prometheus.Registerer) *EventingMetrics {
	if reg == nil {
		return &EventingMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox rows published to the bus.",
	}, []string{"topic"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed.",
	}, []string{"topic"})
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_consumed_total",
		Help: "Events applied by the consumer.",
	}, []string{"topic"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dropped_total",
		Help: "Events discarded as unknown, malformed, or duplicate.",
	}, []string{"reason"})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_backlog_depth",
		Help: "Unpublished outbox rows awaiting dispatch.",
	})
	reg.MustRegister(published, failed, consumed, dropped, backlog)
	return &EventingMetrics{
		published: published,
		failed:    failed,
		consumed:  consumed,
		dropped:   dropped,
		backlog:   backlog,
	}
}

func (m *EventingMetrics) IncPublished(topic string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic)).Inc()
}

func (m *EventingMetrics) IncPublishFailure(topic string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(topic)).Inc()
}

func (m *EventingMetrics) IncConsumed(topic string) {
	if m == nil || m.consumed == nil {
		return
	}
	m.consumed.WithLabelValues(normalizeLabel(topic)).Inc()
}

func (m *EventingMetrics) IncDropped(reason string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *EventingMetrics) SetBacklogDepth(depth int64) {
	if m == nil || m.backlog == nil {
		return
	}
	m.backlog.Set(float64(depth))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
