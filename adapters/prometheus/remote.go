package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/metrics"
	"github.com/codewandler/actr-go/core/remote"
)

// remoteMetrics implements remote.RemoteMetrics using Prometheus.
type remoteMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	notifiesTotal   *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	handlersTotal   *prometheus.CounterVec
	handlersActive  *prometheus.GaugeVec
}

// NewRemoteMetrics creates a new Prometheus implementation of RemoteMetrics.
func NewRemoteMetrics(reg prometheus.Registerer) remote.RemoteMetrics {
	m := &remoteMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actr_remote_request_duration_seconds",
			Help:    "Outbound request latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_remote_requests_total",
			Help: "Total number of outbound requests",
		}, []string{"message_type", "success"}),

		notifiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_remote_notifies_total",
			Help: "Total number of outbound fire-and-forget messages",
		}, []string{"message_type", "success"}),

		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_remote_transport_errors_total",
			Help: "Total number of transport errors",
		}, []string{"error_type"}),

		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actr_remote_handler_duration_seconds",
			Help:    "Inbound delivery time in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		handlersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_remote_handlers_total",
			Help: "Total number of inbound envelopes handled",
		}, []string{"message_type", "success"}),

		handlersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_remote_handlers_active",
			Help: "Number of concurrent inbound handlers",
		}, []string{"address"}),
	}

	reg.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.notifiesTotal,
		m.transportErrors,
		m.handlerDuration,
		m.handlersTotal,
		m.handlersActive,
	)

	return m
}

func (m *remoteMetrics) RequestDuration(msgType string) metrics.Timer {
	return metrics.NewTimer(m.requestDuration.WithLabelValues(msgType))
}

func (m *remoteMetrics) RequestCompleted(msgType string, success bool) {
	m.requestsTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *remoteMetrics) NotifyCompleted(msgType string, success bool) {
	m.notifiesTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *remoteMetrics) TransportError(errorType string) {
	m.transportErrors.WithLabelValues(errorType).Inc()
}

func (m *remoteMetrics) HandlerDuration(msgType string) metrics.Timer {
	return metrics.NewTimer(m.handlerDuration.WithLabelValues(msgType))
}

func (m *remoteMetrics) HandlerCompleted(msgType string, success bool) {
	m.handlersTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *remoteMetrics) HandlersActive(address string, count int) {
	m.handlersActive.WithLabelValues(address).Set(float64(count))
}

var _ remote.RemoteMetrics = (*remoteMetrics)(nil)
