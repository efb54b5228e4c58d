package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/actor"
	"github.com/codewandler/actr-go/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	actorsActive          prometheus.Gauge
	actorsStopped         *prometheus.CounterVec
	messageDuration       *prometheus.HistogramVec
	messagesTotal         *prometheus.CounterVec
	panicTotal            *prometheus.CounterVec
	deadLettersTotal      *prometheus.CounterVec
	mailboxDepth          *prometheus.GaugeVec
	schedulerInflight     *prometheus.GaugeVec
	schedulerTaskDuration prometheus.Histogram
	schedulerTasksTotal   *prometheus.CounterVec
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics.
// The system only reports through it when Config.MetricsEnabled is set.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		actorsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "actr_actors_active",
			Help: "Number of running actors",
		}),

		actorsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actors_stopped_total",
			Help: "Total number of stopped actors",
		}, []string{"panicked"}),

		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actr_actor_message_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"message_type", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actor_panics_total",
			Help: "Total number of handler panics",
		}, []string{"message_type"}),

		deadLettersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_dead_letters_total",
			Help: "Total number of undeliverable messages",
		}, []string{"message_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor_id"}),

		schedulerInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_actor_scheduler_inflight",
			Help: "Number of concurrent scheduled tasks",
		}, []string{"actor_id"}),

		schedulerTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actr_actor_scheduler_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: defaultBuckets,
		}),

		schedulerTasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actor_scheduler_tasks_total",
			Help: "Total number of scheduled tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.actorsActive,
		m.actorsStopped,
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.deadLettersTotal,
		m.mailboxDepth,
		m.schedulerInflight,
		m.schedulerTaskDuration,
		m.schedulerTasksTotal,
	)

	return m
}

func (m *actorMetrics) ActorSpawned() { m.actorsActive.Inc() }

func (m *actorMetrics) ActorStopped(panicked bool) {
	m.actorsActive.Dec()
	m.actorsStopped.WithLabelValues(boolToStr(panicked)).Inc()
}

func (m *actorMetrics) MessageDuration(msgType string) metrics.Timer {
	return metrics.NewTimer(m.messageDuration.WithLabelValues(msgType))
}

func (m *actorMetrics) MessageProcessed(msgType string, success bool) {
	m.messagesTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessagePanic(msgType string) {
	m.panicTotal.WithLabelValues(msgType).Inc()
}

func (m *actorMetrics) DeadLetter(msgType string) {
	m.deadLettersTotal.WithLabelValues(msgType).Inc()
}

func (m *actorMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

func (m *actorMetrics) SchedulerInflight(actorID string, count int) {
	m.schedulerInflight.WithLabelValues(actorID).Set(float64(count))
}

func (m *actorMetrics) SchedulerTaskDuration() metrics.Timer {
	return metrics.NewTimer(m.schedulerTaskDuration)
}

func (m *actorMetrics) SchedulerTaskCompleted(success bool) {
	m.schedulerTasksTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
