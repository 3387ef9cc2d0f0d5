package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solveit"

// Metrics process-wide collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	complaintsSubmitted *prometheus.CounterVec
	assignmentsMissed   *prometheus.CounterVec
	transitions         *prometheus.CounterVec
	escalations         *prometheus.CounterVec
	sweepOutcomes       *prometheus.CounterVec
	sweepDuration       prometheus.Histogram
	notificationsSent   *prometheus.CounterVec
	notificationsFailed *prometheus.CounterVec
	notificationsDrops  prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registers every collector on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		complaintsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complaints_submitted_total",
			Help:      "complaints submitted, by department and priority",
		}, []string{"department", "priority"}),
		assignmentsMissed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_missed_total",
			Help:      "complaints left pending because no eligible staff member was found",
		}, []string{"department"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "complaint_transitions_total",
			Help:      "complaint status transitions",
		}, []string{"from", "to"}),
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "complaints escalated, by the level reached",
		}, []string{"level"}),
		sweepOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalation_sweep_complaints_total",
			Help:      "complaints examined by escalation sweeps, by outcome",
		}, []string{"outcome"}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "escalation_sweep_duration_seconds",
			Help:      "wall time of one escalation sweep",
			Buckets:   prometheus.DefBuckets,
		}),
		notificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "notifications delivered, by kind",
		}, []string{"kind"}),
		notificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "notification deliveries that returned an error, by kind",
		}, []string{"kind"}),
		notificationsDrops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "notifications discarded because the delivery queue was full",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) ComplaintSubmitted(department, priority string) {
	if m == nil {
		return
	}
	m.complaintsSubmitted.WithLabelValues(department, priority).Inc()
}

func (m *Metrics) AssignmentMissed(department string) {
	if m == nil {
		return
	}
	m.assignmentsMissed.WithLabelValues(department).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Escalated(level string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(level).Inc()
}

// SweepFinished records one sweep's counts and duration
func (m *Metrics) SweepFinished(escalated, skipped, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.sweepOutcomes.WithLabelValues("escalated").Add(float64(escalated))
	m.sweepOutcomes.WithLabelValues("skipped").Add(float64(skipped))
	m.sweepOutcomes.WithLabelValues("failed").Add(float64(failed))
	m.sweepDuration.Observe(took.Seconds())
}

func (m *Metrics) NotificationSent(kind string) {
	if m == nil {
		return
	}
	m.notificationsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notificationsFailed.WithLabelValues(kind).Inc()
}

func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}
	m.notificationsDrops.Inc()
}

// HTTPRequest records one served request; route is the matched pattern, not the raw path
func (m *Metrics) HTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
