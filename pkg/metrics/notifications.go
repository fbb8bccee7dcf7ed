package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Derivation pass names used as the "pass" label.
const (
	PassMeal  = "meal"
	PassGoal  = "goal"
	PassFetch = "fetch"
)

// NotificationMetrics records derivation passes and store decisions.
type NotificationMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
	toasts   *prometheus.CounterVec
}

// NewNotificationMetrics registers the notification metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_pass_duration_seconds",
		Help:    "Duration of notification derivation passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_pass_success",
		Help: "Derivation passes that completed without a read failure.",
	}, []string{"pass"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_pass_failure",
		Help: "Derivation passes aborted by a read failure.",
	}, []string{"pass"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_accepted_total",
		Help: "Notifications accepted by the store.",
	}, []string{"type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_rejected_total",
		Help: "Notification candidates rejected as duplicates.",
	}, []string{"type"})
	toasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_toasts_total",
		Help: "Toast signals delivered, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, success, failure, accepted, rejected, toasts)
	return &NotificationMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		accepted: accepted,
		rejected: rejected,
		toasts:   toasts,
	}
}

// ObservePass records the duration and outcome of a derivation pass.
func (m *NotificationMetrics) ObservePass(pass string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	label := normalizeLabel(pass)
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		m.failure.WithLabelValues(label).Inc()
		return
	}
	m.success.WithLabelValues(label).Inc()
}

// IncAccepted counts a notification the store accepted.
func (m *NotificationMetrics) IncAccepted(notificationType string) {
	if m == nil || m.accepted == nil {
		return
	}
	m.accepted.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

// IncRejected counts a candidate the store rejected.
func (m *NotificationMetrics) IncRejected(notificationType string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

// IncToast counts a toast delivery; failed toasts are labeled "error".
func (m *NotificationMetrics) IncToast(err error) {
	if m == nil || m.toasts == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.toasts.WithLabelValues(outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
