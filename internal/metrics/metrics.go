package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes the review and queue counters
type Recorder struct {
	registry     *prometheus.Registry
	reviews      *prometheus.CounterVec
	reviewErrors *prometheus.CounterVec
	queueSize    *prometheus.GaugeVec
	reminders    *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordsrs",
			Name:      "reviews_total",
			Help:      "Reviews scheduled, by item kind and response quality.",
		}, []string{"kind", "outcome"}),
		reviewErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordsrs",
			Name:      "review_errors_total",
			Help:      "Reviews rejected, by item kind and reason.",
		}, []string{"kind", "reason"}),
		queueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wordsrs",
			Name:      "queue_size",
			Help:      "Size of the last due queue built, by policy.",
		}, []string{"policy"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordsrs",
			Name:      "reminders_total",
			Help:      "Reminder notifications, by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.reviews, r.reviewErrors, r.queueSize, r.reminders)
	return r
}

// ReviewScheduled counts a successful review
func (r *Recorder) ReviewScheduled(kind, outcome string) {
	if r == nil {
		return
	}
	r.reviews.WithLabelValues(kind, outcome).Inc()
}

// ReviewFailed counts a rejected review
func (r *Recorder) ReviewFailed(kind, reason string) {
	if r == nil {
		return
	}
	r.reviewErrors.WithLabelValues(kind, reason).Inc()
}

// QueueBuilt records the size of a due queue
func (r *Recorder) QueueBuilt(policy string, size int) {
	if r == nil {
		return
	}
	r.queueSize.WithLabelValues(policy).Set(float64(size))
}

// ReminderSent counts a reminder attempt
func (r *Recorder) ReminderSent(ok bool) {
	if r == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	r.reminders.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
