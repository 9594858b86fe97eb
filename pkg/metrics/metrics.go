package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout and provisioning outcomes.
type CheckoutMetrics struct {
	duration  *prometheus.HistogramVec
	completed *prometheus.CounterVec
	warnings  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	completed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_completed_total",
		Help: "Checkout attempts by final outcome.",
	}, []string{"strategy", "outcome"})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provisioning_warnings_total",
		Help: "Non-fatal provisioning failures by stage.",
	}, []string{"stage"})
	reg.MustRegister(duration, completed, warnings)
	return &CheckoutMetrics{
		duration:  duration,
		completed: completed,
		warnings:  warnings,
	}
}

// ObserveDuration records the elapsed time of a checkout attempt.
func (c *CheckoutMetrics) ObserveDuration(strategy string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(strategy)).Observe(duration.Seconds())
}

// IncCompleted counts a finished checkout attempt.
func (c *CheckoutMetrics) IncCompleted(strategy, outcome string) {
	if c == nil || c.completed == nil {
		return
	}
	c.completed.WithLabelValues(normalizeLabel(strategy), normalizeLabel(outcome)).Inc()
}

// IncWarning counts a non-fatal provisioning failure (grant or report stage).
func (c *CheckoutMetrics) IncWarning(stage string) {
	if c == nil || c.warnings == nil {
		return
	}
	c.warnings.WithLabelValues(normalizeLabel(stage)).Inc()
}

// JobMetrics records metadata for scheduled jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewJobMetrics registers the worker job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of worker jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful worker job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed worker job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (j *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (j *JobMetrics) IncSuccess(job string) {
	if j == nil || j.success == nil {
		return
	}
	j.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (j *JobMetrics) IncFailure(job string) {
	if j == nil || j.failure == nil {
		return
	}
	j.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
