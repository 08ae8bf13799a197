// Package metrics exposes Prometheus metrics for the API and the reminder sweep.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is implemented by Collector. A nil *Collector records nothing.
type Recorder interface {
	RecordSweep(duration time.Duration, err error)
	RecordReminderSent()
	RecordReminderFailed(reason string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector holds the Prometheus metrics of the service.
type Collector struct {
	sweeps          *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	remindersSent   prometheus.Counter
	remindersFailed *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_reminder_sweeps_total",
			Help: "Reminder sweeps by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskboard_reminder_sweep_duration_seconds",
			Help:    "Duration of reminder sweeps.",
			Buckets: prometheus.DefBuckets,
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_reminders_sent_total",
			Help: "Reminder notifications sent.",
		}),
		remindersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_reminders_failed_total",
			Help: "Reminder notifications that could not be sent.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.sweeps,
		c.sweepDuration,
		c.remindersSent,
		c.remindersFailed,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// RecordSweep records a finished sweep.
func (c *Collector) RecordSweep(duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.sweeps.WithLabelValues(result).Inc()
	c.sweepDuration.Observe(duration.Seconds())
}

// RecordReminderSent counts a delivered reminder.
func (c *Collector) RecordReminderSent() {
	if c == nil {
		return
	}
	c.remindersSent.Inc()
}

// RecordReminderFailed counts a reminder that was skipped.
func (c *Collector) RecordReminderFailed(reason string) {
	if c == nil {
		return
	}
	c.remindersFailed.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records one served request. route is the matched route
// pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
