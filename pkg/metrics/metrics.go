package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	memberships    *prometheus.CounterVec
	attendanceMark *prometheus.CounterVec
	logins         *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubs",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clubs",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		memberships: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubs",
			Name:      "membership_events_total",
			Help:      "Join/leave attempts by outcome.",
		}, []string{"action", "result"}),
		attendanceMark: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubs",
			Name:      "attendance_marks_total",
			Help:      "Attendance mark attempts by outcome.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clubs",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.memberships,
		m.attendanceMark,
		m.logins,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// MembershipEvent records a join or leave outcome.
func (m *Metrics) MembershipEvent(action, result string) {
	if m == nil {
		return
	}
	m.memberships.WithLabelValues(action, result).Inc()
}

// AttendanceMarked records a markAttendance outcome.
func (m *Metrics) AttendanceMarked(result string) {
	if m == nil {
		return
	}
	m.attendanceMark.WithLabelValues(result).Inc()
}

// Login records a login outcome.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}
