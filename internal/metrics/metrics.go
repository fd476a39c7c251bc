// Package metrics exposes workflow and HTTP metrics for Prometheus scraping
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/woodcraft-crm/leadflow-api/internal/workflow"
)

const namespace = "leadflow"

// Metrics owns a private registry so tests can build independent instances
type Metrics struct {
	registry *prometheus.Registry

	transitions          *prometheus.CounterVec
	gateDecisions        *prometheus.CounterVec
	invalidationFailures *prometheus.CounterVec
	holdReminders        prometheus.Counter
	intentsSwept         prometheus.Counter
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Confirmed lead transitions by kind and outcome",
		}, []string{"kind", "outcome"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readiness_decisions_total",
			Help:      "Readiness gate evaluations by stage and verdict",
		}, []string{"stage", "allowed"}),
		invalidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidation_failures_total",
			Help:      "Cache patterns that could not be invalidated",
		}, []string{"pattern"}),
		holdReminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hold_reminders_sent_total",
			Help:      "Reminders created for on-hold leads past their due date",
		}),
		intentsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_expired_total",
			Help:      "Pending intents dropped by the sweep",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions,
		m.gateDecisions,
		m.invalidationFailures,
		m.holdReminders,
		m.intentsSwept,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) GateEvaluated(stage workflow.Stage, allowed bool) {
	m.gateDecisions.WithLabelValues(string(stage), strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) TransitionFinished(kind workflow.IntentKind, outcome workflow.FlowState) {
	m.transitions.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (m *Metrics) InvalidationFailed(pattern string) {
	m.invalidationFailures.WithLabelValues(pattern).Inc()
}

func (m *Metrics) HoldRemindersSent(n int) {
	m.holdReminders.Add(float64(n))
}

func (m *Metrics) IntentsSwept(n int) {
	m.intentsSwept.Add(float64(n))
}

// Middleware records request counts and latency keyed by the chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

var _ workflow.Observer = (*Metrics)(nil)
