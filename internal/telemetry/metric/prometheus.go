// Package metric provides Prometheus metrics for the Foxy server.
package metric

import (
	"bytes"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

const namespace = "foxy"

// TextContentType is the content type of WriteText output.
const TextContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Connection metrics
	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	ConnectionsRejected prometheus.Counter
	AcceptErrors        prometheus.Counter

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ParseErrors     *prometheus.CounterVec
	HandlerFailures prometheus.Counter

	// Session metrics
	SessionsActive    prometheus.Gauge
	SessionsCreated   *prometheus.CounterVec
	SessionsExpired   prometheus.Counter
	SessionsLoggedOut prometheus.Counter
	LoginFailures     prometheus.Counter
}

// NewRegistry creates a registry with every metric registered, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connections", Name: "accepted_total",
			Help: "Connections accepted by the listener.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "connections", Name: "active",
			Help: "Connections currently being processed.",
		}),
		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connections", Name: "rejected_total",
			Help: "Connections closed by the accept rate limiter.",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "connections", Name: "accept_errors_total",
			Help: "Socket errors returned by accept.",
		}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "requests", Name: "total",
			Help: "Requests answered, by verb and status code.",
		}, []string{"verb", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "requests", Name: "duration_seconds",
			Help:    "Time from accept to response written.",
			Buckets: prometheus.DefBuckets,
		}, []string{"verb"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "requests", Name: "parse_errors_total",
			Help: "Requests rejected by the parser, by reason.",
		}, []string{"reason"}),
		HandlerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "requests", Name: "handler_failures_total",
			Help: "Path handler failures answered with status 500.",
		}),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "sessions", Name: "active",
			Help: "Sessions held in the session table.",
		}),
		SessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sessions", Name: "created_total",
			Help: "Sessions created, by kind (guest, login).",
		}, []string{"kind"}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sessions", Name: "expired_total",
			Help: "Sessions evicted after expiring.",
		}),
		SessionsLoggedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sessions", Name: "logged_out_total",
			Help: "Sessions removed by logout.",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sessions", Name: "login_failures_total",
			Help: "Login attempts that did not produce a session.",
		}),
	}

	r.registry.MustRegister(
		r.ConnectionsAccepted, r.ConnectionsActive, r.ConnectionsRejected, r.AcceptErrors,
		r.RequestsTotal, r.RequestDuration, r.ParseErrors, r.HandlerFailures,
		r.SessionsActive, r.SessionsCreated, r.SessionsExpired, r.SessionsLoggedOut, r.LoginFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Registerer lets other components register their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteText writes every metric family in the Prometheus text format.
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Text returns WriteText output as bytes.
func (r *Registry) Text() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
