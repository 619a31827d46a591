// Package metrics exposes optional Prometheus instrumentation for the
// library (SPEC_FULL.md §6.7). ObserveDecodeError on a nil *Registry is a
// no-op; the module
// never starts its own HTTP server, the embedding application mounts
// Registry.Handler().
package metrics

import (
	"errors"
	"net/http"

	"github.com/nexosec/gosecs/pkg/secserr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every counter/gauge this library reports.
type Registry struct {
	reg *prometheus.Registry

	FramesSent       *prometheus.CounterVec
	FramesReceived   *prometheus.CounterVec
	PendingRequests  prometheus.Gauge
	Reconnects       prometheus.Counter
	LinktestFailures prometheus.Counter
	DecodeErrors     *prometheus.CounterVec
}

// New constructs a Registry with every metric registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gosecs_frames_sent_total",
			Help: "Frames sent, labeled by transport.",
		}, []string{"transport"}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gosecs_frames_received_total",
			Help: "Frames received, labeled by transport.",
		}, []string{"transport"}),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gosecs_pending_requests",
			Help: "Currently outstanding request/response pairs.",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gosecs_reconnects_total",
			Help: "HSMS auto-reconnect attempts.",
		}),
		LinktestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gosecs_linktest_failures_total",
			Help: "Consecutive linktest failures observed.",
		}),
		DecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gosecs_decode_errors_total",
			Help: "Decode errors, labeled by error taxonomy category.",
		}, []string{"category"}),
	}

	reg.MustRegister(
		r.FramesSent, r.FramesReceived, r.PendingRequests,
		r.Reconnects, r.LinktestFailures, r.DecodeErrors,
	)
	return r
}

// Handler returns an http.Handler serving this registry's metrics in the
// Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveDecodeError increments the decode-error counter for err's
// secserr.Category, if err is a *secserr.Error.
func (r *Registry) ObserveDecodeError(err error) {
	if r == nil || err == nil {
		return
	}
	category := "unknown"
	var e *secserr.Error
	if errors.As(err, &e) {
		category = string(e.Category)
	}
	r.DecodeErrors.WithLabelValues(category).Inc()
}
