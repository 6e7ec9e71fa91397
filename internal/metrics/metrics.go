// Package metrics defines the Prometheus collectors for MSL handshakes and
// requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HandshakeMetrics tracks handshake latency and failures.
type HandshakeMetrics struct {
	Latency *prometheus.HistogramVec // by outcome ("ok", "error")
	Errors  *prometheus.CounterVec   // by reason
}

// RequestMetrics tracks MSL round trips per endpoint.
type RequestMetrics struct {
	Requests *prometheus.CounterVec   // by endpoint and outcome
	Latency  *prometheus.HistogramVec // by endpoint
	InFlight prometheus.Gauge
}

// Metrics bundles every collector the client exports.
type Metrics struct {
	Handshake HandshakeMetrics
	Request   RequestMetrics
}

// New builds the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Handshake: HandshakeMetrics{
			Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "msl",
				Name:      "handshake_duration_seconds",
				Help:      "Duration of MSL key exchanges.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"outcome"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "msl",
				Name:      "handshake_errors_total",
				Help:      "Failed MSL key exchanges by reason.",
			}, []string{"reason"}),
		},
		Request: RequestMetrics{
			Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "msl",
				Name:      "requests_total",
				Help:      "MSL requests by endpoint and outcome.",
			}, []string{"endpoint", "outcome"}),
			Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "msl",
				Name:      "request_duration_seconds",
				Help:      "Duration of MSL request round trips.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"endpoint"}),
			InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "msl",
				Name:      "requests_in_flight",
				Help:      "MSL round trips currently on the wire.",
			}),
		},
	}
	if reg != nil {
		reg.MustRegister(
			m.Handshake.Latency, m.Handshake.Errors,
			m.Request.Requests, m.Request.Latency, m.Request.InFlight,
		)
	}
	return m
}

// ObserveHandshake records one key exchange. reason is ignored when err is nil.
func (m *Metrics) ObserveHandshake(start time.Time, reason string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.Handshake.Errors.WithLabelValues(reason).Inc()
	}
	m.Handshake.Latency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// ObserveRequest records one MSL round trip to endpoint.
func (m *Metrics) ObserveRequest(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Request.Requests.WithLabelValues(endpoint, outcome).Inc()
	m.Request.Latency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// TrackInFlight bumps the in-flight gauge and returns the matching decrement.
func (m *Metrics) TrackInFlight() (done func()) {
	if m == nil {
		return func() {}
	}
	m.Request.InFlight.Inc()
	return m.Request.InFlight.Dec
}
