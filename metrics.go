// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filrpc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK             = "ok"
	outcomeRemoteError    = "remote_error"
	outcomeTransportError = "transport_error"
	outcomeProtocolError  = "protocol_error"
	outcomeCanceled       = "canceled"
	outcomeAbandoned      = "abandoned"
	outcomeError          = "error"
)

// Metrics collects per-connector call statistics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	inflight    prometheus.Gauge
	stale       prometheus.Counter
	transitions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filrpc",
			Name:      "calls_total",
			Help:      "Settled calls by method and outcome.",
		}, []string{"method", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "filrpc",
			Name:      "call_duration_seconds",
			Help:      "Time from Exec to settlement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filrpc",
			Name:      "calls_in_flight",
			Help:      "Calls registered and not yet settled.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filrpc",
			Name:      "stale_replies_total",
			Help:      "Replies dropped because no call was waiting for them.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filrpc",
			Name:      "connection_events_total",
			Help:      "Connection lifecycle events emitted.",
		}, []string{"event"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.latency, m.inflight, m.stale, m.transitions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) callStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) callFinished(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.calls.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) staleReply() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

func (m *Metrics) transition(event string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event).Inc()
}

func outcomeOf(err error) string {
	var (
		remote    *RemoteError
		transport *TransportError
		protocol  *ProtocolError
		canceled  *CancellationError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &remote):
		return outcomeRemoteError
	case errors.As(err, &transport):
		return outcomeTransportError
	case errors.As(err, &protocol):
		return outcomeProtocolError
	case errors.As(err, &canceled):
		return outcomeCanceled
	default:
		return outcomeError
	}
}
