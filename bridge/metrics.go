package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels recorded by Metrics.
const (
	outcomeOK        = "ok"
	outcomeHost      = "host_error"
	outcomeDecode    = "decode_error"
	outcomeEncode    = "encode_error"
	outcomeTransport = "transport_error"
)

// Metrics records bridge calls. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the bridge collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riwaq_bridge_calls_total",
				Help: "Total number of host calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riwaq_bridge_call_duration_seconds",
				Help:    "Host call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) observe(op Op, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(string(op), outcome(err)).Inc()
	m.duration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case IsHostError(err):
		return outcomeHost
	case IsDecodeError(err):
		return outcomeDecode
	case IsTransportError(err):
		return outcomeTransport
	default:
		return outcomeEncode
	}
}
