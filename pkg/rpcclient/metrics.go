package rpcclient

import (
	"errors"
	"time"

	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcome labels.
const (
	statusOK           = "ok"
	statusNodeError    = "node_error"
	statusNetworkError = "network_error"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ethgo",
				Subsystem: "rpcclient",
				Name:      "requests_total",
				Help:      "Number of RPC requests by method and outcome",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ethgo",
				Subsystem: "rpcclient",
				Name:      "request_duration_seconds",
				Help:      "RPC request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(method string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := statusOK
	if errors.Is(err, ethrpc.ErrNode) {
		status = statusNodeError
	} else if err != nil {
		status = statusNetworkError
	}
	m.requests.WithLabelValues(method, status).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}
