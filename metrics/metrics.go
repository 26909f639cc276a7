// Package metrics exposes Prometheus metrics for the pool registry and
// serves them over HTTP.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegistryMetrics records registry operations and size. A nil
// *RegistryMetrics is valid and records nothing.
type RegistryMetrics struct {
	operations  *prometheus.CounterVec
	pools       prometheus.Gauge
	pausedPools prometheus.Gauge
}

// NewRegistryMetrics creates and registers the registry collectors.
func NewRegistryMetrics(namespace string, reg prometheus.Registerer) (*RegistryMetrics, error) {
	m := &RegistryMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Registry operations by operation name and result kind.",
		}, []string{"op", "result"}),
		pools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pools",
			Help:      "Number of pools in the registry.",
		}),
		pausedPools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "paused_pools",
			Help:      "Number of paused pools in the registry.",
		}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.pools, m.pausedPools} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveOperation counts one operation. result is "ok" or an error kind.
func (m *RegistryMetrics) ObserveOperation(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// SetPools updates the size gauges.
func (m *RegistryMetrics) SetPools(total, paused int) {
	if m == nil {
		return
	}
	m.pools.Set(float64(total))
	m.pausedPools.Set(float64(paused))
}

// MetricsServer serves a Prometheus registry over HTTP.
type MetricsServer struct {
	srv      *http.Server
	registry *prometheus.Registry
}

// New creates a metrics server listening on addr with a fresh registry
// that includes the Go and process collectors.
func New(namespace string, addr string) (*MetricsServer, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(prometheus.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace})); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		registry: reg,
	}, nil
}

// Registerer returns the registry collectors should be registered with.
func (s *MetricsServer) Registerer() prometheus.Registerer {
	return s.registry
}

// Handler returns the /metrics HTTP handler.
func (s *MetricsServer) Handler() http.Handler {
	return s.srv.Handler
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
