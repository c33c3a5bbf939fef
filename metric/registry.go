package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"

	"github.com/emberplus-go/goember/emberrors"
)

// Registry owns a dedicated Prometheus registry plus the library's core
// Metrics. A nil *Registry is a valid no-op: every Metrics method and
// Registry.Register tolerate it, so callers that don't want metrics can
// pass nil throughout instead of branching on an "enabled" flag.
type Registry struct {
	prom    *prometheus.Registry
	Metrics *Metrics

	mu         sync.Mutex
	registered map[string]prometheus.Collector
}

// NewRegistry builds a Registry with the core metrics and Go runtime
// collectors already registered.
func NewRegistry() *Registry {
	prom := prometheus.NewRegistry()
	r := &Registry{
		prom:       prom,
		Metrics:    NewMetrics(),
		registered: make(map[string]prometheus.Collector),
	}
	prom.MustRegister(
		r.Metrics.FramesTotal,
		r.Metrics.FrameErrorsTotal,
		r.Metrics.RequestsTotal,
		r.Metrics.RequestDuration,
		r.Metrics.PipelineDepth,
		r.Metrics.ReconnectsTotal,
		r.Metrics.ConnectionStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Register adds an additional named collector, rejecting duplicates.
func (r *Registry) Register(name string, c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registered[name]; exists {
		return emberrors.WrapInvalid(emberrors.ErrInvalidRequest, "metric", "Register", "duplicate metric name "+name)
	}
	if err := r.prom.Register(c); err != nil {
		return emberrors.WrapFatal(err, "metric", "Register", "register collector "+name)
	}
	r.registered[name] = c
	return nil
}

// Gather returns the current values of every registered metric in the
// Prometheus exposition model, for a caller-provided HTTP handler to
// serialize.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	if r == nil {
		return nil, nil
	}
	return r.prom.Gather()
}

// Prometheus exposes the underlying *prometheus.Registry, e.g. to mount
// promhttp.HandlerFor in an embedding application.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.prom
}
