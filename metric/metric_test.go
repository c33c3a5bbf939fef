package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistryRecordsRequests(t *testing.T) {
	r := NewRegistry()
	r.Metrics.RecordRequest("getDirectory", "ok", 5*time.Millisecond)
	r.Metrics.RecordRequest("setValue", "timeout", 3*time.Second)

	families, err := r.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found bool
	for _, f := range families {
		if f.GetName() == "ember_requests_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("want 2 label combinations, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Fatal("ember_requests_total not found in gathered families")
	}
}

func TestNilRegistryIsANoOp(t *testing.T) {
	var r *Registry

	var m *Metrics
	m.RecordFrame("out")
	m.RecordFrameError()
	m.RecordRequest("op", "ok", time.Second)
	m.SetPipelineDepth(3)
	m.RecordReconnect()
	m.SetConnected(true)

	if _, err := r.Gather(); err != nil {
		t.Fatalf("Gather on nil registry: %v", err)
	}
}

func TestDuplicateRegisterRejected(t *testing.T) {
	r := NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ember_extra_total",
		Help: "Extra counter used to exercise duplicate-name rejection.",
	})
	if err := r.Register("extra", c); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register("extra", c); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
