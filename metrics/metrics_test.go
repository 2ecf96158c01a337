package metrics

import (
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewCounter("claims.paid")
	c.Inc()
	c.Add(4)
	c.Add(-10) // ignored
	if got := c.Value(); got != 5 {
		t.Fatalf("value = %d, want 5", got)
	}
	if c.Name() != "claims.paid" {
		t.Fatalf("name = %q", c.Name())
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("buckets.active")
	g.Set(7)
	g.Inc()
	g.Dec()
	g.Dec()
	if got := g.Value(); got != 6 {
		t.Fatalf("value = %d, want 6", got)
	}
}

func TestCounterConcurrent(t *testing.T) {
	c := NewCounter("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	if got := c.Value(); got != 8000 {
		t.Fatalf("value = %d, want 8000", got)
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("x")
	b := r.Counter("x")
	if a != b {
		t.Fatal("same name should return the same counter")
	}
	if r.Counter("y") == a {
		t.Fatal("different names should return different counters")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter("c").Add(3)
	r.Gauge("g").Set(-2)

	snap := r.Snapshot()
	if snap["c"] != 3 || snap["g"] != -2 {
		t.Fatalf("snapshot = %v", snap)
	}
}
