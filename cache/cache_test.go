package cache

import (
	"errors"
	"testing"

	"github.com/popdyn-xyz/go-popdyn/solver"
)

func testTrajectory(v float64) *solver.Trajectory {
	return &solver.Trajectory{
		T:      []float64{0, 1},
		U:      [][]float64{{v}, {v}},
		K:      [][]float64{{0}, {0}},
		Labels: []string{"P"},
	}
}

func TestKeyDeterministic(t *testing.T) {
	k1 := Key("sir", []float64{0.125, 0.1}, []float64{0.99, 0.01, 0}, [2]float64{0, 100})
	k2 := Key("sir", []float64{0.125, 0.1}, []float64{0.99, 0.01, 0}, [2]float64{0, 100})
	if k1 != k2 {
		t.Error("Identical inputs should produce identical keys")
	}
}

func TestKeyDiscriminates(t *testing.T) {
	base := Key("sir", []float64{0.125, 0.1}, []float64{0.99, 0.01, 0}, [2]float64{0, 100})

	cases := map[string]string{
		"model": Key("sirvd", []float64{0.125, 0.1}, []float64{0.99, 0.01, 0}, [2]float64{0, 100}),
		"param": Key("sir", []float64{0.126, 0.1}, []float64{0.99, 0.01, 0}, [2]float64{0, 100}),
		"state": Key("sir", []float64{0.125, 0.1}, []float64{0.98, 0.02, 0}, [2]float64{0, 100}),
		"tspan": Key("sir", []float64{0.125, 0.1}, []float64{0.99, 0.01, 0}, [2]float64{0, 200}),
	}
	for name, k := range cases {
		if k == base {
			t.Errorf("Changing the %s should change the key", name)
		}
	}
}

func TestGetPut(t *testing.T) {
	c := NewRunCache(10)
	key := Key("sir", nil, nil, [2]float64{0, 100})

	if c.Get(key) != nil {
		t.Error("Expected miss on empty cache")
	}

	tr := testTrajectory(1)
	c.Put(key, tr)
	if got := c.Get(key); got != tr {
		t.Error("Expected the cached trajectory back")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", stats.Hits, stats.Misses)
	}
}

func TestEviction(t *testing.T) {
	c := NewRunCache(2)
	c.Put("a", testTrajectory(1))
	c.Put("b", testTrajectory(2))
	c.Put("c", testTrajectory(3))

	if c.Size() != 2 {
		t.Errorf("Expected size 2 after eviction, got %d", c.Size())
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", c.Stats().Evictions)
	}
}

func TestGetOrCompute(t *testing.T) {
	c := NewRunCache(10)
	key := Key("sir", nil, nil, [2]float64{0, 50})

	calls := 0
	compute := func() (*solver.Trajectory, error) {
		calls++
		return testTrajectory(7), nil
	}

	first, err := c.GetOrCompute(key, compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	second, err := c.GetOrCompute(key, compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected one compute call, got %d", calls)
	}
	if first != second {
		t.Error("Expected the cached trajectory on the second call")
	}
}

func TestGetOrComputeError(t *testing.T) {
	c := NewRunCache(10)
	fail := errors.New("solver blew up")

	_, err := c.GetOrCompute("k", func() (*solver.Trajectory, error) {
		return nil, fail
	})
	if !errors.Is(err, fail) {
		t.Errorf("Expected the compute error, got %v", err)
	}
	if c.Size() != 0 {
		t.Error("Failed computations must not be cached")
	}
}

func TestClear(t *testing.T) {
	c := NewRunCache(10)
	c.Put("a", testTrajectory(1))
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", c.Size())
	}
}
