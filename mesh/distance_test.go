package mesh

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

// unitSquareMesh returns a unit square in the z=0 plane as two triangles,
// then translated by offset.
func unitSquareMesh(t *testing.T, offset r3.Vector) *TriangleMesh {
	t.Helper()
	m, err := NewTriangleMesh(
		[]r3.Vector{
			{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		},
		[][3]int{{0, 1, 2}, {0, 2, 3}},
	)
	if err != nil {
		t.Fatalf("building mesh: %v", err)
	}
	return m.Translate(offset)
}

func TestMaxDistanceToMeshKnownPoints(t *testing.T) {
	m := unitSquareMesh(t, r3.Vector{})
	points := []r3.Vector{
		{X: 0.5, Y: 0.5, Z: 1},  // directly above: distance 1
		{X: 0.2, Y: 0.8, Z: 0},  // on the surface: distance 0
		{X: 0.5, Y: 0.5, Z: -3}, // below: distance 3
	}

	for _, mode := range []ExecutionMode{Sequential, Parallel} {
		d, err := MaxDistanceToMesh(points, m, mode)
		if err != nil {
			t.Fatalf("mode %v: %v", mode, err)
		}
		if !almostEqual(d, 3, 1e-12) {
			t.Errorf("mode %v: expected max distance 3, got %v", mode, d)
		}
	}
}

func TestMaxDistanceToMeshEmptyPoints(t *testing.T) {
	m := unitSquareMesh(t, r3.Vector{})
	if _, err := MaxDistanceToMesh(nil, m, Sequential); err == nil {
		t.Error("expected error for empty point set")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	m := unitSquareMesh(t, r3.Vector{})
	cfg := seededConfig(31)
	cfg.TotalFacePoints = 500
	points, err := SampleSurface(unitSquareMesh(t, r3.Vector{Z: 1.5}), cfg)
	if err != nil {
		t.Fatalf("sampling: %v", err)
	}

	seq, err := MaxDistanceToMesh(points, m, Sequential)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := MaxDistanceToMesh(points, m, Parallel)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if !almostEqual(seq, par, 1e-12) {
		t.Errorf("sequential %v and parallel %v disagree", seq, par)
	}
}

func TestApproximateDirectedDistanceTranslatedPlanes(t *testing.T) {
	a := unitSquareMesh(t, r3.Vector{})
	b := unitSquareMesh(t, r3.Vector{Z: 2})

	// Every point of a is at distance exactly 2 from b, so any sampling
	// yields the exact value.
	for _, mode := range []ExecutionMode{Sequential, Parallel} {
		d, err := ApproximateDirectedDistance(a, b, seededConfig(8), mode)
		if err != nil {
			t.Fatalf("mode %v: %v", mode, err)
		}
		if !almostEqual(d, 2, 1e-12) {
			t.Errorf("mode %v: expected 2, got %v", mode, d)
		}
	}
}

func TestApproximateDistanceCoincidentMeshes(t *testing.T) {
	a := unitSquareMesh(t, r3.Vector{})
	b := unitSquareMesh(t, r3.Vector{})

	d, err := ApproximateDirectedDistance(a, b, seededConfig(9), Sequential)
	if err != nil {
		t.Fatalf("directed: %v", err)
	}
	if d > 1e-9 {
		t.Errorf("coincident meshes should be at distance ~0, got %v", d)
	}
}

func TestApproximateSymmetricDistance(t *testing.T) {
	a := unitSquareMesh(t, r3.Vector{})
	b := unitSquareMesh(t, r3.Vector{Z: 2})

	d, err := ApproximateSymmetricDistance(a, b, seededConfig(10), Sequential)
	if err != nil {
		t.Fatalf("symmetric: %v", err)
	}
	if !almostEqual(d, 2, 1e-12) {
		t.Errorf("expected symmetric distance 2, got %v", d)
	}
}

func TestApproximateUnderestimatesTrueDistance(t *testing.T) {
	// The sampled estimate can never exceed the true supremum.
	a := unitSquareMesh(t, r3.Vector{})
	b := unitSquareMesh(t, r3.Vector{X: 0.5})

	trueDist := 0.5 // corners (0,0) and (0,1) of a are 0.5 from b
	cfg := seededConfig(12)
	cfg.TotalFacePoints = 2000
	d, err := ApproximateDirectedDistance(a, b, cfg, Sequential)
	if err != nil {
		t.Fatalf("directed: %v", err)
	}
	if d > trueDist+1e-12 {
		t.Errorf("estimate %v exceeds true distance %v", d, trueDist)
	}
	if math.Abs(d-trueDist) > 0.1 {
		t.Errorf("estimate %v too far below true distance %v for dense sampling", d, trueDist)
	}
}

func TestDistancesToMeshOrderAndValues(t *testing.T) {
	m := unitSquareMesh(t, r3.Vector{})
	points := []r3.Vector{
		{X: 0.5, Y: 0.5, Z: 2},
		{X: 0.5, Y: 0.5, Z: 0},
		{X: 0.5, Y: 0.5, Z: -1},
	}
	dists, err := DistancesToMesh(points, m)
	if err != nil {
		t.Fatalf("distances: %v", err)
	}
	want := []float64{2, 0, 1}
	for i := range want {
		if !almostEqual(dists[i], want[i], 1e-12) {
			t.Errorf("point %d: expected %v, got %v", i, want[i], dists[i])
		}
	}
}
