package mesh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
)

func randomTriangles(rng *rand.Rand, n int) []Triangle {
	tris := make([]Triangle, n)
	for i := range tris {
		base := r3.Vector{X: rng.Float64() * 10, Y: rng.Float64() * 10, Z: rng.Float64() * 10}
		tris[i] = Triangle{
			base,
			base.Add(r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}),
			base.Add(r3.Vector{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()}),
		}
	}
	return tris
}

func TestNewTreeEmpty(t *testing.T) {
	if _, err := NewTree(nil); err == nil {
		t.Error("expected error building tree from no triangles")
	}
	if _, err := NewTreeFromMesh(nil); err == nil {
		t.Error("expected error building tree from nil mesh")
	}
}

func TestClosestPointMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tris := randomTriangles(rng, 300)
	tree, err := NewTree(tris)
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}

	hint := tree.ReferencePoint()
	for i := 0; i < 100; i++ {
		q := r3.Vector{X: rng.Float64() * 12, Y: rng.Float64() * 12, Z: rng.Float64() * 12}

		best := math.Inf(1)
		for _, tri := range tris {
			if d := distToTriangle(q, tri); d < best {
				best = d
			}
		}

		p, d := tree.ClosestPoint(q, hint)
		hint = p
		if !almostEqual(d, best, 1e-9) {
			t.Fatalf("query %d: tree distance %v, brute force %v", i, d, best)
		}
		if !almostEqual(q.Sub(p).Norm(), d, 1e-9) {
			t.Fatalf("query %d: returned point inconsistent with distance", i)
		}
	}
}

func TestClosestPointAndPrimitiveOwnsPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	tris := randomTriangles(rng, 50)
	tree, err := NewTree(tris)
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}

	for i := 0; i < 30; i++ {
		q := r3.Vector{X: rng.Float64() * 12, Y: rng.Float64() * 12, Z: rng.Float64() * 12}
		p, prim, d := tree.ClosestPointAndPrimitive(q, tree.ReferencePoint())
		if prim < 0 || prim >= len(tris) {
			t.Fatalf("query %d: primitive index %d out of range", i, prim)
		}
		// The named triangle must actually achieve the reported distance
		if !almostEqual(distToTriangle(q, tris[prim]), d, 1e-9) {
			t.Fatalf("query %d: primitive %d does not achieve distance %v", i, prim, d)
		}
		if !almostEqual(q.Sub(p).Norm(), d, 1e-9) {
			t.Fatalf("query %d: point/distance mismatch", i)
		}
	}
}

func TestWarmStartHintDoesNotChangeResult(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	tris := randomTriangles(rng, 120)
	tree, err := NewTree(tris)
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}

	q := r3.Vector{X: 4, Y: 4, Z: 4}
	_, dCold := tree.ClosestPoint(q, tree.ReferencePoint())

	// A perfect hint: the answer itself
	p, _ := tree.ClosestPoint(q, tree.ReferencePoint())
	_, dWarm := tree.ClosestPoint(q, p)
	if !almostEqual(dCold, dWarm, 1e-12) {
		t.Errorf("warm-started query returned %v, cold %v", dWarm, dCold)
	}
}

type collectVisitor struct {
	seen map[int]bool
}

func (v *collectVisitor) Priority(b Bounds) float64 { return -b.Min.X }
func (v *collectVisitor) Descend(b Bounds) bool     { return true }
func (v *collectVisitor) Leaf(idx int, tri Triangle) {
	v.seen[idx] = true
}

func TestTraverseWithPriorityVisitsAllLeaves(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	tris := randomTriangles(rng, 77)
	tree, err := NewTree(tris)
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}

	v := &collectVisitor{seen: make(map[int]bool)}
	tree.TraverseWithPriority(v)
	if len(v.seen) != len(tris) {
		t.Errorf("visited %d of %d triangles without culling", len(v.seen), len(tris))
	}
}

type cullAllVisitor struct {
	leaves int
}

func (v *cullAllVisitor) Priority(b Bounds) float64  { return 0 }
func (v *cullAllVisitor) Descend(b Bounds) bool      { return false }
func (v *cullAllVisitor) Leaf(idx int, tri Triangle) { v.leaves++ }

func TestTraverseWithPriorityRespectsCulling(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	tree, err := NewTree(randomTriangles(rng, 40))
	if err != nil {
		t.Fatalf("building tree: %v", err)
	}

	v := &cullAllVisitor{}
	tree.TraverseWithPriority(v)
	if v.leaves != 0 {
		t.Errorf("culled traversal still visited %d leaves", v.leaves)
	}
}
