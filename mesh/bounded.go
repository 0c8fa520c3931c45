package mesh

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// minSubdivideEdge is the absolute edge length below which a candidate
// triangle is accepted as-is instead of being subdivided further. Without it
// a degenerate configuration could quadrisect forever without closing its
// bound gap.
const minSubdivideEdge = 1e-12

// BoundedErrorDistance computes the directed Hausdorff distance from a to b
// to within errorBound: the returned value differs from the true distance by
// at most errorBound. Branch and bound over the faces of a, quadrisecting the
// candidate with the largest upper bound until the global bracket closes.
func BoundedErrorDistance(a, b *TriangleMesh, errorBound float64) (float64, error) {
	if errorBound <= 0 {
		return 0, fmt.Errorf("bounded distance: error bound must be positive, got %g", errorBound)
	}
	aTree, err := NewTreeFromMesh(a)
	if err != nil {
		return 0, fmt.Errorf("bounded distance: source: %w", err)
	}
	bTree, err := NewTreeFromMesh(b)
	if err != nil {
		return 0, fmt.Errorf("bounded distance: target: %w", err)
	}

	globalLo := 0.0
	seed := &candidateSeeder{
		b:        bTree,
		hint:     bTree.ReferencePoint(),
		globalLo: &globalLo,
	}
	aTree.TraverseWithPriority(seed)
	if len(seed.cands) == 0 {
		// Every subtree of a was culled during seeding, so no point of a is
		// farther than globalLo from b.
		return globalLo, nil
	}

	pq := &candidateQueue{}
	heap.Init(pq)
	// The seed maximum is only the starting upper bound; promotedHi tracks
	// the accepted candidates alone, so subdivision can tighten the bracket
	// below the coarse seed bounds.
	promotedHi := globalLo
	globalHi := globalLo
	for _, c := range seed.cands {
		if c.hi > globalHi {
			globalHi = c.hi
		}
		heap.Push(pq, c)
	}
	for pq.Len() > 0 && globalHi-globalLo > errorBound {
		c := heap.Pop(pq).(*candidate)

		switch {
		case c.hi <= globalLo:
			// Cannot raise the global lower bound; drop.

		case c.hi-c.lo <= errorBound:
			promote(c.lo, c.hi, &globalLo, &promotedHi)

		case c.sameNearest:
			// All three vertices project onto one target triangle, so the
			// distance over the candidate peaks at a vertex.
			promote(c.lo, c.lo, &globalLo, &promotedHi)

		case c.tri.MaxEdge() < errorBound:
			// The distance field is 1-Lipschitz: no interior point exceeds
			// the vertex maximum by more than the longest edge.
			promote(c.lo, math.Min(c.hi, c.lo+c.tri.MaxEdge()), &globalLo, &promotedHi)

		case c.tri.MaxEdge() < minSubdivideEdge:
			promote(c.lo, c.hi, &globalLo, &promotedHi)

		default:
			for _, sub := range c.tri.Subdivide() {
				child := newCandidate(sub, bTree, c.hi, c.hint)
				if child.lo > globalLo {
					globalLo = child.lo
				}
				heap.Push(pq, child)
			}
		}

		globalHi = math.Max(promotedHi, globalLo)
		if pq.Len() > 0 {
			if top := pq.items[0].hi; top > globalHi {
				globalHi = top
			}
		}
	}

	if pq.Len() == 0 {
		globalHi = math.Max(promotedHi, globalLo)
	}
	return (globalLo + globalHi) / 2, nil
}

func promote(lo, hi float64, globalLo, promotedHi *float64) {
	if lo > *globalLo {
		*globalLo = lo
	}
	if hi > *promotedHi {
		*promotedHi = hi
	}
}

// candidate is a (sub)triangle of the source surface together with a bracket
// on the supremum of the distance-to-target over its area.
type candidate struct {
	tri         Triangle
	lo, hi      float64
	hint        r3.Vector // warm-start for children's closest-point queries
	sameNearest bool
	seq         int
}

// newCandidate brackets the distance supremum over tri. The lower bound is
// the exact vertex maximum; the upper bound is the smallest over target faces
// of the largest vertex-to-face distance, refined from parentHi by a culled
// best-first descent of the target tree.
func newCandidate(tri Triangle, bTree *Tree, parentHi float64, hint r3.Vector) *candidate {
	var lo float64
	prim := -1
	same := true
	for _, v := range tri {
		p, pr, d := bTree.ClosestPointAndPrimitive(v, hint)
		hint = p
		if d > lo {
			lo = d
		}
		if prim == -1 {
			prim = pr
		} else if pr != prim {
			same = false
		}
	}

	uv := &upperBoundVisitor{verts: tri, best: parentHi}
	bTree.TraverseWithPriority(uv)
	hi := uv.best
	if hi < lo {
		hi = lo
	}
	return &candidate{tri: tri, lo: lo, hi: hi, hint: hint, sameNearest: same}
}

// upperBoundVisitor minimizes, over target triangles, the largest distance
// from the candidate's vertices. A subtree is culled when even its box cannot
// beat the current minimum.
type upperBoundVisitor struct {
	verts Triangle
	best  float64
}

func (v *upperBoundVisitor) boundFloor(b Bounds) float64 {
	var m float64
	for _, p := range v.verts {
		if d := b.DistToPoint(p); d > m {
			m = d
		}
	}
	return m
}

func (v *upperBoundVisitor) Priority(b Bounds) float64 { return -v.boundFloor(b) }

func (v *upperBoundVisitor) Descend(b Bounds) bool { return v.boundFloor(b) < v.best }

func (v *upperBoundVisitor) Leaf(_ int, tri Triangle) {
	var m float64
	for _, p := range v.verts {
		if d := distToTriangle(p, tri); d > m {
			m = d
		}
	}
	if m < v.best {
		v.best = m
	}
}

// candidateSeeder turns the source tree's leaves into initial candidates,
// visiting subtrees with the largest possible distance first and culling
// regions already dominated by the growing global lower bound.
type candidateSeeder struct {
	b        *Tree
	hint     r3.Vector
	globalLo *float64
	cands    []*candidate
}

// regionCeiling bounds the distance-to-target from above for every point in
// the box: center distance plus half the box diagonal.
func (s *candidateSeeder) regionCeiling(b Bounds) float64 {
	p, d := s.b.ClosestPoint(b.Center(), s.hint)
	s.hint = p
	return d + b.HalfDiagonal()
}

func (s *candidateSeeder) Priority(b Bounds) float64 { return s.regionCeiling(b) }

func (s *candidateSeeder) Descend(b Bounds) bool { return s.regionCeiling(b) > *s.globalLo }

func (s *candidateSeeder) Leaf(_ int, tri Triangle) {
	c := newCandidate(tri, s.b, math.Inf(1), s.hint)
	s.hint = c.hint
	if c.lo > *s.globalLo {
		*s.globalLo = c.lo
	}
	s.cands = append(s.cands, c)
}

// candidateQueue pops the candidate with the largest upper bound; equal
// bounds break toward earlier insertion.
type candidateQueue struct {
	items []*candidate
	next  int
}

func (q *candidateQueue) Len() int { return len(q.items) }

func (q *candidateQueue) Less(i, j int) bool {
	if q.items[i].hi != q.items[j].hi {
		return q.items[i].hi > q.items[j].hi
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *candidateQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *candidateQueue) Push(x interface{}) {
	c := x.(*candidate)
	c.seq = q.next
	q.next++
	q.items = append(q.items, c)
}

func (q *candidateQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	c := old[n-1]
	q.items = old[:n-1]
	return c
}
