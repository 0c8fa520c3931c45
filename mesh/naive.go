package mesh

import (
	"fmt"
	"math"
)

// BoundedErrorDistanceNaive computes the same bounded-error directed
// Hausdorff distance as BoundedErrorDistance without any culling: every face
// of a is quadrisected until its edges fall below the error bound, and the
// vertex distances of the fragments are max-reduced. Slow, but a useful
// cross-check for the pruned engine.
func BoundedErrorDistanceNaive(a, b *TriangleMesh, errorBound float64) (float64, error) {
	if errorBound <= 0 {
		return 0, fmt.Errorf("naive bounded distance: error bound must be positive, got %g", errorBound)
	}
	if a == nil || len(a.Faces) == 0 {
		return 0, fmt.Errorf("naive bounded distance: empty source mesh")
	}
	bTree, err := NewTreeFromMesh(b)
	if err != nil {
		return 0, fmt.Errorf("naive bounded distance: target: %w", err)
	}

	boundSq := errorBound * errorBound
	hint := bTree.ReferencePoint()
	var maxSq float64

	stack := make([]Triangle, 0, 64)
	for i := 0; i < a.FaceCount(); i++ {
		stack = append(stack, a.FaceTriangle(i))
	}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e01 := t[1].Sub(t[0]).Norm2()
		e02 := t[2].Sub(t[0]).Norm2()
		e12 := t[2].Sub(t[1]).Norm2()
		small := e01 < boundSq && e02 < boundSq && e12 < boundSq
		if !small && t.MaxEdge() >= minSubdivideEdge {
			subs := t.Subdivide()
			stack = append(stack, subs[0], subs[1], subs[2], subs[3])
			continue
		}

		for _, v := range t {
			p, d := bTree.ClosestPoint(v, hint)
			hint = p
			if dSq := d * d; dSq > maxSq {
				maxSq = dSq
			}
		}
	}

	return math.Sqrt(maxSq), nil
}
