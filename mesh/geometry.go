package mesh

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

func midpoint(a, b r3.Vector) r3.Vector {
	return a.Add(b).Mul(0.5)
}

// closestPointOnSegment returns the point on segment ab nearest to p.
func closestPointOnSegment(p, a, b r3.Vector) r3.Vector {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / denom
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a.Add(ab.Mul(t))
}

// closestPointOnTriangle returns the point of t nearest to p. Voronoi-region
// classification: vertex regions first, then edge regions, then the face
// interior. Degenerate triangles fall through to the best edge projection.
func closestPointOnTriangle(p r3.Vector, t Triangle) r3.Vector {
	a, b, c := t[0], t[1], t[2]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		denom := d1 - d3
		if denom == 0 {
			return a
		}
		return a.Add(ab.Mul(d1 / denom))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		denom := d2 - d6
		if denom == 0 {
			return a
		}
		return a.Add(ac.Mul(d2 / denom))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		denom := (d4 - d3) + (d5 - d6)
		if denom == 0 {
			return b
		}
		return b.Add(c.Sub(b).Mul((d4 - d3) / denom))
	}

	denom := va + vb + vc
	if denom == 0 {
		// Degenerate triangle: best of the three edge projections.
		best := closestPointOnSegment(p, a, b)
		bestSq := p.Sub(best).Norm2()
		if q := closestPointOnSegment(p, b, c); p.Sub(q).Norm2() < bestSq {
			best, bestSq = q, p.Sub(q).Norm2()
		}
		if q := closestPointOnSegment(p, a, c); p.Sub(q).Norm2() < bestSq {
			best = q
		}
		return best
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// distToTriangle returns the distance from p to the nearest point of t.
func distToTriangle(p r3.Vector, t Triangle) float64 {
	return p.Sub(closestPointOnTriangle(p, t)).Norm()
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max r3.Vector
}

func boundsOfTriangle(t Triangle) Bounds {
	b := Bounds{Min: t[0], Max: t[0]}
	b = b.ExtendPoint(t[1])
	return b.ExtendPoint(t[2])
}

// ExtendPoint grows the box to contain p.
func (b Bounds) ExtendPoint(p r3.Vector) Bounds {
	return Bounds{
		Min: r3.Vector{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union grows the box to contain o.
func (b Bounds) Union(o Bounds) Bounds {
	return b.ExtendPoint(o.Min).ExtendPoint(o.Max)
}

// Center returns the box center.
func (b Bounds) Center() r3.Vector {
	return midpoint(b.Min, b.Max)
}

// HalfDiagonal returns half the length of the box diagonal, the largest
// possible distance from the center to any contained point.
func (b Bounds) HalfDiagonal() float64 {
	return b.Max.Sub(b.Min).Norm() / 2
}

// LongestAxis returns 0, 1 or 2 for the axis of greatest extent.
func (b Bounds) LongestAxis() int {
	d := b.Max.Sub(b.Min)
	if d.X >= d.Y && d.X >= d.Z {
		return 0
	}
	if d.Y >= d.Z {
		return 1
	}
	return 2
}

// DistToPoint returns the distance from p to the box, zero if p is inside.
func (b Bounds) DistToPoint(p r3.Vector) float64 {
	dx := math.Max(0, math.Max(b.Min.X-p.X, p.X-b.Max.X))
	dy := math.Max(0, math.Max(b.Min.Y-p.Y, p.Y-b.Max.Y))
	dz := math.Max(0, math.Max(b.Min.Z-p.Z, p.Z-b.Max.Z))
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func axisValue(p r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// SortPointsSpatially reorders points in place so that consecutive points are
// spatially close: a recursive median split on the longest axis of each
// range's bounding box. Warm-started closest-point loops converge much faster
// on such an ordering than on arbitrary input order.
func SortPointsSpatially(points []r3.Vector) {
	sortRangeSpatially(points)
}

func sortRangeSpatially(points []r3.Vector) {
	if len(points) <= 2 {
		return
	}
	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.ExtendPoint(p)
	}
	axis := b.LongestAxis()
	sort.Slice(points, func(i, j int) bool {
		return axisValue(points[i], axis) < axisValue(points[j], axis)
	})
	mid := len(points) / 2
	sortRangeSpatially(points[:mid])
	sortRangeSpatially(points[mid:])
}
