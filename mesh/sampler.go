package mesh

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/golang/geo/r3"
)

// TriangleSource abstracts the surface being sampled, so indexed meshes and
// raw triangle soups share one sampling pipeline.
type TriangleSource interface {
	FaceCount() int
	Face(i int) Triangle
	Vertices() []r3.Vector
	// Edges returns unique undirected edges as vertex index pairs, or nil
	// when the representation has no edge connectivity (soups).
	Edges() [][2]int
}

type meshSource struct {
	m *TriangleMesh
}

func (s meshSource) FaceCount() int        { return len(s.m.Faces) }
func (s meshSource) Face(i int) Triangle   { return s.m.FaceTriangle(i) }
func (s meshSource) Vertices() []r3.Vector { return s.m.Vertices }

func (s meshSource) Edges() [][2]int {
	seen := make(map[[2]int]struct{}, 3*len(s.m.Faces)/2)
	var edges [][2]int
	for _, f := range s.m.Faces {
		for _, e := range [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[0], f[2]}} {
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

type soupSource struct {
	points []r3.Vector
	faces  [][3]int
}

func (s soupSource) FaceCount() int { return len(s.faces) }

func (s soupSource) Face(i int) Triangle {
	f := s.faces[i]
	return Triangle{s.points[f[0]], s.points[f[1]], s.points[f[2]]}
}

func (s soupSource) Vertices() []r3.Vector { return s.points }
func (s soupSource) Edges() [][2]int       { return nil }

// SampleSurface generates sample points on the vertices, edges and faces of m
// according to cfg. The output order is deterministic for a given RNG seed.
func SampleSurface(m *TriangleMesh, cfg SamplingConfig) ([]r3.Vector, error) {
	if m == nil || len(m.Vertices) == 0 || len(m.Faces) == 0 {
		return nil, fmt.Errorf("sampling surface: empty mesh")
	}
	return sampleSource(meshSource{m}, cfg)
}

// SampleTriangleSoup generates sample points on the vertices and faces of a
// triangle soup. Soups carry no edge connectivity, so edge sampling is
// skipped regardless of cfg.
func SampleTriangleSoup(points []r3.Vector, faces [][3]int, cfg SamplingConfig) ([]r3.Vector, error) {
	if len(points) == 0 || len(faces) == 0 {
		return nil, fmt.Errorf("sampling soup: empty soup")
	}
	for i, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(points) {
				return nil, fmt.Errorf("sampling soup: face %d references point %d, out of range", i, v)
			}
		}
	}
	cfg.SampleEdges = false
	return sampleSource(soupSource{points, faces}, cfg)
}

func sampleSource(src TriangleSource, cfg SamplingConfig) ([]r3.Vector, error) {
	rng := cfg.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var out []r3.Vector
	if cfg.SampleVertices {
		out = append(out, src.Vertices()...)
	}

	switch cfg.Strategy {
	case Grid:
		spacing := cfg.GridSpacing
		if spacing <= 0 {
			me, err := minNondegenerateEdge(src)
			if err != nil {
				return nil, err
			}
			spacing = me
		}
		if cfg.SampleEdges {
			out = appendEdgeGrid(out, src, spacing)
		}
		if cfg.SampleFaces {
			out = appendFaceGrid(out, src, spacing)
		}

	case MonteCarlo:
		if cfg.SampleEdges {
			ppd := cfg.PointsPerDistanceUnit
			if cfg.PointsPerEdge <= 0 && ppd <= 0 {
				me, err := minNondegenerateEdge(src)
				if err != nil {
					return nil, err
				}
				ppd = 1 / me
			}
			out = appendEdgeMonteCarlo(out, src, cfg.PointsPerEdge, ppd, rng)
		}
		if cfg.SampleFaces {
			ppa := cfg.PointsPerAreaUnit
			if cfg.PointsPerFace <= 0 && ppa <= 0 {
				me, err := minNondegenerateEdge(src)
				if err != nil {
					return nil, err
				}
				ppa = 2 / (me * me)
			}
			out = appendFaceMonteCarlo(out, src, cfg.PointsPerFace, ppa, rng)
		}

	case UniformRandom:
		if cfg.SampleEdges {
			n := cfg.TotalEdgePoints
			if n <= 0 {
				if cfg.PointsPerDistanceUnit > 0 {
					n = int(math.Ceil(totalEdgeLength(src) * cfg.PointsPerDistanceUnit))
				} else {
					n = len(src.Vertices())
				}
			}
			pts, err := appendEdgeUniform(out, src, n, rng)
			if err != nil {
				return nil, err
			}
			out = pts
		}
		if cfg.SampleFaces {
			n := cfg.TotalFacePoints
			if n <= 0 {
				if cfg.PointsPerAreaUnit > 0 {
					n = int(math.Ceil(totalFaceArea(src) * cfg.PointsPerAreaUnit))
				} else {
					n = len(src.Vertices())
				}
			}
			pts, err := appendFaceUniform(out, src, n, rng)
			if err != nil {
				return nil, err
			}
			out = pts
		}

	default:
		return nil, fmt.Errorf("sampling surface: unknown strategy %v", cfg.Strategy)
	}

	return out, nil
}

// minNondegenerateEdge returns the shortest edge of positive length. Edges
// are taken from connectivity when available, otherwise from the faces.
func minNondegenerateEdge(src TriangleSource) (float64, error) {
	min := math.Inf(1)
	if edges := src.Edges(); edges != nil {
		vs := src.Vertices()
		for _, e := range edges {
			if l := vs[e[1]].Sub(vs[e[0]]).Norm(); l > 0 && l < min {
				min = l
			}
		}
	} else {
		for i := 0; i < src.FaceCount(); i++ {
			t := src.Face(i)
			for _, l := range []float64{
				t[1].Sub(t[0]).Norm(),
				t[2].Sub(t[1]).Norm(),
				t[2].Sub(t[0]).Norm(),
			} {
				if l > 0 && l < min {
					min = l
				}
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0, fmt.Errorf("sampling surface: all edges are degenerate")
	}
	return min, nil
}

func totalFaceArea(src TriangleSource) float64 {
	var sum float64
	for i := 0; i < src.FaceCount(); i++ {
		sum += src.Face(i).Area()
	}
	return sum
}

func totalEdgeLength(src TriangleSource) float64 {
	vs := src.Vertices()
	var sum float64
	for _, e := range src.Edges() {
		sum += vs[e[1]].Sub(vs[e[0]]).Norm()
	}
	return sum
}

// appendFaceGrid places a triangular lattice of interior points on each face.
// The lattice resolution follows the two edges incident to the first vertex;
// boundary points are left to vertex and edge sampling.
func appendFaceGrid(out []r3.Vector, src TriangleSource, spacing float64) []r3.Vector {
	for fi := 0; fi < src.FaceCount(); fi++ {
		t := src.Face(fi)
		d01 := t[1].Sub(t[0]).Norm()
		d02 := t[2].Sub(t[0]).Norm()
		n := int(math.Max(math.Ceil(d01/spacing), math.Ceil(d02/spacing)))
		if n < 2 {
			continue
		}
		for i := 1; i < n; i++ {
			for j := 1; j < n-i; j++ {
				a := float64(i) / float64(n)
				b := float64(j) / float64(n)
				out = append(out, t[0].Mul(1-a-b).Add(t[1].Mul(a)).Add(t[2].Mul(b)))
			}
		}
	}
	return out
}

// appendEdgeGrid places evenly spaced interior points along each unique edge.
func appendEdgeGrid(out []r3.Vector, src TriangleSource, spacing float64) []r3.Vector {
	vs := src.Vertices()
	for _, e := range src.Edges() {
		a, b := vs[e[0]], vs[e[1]]
		n := int(math.Ceil(b.Sub(a).Norm() / spacing))
		for i := 1; i < n; i++ {
			out = append(out, a.Add(b.Sub(a).Mul(float64(i)/float64(n))))
		}
	}
	return out
}

// randomPointInTriangle draws a uniform point via the square-root warp.
func randomPointInTriangle(t Triangle, rng *rand.Rand) r3.Vector {
	u := math.Sqrt(rng.Float64())
	v := rng.Float64()
	return t[0].Mul(1 - u).Add(t[1].Mul(u * (1 - v))).Add(t[2].Mul(u * v))
}

func appendFaceMonteCarlo(out []r3.Vector, src TriangleSource, perFace int, density float64, rng *rand.Rand) []r3.Vector {
	for fi := 0; fi < src.FaceCount(); fi++ {
		t := src.Face(fi)
		n := perFace
		if n <= 0 {
			a := t.Area()
			if a == 0 {
				continue
			}
			n = int(math.Max(1, math.Ceil(a*density)))
		}
		for i := 0; i < n; i++ {
			out = append(out, randomPointInTriangle(t, rng))
		}
	}
	return out
}

func appendEdgeMonteCarlo(out []r3.Vector, src TriangleSource, perEdge int, density float64, rng *rand.Rand) []r3.Vector {
	vs := src.Vertices()
	for _, e := range src.Edges() {
		a, b := vs[e[0]], vs[e[1]]
		n := perEdge
		if n <= 0 {
			l := b.Sub(a).Norm()
			if l == 0 {
				continue
			}
			n = int(math.Max(1, math.Ceil(l*density)))
		}
		for i := 0; i < n; i++ {
			out = append(out, a.Add(b.Sub(a).Mul(rng.Float64())))
		}
	}
	return out
}

// weightedPicker selects indices with probability proportional to weight.
// Zero-weight entries (degenerate faces, zero-length edges) are never chosen.
type weightedPicker struct {
	cum []float64
}

func newWeightedPicker(weights []float64) (*weightedPicker, error) {
	cum := make([]float64, len(weights))
	var sum float64
	for i, w := range weights {
		sum += w
		cum[i] = sum
	}
	if sum <= 0 {
		return nil, fmt.Errorf("sampling surface: surface has zero total measure")
	}
	return &weightedPicker{cum: cum}, nil
}

func (p *weightedPicker) pick(rng *rand.Rand) int {
	total := p.cum[len(p.cum)-1]
	r := rng.Float64() * total
	i := sort.SearchFloat64s(p.cum, r)
	// SearchFloat64s lands on the boundary when r equals a cumulative value;
	// step past runs of zero-weight entries.
	for i < len(p.cum)-1 && (i == 0 && p.cum[i] == 0 || i > 0 && p.cum[i] == p.cum[i-1]) {
		i++
	}
	if i >= len(p.cum) {
		i = len(p.cum) - 1
	}
	return i
}

func appendFaceUniform(out []r3.Vector, src TriangleSource, n int, rng *rand.Rand) ([]r3.Vector, error) {
	weights := make([]float64, src.FaceCount())
	for i := range weights {
		weights[i] = src.Face(i).Area()
	}
	picker, err := newWeightedPicker(weights)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		out = append(out, randomPointInTriangle(src.Face(picker.pick(rng)), rng))
	}
	return out, nil
}

func appendEdgeUniform(out []r3.Vector, src TriangleSource, n int, rng *rand.Rand) ([]r3.Vector, error) {
	edges := src.Edges()
	vs := src.Vertices()
	weights := make([]float64, len(edges))
	for i, e := range edges {
		weights[i] = vs[e[1]].Sub(vs[e[0]]).Norm()
	}
	picker, err := newWeightedPicker(weights)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		e := edges[picker.pick(rng)]
		a, b := vs[e[0]], vs[e[1]]
		out = append(out, a.Add(b.Sub(a).Mul(rng.Float64())))
	}
	return out, nil
}
