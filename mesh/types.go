package mesh

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
)

// TriangleMesh is an indexed triangle surface: a vertex array plus faces
// referencing it. It is immutable during distance computations; queries read
// from it but never modify it.
type TriangleMesh struct {
	Vertices []r3.Vector
	Faces    [][3]int
}

// NewTriangleMesh validates the vertex and face arrays and returns a mesh.
// Every face must reference three distinct, in-range vertices.
func NewTriangleMesh(vertices []r3.Vector, faces [][3]int) (*TriangleMesh, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("mesh has no vertices")
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("mesh has no faces")
	}
	for i, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d, out of range [0,%d)", i, v, len(vertices))
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return nil, fmt.Errorf("face %d references a vertex twice", i)
		}
	}
	return &TriangleMesh{Vertices: vertices, Faces: faces}, nil
}

// FaceCount returns the number of triangular faces.
func (m *TriangleMesh) FaceCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *TriangleMesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceTriangle returns the concrete triangle of face i.
func (m *TriangleMesh) FaceTriangle(i int) Triangle {
	f := m.Faces[i]
	return Triangle{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
}

// Translate returns a copy of the mesh with every vertex shifted by d.
func (m *TriangleMesh) Translate(d r3.Vector) *TriangleMesh {
	vs := make([]r3.Vector, len(m.Vertices))
	for i, v := range m.Vertices {
		vs[i] = v.Add(d)
	}
	fs := make([][3]int, len(m.Faces))
	copy(fs, m.Faces)
	return &TriangleMesh{Vertices: vs, Faces: fs}
}

// Triangle is a concrete triangle in space. Unlike a face it carries its own
// vertex positions, so subdivision products need no backing mesh.
type Triangle [3]r3.Vector

// Area returns the triangle area.
func (t Triangle) Area() float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Norm() / 2
}

// MaxEdge returns the length of the longest edge.
func (t Triangle) MaxEdge() float64 {
	e01 := t[1].Sub(t[0]).Norm()
	e02 := t[2].Sub(t[0]).Norm()
	e12 := t[2].Sub(t[1]).Norm()
	return math.Max(e01, math.Max(e02, e12))
}

// Centroid returns the triangle centroid.
func (t Triangle) Centroid() r3.Vector {
	return t[0].Add(t[1]).Add(t[2]).Mul(1.0 / 3.0)
}

// Subdivide splits the triangle into four via its edge midpoints.
func (t Triangle) Subdivide() [4]Triangle {
	m01 := midpoint(t[0], t[1])
	m02 := midpoint(t[0], t[2])
	m12 := midpoint(t[1], t[2])
	return [4]Triangle{
		{t[0], m01, m02},
		{t[1], m01, m12},
		{t[2], m02, m12},
		{m01, m02, m12},
	}
}

// SamplingStrategy selects how face and edge interiors are sampled.
type SamplingStrategy int

const (
	// UniformRandom draws a fixed total number of points distributed over
	// faces (or edges) proportionally to area (or length).
	UniformRandom SamplingStrategy = iota
	// Grid places points on a regular lattice inside each triangle and at
	// regular steps along each edge.
	Grid
	// MonteCarlo draws a per-face (per-edge) count of independent uniform
	// points.
	MonteCarlo
)

func (s SamplingStrategy) String() string {
	switch s {
	case UniformRandom:
		return "uniform_random"
	case Grid:
		return "grid"
	case MonteCarlo:
		return "monte_carlo"
	default:
		return fmt.Sprintf("SamplingStrategy(%d)", int(s))
	}
}

// SamplingConfig holds configuration for surface sampling.
// Zero-valued density and count fields mean "derive a default from the
// shortest non-degenerate edge of the sampled surface".
type SamplingConfig struct {
	SampleVertices bool             // emit the surface's vertices
	SampleEdges    bool             // sample along edges (ignored for soups)
	SampleFaces    bool             // sample triangle interiors
	Strategy       SamplingStrategy // grid, monte_carlo or uniform_random

	GridSpacing float64 // lattice step for Grid; default: shortest edge length

	PointsPerAreaUnit     float64 // density for faces; default 2/minEdge^2
	PointsPerDistanceUnit float64 // density for edges; default 1/minEdge

	PointsPerFace int // MonteCarlo: explicit count per face (overrides density)
	PointsPerEdge int // MonteCarlo: explicit count per edge (overrides density)

	TotalFacePoints int // UniformRandom: total across all faces; default: vertex count
	TotalEdgePoints int // UniformRandom: total across all edges; default: vertex count

	RNG *rand.Rand // random source for the randomized strategies
}

// DefaultSamplingConfig returns the sampling defaults: uniform random sampling
// of vertices, edges and faces with densities derived from the surface itself.
// Seed RNG explicitly for reproducible sample sequences.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SampleVertices: true,
		SampleEdges:    true,
		SampleFaces:    true,
		Strategy:       UniformRandom,
		RNG:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ExecutionMode selects sequential or data-parallel execution for the
// approximate distance queries. The bounded-error engine is always sequential.
type ExecutionMode int

const (
	// Sequential runs the query on the calling goroutine.
	Sequential ExecutionMode = iota
	// Parallel partitions the sample range across workers and max-reduces
	// their local maxima.
	Parallel
)

// ComparisonResult is the outcome of one mesh pair comparison, as published
// to MQTT and served over HTTP.
type ComparisonResult struct {
	Pair      string  `json:"pair"`
	Method    string  `json:"method"`
	Distance  float64 `json:"distance"`
	Samples   int     `json:"samples,omitempty"`
	Bound     float64 `json:"bound,omitempty"`
	Elapsed   float64 `json:"elapsedSeconds"`
	Timestamp int64   `json:"timestamp"`
}

// PairConfig defines one mesh pair to compare, from the config file.
type PairConfig struct {
	Name        string   `yaml:"name" json:"name"`
	MeshA       string   `yaml:"meshA" json:"meshA"`
	MeshB       string   `yaml:"meshB" json:"meshB"`
	Method      string   `yaml:"method,omitempty" json:"method,omitempty"`           // approx, symmetric, bounded, naive
	ErrorBound  *float64 `yaml:"errorBound,omitempty" json:"errorBound,omitempty"`   // for bounded/naive
	SampleSeed  *int64   `yaml:"sampleSeed,omitempty" json:"sampleSeed,omitempty"`   // deterministic sampling
	TotalPoints int      `yaml:"totalPoints,omitempty" json:"totalPoints,omitempty"` // uniform random face sample count
}

// Config represents the full configuration file for service mode.
type Config struct {
	MQTT     MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	Pairs    []PairConfig `yaml:"pairs" json:"pairs"`
	Parallel bool         `yaml:"parallel,omitempty" json:"parallel,omitempty"`
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// GetPairByName returns the pair config for the given name.
func (c *Config) GetPairByName(name string) *PairConfig {
	for i := range c.Pairs {
		if c.Pairs[i].Name == name {
			return &c.Pairs[i]
		}
	}
	return nil
}

// GetMethod returns the pair's method or the default "approx".
func (pc *PairConfig) GetMethod() string {
	if pc.Method == "" {
		return "approx"
	}
	return pc.Method
}

// GetErrorBound returns the pair's error bound or the given fallback.
func (pc *PairConfig) GetErrorBound(fallback float64) float64 {
	if pc.ErrorBound != nil {
		return *pc.ErrorBound
	}
	return fallback
}
