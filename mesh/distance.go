package mesh

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/golang/geo/r3"
)

// MaxDistanceToMesh returns the largest distance from any of the given points
// to the surface of m. Points are spatially sorted first so that each query
// can reuse the previous answer as a warm-start hint.
func MaxDistanceToMesh(points []r3.Vector, m *TriangleMesh, mode ExecutionMode) (float64, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("max distance: no query points")
	}
	tree, err := NewTreeFromMesh(m)
	if err != nil {
		return 0, fmt.Errorf("max distance: %w", err)
	}
	sorted := make([]r3.Vector, len(points))
	copy(sorted, points)
	SortPointsSpatially(sorted)
	return maxDistanceToTree(sorted, tree, mode), nil
}

func maxDistanceToTree(points []r3.Vector, tree *Tree, mode ExecutionMode) float64 {
	if mode == Parallel && len(points) > 1 {
		return maxDistanceParallel(points, tree)
	}
	return maxDistanceRange(points, tree, tree.ReferencePoint())
}

// maxDistanceRange walks a spatially sorted range, carrying the previous
// closest point as the next query's hint.
func maxDistanceRange(points []r3.Vector, tree *Tree, hint r3.Vector) float64 {
	var max float64
	for _, q := range points {
		p, d := tree.ClosestPoint(q, hint)
		hint = p
		if d > max {
			max = d
		}
	}
	return max
}

// maxDistanceParallel splits the sorted range into contiguous blocks, one per
// worker. Each block stays spatially coherent, so per-worker hints remain
// effective; the block maxima are then max-reduced.
func maxDistanceParallel(points []r3.Vector, tree *Tree) float64 {
	workers := runtime.NumCPU()
	if workers > len(points) {
		workers = len(points)
	}
	results := make([]float64, workers)
	block := (len(points) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * block
		hi := lo + block
		if hi > len(points) {
			hi = len(points)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w int, pts []r3.Vector) {
			defer wg.Done()
			results[w] = maxDistanceRange(pts, tree, tree.ReferencePoint())
		}(w, points[lo:hi])
	}
	wg.Wait()

	var max float64
	for _, r := range results {
		if r > max {
			max = r
		}
	}
	return max
}

// DistancesToMesh returns the distance from every point to the surface of m,
// in the input order. Used for reporting; the max-only queries above are the
// faster path when only the extreme value matters.
func DistancesToMesh(points []r3.Vector, m *TriangleMesh) ([]float64, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("distances: no query points")
	}
	tree, err := NewTreeFromMesh(m)
	if err != nil {
		return nil, fmt.Errorf("distances: %w", err)
	}
	out := make([]float64, len(points))
	hint := tree.ReferencePoint()
	for i, q := range points {
		p, d := tree.ClosestPoint(q, hint)
		hint = p
		out[i] = d
	}
	return out, nil
}

// ApproximateDirectedDistance estimates the directed Hausdorff distance from
// a to b: it samples the surface of a per cfg and returns the largest
// sample-to-b distance. The estimate never exceeds the true value and
// converges to it as sampling density grows.
func ApproximateDirectedDistance(a, b *TriangleMesh, cfg SamplingConfig, mode ExecutionMode) (float64, error) {
	samples, err := SampleSurface(a, cfg)
	if err != nil {
		return 0, fmt.Errorf("directed distance: %w", err)
	}
	if len(samples) == 0 {
		return 0, fmt.Errorf("directed distance: sampling produced no points")
	}
	d, err := MaxDistanceToMesh(samples, b, mode)
	if err != nil {
		return 0, fmt.Errorf("directed distance: %w", err)
	}
	return d, nil
}

// ApproximateSymmetricDistance estimates the symmetric Hausdorff distance:
// the larger of the two directed estimates.
func ApproximateSymmetricDistance(a, b *TriangleMesh, cfg SamplingConfig, mode ExecutionMode) (float64, error) {
	ab, err := ApproximateDirectedDistance(a, b, cfg, mode)
	if err != nil {
		return 0, fmt.Errorf("symmetric distance: %w", err)
	}
	ba, err := ApproximateDirectedDistance(b, a, cfg, mode)
	if err != nil {
		return 0, fmt.Errorf("symmetric distance: %w", err)
	}
	if ba > ab {
		return ba, nil
	}
	return ab, nil
}
