package mesh

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/golang/geo/r3"
)

// leafSize is the maximum number of triangles stored in a leaf node.
const leafSize = 4

// Tree is a static axis-aligned bounding box tree over triangles. It is built
// once and serves concurrent read-only queries.
type Tree struct {
	root *treeNode
	tris []Triangle
}

type treeNode struct {
	bounds      Bounds
	left, right *treeNode
	prims       []int // triangle indices, leaf nodes only
}

func (n *treeNode) isLeaf() bool {
	return n.left == nil
}

// NewTree builds an index over the given triangles. Build is top-down: each
// node splits its triangles at the centroid median along the longest axis of
// its bounding box.
func NewTree(tris []Triangle) (*Tree, error) {
	if len(tris) == 0 {
		return nil, fmt.Errorf("building triangle index: no triangles")
	}
	own := make([]Triangle, len(tris))
	copy(own, tris)
	idx := make([]int, len(own))
	for i := range idx {
		idx[i] = i
	}
	return &Tree{root: buildNode(own, idx), tris: own}, nil
}

// NewTreeFromMesh builds an index over all faces of m.
func NewTreeFromMesh(m *TriangleMesh) (*Tree, error) {
	if m == nil || len(m.Faces) == 0 {
		return nil, fmt.Errorf("building triangle index: empty mesh")
	}
	tris := make([]Triangle, len(m.Faces))
	for i := range m.Faces {
		tris[i] = m.FaceTriangle(i)
	}
	return NewTree(tris)
}

func buildNode(tris []Triangle, idx []int) *treeNode {
	bounds := boundsOfTriangle(tris[idx[0]])
	for _, i := range idx[1:] {
		bounds = bounds.Union(boundsOfTriangle(tris[i]))
	}
	if len(idx) <= leafSize {
		return &treeNode{bounds: bounds, prims: idx}
	}
	axis := bounds.LongestAxis()
	sort.Slice(idx, func(a, b int) bool {
		return axisValue(tris[idx[a]].Centroid(), axis) < axisValue(tris[idx[b]].Centroid(), axis)
	})
	mid := len(idx) / 2
	return &treeNode{
		bounds: bounds,
		left:   buildNode(tris, idx[:mid]),
		right:  buildNode(tris, idx[mid:]),
	}
}

// Bounds returns the bounding box of the whole indexed surface.
func (t *Tree) Bounds() Bounds {
	return t.root.bounds
}

// Size returns the number of indexed triangles.
func (t *Tree) Size() int {
	return len(t.tris)
}

// Triangle returns the indexed triangle i.
func (t *Tree) Triangle(i int) Triangle {
	return t.tris[i]
}

// ReferencePoint returns a point on the surface suitable as an initial
// closest-point hint.
func (t *Tree) ReferencePoint() r3.Vector {
	return t.tris[0][0]
}

// ClosestPoint returns the surface point nearest to q and its distance.
// hint must be a point on the surface; a good hint (e.g. the previous query's
// answer for a nearby query) tightens the initial search radius and prunes
// most of the descent.
func (t *Tree) ClosestPoint(q, hint r3.Vector) (r3.Vector, float64) {
	p, _, d := t.ClosestPointAndPrimitive(q, hint)
	return p, d
}

// ClosestPointAndPrimitive is ClosestPoint returning also the index of the
// triangle owning the nearest point. When several triangles are equally near,
// the choice among them is deterministic for a given tree.
func (t *Tree) ClosestPointAndPrimitive(q, hint r3.Vector) (r3.Vector, int, float64) {
	best := hint
	bestPrim := -1
	bestSq := q.Sub(hint).Norm2()
	t.root.closest(t.tris, q, &best, &bestPrim, &bestSq)
	return best, bestPrim, q.Sub(best).Norm()
}

func (n *treeNode) closest(tris []Triangle, q r3.Vector, best *r3.Vector, bestPrim *int, bestSq *float64) {
	if n.isLeaf() {
		for _, i := range n.prims {
			p := closestPointOnTriangle(q, tris[i])
			d := q.Sub(p).Norm2()
			// Accept ties until a primitive is known: the hint sets the
			// initial radius but names no triangle.
			if d < *bestSq || (*bestPrim == -1 && d == *bestSq) {
				*best, *bestPrim, *bestSq = p, i, d
			}
		}
		return
	}
	dl := n.left.bounds.DistToPoint(q)
	dr := n.right.bounds.DistToPoint(q)
	first, second := n.left, n.right
	dFirst, dSecond := dl, dr
	if dr < dl {
		first, second = second, first
		dFirst, dSecond = dr, dl
	}
	if dFirst*dFirst <= *bestSq {
		first.closest(tris, q, best, bestPrim, bestSq)
	}
	if dSecond*dSecond <= *bestSq {
		second.closest(tris, q, best, bestPrim, bestSq)
	}
}

// PriorityVisitor steers a best-first traversal of the tree. Nodes are visited
// in descending Priority order; a subtree is skipped entirely when Descend
// returns false for its bounds.
type PriorityVisitor interface {
	// Priority ranks a subtree for visiting order; larger first.
	Priority(b Bounds) float64
	// Descend reports whether the subtree can still contribute.
	Descend(b Bounds) bool
	// Leaf is called for each triangle of a visited leaf.
	Leaf(idx int, tri Triangle)
}

// TraverseWithPriority walks the tree best-first under the visitor's control.
// The visitor's Descend gate is re-checked when a node is popped, so bounds
// tightened by earlier leaves cull nodes already queued.
func (t *Tree) TraverseWithPriority(v PriorityVisitor) {
	pq := &nodeQueue{}
	heap.Init(pq)
	if v.Descend(t.root.bounds) {
		heap.Push(pq, nodeItem{node: t.root, priority: v.Priority(t.root.bounds)})
	}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(nodeItem)
		n := item.node
		if !v.Descend(n.bounds) {
			continue
		}
		if n.isLeaf() {
			for _, i := range n.prims {
				v.Leaf(i, t.tris[i])
			}
			continue
		}
		for _, child := range []*treeNode{n.left, n.right} {
			if v.Descend(child.bounds) {
				heap.Push(pq, nodeItem{node: child, priority: v.Priority(child.bounds)})
			}
		}
	}
}

type nodeItem struct {
	node     *treeNode
	priority float64
	seq      int
}

type nodeQueue struct {
	items []nodeItem
	next  int
}

func (q *nodeQueue) Len() int { return len(q.items) }

func (q *nodeQueue) Less(i, j int) bool {
	if q.items[i].priority != q.items[j].priority {
		return q.items[i].priority > q.items[j].priority
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *nodeQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeQueue) Push(x interface{}) {
	item := x.(nodeItem)
	item.seq = q.next
	q.next++
	q.items = append(q.items, item)
}

func (q *nodeQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}
