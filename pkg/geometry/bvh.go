package geometry

import (
	gomath "math"
	"sort"

	"lathe/pkg/math"
)

// bvhLeafSize is the maximum shape count per leaf node.
const bvhLeafSize = 4

// bvhNode is one node of the flattened tree. Interior nodes reference
// their children by index; leaves reference a span of the shape array.
type bvhNode struct {
	bounds      math.AABB3D
	left, right int // child node indices, -1 on leaves
	first, last int // leaf span into the shape array
}

// BVH indexes the finite shapes of a scene for box queries, so the shadow
// marcher culls occluders without scanning the whole shape list. Shapes
// with unbounded extent (planes) cannot be partitioned and are kept aside;
// every query returns them.
//
// The tree is built once over Morton-ordered shape centres and stored as a
// flat node arena; it is never rebalanced, matching the render model where
// the scene is fixed before the first pixel.
type BVH struct {
	nodes    []bvhNode
	shapes   []Shape
	infinite []Shape
}

// NewBVH builds the index over a shape list. Shapes whose bounding box is
// unbounded go to the infinite set.
func NewBVH(shapes []Shape) *BVH {
	b := &BVH{}
	for _, s := range shapes {
		bounds := s.GetAABB()
		if gomath.IsInf(bounds.Min.X, -1) || gomath.IsInf(bounds.Max.X, 1) {
			b.infinite = append(b.infinite, s)
		} else {
			b.shapes = append(b.shapes, s)
		}
	}
	if len(b.shapes) == 0 {
		return b
	}

	// Order the finite shapes along a Morton curve of their centres, so
	// span splits produce spatially coherent subtrees.
	sceneBounds := b.shapes[0].GetAABB()
	for _, s := range b.shapes[1:] {
		sb := s.GetAABB()
		sceneBounds = sceneBounds.Expand(sb.Min).Expand(sb.Max)
	}
	diag := sceneBounds.Max.Sub(sceneBounds.Min)
	type codedShape struct {
		shape Shape
		code  uint32
	}
	coded := make([]codedShape, len(b.shapes))
	for i, s := range b.shapes {
		c := s.GetCenter()
		nx, ny, nz := 0.5, 0.5, 0.5
		if diag.X > 0 {
			nx = (c.X - sceneBounds.Min.X) / diag.X
		}
		if diag.Y > 0 {
			ny = (c.Y - sceneBounds.Min.Y) / diag.Y
		}
		if diag.Z > 0 {
			nz = (c.Z - sceneBounds.Min.Z) / diag.Z
		}
		coded[i] = codedShape{shape: s, code: math.Morton3D(nx, ny, nz)}
	}
	sort.SliceStable(coded, func(i, j int) bool {
		return coded[i].code < coded[j].code
	})
	for i, cs := range coded {
		b.shapes[i] = cs.shape
	}

	b.build(0, len(b.shapes))
	return b
}

// build appends the node for the span [first, last) and returns its index.
func (b *BVH) build(first, last int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{left: -1, right: -1, first: first, last: last})

	bounds := b.shapes[first].GetAABB()
	for _, s := range b.shapes[first+1 : last] {
		sb := s.GetAABB()
		bounds = bounds.Expand(sb.Min).Expand(sb.Max)
	}
	b.nodes[idx].bounds = bounds

	if last-first > bvhLeafSize {
		mid := first + (last-first)/2
		left := b.build(first, mid)
		right := b.build(mid, last)
		b.nodes[idx].left = left
		b.nodes[idx].right = right
	}
	return idx
}

// IntersectsShapes returns every shape whose bounds overlap the query box,
// always including the infinite set.
func (b *BVH) IntersectsShapes(aabb math.AABB3D) []Shape {
	result := append([]Shape{}, b.infinite...)
	if len(b.nodes) == 0 {
		return result
	}

	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &b.nodes[idx]
		if !node.bounds.Intersects(aabb) {
			continue
		}
		if node.left < 0 {
			for _, s := range b.shapes[node.first:node.last] {
				if s.Intersects(aabb) {
					result = append(result, s)
				}
			}
			continue
		}
		stack = append(stack, node.left, node.right)
	}
	return result
}

// Bounds returns the box around every finite shape in the index.
func (b *BVH) Bounds() math.AABB3D {
	if len(b.nodes) == 0 {
		return math.AABB3D{}
	}
	return b.nodes[0].bounds
}
