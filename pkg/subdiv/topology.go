package subdiv

import (
	"errors"
	"log/slog"

	"lathe/pkg/primvar"
)

// Errors reported while building topology.
var (
	// ErrInvalidTopology is returned when a mesh remains non-manifold
	// after the repair pass.
	ErrInvalidTopology = errors.New("non-manifold topology")
	// ErrDegenerateLoop marks a face with fewer than three vertices.
	ErrDegenerateLoop = errors.New("degenerate face loop")
)

// Topology is the container for the topology of a subdivision mesh. It owns
// the arena of laths, the per-vertex lath buckets used while finalising,
// the tag maps, and the keyframed point pool the laths index into.
//
// A Topology is built with Prepare and repeated AddFacet calls, then fixed
// with Finalise. After Finalise it only changes through hierarchical
// refinement (SubdivideFace), which appends and never removes.
type Topology struct {
	points *primvar.Pool

	facets   []*Lath   // one representative lath per facet
	laths    []*Lath   // arena of every lath created
	vertices [][]*Lath // laths incident on each vertex

	holes               map[int]bool
	sharpEdges          map[*Lath]float64
	sharpCorners        map[*Lath]float64
	interpolateBoundary bool

	// facevertex-class variables, cached for the patch predicate.
	faceVertexVars []*primvar.Var

	finalised bool
}

// New creates a topology over the given point pool.
func New(points *primvar.Pool) *Topology {
	t := &Topology{
		points:       points,
		holes:        make(map[int]bool),
		sharpEdges:   make(map[*Lath]float64),
		sharpCorners: make(map[*Lath]float64),
	}
	for _, v := range points.Vars(0) {
		if v.Class == primvar.ClassFaceVertex {
			t.faceVertexVars = append(t.faceVertexVars, v)
		}
	}
	return t
}

// Points returns the point pool backing this topology.
func (t *Topology) Points() *primvar.Pool { return t.points }

// Prepare sizes the vertex reference table for cVerts vertices.
func (t *Topology) Prepare(cVerts int) {
	t.vertices = make([][]*Lath, cVerts)
	t.finalised = false
}

// FacetCount returns the number of facets in the topology.
func (t *Topology) FacetCount() int { return len(t.facets) }

// LathCount returns the number of laths in the arena.
func (t *Topology) LathCount() int { return len(t.laths) }

// VertexCount returns the number of vertices referenced by the topology.
func (t *Topology) VertexCount() int { return len(t.vertices) }

// Facet returns the representative lath of facet i.
func (t *Topology) Facet(i int) *Lath { return t.facets[i] }

// Vertex returns a lath incident on vertex i, nil if the vertex is unused.
func (t *Topology) Vertex(i int) *Lath {
	if len(t.vertices[i]) == 0 {
		return nil
	}
	return t.vertices[i][0]
}

// SetInterpolateBoundary switches boundary interpolation on or off.
func (t *Topology) SetInterpolateBoundary(state bool) { t.interpolateBoundary = state }

// InterpolateBoundary reports whether boundary faces are rendered.
func (t *Topology) InterpolateBoundary() bool { return t.interpolateBoundary }

// SetHoleFace marks facet i as a hole: its geometry still participates in
// the subdivision masks but the facet itself is never rendered.
func (t *Topology) SetHoleFace(i int) { t.holes[i] = true }

// IsHoleFace reports whether facet i is a hole.
func (t *Topology) IsHoleFace(i int) bool { return t.holes[i] }

// AddSharpEdge tags the edge of the given lath with a sharpness. The caller
// is responsible for tagging the companion lath with the same value.
func (t *Topology) AddSharpEdge(l *Lath, sharpness float64) {
	t.sharpEdges[l] = sharpness
}

// EdgeSharpness returns the sharpness of the edge of the given lath, zero
// when untagged.
func (t *Topology) EdgeSharpness(l *Lath) float64 { return t.sharpEdges[l] }

// AddSharpCorner tags the vertex of the given lath with a corner sharpness.
// Every lath of the vertex fan receives the tag.
func (t *Topology) AddSharpCorner(l *Lath, sharpness float64) {
	for _, p := range l.Qvf() {
		t.sharpCorners[p] = sharpness
	}
}

// CornerSharpness returns the corner sharpness at the lath's vertex, zero
// when untagged.
func (t *Topology) CornerSharpness(l *Lath) float64 { return t.sharpCorners[l] }

// newLath allocates a lath in the arena.
func (t *Topology) newLath(iV, iFV int) *Lath {
	l := &Lath{vertexIndex: iV, faceVertexIndex: iFV}
	t.laths = append(t.laths, l)
	return l
}

// AddFacet adds a facet whose face-vertex indices run sequentially from
// fvStart. Vertex indices arrive counter-clockwise, as stored outside the
// topology; the laths are chained clockwise by linking each new lath back
// to its predecessor. Faces with fewer than three vertices are dropped with
// a warning.
func (t *Topology) AddFacet(indices []int, fvStart int) *Lath {
	fvIndices := make([]int, len(indices))
	for i := range fvIndices {
		fvIndices[i] = fvStart + i
	}
	return t.AddFacetFV(indices, fvIndices)
}

// AddFacetFV adds a facet with explicit face-vertex indices per corner.
func (t *Topology) AddFacetFV(indices, fvIndices []int) *Lath {
	if len(indices) < 3 {
		slog.Warn("dropping degenerate face", "vertices", len(indices), "err", ErrDegenerateLoop)
		return nil
	}
	var first, last *Lath
	for i, iv := range indices {
		l := t.newLath(iv, fvIndices[i])
		if last != nil {
			l.clockwiseFacet = last
		}
		last = l
		if i == 0 {
			first = l
		}
		t.vertices[iv] = append(t.vertices[iv], l)
	}
	// Complete the ring by linking the first lath back to the last.
	first.clockwiseFacet = last
	t.facets = append(t.facets, first)
	return first
}

// Finalise links the laths of each vertex into clockwise fans, walking
// clockwise first and counter-clockwise after a boundary stall. Vertices
// whose laths do not form a single fan are non-manifold; they are repaired
// by duplicating the vertex and moving the unvisited laths onto the copy.
// Cf chains are never altered.
func (t *Topology) Finalise() error {
	for i := 0; i < len(t.vertices); i++ {
		bucket := t.vertices[i]
		cLaths := len(bucket)
		if cLaths <= 1 {
			continue
		}

		visited := make([]bool, cLaths)
		cVisited := 0

		current, start := bucket[0], bucket[0]
		iStart := 0

		for {
			// Find a clockwise match for the counter-clockwise vertex
			// index of the current lath.
			ccwVertex := current.Ccf().vertexIndex
			found := -1
			for iLath := 0; iLath < cLaths; iLath++ {
				if !visited[iLath] && bucket[iLath].Cf().vertexIndex == ccwVertex {
					current.clockwiseVertex = bucket[iLath]
					current = bucket[iLath]
					visited[iLath] = true
					cVisited++
					found = iLath
					break
				}
			}
			if found < 0 {
				break
			}
		}

		// A stalled walk means a boundary; restart from the original lath
		// and link counter-clockwise.
		if current.clockwiseVertex == nil {
			for {
				cwVertex := start.Cf().vertexIndex
				found := -1
				for iLath := 0; iLath < cLaths; iLath++ {
					if !visited[iLath] && bucket[iLath].Ccf().vertexIndex == cwVertex {
						bucket[iLath].clockwiseVertex = start
						visited[iStart] = true
						cVisited++
						start = bucket[iLath]
						iStart = iLath
						found = iLath
						break
					}
				}
				if found < 0 {
					break
				}
			}
		}
		visited[iStart] = true
		cVisited++

		// Any unvisited laths mean the vertex is non-manifold. Repair by
		// duplicating the vertex and moving the leftover laths onto it.
		if cVisited < cLaths {
			slog.Error("non-manifold vertex in control hull", "vertex", current.vertexIndex)
			iNewVert, iNewFVert := t.duplicateVertex(current)
			if iNewVert < 0 {
				return ErrInvalidTopology
			}
			kept := bucket[:0]
			for iLath, l := range bucket {
				if visited[iLath] {
					kept = append(kept, l)
					continue
				}
				l.vertexIndex = iNewVert
				l.faceVertexIndex = iNewFVert
				t.vertices[iNewVert] = append(t.vertices[iNewVert], l)
			}
			// The duplicate's bucket sits past i and is fan-linked when
			// the outer loop reaches it.
			t.vertices[i] = kept
		}
	}

	t.finalised = true
	return nil
}
