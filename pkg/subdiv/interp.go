package subdiv

import (
	"lathe/pkg/primvar"
)

// maskIndex returns the index into v's buffer for the lath, honouring the
// variable's storage class.
func maskIndex(v *primvar.Var, l *Lath) int {
	if v.Class.PerVertex() {
		return l.vertexIndex
	}
	return l.faceVertexIndex
}

// isDiscontinuousFaceVertex notices facevertex values which disagree across
// the faces sharing a vertex; such vertices cannot be interpolated by the
// vertex rules and are treated as hard.
func isDiscontinuousFaceVertex(v *primvar.Var, vert *Lath, k int) bool {
	cur := v.Value(vert.faceVertexIndex)[k]
	for _, f := range vert.Qvf() {
		if !primvar.Close(cur, v.Value(f.faceVertexIndex)[k]) {
			return true
		}
	}
	return false
}

// isDiscontinuousFaceVertexEdge reports whether a facevertex value
// disagrees across the edge at either endpoint. Boundary edges cannot be
// discontinuous.
func isDiscontinuousFaceVertexEdge(v *primvar.Var, edge *Lath, k int) bool {
	companion := edge.Ec()
	if companion == nil {
		return false
	}
	return !primvar.Close(v.Value(edge.faceVertexIndex)[k], v.Value(edge.Cv().faceVertexIndex)[k]) ||
		!primvar.Close(v.Value(companion.faceVertexIndex)[k], v.Value(companion.Cv().faceVertexIndex)[k])
}

// faceAverage accumulates the mean of a component over the vertices of the
// face represented by l.
func faceAverage(v *primvar.Var, l *Lath, k int) float64 {
	sum, n := 0.0, 0
	for _, c := range l.Qfv() {
		sum += v.Value(maskIndex(v, c))[k]
		n++
	}
	return sum / float64(n)
}

// growEntry appends one entry to every variable of the matching classes in
// every time slot, returning the shared new vertex-class and
// facevertex-class indices. A non-negative iV means the vertex-class entry
// already exists (shared with a previously subdivided neighbour) and only
// the face classes grow.
func (t *Topology) growEntry(iV int, fill func(v *primvar.Var, idx int)) (int, int) {
	iFV := 0
	newVertex := iV < 0

	for slot := 0; slot < t.points.Count(); slot++ {
		for _, v := range t.points.Vars(slot) {
			var idx int
			switch {
			case v.Class.PerVertex():
				if !newVertex {
					continue
				}
				idx = v.Grow()
				iV = idx
			case v.Class.PerFaceVertex():
				idx = v.Grow()
				iFV = idx
			default:
				// Constant and uniform variables are per mesh / per face
				// and never grow with refinement.
				continue
			}
			fill(v, idx)
		}
	}

	// Keep the vertex reference table in step with the vertex count.
	for len(t.vertices) <= iV {
		t.vertices = append(t.vertices, nil)
	}
	return iV, iFV
}

// addFaceVertex appends the face-centroid value for every primvar: the mean
// of the face's values using the class-appropriate index.
func (t *Topology) addFaceVertex(face *Lath) (int, int) {
	return t.growEntry(-1, func(v *primvar.Var, idx int) {
		if !v.Type.Averageable() {
			v.Copy(idx, v, maskIndex(v, face))
			return
		}
		for k := 0; k < v.Stride(); k++ {
			v.Value(idx)[k] = faceAverage(v, face, k)
		}
	})
}

// addEdgeVertex appends the edge-midpoint value for every primvar. Vertex
// and facevertex classes use the smooth rule, pulled toward the adjacent
// face centroids and sharpened by the edge's crease weight; boundary or
// facevertex-discontinuous edges fall back to the plain midpoint. Varying
// and facevarying classes always take the midpoint.
func (t *Topology) addEdgeVertex(edge *Lath, iV int) (int, int) {
	return t.growEntry(iV, func(v *primvar.Var, idx int) {
		if !v.Type.Averageable() {
			v.Copy(idx, v, maskIndex(v, edge))
			return
		}
		smooth := v.Class == primvar.ClassVertex || v.Class == primvar.ClassFaceVertex
		h := t.EdgeSharpness(edge)
		for k := 0; k < v.Stride(); k++ {
			a := v.Value(maskIndex(v, edge))[k]
			b := v.Value(maskIndex(v, edge.Ccf()))[k]
			mid := (a + b) / 2

			if !smooth || edge.Ec() == nil ||
				(v.Class == primvar.ClassFaceVertex && isDiscontinuousFaceVertexEdge(v, edge, k)) {
				v.Value(idx)[k] = mid
				continue
			}

			// Average of the centroids of the two adjoining faces.
			c := 0.0
			qef := edge.Qef()
			for _, f := range qef {
				c += faceAverage(v, f, k)
			}
			c /= float64(len(qef))

			v.Value(idx)[k] = ((1+h)*mid + (1-h)*c) / 2
		}
	})
}

// addVertex appends the repositioned value of an original vertex for every
// primvar, applying the Catmull-Clark vertex masks for vertex and
// facevertex classes and a straight copy for varying and facevarying.
func (t *Topology) addVertex(vertex *Lath, iV int) (int, int) {
	return t.growEntry(iV, func(v *primvar.Var, idx int) {
		if !v.Type.Averageable() {
			v.Copy(idx, v, maskIndex(v, vertex))
			return
		}
		if v.Class != primvar.ClassVertex && v.Class != primvar.ClassFaceVertex {
			v.Copy(idx, v, maskIndex(v, vertex))
			return
		}
		t.createVertexValue(v, vertex, idx)
	})
}

// createVertexValue computes the subdivided position of an existing vertex
// for a vertex- or facevertex-class variable.
func (t *Topology) createVertexValue(v *primvar.Var, vertex *Lath, idx int) {
	qve := vertex.Qve()
	n := len(qve)
	boundary := vertex.IsBoundaryVertex()

	// Gather the crease structure once; it is shared by all components.
	var hard1, hard2, hard3 *Lath
	sharpEdges := 0
	if !boundary {
		for _, e := range qve {
			h := t.EdgeSharpness(e)
			switch {
			case hard1 == nil || h > t.EdgeSharpness(hard1):
				hard3, hard2, hard1 = hard2, hard1, e
			case hard2 == nil || h > t.EdgeSharpness(hard2):
				hard3, hard2 = hard2, e
			case hard3 == nil || h > t.EdgeSharpness(hard3):
				hard3 = e
			}
			if h > 0 {
				sharpEdges++
			}
		}
	}

	var qvf []*Lath
	if !boundary {
		qvf = vertex.Qvf()
	}

	for k := 0; k < v.Stride(); k++ {
		src := v.Value(maskIndex(v, vertex))[k]

		// A facevertex value that disagrees across the incident faces is
		// pinned, keeping the discontinuity crisp.
		if v.Class == primvar.ClassFaceVertex && isDiscontinuousFaceVertex(v, vertex, k) {
			v.Value(idx)[k] = src
			continue
		}

		if boundary {
			// Boundary facets are only seen with "interpolateboundary", so
			// no flag check is needed here.
			if n == 2 {
				// Valence-2 boundary is a corner; it stays put.
				v.Value(idx)[k] = src
				continue
			}
			r := 0.0
			for _, e := range qve {
				if e.Ec() != nil {
					continue
				}
				if e.vertexIndex == vertex.vertexIndex {
					r += v.Value(maskIndex(v, e.Ccf()))[k]
				} else {
					r += v.Value(maskIndex(v, e))[k]
				}
			}
			v.Value(idx)[k] = (r + 6*src) / 8
			continue
		}

		if t.CornerSharpness(vertex) > 0 {
			v.Value(idx)[k] = src
			continue
		}

		// Smooth interior rule: Q/n + 2R/n^2 + S(n-3)/n.
		q := 0.0
		for _, f := range qvf {
			q += faceAverage(v, f, k)
		}
		q /= float64(len(qvf))
		q /= float64(n)

		r := 0.0
		for _, e := range qve {
			b := v.Value(maskIndex(v, e.Ccf()))[k]
			r += (src + b) / 2
		}
		r = r * 2 / float64(n) / float64(n)

		s := src * float64(n-3) / float64(n)

		soft := q + r + s
		semiSharp := soft
		if sharpEdges >= 2 {
			r2 := v.Value(maskIndex(v, hard1.Ccf()))[k] + v.Value(maskIndex(v, hard2.Ccf()))[k]
			semiSharp = (r2 + 6*src) / 8
		}

		h2, h3 := 0.0, 0.0
		if hard2 != nil {
			h2 = t.EdgeSharpness(hard2)
		}
		if hard3 != nil {
			h3 = t.EdgeSharpness(hard3)
		}
		v.Value(idx)[k] = (1-h2)*soft + (h2-h3)*semiSharp + h3*src
	}
}

// duplicateVertex appends a copy of an existing vertex across every primvar
// and returns the new vertex and face-vertex indices. Used by the
// non-manifold repair in Finalise.
func (t *Topology) duplicateVertex(vertex *Lath) (int, int) {
	return t.growEntry(-1, func(v *primvar.Var, idx int) {
		v.Copy(idx, v, maskIndex(v, vertex))
	})
}
