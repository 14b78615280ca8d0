package subdiv

import (
	"lathe/pkg/math"
	"lathe/pkg/primvar"
)

// LimitPoint pushes a vertex to its position on the limit surface, using
// the limit masks for the generalised Catmull-Clark scheme:
//
//   - Sharp corners are stationary under subdivision and return themselves.
//   - A boundary vertex subdivides by the matrix 1/8·[6 1 1; 4 4 0; 4 0 4]
//     over [v e1 e2]; the left-eigenvector for eigenvalue 1 gives the limit
//     mask 1/6·[4 1 1]. Corner (valence-2) boundary vertices stay put.
//   - An interior vertex uses v' = (n²·v + Σ(4·eᵢ + fᵢ)) / (n·(n+5)), the
//     classic mask of Halstead, DeRose and Kass. The mask only holds on a
//     quadrilateral 1-ring, so the neighbourhood is subdivided once if
//     needed; for a remaining non-quad face of m vertices the face term is
//     replaced by f' = (4/m − 1)·(v + e + e') + (4/m)·Σg, which preserves
//     the centroid contribution of the extra vertices g.
//
// Creases are ignored here: only the limit mask for the standard rules is
// available in the literature.
//
// Subdivision may grow the point buffers, so positions are re-read after
// the neighbourhood pass.
func (t *Topology) LimitPoint(vert *Lath) math.Point3D {
	return t.LimitPointAt(vert, 0)
}

// LimitPointAt evaluates the limit point against the point pool slot for
// one motion time.
func (t *Topology) LimitPointAt(vert *Lath, slot int) math.Point3D {
	pos := t.points.P(slot).Point(vert.vertexIndex)

	if t.CornerSharpness(vert) > 0 {
		return pos
	}

	// All faces around the parent facet must be subdivided so the 1-ring
	// is present (and, one level down, quadrilateral).
	if vert.parentFacet != nil {
		v0 := vert.parentFacet
		v := v0
		for {
			t.subdivideNeighbourFaces(v)
			v = v.Cf()
			if v == v0 {
				break
			}
		}
	}

	// Fetch the buffer only after the subdivision above; it may have been
	// reallocated.
	P := t.points.P(slot)

	if vert.IsBoundaryVertex() {
		if vert.IsCornerVertex() {
			return pos
		}

		// Clockwise edge vertex e1.
		v := vert
		for v.Cv() != nil {
			v = v.Cv()
		}
		edgeSum := P.Point(v.Ccf().vertexIndex)

		// Counter-clockwise edge vertex e2.
		v = vert
		for v.Ccv() != nil {
			v = v.Ccv()
		}
		edgeSum = edgeSum.Add(P.Point(v.Cf().vertexIndex))

		return pos.Mul(4.0 / 6).Add(edgeSum.Mul(1.0 / 6))
	}

	var eSum, fSum math.Point3D
	numEdges := 0
	faceVert := vert
	for {
		e := faceVert.Cf()
		eSum = eSum.Add(P.Point(e.vertexIndex))

		f := e.Cf()
		if f.Cf().Cf() == faceVert {
			// Quadrilateral face: a single diagonal vertex.
			fSum = fSum.Add(P.Point(f.vertexIndex))
		} else {
			// Non-quadrilateral face: substitute a fake diagonal value
			// that leaves the centroid contribution unchanged.
			var gSum math.Point3D
			numVerts := 3
			eNext := faceVert.Ccf()
			for f != eNext {
				gSum = gSum.Add(P.Point(f.vertexIndex))
				numVerts++
				f = f.Cf()
			}
			m := float64(numVerts)
			corner := pos.Add(P.Point(e.vertexIndex)).Add(P.Point(eNext.vertexIndex))
			fSum = fSum.Add(corner.Mul(4/m - 1)).Add(gSum.Mul(4 / m))
		}

		faceVert = faceVert.Cv()
		numEdges++
		if faceVert == vert {
			break
		}
	}

	n := float64(numEdges)
	return pos.Mul(n * n).Add(eSum.Mul(4)).Add(fSum).Mul(1 / (n * (n + 5)))
}

// LimitVar evaluates the limit value of an arbitrary vertex-class variable
// component-wise with the same masks as LimitPointAt. The neighbourhood
// must already be quadrilateral (guaranteed after the position pass).
func (t *Topology) LimitVar(v *primvar.Var, vert *Lath, out []float64) {
	src := v.Value(maskIndex(v, vert))
	if t.CornerSharpness(vert) > 0 || (vert.IsBoundaryVertex() && vert.IsCornerVertex()) {
		copy(out, src)
		return
	}

	if vert.IsBoundaryVertex() {
		cw := vert
		for cw.Cv() != nil {
			cw = cw.Cv()
		}
		e1 := v.Value(maskIndex(v, cw.Ccf()))
		ccw := vert
		for ccw.Ccv() != nil {
			ccw = ccw.Ccv()
		}
		e2 := v.Value(maskIndex(v, ccw.Cf()))
		for k := range out {
			out[k] = (4*src[k] + e1[k] + e2[k]) / 6
		}
		return
	}

	n := 0.0
	for k := range out {
		out[k] = 0
	}
	faceVert := vert
	for {
		e := faceVert.Cf()
		eVal := v.Value(maskIndex(v, e))
		fVal := v.Value(maskIndex(v, e.Cf()))
		for k := range out {
			out[k] += 4*eVal[k] + fVal[k]
		}
		faceVert = faceVert.Cv()
		n++
		if faceVert == vert {
			break
		}
	}
	for k := range out {
		out[k] = (n*n*src[k] + out[k]) / (n * (n + 5))
	}
}
