package subdiv

// faceLaths collects the four laths of one sub-quad during refinement.
// A is the corner child, B the next edge midpoint, C the face centre and D
// the edge midpoint belonging to this corner.
type faceLaths struct {
	a, b, c, d *Lath
}

// SubdivideFace refines the given facet one level, returning the laths of
// its sub-faces rotated so each keeps the parent's orientation. The call is
// idempotent: a facet whose face-vertex link is already set just reads the
// existing child structure back.
func (t *Topology) SubdivideFace(face *Lath) []*Lath {
	if face == nil {
		return nil
	}

	// Already subdivided: reconstruct the sub-face list from the laths
	// around the face centre. The subdivision produces quads with the
	// centre as their third vertex, so step back two corners and then
	// rotate each successive quad to restore the parent orientation.
	if face.faceVertex != nil {
		var subFaces []*Lath
		for i, vf := range face.faceVertex.Qvf() {
			f := vf.Ccf().Ccf()
			for r := i; r > 0; r-- {
				f = f.Ccf()
			}
			subFaces = append(subFaces, f)
		}
		return subFaces
	}

	// Make sure the neighbourhood of the parent facet is subdivided first,
	// so shared edge midpoints and corner children already exist and are
	// reused instead of inserted twice.
	if face.parentFacet != nil {
		for _, vert := range face.parentFacet.Qfv() {
			t.subdivideNeighbourFaces(vert)
		}
	}

	qfv := face.Qfv()
	n := len(qfv)

	// Vertex and face-vertex indices for the new points: corner children in
	// [0,n), edge midpoints in [n,2n), the face centre at 2n.
	vertices := make([]int, 2*n+1)
	fvertices := make([]int, 2*n+1)

	vertices[2*n], fvertices[2*n] = t.addFaceVertex(face)

	for i := 0; i < n; i++ {
		iVert := -1
		if ec := qfv[i].Ec(); ec != nil && ec.midVertex != nil {
			// The neighbour across this edge has been subdivided; reuse
			// its midpoint vertex.
			iVert = ec.midVertex.vertexIndex
		}
		vertices[i+n], fvertices[i+n] = t.addEdgeVertex(qfv[i], iVert)
	}

	for i := 0; i < n; i++ {
		iVert := -1
		if qfv[i].childVertex != nil {
			iVert = qfv[i].childVertex.vertexIndex
		}
		vertices[i], fvertices[i] = t.addVertex(qfv[i], iVert)
	}

	// Create the n quads: for corner i the quad is (child_i, mid_{i+1},
	// centre, mid_i), chained clockwise.
	laths := make([]faceLaths, n)
	var subFaces []*Lath
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a := t.newLath(vertices[i], fvertices[i])
		b := t.newLath(vertices[j+n], fvertices[j+n])
		c := t.newLath(vertices[2*n], fvertices[2*n])
		d := t.newLath(vertices[i+n], fvertices[i+n])
		laths[i] = faceLaths{a, b, c, d}

		a.clockwiseFacet = b
		b.clockwiseFacet = c
		c.clockwiseFacet = d
		d.clockwiseFacet = a

		a.parentFacet = qfv[i]
		b.parentFacet = qfv[i]
		c.parentFacet = qfv[i]
		d.parentFacet = qfv[i]

		t.vertices[a.vertexIndex] = append(t.vertices[a.vertexIndex], a)
		t.vertices[b.vertexIndex] = append(t.vertices[b.vertexIndex], b)
		t.vertices[c.vertexIndex] = append(t.vertices[c.vertexIndex], c)
		t.vertices[d.vertexIndex] = append(t.vertices[d.vertexIndex], d)

		// Record the child vertex on every lath of the parent vertex fan
		// so later subdivisions of neighbours find it.
		p := qfv[i]
		for {
			p.childVertex = a
			p = p.clockwiseVertex
			if p == nil || p == qfv[i] {
				break
			}
		}
		if p == nil {
			for p = qfv[i].Ccv(); p != nil; p = p.Ccv() {
				p.childVertex = a
			}
		}

		// And the midpoint of this edge, for the neighbour across it.
		qfv[i].midVertex = d

		// Creases decay quadratically per level; corner tags copy through.
		if sharpness := t.EdgeSharpness(qfv[i]); sharpness > 0 {
			t.AddSharpEdge(a, sharpness*sharpness)
		}
		if sharpness := t.EdgeSharpness(qfv[j]); sharpness > 0 {
			t.AddSharpEdge(b, sharpness*sharpness)
		}
		if cs := t.CornerSharpness(qfv[i]); cs > 0 {
			t.AddSharpCorner(a, cs)
		}

		// Return each sub-face rotated into the parent's orientation.
		f := a
		for r := i; r > 0; r-- {
			f = f.Ccf()
		}
		subFaces = append(subFaces, f)
		t.facets = append(t.facets, f)
	}

	// Hook up the clockwise vertex pointers we can. The face-centre ring
	// and midpoint-to-B links are internal to this face; corner and
	// midpoint fans also connect across previously subdivided neighbours.
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		qfv[i].faceVertex = laths[i].c
		laths[j].d.clockwiseVertex = laths[i].b
		laths[i].c.clockwiseVertex = laths[j].c

		for _, vl := range t.vertices[laths[i].a.vertexIndex] {
			if vl.Cf().vertexIndex == laths[i].d.vertexIndex {
				laths[i].a.clockwiseVertex = vl
			}
			if vl.Ccf().vertexIndex == laths[i].b.vertexIndex {
				vl.clockwiseVertex = laths[i].a
			}
		}
	}

	for i := 0; i < n; i++ {
		for _, vl := range t.vertices[laths[i].b.vertexIndex] {
			if vl.Cf().vertexIndex == laths[i].a.vertexIndex {
				laths[i].b.clockwiseVertex = vl
			}
		}
		for _, vl := range t.vertices[laths[i].d.vertexIndex] {
			if vl.Ccf().vertexIndex == laths[i].a.vertexIndex {
				vl.clockwiseVertex = laths[i].d
			}
		}
	}

	return subFaces
}

// subdivideNeighbourFaces subdivides every facet around the given vertex
// that has not been refined yet.
func (t *Topology) subdivideNeighbourFaces(vert *Lath) {
	f := vert
	for {
		if f.faceVertex == nil {
			t.SubdivideFace(f)
		}
		f = f.Cv()
		if f == nil || f == vert {
			break
		}
	}
	if f == nil {
		// A boundary was hit; sweep the other way as well.
		for f = vert.Ccv(); f != nil; f = f.Ccv() {
			if f.faceVertex == nil {
				t.SubdivideFace(f)
			}
		}
	}
}
