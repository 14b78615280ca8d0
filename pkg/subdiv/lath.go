package subdiv

// A Lath holds topological information about a mesh neighbourhood. Linked
// structures of laths represent adjoining faces, vertices and edges with
// neighbours accessible in O(1) time.
//
// The structure follows the "corner lath" of Joy, Legakis and MacCracken
// ("Data Structures for Multiresolution Representation of Unstructured
// Meshes"), extended with pointers that reference data up and down the
// subdivision hierarchy. There is one lath per corner of each face; the
// natural traversals are clockwise loops around a face (Cf) or a vertex
// (Cv).
//
// Each lath is associated with a unique face and vertex, and with the edge
// its Cv pointer crosses. Two laths share any non-boundary edge; Ec returns
// the one on the other side. The lath also carries indices into the
// primitive-variable buffers for vertex/varying data and for
// facevertex/facevarying data.
//
// Laths are owned by their Topology; all references returned by traversal
// are borrowed and live as long as the Topology does.
type Lath struct {
	clockwiseVertex *Lath
	clockwiseFacet  *Lath

	// Hierarchical subdivision links, filled in once when refinement
	// produces the next level.
	parentFacet *Lath // facet this one was subdivided from
	childVertex *Lath // this vertex at the next level
	midVertex   *Lath // midpoint of this edge at the next level
	faceVertex  *Lath // midpoint of this face at the next level

	vertexIndex     int
	faceVertexIndex int
}

// VertexIndex returns the index of the vertex this lath references.
func (l *Lath) VertexIndex() int { return l.vertexIndex }

// FaceVertexIndex returns the face-vertex index this lath references.
func (l *Lath) FaceVertexIndex() int { return l.faceVertexIndex }

// ParentFacet returns the lath of the facet this one was created from.
func (l *Lath) ParentFacet() *Lath { return l.parentFacet }

// ChildVertex returns the lath representing this vertex at the next level.
func (l *Lath) ChildVertex() *Lath { return l.childVertex }

// MidVertex returns the lath for this edge's midpoint at the next level.
func (l *Lath) MidVertex() *Lath { return l.midVertex }

// FaceVertex returns the lath for this face's midpoint at the next level.
func (l *Lath) FaceVertex() *Lath { return l.faceVertex }

// Cf returns the next lath clockwise around the facet. Inherent in the data
// structure; never nil in a well-formed mesh.
func (l *Lath) Cf() *Lath { return l.clockwiseFacet }

// Cv returns the next lath clockwise around the vertex, or nil when the
// clockwise direction runs off a boundary.
func (l *Lath) Cv() *Lath { return l.clockwiseVertex }

// Ec returns the edge companion: the lath representing the same edge in the
// opposite direction, or nil for a boundary edge.
func (l *Lath) Ec() *Lath {
	if l.clockwiseVertex != nil {
		return l.clockwiseVertex.clockwiseFacet
	}
	return nil
}

// Ccv returns the next lath counter-clockwise about the vertex, or nil at a
// boundary. Constant time in all cases.
func (l *Lath) Ccv() *Lath {
	if ec := l.clockwiseFacet.Ec(); ec != nil {
		return ec
	}
	return nil
}

// Ccf returns the next lath counter-clockwise about the facet. Constant
// time except when the associated edge is a boundary edge, in which case it
// is linear in the valence of the facet.
func (l *Lath) Ccf() *Lath {
	if ec := l.Ec(); ec != nil && ec.clockwiseVertex != nil {
		return ec.clockwiseVertex
	}
	return l.ccfBoundary()
}

// ccfBoundary searches backwards around the facet for the lath whose Cf is
// the receiver.
func (l *Lath) ccfBoundary() *Lath {
	p := l.clockwiseFacet
	for {
		next := p.clockwiseFacet
		if next == l || next == nil {
			break
		}
		p = next
	}
	return p
}

// Qfv returns the laths representing the vertices of the facet, in
// clockwise order starting from the receiver.
func (l *Lath) Qfv() []*Lath {
	result := []*Lath{l}
	for p := l.clockwiseFacet; p != l; p = p.clockwiseFacet {
		result = append(result, p)
	}
	return result
}

// Qfe returns the laths representing the edges of the facet. The edge
// associated with each lath is the one crossed by its Cv pointer, so this
// is the same walk as Qfv.
func (l *Lath) Qfe() []*Lath { return l.Qfv() }

// Qef returns the laths for the one or two faces bounding the edge.
func (l *Lath) Qef() []*Lath {
	if ec := l.Ec(); ec != nil {
		return []*Lath{l, ec}
	}
	return []*Lath{l}
}

// Qev returns the laths for the two vertices making up the edge.
func (l *Lath) Qev() []*Lath {
	return []*Lath{l, l.Ccf()}
}

// Qve returns the laths for the edges emanating from the vertex. The walk
// runs clockwise from the receiver; if it hits a boundary it restarts from
// the receiver counter-clockwise, and finally appends the face companion of
// the far boundary edge. That last entry references the opposite vertex.
func (l *Lath) Qve() []*Lath {
	result := []*Lath{l}
	p := l.clockwiseVertex
	for p != nil && p != l {
		result = append(result, p)
		p = p.clockwiseVertex
	}
	if p == nil {
		last := l
		p = l.Ccv()
		for p != nil {
			result = append(result, p)
			last = p
			p = p.Ccv()
		}
		result = append(result, last.clockwiseFacet)
	}
	return result
}

// Qvv returns the laths for the vertices adjacent to the vertex. Entries of
// Qve still referencing this vertex are stepped to their Ccf; the boundary
// terminator already references the opposite vertex and is kept.
func (l *Lath) Qvv() []*Lath {
	result := l.Qve()
	for i, p := range result {
		if p.vertexIndex == l.vertexIndex {
			result[i] = p.Ccf()
		}
	}
	return result
}

// Qvf returns the laths for the facets sharing the vertex.
func (l *Lath) Qvf() []*Lath {
	result := []*Lath{l}
	p := l.clockwiseVertex
	for p != nil && p != l {
		result = append(result, p)
		p = p.clockwiseVertex
	}
	if p == nil {
		for p = l.Ccv(); p != nil; p = p.Ccv() {
			result = append(result, p)
		}
	}
	return result
}

// Qee returns the laths for the edges sharing a vertex with this edge: the
// union of Qve at both endpoints, with the edge itself deduplicated.
func (l *Lath) Qee() []*Lath {
	result := l.Qve()
	ec := l.Ec()
	for _, p := range l.Ccf().Qve() {
		if p != ec && p != l {
			result = append(result, p)
		}
	}
	return result
}

// Qff returns the laths for the faces sharing a vertex or an edge with this
// facet. Candidates are collected from the vertex rings of every corner and
// deduplicated by walking each already-accepted face's Cf loop.
func (l *Lath) Qff() []*Lath {
	var result []*Lath
	for _, edge := range l.Qfe() {
		for _, cand := range edge.Qve() {
			seen := false
			for _, acc := range result {
				p := acc
				for {
					if p == cand {
						seen = true
						break
					}
					p = p.clockwiseFacet
					if p == acc {
						break
					}
				}
				if seen {
					break
				}
			}
			if !seen {
				result = append(result, cand)
			}
		}
	}
	return result
}

// CQfv returns the valence of the facet.
func (l *Lath) CQfv() int {
	c := 1
	for p := l.clockwiseFacet; p != l; p = p.clockwiseFacet {
		c++
	}
	return c
}

// CQve returns the number of edges emanating from the vertex.
func (l *Lath) CQve() int {
	c := 1
	p := l.clockwiseVertex
	for p != nil && p != l {
		c++
		p = p.clockwiseVertex
	}
	if p == nil {
		for p = l.Ccv(); p != nil; p = p.Ccv() {
			c++
		}
		c++ // the far boundary edge companion
	}
	return c
}

// CQvv returns the number of vertices adjacent to the vertex.
func (l *Lath) CQvv() int { return l.CQve() }

// CQvf returns the number of facets sharing the vertex.
func (l *Lath) CQvf() int {
	c := 1
	p := l.clockwiseVertex
	for p != nil && p != l {
		c++
		p = p.clockwiseVertex
	}
	if p == nil {
		for p = l.Ccv(); p != nil; p = p.Ccv() {
			c++
		}
	}
	return c
}

// IsBoundaryEdge reports whether the edge has no companion.
func (l *Lath) IsBoundaryEdge() bool { return l.Ec() == nil }

// IsBoundaryVertex reports whether the Ccv loop fails to close.
func (l *Lath) IsBoundaryVertex() bool {
	for p := l.Ccv(); p != l; p = p.Ccv() {
		if p == nil {
			return true
		}
	}
	return false
}

// IsBoundaryFacet reports whether any vertex of the facet is a boundary
// vertex.
func (l *Lath) IsBoundaryFacet() bool {
	for _, v := range l.Qfv() {
		if v.IsBoundaryVertex() {
			return true
		}
	}
	return false
}

// IsCornerVertex reports whether the vertex has only two edges and one face
// attached.
func (l *Lath) IsCornerVertex() bool {
	return l.clockwiseVertex == nil && l.clockwiseFacet.clockwiseVertex == nil
}
