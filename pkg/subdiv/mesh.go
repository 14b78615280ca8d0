package subdiv

import (
	"lathe/pkg/math"
	"lathe/pkg/primvar"
)

// SubdivMesh is a complete subdivision-mesh primitive: the topology plus
// the number of top-level faces it was declared with.
type SubdivMesh struct {
	Topology *Topology
	NumFaces int
}

// NewMesh wraps a finalised topology as a renderable mesh primitive.
func NewMesh(top *Topology, numFaces int) *SubdivMesh {
	return &SubdivMesh{Topology: top, NumFaces: numFaces}
}

// Split breaks the mesh into per-face patch primitives. Boundary faces are
// only rendered when "interpolateboundary" was tagged, and hole faces are
// skipped entirely; their geometry still participates in the neighbouring
// subdivision masks.
func (m *SubdivMesh) Split() []*SubdivPatch {
	var patches []*SubdivPatch
	for face := 0; face < m.NumFaces; face++ {
		if m.Topology.Facet(face).IsBoundaryFacet() && !m.Topology.InterpolateBoundary() {
			continue
		}
		if m.Topology.IsHoleFace(face) {
			continue
		}
		patches = append(patches, &SubdivPatch{
			Topology:  m.Topology,
			Face:      m.Topology.Facet(face),
			FaceIndex: face,
		})
	}
	return patches
}

// Bound returns the bounding box of every control point over every motion
// slot.
func (m *SubdivMesh) Bound() math.AABB3D {
	var bound math.AABB3D
	first := true
	for slot := 0; slot < m.Topology.points.Count(); slot++ {
		P := m.Topology.points.P(slot)
		for i := 0; i < P.Size(); i++ {
			p := P.Point(i)
			if first {
				bound = math.AABB3D{Min: p, Max: p}
				first = false
			} else {
				bound = bound.Expand(p)
			}
		}
	}
	return bound
}

// SubdivPatch is a single face of a subdivision mesh at some refinement
// level, awaiting either extraction as a bicubic patch or another split.
type SubdivPatch struct {
	Topology  *Topology
	Face      *Lath
	FaceIndex int
}

// Split either extracts the face as a single bicubic patch, when its
// neighbourhood is regular, or subdivides once and returns the sub-faces
// as new patch primitives. Sub-faces share the parent's face index, so
// uniform values are stable down the subdivision stack.
func (p *SubdivPatch) Split() ([]*BicubicPatch, []*SubdivPatch) {
	if p.Topology.CanUsePatch(p.Face) {
		return []*BicubicPatch{p.Topology.ExtractPatch(p.Face, p.FaceIndex)}, nil
	}
	var subs []*SubdivPatch
	for _, sf := range p.Topology.SubdivideFace(p.Face) {
		subs = append(subs, &SubdivPatch{Topology: p.Topology, Face: sf, FaceIndex: p.FaceIndex})
	}
	return nil, subs
}

// Bound returns the bounding box of the patch's 1-ring neighbourhood over
// all motion slots. Neighbour faces of the parent are subdivided first so
// the ring exists at this level.
func (p *SubdivPatch) Bound() math.AABB3D {
	if p.Face.ParentFacet() != nil {
		for _, f := range p.Face.ParentFacet().Qff() {
			if f.FaceVertex() == nil {
				p.Topology.SubdivideFace(f)
			}
		}
	}

	var bound math.AABB3D
	first := true
	for _, ff := range p.Face.Qff() {
		for _, fv := range ff.Qfv() {
			for slot := 0; slot < p.Topology.points.Count(); slot++ {
				pt := p.Topology.points.P(slot).Point(fv.VertexIndex())
				if first {
					bound = math.AABB3D{Min: pt, Max: pt}
					first = false
				} else {
					bound = bound.Expand(pt)
				}
			}
		}
	}
	return bound
}

// diceSizes maps a requested grid resolution to a subdivision depth.
var diceSizes = [...]int{0, 0, 1, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 4}

// Grid is a diced micropolygon grid: (NU+1)×(NV+1) limit-surface points in
// row-major order, one position slice per motion slot, plus the primitive
// variables gathered at each grid vertex.
type Grid struct {
	NU, NV int
	P      [][]math.Point3D
	Vars   []*primvar.Var
}

// Dice refines the patch until it carries at least the requested number of
// micropolygons per side (capped at 16), then walks the resulting sub-face
// grid, storing the limit position and primitive variables at every grid
// vertex.
func (p *SubdivPatch) Dice(uSize, vSize int) *Grid {
	dicesize := uSize
	if vSize > dicesize {
		dicesize = vSize
	}
	if dicesize > 16 {
		dicesize = 16
	}
	if dicesize < 0 {
		dicesize = 0
	}
	sdcount := diceSizes[dicesize]
	dicesize = 1 << sdcount

	top := p.Topology

	// Fan the face out to the required depth.
	current := []*Lath{p.Face}
	for level := 0; level < sdcount; level++ {
		var next []*Lath
		for _, f := range current {
			next = append(next, top.SubdivideFace(f)...)
		}
		current = next
	}

	nc, nr := dicesize, dicesize
	grid := &Grid{NU: nc, NV: nr}
	nPoints := (nc + 1) * (nr + 1)
	for slot := 0; slot < top.points.Count(); slot++ {
		grid.P = append(grid.P, make([]math.Point3D, nPoints))
	}
	for _, v := range top.points.Vars(0) {
		size := nPoints
		if v.Class == primvar.ClassConstant || v.Class == primvar.ClassUniform {
			size = 1
		}
		grid.Vars = append(grid.Vars, primvar.New(v.Name, v.Class, v.Type, v.ArrayLen, size))
	}

	store := func(vert *Lath, idx int) {
		for slot := range grid.P {
			grid.P[slot][idx] = top.LimitPointAt(vert, slot)
		}
		for vi, v := range top.points.Vars(0) {
			gv := grid.Vars[vi]
			switch v.Class {
			case primvar.ClassConstant:
				gv.Copy(0, v, 0)
			case primvar.ClassUniform:
				gv.Copy(0, v, p.FaceIndex)
			default:
				gv.Copy(idx, v, maskIndex(v, vert))
			}
		}
	}

	// Serpentine walk over the sub-face grid: the first sub-face of the
	// deepest level sits at the grid origin, rows advance by stepping the
	// row anchor clockwise around its facet.
	lath := current[0]
	temp := lath

	store(lath, 0)
	idx := 1
	lath = lath.Ccf()
	for c := 0; c < nc; c++ {
		store(lath, idx)
		if c < nc-1 {
			lath = lath.Cv().Ccf()
		}
		idx++
	}

	for r := 1; r <= nr; r++ {
		lath = temp.Cf()
		if r < nr {
			temp = lath.Ccv()
		}
		idx = r * (nc + 1)
		store(lath, idx)
		idx++
		lath = lath.Cf()
		for c := 0; c < nc; c++ {
			store(lath, idx)
			if c < nc-1 {
				lath = lath.Ccv().Cf()
			}
			idx++
		}
	}

	return grid
}

// Point returns grid vertex (u, v) of a motion slot.
func (g *Grid) Point(slot, u, v int) math.Point3D {
	return g.P[slot][v*(g.NU+1)+u]
}

// Normal approximates the surface normal at grid vertex (u, v) from the
// neighbouring positions.
func (g *Grid) Normal(slot, u, v int) math.Normal3D {
	u0, u1 := u, u+1
	if u1 > g.NU {
		u0, u1 = u-1, u
	}
	v0, v1 := v, v+1
	if v1 > g.NV {
		v0, v1 = v-1, v
	}
	du := g.Point(slot, u1, v).Sub(g.Point(slot, u0, v))
	dv := g.Point(slot, u, v1).Sub(g.Point(slot, u, v0))
	return du.Cross(dv).Normalize().ToNormal()
}
