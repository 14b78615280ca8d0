package subdiv

import (
	"github.com/go-gl/mathgl/mgl64"

	"lathe/pkg/math"
	"lathe/pkg/primvar"
)

// nbhdIndices extracts the vertex and facevertex indices for the
// neighbourhood of a regular patch.
//
// The neighbourhood of a regular interior patch consists of 9 quads with
// 4×4 vertices and 6×6 face vertices:
//
//	0-----------1-----------2-----------3   <- vertex
//	| 0       1 | 2       3 | 4       5 |   <- facevertex
//	|           |           |           |
//	| 6       7 | 8       9 | 10     11 |
//	4-----------5-----------6-----------7
//	| 12     13 | 14     15 | 16     17 |
//	|           |           |           |
//	| 18     19 | 20     21 | 22     23 |
//	8-----------9-----------10----------11
//	| 24     25 | 26     27 | 28     29 |
//	|           |           |           |
//	| 30     31 | 32     33 | 34     35 |
//	12----------13----------14----------15
//
// The walk below reads the indices out of the lath structure column by
// column; it is messy and hard to automate, which is why it is written out
// in full.
func nbhdIndices(face *Lath) (vertIdx [16]int, faceVertIdx [36]int) {
	vi, fi := 0, 0
	vget := func(v *Lath) { vertIdx[vi] = v.VertexIndex(); vi++ }
	fget := func(v *Lath) { faceVertIdx[fi] = v.FaceVertexIndex(); fi++ }

	// First column of patches.
	vCol := face.Cv().Cv().Cf().Cf()
	v := vCol
	vget(v)
	fget(v)
	v = v.Ccf()
	vget(v)
	fget(v)
	v = v.Cv()
	fget(v)
	v = v.Ccf()
	vget(v)
	fget(v)
	v = v.Cv()
	fget(v)
	v = v.Ccf()
	vget(v)
	fget(v)
	vCol = vCol.Cf()
	v = vCol
	fget(v)
	v = v.Cf()
	fget(v)
	v = v.Ccv()
	fget(v)
	v = v.Cf()
	fget(v)
	v = v.Ccv()
	fget(v)
	v = v.Cf()
	fget(v)
	// Second column of patches.
	vCol = vCol.Ccv()
	v = vCol
	vget(v)
	fget(v)
	v = v.Ccf()
	vget(v)
	fget(v)
	v = v.Cv()
	fget(v)
	v = v.Ccf()
	vget(v)
	fget(v)
	v = v.Cv()
	fget(v)
	v = v.Ccf()
	vget(v)
	fget(v)
	vCol = vCol.Cf()
	v = vCol
	vget(v)
	fget(v)
	v = v.Cf()
	vget(v)
	fget(v)
	v = v.Ccv()
	fget(v)
	v = v.Cf()
	vget(v)
	fget(v)
	v = v.Ccv()
	fget(v)
	v = v.Cf()
	vget(v)
	fget(v)
	// Third column of patches.
	vCol = vCol.Ccv()
	v = vCol
	fget(v)
	v = v.Ccf()
	fget(v)
	v = v.Cv()
	fget(v)
	v = v.Ccf()
	fget(v)
	v = v.Cv()
	fget(v)
	v = v.Ccf()
	fget(v)
	vCol = vCol.Cf()
	v = vCol
	vget(v)
	fget(v)
	v = v.Cf()
	vget(v)
	fget(v)
	v = v.Ccv()
	fget(v)
	v = v.Cf()
	vget(v)
	fget(v)
	v = v.Ccv()
	fget(v)
	v = v.Cf()
	vget(v)
	fget(v)
	return vertIdx, faceVertIdx
}

// fvPairsToCheck lists pairs of facevertex grid positions which must agree
// for the neighbourhood to be representable as a bspline patch: the edge
// midpoints of the central face and the identifications at its inner
// corners.
var fvPairsToCheck = [...][2]int{
	{1, 2}, {3, 4}, {6, 12}, {11, 17}, {18, 24}, {23, 29}, {31, 32}, {33, 34},
	{7, 14}, {8, 14}, {13, 14},
	{9, 15}, {10, 15}, {16, 15},
	{19, 20}, {25, 20}, {26, 20},
	{22, 21}, {27, 21}, {28, 21},
}

// CanUsePatch determines whether the topology surrounding the facet is
// suitable for conversion to a bicubic patch: a quad whose corners all have
// valence 4, no incident creases or sharp corners, no boundaries in the
// corner rings, a neighbourhood of exactly 9 quads, and facevertex data
// continuous across the interior seams.
func (t *Topology) CanUsePatch(face *Lath) bool {
	if face.CQfv() != 4 {
		return false
	}

	for _, fv := range face.Qfv() {
		if fv.CQvv() != 4 {
			return false
		}

		for _, ve := range fv.Qve() {
			if t.EdgeSharpness(ve) != 0 || t.CornerSharpness(ve) != 0 {
				return false
			}
		}

		// No internal boundaries: the clockwise vertex ring must close.
		end := fv.Cv()
		for fv != end {
			if end == nil {
				return false
			}
			end = end.Cv()
		}
	}

	qff := face.Qff()
	if len(qff) != 9 {
		return false
	}
	for _, ff := range qff {
		if ff.CQfv() != 4 {
			return false
		}
	}

	// Discontinuous facevertex data cannot be represented by the vertex
	// interpolation of a bspline patch.
	if len(t.faceVertexVars) != 0 {
		_, fvertIdx := nbhdIndices(face)

		var pairs [][2]int
		for _, p := range fvPairsToCheck {
			i1, i2 := fvertIdx[p[0]], fvertIdx[p[1]]
			if i1 != i2 {
				pairs = append(pairs, [2]int{i1, i2})
			}
		}

		for _, v := range t.faceVertexVars {
			if v.Type == primvar.TypeString || v.Type == primvar.TypeInteger {
				continue
			}
			for _, p := range pairs {
				if !v.ValuesClose(p[0], p[1]) {
					return false
				}
			}
		}
	}

	return true
}

// BicubicPatch is a bicubic Bezier patch extracted from a regular
// neighbourhood. P is the 4×4 control cage in row-major order, already
// converted from the bspline to the Bezier basis; Vars carries the
// primitive variables re-indexed onto the patch (16 entries for vertex
// class, 4 corners for varying and facevarying).
type BicubicPatch struct {
	FaceIndex int
	P         [16]math.Point3D
	Vars      []*primvar.Var
}

// bSplineBasis and bezierBasis are the RenderMan power-basis matrices for
// the two splines.
var (
	bSplineBasis = mgl64.Mat4FromRows(
		mgl64.Vec4{-1.0 / 6, 3.0 / 6, -3.0 / 6, 1.0 / 6},
		mgl64.Vec4{3.0 / 6, -6.0 / 6, 3.0 / 6, 0},
		mgl64.Vec4{-3.0 / 6, 0, 3.0 / 6, 0},
		mgl64.Vec4{1.0 / 6, 4.0 / 6, 1.0 / 6, 0},
	)
	bezierBasis = mgl64.Mat4FromRows(
		mgl64.Vec4{-1, 3, -3, 1},
		mgl64.Vec4{3, -6, 3, 0},
		mgl64.Vec4{-3, 3, 0, 0},
		mgl64.Vec4{1, 0, 0, 0},
	)
)

// bsplineToBezier converts a 4×4 bspline control cage to the Bezier basis:
// G' = A·G·Aᵀ with A = Mbezier⁻¹·Mbspline, applied per coordinate.
func bsplineToBezier(g *[16]math.Point3D) {
	a := bezierBasis.Inv().Mul4(bSplineBasis)
	at := a.Transpose()
	for axis := 0; axis < 3; axis++ {
		var m mgl64.Mat4
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				m.Set(r, c, coord(g[4*r+c], axis))
			}
		}
		m = a.Mul4(m).Mul4(at)
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				setCoord(&g[4*r+c], axis, m.At(r, c))
			}
		}
	}
}

func coord(p math.Point3D, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func setCoord(p *math.Point3D, axis int, v float64) {
	switch axis {
	case 0:
		p.X = v
	case 1:
		p.Y = v
	default:
		p.Z = v
	}
}

// fvToVertexOrder maps the 16 cage positions onto the 6×6 facevertex grid
// for converting continuous facevertex data to vertex data.
var fvToVertexOrder = [16]int{0, 2, 3, 5, 12, 14, 15, 17, 18, 20, 21, 23, 30, 32, 33, 35}

// ExtractPatch converts the regular neighbourhood around the facet into a
// bicubic Bezier patch. The caller must have verified CanUsePatch.
func (t *Topology) ExtractPatch(face *Lath, faceIndex int) *BicubicPatch {
	vertIdx, faceVertIdx := nbhdIndices(face)

	patch := &BicubicPatch{FaceIndex: faceIndex}

	P := t.points.P(0)
	for i, vi := range vertIdx {
		patch.P[i] = P.Point(vi)
	}
	bsplineToBezier(&patch.P)

	for _, v := range t.points.Vars(0) {
		switch v.Class {
		case primvar.ClassVarying:
			nv := primvar.New(v.Name, v.Class, v.Type, v.ArrayLen, 4)
			nv.Copy(0, v, vertIdx[5])
			nv.Copy(1, v, vertIdx[6])
			nv.Copy(2, v, vertIdx[9])
			nv.Copy(3, v, vertIdx[10])
			patch.Vars = append(patch.Vars, nv)

		case primvar.ClassVertex:
			nv := primvar.New(v.Name, v.Class, v.Type, v.ArrayLen, 16)
			for i := 0; i < 16; i++ {
				nv.Copy(i, v, vertIdx[i])
			}
			patch.Vars = append(patch.Vars, nv)

		case primvar.ClassFaceVarying:
			// One value per output patch corner.
			nv := primvar.New(v.Name, v.Class, v.Type, v.ArrayLen, 4)
			nv.Copy(0, v, faceVertIdx[14])
			nv.Copy(1, v, faceVertIdx[15])
			nv.Copy(2, v, faceVertIdx[20])
			nv.Copy(3, v, faceVertIdx[21])
			patch.Vars = append(patch.Vars, nv)

		case primvar.ClassFaceVertex:
			// The data is continuous here, so it converts cleanly into a
			// vertex variable on the cage.
			nv := primvar.New(v.Name, primvar.ClassVertex, v.Type, v.ArrayLen, 16)
			for i, fvi := range fvToVertexOrder {
				nv.Copy(i, v, faceVertIdx[fvi])
			}
			patch.Vars = append(patch.Vars, nv)

		case primvar.ClassUniform:
			nv := primvar.New(v.Name, v.Class, v.Type, v.ArrayLen, 1)
			nv.Copy(0, v, faceIndex)
			patch.Vars = append(patch.Vars, nv)

		case primvar.ClassConstant:
			nv := primvar.New(v.Name, v.Class, v.Type, v.ArrayLen, 1)
			nv.Copy(0, v, 0)
			patch.Vars = append(patch.Vars, nv)
		}
	}

	return patch
}

// PointAt evaluates the patch at parameters (u, v) in [0,1]² with the
// Bernstein basis.
func (p *BicubicPatch) PointAt(u, v float64) math.Point3D {
	bu := bernstein(u)
	bv := bernstein(v)
	var res math.Point3D
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			res = res.Add(p.P[4*r+c].Mul(bv[r] * bu[c]))
		}
	}
	return res
}

// NormalAt evaluates the surface normal at (u, v) from the two partial
// derivatives.
func (p *BicubicPatch) NormalAt(u, v float64) math.Normal3D {
	bu, bv := bernstein(u), bernstein(v)
	du, dv := bernsteinDeriv(u), bernsteinDeriv(v)
	var tu, tv math.Point3D
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			tu = tu.Add(p.P[4*r+c].Mul(bv[r] * du[c]))
			tv = tv.Add(p.P[4*r+c].Mul(dv[r] * bu[c]))
		}
	}
	return tu.Cross(tv).Normalize().ToNormal()
}

func bernstein(t float64) [4]float64 {
	s := 1 - t
	return [4]float64{s * s * s, 3 * s * s * t, 3 * s * t * t, t * t * t}
}

func bernsteinDeriv(t float64) [4]float64 {
	s := 1 - t
	return [4]float64{-3 * s * s, 3*s*s - 6*s*t, 6*s*t - 3*t*t, 3 * t * t}
}
