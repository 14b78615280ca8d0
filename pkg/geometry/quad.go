package geometry

import (
	"image/color"
	gomath "math"

	"lathe/pkg/math"
	"lathe/pkg/texture"
)

// BilinearQuad is a single micropolygon: four corner positions with
// optional per-corner normals and texture coordinates. Since diced grids
// are thin, a small thickness gives the quad a volume for containment
// tests.
type BilinearQuad struct {
	P00, P10, P11, P01 math.Point3D
	N00, N10, N11, N01 math.Normal3D
	UV00, UV10, UV11, UV01 [2]float64
	AABB               math.AABB3D
	Color              color.RGBA
	Thickness          float64
	Shininess          float64
	SpecularIntensity  float64
	SpecularColor      color.RGBA
	Texture            *texture.TextureMap
}

// PositionAt calculates the point on the quad at parameters u, v:
// P(u,v) = (1-u)(1-v)P00 + u(1-v)P10 + uvP11 + (1-u)vP01.
func (q *BilinearQuad) PositionAt(u, v float64) math.Point3D {
	return q.P00.Mul((1 - u) * (1 - v)).
		Add(q.P10.Mul(u * (1 - v))).
		Add(q.P11.Mul(u * v)).
		Add(q.P01.Mul((1 - u) * v))
}

// NormalAtPoint returns the surface normal at the given point, using
// smooth vertex normals when they are defined and the geometric normal
// otherwise.
func (q *BilinearQuad) NormalAtPoint(p math.Point3D, t float64) math.Normal3D {
	zero := math.Normal3D{}
	if q.N00 != zero || q.N10 != zero || q.N11 != zero || q.N01 != zero {
		u, v := q.findUVForPoint(p)
		n := q.N00.Mul((1 - u) * (1 - v)).
			Add(q.N10.Mul(u * (1 - v))).
			Add(q.N11.Mul(u * v)).
			Add(q.N01.Mul((1 - u) * v))
		return n.Normalize()
	}

	u, v := 0.5, 0.5
	dpdu := q.partialDerivativeU(u, v)
	dpdv := q.partialDerivativeV(u, v)
	n := dpdu.Cross(dpdv).Normalize()
	return math.Normal3D{X: n.X, Y: n.Y, Z: n.Z}
}

// Contains reports whether the point lies within the quad's thickness.
func (q *BilinearQuad) Contains(p math.Point3D, t float64) bool {
	aabb := q.GetAABB()
	if !aabb.Contains(p) {
		return false
	}

	u, v := q.findUVForPoint(p)
	surfacePoint := q.PositionAt(u, v)
	return p.Sub(surfacePoint).Length() <= q.Thickness
}

// ColorAtPoint samples the quad's texture at the point's interpolated
// (s, t) coordinates, falling back to the flat colour without a texture.
func (q *BilinearQuad) ColorAtPoint(p math.Point3D, t float64) color.RGBA {
	if q.Texture == nil {
		return q.Color
	}
	u, v := q.findUVForPoint(p)
	s := (1-u)*(1-v)*q.UV00[0] + u*(1-v)*q.UV10[0] + u*v*q.UV11[0] + (1-u)*v*q.UV01[0]
	tt := (1-u)*(1-v)*q.UV00[1] + u*(1-v)*q.UV10[1] + u*v*q.UV11[1] + (1-u)*v*q.UV01[1]
	val := q.Texture.SampleMap(s, tt, 1.0/float64(q.Texture.XRes()), 1.0/float64(q.Texture.YRes()))
	c := q.Color
	if len(val) >= 3 {
		c = color.RGBA{
			R: uint8(gomath.Min(255, val[0]*255)),
			G: uint8(gomath.Min(255, val[1]*255)),
			B: uint8(gomath.Min(255, val[2]*255)),
			A: 255,
		}
	} else if len(val) == 1 {
		g := uint8(gomath.Min(255, val[0]*255))
		c = color.RGBA{R: g, G: g, B: g, A: 255}
	}
	return c
}

// findUVForPoint inverts the bilinear mapping with a few Newton-Raphson
// steps via the normal equations.
func (q *BilinearQuad) findUVForPoint(target math.Point3D) (float64, float64) {
	u, v := 0.5, 0.5

	for iter := 0; iter < 8; iter++ {
		residual := target.Sub(q.PositionAt(u, v))
		if residual.Length() < 1e-4 {
			break
		}

		du := q.partialDerivativeU(u, v)
		dv := q.partialDerivativeV(u, v)

		jTj00 := du.Dot(du)
		jTj01 := du.Dot(dv)
		jTj11 := dv.Dot(dv)
		jTr0 := du.Dot(residual)
		jTr1 := dv.Dot(residual)

		det := jTj00*jTj11 - jTj01*jTj01
		if gomath.Abs(det) < 1e-9 {
			break
		}

		u += (jTj11*jTr0 - jTj01*jTr1) / det
		v += (jTj00*jTr1 - jTj01*jTr0) / det

		u = gomath.Max(0, gomath.Min(1, u))
		v = gomath.Max(0, gomath.Min(1, v))
	}
	return u, v
}

// partialDerivativeU computes dP/du = (1-v)(P10 - P00) + v(P11 - P01).
func (q *BilinearQuad) partialDerivativeU(u, v float64) math.Point3D {
	return q.P10.Sub(q.P00).Mul(1 - v).Add(q.P11.Sub(q.P01).Mul(v))
}

// partialDerivativeV computes dP/dv = (1-u)(P01 - P00) + u(P11 - P10).
func (q *BilinearQuad) partialDerivativeV(u, v float64) math.Point3D {
	return q.P01.Sub(q.P00).Mul(1 - u).Add(q.P11.Sub(q.P10).Mul(u))
}

// GetAABB returns the quad's bounding box padded by its thickness.
func (q *BilinearQuad) GetAABB() math.AABB3D {
	aabb := math.AABB3D{Min: q.P00, Max: q.P00}
	aabb = aabb.Expand(q.P10)
	aabb = aabb.Expand(q.P11)
	aabb = aabb.Expand(q.P01)
	pad := math.Point3D{X: q.Thickness, Y: q.Thickness, Z: q.Thickness}
	aabb.Min = aabb.Min.Sub(pad)
	aabb.Max = aabb.Max.Add(pad)
	return aabb
}

// Intersects checks the quad's AABB against another box.
func (q *BilinearQuad) Intersects(aabb math.AABB3D) bool {
	return q.GetAABB().Intersects(aabb)
}

// GetColor returns the flat colour of the quad.
func (q *BilinearQuad) GetColor() color.RGBA { return q.Color }

// GetShininess returns the quad's shininess.
func (q *BilinearQuad) GetShininess() float64 { return q.Shininess }

// GetSpecularIntensity returns the quad's specular intensity.
func (q *BilinearQuad) GetSpecularIntensity() float64 { return q.SpecularIntensity }

// GetSpecularColor returns the quad's specular colour.
func (q *BilinearQuad) GetSpecularColor() color.RGBA { return q.SpecularColor }

// GetCenter returns the quad's parametric centre.
func (q *BilinearQuad) GetCenter() math.Point3D { return q.PositionAt(0.5, 0.5) }

// IsVolumetric returns false for BilinearQuad.
func (q *BilinearQuad) IsVolumetric() bool { return false }
