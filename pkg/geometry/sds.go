package geometry

import (
	"image/color"

	"lathe/pkg/math"
	"lathe/pkg/render"
	"lathe/pkg/subdiv"
	"lathe/pkg/texture"
)

// patchTess is the fixed tessellation rate for extracted bicubic patches.
const patchTess = 8

// SDSObject satisfies the Shape interface and wraps the renderable output
// of a subdivision surface: the micropolygon quads of its diced grids and
// tessellated bicubic patches.
type SDSObject struct {
	Quads             []*BilinearQuad
	AABB              math.AABB3D
	Color             color.RGBA
	Thickness         float64
	Shininess         float64
	SpecularIntensity float64
	SpecularColor     color.RGBA
	Texture           *texture.TextureMap
}

// NewSDSObject converts a split result into a renderable shape.
func NewSDSObject(res *render.SplitResult, thickness float64, col color.RGBA, shininess, specIntensity float64, specColor color.RGBA, tex *texture.TextureMap) *SDSObject {
	obj := &SDSObject{
		Color:             col,
		Thickness:         thickness,
		Shininess:         shininess,
		SpecularIntensity: specIntensity,
		SpecularColor:     specColor,
		Texture:           tex,
	}

	for _, grid := range res.Grids {
		obj.addGrid(grid)
	}
	for _, patch := range res.Patches {
		obj.addPatch(patch)
	}

	if len(obj.Quads) > 0 {
		obj.AABB = obj.Quads[0].GetAABB()
		for _, q := range obj.Quads[1:] {
			a := q.GetAABB()
			obj.AABB = obj.AABB.Expand(a.Min).Expand(a.Max)
		}
	}
	return obj
}

// gridST finds the texture coordinates variable on a grid, nil if absent.
func gridST(g *subdiv.Grid) func(idx int) [2]float64 {
	for _, v := range g.Vars {
		if v.Name == "st" && v.Stride() >= 2 && v.Size() > 1 {
			vv := v
			return func(idx int) [2]float64 {
				val := vv.Value(idx)
				return [2]float64{val[0], val[1]}
			}
		}
	}
	return nil
}

func (o *SDSObject) newQuad() *BilinearQuad {
	return &BilinearQuad{
		Color:             o.Color,
		Thickness:         o.Thickness,
		Shininess:         o.Shininess,
		SpecularIntensity: o.SpecularIntensity,
		SpecularColor:     o.SpecularColor,
		Texture:           o.Texture,
	}
}

// addGrid converts each grid cell into a micropolygon quad with smooth
// normals from the neighbouring limit points.
func (o *SDSObject) addGrid(g *subdiv.Grid) {
	st := gridST(g)
	idx := func(u, v int) int { return v*(g.NU+1) + u }
	for v := 0; v < g.NV; v++ {
		for u := 0; u < g.NU; u++ {
			q := o.newQuad()
			q.P00 = g.Point(0, u, v)
			q.P10 = g.Point(0, u+1, v)
			q.P11 = g.Point(0, u+1, v+1)
			q.P01 = g.Point(0, u, v+1)
			q.N00 = g.Normal(0, u, v)
			q.N10 = g.Normal(0, u+1, v)
			q.N11 = g.Normal(0, u+1, v+1)
			q.N01 = g.Normal(0, u, v+1)
			if st != nil {
				q.UV00 = st(idx(u, v))
				q.UV10 = st(idx(u+1, v))
				q.UV11 = st(idx(u+1, v+1))
				q.UV01 = st(idx(u, v+1))
			}
			o.Quads = append(o.Quads, q)
		}
	}
}

// addPatch tessellates a bicubic patch at a fixed rate.
func (o *SDSObject) addPatch(p *subdiv.BicubicPatch) {
	// Corner texture coordinates, when the patch carries them.
	var st *[4][2]float64
	for _, v := range p.Vars {
		if v.Name == "st" && v.Stride() >= 2 && v.Size() == 4 {
			var c [4][2]float64
			for i := 0; i < 4; i++ {
				val := v.Value(i)
				c[i] = [2]float64{val[0], val[1]}
			}
			st = &c
			break
		}
	}
	cornerUV := func(u, v float64) [2]float64 {
		if st == nil {
			return [2]float64{u, v}
		}
		return [2]float64{
			(1-u)*(1-v)*st[0][0] + u*(1-v)*st[1][0] + (1-u)*v*st[2][0] + u*v*st[3][0],
			(1-u)*(1-v)*st[0][1] + u*(1-v)*st[1][1] + (1-u)*v*st[2][1] + u*v*st[3][1],
		}
	}

	step := 1.0 / patchTess
	for j := 0; j < patchTess; j++ {
		for i := 0; i < patchTess; i++ {
			u0, v0 := float64(i)*step, float64(j)*step
			u1, v1 := u0+step, v0+step
			q := o.newQuad()
			q.P00 = p.PointAt(u0, v0)
			q.P10 = p.PointAt(u1, v0)
			q.P11 = p.PointAt(u1, v1)
			q.P01 = p.PointAt(u0, v1)
			q.N00 = p.NormalAt(u0, v0)
			q.N10 = p.NormalAt(u1, v0)
			q.N11 = p.NormalAt(u1, v1)
			q.N01 = p.NormalAt(u0, v1)
			q.UV00 = cornerUV(u0, v0)
			q.UV10 = cornerUV(u1, v0)
			q.UV11 = cornerUV(u1, v1)
			q.UV01 = cornerUV(u0, v1)
			o.Quads = append(o.Quads, q)
		}
	}
}

// --- Shape interface implementation ---

// Contains reports whether any quad of the surface contains the point.
func (s *SDSObject) Contains(p math.Point3D, t float64) bool {
	if !s.AABB.Contains(p) {
		return false
	}
	for _, q := range s.Quads {
		if q.Contains(p, t) {
			return true
		}
	}
	return false
}

// NormalAtPoint finds the closest containing quad and returns its normal.
func (s *SDSObject) NormalAtPoint(p math.Point3D, t float64) math.Normal3D {
	var best *BilinearQuad
	minDist := 1e18
	for _, q := range s.Quads {
		if q.Contains(p, t) {
			dist := p.Sub(q.GetCenter()).Length()
			if dist < minDist {
				minDist = dist
				best = q
			}
		}
	}
	if best != nil {
		return best.NormalAtPoint(p, t)
	}
	return math.Normal3D{X: 0, Y: 1, Z: 0}
}

// ColorAtPoint delegates to the closest containing quad's texture lookup.
func (s *SDSObject) ColorAtPoint(p math.Point3D, t float64) color.RGBA {
	if s.Texture == nil {
		return s.Color
	}
	var best *BilinearQuad
	minDist := 1e18
	for _, q := range s.Quads {
		if q.Contains(p, t) {
			dist := p.Sub(q.GetCenter()).Length()
			if dist < minDist {
				minDist = dist
				best = q
			}
		}
	}
	if best != nil {
		return best.ColorAtPoint(p, t)
	}
	return s.Color
}

// GetColor returns the base colour of the surface.
func (s *SDSObject) GetColor() color.RGBA { return s.Color }

// GetAABB returns the bounding box of all quads.
func (s *SDSObject) GetAABB() math.AABB3D { return s.AABB }

// GetCenter returns the centre of the bounding box.
func (s *SDSObject) GetCenter() math.Point3D { return s.AABB.Center() }

// GetShininess returns the surface shininess.
func (s *SDSObject) GetShininess() float64 { return s.Shininess }

// GetSpecularIntensity returns the specular intensity.
func (s *SDSObject) GetSpecularIntensity() float64 { return s.SpecularIntensity }

// GetSpecularColor returns the specular colour.
func (s *SDSObject) GetSpecularColor() color.RGBA { return s.SpecularColor }

// Intersects checks the surface bounds against a box.
func (s *SDSObject) Intersects(aabb math.AABB3D) bool { return s.AABB.Intersects(aabb) }

// IsVolumetric returns false for SDSObject.
func (s *SDSObject) IsVolumetric() bool { return false }
