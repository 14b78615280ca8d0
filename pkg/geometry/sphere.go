package geometry

import (
	"image/color"
	gomath "math"

	"lathe/pkg/math"
	"lathe/pkg/motion"
)

// Sphere3D represents a sphere in 3D space.
type Sphere3D struct {
	Center            math.Point3D
	Radius            float64
	Color             color.RGBA
	Shininess         float64
	SpecularIntensity float64
	SpecularColor     color.RGBA
	Motion            []motion.Keyframe
}

// centerAt returns the sphere centre at time t.
func (s Sphere3D) centerAt(t float64) math.Point3D {
	if len(s.Motion) > 0 {
		return motion.Interpolate(t, s.Motion)
	}
	return s.Center
}

// Contains checks if a point is inside the sphere at time t.
func (s Sphere3D) Contains(p math.Point3D, t float64) bool {
	dp := p.Sub(s.centerAt(t))
	return dp.Dot(dp) <= s.Radius*s.Radius
}

// Intersects checks if the sphere intersects with an AABB over the whole
// motion block.
func (s Sphere3D) Intersects(aabb math.AABB3D) bool {
	return s.GetAABB().Intersects(aabb)
}

// NormalAtPoint returns the normal vector at a given point on the sphere's
// surface.
func (s Sphere3D) NormalAtPoint(p math.Point3D, t float64) math.Normal3D {
	n := p.Sub(s.centerAt(t)).Normalize()
	return math.Normal3D{X: n.X, Y: n.Y, Z: n.Z}
}

// GetColor returns the color of the sphere.
func (s Sphere3D) GetColor() color.RGBA { return s.Color }

// GetShininess returns the shininess of the sphere.
func (s Sphere3D) GetShininess() float64 { return s.Shininess }

// GetSpecularIntensity returns the specular intensity of the sphere.
func (s Sphere3D) GetSpecularIntensity() float64 { return s.SpecularIntensity }

// GetSpecularColor returns the specular color of the sphere.
func (s Sphere3D) GetSpecularColor() color.RGBA { return s.SpecularColor }

// GetAABB returns the bounding box of the sphere over all keyframes.
func (s Sphere3D) GetAABB() math.AABB3D {
	r := math.Point3D{X: s.Radius, Y: s.Radius, Z: s.Radius}
	if len(s.Motion) == 0 {
		return math.AABB3D{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
	}
	min := math.Point3D{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)}
	max := math.Point3D{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)}
	for _, kf := range s.Motion {
		min.X = gomath.Min(min.X, kf.Position.X-s.Radius)
		min.Y = gomath.Min(min.Y, kf.Position.Y-s.Radius)
		min.Z = gomath.Min(min.Z, kf.Position.Z-s.Radius)
		max.X = gomath.Max(max.X, kf.Position.X+s.Radius)
		max.Y = gomath.Max(max.Y, kf.Position.Y+s.Radius)
		max.Z = gomath.Max(max.Z, kf.Position.Z+s.Radius)
	}
	return math.AABB3D{Min: min, Max: max}
}

// GetCenter returns the sphere's center point at shutter open.
func (s Sphere3D) GetCenter() math.Point3D { return s.centerAt(0) }

// IsVolumetric returns false for Sphere3D.
func (s Sphere3D) IsVolumetric() bool { return false }
