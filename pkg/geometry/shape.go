package geometry

import (
	"image/color"

	"lathe/pkg/math"
)

// Shape defines the interface for all geometric objects in the scene.
// The time parameter selects the motion sample for animated shapes; static
// shapes ignore it.
type Shape interface {
	Contains(p math.Point3D, t float64) bool
	Intersects(aabb math.AABB3D) bool
	NormalAtPoint(p math.Point3D, t float64) math.Normal3D
	GetColor() color.RGBA
	GetAABB() math.AABB3D
	GetCenter() math.Point3D
	GetShininess() float64
	GetSpecularIntensity() float64
	GetSpecularColor() color.RGBA
	IsVolumetric() bool
}

// TexturedShape is implemented by shapes whose surface colour comes from a
// texture lookup instead of a flat colour.
type TexturedShape interface {
	Shape
	ColorAtPoint(p math.Point3D, t float64) color.RGBA
}

// VolumetricShape is implemented by participating media; the shadow
// marcher attenuates instead of fully occluding.
type VolumetricShape interface {
	Shape
	GetDensity() float64
}
