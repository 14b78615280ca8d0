package renderer

import (
	"image/color"
	"testing"

	"lathe/pkg/camera"
	"lathe/pkg/geometry"
	"lathe/pkg/math"
	"lathe/pkg/shading"
)

func TestRenderSphereScene(t *testing.T) {
	cam := camera.NewLookAtCamera(
		math.Point3D{X: 0, Y: 0, Z: 5},
		math.Point3D{},
		math.Point3D{Y: 1},
		45, 1, 0, nil, nil,
	)
	shapes := []geometry.Shape{
		&geometry.Sphere3D{
			Center:        math.Point3D{},
			Radius:        1,
			Color:         color.RGBA{R: 255, G: 80, B: 80, A: 255},
			Shininess:     32,
			SpecularColor: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		},
	}
	light := shading.Light{Position: math.Point3D{X: 10, Y: 10, Z: 10}, Intensity: 1.2}

	width, height := 64, 64
	rndr := NewRenderer(cam, shapes, light, width, height, 0.02, 0.1, 15, shading.AtmosphereConfig{})
	rng := math.NewXorShift32(1)
	img := rndr.Render(ScreenBounds{MinX: 0, MinY: 0, MaxX: width, MaxY: height}, rng)

	// The sphere fills the image centre; the corner stays background.
	bg := img.RGBAAt(1, 1)
	centre := img.RGBAAt(width/2, height/2)
	if centre == bg {
		t.Error("centre pixel was not shaded")
	}
	if centre.R == 0 {
		t.Error("red sphere shaded without any red")
	}
}

func TestRenderRespectsBounds(t *testing.T) {
	cam := camera.NewLookAtCamera(
		math.Point3D{X: 0, Y: 0, Z: 5},
		math.Point3D{},
		math.Point3D{Y: 1},
		45, 1, 0, nil, nil,
	)
	shapes := []geometry.Shape{
		&geometry.Sphere3D{Center: math.Point3D{}, Radius: 1, Color: color.RGBA{R: 200, A: 255}},
	}
	light := shading.Light{Position: math.Point3D{X: 10, Y: 10, Z: 10}, Intensity: 1}

	width, height := 64, 64
	rndr := NewRenderer(cam, shapes, light, width, height, 0.02, 0.1, 15, shading.AtmosphereConfig{})
	rng := math.NewXorShift32(7)
	// Render only the left half; the right half must stay background.
	img := rndr.Render(ScreenBounds{MinX: 0, MinY: 0, MaxX: width / 2, MaxY: height}, rng)

	bg := img.RGBAAt(1, 1)
	right := img.RGBAAt(width-2, height/2)
	if right != bg {
		t.Error("pixels outside the requested bounds were shaded")
	}
}
