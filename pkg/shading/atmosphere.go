package shading

import (
	"image/color"
	gomath "math"

	"lathe/pkg/math"
)

// ApplyAtmosphere blends a shaded colour toward the atmosphere colour by
// distance, using exponential falloff.
func ApplyAtmosphere(surfaceColor color.RGBA, distance float64, config AtmosphereConfig) color.RGBA {
	if !config.Enabled {
		return surfaceColor
	}

	surfaceColorVec := math.Point3D{
		X: float64(surfaceColor.R) / 255.0,
		Y: float64(surfaceColor.G) / 255.0,
		Z: float64(surfaceColor.B) / 255.0,
	}

	factor := 1.0 - gomath.Exp(-distance*config.Atmosphere.Density)
	finalColorVec := surfaceColorVec.Mul(1.0 - factor).Add(config.Atmosphere.Color.Mul(factor))

	return color.RGBA{
		R: uint8(gomath.Min(255, finalColorVec.X*255.0)),
		G: uint8(gomath.Min(255, finalColorVec.Y*255.0)),
		B: uint8(gomath.Min(255, finalColorVec.Z*255.0)),
		A: 255,
	}
}
