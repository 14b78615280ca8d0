package shading

import (
	"lathe/pkg/geometry"
	"lathe/pkg/math"
)

// Atmosphere represents the properties of the atmospheric effect.
type Atmosphere struct {
	Color   math.Point3D `json:"color"`
	Density float64      `json:"density"`
}

// AtmosphereConfig holds the configuration for the atmospheric effect.
type AtmosphereConfig struct {
	Enabled    bool       `json:"enabled"`
	Atmosphere Atmosphere `json:"atmosphere"`
}

// Light represents a point light source in the scene.
type Light struct {
	Position  math.Point3D
	Intensity float64
	Radius    float64
	Samples   int
}

// calculateShadowAttenuation checks for shadows by marching towards the
// light source. Solid occluders fully block; volumetric ones attenuate.
func calculateShadowAttenuation(p, lightPos math.Point3D, occluders []geometry.Shape, lightRadius, tSample float64) float64 {
	const stepSize = 0.25
	vecToLight := lightPos.Sub(p)
	distToLight := vecToLight.Length()
	dirToLight := vecToLight.Normalize()
	attenuation := 1.0

	for t := stepSize; t < distToLight; t += stepSize {
		samplePoint := p.Add(dirToLight.Mul(t))
		for _, shape := range occluders {
			if _, ok := shape.(geometry.Plane3D); ok {
				continue
			}
			if shape.Contains(samplePoint, tSample) {
				if vol, ok := shape.(geometry.VolumetricShape); ok {
					attenuation *= 1.0 - vol.GetDensity()*stepSize
				} else {
					return 0.0
				}
			}
		}
	}
	return attenuation
}
