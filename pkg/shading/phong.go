package shading

import (
	"image/color"
	gomath "math"

	"lathe/pkg/geometry"
	"lathe/pkg/math"
)

// ShadedColor calculates the color of a point on a surface using the Phong
// reflection model with a marched shadow term. Shadow occluders are culled
// through the scene's BVH; textured shapes take their base colour from the
// texture lookup at the point.
func ShadedColor(p math.Point3D, n math.Normal3D, eye math.Point3D, l Light, shape geometry.Shape, occluderIndex *geometry.BVH, tSample float64) color.RGBA {
	lightDir := l.Position.Sub(p).Normalize()

	base := shape.GetColor()
	if textured, ok := shape.(geometry.TexturedShape); ok {
		base = textured.ColorAtPoint(p, tSample)
	}

	shadowBias := 1e-4
	checkP := p.Add(n.ToVector().Mul(shadowBias))

	shadowAttenuation := 1.0
	if occluderIndex != nil {
		// Cull occluders to the box spanned by the point and the light.
		cullAABB := math.AABB3D{
			Min: math.Point3D{
				X: gomath.Min(checkP.X, l.Position.X-l.Radius),
				Y: gomath.Min(checkP.Y, l.Position.Y-l.Radius),
				Z: gomath.Min(checkP.Z, l.Position.Z-l.Radius),
			},
			Max: math.Point3D{
				X: gomath.Max(checkP.X, l.Position.X+l.Radius),
				Y: gomath.Max(checkP.Y, l.Position.Y+l.Radius),
				Z: gomath.Max(checkP.Z, l.Position.Z+l.Radius),
			},
		}

		occluders := occluderIndex.IntersectsShapes(cullAABB)
		for i, o := range occluders {
			if o == shape {
				occluders = append(occluders[:i], occluders[i+1:]...)
				break
			}
		}

		shadowAttenuation = calculateShadowAttenuation(checkP, l.Position, occluders, l.Radius, tSample)
	}

	// Diffuse (Lambert) component with a small ambient floor.
	dot := n.Dot(lightDir)
	diffuseFactor := gomath.Max(0.15, dot*l.Intensity*shadowAttenuation)

	// Specular (Phong) component; none in full shadow.
	var specularR, specularG, specularB float64
	if shadowAttenuation > 0 {
		viewDir := eye.Sub(p).Normalize()
		reflectDir := n.ToVector().Mul(2 * n.Dot(lightDir)).Sub(lightDir)

		specularAngle := gomath.Max(0.0, viewDir.Dot(reflectDir))
		specularFactor := gomath.Pow(specularAngle, shape.GetShininess())
		specularIntensity := shape.GetSpecularIntensity()

		specularColor := shape.GetSpecularColor()
		specularR = float64(specularColor.R) * specularFactor * specularIntensity
		specularG = float64(specularColor.G) * specularFactor * specularIntensity
		specularB = float64(specularColor.B) * specularFactor * specularIntensity
	}

	finalR := float64(base.R)*diffuseFactor + specularR
	finalG := float64(base.G)*diffuseFactor + specularG
	finalB := float64(base.B)*diffuseFactor + specularB

	return color.RGBA{
		R: uint8(gomath.Min(255, finalR)),
		G: uint8(gomath.Min(255, finalG)),
		B: uint8(gomath.Min(255, finalB)),
		A: 255,
	}
}
