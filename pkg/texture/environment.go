package texture

import (
	"math"

	lmath "lathe/pkg/math"
)

// Face origins within the 3x2 cube atlas: +x, +y, +z across the top row,
// -x, -y, -z across the bottom.
var cubeSides = [6][2]float64{
	{0, 0}, {0, 0.5}, {1.0 / 3, 0}, {1.0 / 3, 0.5}, {2.0 / 3, 0}, {2.0 / 3, 0.5},
}

const (
	sidePX = 0
	sideNX = 1
	sidePY = 2
	sideNY = 3
	sidePZ = 4
	sideNZ = 5
)

// SampleEnvironment looks up the cube environment map over the solid angle
// spanned by four reflection directions. Each sub-sample interpolates a
// direction within the span, dispatches it to the dominant-axis face of the
// cube, remaps the remaining two axes into that face's cell of the 3x2
// atlas, and filters the bilinear lookups like the plain texture path.
func (m *TextureMap) SampleEnvironment(r1, r2, r3, r4 lmath.Point3D) []float64 {
	m.cache.CriticalMeasure()

	val := make([]float64, m.samplesPerPixel)
	if !m.valid || m.file == nil && len(m.mipmaps[0]) == 0 {
		return val
	}
	if r1.LengthSquared() == 0 {
		return val
	}

	accum := make([]float64, m.samplesPerPixel)
	pixel := make([]float64, m.samplesPerPixel)
	sub := make([]float64, m.samplesPerPixel)
	contrib := 0.0

	dfovu := math.Abs(1-m.fov) / float64(m.xRes)
	dfovv := math.Abs(1-m.fov) / float64(m.yRes)

	for i := 0; i < m.samples; i++ {
		x, y := noise(i)

		d := r1.Lerp(r2, x).Lerp(r3.Lerp(r4, x), y)

		mul := m.filter.Eval(x-0.5, y-0.5, 1, 1)
		if mul < m.pixelVariance {
			continue
		}
		contrib += mul

		side, u, v := cubeFace(d)

		// Remap the in-face coordinates into the face's atlas cell.
		u = clamp(u, dfovu, 1)
		v = clamp(v, dfovv, 1)
		u = clamp(cubeSides[side][0]+u/3, 0, 1)
		v = clamp(cubeSides[side][1]+v/2, 0, 1)

		m.calculateLevel(u, v)

		m.biLinear(u, v, m.umapsize, m.vmapsize, m.level, pixel)
		if m.lerp {
			m.biLinear(u, v, m.umapsize/2, m.vmapsize/2, m.level+1, sub)
			for c := range accum {
				accum[c] += mul * lerp(m.interp, pixel[c], sub[c])
			}
		} else {
			for c := range accum {
				accum[c] += mul * pixel[c]
			}
		}
	}

	if contrib == 0 {
		return val
	}
	for c := range val {
		val[c] = accum[c] / contrib
	}
	return val
}

// cubeFace dispatches a direction to its dominant-axis cube face and
// returns the face index plus the (u, v) within that face, both in [0,1].
func cubeFace(d lmath.Point3D) (side int, u, v float64) {
	ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)

	switch {
	case ax >= ay && ax >= az:
		if d.X > 0 {
			t := 1 / d.X
			return sidePX, (-d.Z*t + 1) * 0.5, (-d.Y*t + 1) * 0.5
		}
		t := -1 / d.X
		return sideNX, (d.Z*t + 1) * 0.5, (-d.Y*t + 1) * 0.5

	case ay >= ax && ay >= az:
		if d.Y > 0 {
			t := 1 / d.Y
			return sidePY, (d.X*t + 1) * 0.5, (d.Z*t + 1) * 0.5
		}
		t := -1 / d.Y
		return sideNY, (d.X*t + 1) * 0.5, (-d.Z*t + 1) * 0.5

	default:
		if d.Z > 0 {
			t := 1 / d.Z
			return sidePZ, (d.X*t + 1) * 0.5, (-d.Y*t + 1) * 0.5
		}
		t := -1 / d.Z
		return sideNZ, (-d.X*t + 1) * 0.5, (-d.Y*t + 1) * 0.5
	}
}
