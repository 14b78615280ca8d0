package texture

import (
	"math"

	lmath "lathe/pkg/math"
)

// rdMax is the size of the deterministic quasi-random offset table used by
// the sub-sampling loop.
const rdMax = 128

// sampleOffsets is the precomputed table of 2D offsets, built on first use
// from a fixed-seed generator so renders are repeatable.
var sampleOffsets [][2]float64

func noise(which int) (du, dv float64) {
	if sampleOffsets == nil {
		rng := lmath.NewXorShift32(1)
		sampleOffsets = make([][2]float64, rdMax)
		for i := range sampleOffsets {
			sampleOffsets[i][0] = rng.Float64()
			sampleOffsets[i][1] = rng.Float64()
		}
	}
	if which == 0 {
		// The first sub-sample always reads the footprint centre.
		return 0.5, 0.5
	}
	o := sampleOffsets[which%rdMax]
	return o[0], o[1]
}

// SampleOptions carries the per-call sampling parameters a shader passes to
// texture() and environment().
type SampleOptions struct {
	SBlur, TBlur   float64
	SWidth, TWidth float64
	Samples        int
	Filter         string
	Lerp           bool
	PixelVariance  float64
}

// SetSampleOptions applies shader-supplied sampling parameters ahead of a
// run of SampleMap calls.
func (m *TextureMap) SetSampleOptions(opts SampleOptions) {
	m.sblur = opts.SBlur
	m.tblur = opts.TBlur
	m.pswidth = 1
	if opts.SWidth > 0 {
		m.pswidth = opts.SWidth
	}
	m.ptwidth = 1
	if opts.TWidth > 0 {
		m.ptwidth = opts.TWidth
	}
	m.samples = 8
	if opts.Samples > 0 {
		m.samples = opts.Samples
	}
	if opts.Filter != "" {
		m.filter = ParseFilter(opts.Filter)
	}
	m.lerp = opts.Lerp
	if opts.PixelVariance > 0 {
		m.pixelVariance = opts.PixelVariance
	}
}

// SampleMap samples the texture at shading point (s, t) with the given
// per-axis filter widths, returning one value per channel. Wrap modes are
// applied first; black-wrapped samples outside [0,1] return zero.
func (m *TextureMap) SampleMap(s, t, swidth, twidth float64) []float64 {
	// Respect the budget before growing the tile set further.
	m.cache.CriticalMeasure()

	val := make([]float64, m.samplesPerPixel)
	if !m.valid {
		return val
	}

	swidth *= m.pswidth
	twidth *= m.ptwidth

	if m.smode == WrapPeriodic {
		s = math.Mod(s, 1)
		if s < 0 {
			s++
		}
	}
	if m.tmode == WrapPeriodic {
		t = math.Mod(t, 1)
		if t < 0 {
			t++
		}
	}
	if m.smode == WrapBlack && (s < 0 || s > 1) {
		return val
	}
	if m.tmode == WrapBlack && (t < 0 || t > 1) {
		return val
	}
	if m.smode == WrapClamp || m.mapType == MapTypeEnvironment {
		s = clamp(s, 0, 1)
	}
	if m.tmode == WrapClamp || m.mapType == MapTypeEnvironment {
		t = clamp(t, 0, 1)
	}

	ss1 := clamp(s-swidth-m.sblur*0.5, 0, 1)
	tt1 := clamp(t-twidth-m.tblur*0.5, 0, 1)
	ss2 := clamp(s+swidth+m.sblur*0.5, 0, 1)
	tt2 := clamp(t+twidth+m.tblur*0.5, 0, 1)
	if ss1 > ss2 {
		ss1, ss2 = ss2, ss1
	}
	if tt1 > tt2 {
		tt1, tt2 = tt2, tt1
	}

	m.getSample(ss1, tt1, ss2, tt2, val)
	return val
}

// SampleMapQuad samples over the area spanned by four shading points, as
// used by area lookups.
func (m *TextureMap) SampleMapQuad(s1, t1, s2, t2, s3, t3, s4, t4 float64) []float64 {
	val := make([]float64, m.samplesPerPixel)
	if !m.valid {
		return val
	}
	ss1 := math.Min(math.Min(s1, s2), math.Min(s3, s4))
	tt1 := math.Min(math.Min(t1, t2), math.Min(t3, t4))
	ss2 := math.Max(math.Max(s1, s2), math.Max(s3, s4))
	tt2 := math.Max(math.Max(t1, t2), math.Max(t3, t4))
	m.getSample(ss1, tt1, ss2, tt2, val)
	return val
}

// getSample dispatches to the blurred or unblurred integrator.
func (m *TextureMap) getSample(u1, v1, u2, v2 float64, val []float64) {
	if m.sblur != 0 || m.tblur != 0 {
		m.getSampleWithBlur(u1, v1, u2, v2, val)
	} else {
		m.getSampleWithoutBlur(u1, v1, u2, v2, val)
	}
}

// getSampleWithoutBlur accumulates up to m.samples stochastic sub-samples
// across the footprint. Sub-sample zero is the deterministic centre; the
// rest jitter by the precomputed offset table. Each is weighted by the
// reconstruction filter and bilinearly looked up on the chosen level, with
// an optional trilinear blend against the next coarser level.
func (m *TextureMap) getSampleWithoutBlur(u1, v1, u2, v2 float64, val []float64) {
	m.calculateLevel(u2-u1, v2-v1)

	accum := make([]float64, m.samplesPerPixel)
	pixel := make([]float64, m.samplesPerPixel)
	sub := make([]float64, m.samplesPerPixel)
	contrib := 0.0

	for i := 0; i <= m.samples; i++ {
		du, dv := noise(i)

		mul := m.filter.Eval(du-0.5, dv-0.5, 1, 1)
		if mul < m.pixelVariance {
			continue
		}

		u := lerp(dv, u1, lerp(du, u1, u2))
		v := lerp(dv, v1, lerp(du, v1, v2))

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
		contrib += mul
	}

	if contrib == 0 {
		return
	}
	for c := range val {
		val[c] = accum[c] / contrib
	}
}

// getSampleWithBlur integrates bilinear lookups over a grid across the
// blurred footprint, weighting each by the filter. Classic pyramid
// integration; the blur widths already extend the footprint.
func (m *TextureMap) getSampleWithBlur(u1, v1, u2, v2 float64, val []float64) {
	u := (u1 + u2) * 0.5
	v := (v1 + v2) * 0.5

	m.calculateLevel(u2-u1, v2-v1)

	accum := make([]float64, m.samplesPerPixel)
	pixel := make([]float64, m.samplesPerPixel)
	div := 0.0

	deltaU := 1 / (m.pswidth * float64(m.umapsize))
	deltaV := 1 / (m.ptwidth * float64(m.vmapsize))

	for cu := u1; cu <= u2; cu += deltaU {
		for cv := v1; cv <= v2; cv += deltaV {
			mul := m.filter.Eval(cu-u, cv-v, 2*u, 2*v)
			if mul < m.pixelVariance {
				continue
			}
			m.biLinear(cu, cv, m.umapsize, m.vmapsize, m.level, pixel)
			div += mul
			for c := range accum {
				accum[c] += mul * pixel[c]
			}
		}
	}

	if div == 0 {
		return
	}
	for c := range val {
		val[c] = accum[c] / div
	}
}
