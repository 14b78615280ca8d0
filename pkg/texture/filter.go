package texture

import (
	"log/slog"
	"math"
)

// Filter selects the reconstruction filter used when accumulating texture
// sub-samples and when downsampling MIPMAP levels.
type Filter int

const (
	FilterBox Filter = iota
	FilterGaussian
	FilterMitchell
	FilterTriangle
	FilterCatmullRom
	FilterSinc
	FilterDisk
	FilterBessel
)

var filterNames = map[string]Filter{
	"box":         FilterBox,
	"gaussian":    FilterGaussian,
	"mitchell":    FilterMitchell,
	"triangle":    FilterTriangle,
	"catmull-rom": FilterCatmullRom,
	"sinc":        FilterSinc,
	"disk":        FilterDisk,
	"bessel":      FilterBessel,
}

// ParseFilter maps a filter name to its Filter, falling back to box for
// anything unrecognised.
func ParseFilter(name string) Filter {
	if f, ok := filterNames[name]; ok {
		return f
	}
	if name != "" {
		slog.Warn("unknown filter, using box", "filter", name)
	}
	return FilterBox
}

func (f Filter) String() string {
	for name, ff := range filterNames {
		if ff == f {
			return name
		}
	}
	return "box"
}

// Eval evaluates the filter kernel at (x, y) for the given support widths.
func (f Filter) Eval(x, y, xwidth, ywidth float64) float64 {
	switch f {
	case FilterGaussian:
		x *= 2 / xwidth
		y *= 2 / ywidth
		return math.Exp(-2 * (x*x + y*y))

	case FilterMitchell:
		return mitchell1D(2*x/xwidth) * mitchell1D(2*y/ywidth)

	case FilterTriangle:
		return math.Max(0, (xwidth/2-math.Abs(x))/(xwidth/2)) *
			math.Max(0, (ywidth/2-math.Abs(y))/(ywidth/2))

	case FilterCatmullRom:
		r2 := x*x + y*y
		r := math.Sqrt(r2)
		switch {
		case r >= 2:
			return 0
		case r < 1:
			return 3*r*r2 - 5*r2 + 2
		default:
			return -r*r2 + 5*r2 - 8*r + 4
		}

	case FilterSinc:
		return sinc1D(x, xwidth) * sinc1D(y, ywidth)

	case FilterDisk:
		xx := 2 * x / xwidth
		yy := 2 * y / ywidth
		if xx*xx+yy*yy <= 1 {
			return 1
		}
		return 0

	case FilterBessel:
		xx := 2 * x / xwidth
		yy := 2 * y / ywidth
		d2 := xx*xx + yy*yy
		if d2 > 1 {
			return 0
		}
		d := math.Sqrt(x*x + y*y)
		if d == 0 {
			// J1(t)/t tends to 1/2 at zero.
			return 0.5
		}
		t := 2 * math.Pi * d
		return math.J1(t) / t

	default: // box
		if math.Abs(x) <= xwidth/2 && math.Abs(y) <= ywidth/2 {
			return 1
		}
		return 0
	}
}

// mitchell1D is the Mitchell-Netravali kernel with B = C = 1/3.
func mitchell1D(t float64) float64 {
	const b, c = 1.0 / 3.0, 1.0 / 3.0
	t = math.Abs(t) * 2
	t2 := t * t
	if t >= 2 {
		return 0
	}
	if t > 1 {
		return ((-b-6*c)*t*t2 + (6*b+30*c)*t2 + (-12*b-48*c)*t + (8*b + 24*c)) / 6
	}
	return ((12-9*b-6*c)*t*t2 + (-18+12*b+6*c)*t2 + (6 - 2*b)) / 6
}

// sinc1D is a width-windowed sinc.
func sinc1D(t, width float64) float64 {
	if math.Abs(t) > width/2 {
		return 0
	}
	if t == 0 {
		return 1
	}
	t *= math.Pi
	return math.Sin(t) / t
}
