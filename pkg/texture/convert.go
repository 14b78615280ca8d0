package texture

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"
)

// LoadImage reads a foreign raster (PNG, or a scanline TIFF written by
// another tool) into a float image for conversion into the native texture
// layout.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img image.Image
	switch filepath.Ext(path) {
	case ".tif", ".tiff", ".tx", ".tex":
		img, err = tiff.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	bounds := img.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy(), 3)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(x, y, 0, float64(r)/65535)
			out.Set(x, y, 1, float64(g)/65535)
			out.Set(x, y, 2, float64(b)/65535)
		}
	}
	return out, nil
}

// BuildLevels builds the MIPMAP chain for an image: level 0 is the source,
// each further level the previous one downsampled by two through the
// filter.
func BuildLevels(src *Image, filter Filter, swidth, twidth float64) []*Image {
	levels := []*Image{src}
	prev := src
	xres, yres := src.Width/2, src.Height/2
	accum := make([]float64, src.Samples)

	for xres > 2 && yres > 2 {
		level := NewImage(xres, yres, src.Samples)
		for y := 0; y < yres; y++ {
			for x := 0; x < xres; x++ {
				downsampleImage(prev, x, y, filter, swidth, twidth, accum)
				for s := 0; s < src.Samples; s++ {
					level.Set(x, y, s, accum[s])
				}
			}
		}
		levels = append(levels, level)
		prev = level
		xres /= 2
		yres /= 2
	}
	return levels
}

// downsampleImage filters one pixel of the next level from the previous
// level, centred between its four parents.
func downsampleImage(prev *Image, x, y int, filter Filter, swidth, twidth float64, accum []float64) {
	for s := range accum {
		accum[s] = 0
	}
	rx := maxInt(int(math.Floor(swidth)), 1)
	ry := maxInt(int(math.Floor(twidth)), 1)
	cx := float64(2*x) + 0.5
	cy := float64(2*y) + 0.5

	div := 0.0
	for py := 2*y + 1 - ry; py <= 2*y+ry; py++ {
		for px := 2*x + 1 - rx; px <= 2*x+rx; px++ {
			mul := filter.Eval(float64(px)-cx, float64(py)-cy, float64(2*rx), float64(2*ry))
			if mul == 0 || px < 0 || py < 0 || px > prev.Width-1 || py > prev.Height-1 {
				continue
			}
			for s := range accum {
				accum[s] += prev.At(px, py, s) * mul
			}
			div += mul
		}
	}
	if div != 0 {
		for s := range accum {
			accum[s] /= div
		}
	}
}

// Convert turns a foreign raster into a native tiled MIPMAP texture file.
func Convert(inPath, outPath string, filter Filter, swidth, twidth float64, opts WriteOptions) error {
	src, err := LoadImage(inPath)
	if err != nil {
		return err
	}
	levels := BuildLevels(src, filter, swidth, twidth)
	if opts.WrapModes == "" {
		opts.WrapModes = fmt.Sprintf("black black %s %f %f", filter, swidth, twidth)
	}
	return WriteTexture(outPath, levels, opts)
}
