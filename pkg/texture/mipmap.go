package texture

import (
	"fmt"
	"math"
)

// CreateMIPMAP builds the MIPMAP level chain for a plain scanline texture
// in cache memory: each level is the previous one downsampled by two and
// run through the texture's filter function (box 1x1 by default, so a
// level pixel is the mean of its four parents). Tiled sources cannot be
// mipmapped and are refused. The protected flag shields the freshly built
// buffers from eviction while the chain is still being constructed.
func (m *TextureMap) CreateMIPMAP(protected bool) error {
	if m.file == nil {
		return fmt.Errorf("texture %q is not open: %w", m.name, ErrMissingTile)
	}
	if m.file.dirs[0].tiled() {
		return fmt.Errorf("cannot MIPMAP a tiled image %q: %w", m.name, ErrUnsupportedFormat)
	}

	prev := m.GetBuffer(0, 0, 0, protected)
	if prev == nil {
		return fmt.Errorf("cannot read source image %q: %w", m.name, ErrMissingTile)
	}

	xres, yres := m.xRes/2, m.yRes/2
	directory := 1
	accum := make([]float64, m.samplesPerPixel)

	for xres > 2 && yres > 2 {
		buf := m.createBuffer(0, 0, xres, yres, directory, protected)
		for y := 0; y < yres; y++ {
			for x := 0; x < xres; x++ {
				m.downsampleVal(prev, x, y, accum)
				for s := 0; s < m.samplesPerPixel; s++ {
					buf.SetValue(x, y, s, accum[s])
				}
			}
		}
		slot := directory % maxDirectories
		m.mipmaps[slot] = append(m.mipmaps[slot], buf)
		m.last[slot] = buf

		prev = buf
		xres /= 2
		yres /= 2
		directory++
	}

	m.format = formatMIPMAP
	return nil
}

// downsampleVal computes one pixel of the next MIPMAP level by running the
// texture's filter over the corresponding neighbourhood of the previous
// level, centred between the four parent texels. The default box 1x1
// support covers exactly those parents.
func (m *TextureMap) downsampleVal(prev *Buffer, x, y int, accum []float64) {
	for s := range accum {
		accum[s] = 0
	}

	rx := maxInt(int(math.Floor(m.swidth)), 1)
	ry := maxInt(int(math.Floor(m.twidth)), 1)
	cx := float64(2*x) + 0.5
	cy := float64(2*y) + 0.5

	div := 0.0
	for py := 2*y + 1 - ry; py <= 2*y+ry; py++ {
		for px := 2*x + 1 - rx; px <= 2*x+rx; px++ {
			mul := m.filter.Eval(float64(px)-cx, float64(py)-cy, float64(2*rx), float64(2*ry))
			if mul == 0 {
				continue
			}
			if px < 0 || py < 0 || px > prev.width-1 || py > prev.height-1 {
				continue
			}
			for s := 0; s < m.samplesPerPixel; s++ {
				accum[s] += prev.GetValue(px, py, s) * mul
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
