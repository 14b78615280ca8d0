package texture

// Buffer is one cached tile of texture data: its origin and size within a
// MIPMAP directory, the per-pixel sample count, and the pixel data in
// row-major, channel-interleaved order.
type Buffer struct {
	sOrigin   int
	tOrigin   int
	width     int
	height    int
	samples   int
	directory int
	elemSize  int // bytes per pixel in the source file

	data []float32
}

func newBuffer(sOrigin, tOrigin, width, height, samples, directory, bytesPerSample int) *Buffer {
	return &Buffer{
		sOrigin:   sOrigin,
		tOrigin:   tOrigin,
		width:     width,
		height:    height,
		samples:   samples,
		directory: directory,
		elemSize:  samples * bytesPerSample,
		data:      make([]float32, width*height*samples),
	}
}

// SOrigin returns the tile's horizontal origin within its directory.
func (b *Buffer) SOrigin() int { return b.sOrigin }

// TOrigin returns the tile's vertical origin within its directory.
func (b *Buffer) TOrigin() int { return b.tOrigin }

// Width returns the tile width in texels.
func (b *Buffer) Width() int { return b.width }

// Height returns the tile height in texels.
func (b *Buffer) Height() int { return b.height }

// Samples returns the per-pixel sample count.
func (b *Buffer) Samples() int { return b.samples }

// ElemSize returns the bytes per pixel used for memory accounting.
func (b *Buffer) ElemSize() int { return b.elemSize }

// byteCount is the number of bytes this tile charges against the cache
// budget.
func (b *Buffer) byteCount() int64 {
	return int64(b.width) * int64(b.height) * int64(b.elemSize)
}

// IsValid reports whether (s, t, directory) falls inside this tile.
func (b *Buffer) IsValid(s, t, directory int) bool {
	return directory == b.directory &&
		s >= b.sOrigin && s < b.sOrigin+b.width &&
		t >= b.tOrigin && t < b.tOrigin+b.height
}

// GetValue reads one sample at tile-local coordinates.
func (b *Buffer) GetValue(x, y, sample int) float64 {
	return float64(b.data[(y*b.width+x)*b.samples+sample])
}

// SetValue writes one sample at tile-local coordinates.
func (b *Buffer) SetValue(x, y, sample int, v float64) {
	b.data[(y*b.width+x)*b.samples+sample] = float32(v)
}
