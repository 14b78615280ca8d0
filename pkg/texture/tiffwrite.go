package texture

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Image is one plain raster used by the texture tools: interleaved float
// samples in row-major order.
type Image struct {
	Width   int
	Height  int
	Samples int
	Data    []float32
}

// NewImage allocates a zeroed image.
func NewImage(width, height, samples int) *Image {
	return &Image{Width: width, Height: height, Samples: samples,
		Data: make([]float32, width*height*samples)}
}

// At reads one sample.
func (im *Image) At(x, y, s int) float64 {
	return float64(im.Data[(y*im.Width+x)*im.Samples+s])
}

// Set writes one sample.
func (im *Image) Set(x, y, s int, v float64) {
	im.Data[(y*im.Width+x)*im.Samples+s] = float32(v)
}

// WriteOptions configures the texture writer.
type WriteOptions struct {
	TileWidth     int
	TileLength    int
	BitsPerSample int // 8 or 32
	TextureFormat string
	WrapModes     string
}

// tiffWriter accumulates a little-endian TIFF file in memory.
type tiffWriter struct {
	buf         []byte
	lastNextIFD int64
}

func (w *tiffWriter) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *tiffWriter) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *tiffWriter) pos() int64 { return int64(len(w.buf)) }

func (w *tiffWriter) patch32(at int64, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[at:], v)
}

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

// WriteTexture writes the MIPMAP level chain as a multi-directory tiled
// TIFF with the pixar texture tags, one directory per level.
func WriteTexture(path string, levels []*Image, opts WriteOptions) error {
	if len(levels) == 0 {
		return fmt.Errorf("no levels to write: %w", ErrUnsupportedFormat)
	}
	if opts.TileWidth <= 0 {
		opts.TileWidth = 32
	}
	if opts.TileLength <= 0 {
		opts.TileLength = 32
	}
	if opts.BitsPerSample != 32 {
		opts.BitsPerSample = 8
	}
	if opts.TextureFormat == "" {
		opts.TextureFormat = formatMIPMAP
	}
	if opts.WrapModes == "" {
		opts.WrapModes = "black black box 1.000000 1.000000"
	}

	w := &tiffWriter{}
	// Header: little-endian, magic, offset of the first IFD (patched).
	w.buf = append(w.buf, 'I', 'I')
	w.u16(42)
	w.lastNextIFD = w.pos()
	w.u32(0)

	for _, level := range levels {
		writeDirectory(w, level, opts)
	}

	return os.WriteFile(path, w.buf, 0644)
}

// writeDirectory appends one level's tile data and IFD.
func writeDirectory(w *tiffWriter, im *Image, opts WriteOptions) {
	tw, tl := opts.TileWidth, opts.TileLength
	tilesAcross := (im.Width + tw - 1) / tw
	tilesDown := (im.Height + tl - 1) / tl
	bytesPerSample := opts.BitsPerSample / 8

	// Tile data blocks, cleared to black outside the image.
	tileOffsets := make([]uint32, 0, tilesAcross*tilesDown)
	tileByteCounts := make([]uint32, 0, tilesAcross*tilesDown)
	for ty := 0; ty < tilesDown; ty++ {
		for tx := 0; tx < tilesAcross; tx++ {
			tileOffsets = append(tileOffsets, uint32(w.pos()))
			n := tw * tl * im.Samples * bytesPerSample
			tile := make([]byte, n)
			for y := 0; y < tl; y++ {
				for x := 0; x < tw; x++ {
					ix, iy := tx*tw+x, ty*tl+y
					if ix >= im.Width || iy >= im.Height {
						continue
					}
					for s := 0; s < im.Samples; s++ {
						v := im.At(ix, iy, s)
						at := ((y*tw + x) * im.Samples + s) * bytesPerSample
						if opts.BitsPerSample == 32 {
							binary.LittleEndian.PutUint32(tile[at:], math.Float32bits(float32(v)))
						} else {
							tile[at] = uint8(math.Min(255, math.Max(0, v*255+0.5)))
						}
					}
				}
			}
			w.buf = append(w.buf, tile...)
			tileByteCounts = append(tileByteCounts, uint32(n))
		}
	}

	// Aux payloads that do not fit in the four inline bytes.
	writeLongArray := func(vals []uint32) uint32 {
		if len(vals) == 1 {
			// A single LONG fits in the inline value field.
			return vals[0]
		}
		off := uint32(w.pos())
		for _, v := range vals {
			w.u32(v)
		}
		return off
	}
	writeASCII := func(s string) (uint32, uint32) {
		b := append([]byte(s), 0)
		if len(b)%2 != 0 {
			b = append(b, 0)
		}
		off := uint32(w.pos())
		w.buf = append(w.buf, b...)
		return off, uint32(len(b))
	}

	tileOffsetsAt := writeLongArray(tileOffsets)
	tileCountsAt := writeLongArray(tileByteCounts)
	softwareAt, softwareLen := writeASCII("lathe")
	formatAt, formatLen := writeASCII(opts.TextureFormat)
	wrapAt, wrapLen := writeASCII(opts.WrapModes)

	photometric := uint32(1)
	if im.Samples >= 3 {
		photometric = 2
	}
	sampleFormat := uint32(1)
	if opts.BitsPerSample == 32 {
		sampleFormat = 3
	}

	entries := []ifdEntry{
		{tagImageWidth, 4, 1, uint32(im.Width)},
		{tagImageLength, 4, 1, uint32(im.Height)},
		{tagBitsPerSample, 3, 1, uint32(opts.BitsPerSample)},
		{tagCompression, 3, 1, 1},
		{tagPhotometric, 3, 1, photometric},
		{tagSamplesPerPixel, 3, 1, uint32(im.Samples)},
		{tagPlanarConfig, 3, 1, 1},
		{tagSoftware, 2, softwareLen, softwareAt},
		{tagTileWidth, 3, 1, uint32(tw)},
		{tagTileLength, 3, 1, uint32(tl)},
		{tagTileOffsets, 4, uint32(len(tileOffsets)), tileOffsetsAt},
		{tagTileByteCounts, 4, uint32(len(tileByteCounts)), tileCountsAt},
		{tagSampleFormat, 3, 1, sampleFormat},
		{tagPixarTextureFormat, 2, formatLen, formatAt},
		{tagPixarWrapModes, 2, wrapLen, wrapAt},
	}

	// Chain this IFD in and emit the sorted entries.
	ifdAt := w.pos()
	w.patch32(w.lastNextIFD, uint32(ifdAt))
	w.u16(uint16(len(entries)))
	for _, e := range entries {
		w.u16(e.tag)
		w.u16(e.typ)
		w.u32(e.count)
		if e.typ == 3 && e.count == 1 {
			w.u16(uint16(e.value))
			w.u16(0)
		} else {
			w.u32(e.value)
		}
	}
	w.lastNextIFD = w.pos()
	w.u32(0)
}
