package texture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/exp/mmap"
)

// Errors surfaced by the texture layer.
var (
	// ErrMissingTile marks a failed tile read; the owning texture is
	// invalidated and further samples return zero.
	ErrMissingTile = errors.New("missing texture tile")
	// ErrUnsupportedFormat marks TIFF features outside the texture
	// pipeline's subset (compression, planar-separate storage).
	ErrUnsupportedFormat = errors.New("unsupported texture format")
)

// TIFF tag ids used by the texture pipeline.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagSoftware        = 305
	tagPlanarConfig    = 284
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSampleFormat    = 339

	// Pixar texture tags carried by RenderMan texture files.
	tagPixarTextureFormat = 33302
	tagPixarWrapModes     = 33303
)

// Values of tagPixarTextureFormat understood by the cache.
const (
	formatMIPMAP     = "MIPMAP"
	formatLatLong    = "LATLONG"
	formatCubeEnvMap = "CUBEENVMAP"
)

// mmapLimit is the file size above which texture files are memory-mapped
// instead of slurped.
const mmapLimit = 256 << 20

// tiffDir is one parsed TIFF directory.
type tiffDir struct {
	width           int
	height          int
	bitsPerSample   int
	samplesPerPixel int
	compression     int
	planarConfig    int
	sampleFormat    int
	rowsPerStrip    int
	tileWidth       int
	tileLength      int

	stripOffsets    []int64
	stripByteCounts []int64
	tileOffsets     []int64
	tileByteCounts  []int64

	textureFormat string
	wrapModes     string
}

// tiled reports whether the directory stores its data as tiles.
func (d *tiffDir) tiled() bool { return d.tileWidth > 0 && d.tileLength > 0 }

// tiffFile is an open multi-directory TIFF. Small files are read into
// memory; large ones are memory-mapped.
type tiffFile struct {
	r      io.ReaderAt
	closer io.Closer
	order  binary.ByteOrder
	dirs   []tiffDir
}

// openTIFF opens and parses every directory of a TIFF file.
func openTIFF(path string) (*tiffFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f := &tiffFile{}
	if info.Size() < mmapLimit {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		f.r = byteReaderAt(data)
	} else {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		f.r = m
		f.closer = m
	}

	if err := f.parse(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// byteReaderAt adapts a byte slice to io.ReaderAt.
type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *tiffFile) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

func (f *tiffFile) u16(off int64) (uint16, error) {
	var b [2]byte
	if _, err := f.r.ReadAt(b[:], off); err != nil {
		return 0, err
	}
	return f.order.Uint16(b[:]), nil
}

func (f *tiffFile) u32(off int64) (uint32, error) {
	var b [4]byte
	if _, err := f.r.ReadAt(b[:], off); err != nil {
		return 0, err
	}
	return f.order.Uint32(b[:]), nil
}

func (f *tiffFile) parse() error {
	var hdr [8]byte
	if _, err := f.r.ReadAt(hdr[:], 0); err != nil {
		return err
	}
	switch {
	case hdr[0] == 'I' && hdr[1] == 'I':
		f.order = binary.LittleEndian
	case hdr[0] == 'M' && hdr[1] == 'M':
		f.order = binary.BigEndian
	default:
		return fmt.Errorf("not a TIFF file: %w", ErrUnsupportedFormat)
	}
	if f.order.Uint16(hdr[2:4]) != 42 {
		return fmt.Errorf("bad TIFF magic: %w", ErrUnsupportedFormat)
	}

	next := int64(f.order.Uint32(hdr[4:8]))
	for next != 0 {
		dir, nextOff, err := f.parseDir(next)
		if err != nil {
			return err
		}
		f.dirs = append(f.dirs, dir)
		next = nextOff
	}
	if len(f.dirs) == 0 {
		return fmt.Errorf("TIFF has no directories: %w", ErrUnsupportedFormat)
	}
	return nil
}

func (f *tiffFile) parseDir(off int64) (tiffDir, int64, error) {
	dir := tiffDir{
		bitsPerSample:   1,
		samplesPerPixel: 1,
		compression:     1,
		planarConfig:    1,
		sampleFormat:    1,
	}

	count, err := f.u16(off)
	if err != nil {
		return dir, 0, err
	}
	entryOff := off + 2

	for i := 0; i < int(count); i++ {
		e := entryOff + int64(i)*12
		tag, err := f.u16(e)
		if err != nil {
			return dir, 0, err
		}
		typ, _ := f.u16(e + 2)
		n, _ := f.u32(e + 4)

		switch tag {
		case tagImageWidth:
			dir.width = int(f.scalar(e, typ))
		case tagImageLength:
			dir.height = int(f.scalar(e, typ))
		case tagBitsPerSample:
			dir.bitsPerSample = int(f.firstValue(e, typ, n))
		case tagCompression:
			dir.compression = int(f.scalar(e, typ))
		case tagSamplesPerPixel:
			dir.samplesPerPixel = int(f.scalar(e, typ))
		case tagRowsPerStrip:
			dir.rowsPerStrip = int(f.scalar(e, typ))
		case tagPlanarConfig:
			dir.planarConfig = int(f.scalar(e, typ))
		case tagSampleFormat:
			dir.sampleFormat = int(f.firstValue(e, typ, n))
		case tagTileWidth:
			dir.tileWidth = int(f.scalar(e, typ))
		case tagTileLength:
			dir.tileLength = int(f.scalar(e, typ))
		case tagStripOffsets:
			dir.stripOffsets = f.values(e, typ, n)
		case tagStripByteCounts:
			dir.stripByteCounts = f.values(e, typ, n)
		case tagTileOffsets:
			dir.tileOffsets = f.values(e, typ, n)
		case tagTileByteCounts:
			dir.tileByteCounts = f.values(e, typ, n)
		case tagPixarTextureFormat:
			dir.textureFormat = f.ascii(e, n)
		case tagPixarWrapModes:
			dir.wrapModes = f.ascii(e, n)
		}
	}

	if dir.rowsPerStrip == 0 {
		dir.rowsPerStrip = dir.height
	}

	next, err := f.u32(entryOff + int64(count)*12)
	if err != nil {
		return dir, 0, err
	}
	return dir, int64(next), nil
}

// typeSize returns the byte size of a TIFF entry type.
func typeSize(typ uint16) int64 {
	switch typ {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	default: // LONG, SLONG, FLOAT and friends
		return 4
	}
}

// scalar reads a single-count SHORT or LONG entry value.
func (f *tiffFile) scalar(entry int64, typ uint16) int64 {
	if typ == 3 {
		v, _ := f.u16(entry + 8)
		return int64(v)
	}
	v, _ := f.u32(entry + 8)
	return int64(v)
}

// firstValue reads the first value of a possibly-array entry.
func (f *tiffFile) firstValue(entry int64, typ uint16, n uint32) int64 {
	vals := f.values(entry, typ, n)
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}

// values reads an array entry, following the offset indirection when the
// payload does not fit in the four inline bytes.
func (f *tiffFile) values(entry int64, typ uint16, n uint32) []int64 {
	size := typeSize(typ)
	base := entry + 8
	if size*int64(n) > 4 {
		off, err := f.u32(entry + 8)
		if err != nil {
			return nil
		}
		base = int64(off)
	}
	out := make([]int64, n)
	for i := range out {
		if typ == 3 {
			v, _ := f.u16(base + int64(i)*size)
			out[i] = int64(v)
		} else {
			v, _ := f.u32(base + int64(i)*size)
			out[i] = int64(v)
		}
	}
	return out
}

// ascii reads a NUL-terminated ASCII entry.
func (f *tiffFile) ascii(entry int64, n uint32) string {
	if n == 0 {
		return ""
	}
	base := entry + 8
	if n > 4 {
		off, err := f.u32(entry + 8)
		if err != nil {
			return ""
		}
		base = int64(off)
	}
	buf := make([]byte, n)
	if _, err := f.r.ReadAt(buf, base); err != nil && err != io.EOF {
		return ""
	}
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// checkDecodable verifies the directory uses the uncompressed contiguous
// subset the cache reads.
func (d *tiffDir) checkDecodable() error {
	if d.compression != 1 {
		return fmt.Errorf("compression %d: %w", d.compression, ErrUnsupportedFormat)
	}
	if d.planarConfig != 1 {
		return fmt.Errorf("planar configuration %d: %w", d.planarConfig, ErrUnsupportedFormat)
	}
	switch {
	case d.bitsPerSample == 8, d.bitsPerSample == 16:
	case d.bitsPerSample == 32 && d.sampleFormat == 3:
	default:
		return fmt.Errorf("%d bits per sample (format %d): %w",
			d.bitsPerSample, d.sampleFormat, ErrUnsupportedFormat)
	}
	return nil
}

// decodePixels converts raw sample bytes to normalised float32 values.
// Integer samples come out in [0,1]; float samples pass through.
func (d *tiffDir) decodePixels(order binary.ByteOrder, raw []byte, out []float32) {
	switch d.bitsPerSample {
	case 8:
		for i := range out {
			if i < len(raw) {
				out[i] = float32(raw[i]) / 255
			}
		}
	case 16:
		for i := range out {
			if 2*i+1 < len(raw) {
				out[i] = float32(order.Uint16(raw[2*i:])) / 65535
			}
		}
	default:
		for i := range out {
			if 4*i+3 < len(raw) {
				out[i] = math.Float32frombits(order.Uint32(raw[4*i:]))
			}
		}
	}
}

// readTile reads the single tile containing (s, t) from a tiled directory
// into a fresh buffer with its origin snapped to the tile grid.
func (f *tiffFile) readTile(dirIdx, s, t int, buf *Buffer) error {
	d := &f.dirs[dirIdx]
	if err := d.checkDecodable(); err != nil {
		return err
	}
	tilesAcross := (d.width + d.tileWidth - 1) / d.tileWidth
	tx := s / d.tileWidth
	ty := t / d.tileLength
	idx := ty*tilesAcross + tx
	if idx < 0 || idx >= len(d.tileOffsets) {
		return fmt.Errorf("tile (%d,%d) out of range: %w", s, t, ErrMissingTile)
	}

	n := d.tileWidth * d.tileLength * d.samplesPerPixel
	raw := make([]byte, n*d.bitsPerSample/8)
	if _, err := f.r.ReadAt(raw, d.tileOffsets[idx]); err != nil && err != io.EOF {
		return fmt.Errorf("reading tile (%d,%d): %w", s, t, ErrMissingTile)
	}
	d.decodePixels(f.order, raw, buf.data)
	return nil
}

// readWhole reads an entire strip-organised directory into a buffer.
func (f *tiffFile) readWhole(dirIdx int, buf *Buffer) error {
	d := &f.dirs[dirIdx]
	if err := d.checkDecodable(); err != nil {
		return err
	}
	rowBytes := d.width * d.samplesPerPixel * d.bitsPerSample / 8
	rowSamples := d.width * d.samplesPerPixel
	raw := make([]byte, rowBytes)
	row := make([]float32, rowSamples)
	for y := 0; y < d.height; y++ {
		strip := y / d.rowsPerStrip
		if strip >= len(d.stripOffsets) {
			return fmt.Errorf("strip %d out of range: %w", strip, ErrMissingTile)
		}
		off := d.stripOffsets[strip] + int64(y%d.rowsPerStrip)*int64(rowBytes)
		if _, err := f.r.ReadAt(raw, off); err != nil && err != io.EOF {
			return fmt.Errorf("reading scanline %d: %w", y, ErrMissingTile)
		}
		d.decodePixels(f.order, raw, row)
		copy(buf.data[y*rowSamples:(y+1)*rowSamples], row)
	}
	return nil
}
