package texture

import (
	"log/slog"
	"math"
)

// TextureMap is one cached texture file: its TIFF metadata, wrap and filter
// state from the pixar_wrapmodes tag, the per-directory tile lists with
// their MRU pointers, and the scratch state of the most recent level
// calculation.
type TextureMap struct {
	cache   *Cache
	name    string
	mapType MapType

	file  *tiffFile
	valid bool

	xRes            int
	yRes            int
	samplesPerPixel int
	bitsPerSample   int
	planarConfig    int
	format          string

	smode, tmode WrapMode
	filter       Filter
	swidth       float64
	twidth       float64

	// Per-directory tile lists. Index 0 doubles as the flat (level-0)
	// list for plain textures.
	mipmaps [maxDirectories][]*Buffer
	last    [maxDirectories]*Buffer

	// Sampling options from the shader call.
	sblur, tblur     float64
	pswidth, ptwidth float64
	samples          int
	lerp             bool
	pixelVariance    float64
	fov              float64

	// Level-selection memo.
	ds, dt             float64
	level              int
	interp             float64
	umapsize, vmapsize int
	directory          int
}

func newTextureMap(c *Cache, name string, mapType MapType) *TextureMap {
	return &TextureMap{
		cache:         c,
		name:          name,
		mapType:       mapType,
		filter:        FilterBox,
		swidth:        1,
		twidth:        1,
		pswidth:       1,
		ptwidth:       1,
		samples:       8,
		pixelVariance: 1e-4,
		fov:           1,
		ds:            -1,
		dt:            -1,
	}
}

// Name returns the texture's file name.
func (m *TextureMap) Name() string { return m.name }

// IsValid reports whether the texture opened and decoded cleanly.
func (m *TextureMap) IsValid() bool { return m.valid }

// XRes returns the level-0 width.
func (m *TextureMap) XRes() int { return m.xRes }

// YRes returns the level-0 height.
func (m *TextureMap) YRes() int { return m.yRes }

// SamplesPerPixel returns the number of channels per texel.
func (m *TextureMap) SamplesPerPixel() int { return m.samplesPerPixel }

// Format returns the pixar_textureformat tag value.
func (m *TextureMap) Format() string { return m.format }

// Open opens the TIFF and pulls the header fields the sampler needs. An
// unreadable file leaves the map invalid; samples will return zero.
func (m *TextureMap) Open() {
	m.valid = false

	f, err := openTIFF(m.name)
	if err != nil {
		slog.Error("cannot open texture file", "texture", m.name, "err", err)
		return
	}
	m.file = f

	d0 := &f.dirs[0]
	m.xRes = d0.width
	m.yRes = d0.height
	m.samplesPerPixel = d0.samplesPerPixel
	m.bitsPerSample = d0.bitsPerSample
	m.planarConfig = d0.planarConfig

	if d0.wrapModes != "" {
		m.smode, m.tmode, m.filter, m.swidth, m.twidth = parseWrapModes(d0.wrapModes)
	}

	// A file counts as MIPMAP when it is tiled and carries enough
	// directories for its resolution, whatever its format tag claims;
	// other renderers write the same layout under different labels.
	isMipmap := d0.tiled()
	minRes := m.xRes
	if m.yRes < minRes {
		minRes = m.yRes
	}
	wantDirs := int(math.Log2(float64(minRes)))
	if len(f.dirs) < wantDirs-1 {
		isMipmap = false
	}

	if isMipmap {
		m.format = formatMIPMAP
	} else if d0.textureFormat != "" {
		m.format = d0.textureFormat
	} else {
		m.format = "Plain"
	}
	m.directory = 0
	m.valid = true
}

// Close closes the underlying TIFF file, keeping any cached tiles.
func (m *TextureMap) Close() {
	if m.file != nil {
		m.file.Close()
		m.file = nil
	}
}

// releaseFlat frees the level-0 tile list.
func (m *TextureMap) releaseFlat() { m.releaseLevel(0) }

// releaseLevel frees the tile list of one directory slot.
func (m *TextureMap) releaseLevel(k int) {
	for _, b := range m.mipmaps[k] {
		m.cache.free(b.byteCount())
	}
	m.mipmaps[k] = nil
	m.last[k] = nil
}

// createBuffer allocates a tile buffer, charging the cache.
func (m *TextureMap) createBuffer(sOrigin, tOrigin, width, height, directory int, protected bool) *Buffer {
	bytesPerSample := m.bitsPerSample / 8
	if bytesPerSample == 0 {
		bytesPerSample = 1
	}
	b := newBuffer(sOrigin, tOrigin, width, height, m.samplesPerPixel, directory, bytesPerSample)
	m.cache.allocate(b.byteCount(), protected)
	return b
}

// GetBuffer returns the cache buffer holding sample (s, t) of the given
// directory, loading it from the file on a miss. The MRU buffer pointer
// makes the common spatially-coherent case a single check.
func (m *TextureMap) GetBuffer(s, t, directory int, protected bool) *Buffer {
	m.cache.Misses++
	slot := directory % maxDirectories

	if last := m.last[slot]; last != nil && last.IsValid(s, t, directory) {
		m.cache.Hits++
		return last
	}

	for _, b := range m.mipmaps[slot] {
		if b.IsValid(s, t, directory) {
			m.cache.Hits++
			m.last[slot] = b
			return b
		}
	}

	// Not cached; load the appropriate region from the file.
	if m.file == nil {
		f, err := openTIFF(m.name)
		if err != nil {
			slog.Error("cannot open texture file", "texture", m.name, "err", err)
			return nil
		}
		m.file = f
	}
	if directory >= len(m.file.dirs) {
		return nil
	}
	d := &m.file.dirs[directory]

	var buf *Buffer
	if d.tiled() {
		// Snap the origin to the tile grid and read the single tile
		// containing the sample.
		ox := (s / d.tileWidth) * d.tileWidth
		oy := (t / d.tileLength) * d.tileLength
		buf = m.createBuffer(ox, oy, d.tileWidth, d.tileLength, directory, protected)
		if err := m.file.readTile(directory, s, t, buf); err != nil {
			slog.Error("tile read failed", "texture", m.name, "err", err)
			m.cache.free(buf.byteCount())
			m.valid = false
			return nil
		}
	} else {
		buf = m.createBuffer(0, 0, d.width, d.height, directory, true)
		if err := m.file.readWhole(directory, buf); err != nil {
			slog.Error("image read failed", "texture", m.name, "err", err)
			m.cache.free(buf.byteCount())
			m.valid = false
			return nil
		}
	}

	// Insert at the head so spatial coherence finds it first.
	m.mipmaps[slot] = append([]*Buffer{buf}, m.mipmaps[slot]...)
	m.last[slot] = buf
	return buf
}

// calculateLevel picks the MIPMAP level for a sample footprint of (ds, dt)
// in texture coordinates: level = max(0, log2(area)/2), with the
// fractional part kept as the trilinear blend weight. The level walk stops
// once a level side would drop under 8 texels.
func (m *TextureMap) calculateLevel(ds, dt float64) {
	if ds == m.ds && dt == m.dt {
		return
	}

	m.umapsize = m.xRes
	m.vmapsize = m.yRes
	m.interp = 0
	m.level = 0

	uvArea := math.Abs(ds * float64(m.xRes) * dt * float64(m.yRes))

	l := math.Max(fastLog2(uvArea)/2, 0)
	id := int(math.Floor(l))

	m.interp = math.Min(l-float64(id), 1)

	if m.directory != 0 && m.directory < id {
		id = m.directory
	}

	for m.level = 0; m.level < id; m.level++ {
		m.umapsize >>= 1
		m.vmapsize >>= 1
		if m.umapsize < 8 || m.vmapsize < 8 {
			break
		}
	}

	if m.level != 0 {
		m.directory = m.level
	}
	m.ds, m.dt = ds, dt
}

var invLog2 = 1 / math.Log(2)

func fastLog2(a float64) float64 {
	return math.Log(a) * invLog2
}

// biLinear samples the map bilinearly at (u, v) on the given directory,
// accumulating into out. Returns false when the required tiles cannot be
// read.
func (m *TextureMap) biLinear(u, v float64, umapsize, vmapsize, id int, out []float64) bool {
	umap1 := umapsize - 1
	vmap1 := vmapsize - 1

	fu := u * float64(umap1)
	fv := v * float64(vmap1)
	iu := clampInt(int(math.Floor(fu)), 0, umap1)
	iuN := clampInt(int(math.Floor(fu+1)), 0, umap1)
	iv := clampInt(int(math.Floor(fv)), 0, vmap1)
	ivN := clampInt(int(math.Floor(fv+1)), 0, vmap1)
	ru := fu - math.Floor(fu)
	rv := fv - math.Floor(fv)

	a := m.GetBuffer(iu, iv, id, false)
	b := m.GetBuffer(iuN, iv, id, false)
	c := m.GetBuffer(iu, ivN, id, false)
	d := m.GetBuffer(iuN, ivN, id, false)

	if a == nil || b == nil || c == nil || d == nil {
		for i := range out {
			out[i] = 1
		}
		slog.Error("cannot find value for texture sample", "texture", m.name)
		return false
	}

	for s := 0; s < m.samplesPerPixel && s < len(out); s++ {
		val00 := a.GetValue(iu-a.sOrigin, iv-a.tOrigin, s)
		val01 := b.GetValue(iuN-b.sOrigin, iv-b.tOrigin, s)
		val10 := c.GetValue(iu-c.sOrigin, ivN-c.tOrigin, s)
		val11 := d.GetValue(iuN-d.sOrigin, ivN-d.tOrigin, s)
		out[s] = lerp(rv, lerp(ru, val00, val01), lerp(ru, val10, val11))
	}
	return true
}

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
