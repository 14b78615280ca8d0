package texture

import (
	"image"
	"image/color"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	lmath "lathe/pkg/math"
)

// checkerImage builds a float checkerboard with the given square size.
func checkerImage(size, square int) *Image {
	im := NewImage(size, size, 3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := 0.0
			if ((x/square)+(y/square))%2 == 0 {
				v = 1.0
			}
			for s := 0; s < 3; s++ {
				im.Set(x, y, s, v)
			}
		}
	}
	return im
}

// writeChecker writes a mipmapped checker texture with the given wrap
// modes and returns its path.
func writeChecker(t *testing.T, name, wrapModes string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	levels := BuildLevels(checkerImage(64, 2), FilterBox, 1, 1)
	err := WriteTexture(path, levels, WriteOptions{
		TileWidth:     16,
		TileLength:    16,
		BitsPerSample: 32,
		WrapModes:     wrapModes,
	})
	if err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}
	return path
}

func TestBuildLevelsBoxIsParentMean(t *testing.T) {
	src := NewImage(8, 8, 1)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, 0, float64(y*8+x))
		}
	}
	levels := BuildLevels(src, FilterBox, 1, 1)
	if len(levels) < 2 {
		t.Fatal("no downsampled levels built")
	}
	l1 := levels[1]
	if l1.Width != 4 || l1.Height != 4 {
		t.Fatalf("level 1 is %dx%d, want 4x4", l1.Width, l1.Height)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := (src.At(2*x, 2*y, 0) + src.At(2*x+1, 2*y, 0) +
				src.At(2*x, 2*y+1, 0) + src.At(2*x+1, 2*y+1, 0)) / 4
			if got := l1.At(x, y, 0); gomath.Abs(got-want) > 1e-6 {
				t.Errorf("level1[%d,%d] = %v, want parent mean %v", x, y, got, want)
			}
		}
	}
}

func TestLevelDimensionsHalve(t *testing.T) {
	levels := BuildLevels(checkerImage(64, 2), FilterBox, 1, 1)
	for i := 1; i < len(levels); i++ {
		if levels[i].Width != levels[i-1].Width/2 || levels[i].Height != levels[i-1].Height/2 {
			t.Errorf("level %d is %dx%d, want half of %dx%d", i,
				levels[i].Width, levels[i].Height, levels[i-1].Width, levels[i-1].Height)
		}
	}
}

func TestTIFFRoundTrip(t *testing.T) {
	path := writeChecker(t, "rt.tex", "periodic periodic box 1.000000 1.000000")

	f, err := openTIFF(path)
	if err != nil {
		t.Fatalf("openTIFF: %v", err)
	}
	defer f.Close()

	if len(f.dirs) < 5 {
		t.Fatalf("wrote %d directories, want at least 5", len(f.dirs))
	}
	if f.dirs[0].width != 64 || f.dirs[0].height != 64 {
		t.Errorf("level 0 is %dx%d, want 64x64", f.dirs[0].width, f.dirs[0].height)
	}
	for i := 1; i < len(f.dirs); i++ {
		if f.dirs[i].width != f.dirs[i-1].width/2 {
			t.Errorf("directory %d width %d, want %d", i, f.dirs[i].width, f.dirs[i-1].width/2)
		}
	}
	if !f.dirs[0].tiled() {
		t.Error("texture directories should be tiled")
	}
	if f.dirs[0].textureFormat != formatMIPMAP {
		t.Errorf("texture format %q, want MIPMAP", f.dirs[0].textureFormat)
	}
	if f.dirs[0].wrapModes == "" {
		t.Error("wrap modes tag missing")
	}
}

func TestSampleChecker(t *testing.T) {
	cache := NewCache(4096)
	path := writeChecker(t, "checker.tex", "periodic periodic box 1.000000 1.000000")

	m := cache.Get(path)
	if !m.IsValid() {
		t.Fatal("texture did not open")
	}
	if m.Format() != formatMIPMAP {
		t.Fatalf("format %q, want MIPMAP", m.Format())
	}

	// A texel-sized footprint inside a white square samples level 0.
	val := m.SampleMap(1.0/64, 1.0/64, 1.0/256, 1.0/256)
	if len(val) != 3 {
		t.Fatalf("sample has %d channels, want 3", len(val))
	}
	if gomath.Abs(val[0]-1) > 0.01 {
		t.Errorf("white square sampled %v, want 1", val[0])
	}

	// Inside a black square.
	val = m.SampleMap(3.0/64, 1.0/64, 1.0/256, 1.0/256)
	if gomath.Abs(val[0]) > 0.01 {
		t.Errorf("black square sampled %v, want 0", val[0])
	}

	// A footprint covering the whole image reads a coarse level, which is
	// 50% grey everywhere for a 2-pixel checker.
	val = m.SampleMap(0.5, 0.5, 0.5, 0.5)
	if gomath.Abs(val[0]-0.5) > 0.01 {
		t.Errorf("full-footprint sample %v, want 0.5", val[0])
	}
}

func TestWrapModes(t *testing.T) {
	cache := NewCache(4096)

	periodic := cache.Get(writeChecker(t, "per.tex", "periodic periodic box 1.000000 1.000000"))
	s, tt := 1.0/64, 1.0/64
	w := 1.0 / 256
	base := periodic.SampleMap(s, tt, w, w)
	for k := 1.0; k <= 3; k++ {
		val := periodic.SampleMap(s+k, tt, w, w)
		if gomath.Abs(val[0]-base[0]) > 0.01 {
			t.Errorf("periodic sample at s+%v = %v, want %v", k, val[0], base[0])
		}
	}

	black := cache.Get(writeChecker(t, "blk.tex", "black black box 1.000000 1.000000"))
	val := black.SampleMap(-0.1, 0.5, w, w)
	for c := range val {
		if val[c] != 0 {
			t.Errorf("black-wrapped outside sample channel %d = %v, want 0", c, val[c])
		}
	}
}

func TestInvalidTextureSamplesZero(t *testing.T) {
	cache := NewCache(1024)
	m := cache.Get(filepath.Join(t.TempDir(), "missing.tex"))
	if m.IsValid() {
		t.Fatal("missing file reported valid")
	}
	val := m.SampleMap(0.5, 0.5, 0.01, 0.01)
	for _, v := range val {
		if v != 0 {
			t.Errorf("invalid texture sampled %v, want 0", v)
		}
	}
}

func TestEvictionFreesMemory(t *testing.T) {
	// A tiny budget forces the cache critical after loading tiles.
	cache := NewCache(1)
	m := cache.Get(writeChecker(t, "evict.tex", "periodic periodic box 1.000000 1.000000"))
	if !m.IsValid() {
		t.Fatal("texture did not open")
	}

	// Touch several tiles to grow past the budget.
	for i := 0; i < 4; i++ {
		m.SampleMap(float64(i)/4+0.1, 0.1, 1.0/256, 1.0/256)
	}
	if cache.Used() == 0 {
		t.Fatal("no tile memory accounted")
	}

	if !cache.critical {
		t.Fatal("over-budget allocation did not arm the critical flag")
	}
	before := cache.Used()
	cache.CriticalMeasure()
	if cache.Used() >= before {
		t.Errorf("eviction did not free memory: %d -> %d", before, cache.Used())
	}
}

func TestFilterFallbacks(t *testing.T) {
	if ParseFilter("no-such-filter") != FilterBox {
		t.Error("unknown filter must fall back to box")
	}
	if ParseFilter("mitchell") != FilterMitchell {
		t.Error("mitchell not recognised")
	}
	if ParseWrapMode("no-such-mode") != WrapClamp {
		t.Error("unknown wrap mode must fall back to clamp")
	}

	// Box accepts the whole unit support.
	if FilterBox.Eval(0.4, -0.4, 1, 1) != 1 {
		t.Error("box filter should accept offsets inside its support")
	}
	if FilterBox.Eval(0.6, 0, 1, 1) != 0 {
		t.Error("box filter should reject offsets outside its support")
	}
	// Gaussian peaks at the centre.
	if FilterGaussian.Eval(0, 0, 2, 2) <= FilterGaussian.Eval(0.5, 0.5, 2, 2) {
		t.Error("gaussian filter should peak at the centre")
	}
}

func TestParseWrapModesString(t *testing.T) {
	smode, tmode, filter, swidth, twidth := parseWrapModes("periodic clamp gaussian 2.000000 3.000000")
	if smode != WrapPeriodic || tmode != WrapClamp {
		t.Errorf("wrap modes %v %v", smode, tmode)
	}
	if filter != FilterGaussian {
		t.Errorf("filter %v, want gaussian", filter)
	}
	if swidth != 2 || twidth != 3 {
		t.Errorf("widths %v %v, want 2 3", swidth, twidth)
	}
}

func TestRefusesMipmapOfTiledSource(t *testing.T) {
	cache := NewCache(1024)
	path := writeChecker(t, "tiled.tex", "")
	m := cache.Get(path)
	// The file is already tiled+mipmapped, so it loads as MIPMAP; forcing
	// another build must refuse.
	if err := m.CreateMIPMAP(false); err == nil {
		t.Error("CreateMIPMAP of a tiled image must fail")
	}
}

func TestSampleMapQuad(t *testing.T) {
	cache := NewCache(4096)
	m := cache.Get(writeChecker(t, "quad.tex", "periodic periodic box 1.000000 1.000000"))

	// A quad footprint inside one white square behaves like a point
	// sample there.
	s, tt := 1.0/64, 1.0/64
	d := 1.0 / 512
	val := m.SampleMapQuad(s-d, tt-d, s+d, tt-d, s-d, tt+d, s+d, tt+d)
	if gomath.Abs(val[0]-1) > 0.01 {
		t.Errorf("quad sample %v, want 1", val[0])
	}
}

func TestEnvironmentCube(t *testing.T) {
	// Six solid-colour 32x32 faces packed into the 3x2 atlas:
	// +x +y +z across the top, -x -y -z across the bottom.
	faceColours := [6][3]float64{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 1, 0}, {0, 1, 1}, {1, 0, 1},
	}
	w, h := 32, 32
	atlas := NewImage(3*w, 2*h, 3)
	for f := 0; f < 6; f++ {
		ox, oy := (f%3)*w, (f/3)*h
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for s := 0; s < 3; s++ {
					atlas.Set(ox+x, oy+y, s, faceColours[f][s])
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "env.tex")
	levels := BuildLevels(atlas, FilterBox, 1, 1)
	err := WriteTexture(path, levels, WriteOptions{
		TileWidth: 16, TileLength: 16, BitsPerSample: 32,
		TextureFormat: "CUBEENVMAP",
		WrapModes:     "clamp clamp box 1.000000 1.000000",
	})
	if err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}

	cache := NewCache(8192)
	m := cache.GetEnvironment(path)
	if !m.IsValid() {
		t.Fatal("environment map did not open")
	}

	cases := []struct {
		dir  lmath.Point3D
		want [3]float64
	}{
		{lmath.Point3D{X: 1}, faceColours[0]},  // +x
		{lmath.Point3D{Y: 1}, faceColours[1]},  // +y
		{lmath.Point3D{Z: 1}, faceColours[2]},  // +z
		{lmath.Point3D{X: -1}, faceColours[3]}, // -x
		{lmath.Point3D{Y: -1}, faceColours[4]}, // -y
		{lmath.Point3D{Z: -1}, faceColours[5]}, // -z
	}
	for _, c := range cases {
		val := m.SampleEnvironment(c.dir, c.dir, c.dir, c.dir)
		if len(val) != 3 {
			t.Fatalf("environment sample has %d channels", len(val))
		}
		for s := 0; s < 3; s++ {
			if gomath.Abs(val[s]-c.want[s]) > 0.05 {
				t.Errorf("direction %v channel %d = %v, want %v", c.dir, s, val[s], c.want[s])
				break
			}
		}
	}
}

func TestPlainTIFFGetsMipmapped(t *testing.T) {
	// A foreign scanline TIFF (written by x/image/tiff) opens as a plain
	// texture and is mipmapped in cache memory on first use.
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(0)
			if ((x/2)+(y/2))%2 == 0 {
				v = 255
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "plain.tif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cache := NewCache(4096)
	m := cache.Get(path)
	if !m.IsValid() {
		t.Fatal("plain TIFF did not open")
	}
	if m.Format() != formatMIPMAP {
		t.Errorf("plain texture was not mipmapped, format %q", m.Format())
	}

	// Level 0 still resolves the checker.
	val := m.SampleMap(1.0/32, 1.0/32, 1.0/256, 1.0/256)
	if gomath.Abs(val[0]-1) > 0.05 {
		t.Errorf("white square sampled %v, want 1", val[0])
	}
}
