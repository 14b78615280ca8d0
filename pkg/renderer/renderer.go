package renderer

import (
	"image"
	"image/color"
	gomath "math"

	"lathe/pkg/camera"
	"lathe/pkg/geometry"
	"lathe/pkg/math"
	"lathe/pkg/shading"
)

// ScreenBounds defines the rectangular region of the screen to be rendered.
type ScreenBounds struct {
	MinX, MinY, MaxX, MaxY int
}

// Renderer is the screen-space dicing engine: it recursively subdivides
// screen-aligned boxes until they reach pixel size, then resolves the
// shapes they contain.
type Renderer struct {
	Camera     camera.Camera
	Shapes     []geometry.Shape
	Light      shading.Light
	Width      int
	Height     int
	MinSize    float64
	Near, Far  float64
	Atmosphere shading.AtmosphereConfig

	img     *image.RGBA
	bgColor color.RGBA
	bvh     *geometry.BVH
}

// NewRenderer creates a new renderer with the given configuration.
func NewRenderer(cam camera.Camera, shapes []geometry.Shape, light shading.Light, width, height int, minSize, near, far float64, atmosphere shading.AtmosphereConfig) *Renderer {
	if near <= 0 {
		near = 0.1
	}
	if far <= 0 {
		far = 15.0
	}
	return &Renderer{
		Camera:     cam,
		Shapes:     shapes,
		Light:      light,
		Width:      width,
		Height:     height,
		MinSize:    minSize,
		Near:       near,
		Far:        far,
		Atmosphere: atmosphere,
		bgColor:    color.RGBA{30, 30, 35, 255},
		bvh:        geometry.NewBVH(shapes),
	}
}

// Render performs the recursive subdivision rendering for a screen area.
// The rng drives the per-pixel shutter jitter for motion blur.
func (r *Renderer) Render(bounds ScreenBounds, rng *math.XorShift32) *image.RGBA {
	r.img = image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i := 0; i < len(r.img.Pix); i += 4 {
		r.img.Pix[i], r.img.Pix[i+1], r.img.Pix[i+2], r.img.Pix[i+3] = r.bgColor.R, r.bgColor.G, r.bgColor.B, r.bgColor.A
	}

	initialAABB := math.AABB3D{
		Min: math.Point3D{X: float64(bounds.MinX) / float64(r.Width), Y: float64(bounds.MinY) / float64(r.Height), Z: r.Near},
		Max: math.Point3D{X: float64(bounds.MaxX) / float64(r.Width), Y: float64(bounds.MaxY) / float64(r.Height), Z: r.Far},
	}

	r.subdivide(initialAABB, rng)

	return r.img
}

func (r *Renderer) subdivide(aabb math.AABB3D, rng *math.XorShift32) {
	worldAABB := r.getWorldAABB(aabb)

	var hitShape geometry.Shape
	for _, s := range r.Shapes {
		if s.Intersects(worldAABB) {
			// Simplification: just consider the first hit.
			hitShape = s
			break
		}
	}
	if hitShape == nil {
		return
	}

	if (aabb.Max.X - aabb.Min.X) < r.MinSize {
		r.resolvePixels(aabb, hitShape, rng)
		return
	}

	mx, my, mz := (aabb.Min.X+aabb.Max.X)/2, (aabb.Min.Y+aabb.Max.Y)/2, (aabb.Min.Z+aabb.Max.Z)/2
	xs := [3]float64{aabb.Min.X, mx, aabb.Max.X}
	ys := [3]float64{aabb.Min.Y, my, aabb.Max.Y}
	zs := [3]float64{aabb.Min.Z, mz, aabb.Max.Z}

	for zi := 0; zi < 2; zi++ {
		for xi := 0; xi < 2; xi++ {
			for yi := 0; yi < 2; yi++ {
				r.subdivide(math.AABB3D{
					Min: math.Point3D{X: xs[xi], Y: ys[yi], Z: zs[zi]},
					Max: math.Point3D{X: xs[xi+1], Y: ys[yi+1], Z: zs[zi+1]},
				}, rng)
			}
		}
	}
}

// resolvePixels shades the pixels of a leaf box against its shape.
func (r *Renderer) resolvePixels(aabb math.AABB3D, hitShape geometry.Shape, rng *math.XorShift32) {
	minX, minY := int(aabb.Min.X*float64(r.Width)), int(aabb.Min.Y*float64(r.Height))
	maxX, maxY := int(aabb.Max.X*float64(r.Width)), int(aabb.Max.Y*float64(r.Height))

	shutter := r.Camera.GetShutter()

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			if px < 0 || px >= r.Width || py < 0 || py >= r.Height {
				continue
			}
			// Only touch pixels that are still background.
			if r.img.RGBAAt(px, py) != r.bgColor {
				continue
			}

			tSample := 0.0
			if shutter > 0 && rng != nil {
				tSample = rng.Float64() * shutter
			}
			cam := r.Camera.AtTime(tSample)

			sx, sy := float64(px)/float64(r.Width), float64(py)/float64(r.Height)
			zMid := (aabb.Min.Z + aabb.Max.Z) / 2
			worldP := cam.Project(sx, sy, zMid)

			if !hitShape.Contains(worldP, tSample) {
				continue
			}
			norm := hitShape.NormalAtPoint(worldP, tSample)
			c := shading.ShadedColor(worldP, norm, cam.GetEye(), r.Light, hitShape, r.bvh, tSample)
			depth := worldP.Sub(cam.GetEye()).Length()
			r.img.Set(px, py, shading.ApplyAtmosphere(c, depth, r.Atmosphere))
		}
	}
}

func (r *Renderer) getWorldAABB(aabb math.AABB3D) math.AABB3D {
	corners := aabb.GetCorners()
	minP := math.Point3D{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)}
	maxP := math.Point3D{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)}
	for _, c := range corners {
		p := r.Camera.Project(c.X, c.Y, c.Z)
		minP.X, minP.Y, minP.Z = gomath.Min(minP.X, p.X), gomath.Min(minP.Y, p.Y), gomath.Min(minP.Z, p.Z)
		maxP.X, maxP.Y, maxP.Z = gomath.Max(maxP.X, p.X), gomath.Max(maxP.Y, p.Y), gomath.Max(maxP.Z, p.Z)
	}
	return math.AABB3D{Min: minP, Max: maxP}
}
