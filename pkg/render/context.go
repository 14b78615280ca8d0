package render

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"lathe/pkg/texture"
)

// ErrMissingPrimvar marks a primitive variable a consumer required but the
// primitive never carried; patch extraction treats it as discontinuous and
// forces subdivision.
var ErrMissingPrimvar = errors.New("missing primitive variable")

// CoordSys is a named coordinate system: the transforms to and from world
// space.
type CoordSys struct {
	ToWorld mgl64.Mat4
	WorldTo mgl64.Mat4
}

// Stats accumulates renderer counters.
type Stats struct {
	FacesSubdivided  int64
	PatchesExtracted int64
	GridsDiced       int64
	TextureHits      int64
	TextureMisses    int64
}

// IncFacesSubdivided counts one face refinement.
func (s *Stats) IncFacesSubdivided() { s.FacesSubdivided++ }

// IncPatchesExtracted counts one regular-neighbourhood fast path.
func (s *Stats) IncPatchesExtracted() { s.PatchesExtracted++ }

// IncGridsDiced counts one diced grid.
func (s *Stats) IncGridsDiced() { s.GridsDiced++ }

// Context is the render-global state the geometry and texture layers query:
// the coordinate-system registry, the options and attributes tables, the
// motion-block time cursor, counters, and the texture cache.
type Context struct {
	options    *Options
	attributes map[string]map[string][]float64

	coordSystems map[string]CoordSys
	cameraToWorld mgl64.Mat4

	times   []float64
	timeIdx int

	stats    Stats
	Textures *texture.Cache
}

// NewContext bootstraps a context from the given options (nil selects the
// defaults) and creates the texture cache with the configured memory
// budget.
func NewContext(opts *Options) *Context {
	if opts == nil {
		opts = DefaultOptions()
	}
	c := &Context{
		options:       opts,
		attributes:    make(map[string]map[string][]float64),
		coordSystems:  make(map[string]CoordSys),
		cameraToWorld: mgl64.Ident4(),
		times:         []float64{0},
	}
	c.coordSystems["world"] = CoordSys{ToWorld: mgl64.Ident4(), WorldTo: mgl64.Ident4()}
	c.Textures = texture.NewCache(opts.Limits.TextureMemory)
	return c
}

// Stats returns the renderer counters.
func (c *Context) Stats() *Stats { return &c.stats }

// Options returns the bootstrapped option set.
func (c *Context) Options() *Options { return c.options }

// SetCameraToWorld registers the camera transform resolved by the special
// "camera" and "current" space names.
func (c *Context) SetCameraToWorld(m mgl64.Mat4) { c.cameraToWorld = m }

// SetCoordSystem registers (or replaces) a named coordinate system.
func (c *Context) SetCoordSystem(name string, toWorld mgl64.Mat4) {
	c.coordSystems[name] = CoordSys{ToWorld: toWorld, WorldTo: toWorld.Inv()}
}

// MatSpaceToSpace composes the transform between two named coordinate
// systems. The names "object" and "shader" resolve against the
// caller-supplied transforms, "camera" and "current" against the camera
// transform; everything else is looked up in the registry, with unknown
// names treated as identity.
func (c *Context) MatSpaceToSpace(from, to string, shaderToWorld, objectToWorld mgl64.Mat4, time float64) mgl64.Mat4 {
	var matA, matB mgl64.Mat4

	switch from {
	case "object":
		matA = objectToWorld
	case "shader":
		matA = shaderToWorld
	case "camera", "current":
		matA = c.cameraToWorld
	default:
		matA = mgl64.Ident4()
		if cs, ok := c.coordSystems[from]; ok {
			matA = cs.ToWorld
		}
	}

	switch to {
	case "object":
		matB = objectToWorld.Inv()
	case "shader":
		matB = shaderToWorld.Inv()
	case "camera", "current":
		matB = c.cameraToWorld.Inv()
	default:
		matB = mgl64.Ident4()
		if cs, ok := c.coordSystems[to]; ok {
			matB = cs.WorldTo
		}
	}

	return matB.Mul4(matA)
}

// MatNSpaceToSpace composes the transform for normals between two named
// systems: the point transform with the translation column cleared.
func (c *Context) MatNSpaceToSpace(from, to string, shaderToWorld, objectToWorld mgl64.Mat4, time float64) mgl64.Mat4 {
	m := c.MatSpaceToSpace(from, to, shaderToWorld, objectToWorld, time)
	m.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	m.SetRow(3, mgl64.Vec4{0, 0, 0, 1})
	return m
}

// SetAttribute stores a typed attribute value.
func (c *Context) SetAttribute(name, param string, values []float64) {
	if c.attributes[name] == nil {
		c.attributes[name] = make(map[string][]float64)
	}
	c.attributes[name][param] = values
}

// Attribute returns a borrowed attribute slice, nil when missing.
func (c *Context) Attribute(name, param string) []float64 {
	return c.attributes[name][param]
}

// IntegerOption returns a borrowed slice for an integer option, nil when
// missing.
func (c *Context) IntegerOption(name, param string) []int {
	return c.options.integer(name, param)
}

// FloatOption returns a borrowed slice for a float option, nil when
// missing.
func (c *Context) FloatOption(name, param string) []float64 {
	return c.options.float(name, param)
}

// StringOption returns a borrowed slice for a string option, nil when
// missing.
func (c *Context) StringOption(name, param string) []string {
	return c.options.str(name, param)
}

// SetMotionTimes installs the motion-block time samples and rewinds the
// cursor.
func (c *Context) SetMotionTimes(times []float64) {
	if len(times) == 0 {
		times = []float64{0}
	}
	c.times = times
	c.timeIdx = 0
}

// CurrentTime returns the time sample under the motion cursor.
func (c *Context) CurrentTime() float64 {
	return c.times[c.timeIdx]
}

// AdvanceTime steps the motion cursor, clamping at the final sample.
func (c *Context) AdvanceTime() {
	if c.timeIdx < len(c.times)-1 {
		c.timeIdx++
	}
}
