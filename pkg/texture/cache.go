package texture

import (
	"log/slog"
	"strconv"
	"strings"
)

// MapType distinguishes plain colour textures from environment maps.
type MapType int

const (
	MapTypeTexture MapType = iota
	MapTypeEnvironment
)

// WrapMode controls how sample coordinates outside [0,1] behave.
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapPeriodic
	WrapBlack
)

// ParseWrapMode maps a RenderMan wrap-mode name to its WrapMode, falling
// back to clamp for anything unrecognised.
func ParseWrapMode(name string) WrapMode {
	switch name {
	case "periodic":
		return WrapPeriodic
	case "black":
		return WrapBlack
	case "clamp", "":
		return WrapClamp
	default:
		slog.Warn("unknown wrap mode, using clamp", "mode", name)
		return WrapClamp
	}
}

// maxDirectories bounds the MIPMAP chain; directories hash into this many
// tile-list slots.
const maxDirectories = 256

// defaultBudget is the texture memory budget when no option was supplied,
// in bytes.
const defaultBudget = 1 << 20

// Cache is the process-wide texture cache: the set of open texture maps in
// insertion order, the memory budget from the "limits" "texturememory"
// option, and the running byte total of held tiles.
type Cache struct {
	budget   int64
	used     int64
	critical bool
	warned   bool

	maps []*TextureMap

	// Counters exposed to the renderer's statistics.
	Hits   int64
	Misses int64
}

// NewCache creates a cache with a memory budget in kilobytes; zero or
// negative selects the default.
func NewCache(budgetKB int) *Cache {
	budget := int64(budgetKB) * 1024
	if budget <= 0 {
		budget = defaultBudget
	}
	slog.Info("texture cache limit set", "bytes", budget)
	return &Cache{budget: budget}
}

// Used returns the bytes currently held in tile buffers.
func (c *Cache) Used() int64 { return c.used }

// allocate charges a tile allocation against the budget. Unprotected
// allocations past the budget warn once and arm the critical flag so the
// next sample pass evicts.
func (c *Cache) allocate(bytes int64, protected bool) {
	if c.used+bytes > c.budget && !protected {
		if !c.warned {
			slog.Warn("exceeding allocated texture memory", "over", c.used+bytes-c.budget)
			c.warned = true
		}
		c.critical = true
	}
	c.used += bytes
}

// free returns tile bytes to the budget.
func (c *Cache) free(bytes int64) {
	c.used -= bytes
}

// CriticalMeasure frees cached tiles when an allocation has pushed the
// cache over budget. Textures are visited in insertion order; each gives up
// its flat (level-0) buffers first and then its MIPMAP tile lists, until a
// quarter of the budget has been reclaimed.
func (c *Cache) CriticalMeasure() {
	if !c.critical {
		return
	}
	before := c.used

	for _, m := range c.maps {
		slog.Info("texture cache freeing memory", "texture", m.name)
		m.releaseFlat()
		done := false
		for k := 0; k < maxDirectories && !done; k++ {
			m.releaseLevel(k)
			done = before-c.used > c.budget/4
		}
		if before-c.used > c.budget/4 {
			break
		}
	}

	c.critical = false
}

// Get returns the named texture map, opening and MIPMAPping it on first
// use. A file that cannot be opened yields an invalid map whose samples
// are all zero.
func (c *Cache) Get(name string) *TextureMap {
	return c.get(name, MapTypeTexture)
}

// GetEnvironment returns the named cube environment map.
func (c *Cache) GetEnvironment(name string) *TextureMap {
	return c.get(name, MapTypeEnvironment)
}

func (c *Cache) get(name string, mapType MapType) *TextureMap {
	c.Misses++
	for _, m := range c.maps {
		if m.name == name && m.mapType == mapType {
			c.Hits++
			return m
		}
	}

	m := newTextureMap(c, name, mapType)
	m.Open()
	if m.valid && m.format != formatMIPMAP {
		// Plain images are mipmapped in place; the freshly built levels
		// are protected from self-eviction.
		if err := m.CreateMIPMAP(true); err != nil {
			slog.Error("cannot build MIPMAP", "texture", name, "err", err)
			m.valid = false
		}
	}
	c.maps = append(c.maps, m)
	return m
}

// Close releases every map held by the cache.
func (c *Cache) Close() {
	for _, m := range c.maps {
		m.Close()
		m.releaseFlat()
		for k := 0; k < maxDirectories; k++ {
			m.releaseLevel(k)
		}
	}
	c.maps = nil
}

// parseWrapModes splits the pixar_wrapmodes tag value
// "smode tmode filter swidth twidth" into its parts.
func parseWrapModes(modes string) (smode, tmode WrapMode, filter Filter, swidth, twidth float64) {
	swidth, twidth = 1, 1
	filter = FilterBox
	fields := strings.FieldsFunc(modes, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) > 0 {
		smode = ParseWrapMode(fields[0])
	}
	if len(fields) > 1 {
		tmode = ParseWrapMode(fields[1])
	}
	if len(fields) > 2 {
		filter = ParseFilter(fields[2])
	}
	if len(fields) > 3 {
		if w, err := strconv.ParseFloat(fields[3], 64); err == nil {
			swidth = w
		}
	}
	if len(fields) > 4 {
		if w, err := strconv.ParseFloat(fields[4], 64); err == nil {
			twidth = w
		}
	}
	return smode, tmode, filter, swidth, twidth
}
