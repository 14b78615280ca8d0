package render

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the renderer option set the core queries, loadable from a
// YAML option file. Every field has a sensible default so an empty file
// (or none at all) still renders.
type Options struct {
	Limits struct {
		// TextureMemory is the texture cache budget in kilobytes.
		TextureMemory int `yaml:"texturememory"`
		// GridSize caps micropolygons per grid side when dicing.
		GridSize int `yaml:"gridsize"`
	} `yaml:"limits"`

	Texture struct {
		// Lerp enables trilinear blending across MIPMAP levels.
		Lerp int `yaml:"lerp"`
		// Samples is the per-lookup stochastic sub-sample count.
		Samples int `yaml:"samples"`
	} `yaml:"texture"`

	Statistics struct {
		RenderInfo int `yaml:"renderinfo"`
	} `yaml:"statistics"`

	// ShadingRate is the target micropolygon area in world units.
	ShadingRate float64 `yaml:"shadingrate"`

	// MaxSplitDepth bounds the split recursion for irregular meshes.
	MaxSplitDepth int `yaml:"maxsplitdepth"`
}

// DefaultOptions returns the bootstrapped option set.
func DefaultOptions() *Options {
	o := &Options{}
	o.Limits.TextureMemory = 1024
	o.Limits.GridSize = 8
	o.Texture.Samples = 8
	o.ShadingRate = 0.05
	o.MaxSplitDepth = 3
	return o
}

// LoadOptions reads a YAML option file over the defaults.
func LoadOptions(path string) (*Options, error) {
	o := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options: %w", err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("parsing options: %w", err)
	}
	return o, nil
}

// integer resolves the named integer option the way the original
// GetIntegerOption did, returning a borrowed slice or nil.
func (o *Options) integer(name, param string) []int {
	switch name + "/" + param {
	case "limits/texturememory":
		return []int{o.Limits.TextureMemory}
	case "limits/gridsize":
		return []int{o.Limits.GridSize}
	case "texture/lerp":
		return []int{o.Texture.Lerp}
	case "texture/samples":
		return []int{o.Texture.Samples}
	case "statistics/renderinfo":
		return []int{o.Statistics.RenderInfo}
	}
	return nil
}

func (o *Options) float(name, param string) []float64 {
	switch name + "/" + param {
	case "shading/rate":
		return []float64{o.ShadingRate}
	}
	return nil
}

func (o *Options) str(name, param string) []string {
	return nil
}
