package render

import (
	"lathe/pkg/subdiv"
)

// SplitResult is the output of driving a subdivision mesh through the
// split loop: the regular faces short-circuited into bicubic patches and
// the diced grids of everything else.
type SplitResult struct {
	Patches []*subdiv.BicubicPatch
	Grids   []*subdiv.Grid
}

// Split drives a subdivision mesh to renderable primitives. Each top-level
// face becomes a patch candidate; a candidate with a regular quad
// neighbourhood is extracted as a bicubic patch, anything else is
// subdivided until either a regular neighbourhood appears or the split
// depth runs out, at which point the face is diced into a micropolygon
// grid of limit points.
func (c *Context) Split(mesh *subdiv.SubdivMesh) *SplitResult {
	res := &SplitResult{}
	gridSize := c.options.Limits.GridSize
	maxDepth := c.options.MaxSplitDepth

	type work struct {
		patch *subdiv.SubdivPatch
		depth int
	}

	var queue []work
	for _, p := range mesh.Split() {
		queue = append(queue, work{p, 0})
	}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		// Non-quad faces cannot be diced directly; one subdivision makes
		// every face a quad, so the depth check only applies to quads.
		if w.depth >= maxDepth && w.patch.Face.CQfv() == 4 {
			res.Grids = append(res.Grids, w.patch.Dice(gridSize, gridSize))
			c.stats.IncGridsDiced()
			continue
		}

		patches, subs := w.patch.Split()
		if len(patches) > 0 {
			res.Patches = append(res.Patches, patches...)
			c.stats.IncPatchesExtracted()
			continue
		}
		c.stats.IncFacesSubdivided()
		for _, s := range subs {
			queue = append(queue, work{s, w.depth + 1})
		}
	}

	return res
}
