package render

import (
	"testing"

	"lathe/pkg/math"
	"lathe/pkg/primvar"
	"lathe/pkg/subdiv"
)

// buildGridMesh builds an n x n planar quad grid mesh.
func buildGridMesh(t *testing.T, n int) *subdiv.SubdivMesh {
	t.Helper()
	nVerts := (n + 1) * (n + 1)
	pool := primvar.NewPool()
	P := primvar.New("P", primvar.ClassVertex, primvar.TypePoint, 1, nVerts)
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			P.SetPoint(j*(n+1)+i, math.Point3D{X: float64(i), Y: float64(j)})
		}
	}
	pool.Add(0, P)

	top := subdiv.New(pool)
	top.Prepare(nVerts)
	fvStart := 0
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := func(a, b int) int { return b*(n+1) + a }
			top.AddFacet([]int{v(i, j), v(i+1, j), v(i+1, j+1), v(i, j+1)}, fvStart)
			fvStart += 4
		}
	}
	if err := top.Finalise(); err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	return subdiv.NewMesh(top, n*n)
}

func TestSplitRegularGridExtractsPatches(t *testing.T) {
	ctx := NewContext(nil)
	mesh := buildGridMesh(t, 5)

	res := ctx.Split(mesh)
	// Without interpolateboundary only the 9 interior faces render, and
	// every one of them has a regular neighbourhood.
	if len(res.Patches) != 9 {
		t.Errorf("split produced %d patches, want 9", len(res.Patches))
	}
	if len(res.Grids) != 0 {
		t.Errorf("split produced %d grids, want 0", len(res.Grids))
	}
	if ctx.Stats().PatchesExtracted != 9 {
		t.Errorf("patch counter = %d, want 9", ctx.Stats().PatchesExtracted)
	}
}

func TestSplitIrregularMeshDices(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxSplitDepth = 2
	opts.Limits.GridSize = 2
	ctx := NewContext(opts)

	// A tetrahedron never becomes regular, so everything ends in grids.
	points := [][3]float64{{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}}
	faces := [][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}}

	pool := primvar.NewPool()
	P := primvar.New("P", primvar.ClassVertex, primvar.TypePoint, 1, len(points))
	for i, p := range points {
		P.SetPoint(i, math.Point3D{X: p[0], Y: p[1], Z: p[2]})
	}
	pool.Add(0, P)

	top := subdiv.New(pool)
	top.Prepare(len(points))
	fvStart := 0
	for _, f := range faces {
		top.AddFacet(f, fvStart)
		fvStart += len(f)
	}
	if err := top.Finalise(); err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	mesh := subdiv.NewMesh(top, 4)

	res := ctx.Split(mesh)
	if len(res.Grids) == 0 {
		t.Fatal("irregular mesh produced no grids")
	}
	for _, g := range res.Grids {
		if len(g.P[0]) != (g.NU+1)*(g.NV+1) {
			t.Errorf("grid has %d points for %dx%d", len(g.P[0]), g.NU, g.NV)
		}
	}
	if ctx.Stats().FacesSubdivided == 0 {
		t.Error("subdivision counter never incremented")
	}
}
