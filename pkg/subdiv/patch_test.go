package subdiv

import (
	gomath "math"
	"testing"

	"lathe/pkg/math"
	"lathe/pkg/primvar"
)

// gridVertex maps grid coordinates to the vertex index used by buildGrid.
func gridVertex(n, i, j int) int { return j*(n+1) + i }

func TestCanUsePatchRegularGrid(t *testing.T) {
	top := buildGrid(t, 5)
	centre := top.Facet(2*5 + 2)

	if !top.CanUsePatch(centre) {
		t.Fatal("centre face of a flat 5x5 grid should be patchable")
	}

	// Predicate soundness: four corners, valence 4, no creases, interior.
	if centre.CQfv() != 4 {
		t.Error("patchable face is not a quad")
	}
	for _, fv := range centre.Qfv() {
		if fv.CQvv() != 4 {
			t.Errorf("patchable corner has valence %d", fv.CQvv())
		}
		if fv.IsBoundaryVertex() {
			t.Error("patchable corner is on the boundary")
		}
		for _, ve := range fv.Qve() {
			if top.EdgeSharpness(ve) != 0 {
				t.Error("patchable corner has a creased edge")
			}
		}
	}
}

func TestCanUsePatchRejections(t *testing.T) {
	// A boundary-adjacent face lacks the 9-quad neighbourhood.
	top := buildGrid(t, 5)
	if top.CanUsePatch(top.Facet(0)) {
		t.Error("corner face of the grid should not be patchable")
	}

	// A creased edge in the neighbourhood blocks the fast path.
	top2 := buildGrid(t, 5)
	top2.ProcessTags([]Tag{{
		Name:      "crease",
		IntArgs:   []int{gridVertex(5, 2, 2), gridVertex(5, 3, 2)},
		FloatArgs: []float64{10},
	}})
	if top2.CanUsePatch(top2.Facet(2*5 + 2)) {
		t.Error("face with a creased edge should not be patchable")
	}

	// A triangle is never patchable.
	top3 := buildMesh(t, tetraPoints, tetraFaces)
	if top3.CanUsePatch(top3.Facet(0)) {
		t.Error("triangle should not be patchable")
	}
}

func TestNbhdIndicesCoverTheBlock(t *testing.T) {
	top := buildGrid(t, 5)
	centre := top.Facet(2*5 + 2)

	vertIdx, faceVertIdx := nbhdIndices(centre)

	// The 16 vertex indices are exactly the 4x4 block around the face.
	want := map[int]bool{}
	for j := 1; j <= 4; j++ {
		for i := 1; i <= 4; i++ {
			want[gridVertex(5, i, j)] = true
		}
	}
	seen := map[int]bool{}
	for _, vi := range vertIdx {
		if !want[vi] {
			t.Errorf("vertex index %d outside the 4x4 block", vi)
		}
		if seen[vi] {
			t.Errorf("vertex index %d extracted twice", vi)
		}
		seen[vi] = true
	}

	// The central four entries are the face's own corners.
	corners := map[int]bool{
		gridVertex(5, 2, 2): true, gridVertex(5, 3, 2): true,
		gridVertex(5, 2, 3): true, gridVertex(5, 3, 3): true,
	}
	for _, pos := range []int{5, 6, 9, 10} {
		if !corners[vertIdx[pos]] {
			t.Errorf("vertIdx[%d] = %d is not a corner of the central face", pos, vertIdx[pos])
		}
	}

	// All 36 facevertex indices belong to the 9 neighbourhood faces.
	faceOf := map[int]int{}
	fvStart := 0
	for f := 0; f < 25; f++ {
		for k := 0; k < 4; k++ {
			faceOf[fvStart+k] = f
		}
		fvStart += 4
	}
	for _, fvi := range faceVertIdx {
		f := faceOf[fvi]
		fi, fj := f%5, f/5
		if fi < 1 || fi > 3 || fj < 1 || fj > 3 {
			t.Errorf("facevertex index %d belongs to face %d outside the neighbourhood", fvi, f)
		}
	}
}

func TestExtractPatchMatchesGrid(t *testing.T) {
	top := buildGrid(t, 5)
	centre := top.Facet(2*5 + 2)
	patch := top.ExtractPatch(centre, 12)

	// For a flat regular grid, the Bezier patch reproduces the central
	// face exactly: its corners coincide with the face corners and it
	// stays in the plane.
	corners := []math.Point3D{
		patch.PointAt(0, 0), patch.PointAt(1, 0),
		patch.PointAt(0, 1), patch.PointAt(1, 1),
	}
	want := map[[2]float64]bool{
		{2, 2}: true, {3, 2}: true, {2, 3}: true, {3, 3}: true,
	}
	for _, c := range corners {
		if gomath.Abs(c.Z) > 1e-9 {
			t.Errorf("flat patch corner left the plane: %v", c)
		}
		key := [2]float64{gomath.Round(c.X), gomath.Round(c.Y)}
		if !want[key] || c.Sub(math.Point3D{X: key[0], Y: key[1]}).Length() > 1e-9 {
			t.Errorf("patch corner %v does not match a central face corner", c)
		}
		delete(want, key)
	}
	if len(want) != 0 {
		t.Errorf("patch corners missed face corners: %v", want)
	}

	mid := patch.PointAt(0.5, 0.5)
	if mid.Sub(math.Point3D{X: 2.5, Y: 2.5, Z: 0}).Length() > 1e-9 {
		t.Errorf("patch midpoint %v, want (2.5, 2.5, 0)", mid)
	}

	n := patch.NormalAt(0.5, 0.5)
	if gomath.Abs(gomath.Abs(n.Z)-1) > 1e-9 {
		t.Errorf("flat patch normal %v is not plane-perpendicular", n)
	}
}

func TestSplitUsesPatchFastPath(t *testing.T) {
	top := buildGrid(t, 5)

	lathsBefore := top.LathCount()
	sp := &SubdivPatch{Topology: top, Face: top.Facet(2*5 + 2), FaceIndex: 12}
	patches, subs := sp.Split()
	if len(patches) != 1 || len(subs) != 0 {
		t.Fatalf("split of a regular face gave %d patches, %d sub-faces; want 1, 0",
			len(patches), len(subs))
	}
	if top.LathCount() != lathsBefore {
		t.Error("patch extraction must not subdivide")
	}
}

func TestFaceVertexDiscontinuityForcesSubdivision(t *testing.T) {
	// Build a 5x5 grid carrying a facevertex variable that is constant per
	// face (discontinuous across every edge).
	n := 5
	var points [][3]float64
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			points = append(points, [3]float64{float64(i), float64(j), 0})
		}
	}
	var faces [][]int
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			faces = append(faces, []int{
				gridVertex(n, i, j), gridVertex(n, i+1, j),
				gridVertex(n, i+1, j+1), gridVertex(n, i, j+1),
			})
		}
	}

	pool := primvar.NewPool()
	P := primvar.New("P", primvar.ClassVertex, primvar.TypePoint, 1, len(points))
	for i, p := range points {
		P.SetPoint(i, math.Point3D{X: p[0], Y: p[1], Z: p[2]})
	}
	pool.Add(0, P)

	fv := primvar.New("patchId", primvar.ClassFaceVertex, primvar.TypeFloat, 1, 4*len(faces))
	for f := range faces {
		for k := 0; k < 4; k++ {
			fv.Value(4*f + k)[0] = float64(f)
		}
	}
	pool.Add(0, fv)

	top := New(pool)
	top.Prepare(len(points))
	fvStart := 0
	for _, f := range faces {
		top.AddFacet(f, fvStart)
		fvStart += len(f)
	}
	if err := top.Finalise(); err != nil {
		t.Fatalf("Finalise: %v", err)
	}

	if top.CanUsePatch(top.Facet(2*5 + 2)) {
		t.Error("discontinuous facevertex data must force subdivision")
	}
}

func TestBsplineToBezierFlatSheet(t *testing.T) {
	// A planar cage converts to a planar Bezier cage with the same span.
	var g [16]math.Point3D
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			g[4*r+c] = math.Point3D{X: float64(c), Y: float64(r), Z: 0}
		}
	}
	bsplineToBezier(&g)
	for _, p := range g {
		if gomath.Abs(p.Z) > 1e-9 {
			t.Errorf("flat cage gained depth: %v", p)
		}
		if p.X < 0.9 || p.X > 2.1 || p.Y < 0.9 || p.Y > 2.1 {
			t.Errorf("Bezier point %v outside the central span", p)
		}
	}
	// The Bezier corners are the B-spline limit corners.
	if g[0].Sub(math.Point3D{X: 1, Y: 1}).Length() > 1e-9 {
		t.Errorf("corner control %v, want (1,1,0)", g[0])
	}
	if g[15].Sub(math.Point3D{X: 2, Y: 2}).Length() > 1e-9 {
		t.Errorf("corner control %v, want (2,2,0)", g[15])
	}
}
