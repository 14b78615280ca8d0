package subdiv

import (
	"testing"

	"lathe/pkg/math"
	"lathe/pkg/primvar"
)

// cubePoints and cubeFaces describe a unit cube as six quads, faces
// counter-clockwise.
var cubePoints = [][3]float64{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

var cubeFaces = [][]int{
	{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
	{3, 7, 6, 2}, {0, 4, 7, 3}, {1, 2, 6, 5},
}

// buildMesh assembles and finalises a topology from a point/face list.
func buildMesh(t *testing.T, points [][3]float64, faces [][]int) *Topology {
	t.Helper()
	pool := primvar.NewPool()
	P := primvar.New("P", primvar.ClassVertex, primvar.TypePoint, 1, len(points))
	for i, p := range points {
		P.SetPoint(i, math.Point3D{X: p[0], Y: p[1], Z: p[2]})
	}
	pool.Add(0, P)

	top := New(pool)
	top.Prepare(len(points))
	fvStart := 0
	for _, f := range faces {
		if top.AddFacet(f, fvStart) == nil {
			t.Fatalf("AddFacet failed for %v", f)
		}
		fvStart += len(f)
	}
	if err := top.Finalise(); err != nil {
		t.Fatalf("Finalise: %v", err)
	}
	return top
}

func TestCfCyclesClose(t *testing.T) {
	top := buildMesh(t, cubePoints, cubeFaces)
	for i := 0; i < top.FacetCount(); i++ {
		l := top.Facet(i)
		valence := l.CQfv()
		if valence != 4 {
			t.Errorf("facet %d: valence %d, want 4", i, valence)
		}
		p := l
		for s := 0; s < valence; s++ {
			p = p.Cf()
			if s < valence-1 && p == l {
				t.Errorf("facet %d: Cf loop closed early", i)
			}
		}
		if p != l {
			t.Errorf("facet %d: Cf did not cycle back in %d steps", i, valence)
		}
		if l.Cf() == l {
			t.Errorf("facet %d: Cf is the identity", i)
		}
	}
}

func TestEdgeCompanionSymmetry(t *testing.T) {
	top := buildMesh(t, cubePoints, cubeFaces)
	for i := 0; i < top.LathCount(); i++ {
		l := top.laths[i]
		ec := l.Ec()
		if ec == nil {
			t.Errorf("closed cube has no boundary edges, lath %d has no companion", i)
			continue
		}
		if ec.Ec() != l {
			t.Errorf("edge companion of companion is not the original lath")
		}
		if top.EdgeSharpness(l) != top.EdgeSharpness(ec) {
			t.Errorf("companions disagree on sharpness")
		}
	}
}

func TestVertexFanConnectivity(t *testing.T) {
	top := buildMesh(t, cubePoints, cubeFaces)
	// Every cube vertex has three faces around it, and an interior vertex's
	// Cv ring must close.
	for i := 0; i < len(cubePoints); i++ {
		l := top.Vertex(i)
		if l == nil {
			t.Fatalf("vertex %d has no laths", i)
		}
		if l.IsBoundaryVertex() {
			t.Errorf("vertex %d of a closed cube reported as boundary", i)
		}
		if got := l.CQvf(); got != 3 {
			t.Errorf("vertex %d: %d facets in fan, want 3", i, got)
		}
		if got := l.CQve(); got != 3 {
			t.Errorf("vertex %d: %d edges in fan, want 3", i, got)
		}
	}
}

func TestOpenSquareBoundary(t *testing.T) {
	points := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	faces := [][]int{{0, 1, 2, 3}}
	top := buildMesh(t, points, faces)

	for i := 0; i < 4; i++ {
		l := top.Vertex(i)
		if !l.IsBoundaryVertex() {
			t.Errorf("vertex %d of an open square should be boundary", i)
		}
		if !l.IsCornerVertex() {
			t.Errorf("vertex %d should be a corner (two edges, one face)", i)
		}
		if !l.IsBoundaryEdge() {
			t.Errorf("edge at vertex %d should be boundary", i)
		}
	}
	if !top.Facet(0).IsBoundaryFacet() {
		t.Error("the only face of an open square should be a boundary facet")
	}
}

func TestQveBoundaryWalk(t *testing.T) {
	// Two quads sharing an edge; the shared vertices have three edges, two
	// of them boundary.
	points := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {2, 0, 0},
		{0, 1, 0}, {1, 1, 0}, {2, 1, 0},
	}
	faces := [][]int{{0, 1, 4, 3}, {1, 2, 5, 4}}
	top := buildMesh(t, points, faces)

	l := top.Vertex(1)
	qve := l.Qve()
	if len(qve) != 3 {
		t.Fatalf("vertex 1: Qve returned %d laths, want 3", len(qve))
	}
	// The final entry of a boundary Qve walk represents the opposite
	// endpoint of the far boundary edge.
	last := qve[len(qve)-1]
	if last.VertexIndex() == l.VertexIndex() {
		t.Error("boundary Qve terminator should reference the opposite vertex")
	}

	if got := l.CQve(); got != 3 {
		t.Errorf("CQve = %d, want 3", got)
	}
	qvv := l.Qvv()
	// Adjacent vertices of vertex 1 are 0, 2 and 4 in some order.
	want := map[int]bool{0: true, 2: true, 4: true}
	for _, v := range qvv {
		if !want[v.VertexIndex()] {
			t.Errorf("Qvv returned unexpected vertex %d", v.VertexIndex())
		}
		delete(want, v.VertexIndex())
	}
	if len(want) != 0 {
		t.Errorf("Qvv missed vertices: %v", want)
	}
}

func TestQffNeighbourhood(t *testing.T) {
	top := buildGrid(t, 5)
	// The centre face of a 5x5 grid has a full 9-quad neighbourhood.
	centre := top.Facet(2*5 + 2)
	qff := centre.Qff()
	if len(qff) != 9 {
		t.Errorf("centre face neighbourhood has %d faces, want 9", len(qff))
	}
	// No duplicates: every returned lath belongs to a distinct face ring.
	for i, a := range qff {
		for _, b := range qff[i+1:] {
			p := a
			for {
				if p == b {
					t.Fatalf("Qff returned two laths of the same face")
				}
				p = p.Cf()
				if p == a {
					break
				}
			}
		}
	}
}

// buildGrid builds an n x n quad grid in the z=0 plane with (n+1)^2
// vertices.
func buildGrid(t *testing.T, n int) *Topology {
	t.Helper()
	var points [][3]float64
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			points = append(points, [3]float64{float64(i), float64(j), 0})
		}
	}
	var faces [][]int
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v := func(a, b int) int { return b*(n+1) + a }
			faces = append(faces, []int{v(i, j), v(i+1, j), v(i+1, j+1), v(i, j+1)})
		}
	}
	return buildMesh(t, points, faces)
}

func TestEdgeQueries(t *testing.T) {
	top := buildMesh(t, cubePoints, cubeFaces)
	l := top.Facet(0)

	qef := l.Qef()
	if len(qef) != 2 {
		t.Fatalf("interior edge borders %d faces, want 2", len(qef))
	}
	if qef[1] != l.Ec() {
		t.Error("second Qef entry should be the edge companion")
	}

	qev := l.Qev()
	if len(qev) != 2 {
		t.Fatalf("Qev returned %d laths, want 2", len(qev))
	}
	if qev[0].VertexIndex() == qev[1].VertexIndex() {
		t.Error("edge endpoints coincide")
	}

	// Each cube vertex has three edges; the edge's own fan contributes
	// both endpoints' rings minus the edge itself counted twice.
	qee := l.Qee()
	if len(qee) != 5 {
		t.Errorf("Qee returned %d laths, want 5 (3 + 3 - 1 shared)", len(qee))
	}
}

func TestLimitVarMatchesLimitPoint(t *testing.T) {
	top := buildMesh(t, cubePoints, cubeFaces)

	// Force the quad 1-ring into existence first.
	want := top.LimitPoint(top.Vertex(0))

	out := make([]float64, 3)
	top.LimitVar(top.Points().P(0), top.Vertex(0), out)
	got := math.Point3D{X: out[0], Y: out[1], Z: out[2]}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("LimitVar on P gives %v, LimitPoint gives %v", got, want)
	}
}
