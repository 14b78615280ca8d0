package subdiv

import (
	"testing"

	"lathe/pkg/math"
)

func TestDiceOpenSquare(t *testing.T) {
	points := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	faces := [][]int{{0, 1, 2, 3}}
	top := buildMesh(t, points, faces)
	top.SetInterpolateBoundary(true)

	sp := &SubdivPatch{Topology: top, Face: top.Facet(0), FaceIndex: 0}
	grid := sp.Dice(2, 2)

	if grid.NU != 2 || grid.NV != 2 {
		t.Fatalf("grid is %dx%d, want 2x2", grid.NU, grid.NV)
	}
	if len(grid.P[0]) != 9 {
		t.Fatalf("grid has %d points, want 9", len(grid.P[0]))
	}

	// The limit surface of a boundary-interpolated flat square is the
	// square itself; the diced points are exactly the half-unit lattice.
	want := map[[2]float64]bool{}
	for _, x := range []float64{0, 0.5, 1} {
		for _, y := range []float64{0, 0.5, 1} {
			want[[2]float64{x, y}] = true
		}
	}
	for _, p := range grid.P[0] {
		if p.Z != 0 {
			t.Errorf("diced point %v left the plane", p)
		}
		found := false
		for w := range want {
			d := math.Point3D{X: w[0], Y: w[1]}
			if d.Sub(math.Point3D{X: p.X, Y: p.Y}).Length() < 1e-9 {
				delete(want, w)
				found = true
				break
			}
		}
		if !found {
			t.Errorf("diced point %v is not on the half-unit lattice", p)
		}
	}
	if len(want) != 0 {
		t.Errorf("dicing missed lattice points: %v", want)
	}

	// Grid normals of a flat sheet are plane-perpendicular.
	n := grid.Normal(0, 1, 1)
	if n.X != 0 || n.Y != 0 {
		t.Errorf("flat grid normal %v is not plane-perpendicular", n)
	}
}

func TestDiceRateTable(t *testing.T) {
	// The dice-rate table maps requested grid sizes to power-of-two grids.
	cases := []struct{ req, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {9, 16}, {16, 16}, {100, 16},
	}
	for _, c := range cases {
		points := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
		top := buildMesh(t, points, [][]int{{0, 1, 2, 3}})
		sp := &SubdivPatch{Topology: top, Face: top.Facet(0), FaceIndex: 0}
		grid := sp.Dice(c.req, c.req)
		if grid.NU != c.want {
			t.Errorf("Dice(%d) produced a %d-wide grid, want %d", c.req, grid.NU, c.want)
		}
	}
}

func TestMeshBound(t *testing.T) {
	top := buildMesh(t, cubePoints, cubeFaces)
	mesh := NewMesh(top, 6)
	b := mesh.Bound()
	wantMin := math.Point3D{X: -1, Y: -1, Z: -1}
	wantMax := math.Point3D{X: 1, Y: 1, Z: 1}
	if b.Min != wantMin || b.Max != wantMax {
		t.Errorf("mesh bound %v-%v, want %v-%v", b.Min, b.Max, wantMin, wantMax)
	}
}
