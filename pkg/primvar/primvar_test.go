package primvar

import (
	"testing"

	"lathe/pkg/math"
)

func TestClassCounts(t *testing.T) {
	nVerts, nFaces, nFaceVerts := 8, 6, 24
	cases := []struct {
		class Class
		want  int
	}{
		{ClassConstant, 1},
		{ClassUniform, 6},
		{ClassVarying, 8},
		{ClassVertex, 8},
		{ClassFaceVarying, 24},
		{ClassFaceVertex, 24},
	}
	for _, c := range cases {
		if got := c.class.Count(nVerts, nFaces, nFaceVerts); got != c.want {
			t.Errorf("%v.Count = %d, want %d", c.class, got, c.want)
		}
	}
}

func TestParseClassAndType(t *testing.T) {
	if c, err := ParseClass("facevertex"); err != nil || c != ClassFaceVertex {
		t.Errorf("ParseClass(facevertex) = %v, %v", c, err)
	}
	if _, err := ParseClass("bogus"); err == nil {
		t.Error("ParseClass accepted a bogus class")
	}
	if ty, err := ParseType("hpoint"); err != nil || ty != TypeHPoint {
		t.Errorf("ParseType(hpoint) = %v, %v", ty, err)
	}
	if TypeHPoint.Components() != 4 || TypeColor.Components() != 3 || TypeMatrix.Components() != 16 {
		t.Error("component counts wrong")
	}
	if TypeString.Averageable() || TypeMatrix.Averageable() {
		t.Error("string and matrix must not be averaged")
	}
}

func TestVarGrowAndCopy(t *testing.T) {
	v := New("Cs", ClassVarying, TypeColor, 1, 2)
	if v.Size() != 2 || v.Stride() != 3 {
		t.Fatalf("size %d stride %d, want 2 and 3", v.Size(), v.Stride())
	}
	copy(v.Value(0), []float64{1, 0.5, 0.25})

	i := v.Grow()
	if i != 2 || v.Size() != 3 {
		t.Fatalf("Grow gave index %d size %d", i, v.Size())
	}
	v.Copy(i, v, 0)
	if !v.ValuesClose(i, 0) {
		t.Error("copied entry differs from source")
	}
}

func TestClose(t *testing.T) {
	if !Close(1.0, 1.0+5e-5) {
		t.Error("values within tolerance reported unequal")
	}
	if Close(1.0, 1.01) {
		t.Error("clearly different values reported close")
	}
	if !Close(0, 0) {
		t.Error("zero not close to itself")
	}
	// Tolerance is relative to magnitude.
	if !Close(1000, 1000.05) {
		t.Error("relative tolerance not applied")
	}
}

func TestPointAccessors(t *testing.T) {
	v := New("P", ClassVertex, TypeHPoint, 1, 1)
	v.SetPoint(0, math.Point3D{X: 1, Y: 2, Z: 3})
	if got := v.Point(0); got != (math.Point3D{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Point = %v", got)
	}
	if v.Value(0)[3] != 1 {
		t.Error("hpoint w component not homogenised")
	}
}

func TestStringVar(t *testing.T) {
	v := New("name", ClassUniform, TypeString, 1, 2)
	v.Strings[0] = "a"
	v.Strings[1] = "b"
	if v.Size() != 2 {
		t.Fatalf("string var size %d, want 2", v.Size())
	}
	i := v.Grow()
	v.Copy(i, v, 0)
	if v.Strings[i] != "a" {
		t.Error("string copy failed")
	}
	if v.ValuesClose(0, 1) {
		t.Error("different strings reported close")
	}
}

func TestPoolSlots(t *testing.T) {
	p := NewPool()
	if p.Count() != 1 {
		t.Fatalf("new pool has %d slots", p.Count())
	}
	P := New("P", ClassVertex, TypePoint, 1, 4)
	p.Add(0, P)
	if p.P(0) != P {
		t.Error("P lookup failed")
	}
	if p.Find(0, "st") != nil {
		t.Error("missing var should be nil")
	}
	slot := p.AddTime(0.5)
	if slot != 1 || p.Count() != 2 {
		t.Errorf("AddTime gave slot %d of %d", slot, p.Count())
	}
}
