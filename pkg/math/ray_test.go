package math

import "testing"

func TestIntersectRay(t *testing.T) {
	box := AABB3D{Min: Point3D{X: -1, Y: -1, Z: -1}, Max: Point3D{X: 1, Y: 1, Z: 1}}

	ray := Ray{Origin: Point3D{X: -5, Y: 0, Z: 0}, Direction: Point3D{X: 1, Y: 0, Z: 0}}
	tmin, tmax, hit := box.IntersectRay(ray)
	if !hit {
		t.Fatal("ray through the box should hit")
	}
	if tmin != 4 || tmax != 6 {
		t.Errorf("tmin/tmax = %v/%v, want 4/6", tmin, tmax)
	}
	if ray.At(tmin).X != -1 {
		t.Errorf("entry point %v, want x=-1", ray.At(tmin))
	}

	miss := Ray{Origin: Point3D{X: -5, Y: 3, Z: 0}, Direction: Point3D{X: 1, Y: 0, Z: 0}}
	if _, _, hit := box.IntersectRay(miss); hit {
		t.Error("offset ray should miss")
	}

	behind := Ray{Origin: Point3D{X: 5, Y: 0, Z: 0}, Direction: Point3D{X: 1, Y: 0, Z: 0}}
	if _, _, hit := box.IntersectRay(behind); hit {
		t.Error("box behind the ray should not hit")
	}
}

func TestMorton3DOrders(t *testing.T) {
	// Nearby points get closer codes than distant ones.
	a := Morton3D(0.1, 0.1, 0.1)
	b := Morton3D(0.9, 0.9, 0.9)
	if a >= b {
		t.Errorf("morton codes not ordered: %d >= %d", a, b)
	}
	if Morton3D(0, 0, 0) != 0 {
		t.Error("origin should code to zero")
	}
}

func TestLerp(t *testing.T) {
	a := Point3D{X: 0, Y: 0, Z: 0}
	b := Point3D{X: 2, Y: 4, Z: 8}
	mid := a.Lerp(b, 0.5)
	if mid != (Point3D{X: 1, Y: 2, Z: 4}) {
		t.Errorf("Lerp = %v", mid)
	}
}
