package loader

import (
	"os"
	"path/filepath"
	"testing"

	"lathe/pkg/geometry"
	"lathe/pkg/render"
)

const testScene = `{
  "camera": {
    "eye": {"x": 4, "y": 3, "z": 6},
    "target": {"x": 0, "y": 0, "z": 0},
    "up": {"x": 0, "y": 1, "z": 0},
    "fov": 45,
    "aspect": 1,
    "near": 0.1,
    "far": 20
  },
  "light": {
    "position": {"x": 10, "y": 10, "z": 10},
    "intensity": 1.3
  },
  "shapes": [
    {
      "type": "subdiv",
      "points": [[-1,-1,-1],[1,-1,-1],[1,1,-1],[-1,1,-1],[-1,-1,1],[1,-1,1],[1,1,1],[-1,1,1]],
      "faces": [[0,3,2,1],[4,5,6,7],[0,1,5,4],[3,7,6,2],[0,4,7,3],[1,2,6,5]],
      "tags": [{"name": "crease", "intargs": [2, 6], "floatargs": [10]}],
      "color": {"R": 255, "G": 80, "B": 80, "A": 255}
    },
    {
      "type": "sphere",
      "center": {"x": 3, "y": 0, "z": 0},
      "radius": 0.5,
      "color": {"R": 80, "G": 255, "B": 80, "A": 255}
    },
    {
      "type": "plane",
      "point": {"x": 0, "y": -1.2, "z": 0},
      "normal": {"x": 0, "y": 1, "z": 0},
      "color": {"R": 100, "G": 100, "B": 100, "A": 255}
    }
  ]
}`

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}

	opts := render.DefaultOptions()
	opts.MaxSplitDepth = 1
	opts.Limits.GridSize = 2
	ctx := render.NewContext(opts)
	cam, shapes, light, _, near, far, err := LoadScene(path, ctx)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if cam == nil || light == nil {
		t.Fatal("camera or light missing")
	}
	if near != 0.1 || far != 20 {
		t.Errorf("near/far = %v/%v", near, far)
	}
	if len(shapes) != 3 {
		t.Fatalf("loaded %d shapes, want 3", len(shapes))
	}

	sds, ok := shapes[0].(*geometry.SDSObject)
	if !ok {
		t.Fatalf("first shape is %T, want *geometry.SDSObject", shapes[0])
	}
	if len(sds.Quads) == 0 {
		t.Error("subdivision surface produced no quads")
	}
	aabb := sds.GetAABB()
	// The subdivided cube shrinks toward the limit surface but stays
	// inside its control hull.
	if aabb.Min.X < -1.01 || aabb.Max.X > 1.01 {
		t.Errorf("subdivision surface escaped the control hull: %v", aabb)
	}
}

func TestLoadSceneRejectsUnknownShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"shapes":[{"type":"torus"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	ctx := render.NewContext(nil)
	if _, _, _, _, _, _, err := LoadScene(path, ctx); err == nil {
		t.Error("unknown shape type must fail")
	}
}
