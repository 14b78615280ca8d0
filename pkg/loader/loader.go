package loader

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"

	"lathe/pkg/camera"
	"lathe/pkg/geometry"
	"lathe/pkg/math"
	"lathe/pkg/motion"
	"lathe/pkg/primvar"
	"lathe/pkg/render"
	"lathe/pkg/shading"
	"lathe/pkg/subdiv"
	"lathe/pkg/texture"
)

// CameraConfig describes the scene camera.
type CameraConfig struct {
	Eye          math.Point3D      `json:"eye"`
	Target       math.Point3D      `json:"target"`
	Up           math.Point3D      `json:"up"`
	Fov          float64           `json:"fov"`
	Aspect       float64           `json:"aspect"`
	Near         float64           `json:"near,omitempty"`
	Far          float64           `json:"far,omitempty"`
	Shutter      float64           `json:"shutter,omitempty"`
	EyeMotion    []motion.Keyframe `json:"eyeMotion,omitempty"`
	TargetMotion []motion.Keyframe `json:"targetMotion,omitempty"`
}

// LightConfig describes the scene light.
type LightConfig struct {
	Position  math.Point3D `json:"position"`
	Intensity float64      `json:"intensity"`
	Radius    float64      `json:"radius,omitempty"`
	Samples   int          `json:"samples,omitempty"`
}

// TagConfig is one subdivision tag record.
type TagConfig struct {
	Name      string    `json:"name"`
	IntArgs   []int     `json:"intargs,omitempty"`
	FloatArgs []float64 `json:"floatargs,omitempty"`
}

// ShapeConfig describes one shape of any supported type.
type ShapeConfig struct {
	Type   string        `json:"type"`
	Center math.Point3D  `json:"center,omitempty"`
	Radius float64       `json:"radius,omitempty"`
	Point  math.Point3D  `json:"point,omitempty"`
	Normal math.Normal3D `json:"normal,omitempty"`
	Motion []motion.Keyframe `json:"motion,omitempty"`

	// Subdivision-mesh fields.
	Points    [][3]float64 `json:"points,omitempty"`
	Faces     [][]int      `json:"faces,omitempty"`
	Tags      []TagConfig  `json:"tags,omitempty"`
	ST        [][2]float64 `json:"st,omitempty"`
	Texture   string       `json:"texture,omitempty"`
	Thickness float64      `json:"thickness,omitempty"`

	Color             color.RGBA  `json:"color"`
	Shininess         *float64    `json:"shininess,omitempty"`
	SpecularIntensity *float64    `json:"specularIntensity,omitempty"`
	SpecularColor     *color.RGBA `json:"specularColor,omitempty"`
}

// SceneConfig is the root of a scene file.
type SceneConfig struct {
	Camera     CameraConfig             `json:"camera"`
	Light      LightConfig              `json:"light"`
	Atmosphere shading.AtmosphereConfig `json:"atmosphere"`
	Shapes     []ShapeConfig            `json:"shapes"`
}

// LoadScene reads a JSON scene file and builds its shapes, driving any
// subdivision meshes through the context's split loop.
func LoadScene(filepath string, ctx *render.Context) (camera.Camera, []geometry.Shape, *shading.Light, shading.AtmosphereConfig, float64, float64, error) {
	file, err := os.ReadFile(filepath)
	if err != nil {
		return nil, nil, nil, shading.AtmosphereConfig{}, 0, 0, fmt.Errorf("failed to read scene file: %w", err)
	}

	var config SceneConfig
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, nil, nil, shading.AtmosphereConfig{}, 0, 0, fmt.Errorf("failed to parse scene file: %w", err)
	}

	cam := camera.NewLookAtCamera(
		config.Camera.Eye,
		config.Camera.Target,
		config.Camera.Up,
		config.Camera.Fov,
		config.Camera.Aspect,
		config.Camera.Shutter,
		config.Camera.EyeMotion,
		config.Camera.TargetMotion,
	)

	samples := config.Light.Samples
	if samples <= 0 {
		samples = 9
	}
	light := &shading.Light{
		Position:  config.Light.Position,
		Intensity: config.Light.Intensity,
		Radius:    config.Light.Radius,
		Samples:   samples,
	}

	var shapes []geometry.Shape
	for _, sc := range config.Shapes {
		shininess := 32.0
		if sc.Shininess != nil {
			shininess = *sc.Shininess
		}
		specularIntensity := 0.5
		if sc.SpecularIntensity != nil {
			specularIntensity = *sc.SpecularIntensity
		}
		specularColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
		if sc.SpecularColor != nil {
			specularColor = *sc.SpecularColor
		}

		switch sc.Type {
		case "sphere":
			shapes = append(shapes, &geometry.Sphere3D{
				Center:            sc.Center,
				Radius:            sc.Radius,
				Color:             sc.Color,
				Shininess:         shininess,
				SpecularIntensity: specularIntensity,
				SpecularColor:     specularColor,
				Motion:            sc.Motion,
			})
		case "plane":
			shapes = append(shapes, geometry.Plane3D{
				Point:             sc.Point,
				Normal:            sc.Normal,
				Color:             sc.Color,
				Shininess:         shininess,
				SpecularIntensity: specularIntensity,
				SpecularColor:     specularColor,
			})
		case "subdiv":
			obj, err := buildSubdiv(sc, ctx, shininess, specularIntensity, specularColor)
			if err != nil {
				return nil, nil, nil, shading.AtmosphereConfig{}, 0, 0, err
			}
			shapes = append(shapes, obj)
		default:
			return nil, nil, nil, shading.AtmosphereConfig{}, 0, 0, fmt.Errorf("unknown shape type: %s", sc.Type)
		}
	}

	return cam, shapes, light, config.Atmosphere, config.Camera.Near, config.Camera.Far, nil
}

// buildSubdiv turns a subdivision-mesh config into a renderable shape.
func buildSubdiv(sc ShapeConfig, ctx *render.Context, shininess, specIntensity float64, specColor color.RGBA) (geometry.Shape, error) {
	if len(sc.Points) == 0 || len(sc.Faces) == 0 {
		return nil, fmt.Errorf("subdiv shape needs points and faces")
	}

	nFaceVerts := 0
	for _, f := range sc.Faces {
		nFaceVerts += len(f)
	}

	pool := primvar.NewPool()
	P := primvar.New("P", primvar.ClassVertex, primvar.TypePoint, 1, len(sc.Points))
	for i, pt := range sc.Points {
		P.SetPoint(i, math.Point3D{X: pt[0], Y: pt[1], Z: pt[2]})
	}
	pool.Add(0, P)

	if len(sc.ST) == nFaceVerts && nFaceVerts > 0 {
		st := primvar.New("st", primvar.ClassFaceVarying, primvar.TypeFloat, 2, nFaceVerts)
		for i, uv := range sc.ST {
			val := st.Value(i)
			val[0], val[1] = uv[0], uv[1]
		}
		pool.Add(0, st)
	}

	top := subdiv.New(pool)
	top.Prepare(len(sc.Points))
	fvStart := 0
	for _, f := range sc.Faces {
		top.AddFacet(f, fvStart)
		fvStart += len(f)
	}
	if err := top.Finalise(); err != nil {
		return nil, fmt.Errorf("subdiv mesh: %w", err)
	}

	tags := make([]subdiv.Tag, 0, len(sc.Tags))
	for _, t := range sc.Tags {
		tags = append(tags, subdiv.Tag{Name: t.Name, IntArgs: t.IntArgs, FloatArgs: t.FloatArgs})
	}
	top.ProcessTags(tags)

	mesh := subdiv.NewMesh(top, len(sc.Faces))
	res := ctx.Split(mesh)

	var tex *texture.TextureMap
	if sc.Texture != "" {
		tex = ctx.Textures.Get(sc.Texture)
	}

	thickness := sc.Thickness
	if thickness <= 0 {
		thickness = 0.02
	}

	return geometry.NewSDSObject(res, thickness, sc.Color, shininess, specIntensity, specColor, tex), nil
}
