package subdiv

import (
	"log/slog"
	"math"
)

// Tag is one record of the subdivision-mesh tag stream: a name plus its
// integer and float arguments.
type Tag struct {
	Name      string
	IntArgs   []int
	FloatArgs []float64
}

// MapSharpness converts a crease sharpness from the RenderMan 0..infinity
// convention to the internal 0..1 scale: clamp to 5, normalise by 5, then
// bend the curve with x^0.2 so values behave like the reference algorithm.
func MapSharpness(s float64) float64 {
	if s > 5 {
		s = 5
	}
	s /= 5
	return math.Pow(s, 0.2)
}

// ProcessTags applies a tag stream to a finalised topology. Recognised
// tags: "interpolateboundary", "crease" (vertex index pairs plus one
// sharpness), "corner" (vertex indices plus one sharpness) and "hole"
// (face indices). Unknown tags are skipped with a warning.
func (t *Topology) ProcessTags(tags []Tag) {
	for _, tag := range tags {
		switch tag.Name {
		case "interpolateboundary":
			t.SetInterpolateBoundary(true)

		case "crease":
			if len(tag.FloatArgs) == 0 {
				continue
			}
			sharpness := MapSharpness(tag.FloatArgs[0])
			for i := 0; i+1 < len(tag.IntArgs); i++ {
				a, b := tag.IntArgs[i], tag.IntArgs[i+1]
				if a >= t.VertexCount() || b >= t.VertexCount() {
					continue
				}
				t.tagSharpEdge(a, b, sharpness)
			}

		case "corner":
			// Corner sharpness goes through the same clamp-and-bend
			// mapping as creases; an omitted value means infinitely hard.
			sharpness := MapSharpness(math.Inf(1))
			if len(tag.FloatArgs) > 0 {
				sharpness = MapSharpness(tag.FloatArgs[0])
			}
			for _, iv := range tag.IntArgs {
				if iv >= t.VertexCount() {
					continue
				}
				if l := t.Vertex(iv); l != nil {
					t.AddSharpCorner(l, sharpness)
				}
			}

		case "hole":
			for _, f := range tag.IntArgs {
				t.SetHoleFace(f)
			}

		default:
			slog.Warn("skipping unknown subdivision tag", "tag", tag.Name)
		}
	}
}

// tagSharpEdge finds the edge between vertices a and b and tags both of its
// laths with the sharpness.
func (t *Topology) tagSharpEdge(a, b int, sharpness float64) {
	start := t.Vertex(a)
	if start == nil {
		return
	}
	for _, e := range start.Qve() {
		if ec := e.Ec(); ec != nil && ec.VertexIndex() == b {
			t.AddSharpEdge(e, sharpness)
			t.AddSharpEdge(ec, sharpness)
			return
		}
	}
}
