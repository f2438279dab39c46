// Package classification reclassifies and hides atlas points through user drawn polygon masks.
package classification

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Operation applied by a polygon to the points it matches
type Mode uint32

const (
	ModeReclassify Mode = 0
	ModeHide       Mode = 1
)

func (m Mode) String() string {
	switch m {
	case ModeReclassify:
		return "reclassify"
	case ModeHide:
		return "hide"
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "reclassify":
		return ModeReclassify, nil
	case "hide":
		return ModeHide, nil
	}
	return 0, fmt.Errorf("unknown polygon mode %q", value)
}

// A (class, object) pair restricting which points a polygon acts upon. Object AnyObject matches every
// object of the class.
type Mask struct {
	Class  uint32
	Object uint32
}

const AnyObject uint32 = 0

// A user drawn polygon in the engine (x,z) plane
type Polygon struct {
	Vertices []mgl32.Vec2
	Target   uint8
	Mode     Mode

	// Empty means every point inside the polygon matches
	Masks []Mask
}

func (p *Polygon) clone() Polygon {
	return Polygon{
		Vertices: append([]mgl32.Vec2(nil), p.Vertices...),
		Target:   p.Target,
		Mode:     p.Mode,
		Masks:    append([]Mask(nil), p.Masks...),
	}
}

// Axis aligned bounding box in the (x,z) plane
type AABB struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

func ComputeAABB(vertices []mgl32.Vec2) AABB {
	box := AABB{
		Min: mgl32.Vec2{math32.Inf(1), math32.Inf(1)},
		Max: mgl32.Vec2{math32.Inf(-1), math32.Inf(-1)},
	}
	for _, v := range vertices {
		box.Min[0] = math32.Min(box.Min[0], v[0])
		box.Min[1] = math32.Min(box.Min[1], v[1])
		box.Max[0] = math32.Max(box.Max[0], v[0])
		box.Max[1] = math32.Max(box.Max[1], v[1])
	}
	return box
}

func (b AABB) Contains(p mgl32.Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b AABB) IsDegenerate() bool {
	return !(b.Max[0] > b.Min[0]) || !(b.Max[1] > b.Min[1])
}

// Even-odd crossing test with half open edges: a point on a left or bottom edge is inside, a point on a
// right or top edge is outside. Vertices follow the same rule, so for an axis aligned square only the
// bottom left corner is inside.
func PointInPolygon(vertices []mgl32.Vec2, p mgl32.Vec2) bool {
	inside := false
	n := len(vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := vertices[i], vertices[j]
		if (vi[1] > p[1]) != (vj[1] > p[1]) {
			crossX := (vj[0]-vi[0])*(p[1]-vi[1])/(vj[1]-vi[1]) + vi[0]
			if p[0] < crossX {
				inside = !inside
			}
		}
	}
	return inside
}

// Checks the geometry of a polygon on its own, capacity checks are done by the mask set
func validateGeometry(vertices []mgl32.Vec2) error {
	if len(vertices) < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewVertices, len(vertices))
	}
	for i, v := range vertices {
		if math32.IsNaN(v[0]) || math32.IsNaN(v[1]) || math32.IsInf(v[0], 0) || math32.IsInf(v[1], 0) {
			return fmt.Errorf("%w: vertex %d is %v", ErrDegeneratePolygon, i, v)
		}
	}
	if ComputeAABB(vertices).IsDegenerate() {
		return fmt.Errorf("%w: bounding box has no area", ErrDegeneratePolygon)
	}
	return nil
}

// Inserts vertices along every edge of the closed ring so that consecutive vertices are at most spacing
// apart. Returns the input unchanged when spacing is not positive.
func Resample(vertices []mgl32.Vec2, spacing float32) []mgl32.Vec2 {
	if spacing <= 0 || len(vertices) < 2 {
		return vertices
	}
	out := make([]mgl32.Vec2, 0, len(vertices))
	for i, a := range vertices {
		b := vertices[(i+1)%len(vertices)]
		out = append(out, a)
		edge := b.Sub(a)
		steps := int(math32.Ceil(edge.Len() / spacing))
		for s := 1; s < steps; s++ {
			out = append(out, a.Add(edge.Mul(float32(s)/float32(steps))))
		}
	}
	return out
}
