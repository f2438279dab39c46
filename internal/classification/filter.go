package classification

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	"github.com/ecopia-map/pointcloud_atlas/internal/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

// Default distance along the Morton curve under which a cell takes the cheap path of the Morton filter
const DefaultMortonThreshold = 4096

// Strategy deciding which cells are close enough to a polygon to be ray cast. A filter may let cells
// outside of the polygon through but must never reject a cell inside it.
type ProximityFilter interface {
	Name() string

	// Builds the test of a single polygon, called once per polygon and dispatch
	Prepare(vertices []mgl32.Vec2, terrain TerrainBounds) ProximityTest
}

type ProximityTest interface {
	// world is the (x,z) position of the cell and code its stored Morton code
	Pass(world mgl32.Vec2, code uint64) bool
}

func NewProximityFilter(name string, mortonThreshold uint64) (ProximityFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "aabb":
		return AABBFilter{}, nil
	case "morton":
		return MortonFilter{Threshold: mortonThreshold}, nil
	}
	return nil, fmt.Errorf("unknown spatial filter %q", name)
}

// Passes the cells inside the polygon bounding box
type AABBFilter struct{}

func (AABBFilter) Name() string {
	return "aabb"
}

func (AABBFilter) Prepare(vertices []mgl32.Vec2, _ TerrainBounds) ProximityTest {
	return ComputeAABB(vertices)
}

func (b AABB) Pass(world mgl32.Vec2, _ uint64) bool {
	return b.Contains(world)
}

// Passes a cell when its code lies within Threshold of the closest vertex code, otherwise when it lies
// inside the circle centred on the vertex centroid passing through the farthest vertex. The circle holds
// the whole polygon so no interior cell is rejected.
type MortonFilter struct {
	Threshold uint64
}

func (MortonFilter) Name() string {
	return "morton"
}

type mortonTest struct {
	codes     []uint64
	threshold uint64
	centroid  mgl32.Vec2
	radius2   float32
}

func (f MortonFilter) Prepare(vertices []mgl32.Vec2, terrain TerrainBounds) ProximityTest {
	t := &mortonTest{
		codes:     make([]uint64, len(vertices)),
		threshold: f.Threshold,
	}
	for i, v := range vertices {
		nx, nz := terrain.NormalizeXZ(v)
		t.codes[i] = spatial.EncodeNormalized(nx, nz)
		t.centroid = t.centroid.Add(v)
	}
	sort.Slice(t.codes, func(i, j int) bool { return t.codes[i] < t.codes[j] })
	if len(vertices) > 0 {
		t.centroid = t.centroid.Mul(1 / float32(len(vertices)))
	}
	for _, v := range vertices {
		t.radius2 = math32.Max(t.radius2, v.Sub(t.centroid).LenSqr())
	}
	// float32 rounding must not shrink the circle below a vertex
	t.radius2 = t.radius2*(1+1e-5) + 1e-6
	return t
}

func (t *mortonTest) Pass(world mgl32.Vec2, code uint64) bool {
	if t.nearCode(code) {
		return true
	}
	return world.Sub(t.centroid).LenSqr() <= t.radius2
}

func (t *mortonTest) nearCode(code uint64) bool {
	i := sort.Search(len(t.codes), func(i int) bool { return t.codes[i] >= code })
	if i < len(t.codes) && spatial.Distance(t.codes[i], code) <= t.threshold {
		return true
	}
	return i > 0 && spatial.Distance(t.codes[i-1], code) <= t.threshold
}
