package classification

import (
	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	HoverColour       = mgl32.Vec3{1, 0.85, 0}
	SelectionColour   = mgl32.Vec3{1, 1, 0}
	PassedColour      = mgl32.Vec3{0.1, 0.85, 0.2}
	CulledColour      = mgl32.Vec3{0.9, 0.15, 0.1}
	NoPolygonColour   = mgl32.Vec3{0.5, 0.5, 0.5}
	UnassignedColour  = mgl32.Vec3{0.5, 0.5, 0.5}
	groundBrightness  = float32(0.8)
	vegetationBoost   = float32(1.1)
	unselectedDimming = float32(0.3)
)

// Polygon as evaluated by the kernel, rebuilt from the uniform buffer
type kernelPolygon struct {
	vertices []mgl32.Vec2
	target   uint8
	mode     Mode

	// nil when the polygon matches every point
	masks mapset.Set[Mask]

	// nil when the spatial optimisation is disabled
	test ProximityTest
}

func (p *kernelPolygon) matches(class uint8, object uint32) bool {
	if p.masks == nil {
		return true
	}
	return p.masks.Contains(Mask{Class: uint32(class), Object: object}) ||
		p.masks.Contains(Mask{Class: uint32(class), Object: AnyObject})
}

// Read only inputs shared by every work item of a dispatch
type kernel struct {
	atlas     *atlas.Atlas
	terrain   TerrainBounds
	hasColour bool
	state     RenderState
	polygons  []kernelPolygon

	// class picked by the selection pre-pass, negative when there is none
	selectedClass int
}

func newKernel(a *atlas.Atlas, terrain TerrainBounds, hasColour bool, snap *Snapshot, state RenderState, filter ProximityFilter) *kernel {
	k := &kernel{
		atlas:         a,
		terrain:       terrain,
		hasColour:     hasColour,
		state:         state,
		polygons:      make([]kernelPolygon, snap.Len()),
		selectedClass: -1,
	}
	for i := range k.polygons {
		p := &snap.Polygons[i]
		kp := &k.polygons[i]
		kp.vertices = p.Vertices
		kp.target = p.Target
		kp.mode = p.Mode
		if len(p.Masks) > 0 {
			// read concurrently by the workers, never written after this point
			kp.masks = mapset.NewThreadUnsafeSetWithSize[Mask](len(p.Masks))
			for _, m := range p.Masks {
				kp.masks.Add(m)
			}
		}
		if state.SpatialOptimisation && filter != nil {
			kp.test = filter.Prepare(p.Vertices, terrain)
		}
	}
	return k
}

// Per worker counters, merged once the dispatch completes
type kernelStats struct {
	hidden       int
	reclassified int
	tested       int
	culled       int
	matches      []int
}

func newKernelStats(polygons int) *kernelStats {
	return &kernelStats{matches: make([]int, polygons)}
}

func (s *kernelStats) merge(other *kernelStats) {
	s.hidden += other.hidden
	s.reclassified += other.reclassified
	s.tested += other.tested
	s.culled += other.culled
	for i, m := range other.matches {
		s.matches[i] += m
	}
}

type cellResult struct {
	original uint8
	working  uint8
	hidden   bool

	// proximity tests passed and failed by this cell
	passed int
	culled int
}

func (k *kernel) worldPosition(i int) mgl32.Vec3 {
	p := k.atlas.Position[i*4 : i*4+3]
	return k.terrain.Denormalize(mgl32.Vec3{p[0], p[1], p[2]})
}

// Resolves the final classification of an occupied cell. Polygons are evaluated newest first: a hide
// match ends the evaluation, a reclassify match updates the working class and evaluation continues, so
// an older reclassify still overrides a newer one.
func (k *kernel) resolveCell(i int, stats *kernelStats) cellResult {
	original := k.atlas.Classification(i)
	object := k.atlas.ObjectID(i)
	res := cellResult{original: original, working: original}
	if len(k.polygons) == 0 {
		return res
	}

	world := k.worldPosition(i)
	xz := mgl32.Vec2{world[0], world[2]}
	code := k.atlas.MortonCode(i)

	for p := len(k.polygons) - 1; p >= 0; p-- {
		poly := &k.polygons[p]
		if poly.test != nil {
			if !poly.test.Pass(xz, code) {
				res.culled++
				continue
			}
			res.passed++
		}
		if stats != nil {
			stats.tested++
		}
		if !PointInPolygon(poly.vertices, xz) || !poly.matches(original, object) {
			continue
		}
		if stats != nil {
			stats.matches[p]++
		}
		if poly.mode == ModeHide {
			res.hidden = true
			break
		}
		res.working = poly.target
	}
	if stats != nil {
		stats.culled += res.culled
		if res.hidden {
			stats.hidden++
		} else if res.working != res.original {
			stats.reclassified++
		}
	}
	return res
}

// Writes the output texel of cell i into out
func (k *kernel) shadeCell(i int, out []float32, stats *kernelStats) {
	texel := out[i*4 : i*4+4]
	if !k.atlas.IsOccupied(i) {
		texel[0], texel[1], texel[2], texel[3] = 0, 0, 0, 0
		return
	}
	res := k.resolveCell(i, stats)

	if res.hidden && k.state.Mode != RenderOriginal {
		texel[0], texel[1], texel[2] = 0, 0, 0
		texel[3] = float32(classes.HiddenClass) / 255
		return
	}

	class := res.working
	if k.state.Mode == RenderOriginal {
		class = res.original
	}
	colour := k.colour(i, res, class)

	if hover := k.state.HoverObjectID; hover != 0 && hover == k.atlas.ObjectID(i) {
		colour = HoverColour
	}
	texel[0], texel[1], texel[2] = colour[0], colour[1], colour[2]
	texel[3] = float32(class) / 255
}

func (k *kernel) colour(i int, res cellResult, class uint8) mgl32.Vec3 {
	switch k.state.Mode {
	case RenderRGB:
		if !k.hasColour {
			return classes.Colour(class)
		}
		c := k.atlas.ColourClass[i*4 : i*4+3]
		factor := float32(1)
		if classes.IsGround(class) {
			factor = groundBrightness
		} else if classes.IsVegetation(class) {
			factor = vegetationBoost
		}
		return mgl32.Vec3{clamp01(c[0] * factor), clamp01(c[1] * factor), clamp01(c[2] * factor)}

	case RenderMortonDebug:
		code := k.atlas.MortonCode(i)
		hue := float32(code) / float32(spatial.GridResolution*spatial.GridResolution)
		return classes.HSVToRGB(hue, 0.8, 0.9)

	case RenderSpatialDebug:
		if len(k.polygons) == 0 {
			return NoPolygonColour
		}
		if !k.state.SpatialOptimisation || res.passed > 0 {
			return PassedColour
		}
		return CulledColour

	case RenderClassSelection:
		if k.selectedClass < 0 {
			return classes.Colour(class)
		}
		if int(class) == k.selectedClass {
			return SelectionColour
		}
		return classes.Colour(class).Mul(unselectedDimming)

	case RenderConnectivity:
		object := k.atlas.ObjectID(i)
		if object == 0 {
			return UnassignedColour
		}
		return classes.HashColour(object)
	}
	return classes.Colour(class)
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(1, v))
}
