package classification

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/ecopia-map/pointcloud_atlas/internal/texture"
	"github.com/golang/glog"
)

// Rows handed to a worker at once
const rowsPerWorkUnit = 8

// Classified render target: RGB colour per render mode, alpha resolved class / 255
type Output struct {
	Size     int
	Data     []float32
	Sequence uint64
}

func (o *Output) Texture() *texture.Texture {
	return &texture.Texture{Size: o.Size, Format: texture.FormatRGBA32F, Data: o.Data}
}

// Class stored for cell i, HiddenClass for hidden cells and 0 for empty ones
func (o *Output) Class(i int) uint8 {
	return uint8(o.Data[i*4+3]*255 + 0.5)
}

// Statistics of a single dispatch
type Result struct {
	Sequence uint64

	// Cells hidden by a polygon
	Hidden int

	// Visible cells whose class differs from the original one
	Reclassified int

	// Ray casts run and proximity tests failed, summed over cells and polygons
	Tested int
	Culled int

	// Cells matched by each polygon of the snapshot, in snapshot order
	PolygonMatches []int

	// Class picked by the selection point, -1 when none
	SelectedClass int

	Duration time.Duration
}

// Runs the classification kernel over every cell of an atlas. Dispatches are serialised, each one writing
// the back buffer before swapping it with the front buffer.
type Stage struct {
	atlas     *atlas.Atlas
	terrain   TerrainBounds
	hasColour bool
	filter    ProximityFilter
	pool      *io.Pool

	mu       sync.Mutex
	front    atomic.Pointer[Output]
	back     *Output
	sequence uint64
}

func NewStage(a *atlas.Atlas, bounds geometry.Bounds, hasColour bool, filter ProximityFilter, pool *io.Pool) *Stage {
	if filter == nil {
		filter = AABBFilter{}
	}
	if pool == nil {
		pool = io.NewPool(0)
	}
	return &Stage{
		atlas:     a,
		terrain:   NewTerrainBounds(bounds),
		hasColour: hasColour,
		filter:    filter,
		pool:      pool,
	}
}

func NewStageFromLoaded(l *atlas.LoadedAtlas, filter ProximityFilter, pool *io.Pool) *Stage {
	return NewStage(l.Atlas, l.Bounds(), l.Metadata.HasColour, filter, pool)
}

func (s *Stage) Filter() ProximityFilter {
	return s.filter
}

func (s *Stage) Terrain() TerrainBounds {
	return s.terrain
}

// Latest completed output, nil before the first dispatch. The buffer stays valid until the dispatch after
// the next one starts writing into it.
func (s *Stage) Output() *Output {
	return s.front.Load()
}

// Classifies every cell against the snapshot. The snapshot goes through the uniform encoding so that the
// kernel only ever sees what fits in the fixed capacity buffer.
func (s *Stage) Dispatch(snap *Snapshot, state RenderState) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	uniform, err := snap.EncodeUniform(state)
	if err != nil {
		return nil, err
	}
	decoded, decodedState, err := DecodeUniform(uniform)
	if err != nil {
		return nil, err
	}

	k := newKernel(s.atlas, s.terrain, s.hasColour, decoded, decodedState, s.filter)
	if decodedState.Mode == RenderClassSelection && decodedState.IsSelecting {
		if cell, ok := k.nearestCell(decodedState.SelectionPoint, s.pool); ok {
			k.selectedClass = int(k.resolveCell(cell.Cell, nil).working)
		}
	}

	out := s.back
	if out == nil || out.Size != s.atlas.Size {
		out = &Output{Size: s.atlas.Size, Data: make([]float32, s.atlas.Capacity()*4)}
	}

	workers := s.pool.Workers()
	perWorker := make([]*kernelStats, workers)
	for w := range perWorker {
		perWorker[w] = newKernelStats(len(k.polygons))
	}

	size := s.atlas.Size
	err = s.pool.Run(size, rowsPerWorkUnit, func(worker int, work *io.WorkUnit) error {
		stats := perWorker[worker]
		for row := work.Start; row < work.End; row++ {
			for i := row * size; i < (row+1)*size; i++ {
				k.shadeCell(i, out.Data, stats)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := newKernelStats(len(k.polygons))
	for _, stats := range perWorker {
		total.merge(stats)
	}

	s.sequence++
	out.Sequence = s.sequence
	s.back = s.front.Swap(out)

	result := &Result{
		Sequence:       s.sequence,
		Hidden:         total.hidden,
		Reclassified:   total.reclassified,
		Tested:         total.tested,
		Culled:         total.culled,
		PolygonMatches: total.matches,
		SelectedClass:  k.selectedClass,
		Duration:       time.Since(start),
	}
	if glog.V(1) {
		glog.Infof("dispatch %d: %d polygons, mode %s, %d hidden, %d reclassified, %d tested, %d culled in %v",
			result.Sequence, len(k.polygons), decodedState.Mode, result.Hidden, result.Reclassified, result.Tested, result.Culled, result.Duration)
	}
	return result, nil
}
