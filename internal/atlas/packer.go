package atlas

import (
	"math"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/data"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/ecopia-map/pointcloud_atlas/internal/spatial"
	"github.com/golang/glog"
)

// Brings source coordinates into the engine frame
type FrameConverter interface {
	ToEngine(coord geometry.Coordinate) (geometry.Coordinate, error)
}

type Packer struct {
	opts      *Options
	converter FrameConverter
	pool      *io.Pool
}

func NewPacker(opts *Options, converter FrameConverter, pool *io.Pool) *Packer {
	return &Packer{
		opts:      opts,
		converter: converter,
		pool:      pool,
	}
}

// Result of packing one point set
type PackResult struct {
	Atlas    *Atlas
	Metadata *Metadata
	Bounds   geometry.Bounds
}

// Packs the points into a new atlas. Bounds are computed over every converted point before any position
// is normalized. Points beyond the atlas capacity are dropped in order and reported in the metadata,
// points that fail conversion are skipped and counted together with the readerSkipped records.
func (p *Packer) Pack(sourceFile string, points []*data.Point, readerSkipped int) (*PackResult, error) {
	size := p.opts.TextureSize
	atlas := NewAtlasUnchecked(size)

	stats := &packStats{
		sourceFile: sourceFile,
		size:       atlas.Size,
		skipped:    readerSkipped,
		ordering:   p.opts.Ordering,
	}

	packed, bounds, skipped, err := p.convertAndBound(points)
	if err != nil {
		return nil, err
	}
	stats.skipped += skipped
	stats.total = len(packed)
	stats.bounds = bounds
	if skipped > 0 {
		glog.Warningf("%d points skipped during coordinate conversion", skipped)
	}

	converted := make([]*data.Point, len(packed))
	for i := range packed {
		converted[i] = packed[i].point
	}
	stats.colour = DetectColour(converted, p.opts.ColourSampleSize)
	glog.Infof("colour detection: %d/%d sampled points carry colour, has_colour=%v", stats.colour.ColourPoints, stats.colour.Samples, stats.colour.HasColour)

	if p.opts.Ordering == OrderingMorton || p.opts.Ordering == OrderingObject {
		if err := p.computeCodes(packed, bounds); err != nil {
			return nil, err
		}
		orderPoints(packed, p.opts.Ordering)
	}

	accepted := len(packed)
	if accepted > atlas.Capacity() {
		accepted = atlas.Capacity()
		glog.Warningf("%d points exceed the capacity of a %dx%d atlas and are dropped", len(packed)-accepted, size, size)
	}
	stats.accepted = accepted

	if err := p.fill(atlas, packed[:accepted], bounds, stats); err != nil {
		return nil, err
	}

	stats.heightmap, err = buildHeightmap(atlas, p.opts.RoadClasses, p.opts.HeightmapBlendRadius, p.pool)
	if err != nil {
		return nil, err
	}

	return &PackResult{
		Atlas:    atlas,
		Metadata: newMetadata(stats),
		Bounds:   bounds,
	}, nil
}

// First pass: converts every point and reduces the partial bounds computed by each worker
func (p *Packer) convertAndBound(points []*data.Point) ([]packedPoint, geometry.Bounds, int, error) {
	converted := make([]packedPoint, len(points))
	valid := make([]bool, len(points))
	partials := make([]geometry.Bounds, p.pool.Workers())
	for i := range partials {
		partials[i] = geometry.NewEmptyBounds()
	}

	err := p.pool.Run(len(points), BoundsChunkSize, func(worker int, w *io.WorkUnit) error {
		for i := w.Start; i < w.End; i++ {
			src := points[i]
			engine, err := p.converter.ToEngine(geometry.Coordinate{X: src.X, Y: src.Y, Z: src.Z})
			if err != nil {
				continue
			}
			converted[i] = packedPoint{position: engine, point: src}
			valid[i] = true
			partials[worker].Extend(engine)
		}
		return nil
	})
	if err != nil {
		return nil, geometry.Bounds{}, 0, err
	}

	bounds := geometry.NewEmptyBounds()
	for _, partial := range partials {
		bounds = bounds.Merge(partial)
	}

	packed := converted[:0]
	skipped := 0
	for i := range converted {
		if valid[i] {
			packed = append(packed, converted[i])
		} else {
			skipped++
		}
	}
	return packed, bounds, skipped, nil
}

func (p *Packer) computeCodes(packed []packedPoint, bounds geometry.Bounds) error {
	return p.pool.Run(len(packed), p.pool.ChunkSize(len(packed), 4), func(worker int, w *io.WorkUnit) error {
		for i := w.Start; i < w.End; i++ {
			n := storedNormalized(bounds, packed[i].position)
			packed[i].code = spatial.EncodeNormalized(float64(n[0]), float64(n[2]))
		}
		return nil
	})
}

// Per worker accumulators of the fill pass
type fillAccumulator struct {
	classCounts [256]int
	classes     *classes.ClassificationInfo
	clamped     int
}

// Second pass: every work unit owns a band of whole rows and writes only its own cells
func (p *Packer) fill(atlas *Atlas, packed []packedPoint, bounds geometry.Bounds, stats *packStats) error {
	accumulators := make([]fillAccumulator, p.pool.Workers())
	for i := range accumulators {
		accumulators[i].classes = classes.NewClassificationInfo()
	}

	rows := (len(packed) + atlas.Size - 1) / atlas.Size
	rowsPerUnit := p.pool.ChunkSize(rows, 4)

	err := p.pool.Run(rows, rowsPerUnit, func(worker int, w *io.WorkUnit) error {
		acc := &accumulators[worker]
		start := w.Start * atlas.Size
		end := w.End * atlas.Size
		if end > len(packed) {
			end = len(packed)
		}
		for i := start; i < end; i++ {
			if writeCell(atlas, i, &packed[i], bounds) {
				acc.clamped++
			}
			pt := packed[i].point
			acc.classCounts[pt.Classification]++
			acc.classes.InsertOrUpdate(pt.Classification, clampObjectID(pt.ObjectID))
		}
		return nil
	})
	if err != nil {
		return err
	}

	stats.classes = classes.NewClassificationInfo()
	for i := range accumulators {
		for id, n := range accumulators[i].classCounts {
			stats.classCounts[id] += n
		}
		stats.classes.Merge(accumulators[i].classes)
		stats.clamped += accumulators[i].clamped
	}
	if stats.clamped > 0 {
		glog.Warningf("%d object ids above %d were clamped", stats.clamped, MaxObjectID)
	}
	return nil
}

// Writes one point into cell i of all the textures. Returns true if the object id had to be clamped.
func writeCell(atlas *Atlas, i int, pp *packedPoint, bounds geometry.Bounds) bool {
	pt := pp.point
	n := storedNormalized(bounds, pp.position)

	objectID := clampObjectID(pt.ObjectID)
	atlas.Position[i*4] = n[0]
	atlas.Position[i*4+1] = n[1]
	atlas.Position[i*4+2] = n[2]
	atlas.Position[i*4+3] = float32(objectID + 1)

	if pt.HasColour {
		atlas.ColourClass[i*4] = float32(pt.R) / 255
		atlas.ColourClass[i*4+1] = float32(pt.G) / 255
		atlas.ColourClass[i*4+2] = float32(pt.B) / 255
	} else {
		atlas.ColourClass[i*4] = 1
		atlas.ColourClass[i*4+1] = 1
		atlas.ColourClass[i*4+2] = 1
	}
	atlas.ColourClass[i*4+3] = float32(pt.Classification) / 255

	// codes are derived from the stored float32 position so that readers can recompute them
	nx, nz := float64(n[0]), float64(n[2])
	hi, lo := spatial.SplitFloats(spatial.EncodeNormalized(nx, nz))
	atlas.SpatialIndex[i*4] = hi
	atlas.SpatialIndex[i*4+1] = lo
	atlas.SpatialIndex[i*4+2] = math.Float32frombits(spatial.CellID(nx, nz))
	atlas.SpatialIndex[i*4+3] = 1

	return objectID != pt.ObjectID
}

func storedNormalized(bounds geometry.Bounds, c geometry.Coordinate) [3]float32 {
	n := bounds.Normalize(c)
	return [3]float32{float32(n.X), float32(n.Y), float32(n.Z)}
}

func clampObjectID(id uint32) uint32 {
	if id > MaxObjectID {
		return MaxObjectID
	}
	return id
}
