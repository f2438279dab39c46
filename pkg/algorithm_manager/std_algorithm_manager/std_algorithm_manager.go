package std_algorithm_manager

import (
	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters/identity_coordinate_converter"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/ecopia-map/pointcloud_atlas/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options             *atlas.Options
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
	frameConverter      atlas.FrameConverter
	filter              classification.ProximityFilter
	pool                *io.Pool
}

// Picks the strategies matching the options. A nil filter falls back to the bounding box filter.
func NewAlgorithmManager(opts *atlas.Options, filter classification.ProximityFilter) algorithm_manager.AlgorithmManager {
	coordinateConverter := defineCoordinateConverterAlgorithm(opts)
	elevationCorrector := defineElevationCorrectionAlgorithm(opts)
	if filter == nil {
		filter = classification.AABBFilter{}
	}

	return &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: coordinateConverter,
		elevationCorrector:  elevationCorrector,
		frameConverter:      converters.NewEngineFrameConverter(coordinateConverter, elevationCorrector, opts.Srid, opts.TargetSrid),
		filter:              filter,
		pool:                io.NewPool(opts.Workers),
	}
}

func (m *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return m.elevationCorrector
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}

func (m *StandardAlgorithmManager) GetFrameConverter() atlas.FrameConverter {
	return m.frameConverter
}

func (m *StandardAlgorithmManager) GetProximityFilter() classification.ProximityFilter {
	return m.filter
}

func (m *StandardAlgorithmManager) GetWorkerPool() *io.Pool {
	return m.pool
}

// Reprojection goes through proj4 only when a different target system is requested
func defineCoordinateConverterAlgorithm(opts *atlas.Options) converters.CoordinateConverter {
	if opts.TargetSrid != 0 && opts.TargetSrid != opts.Srid {
		return proj4_coordinate_converter.NewProj4CoordinateConverter()
	}
	return identity_coordinate_converter.NewIdentityCoordinateConverter()
}

func defineElevationCorrectionAlgorithm(opts *atlas.Options) converters.ElevationCorrector {
	if opts.ZOffset == 0 {
		return nil
	}
	return offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset)
}
