package algorithm_manager

import (
	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
)

type AlgorithmManager interface {
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
	GetFrameConverter() atlas.FrameConverter
	GetProximityFilter() classification.ProximityFilter
	GetWorkerPool() *io.Pool
}
