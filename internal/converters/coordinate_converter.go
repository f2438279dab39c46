package converters

import (
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
)

// Reprojects coordinates between spatial reference systems identified by EPSG code
type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error)
	Cleanup()
}
