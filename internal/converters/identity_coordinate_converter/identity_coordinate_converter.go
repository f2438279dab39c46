package identity_coordinate_converter

import (
	"fmt"

	"github.com/ecopia-map/pointcloud_atlas/internal/converters"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
)

// Converter used when points are already expressed in the working reference system
type IdentityCoordinateConverter struct{}

func NewIdentityCoordinateConverter() converters.CoordinateConverter {
	return &IdentityCoordinateConverter{}
}

func (c *IdentityCoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	if sourceSrid != targetSrid && sourceSrid != 0 && targetSrid != 0 {
		return geometry.Coordinate{}, fmt.Errorf("identity converter cannot reproject from EPSG:%d to EPSG:%d", sourceSrid, targetSrid)
	}
	return coord, nil
}

func (c *IdentityCoordinateConverter) Cleanup() {}
