package converters

import (
	"fmt"

	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
)

// Brings source points into the engine frame: optional reprojection, elevation correction and the
// z-up to y-up axis rotation, in this order.
type EngineFrameConverter struct {
	converter  CoordinateConverter
	corrector  ElevationCorrector
	sourceSrid int
	targetSrid int
}

func NewEngineFrameConverter(converter CoordinateConverter, corrector ElevationCorrector, sourceSrid int, targetSrid int) *EngineFrameConverter {
	return &EngineFrameConverter{
		converter:  converter,
		corrector:  corrector,
		sourceSrid: sourceSrid,
		targetSrid: targetSrid,
	}
}

func (c *EngineFrameConverter) ToEngine(coord geometry.Coordinate) (geometry.Coordinate, error) {
	out := coord
	if c.converter != nil && c.targetSrid != 0 && c.targetSrid != c.sourceSrid {
		var err error
		out, err = c.converter.ConvertCoordinateSrid(c.sourceSrid, c.targetSrid, coord)
		if err != nil {
			return geometry.Coordinate{}, err
		}
	}
	if c.corrector != nil {
		out.Z = c.corrector.CorrectElevation(out.X, out.Y, out.Z)
	}
	if !out.IsFinite() {
		return geometry.Coordinate{}, fmt.Errorf("non finite coordinate %v", out.AsArray())
	}
	return geometry.ToEngine(out), nil
}
