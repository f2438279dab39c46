package proj4_coordinate_converter

import (
	"fmt"
	"math"
	"sync"

	"github.com/ecopia-map/pointcloud_atlas/internal/converters"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/golang/glog"
	proj "github.com/xeonx/proj4"
)

const toRadians = math.Pi / 180
const toDeg = 180 / math.Pi

type proj4CoordinateConverter struct {
	sync.Mutex
	EpsgDatabase map[int]*epsgProjection
}

// Contains the definition of a projection and, once first used, its initialized PROJ object
type epsgProjection struct {
	EpsgCode    int
	Description string
	Proj4       string
	Projection  *proj.Proj
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		EpsgDatabase: loadEpsgDatabase(),
	}
}

// Converts the given coordinate from the given source Srid to the given target srid.
// Angular coordinates are expected and returned in degrees.
func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.initProjection(sourceSrid)
	if err != nil {
		return coord, err
	}

	dst, err := cc.initProjection(targetSrid)
	if err != nil {
		return coord, err
	}

	x, y, z := coord.X, coord.Y, coord.Z
	if src.IsLatLong() {
		x, y = x*toRadians, y*toRadians
	}

	var xs, ys, zs = []float64{x}, []float64{y}, []float64{z}
	if err := proj.TransformRaw(src, dst, xs, ys, zs); err != nil {
		return coord, fmt.Errorf("reprojecting EPSG:%d to EPSG:%d: %w", sourceSrid, targetSrid, err)
	}

	if dst.IsLatLong() {
		xs[0], ys[0] = xs[0]*toDeg, ys[0]*toDeg
	}

	return geometry.Coordinate{X: xs[0], Y: ys[0], Z: zs[0]}, nil
}

// Releases all projection objects from memory
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()
	for _, val := range cc.EpsgDatabase {
		if val.Projection != nil {
			val.Projection.Close()
			val.Projection = nil
		}
	}
}

// Returns the projection corresponding to the given EPSG code, storing it in the relevant EpsgDatabase entry for caching
func (cc *proj4CoordinateConverter) initProjection(code int) (*proj.Proj, error) {
	val, ok := cc.EpsgDatabase[code]
	if !ok {
		return nil, fmt.Errorf("epsg code %d not found", code)
	}

	if val.Projection == nil {
		projection, err := proj.InitPlus(val.Proj4)
		if err != nil {
			glog.Errorf("cannot initialize projection EPSG:%d: %v", code, err)
			return nil, err
		}
		val.Projection = projection
	}

	return val.Projection, nil
}
