package atlas

import (
	"sort"

	"github.com/ecopia-map/pointcloud_atlas/internal/data"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
)

// A point converted to the engine frame, waiting for its cell
type packedPoint struct {
	position geometry.Coordinate
	point    *data.Point
	code     uint64
}

// Reorders the points in place according to the policy. Codes must already be computed for the
// morton and object policies. Sorting is stable so equal keys keep their arrival order.
func orderPoints(points []packedPoint, policy Ordering) {
	switch policy {
	case OrderingMorton:
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].code < points[j].code
		})
	case OrderingObject:
		sort.SliceStable(points, func(i, j int) bool {
			a, b := points[i].point.ObjectID, points[j].point.ObjectID
			if a != b {
				return a < b
			}
			return points[i].code < points[j].code
		})
	}
}
