package geometry

import "math"

// Contains the coordinates of a point in a 3D space
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.X) && !math.IsInf(c.X, 0) &&
		!math.IsNaN(c.Y) && !math.IsInf(c.Y, 0) &&
		!math.IsNaN(c.Z) && !math.IsInf(c.Z, 0)
}

func (c Coordinate) AsArray() [3]float64 {
	return [3]float64{c.X, c.Y, c.Z}
}
