package geometry

import "github.com/go-gl/mathgl/mgl64"

// Rotation from the source (Z up) convention into the engine convention (Y up):
// new X = X, new Y = Z, new Z = -Y
var CoordinateTransform = mgl64.Mat3FromRows(
	mgl64.Vec3{1, 0, 0},
	mgl64.Vec3{0, 0, 1},
	mgl64.Vec3{0, -1, 0},
)

// Applies the given 3x3 transform to the coordinate
func Transform(m mgl64.Mat3, c Coordinate) Coordinate {
	v := m.Mul3x1(mgl64.Vec3{c.X, c.Y, c.Z})
	return Coordinate{X: v[0], Y: v[1], Z: v[2]}
}

// Rotates a source coordinate into the engine convention
func ToEngine(c Coordinate) Coordinate {
	return Transform(CoordinateTransform, c)
}
