package data

// Contains data of a Point Cloud Point, namely X,Y,Z coords,
// R,G,B color components, Classification and the connectivity object id
type Point struct {
	X              float64
	Y              float64
	Z              float64
	R              uint8
	G              uint8
	B              uint8
	HasColour      bool
	Classification uint8

	// 0 when the point does not belong to a segmented object
	ObjectID uint32
}

// Builds a new Point from the given coordinates, colors, classification and object id values
func NewPoint(X, Y, Z float64, R, G, B uint8, hasColour bool, Classification uint8, objectID uint32) *Point {
	return &Point{
		X:              X,
		Y:              Y,
		Z:              Z,
		R:              R,
		G:              G,
		B:              B,
		HasColour:      hasColour,
		Classification: Classification,
		ObjectID:       objectID,
	}
}

// Builds a new uncoloured Point
func NewPointNoColour(X, Y, Z float64, Classification uint8, objectID uint32) *Point {
	return NewPoint(X, Y, Z, 0, 0, 0, false, Classification, objectID)
}
