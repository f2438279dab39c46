package classification

import "errors"

var (
	ErrTooFewVertices    = errors.New("polygon needs at least 3 vertices")
	ErrDegeneratePolygon = errors.New("polygon has a zero extent or non finite vertices")
	ErrPolygonCapacity   = errors.New("polygon capacity exceeded")
	ErrVertexCapacity    = errors.New("polygon vertex capacity exceeded")
	ErrMaskCapacity      = errors.New("mask capacity exceeded")
	ErrMaskFieldOverflow = errors.New("mask field does not fit its bit field")
	ErrReservedClass     = errors.New("target class is reserved for hidden points")
	ErrUnknownPolygon    = errors.New("unknown polygon")
)
