package geometry

import (
	"math"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

// Contains the axis aligned min/max extent of a set of points in engine space
type Bounds struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

// Builds bounds that contain nothing, ready to be extended
func NewEmptyBounds() Bounds {
	return Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1), MaxZ: math.Inf(-1),
	}
}

func NewBounds(min, max Coordinate) Bounds {
	return Bounds{
		MinX: min.X, MinY: min.Y, MinZ: min.Z,
		MaxX: max.X, MaxY: max.Y, MaxZ: max.Z,
	}
}

// Grows the bounds to include the given coordinate
func (b *Bounds) Extend(c Coordinate) {
	b.MinX = math.Min(b.MinX, c.X)
	b.MinY = math.Min(b.MinY, c.Y)
	b.MinZ = math.Min(b.MinZ, c.Z)
	b.MaxX = math.Max(b.MaxX, c.X)
	b.MaxY = math.Max(b.MaxY, c.Y)
	b.MaxZ = math.Max(b.MaxZ, c.Z)
}

// Merges two partial bounds. The operation is associative and commutative so partial results
// computed by independent workers can be reduced in any order.
func (b Bounds) Merge(other Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MinZ: math.Min(b.MinZ, other.MinZ),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
		MaxZ: math.Max(b.MaxZ, other.MaxZ),
	}
}

// Returns true if no coordinate was ever added
func (b Bounds) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY || b.MinZ > b.MaxZ
}

func (b Bounds) Min() Coordinate {
	return Coordinate{X: b.MinX, Y: b.MinY, Z: b.MinZ}
}

func (b Bounds) Max() Coordinate {
	return Coordinate{X: b.MaxX, Y: b.MaxY, Z: b.MaxZ}
}

func (b Bounds) Extent() Coordinate {
	return Coordinate{X: b.MaxX - b.MinX, Y: b.MaxY - b.MinY, Z: b.MaxZ - b.MinZ}
}

func (b Bounds) Center() Coordinate {
	return Coordinate{
		X: (b.MinX + b.MaxX) / 2,
		Y: (b.MinY + b.MaxY) / 2,
		Z: (b.MinZ + b.MaxZ) / 2,
	}
}

func (b Bounds) IsDegenerate(axis Axis) bool {
	switch axis {
	case AxisX:
		return !(b.MaxX > b.MinX)
	case AxisY:
		return !(b.MaxY > b.MinY)
	default:
		return !(b.MaxZ > b.MinZ)
	}
}

// Lists the axes with zero extent
func (b Bounds) DegenerateAxes() []Axis {
	var axes []Axis
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		if b.IsDegenerate(axis) {
			axes = append(axes, axis)
		}
	}
	return axes
}

// Maps a coordinate into [0,1] per axis. Degenerate axes map to 0.
func (b Bounds) Normalize(c Coordinate) Coordinate {
	return Coordinate{
		X: normalizeComponent(c.X, b.MinX, b.MaxX),
		Y: normalizeComponent(c.Y, b.MinY, b.MaxY),
		Z: normalizeComponent(c.Z, b.MinZ, b.MaxZ),
	}
}

// Maps a normalized coordinate back to engine space
func (b Bounds) Denormalize(n Coordinate) Coordinate {
	return Coordinate{
		X: b.MinX + n.X*(b.MaxX-b.MinX),
		Y: b.MinY + n.Y*(b.MaxY-b.MinY),
		Z: b.MinZ + n.Z*(b.MaxZ-b.MinZ),
	}
}

func (b Bounds) Contains(c Coordinate) bool {
	return c.X >= b.MinX && c.X <= b.MaxX &&
		c.Y >= b.MinY && c.Y <= b.MaxY &&
		c.Z >= b.MinZ && c.Z <= b.MaxZ
}

func normalizeComponent(v, min, max float64) float64 {
	span := max - min
	if !(span > 0) {
		return 0
	}
	return (v - min) / span
}
