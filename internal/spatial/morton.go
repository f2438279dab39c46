// Package spatial implements the Z-order (Morton) spatial index stored alongside the atlas.
package spatial

import (
	"errors"
	"fmt"
	"math"
)

// Per axis grid resolution used to quantize normalized (x,z) positions before interleaving.
// The classification stage decodes codes with this same constant, the metadata records it and
// loaders reject atlases built with a different value.
const GridResolution = 1024

// Describes how Morton codes are laid out in the spatial index texture
const Encoding = "morton2d-xz-hi-lo-float-bits"

var ErrResolutionMismatch = errors.New("spatial index grid resolution mismatch")

// Checks that an atlas spatial index was built with the compiled grid resolution
func ValidateResolution(stored int) error {
	if stored != GridResolution {
		return fmt.Errorf("%w: atlas uses %d, engine expects %d", ErrResolutionMismatch, stored, GridResolution)
	}
	return nil
}

// Quantizes a normalized coordinate into [0, GridResolution-1]
func GridCoord(normalized float64) uint32 {
	return GridCoordAt(normalized, GridResolution)
}

func GridCoordAt(normalized float64, resolution int) uint32 {
	max := float64(resolution - 1)
	g := math.Floor(normalized * max)
	if math.IsNaN(g) || g < 0 {
		return 0
	}
	if g > max {
		return uint32(max)
	}
	return uint32(g)
}

// Interleaves x into the even bits and z into the odd bits of a 64 bit code
func Encode(x, z uint32) uint64 {
	return spread(x) | spread(z)<<1
}

// Extracts the x and z grid coordinates from a Morton code
func Decode(code uint64) (x, z uint32) {
	return compact(code), compact(code >> 1)
}

// Computes the Morton code of a normalized (x,z) position
func EncodeNormalized(nx, nz float64) uint64 {
	return Encode(GridCoord(nx), GridCoord(nz))
}

// Row major id of the grid cell containing the normalized position
func CellID(nx, nz float64) uint32 {
	return GridCoord(nz)*GridResolution + GridCoord(nx)
}

func spread(v uint32) uint64 {
	x := uint64(v)
	x = (x | x<<16) & 0x0000FFFF0000FFFF
	x = (x | x<<8) & 0x00FF00FF00FF00FF
	x = (x | x<<4) & 0x0F0F0F0F0F0F0F0F
	x = (x | x<<2) & 0x3333333333333333
	x = (x | x<<1) & 0x5555555555555555
	return x
}

func compact(code uint64) uint32 {
	x := code & 0x5555555555555555
	x = (x | x>>1) & 0x3333333333333333
	x = (x | x>>2) & 0x0F0F0F0F0F0F0F0F
	x = (x | x>>4) & 0x00FF00FF00FF00FF
	x = (x | x>>8) & 0x0000FFFF0000FFFF
	x = (x | x>>16) & 0x00000000FFFFFFFF
	return uint32(x)
}

// Splits a code into its high and low 32 bit halves
func Split(code uint64) (hi, lo uint32) {
	return uint32(code >> 32), uint32(code)
}

func Join(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

// Reinterprets the two halves of a code as float32 bit patterns, ready to be stored in a float
// texture. This is a bit cast, never a numeric conversion.
func SplitFloats(code uint64) (hi, lo float32) {
	h, l := Split(code)
	return math.Float32frombits(h), math.Float32frombits(l)
}

// Rebuilds a code from two float channels written by SplitFloats
func JoinFloats(hi, lo float32) uint64 {
	return Join(math.Float32bits(hi), math.Float32bits(lo))
}

// Absolute distance between two codes along the curve
func Distance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
