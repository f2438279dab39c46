// Package atlas packs point clouds into fixed size float textures and reads them back.
package atlas

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/ecopia-map/pointcloud_atlas/internal/spatial"
)

// Largest object id stored exactly: the position alpha holds 1 + id and float32 represents integers
// exactly only up to 2^24
const MaxObjectID = 1<<24 - 2

var ErrChannelMismatch = errors.New("atlas channels are inconsistent")

// Contains the four co-registered textures of an atlas. Cell i maps to texel (i mod Size, i div Size) in
// every texture.
type Atlas struct {
	Size int

	// RGBA: normalized engine XYZ, alpha 1 + object id for occupied cells and 0 otherwise
	Position []float32

	// RGBA: colour in [0,1] (white when the point had none), alpha class / 255
	ColourClass []float32

	// RGBA: Morton code high and low halves and cell id as raw bits, alpha 1 for occupied cells
	SpatialIndex []float32

	// R: normalized road elevation
	Heightmap []float32
}

// Allocates an atlas of one of the allowed sizes
func NewAtlas(size int) (*Atlas, error) {
	if err := ValidateTextureSize(size); err != nil {
		return nil, err
	}
	return NewAtlasUnchecked(size), nil
}

// Allocates an atlas of any positive size
func NewAtlasUnchecked(size int) *Atlas {
	if size < 1 {
		size = 1
	}
	cells := size * size
	return &Atlas{
		Size:         size,
		Position:     make([]float32, cells*4),
		ColourClass:  make([]float32, cells*4),
		SpatialIndex: make([]float32, cells*4),
		Heightmap:    make([]float32, cells),
	}
}

func (a *Atlas) Capacity() int {
	return a.Size * a.Size
}

// Returns the texel coordinates of a cell
func (a *Atlas) Cell(i int) (x, y int) {
	return i % a.Size, i / a.Size
}

func (a *Atlas) IsOccupied(i int) bool {
	return a.Position[i*4+3] >= 1
}

func (a *Atlas) ObjectID(i int) uint32 {
	alpha := a.Position[i*4+3]
	if alpha < 1 {
		return 0
	}
	return uint32(alpha) - 1
}

func (a *Atlas) Classification(i int) uint8 {
	return uint8(math32.Round(a.ColourClass[i*4+3] * 255))
}

func (a *Atlas) NormalizedPosition(i int) geometry.Coordinate {
	return geometry.Coordinate{
		X: float64(a.Position[i*4]),
		Y: float64(a.Position[i*4+1]),
		Z: float64(a.Position[i*4+2]),
	}
}

func (a *Atlas) MortonCode(i int) uint64 {
	return spatial.JoinFloats(a.SpatialIndex[i*4], a.SpatialIndex[i*4+1])
}

func (a *Atlas) SpatialCellID(i int) uint32 {
	return math.Float32bits(a.SpatialIndex[i*4+2])
}

// Counts the occupied cells
func (a *Atlas) Occupied() int {
	n := 0
	for i := 0; i < a.Capacity(); i++ {
		if a.IsOccupied(i) {
			n++
		}
	}
	return n
}

// Verifies that every cell was written consistently across the position, colour and spatial index
// textures: occupancy flags agree, the stored Morton code and cell id match the stored position and
// unoccupied cells are fully zero.
func (a *Atlas) CheckConsistency() error {
	cells := a.Capacity()
	if len(a.Position) != cells*4 || len(a.ColourClass) != cells*4 || len(a.SpatialIndex) != cells*4 || len(a.Heightmap) != cells {
		return fmt.Errorf("%w: texture lengths differ for size %d", ErrChannelMismatch, a.Size)
	}

	for i := 0; i < cells; i++ {
		occupied := a.IsOccupied(i)
		indexed := a.SpatialIndex[i*4+3] == 1
		if occupied != indexed {
			return fmt.Errorf("%w: cell %d position occupancy %v, spatial index occupancy %v", ErrChannelMismatch, i, occupied, indexed)
		}

		if !occupied {
			for c := 0; c < 4; c++ {
				if a.Position[i*4+c] != 0 || a.ColourClass[i*4+c] != 0 || a.SpatialIndex[i*4+c] != 0 {
					return fmt.Errorf("%w: unoccupied cell %d carries data", ErrChannelMismatch, i)
				}
			}
			continue
		}

		n := a.NormalizedPosition(i)
		if code := spatial.EncodeNormalized(n.X, n.Z); code != a.MortonCode(i) {
			return fmt.Errorf("%w: cell %d Morton code %d does not match position (expected %d)", ErrChannelMismatch, i, a.MortonCode(i), code)
		}
		if id := spatial.CellID(n.X, n.Z); id != a.SpatialCellID(i) {
			return fmt.Errorf("%w: cell %d spatial cell id %d does not match position (expected %d)", ErrChannelMismatch, i, a.SpatialCellID(i), id)
		}
		alpha := a.ColourClass[i*4+3]
		if alpha < 0 || alpha > 1 {
			return fmt.Errorf("%w: cell %d class alpha %f out of range", ErrChannelMismatch, i, alpha)
		}
	}
	return nil
}
