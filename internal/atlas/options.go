package atlas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
)

type Ordering string

const (
	// Cells are filled in arrival order
	OrderingInput Ordering = "input"

	// Points are stable sorted by the Morton code of their normalized (x,z) position, so that cells close in
	// the atlas are close in space
	OrderingMorton Ordering = "morton"

	// Points are stable sorted by object id and then by Morton code, so that every object occupies a
	// contiguous run of cells
	OrderingObject Ordering = "object"
)

func (o Ordering) String() string {
	switch o {
	case OrderingInput, OrderingMorton, OrderingObject:
		return string(o)
	}
	return ""
}

func ParseOrdering(value string) Ordering {
	normalizedValue := strings.Trim(strings.ToLower(value), " ")
	switch normalizedValue {
	case "", "input":
		return OrderingInput
	case "morton":
		return OrderingMorton
	case "object":
		return OrderingObject
	}
	return ""
}

var ErrInvalidTextureSize = errors.New("invalid texture size")

// Texture sizes accepted for built atlases
var AllowedTextureSizes = []int{1024, 2048, 4096, 8192}

func ValidateTextureSize(size int) error {
	for _, s := range AllowedTextureSizes {
		if s == size {
			return nil
		}
	}
	return fmt.Errorf("%w: %d, must be one of %v", ErrInvalidTextureSize, size, AllowedTextureSizes)
}

const (
	DefaultTextureSize          = 2048
	DefaultColourSampleSize     = 100
	DefaultHeightmapBlendRadius = 16

	// Number of points handled by a single work unit of the bounds pass
	BoundsChunkSize = 25000
)

// Contains the options needed to build atlases
type Options struct {
	Input                string   // Input point file/folder
	Output               string   // Output folder for textures and metadata
	TextureSize          int      // Side of the square atlas
	Srid                 int      // EPSG code of the input points
	TargetSrid           int      // EPSG code points are reprojected to before packing, 0 to keep the source system
	ZOffset              float64  // Vertical offset applied to points before the axis rotation
	FolderProcessing     bool     // Enables the processing of all point files in folder
	Recursive            bool     // Recursive lookup of point files in subfolders
	Ordering             Ordering // Cell assignment policy
	ColourSampleSize     int      // Number of points sampled to detect colour
	RoadClasses          []uint8  // Classes feeding the heightmap
	HeightmapBlendRadius int      // Smoothing radius of the heightmap, in cells
	Workers              int      // Number of consumers of the worker pool, 0 for one per CPU
	Silent               bool
}

func DefaultOptions() *Options {
	return &Options{
		TextureSize:          DefaultTextureSize,
		Srid:                 4326,
		Ordering:             OrderingInput,
		ColourSampleSize:     DefaultColourSampleSize,
		RoadClasses:          append([]uint8(nil), classes.DefaultRoadClasses...),
		HeightmapBlendRadius: DefaultHeightmapBlendRadius,
	}
}

// Checks the options before a build starts
func (opt *Options) Validate() error {
	if err := ValidateTextureSize(opt.TextureSize); err != nil {
		return err
	}
	if opt.Ordering.String() == "" {
		return fmt.Errorf("unknown ordering %q, must be one of input, morton, object", string(opt.Ordering))
	}
	if opt.ColourSampleSize < 1 {
		return fmt.Errorf("colour sample size must be positive, got %d", opt.ColourSampleSize)
	}
	if opt.HeightmapBlendRadius < 0 {
		return fmt.Errorf("heightmap blend radius must not be negative, got %d", opt.HeightmapBlendRadius)
	}
	return nil
}

func (opt *Options) Copy() *Options {
	newOpt := *opt
	newOpt.RoadClasses = append([]uint8(nil), opt.RoadClasses...)
	return &newOpt
}
