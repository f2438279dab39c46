package atlas

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/ecopia-map/pointcloud_atlas/internal/spatial"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
)

// World space bounds as stored in the descriptor. Written at full precision since the loader
// denormalizes every position against them.
type BoundsDescriptor struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MinZ float64 `json:"min_z"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	MaxZ float64 `json:"max_z"`
}

func NewBoundsDescriptor(b geometry.Bounds) BoundsDescriptor {
	if b.IsEmpty() {
		return BoundsDescriptor{}
	}
	return BoundsDescriptor{
		MinX: b.MinX, MinY: b.MinY, MinZ: b.MinZ,
		MaxX: b.MaxX, MaxY: b.MaxY, MaxZ: b.MaxZ,
	}
}

func (d BoundsDescriptor) Bounds() geometry.Bounds {
	return geometry.Bounds{
		MinX: d.MinX, MinY: d.MinY, MinZ: d.MinZ,
		MaxX: d.MaxX, MaxY: d.MaxY, MaxZ: d.MaxZ,
	}
}

type SpatialIndexDescriptor struct {
	GridResolution int    `json:"grid_resolution"`
	Encoding       string `json:"encoding"`
}

type HeightmapDescriptor struct {
	RoadClasses      []uint8 `json:"road_classes"`
	BlendRadius      int     `json:"blend_radius"`
	RoadSamples      int     `json:"road_samples"`
	DefaultElevation float64 `json:"default_elevation"`
}

type TextureDescriptors struct {
	Position     string `json:"position"`
	ColourClass  string `json:"colour_class"`
	SpatialIndex string `json:"spatial_index"`
	Heightmap    string `json:"heightmap"`
}

var textureDescriptions = TextureDescriptors{
	Position:     "RGBA32F normalized engine XYZ, alpha 1 + object id, 0 when unoccupied",
	ColourClass:  "RGBA32F colour in [0,1], alpha classification / 255",
	SpatialIndex: "RGBA32F Morton high bits, Morton low bits, cell id bits, alpha occupancy",
	Heightmap:    "R32F normalized road elevation, box smoothed",
}

// Sidecar descriptor of a built atlas, the only source of bounds at load time
type Metadata struct {
	SourceFile         string                      `json:"source_file"`
	TextureSize        int                         `json:"texture_size"`
	TotalPoints        int                         `json:"total_points"`
	AcceptedPoints     int                         `json:"accepted_points"`
	DroppedPoints      int                         `json:"dropped_points"`
	SkippedRecords     int                         `json:"skipped_records"`
	ClampedObjectIDs   int                         `json:"clamped_object_ids"`
	UtilisationPercent float64                     `json:"utilisation_percent"`
	HasColour          bool                        `json:"has_colour"`
	ColourSamples      int                         `json:"colour_samples"`
	ColourPoints       int                         `json:"colour_points"`
	Bounds             BoundsDescriptor            `json:"bounds"`
	EmptyBounds        bool                        `json:"empty_bounds"`
	DegenerateAxes     []string                    `json:"degenerate_axes"`
	ClassCounts        map[string]int              `json:"class_counts"`
	ClassShare         map[string]float64          `json:"class_share_percent"`
	Classes            *classes.ClassificationInfo `json:"classes"`
	Ordering           string                      `json:"ordering"`
	SpatialIndex       SpatialIndexDescriptor      `json:"spatial_index"`
	Heightmap          HeightmapDescriptor         `json:"heightmap"`
	Textures           TextureDescriptors          `json:"textures"`
	CreatedAt          time.Time                   `json:"created_at"`
}

// Collects the statistics produced while packing
type packStats struct {
	sourceFile  string
	size        int
	total       int
	accepted    int
	skipped     int
	clamped     int
	colour      ColourStats
	bounds      geometry.Bounds
	classCounts [256]int
	classes     *classes.ClassificationInfo
	ordering    Ordering
	heightmap   HeightmapInfo
}

func newMetadata(s *packStats) *Metadata {
	m := &Metadata{
		SourceFile:       s.sourceFile,
		TextureSize:      s.size,
		TotalPoints:      s.total,
		AcceptedPoints:   s.accepted,
		DroppedPoints:    s.total - s.accepted,
		SkippedRecords:   s.skipped,
		ClampedObjectIDs: s.clamped,
		HasColour:        s.colour.HasColour,
		ColourSamples:    s.colour.Samples,
		ColourPoints:     s.colour.ColourPoints,
		Bounds:           NewBoundsDescriptor(s.bounds),
		EmptyBounds:      s.bounds.IsEmpty(),
		DegenerateAxes:   []string{},
		ClassCounts:      map[string]int{},
		ClassShare:       map[string]float64{},
		Classes:          s.classes,
		Ordering:         s.ordering.String(),
		SpatialIndex: SpatialIndexDescriptor{
			GridResolution: spatial.GridResolution,
			Encoding:       spatial.Encoding,
		},
		Heightmap: HeightmapDescriptor{
			RoadClasses:      s.heightmap.RoadClasses,
			BlendRadius:      s.heightmap.BlendRadius,
			RoadSamples:      s.heightmap.RoadSamples,
			DefaultElevation: roundTo(s.heightmap.DefaultElevation, 6),
		},
		Textures:  textureDescriptions,
		CreatedAt: time.Now().UTC(),
	}

	capacity := s.size * s.size
	if capacity > 0 {
		m.UtilisationPercent = roundTo(100*float64(s.accepted)/float64(capacity), 2)
	}

	if !m.EmptyBounds {
		for _, axis := range s.bounds.DegenerateAxes() {
			m.DegenerateAxes = append(m.DegenerateAxes, axis.String())
		}
	}

	counts := make([]float64, 0, 256)
	for id, n := range s.classCounts {
		if n > 0 {
			m.ClassCounts[strconv.Itoa(id)] = n
			counts = append(counts, float64(n))
		}
	}
	if total := floats.Sum(counts); total > 0 {
		for id, n := range s.classCounts {
			if n > 0 {
				m.ClassShare[strconv.Itoa(id)] = roundTo(100*float64(n)/total, 2)
			}
		}
	}

	if m.Classes == nil {
		m.Classes = classes.NewClassificationInfo()
	}
	return m
}

// Class ids with at least one accepted point, ascending
func (m *Metadata) ClassIDs() []int {
	ids := make([]int, 0, len(m.ClassCounts))
	for k := range m.ClassCounts {
		if id, err := strconv.Atoi(k); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (m *Metadata) WriteTo(filePath string) error {
	content, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, content, 0666)
}

func ReadMetadata(filePath string) (*Metadata, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	m := &Metadata{}
	if err := json.Unmarshal(content, m); err != nil {
		return nil, err
	}
	if m.Classes == nil {
		m.Classes = classes.NewClassificationInfo()
	}
	return m, nil
}

func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
