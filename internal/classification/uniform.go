package classification

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ecopia-map/pointcloud_atlas/internal/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Byte layout of the polygon uniform buffer, little endian
const (
	offsetPolygonCount       = 0
	offsetTotalPoints        = 4
	offsetRenderMode         = 8
	offsetSpatialOpt         = 12
	offsetSelectionPoint     = 16
	offsetIsSelecting        = 32
	offsetHoverObjectID      = 36
	offsetMaskCount          = 40
	UniformHeaderSize        = 48
	OffsetPointData          = UniformHeaderSize
	OffsetPolygonInfo        = OffsetPointData + MaximumPolygonPoints*16
	OffsetIgnoreMasks        = OffsetPolygonInfo + MaximumPolygons*16
	UniformSize              = OffsetIgnoreMasks + MaximumMaskWords*4
	TerrainBoundsUniformSize = 32
)

func putFloat(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func getFloat(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Serialises the snapshot and the render state into the uniform buffer read by the classification kernel.
// Vertices are packed back to back, every polygon recording its offset and count, mask words follow the
// insertion order of the polygons.
func (s *Snapshot) EncodeUniform(state RenderState) ([]byte, error) {
	buf := make([]byte, UniformSize)
	le := binary.LittleEndian

	polygons := 0
	if s != nil {
		polygons = len(s.Polygons)
	}
	if polygons > MaximumPolygons {
		return nil, fmt.Errorf("%w: %d polygons", ErrPolygonCapacity, polygons)
	}

	pointOffset := 0
	maskOffset := 0
	for i := 0; i < polygons; i++ {
		p := &s.Polygons[i]
		if pointOffset+len(p.Vertices) > MaximumPolygonPoints {
			return nil, fmt.Errorf("%w: polygon %d ends at vertex %d", ErrVertexCapacity, i, pointOffset+len(p.Vertices))
		}
		if maskOffset+len(p.Masks) > MaximumMaskWords {
			return nil, fmt.Errorf("%w: polygon %d ends at mask %d", ErrMaskCapacity, i, maskOffset+len(p.Masks))
		}

		for j, v := range p.Vertices {
			at := OffsetPointData + (pointOffset+j)*16
			putFloat(buf, at, v[0])
			putFloat(buf, at+4, v[1])
		}

		info := OffsetPolygonInfo + i*16
		putFloat(buf, info, float32(pointOffset))
		putFloat(buf, info+4, float32(len(p.Vertices)))
		putFloat(buf, info+8, float32(p.Target))
		putFloat(buf, info+12, float32(p.Mode))

		for j, m := range p.Masks {
			word, err := EncodeMaskWord(m.Class, m.Object, uint32(i), p.Mode)
			if err != nil {
				return nil, err
			}
			le.PutUint32(buf[OffsetIgnoreMasks+(maskOffset+j)*4:], word)
		}

		pointOffset += len(p.Vertices)
		maskOffset += len(p.Masks)
	}

	le.PutUint32(buf[offsetPolygonCount:], uint32(polygons))
	le.PutUint32(buf[offsetTotalPoints:], uint32(pointOffset))
	le.PutUint32(buf[offsetRenderMode:], uint32(state.Mode))
	le.PutUint32(buf[offsetSpatialOpt:], boolWord(state.SpatialOptimisation))
	putFloat(buf, offsetSelectionPoint, state.SelectionPoint[0])
	putFloat(buf, offsetSelectionPoint+4, state.SelectionPoint[1])
	putFloat(buf, offsetSelectionPoint+8, state.SelectionPoint[2])
	putFloat(buf, offsetSelectionPoint+12, float32(boolWord(state.IsSelecting)))
	le.PutUint32(buf[offsetIsSelecting:], boolWord(state.IsSelecting))
	le.PutUint32(buf[offsetHoverObjectID:], state.HoverObjectID)
	le.PutUint32(buf[offsetMaskCount:], uint32(maskOffset))
	return buf, nil
}

// Rebuilds the snapshot and render state stored in a uniform buffer, checking every count and offset
func DecodeUniform(buf []byte) (*Snapshot, RenderState, error) {
	var state RenderState
	if len(buf) != UniformSize {
		return nil, state, fmt.Errorf("uniform buffer has %d bytes, expected %d", len(buf), UniformSize)
	}
	le := binary.LittleEndian

	polygons := int(le.Uint32(buf[offsetPolygonCount:]))
	totalPoints := int(le.Uint32(buf[offsetTotalPoints:]))
	maskCount := int(le.Uint32(buf[offsetMaskCount:]))
	if polygons > MaximumPolygons {
		return nil, state, fmt.Errorf("%w: %d polygons", ErrPolygonCapacity, polygons)
	}
	if totalPoints > MaximumPolygonPoints {
		return nil, state, fmt.Errorf("%w: %d vertices", ErrVertexCapacity, totalPoints)
	}
	if maskCount > MaximumMaskWords {
		return nil, state, fmt.Errorf("%w: %d masks", ErrMaskCapacity, maskCount)
	}

	state.Mode = RenderMode(le.Uint32(buf[offsetRenderMode:]))
	if !state.Mode.IsValid() {
		return nil, state, fmt.Errorf("uniform holds unknown render mode %d", state.Mode)
	}
	state.SpatialOptimisation = le.Uint32(buf[offsetSpatialOpt:]) != 0
	state.SelectionPoint = mgl32.Vec3{
		getFloat(buf, offsetSelectionPoint),
		getFloat(buf, offsetSelectionPoint+4),
		getFloat(buf, offsetSelectionPoint+8),
	}
	state.IsSelecting = le.Uint32(buf[offsetIsSelecting:]) != 0
	state.HoverObjectID = le.Uint32(buf[offsetHoverObjectID:])

	snap := &Snapshot{Polygons: make([]Polygon, polygons)}
	for i := range snap.Polygons {
		info := OffsetPolygonInfo + i*16
		offset := int(getFloat(buf, info))
		count := int(getFloat(buf, info+4))
		if offset < 0 || count < 0 || offset+count > totalPoints {
			return nil, state, fmt.Errorf("polygon %d references vertices [%d, %d) outside of %d", i, offset, offset+count, totalPoints)
		}
		p := &snap.Polygons[i]
		p.Target = uint8(getFloat(buf, info+8))
		p.Mode = Mode(getFloat(buf, info+12))
		p.Vertices = make([]mgl32.Vec2, count)
		for j := range p.Vertices {
			at := OffsetPointData + (offset+j)*16
			p.Vertices[j] = mgl32.Vec2{getFloat(buf, at), getFloat(buf, at+4)}
		}
	}

	for j := 0; j < maskCount; j++ {
		class, object, polygon, mode := DecodeMaskWord(le.Uint32(buf[OffsetIgnoreMasks+j*4:]))
		if int(polygon) >= polygons {
			return nil, state, fmt.Errorf("mask %d references polygon %d of %d", j, polygon, polygons)
		}
		p := &snap.Polygons[polygon]
		if mode != p.Mode {
			return nil, state, fmt.Errorf("mask %d has mode %s but polygon %d is %s", j, mode, polygon, p.Mode)
		}
		p.Masks = append(p.Masks, Mask{Class: class, Object: object})
	}
	return snap, state, nil
}

// Terrain bounds as the kernel reads them, single precision
type TerrainBounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewTerrainBounds(b geometry.Bounds) TerrainBounds {
	min, max := b.Min(), b.Max()
	return TerrainBounds{
		Min: mgl32.Vec3{float32(min.X), float32(min.Y), float32(min.Z)},
		Max: mgl32.Vec3{float32(max.X), float32(max.Y), float32(max.Z)},
	}
}

// World position of a normalized position
func (t TerrainBounds) Denormalize(n mgl32.Vec3) mgl32.Vec3 {
	extent := t.Max.Sub(t.Min)
	return mgl32.Vec3{
		t.Min[0] + n[0]*extent[0],
		t.Min[1] + n[1]*extent[1],
		t.Min[2] + n[2]*extent[2],
	}
}

// Normalized (x,z) of a world (x,z) position, 0 along a degenerate axis
func (t TerrainBounds) NormalizeXZ(p mgl32.Vec2) (float64, float64) {
	norm := func(v, min, max float32) float64 {
		if !(max > min) {
			return 0
		}
		return float64((v - min) / (max - min))
	}
	return norm(p[0], t.Min[0], t.Max[0]), norm(p[1], t.Min[2], t.Max[2])
}

// min[3], pad, max[3], pad
func (t TerrainBounds) EncodeUniform() []byte {
	buf := make([]byte, TerrainBoundsUniformSize)
	for i := 0; i < 3; i++ {
		putFloat(buf, i*4, t.Min[i])
		putFloat(buf, 16+i*4, t.Max[i])
	}
	return buf
}
