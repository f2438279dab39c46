package classification

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	MaximumPolygons      = 512
	MaximumPolygonPoints = 2048

	// 512 uniform rows of 4 words
	MaximumMaskWords = 2048
)

// Identifies a polygon slot of a mask set
type PolygonID int

type slot struct {
	polygon  Polygon
	sequence uint64
}

// Arena of polygons with a fixed capacity. Slots in use are tracked by a bitmap and insertion order by
// a sequence number, so removing a polygon never moves the others. Capacity checks happen on insertion
// and a rejected polygon leaves the set unchanged. Not safe for concurrent use.
type MaskSet struct {
	slots         [MaximumPolygons]slot
	inUse         [MaximumPolygons / 64]uint64
	count         int
	totalVertices int
	totalMasks    int
	nextSequence  uint64

	// Spacing used to resample polygon edges on insertion, disabled when not positive
	ResampleSpacing float32
}

func NewMaskSet() *MaskSet {
	return &MaskSet{}
}

func (s *MaskSet) Len() int {
	return s.count
}

func (s *MaskSet) TotalVertices() int {
	return s.totalVertices
}

func (s *MaskSet) TotalMasks() int {
	return s.totalMasks
}

// Validates and inserts a polygon, returning its id
func (s *MaskSet) Add(p Polygon) (PolygonID, error) {
	if err := validateGeometry(p.Vertices); err != nil {
		return -1, err
	}
	vertices := Resample(p.Vertices, s.ResampleSpacing)

	if s.count >= MaximumPolygons {
		return -1, fmt.Errorf("%w: %d polygons already defined", ErrPolygonCapacity, s.count)
	}
	if s.totalVertices+len(vertices) > MaximumPolygonPoints {
		return -1, fmt.Errorf("%w: %d vertices in use, %d more requested, limit %d", ErrVertexCapacity, s.totalVertices, len(vertices), MaximumPolygonPoints)
	}
	if s.totalMasks+len(p.Masks) > MaximumMaskWords {
		return -1, fmt.Errorf("%w: %d masks in use, %d more requested, limit %d", ErrMaskCapacity, s.totalMasks, len(p.Masks), MaximumMaskWords)
	}
	if p.Mode == ModeReclassify && p.Target == classes.HiddenClass {
		return -1, fmt.Errorf("%w: %d", ErrReservedClass, p.Target)
	}
	for _, m := range p.Masks {
		// the polygon index is at most MaximumPolygons-1 so only the other fields can overflow
		if _, err := EncodeMaskWord(m.Class, m.Object, uint32(s.count), p.Mode); err != nil {
			return -1, err
		}
	}
	if p.Mode > ModeHide {
		return -1, fmt.Errorf("%w: mode %d", ErrMaskFieldOverflow, p.Mode)
	}

	id := s.freeSlot()
	stored := p.clone()
	stored.Vertices = append([]mgl32.Vec2(nil), vertices...)
	s.slots[id] = slot{polygon: stored, sequence: s.nextSequence}
	s.nextSequence++
	s.inUse[id/64] |= 1 << (uint(id) % 64)
	s.count++
	s.totalVertices += len(vertices)
	s.totalMasks += len(p.Masks)
	return PolygonID(id), nil
}

func (s *MaskSet) freeSlot() int {
	for w, word := range s.inUse {
		if word != ^uint64(0) {
			return w*64 + bits.TrailingZeros64(^word)
		}
	}
	return -1
}

func (s *MaskSet) isUsed(id int) bool {
	return id >= 0 && id < MaximumPolygons && s.inUse[id/64]&(1<<(uint(id)%64)) != 0
}

func (s *MaskSet) Get(id PolygonID) (Polygon, bool) {
	if !s.isUsed(int(id)) {
		return Polygon{}, false
	}
	return s.slots[id].polygon.clone(), true
}

func (s *MaskSet) Remove(id PolygonID) error {
	if !s.isUsed(int(id)) {
		return fmt.Errorf("%w: %d", ErrUnknownPolygon, id)
	}
	p := &s.slots[id].polygon
	s.totalVertices -= len(p.Vertices)
	s.totalMasks -= len(p.Masks)
	s.slots[id] = slot{}
	s.inUse[id/64] &^= 1 << (uint(id) % 64)
	s.count--
	return nil
}

// Removes the most recently inserted polygon. Returns false when the set is empty.
func (s *MaskSet) Undo() bool {
	last := -1
	for _, id := range s.orderedSlots() {
		last = id
	}
	if last < 0 {
		return false
	}
	_ = s.Remove(PolygonID(last))
	return true
}

func (s *MaskSet) Clear() {
	spacing := s.ResampleSpacing
	*s = MaskSet{ResampleSpacing: spacing}
}

// Slot ids in insertion order
func (s *MaskSet) orderedSlots() []int {
	ids := make([]int, 0, s.count)
	for w, word := range s.inUse {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			ids = append(ids, w*64+b)
			word &^= 1 << uint(b)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.slots[ids[i]].sequence < s.slots[ids[j]].sequence
	})
	return ids
}

// Immutable, insertion ordered copy of a mask set handed to a dispatch
type Snapshot struct {
	Polygons []Polygon
}

func (s *MaskSet) Snapshot() *Snapshot {
	snap := &Snapshot{Polygons: make([]Polygon, 0, s.count)}
	for _, id := range s.orderedSlots() {
		snap.Polygons = append(snap.Polygons, s.slots[id].polygon.clone())
	}
	return snap
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Polygons)
}
