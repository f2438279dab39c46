package classification

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/go-gl/mathgl/mgl32"
)

func square(x0, z0, x1, z1 float32) []mgl32.Vec2 {
	return []mgl32.Vec2{{x0, z0}, {x1, z0}, {x1, z1}, {x0, z1}}
}

func circle(n int, radius float32) []mgl32.Vec2 {
	vertices := make([]mgl32.Vec2, n)
	for i := range vertices {
		a := 2 * math.Pi * float64(i) / float64(n)
		vertices[i] = mgl32.Vec2{radius * float32(math.Cos(a)), radius * float32(math.Sin(a))}
	}
	return vertices
}

func TestMaskWordRoundTrip(t *testing.T) {
	cases := []struct {
		class, object, polygon uint32
		mode                   Mode
	}{
		{0, 0, 0, ModeReclassify},
		{2, 17, 3, ModeHide},
		{511, 511, 511, ModeHide},
		{511, 0, 511, ModeReclassify},
	}
	for _, c := range cases {
		word, err := EncodeMaskWord(c.class, c.object, c.polygon, c.mode)
		if err != nil {
			t.Fatalf("expected no error for %+v, got %v", c, err)
		}
		if word>>28 != 0 {
			t.Errorf("expected reserved bits to be 0, got word %#x", word)
		}
		class, object, polygon, mode := DecodeMaskWord(word)
		if class != c.class || object != c.object || polygon != c.polygon || mode != c.mode {
			t.Errorf("expected %+v, got %d %d %d %s", c, class, object, polygon, mode)
		}
	}

	word, _ := EncodeMaskWord(5, 3, 2, ModeHide)
	expected := uint32(5 | 3<<9 | 2<<18 | 1<<27)
	if word != expected {
		t.Errorf("expected word %#x, got %#x", expected, word)
	}
}

func TestMaskWordOverflow(t *testing.T) {
	cases := []struct {
		class, object, polygon uint32
		mode                   Mode
	}{
		{512, 0, 0, ModeReclassify},
		{0, 512, 0, ModeReclassify},
		{0, 0, 512, ModeHide},
		{0, 0, 0, Mode(2)},
	}
	for _, c := range cases {
		if _, err := EncodeMaskWord(c.class, c.object, c.polygon, c.mode); !errors.Is(err, ErrMaskFieldOverflow) {
			t.Errorf("expected ErrMaskFieldOverflow for %+v, got %v", c, err)
		}
	}
}

func TestPointInPolygonSquareBoundaries(t *testing.T) {
	sq := square(0, 0, 2, 2)
	cases := []struct {
		name   string
		point  mgl32.Vec2
		inside bool
	}{
		{"centre", mgl32.Vec2{1, 1}, true},
		{"left edge", mgl32.Vec2{0, 1}, true},
		{"bottom edge", mgl32.Vec2{1, 0}, true},
		{"right edge", mgl32.Vec2{2, 1}, false},
		{"top edge", mgl32.Vec2{1, 2}, false},
		{"bottom left corner", mgl32.Vec2{0, 0}, true},
		{"bottom right corner", mgl32.Vec2{2, 0}, false},
		{"top left corner", mgl32.Vec2{0, 2}, false},
		{"top right corner", mgl32.Vec2{2, 2}, false},
		{"outside", mgl32.Vec2{3, 1}, false},
	}
	for _, c := range cases {
		if got := PointInPolygon(sq, c.point); got != c.inside {
			t.Errorf("%s: expected inside=%v, got %v", c.name, c.inside, got)
		}
	}
}

func TestPointInConcavePolygon(t *testing.T) {
	// U shape opening upwards
	u := []mgl32.Vec2{{0, 0}, {3, 0}, {3, 3}, {2, 3}, {2, 1}, {1, 1}, {1, 3}, {0, 3}}
	if !PointInPolygon(u, mgl32.Vec2{0.5, 2}) {
		t.Errorf("expected left arm to be inside")
	}
	if PointInPolygon(u, mgl32.Vec2{1.5, 2}) {
		t.Errorf("expected notch to be outside")
	}
}

func TestMaskSetRejectsInvalidPolygons(t *testing.T) {
	set := NewMaskSet()
	if _, err := set.Add(Polygon{Vertices: square(0, 0, 1, 1)}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cases := []struct {
		name    string
		polygon Polygon
		err     error
	}{
		{"two vertices", Polygon{Vertices: []mgl32.Vec2{{0, 0}, {1, 1}}}, ErrTooFewVertices},
		{"collinear", Polygon{Vertices: []mgl32.Vec2{{0, 0}, {1, 0}, {2, 0}}}, ErrDegeneratePolygon},
		{"nan vertex", Polygon{Vertices: []mgl32.Vec2{{0, 0}, {1, 0}, {float32(math.NaN()), 1}}}, ErrDegeneratePolygon},
		{"object overflow", Polygon{Vertices: square(0, 0, 1, 1), Mode: ModeHide, Masks: []Mask{{Class: 2, Object: 512}}}, ErrMaskFieldOverflow},
		{"reserved target", Polygon{Vertices: square(0, 0, 1, 1), Target: classes.HiddenClass}, ErrReservedClass},
	}
	for _, c := range cases {
		if _, err := set.Add(c.polygon); !errors.Is(err, c.err) {
			t.Errorf("%s: expected %v, got %v", c.name, c.err, err)
		}
	}
	if set.Len() != 1 || set.TotalVertices() != 4 || set.TotalMasks() != 0 {
		t.Errorf("expected the set to be unchanged, got %d polygons %d vertices %d masks", set.Len(), set.TotalVertices(), set.TotalMasks())
	}
	if set.Snapshot().Len() != 1 {
		t.Errorf("expected 1 polygon in the snapshot, got %d", set.Snapshot().Len())
	}
}

func TestMaskSetCapacities(t *testing.T) {
	set := NewMaskSet()
	for i := 0; i < MaximumPolygons; i++ {
		if _, err := set.Add(Polygon{Vertices: []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}}); err != nil {
			t.Fatalf("expected polygon %d to fit, got %v", i, err)
		}
	}
	if _, err := set.Add(Polygon{Vertices: []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}}); !errors.Is(err, ErrPolygonCapacity) {
		t.Errorf("expected ErrPolygonCapacity, got %v", err)
	}

	set = NewMaskSet()
	if _, err := set.Add(Polygon{Vertices: circle(MaximumPolygonPoints-2, 10)}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := set.Add(Polygon{Vertices: square(0, 0, 1, 1)}); !errors.Is(err, ErrVertexCapacity) {
		t.Errorf("expected ErrVertexCapacity, got %v", err)
	}

	set = NewMaskSet()
	masks := make([]Mask, MaximumMaskWords)
	for i := range masks {
		masks[i] = Mask{Class: uint32(i % 512), Object: uint32(i / 512)}
	}
	if _, err := set.Add(Polygon{Vertices: square(0, 0, 1, 1), Mode: ModeHide, Masks: masks}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := set.Add(Polygon{Vertices: square(0, 0, 1, 1), Mode: ModeHide, Masks: masks[:1]}); !errors.Is(err, ErrMaskCapacity) {
		t.Errorf("expected ErrMaskCapacity, got %v", err)
	}
}

func TestMaskSetKeepsInsertionOrder(t *testing.T) {
	set := NewMaskSet()
	ids := make([]PolygonID, 3)
	for i := range ids {
		id, err := set.Add(Polygon{Vertices: square(0, 0, 1, 1), Target: uint8(i + 1)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		ids[i] = id
	}
	if err := set.Remove(ids[0]); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// reuses the freed slot but is still the newest polygon
	id, _ := set.Add(Polygon{Vertices: square(0, 0, 1, 1), Target: 4})
	if id != ids[0] {
		t.Errorf("expected slot %d to be reused, got %d", ids[0], id)
	}

	snap := set.Snapshot()
	var targets []uint8
	for _, p := range snap.Polygons {
		targets = append(targets, p.Target)
	}
	if len(targets) != 3 || targets[0] != 2 || targets[1] != 3 || targets[2] != 4 {
		t.Errorf("expected targets [2 3 4], got %v", targets)
	}

	if !set.Undo() {
		t.Fatalf("expected undo to remove a polygon")
	}
	if _, ok := set.Get(id); ok {
		t.Errorf("expected undo to remove the newest polygon")
	}
	if err := set.Remove(id); !errors.Is(err, ErrUnknownPolygon) {
		t.Errorf("expected ErrUnknownPolygon, got %v", err)
	}

	set.Clear()
	if set.Len() != 0 || set.TotalVertices() != 0 || set.Undo() {
		t.Errorf("expected an empty set after clear")
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	set := NewMaskSet()
	vertices := square(0, 0, 1, 1)
	set.Add(Polygon{Vertices: vertices})
	vertices[0] = mgl32.Vec2{5, 5}

	snap := set.Snapshot()
	set.Clear()
	if snap.Len() != 1 || snap.Polygons[0].Vertices[0] != (mgl32.Vec2{0, 0}) {
		t.Errorf("expected the snapshot to keep the inserted polygon, got %+v", snap.Polygons)
	}
}

func TestResample(t *testing.T) {
	out := Resample(square(0, 0, 2, 2), 0.5)
	if len(out) != 16 {
		t.Errorf("expected 16 vertices, got %d", len(out))
	}
	for i, v := range out {
		next := out[(i+1)%len(out)]
		if d := next.Sub(v).Len(); d > 0.5+1e-5 {
			t.Errorf("expected spacing at most 0.5, got %f between %v and %v", d, v, next)
		}
	}
	if len(Resample(square(0, 0, 2, 2), 0)) != 4 {
		t.Errorf("expected resampling to be disabled for a zero spacing")
	}
}

func TestUniformLayout(t *testing.T) {
	if OffsetPolygonInfo != 32816 || OffsetIgnoreMasks != 41008 || UniformSize != 49200 {
		t.Errorf("expected offsets 32816, 41008 and size 49200, got %d, %d and %d", OffsetPolygonInfo, OffsetIgnoreMasks, UniformSize)
	}

	set := NewMaskSet()
	set.Add(Polygon{Vertices: square(0, 0, 1, 1), Target: 9, Masks: []Mask{{Class: 2}}})
	set.Add(Polygon{Vertices: []mgl32.Vec2{{0, 0}, {4, 0}, {0, 4}}, Mode: ModeHide, Masks: []Mask{{Class: 3, Object: 7}, {Class: 5, Object: 1}}})
	state := RenderState{Mode: RenderRGB, HoverObjectID: 42, SpatialOptimisation: true, SelectionPoint: mgl32.Vec3{1, 2, 3}, IsSelecting: true}

	buf, err := set.Snapshot().EncodeUniform(state)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	le := binary.LittleEndian
	u32 := func(offset int) uint32 { return le.Uint32(buf[offset:]) }
	f32 := func(offset int) float32 { return math.Float32frombits(le.Uint32(buf[offset:])) }

	if u32(0) != 2 || u32(4) != 7 || u32(8) != uint32(RenderRGB) || u32(12) != 1 {
		t.Errorf("expected header 2 7 2 1, got %d %d %d %d", u32(0), u32(4), u32(8), u32(12))
	}
	if f32(16) != 1 || f32(20) != 2 || f32(24) != 3 || u32(32) != 1 || u32(36) != 42 || u32(40) != 3 {
		t.Errorf("unexpected selection, hover or mask count in header")
	}
	// second polygon, third vertex stored as (x, z, 0, 0)
	at := OffsetPointData + 6*16
	if f32(at) != 0 || f32(at+4) != 4 || f32(at+8) != 0 || f32(at+12) != 0 {
		t.Errorf("expected vertex (0,4,0,0), got (%f,%f,%f,%f)", f32(at), f32(at+4), f32(at+8), f32(at+12))
	}
	info := OffsetPolygonInfo + 16
	if f32(info) != 4 || f32(info+4) != 3 || f32(info+8) != 0 || f32(info+12) != 1 {
		t.Errorf("expected polygon info (4,3,0,1), got (%f,%f,%f,%f)", f32(info), f32(info+4), f32(info+8), f32(info+12))
	}
	word, _ := EncodeMaskWord(5, 1, 1, ModeHide)
	if u32(OffsetIgnoreMasks+8) != word {
		t.Errorf("expected third mask word %#x, got %#x", word, u32(OffsetIgnoreMasks+8))
	}

	snap, decodedState, err := DecodeUniform(buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decodedState != state {
		t.Errorf("expected state %+v, got %+v", state, decodedState)
	}
	if snap.Len() != 2 || len(snap.Polygons[1].Masks) != 2 || snap.Polygons[1].Masks[0] != (Mask{Class: 3, Object: 7}) {
		t.Errorf("expected the decoded snapshot to match, got %+v", snap.Polygons)
	}
	if snap.Polygons[0].Target != 9 || len(snap.Polygons[0].Vertices) != 4 {
		t.Errorf("expected first polygon target 9 with 4 vertices, got %+v", snap.Polygons[0])
	}
}

func TestDecodeUniformRejectsCorruptBuffers(t *testing.T) {
	if _, _, err := DecodeUniform(make([]byte, 10)); err == nil {
		t.Errorf("expected an error for a short buffer")
	}
	buf, _ := (&Snapshot{}).EncodeUniform(DefaultRenderState())
	binary.LittleEndian.PutUint32(buf[offsetMaskCount:], 1)
	if _, _, err := DecodeUniform(buf); err == nil {
		t.Errorf("expected an error for a mask referencing a missing polygon")
	}
}

func TestTerrainBoundsUniform(t *testing.T) {
	tb := TerrainBounds{Min: mgl32.Vec3{1, 2, 3}, Max: mgl32.Vec3{4, 5, 6}}
	buf := tb.EncodeUniform()
	if len(buf) != TerrainBoundsUniformSize {
		t.Fatalf("expected %d bytes, got %d", TerrainBoundsUniformSize, len(buf))
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])) != 4 || math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])) != 3 {
		t.Errorf("expected max at offset 16 and min z at offset 8")
	}
}

func TestParseRenderMode(t *testing.T) {
	for i, name := range RenderModeNames() {
		mode, err := ParseRenderMode(name)
		if err != nil || mode != RenderMode(i) {
			t.Errorf("expected %s to parse as %d, got %d (%v)", name, i, mode, err)
		}
	}
	if mode, _ := ParseRenderMode("Class_Selection"); mode != RenderClassSelection {
		t.Errorf("expected class-selection, got %s", mode)
	}
	if _, err := ParseRenderMode("wireframe"); err == nil {
		t.Errorf("expected an error for an unknown mode")
	}
}
