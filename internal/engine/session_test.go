package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters"
	"github.com/ecopia-map/pointcloud_atlas/internal/data"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/go-gl/mathgl/mgl32"
)

type recordedNotification struct {
	method string
	params interface{}
}

type recorder struct {
	mu    sync.Mutex
	calls []recordedNotification
}

func (r *recorder) Notify(method string, params interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedNotification{method, params})
}

func (r *recorder) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.calls {
		out = append(out, c.method)
	}
	return out
}

// 8x8 grid of points, class 2 on the left half and 6 on the right half, object id 1 + x
func newTestSession(t *testing.T, notifier Notifier) *Session {
	t.Helper()
	var points []*data.Point
	for z := 0; z < 8; z++ {
		for x := 0; x < 8; x++ {
			class := uint8(2)
			if x >= 4 {
				class = 6
			}
			points = append(points, data.NewPointNoColour(float64(x), -float64(z), 0, class, uint32(x+1)))
		}
	}
	opts := atlas.DefaultOptions()
	opts.TextureSize = 8
	pool := io.NewPool(2)
	result, err := atlas.NewPacker(opts, converters.NewEngineFrameConverter(nil, nil, 0, 0), pool).Pack("grid.xyz", points, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	loaded := &atlas.LoadedAtlas{Atlas: result.Atlas, Metadata: result.Metadata}
	stage := classification.NewStageFromLoaded(loaded, classification.AABBFilter{}, pool)
	session, err := NewSession(loaded, stage, pool, SessionOptions{RenderState: classification.DefaultRenderState()}, notifier)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return session
}

func rect(x0, z0, x1, z1 float32) []mgl32.Vec2 {
	return []mgl32.Vec2{{x0, z0}, {x1, z0}, {x1, z1}, {x0, z1}}
}

func TestSessionCategories(t *testing.T) {
	session := newTestSession(t, nil)
	categories := session.Categories()
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].CategoryID != "2" || len(categories[0].Items) != 4 || categories[0].Items[0] != "1" {
		t.Errorf("expected class 2 with objects 1-4, got %+v", categories[0])
	}
	if categories[1].CategoryID != "6" || categories[1].Items[3] != "8" {
		t.Errorf("expected class 6 with objects 5-8, got %+v", categories[1])
	}
}

func TestSubmitPolygonReportsAffectedPoints(t *testing.T) {
	session := newTestSession(t, nil)

	res, err := session.SubmitPolygon(rect(-1, -1, 9, 9), HideOperation([]classification.Mask{{Class: 2, Object: 1}}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !res.Success || res.PointsAffected != 8 {
		t.Errorf("expected success with 8 points affected, got %+v", res)
	}

	res, _ = session.SubmitPolygon(rect(-1, -1, 9, 3.5), ReclassifyOperation(nil, 9))
	if !res.Success || res.PointsAffected != 32 {
		t.Errorf("expected success with 32 points affected, got %+v", res)
	}
	last := session.LastResult()
	// 4 of the hidden points sit in the reclassified rows but were hidden first
	if last.Hidden != 8 || last.Reclassified != 28 {
		t.Errorf("expected 8 hidden and 28 reclassified, got %d and %d", last.Hidden, last.Reclassified)
	}

	res, _ = session.UndoPolygon()
	if !res.Success || session.LastResult().Reclassified != 0 {
		t.Errorf("expected the reclassification to be undone, got %+v and %d reclassified", res, session.LastResult().Reclassified)
	}
	res, _ = session.ClearPolygons()
	if !res.Success || session.LastResult().Hidden != 0 || session.State().Polygons != 0 {
		t.Errorf("expected no polygons after clear, got %+v", session.State())
	}
	if res, _ := session.UndoPolygon(); res.Success {
		t.Errorf("expected undo on an empty set to fail")
	}
}

func TestSubmitPolygonRejection(t *testing.T) {
	session := newTestSession(t, nil)
	res, err := session.SubmitPolygon([]mgl32.Vec2{{0, 0}, {1, 1}}, HideOperation(nil))
	if err != nil {
		t.Fatalf("expected a rejection result, got error %v", err)
	}
	if res.Success || res.PointsAffected != 0 || res.Message == "" {
		t.Errorf("expected a failed result with a message, got %+v", res)
	}
	if session.State().Polygons != 0 {
		t.Errorf("expected no polygon, got %d", session.State().Polygons)
	}
}

func TestPolygonToolDrawing(t *testing.T) {
	notifications := &recorder{}
	session := newTestSession(t, notifications)

	if _, err := session.AddPolygonPoint(mgl32.Vec2{0, 0}); !errors.Is(err, ErrToolInactive) {
		t.Errorf("expected ErrToolInactive, got %v", err)
	}
	if _, err := session.SelectTool("polygon"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, v := range rect(-1, -1, 9, 9) {
		session.AddPolygonPoint(v)
	}
	if n := len(session.PendingPolygon()); n != 4 {
		t.Fatalf("expected 4 pending points, got %d", n)
	}

	res, err := session.SubmitPolygon(nil, ReclassifyOperation([]classification.Mask{{Class: 6, Object: 5}}, 11))
	if err != nil || !res.Success || res.PointsAffected != 8 {
		t.Errorf("expected 8 points affected, got %+v (%v)", res, err)
	}
	if len(session.PendingPolygon()) != 0 {
		t.Errorf("expected the pending polygon to be cleared once committed")
	}

	session.AddPolygonPoint(mgl32.Vec2{1, 1})
	session.ClearTool()
	if session.ActiveTool() != ToolNone || len(session.PendingPolygon()) != 0 {
		t.Errorf("expected clearing the tool to drop the pending polygon")
	}
	if session.State().Polygons != 1 {
		t.Errorf("expected committed polygons to survive clearing the tool")
	}

	methods := notifications.methods()
	if len(methods) != 2 || methods[0] != "tool_state_changed" || methods[1] != "tool_state_changed" {
		t.Errorf("expected two tool_state_changed notifications, got %v", methods)
	}
}

func TestMeasureTool(t *testing.T) {
	session := newTestSession(t, nil)
	session.SelectTool("measure")
	if m, _ := session.AddMeasurePoint(mgl32.Vec3{0, 0, 0}); m != nil {
		t.Errorf("expected the first point to start a measurement")
	}
	m, err := session.AddMeasurePoint(mgl32.Vec3{3, 4, 0})
	if err != nil || m == nil || m.Distance != 5 {
		t.Errorf("expected a measurement of 5, got %+v (%v)", m, err)
	}
	if _, err := session.SelectTool("knife"); err == nil {
		t.Errorf("expected an unknown tool to be rejected")
	}
}

func TestRecomputeOnlyWhenDirty(t *testing.T) {
	notifications := &recorder{}
	session := newTestSession(t, notifications)

	if result, err := session.Recompute(false); err != nil || result == nil {
		t.Fatalf("expected the first recompute to dispatch, got %v (%v)", result, err)
	}
	if result, _ := session.Recompute(false); result != nil {
		t.Errorf("expected a clean session not to dispatch")
	}
	if result, _ := session.Recompute(true); result == nil {
		t.Errorf("expected a forced recompute to dispatch")
	}

	session.SetHover(3)
	if !session.IsDirty() {
		t.Errorf("expected a hover change to mark the session dirty")
	}
	session.Recompute(false)
	session.SetHover(3)
	if session.IsDirty() {
		t.Errorf("expected an unchanged hover to keep the session clean")
	}

	session.SetRenderMode(classification.RenderRGB)
	if !session.IsDirty() || session.RenderState().Mode != classification.RenderRGB {
		t.Errorf("expected a render mode change to mark the session dirty")
	}
	if methods := notifications.methods(); len(methods) != 1 || methods[0] != "render_mode_changed" {
		t.Errorf("expected a render_mode_changed notification, got %v", methods)
	}
	if err := session.SetRenderMode(classification.RenderMode(42)); err == nil {
		t.Errorf("expected an invalid render mode to be rejected")
	}
}

func TestSelectClassAt(t *testing.T) {
	session := newTestSession(t, nil)
	class, err := session.SelectClassAt(mgl32.Vec3{6.2, 0, 1})
	if err != nil || class != 6 {
		t.Errorf("expected class 6, got %d (%v)", class, err)
	}
	if session.RenderState().Mode != classification.RenderClassSelection {
		t.Errorf("expected the class selection mode")
	}
	session.ClearSelection()
	if session.RenderState().IsSelecting || !session.IsDirty() {
		t.Errorf("expected the selection to be cleared")
	}
}

func TestRateMeter(t *testing.T) {
	now := time.Unix(0, 0)
	meter := NewRateMeter(func() time.Time { return now })
	if meter.Rate() != 0 {
		t.Errorf("expected 0 before any tick")
	}
	for i := 0; i < 200; i++ {
		meter.Tick()
		now = now.Add(100 * time.Millisecond)
	}
	if r := meter.Rate(); r < 9.9 || r > 10.1 {
		t.Errorf("expected a rate close to 10, got %f", r)
	}
	now = now.Add(5 * time.Second)
	if meter.Rate() != 0 {
		t.Errorf("expected the rate to drop to 0 when idle")
	}
}
