// Package engine holds the interactive state of a loaded atlas: tools, polygon masks and render state,
// and recomputes the classified output whenever that state changes.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classes"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

var ErrToolInactive = errors.New("tool is not active")

// Result of a polygon operation as reported to the client. Rejections are reported here, not as errors.
type OperationResult struct {
	Success        bool   `json:"success"`
	PointsAffected int    `json:"points_affected"`
	Message        string `json:"message"`
}

// Hide or reclassify request on a polygon
type Operation struct {
	Mode   classification.Mode
	Masks  []classification.Mask
	Target uint8
}

func HideOperation(masks []classification.Mask) Operation {
	return Operation{Mode: classification.ModeHide, Masks: masks}
}

func ReclassifyOperation(masks []classification.Mask, target uint8) Operation {
	return Operation{Mode: classification.ModeReclassify, Masks: masks, Target: target}
}

type SessionOptions struct {
	RenderState     classification.RenderState
	ResampleSpacing float32
	Now             func() time.Time
}

// State snapshot reported by get_state
type SessionState struct {
	ActiveTool     string       `json:"active_tool"`
	RenderMode     string       `json:"render_mode"`
	Polygons       int          `json:"polygons"`
	Vertices       int          `json:"vertices"`
	Masks          int          `json:"masks"`
	PendingPoints  int          `json:"pending_points"`
	HoverObjectID  uint32       `json:"hover_object_id"`
	IsSelecting    bool         `json:"is_selecting"`
	SelectedClass  int          `json:"selected_class"`
	Hidden         int          `json:"hidden"`
	Reclassified   int          `json:"reclassified"`
	Dispatches     uint64       `json:"dispatches"`
	DispatchRate   float64      `json:"dispatch_rate"`
	Measurement    *Measurement `json:"measurement,omitempty"`
	SpatialFilter  string       `json:"spatial_filter"`
	SpatialEnabled bool         `json:"spatial_optimisation"`
}

// Interactive session over a loaded atlas. Mutations take the session mutex and mark the output dirty,
// dispatches run on a snapshot outside of it and are serialised by a second mutex.
type Session struct {
	loaded   *atlas.LoadedAtlas
	stage    *classification.Stage
	notifier Notifier
	rate     *RateMeter

	// held for the whole of a dispatch, always taken before mu
	dispatchMu sync.Mutex

	mu          sync.Mutex
	masks       *classification.MaskSet
	state       classification.RenderState
	tools       *ToolManager
	polygonTool PolygonTool
	measureTool MeasureTool
	info        *classes.ClassificationInfo
	dirty       bool
	last        *classification.Result
}

func NewSession(loaded *atlas.LoadedAtlas, stage *classification.Stage, pool *io.Pool, opts SessionOptions, notifier Notifier) (*Session, error) {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	info, err := CollectClassificationInfo(loaded.Atlas, pool)
	if err != nil {
		return nil, err
	}
	masks := classification.NewMaskSet()
	masks.ResampleSpacing = opts.ResampleSpacing
	return &Session{
		loaded:   loaded,
		stage:    stage,
		notifier: notifier,
		rate:     NewRateMeter(opts.Now),
		masks:    masks,
		state:    opts.RenderState,
		tools:    NewToolManager(),
		info:     info,
		dirty:    true,
	}, nil
}

// Builds the (class, object) groups present in the occupied cells of an atlas
func CollectClassificationInfo(a *atlas.Atlas, pool *io.Pool) (*classes.ClassificationInfo, error) {
	partials := make([]*classes.ClassificationInfo, pool.Workers())
	for i := range partials {
		partials[i] = classes.NewClassificationInfo()
	}
	total := a.Capacity()
	err := pool.Run(total, pool.ChunkSize(total, 4), func(worker int, work *io.WorkUnit) error {
		for i := work.Start; i < work.End; i++ {
			if a.IsOccupied(i) {
				partials[worker].InsertOrUpdate(a.Classification(i), a.ObjectID(i))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	info := classes.NewClassificationInfo()
	for _, p := range partials {
		info.Merge(p)
	}
	return info, nil
}

// Replaces the notifier, used when the transport is created after the session
func (s *Session) SetNotifier(notifier Notifier) {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	s.mu.Lock()
	s.notifier = notifier
	s.mu.Unlock()
}

func (s *Session) notify(method string, params interface{}) {
	s.mu.Lock()
	notifier := s.notifier
	s.mu.Unlock()
	notifier.Notify(method, params)
}

func (s *Session) Loaded() *atlas.LoadedAtlas {
	return s.loaded
}

func (s *Session) Stage() *classification.Stage {
	return s.stage
}

func (s *Session) SelectTool(name string) (ToolType, error) {
	tool, err := ParseToolType(name)
	if err != nil {
		return ToolNone, err
	}
	if tool == ToolNone {
		s.ClearTool()
		return ToolNone, nil
	}

	s.mu.Lock()
	changed := s.tools.Activate(tool)
	if changed {
		s.polygonTool.Clear()
		s.measureTool.Clear()
	}
	s.mu.Unlock()

	if changed {
		s.notify("tool_state_changed", map[string]interface{}{"tool": string(tool), "active": true})
	}
	return tool, nil
}

// Deactivates the current tool and drops its in progress work. Committed polygons are kept.
func (s *Session) ClearTool() {
	s.mu.Lock()
	previous := s.tools.Deactivate()
	s.polygonTool.Clear()
	s.measureTool.Clear()
	s.mu.Unlock()

	if previous != ToolNone {
		s.notify("tool_state_changed", map[string]interface{}{"tool": string(previous), "active": false})
	}
}

func (s *Session) ActiveTool() ToolType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools.Active()
}

func (s *Session) SetRenderMode(mode classification.RenderMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("unknown render mode %d", mode)
	}
	s.mu.Lock()
	changed := s.state.Mode != mode
	s.state.Mode = mode
	s.dirty = s.dirty || changed
	s.mu.Unlock()

	if changed {
		s.notify("render_mode_changed", map[string]interface{}{"mode": mode.String()})
	}
	return nil
}

func (s *Session) RenderState() classification.RenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetSpatialOptimisation(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SpatialOptimisation != enabled {
		s.state.SpatialOptimisation = enabled
		s.dirty = true
	}
}

// Adds a vertex to the polygon being drawn, the polygon tool has to be active
func (s *Session) AddPolygonPoint(v mgl32.Vec2) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tools.IsActive(ToolPolygon) {
		return 0, fmt.Errorf("%w: %s", ErrToolInactive, ToolPolygon)
	}
	return s.polygonTool.AddPoint(v), nil
}

func (s *Session) PendingPolygon() []mgl32.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polygonTool.Points()
}

func (s *Session) ClearPendingPolygon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polygonTool.Clear()
}

// Adds a point to the measurement in progress, the measure tool has to be active
func (s *Session) AddMeasurePoint(p mgl32.Vec3) (*Measurement, error) {
	s.mu.Lock()
	if !s.tools.IsActive(ToolMeasure) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrToolInactive, ToolMeasure)
	}
	measurement, completed := s.measureTool.AddPoint(p)
	s.mu.Unlock()

	if completed {
		s.notify("measure_completed", measurement)
	} else {
		s.notify("measure_started", map[string]interface{}{"position": p})
	}
	return measurement, nil
}

// Commits a polygon with an operation and recomputes the output. When vertices is empty the polygon being
// drawn with the polygon tool is used and cleared once committed.
func (s *Session) SubmitPolygon(vertices []mgl32.Vec2, op Operation) (OperationResult, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	pending := len(vertices) == 0
	if pending {
		vertices = s.polygonTool.Points()
	}
	_, err := s.masks.Add(classification.Polygon{
		Vertices: vertices,
		Target:   op.Target,
		Mode:     op.Mode,
		Masks:    op.Masks,
	})
	if err != nil {
		s.mu.Unlock()
		glog.Warningf("%s polygon rejected: %v", op.Mode, err)
		return OperationResult{Success: false, Message: err.Error()}, nil
	}
	if pending {
		s.polygonTool.Clear()
	}
	s.dirty = true
	s.mu.Unlock()

	result, snap, err := s.recompute(true)
	if err != nil {
		return OperationResult{}, err
	}
	affected := 0
	if n := snap.Len(); n > 0 {
		affected = result.PolygonMatches[n-1]
	}
	glog.Infof("%s polygon committed, %d points affected", op.Mode, affected)
	return OperationResult{
		Success:        true,
		PointsAffected: affected,
		Message:        fmt.Sprintf("%s applied to %d points", op.Mode, affected),
	}, nil
}

// Removes every committed polygon together with the polygon being drawn
func (s *Session) ClearPolygons() (OperationResult, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	removed := s.masks.Len()
	s.masks.Clear()
	s.polygonTool.Clear()
	s.dirty = true
	s.mu.Unlock()

	if _, _, err := s.recompute(true); err != nil {
		return OperationResult{}, err
	}
	return OperationResult{Success: true, Message: fmt.Sprintf("%d polygons cleared", removed)}, nil
}

// Removes the most recently committed polygon
func (s *Session) UndoPolygon() (OperationResult, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !s.masks.Undo() {
		s.mu.Unlock()
		return OperationResult{Success: false, Message: "no polygon to undo"}, nil
	}
	s.dirty = true
	s.mu.Unlock()

	if _, _, err := s.recompute(true); err != nil {
		return OperationResult{}, err
	}
	return OperationResult{Success: true, Message: "last polygon removed"}, nil
}

func (s *Session) SetHover(objectID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.HoverObjectID != objectID {
		s.state.HoverObjectID = objectID
		s.dirty = true
	}
}

// Picks the class nearest to a world position and switches to the class selection mode. Returns the
// selected class, -1 when the atlas has no point.
func (s *Session) SelectClassAt(point mgl32.Vec3) (int, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	previous := s.state.Mode
	s.state.SelectionPoint = point
	s.state.IsSelecting = true
	s.state.Mode = classification.RenderClassSelection
	s.dirty = true
	s.mu.Unlock()

	if previous != classification.RenderClassSelection {
		s.notify("render_mode_changed", map[string]interface{}{"mode": classification.RenderClassSelection.String()})
	}
	result, _, err := s.recompute(true)
	if err != nil {
		return -1, err
	}
	return result.SelectedClass, nil
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsSelecting {
		s.state.IsSelecting = false
		s.dirty = true
	}
}

// Classification groups of the loaded atlas as categories and items
func (s *Session) Categories() []classes.Category {
	return s.info.Categories()
}

func (s *Session) ClassificationInfo() *classes.ClassificationInfo {
	return s.info
}

func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Dispatches the classification stage when the state changed since the last dispatch, or always when
// force is set. Returns nil when nothing had to be done.
func (s *Session) Recompute(force bool) (*classification.Result, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	result, _, err := s.recompute(force)
	return result, err
}

// Must be called with dispatchMu held
func (s *Session) recompute(force bool) (*classification.Result, *classification.Snapshot, error) {
	s.mu.Lock()
	if !s.dirty && !force {
		s.mu.Unlock()
		return nil, nil, nil
	}
	snap := s.masks.Snapshot()
	state := s.state
	s.dirty = false
	s.mu.Unlock()

	result, err := s.stage.Dispatch(snap, state)
	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		glog.Errorf("classification dispatch failed: %v", err)
		return nil, nil, err
	}
	s.rate.Tick()

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	return result, snap, nil
}

func (s *Session) LastResult() *classification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Dispatches per second, smoothed
func (s *Session) DispatchRate() float64 {
	return s.rate.Rate()
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SessionState{
		ActiveTool:     string(s.tools.Active()),
		RenderMode:     s.state.Mode.String(),
		Polygons:       s.masks.Len(),
		Vertices:       s.masks.TotalVertices(),
		Masks:          s.masks.TotalMasks(),
		PendingPoints:  len(s.polygonTool.current),
		HoverObjectID:  s.state.HoverObjectID,
		IsSelecting:    s.state.IsSelecting,
		SelectedClass:  -1,
		DispatchRate:   s.rate.Rate(),
		Measurement:    s.measureTool.Current(),
		SpatialFilter:  s.stage.Filter().Name(),
		SpatialEnabled: s.state.SpatialOptimisation,
	}
	if s.last != nil {
		st.SelectedClass = s.last.SelectedClass
		st.Hidden = s.last.Hidden
		st.Reclassified = s.last.Reclassified
		st.Dispatches = s.last.Sequence
	}
	return st
}
