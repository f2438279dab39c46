package engine

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
)

type ToolType string

const (
	ToolNone    ToolType = "none"
	ToolPolygon ToolType = "polygon"
	ToolMeasure ToolType = "measure"
)

func ParseToolType(value string) (ToolType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return ToolNone, nil
	case "polygon":
		return ToolPolygon, nil
	case "measure":
		return ToolMeasure, nil
	}
	return ToolNone, fmt.Errorf("unknown tool %q", value)
}

// Tracks the single active tool
type ToolManager struct {
	active ToolType
}

func NewToolManager() *ToolManager {
	return &ToolManager{active: ToolNone}
}

// Activates a tool and returns true when the active tool changed
func (m *ToolManager) Activate(tool ToolType) bool {
	if m.active == tool {
		return false
	}
	m.active = tool
	glog.Infof("tool %s activated", tool)
	return true
}

// Deactivates the current tool and returns it
func (m *ToolManager) Deactivate() ToolType {
	previous := m.active
	m.active = ToolNone
	if previous != ToolNone {
		glog.Infof("tool %s deactivated", previous)
	}
	return previous
}

func (m *ToolManager) Active() ToolType {
	return m.active
}

func (m *ToolManager) IsActive(tool ToolType) bool {
	return m.active == tool
}

// Polygon being drawn with the polygon tool, in the engine (x,z) plane
type PolygonTool struct {
	current []mgl32.Vec2
}

func (p *PolygonTool) AddPoint(v mgl32.Vec2) int {
	p.current = append(p.current, v)
	return len(p.current)
}

func (p *PolygonTool) Points() []mgl32.Vec2 {
	return append([]mgl32.Vec2(nil), p.current...)
}

func (p *PolygonTool) Clear() {
	p.current = nil
}

type Measurement struct {
	ID       int        `json:"id"`
	Start    mgl32.Vec3 `json:"start"`
	End      mgl32.Vec3 `json:"end"`
	Distance float32    `json:"distance"`
}

// Two click distance measurement: the first point starts a measurement, the second one completes it
type MeasureTool struct {
	start   *mgl32.Vec3
	current *Measurement
	nextID  int
}

// Adds a point, returning the completed measurement on every second point
func (m *MeasureTool) AddPoint(p mgl32.Vec3) (*Measurement, bool) {
	if m.start == nil {
		m.current = nil
		m.start = &p
		return nil, false
	}
	measurement := &Measurement{
		ID:       m.nextID,
		Start:    *m.start,
		End:      p,
		Distance: p.Sub(*m.start).Len(),
	}
	m.nextID++
	m.current = measurement
	m.start = nil
	return measurement, true
}

func (m *MeasureTool) Current() *Measurement {
	return m.current
}

func (m *MeasureTool) Clear() {
	m.start = nil
	m.current = nil
}
