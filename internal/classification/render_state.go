package classification

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type RenderMode uint32

const (
	RenderOriginal RenderMode = iota
	RenderModified
	RenderRGB
	RenderMortonDebug
	RenderSpatialDebug
	RenderClassSelection
	RenderConnectivity
)

var renderModeNames = []string{
	RenderOriginal:       "original",
	RenderModified:       "modified",
	RenderRGB:            "rgb",
	RenderMortonDebug:    "morton-debug",
	RenderSpatialDebug:   "spatial-debug",
	RenderClassSelection: "class-selection",
	RenderConnectivity:   "connectivity",
}

func (m RenderMode) String() string {
	if int(m) < len(renderModeNames) {
		return renderModeNames[m]
	}
	return fmt.Sprintf("render_mode(%d)", uint32(m))
}

func (m RenderMode) IsValid() bool {
	return int(m) < len(renderModeNames)
}

// Parses a render mode name. Underscores are accepted in place of dashes.
func ParseRenderMode(value string) (RenderMode, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", "-")
	for i, n := range renderModeNames {
		if n == name {
			return RenderMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown render mode %q", value)
}

func RenderModeNames() []string {
	return append([]string(nil), renderModeNames...)
}

// Display parameters of a dispatch
type RenderState struct {
	Mode RenderMode

	// 0 means no hovered object
	HoverObjectID uint32

	SpatialOptimisation bool

	// World position picked by the user, used by the class selection mode
	SelectionPoint mgl32.Vec3
	IsSelecting    bool
}

func DefaultRenderState() RenderState {
	return RenderState{Mode: RenderModified, SpatialOptimisation: true}
}
