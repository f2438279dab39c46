package rpc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/engine"
	"github.com/go-gl/mathgl/mgl32"
)

// Identifier sent either as a decimal string or as a number
type numericID string

func (n *numericID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = numericID(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = numericID(num.String())
	return nil
}

func (n numericID) parse(field string, max uint64) (uint64, error) {
	v, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil || v > max {
		return 0, InvalidParams("%s must be an integer in [0, %d], got %q", field, max, string(n))
	}
	return v, nil
}

type sourceItem struct {
	CategoryID numericID `json:"category_id"`
	ItemID     numericID `json:"item_id"`
}

type polygonParams struct {
	Vertices         [][]float32  `json:"vertices"`
	SourceItems      []sourceItem `json:"source_items"`
	TargetCategoryID *numericID   `json:"target_category_id"`
}

func (p *polygonParams) vertices() ([]mgl32.Vec2, error) {
	vertices := make([]mgl32.Vec2, len(p.Vertices))
	for i, v := range p.Vertices {
		if len(v) != 2 {
			return nil, InvalidParams("vertex %d must be [x, z], got %d values", i, len(v))
		}
		vertices[i] = mgl32.Vec2{v[0], v[1]}
	}
	return vertices, nil
}

// category_id maps to the class and item_id to the object id, a missing item matches every object of the class
func (p *polygonParams) masks() ([]classification.Mask, error) {
	masks := make([]classification.Mask, 0, len(p.SourceItems))
	for _, item := range p.SourceItems {
		class, err := item.CategoryID.parse("category_id", classification.MaxMaskClass)
		if err != nil {
			return nil, err
		}
		object := uint64(classification.AnyObject)
		if item.ItemID != "" {
			if object, err = item.ItemID.parse("item_id", classification.MaxMaskObject); err != nil {
				return nil, err
			}
		}
		masks = append(masks, classification.Mask{Class: uint32(class), Object: uint32(object)})
	}
	return masks, nil
}

type pointParams struct {
	X *float32 `json:"x"`
	Y *float32 `json:"y"`
	Z *float32 `json:"z"`
}

func (p *pointParams) vec3() (mgl32.Vec3, error) {
	if p.X == nil || p.Y == nil || p.Z == nil {
		return mgl32.Vec3{}, InvalidParams("expected {x, y, z}")
	}
	return mgl32.Vec3{*p.X, *p.Y, *p.Z}, nil
}

func success(extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"success": true}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Registers the session methods on a dispatcher
func RegisterSessionMethods(d *Dispatcher, session *engine.Session) {
	d.Register("tool_selection", func(params json.RawMessage) (interface{}, error) {
		var p struct {
			Tool *string `json:"tool"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		name := ""
		if p.Tool != nil {
			name = *p.Tool
		}
		tool, err := session.SelectTool(name)
		if err != nil {
			return nil, InvalidParams("%v", err)
		}
		return success(map[string]interface{}{"active_tool": string(tool)}), nil
	})

	d.Register("clear_tool", func(json.RawMessage) (interface{}, error) {
		session.ClearTool()
		return success(nil), nil
	})

	setRenderMode := func(params json.RawMessage) (interface{}, error) {
		var p struct {
			Mode string `json:"mode"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		mode, err := classification.ParseRenderMode(p.Mode)
		if err != nil {
			return nil, InvalidParams("%v", err)
		}
		if err := session.SetRenderMode(mode); err != nil {
			return nil, InvalidParams("%v", err)
		}
		return success(map[string]interface{}{"mode": mode.String()}), nil
	}
	d.Register("set_render_mode", setRenderMode)
	d.RegisterNotification("render_mode_changed", setRenderMode)

	d.Register("hide_points_in_polygon", func(params json.RawMessage) (interface{}, error) {
		var p polygonParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		vertices, err := p.vertices()
		if err != nil {
			return nil, err
		}
		masks, err := p.masks()
		if err != nil {
			return nil, err
		}
		return session.SubmitPolygon(vertices, engine.HideOperation(masks))
	})

	d.Register("reclassify_points_in_polygon", func(params json.RawMessage) (interface{}, error) {
		var p polygonParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.TargetCategoryID == nil {
			return nil, InvalidParams("expected target_category_id")
		}
		target, err := p.TargetCategoryID.parse("target_category_id", 255)
		if err != nil {
			return nil, err
		}
		vertices, err := p.vertices()
		if err != nil {
			return nil, err
		}
		masks, err := p.masks()
		if err != nil {
			return nil, err
		}
		return session.SubmitPolygon(vertices, engine.ReclassifyOperation(masks, uint8(target)))
	})

	d.Register("add_polygon_point", func(params json.RawMessage) (interface{}, error) {
		var p struct {
			X *float32 `json:"x"`
			Z *float32 `json:"z"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.X == nil || p.Z == nil {
			return nil, InvalidParams("expected {x, z}")
		}
		n, err := session.AddPolygonPoint(mgl32.Vec2{*p.X, *p.Z})
		if err != nil {
			return nil, InvalidParams("%v", err)
		}
		return success(map[string]interface{}{"points": n}), nil
	})

	d.Register("polygon_action", func(params json.RawMessage) (interface{}, error) {
		var p struct {
			Action string `json:"action"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		switch p.Action {
		case "clear":
			session.ClearPendingPolygon()
			return success(map[string]interface{}{"action": p.Action}), nil
		case "clear_all":
			return session.ClearPolygons()
		}
		return nil, InvalidParams("unknown polygon action %q, expected clear or clear_all", p.Action)
	})

	d.Register("clear_polygons", func(json.RawMessage) (interface{}, error) {
		return session.ClearPolygons()
	})

	d.Register("undo_polygon", func(json.RawMessage) (interface{}, error) {
		return session.UndoPolygon()
	})

	d.Register("get_classification_categories", func(json.RawMessage) (interface{}, error) {
		return session.Categories(), nil
	})

	setHover := func(params json.RawMessage) (interface{}, error) {
		var p struct {
			ObjectID *uint32 `json:"object_id"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		id := uint32(0)
		if p.ObjectID != nil {
			id = *p.ObjectID
		}
		session.SetHover(id)
		return success(map[string]interface{}{"object_id": id}), nil
	}
	d.Register("set_hover_object_id", setHover)
	d.RegisterNotification("set_hover_object_id", setHover)

	d.Register("select_class_at", func(params json.RawMessage) (interface{}, error) {
		var p pointParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		point, err := p.vec3()
		if err != nil {
			return nil, err
		}
		class, err := session.SelectClassAt(point)
		if err != nil {
			return nil, err
		}
		return success(map[string]interface{}{"class": class}), nil
	})

	d.Register("clear_selection", func(json.RawMessage) (interface{}, error) {
		session.ClearSelection()
		return success(nil), nil
	})

	d.Register("measure_point", func(params json.RawMessage) (interface{}, error) {
		var p pointParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		point, err := p.vec3()
		if err != nil {
			return nil, err
		}
		m, err := session.AddMeasurePoint(point)
		if err != nil {
			return nil, InvalidParams("%v", err)
		}
		return success(map[string]interface{}{"completed": m != nil, "measurement": m}), nil
	})

	d.Register("set_spatial_optimisation", func(params json.RawMessage) (interface{}, error) {
		var p struct {
			Enabled bool `json:"enabled"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		session.SetSpatialOptimisation(p.Enabled)
		return success(map[string]interface{}{"enabled": p.Enabled}), nil
	})

	d.Register("get_fps", func(json.RawMessage) (interface{}, error) {
		return map[string]interface{}{"fps": session.DispatchRate()}, nil
	})

	d.Register("get_state", func(json.RawMessage) (interface{}, error) {
		return session.State(), nil
	})
}
