package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/atlas"
	"github.com/ecopia-map/pointcloud_atlas/internal/classification"
	"github.com/ecopia-map/pointcloud_atlas/internal/converters"
	"github.com/ecopia-map/pointcloud_atlas/internal/data"
	"github.com/ecopia-map/pointcloud_atlas/internal/engine"
	"github.com/ecopia-map/pointcloud_atlas/internal/io"
	"github.com/gorilla/websocket"
)

// 4x4 grid, class 2 with object 1 on the left half, class 6 with object 2 on the right half
func newTestSession(t *testing.T) *engine.Session {
	t.Helper()
	var points []*data.Point
	for z := 0; z < 4; z++ {
		for x := 0; x < 4; x++ {
			class, object := uint8(2), uint32(1)
			if x >= 2 {
				class, object = 6, 2
			}
			points = append(points, data.NewPointNoColour(float64(x), -float64(z), 0, class, object))
		}
	}
	opts := atlas.DefaultOptions()
	opts.TextureSize = 4
	pool := io.NewPool(2)
	result, err := atlas.NewPacker(opts, converters.NewEngineFrameConverter(nil, nil, 0, 0), pool).Pack("grid.xyz", points, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	loaded := &atlas.LoadedAtlas{Atlas: result.Atlas, Metadata: result.Metadata}
	stage := classification.NewStageFromLoaded(loaded, classification.AABBFilter{}, pool)
	session, err := engine.NewSession(loaded, stage, pool, engine.SessionOptions{RenderState: classification.DefaultRenderState()}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return session
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	d := NewDispatcher()
	RegisterSessionMethods(d, newTestSession(t))
	return d
}

func decodeResult(t *testing.T, r *Response, v interface{}) {
	t.Helper()
	b, err := json.Marshal(r.Result)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestDispatcherErrors(t *testing.T) {
	d := newTestDispatcher(t)
	cases := []struct {
		name    string
		message string
		code    int
	}{
		{"parse error", `{"jsonrpc": "2.0", "method": `, CodeParseError},
		{"missing version", `{"method": "get_fps", "id": 1}`, CodeInvalidRequest},
		{"missing method", `{"jsonrpc": "2.0", "id": 1}`, CodeInvalidRequest},
		{"unknown method", `{"jsonrpc": "2.0", "method": "fly", "id": 1}`, CodeMethodNotFound},
		{"bad render mode", `{"jsonrpc": "2.0", "method": "set_render_mode", "params": {"mode": "wireframe"}, "id": 1}`, CodeInvalidParams},
		{"bad params type", `{"jsonrpc": "2.0", "method": "set_render_mode", "params": {"mode": 3}, "id": 1}`, CodeInvalidParams},
		{"unknown tool", `{"jsonrpc": "2.0", "method": "tool_selection", "params": {"tool": "knife"}, "id": 1}`, CodeInvalidParams},
		{"missing target", `{"jsonrpc": "2.0", "method": "reclassify_points_in_polygon", "params": {"vertices": [[0,0],[1,0],[1,1]]}, "id": 1}`, CodeInvalidParams},
		{"class overflow", `{"jsonrpc": "2.0", "method": "hide_points_in_polygon", "params": {"vertices": [[0,0],[1,0],[1,1]], "source_items": [{"category_id": "512"}]}, "id": 1}`, CodeInvalidParams},
		{"object overflow", `{"jsonrpc": "2.0", "method": "hide_points_in_polygon", "params": {"vertices": [[0,0],[1,0],[1,1]], "source_items": [{"category_id": "2", "item_id": "512"}]}, "id": 1}`, CodeInvalidParams},
		{"short vertex", `{"jsonrpc": "2.0", "method": "hide_points_in_polygon", "params": {"vertices": [[0],[1,0],[1,1]]}, "id": 1}`, CodeInvalidParams},
	}
	for _, c := range cases {
		response := d.Handle([]byte(c.message))
		if response == nil || response.Error == nil {
			t.Errorf("%s: expected an error response, got %+v", c.name, response)
			continue
		}
		if response.Error.Code != c.code {
			t.Errorf("%s: expected code %d, got %d", c.name, c.code, response.Error.Code)
		}
	}
}

func TestNotificationsHaveNoResponse(t *testing.T) {
	d := NewDispatcher()
	session := newTestSession(t)
	RegisterSessionMethods(d, session)

	if r := d.Handle([]byte(`{"jsonrpc": "2.0", "method": "render_mode_changed", "params": {"mode": "rgb"}}`)); r != nil {
		t.Errorf("expected no response to a notification, got %+v", r)
	}
	if session.RenderState().Mode != classification.RenderRGB {
		t.Errorf("expected the notification to change the render mode, got %s", session.RenderState().Mode)
	}
	if r := d.Handle([]byte(`{"jsonrpc": "2.0", "method": "set_hover_object_id", "params": {"object_id": 2}}`)); r != nil {
		t.Errorf("expected no response to a notification, got %+v", r)
	}
	if session.RenderState().HoverObjectID != 2 {
		t.Errorf("expected hover 2, got %d", session.RenderState().HoverObjectID)
	}
	if r := d.Handle([]byte(`{"jsonrpc": "2.0", "method": "unknown_event"}`)); r != nil {
		t.Errorf("expected unknown notifications to be ignored, got %+v", r)
	}
}

func TestPolygonMethods(t *testing.T) {
	d := newTestDispatcher(t)

	response := d.Handle([]byte(`{"jsonrpc": "2.0", "method": "hide_points_in_polygon", "id": 7,
		"params": {"vertices": [[-1,-1],[5,-1],[5,5],[-1,5]], "source_items": [{"category_id": "2", "item_id": "1"}]}}`))
	if response.Error != nil || string(response.ID) != "7" {
		t.Fatalf("expected a result for id 7, got %+v", response)
	}
	var result engine.OperationResult
	decodeResult(t, response, &result)
	if !result.Success || result.PointsAffected != 8 {
		t.Errorf("expected 8 points hidden, got %+v", result)
	}

	response = d.Handle([]byte(`{"jsonrpc": "2.0", "method": "reclassify_points_in_polygon", "id": 8,
		"params": {"vertices": [[-1,-1],[5,-1],[5,5],[-1,5]], "source_items": [{"category_id": 6, "item_id": 2}], "target_category_id": "9"}}`))
	decodeResult(t, response, &result)
	if !result.Success || result.PointsAffected != 8 {
		t.Errorf("expected 8 points reclassified, got %+v", result)
	}

	// rejected geometry is an operation failure, not a protocol error
	response = d.Handle([]byte(`{"jsonrpc": "2.0", "method": "hide_points_in_polygon", "id": 9, "params": {"vertices": [[0,0],[1,1]]}}`))
	if response.Error != nil {
		t.Fatalf("expected a result, got error %+v", response.Error)
	}
	decodeResult(t, response, &result)
	if result.Success || result.Message == "" {
		t.Errorf("expected a failed operation with a message, got %+v", result)
	}

	response = d.Handle([]byte(`{"jsonrpc": "2.0", "method": "get_state", "id": 10}`))
	var state engine.SessionState
	decodeResult(t, response, &state)
	if state.Polygons != 2 || state.Hidden != 8 || state.Reclassified != 8 {
		t.Errorf("expected 2 polygons, 8 hidden and 8 reclassified, got %+v", state)
	}

	response = d.Handle([]byte(`{"jsonrpc": "2.0", "method": "get_classification_categories", "id": 11}`))
	var categories []map[string]interface{}
	decodeResult(t, response, &categories)
	if len(categories) != 2 || categories[0]["category_id"] != "2" {
		t.Errorf("expected categories 2 and 6, got %v", categories)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	session := newTestSession(t)
	server := NewServer(session, DefaultServerOptions())
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var started Notification
	if err := conn.ReadJSON(&started); err != nil || started.Method != "session_started" {
		t.Fatalf("expected a session_started notification, got %+v (%v)", started, err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc": "2.0", "method": "tool_selection", "params": {"tool": "polygon"}, "id": "a"}`)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// the tool change is broadcast before the response is written
	var gotNotification, gotResponse bool
	for i := 0; i < 2; i++ {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg["method"] == "tool_state_changed" {
			gotNotification = true
		}
		if msg["id"] == "a" {
			result := msg["result"].(map[string]interface{})
			gotResponse = result["active_tool"] == "polygon"
		}
	}
	if !gotNotification || !gotResponse {
		t.Errorf("expected a tool_state_changed notification and a response, got %v and %v", gotNotification, gotResponse)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	var debug Notification
	if err := conn.ReadJSON(&debug); err != nil || debug.Method != "debug_message" {
		t.Errorf("expected a debug_message notification, got %+v (%v)", debug, err)
	}
	var parseError Response
	if err := conn.ReadJSON(&parseError); err != nil || parseError.Error == nil || parseError.Error.Code != CodeParseError {
		t.Errorf("expected a parse error response, got %+v (%v)", parseError, err)
	}

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer resp.Body.Close()
	var health map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&health)
	if health["status"] != "ok" || health["clients"] != float64(1) {
		t.Errorf("expected status ok with 1 client, got %v", health)
	}
}
