package rpc

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/golang/glog"
)

// Handles the params of a method. Returning an *Error sends it as is, any other error is reported as
// an internal error.
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// Routes requests and notifications to their handlers
type Dispatcher struct {
	methods       map[string]HandlerFunc
	notifications map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		methods:       make(map[string]HandlerFunc),
		notifications: make(map[string]HandlerFunc),
	}
}

func (d *Dispatcher) Register(method string, handler HandlerFunc) {
	d.methods[method] = handler
}

// Registers a handler for a notification method. Notifications with a method registered only as a
// request fall back to the request handler.
func (d *Dispatcher) RegisterNotification(method string, handler HandlerFunc) {
	d.notifications[method] = handler
}

func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.methods))
	for name := range d.methods {
		names = append(names, name)
	}
	return names
}

// Handles one message and returns the response to send back, nil for notifications
func (d *Dispatcher) Handle(message []byte) *Response {
	var req Request
	decoder := json.NewDecoder(bytes.NewReader(message))
	if err := decoder.Decode(&req); err != nil {
		return errorResponse(nullID, &Error{Code: CodeParseError, Message: "Parse error", Data: err.Error()})
	}
	if req.JSONRPC != Version || req.Method == "" {
		id := req.ID
		if len(id) == 0 {
			id = nullID
		}
		return errorResponse(id, &Error{Code: CodeInvalidRequest, Message: "Invalid Request"})
	}

	if req.IsNotification() {
		handler, ok := d.notifications[req.Method]
		if !ok {
			handler, ok = d.methods[req.Method]
		}
		if !ok {
			glog.Warningf("unknown notification %s", req.Method)
			return nil
		}
		if _, err := handler(req.Params); err != nil {
			glog.Warningf("notification %s failed: %v", req.Method, err)
		}
		return nil
	}

	handler, ok := d.methods[req.Method]
	if !ok {
		return errorResponse(req.ID, &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: map[string]string{"method": req.Method}})
	}
	result, err := handler(req.Params)
	if err != nil {
		var rpcErr *Error
		if !errors.As(err, &rpcErr) {
			glog.Errorf("method %s failed: %v", req.Method, err)
			rpcErr = InternalError(err)
		}
		return errorResponse(req.ID, rpcErr)
	}
	return &Response{JSONRPC: Version, Result: result, ID: req.ID}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	return &Response{JSONRPC: Version, Error: err, ID: id}
}

// Decodes params into v. Missing params decode as an empty object.
func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || bytes.Equal(params, nullID) {
		params = json.RawMessage("{}")
	}
	decoder := json.NewDecoder(bytes.NewReader(params))
	if err := decoder.Decode(v); err != nil {
		return InvalidParams("%v", err)
	}
	return nil
}
