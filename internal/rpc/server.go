package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ecopia-map/pointcloud_atlas/internal/engine"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type ServerOptions struct {
	Address string

	// Period of the fps_update notification
	FPSInterval time.Duration

	// Period of the loop recomputing the output after hover or render mode changes
	FrameInterval time.Duration

	// Largest accepted message, in bytes
	ReadLimit int64
}

func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Address:       "127.0.0.1:8765",
		FPSInterval:   500 * time.Millisecond,
		FrameInterval: time.Second / 30,
		ReadLimit:     1 << 20,
	}
}

type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Websocket command server. Every connection is a client of the same session and receives every
// notification.
type Server struct {
	session    *engine.Session
	dispatcher *Dispatcher
	opts       ServerOptions
	upgrader   websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[string]*client
}

// Creates the server and registers it as the notifier of the session
func NewServer(session *engine.Session, opts ServerOptions) *Server {
	s := &Server{
		session:    session,
		dispatcher: NewDispatcher(),
		opts:       opts,
		upgrader: websocket.Upgrader{
			// the command channel is served to a local viewer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
	RegisterSessionMethods(s.dispatcher, session)
	session.SetNotifier(s)
	return s
}

func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcasts a notification to every connected client
func (s *Server) Notify(method string, params interface{}) {
	notification := NewNotification(method, params)
	s.clientsMu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(notification); err != nil {
			glog.Warningf("client %s: notification %s not delivered: %v", c.id, method, err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
		"fps":     s.session.DispatchRate(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("websocket upgrade failed: %v", err)
		return
	}
	if s.opts.ReadLimit > 0 {
		conn.SetReadLimit(s.opts.ReadLimit)
	}

	c := &client{id: uuid.NewString(), conn: conn}
	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()
	glog.Infof("client %s connected from %s", c.id, r.RemoteAddr)

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		s.clientsMu.Unlock()
		conn.Close()
		glog.Infof("client %s disconnected", c.id)
	}()

	c.writeJSON(NewNotification("session_started", map[string]interface{}{"session_id": c.id}))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				glog.Warningf("client %s: read failed: %v", c.id, err)
			}
			return
		}
		response := s.dispatcher.Handle(message)
		if response == nil {
			continue
		}
		if response.Error != nil && response.Error.Code == CodeParseError {
			c.writeJSON(NewNotification("debug_message", map[string]interface{}{
				"message": "could not parse message: " + response.Error.Message,
			}))
		}
		if err := c.writeJSON(response); err != nil {
			glog.Warningf("client %s: write failed: %v", c.id, err)
			return
		}
	}
}

// Recomputes the output when the session changed and publishes the dispatch rate until ctx is done
func (s *Server) RunLoops(ctx context.Context) {
	frame := time.NewTicker(positive(s.opts.FrameInterval, time.Second/30))
	defer frame.Stop()
	fps := time.NewTicker(positive(s.opts.FPSInterval, 500*time.Millisecond))
	defer fps.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-frame.C:
			if _, err := s.session.Recompute(false); err != nil {
				glog.Errorf("recompute failed: %v", err)
			}
		case <-fps.C:
			s.Notify("fps_update", map[string]interface{}{"fps": s.session.DispatchRate()})
		}
	}
}

// Hijacked websocket connections are not closed by the http server shutdown
func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	}
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// Serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{Addr: s.opts.Address, Handler: s.Handler()}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.RunLoops(loopCtx)

	errs := make(chan error, 1)
	go func() {
		glog.Infof("command server listening on %s", s.opts.Address)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		err := httpServer.Shutdown(shutdownCtx)
		s.closeClients()
		return err
	}
}
