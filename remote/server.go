// Package remote exposes render parameters over a WebSocket so an external
// panel can tune a running viewer.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gltf-viewer/settings"
)

// Reply is sent back for every text message a client sends.
type Reply struct {
	OK     bool                   `json:"ok"`
	Error  string                 `json:"error,omitempty"`
	Params *settings.RenderParams `json:"params,omitempty"`
}

// Server accepts JSON parameter patches on /params. Patches are checked
// against the last published parameters and queued; the render loop drains
// them between frames.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	patches  chan []byte

	mu      sync.RWMutex
	current settings.RenderParams
}

func NewServer(initial settings.RenderParams, logger *slog.Logger) *Server {
	return &Server{
		logger:  logger,
		patches: make(chan []byte, 16),
		current: initial,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Patches delivers accepted patches in arrival order.
func (s *Server) Patches() <-chan []byte {
	return s.patches
}

// Publish records the parameters the renderer is currently using, so the
// next patch is validated against them and GET /params can report them.
func (s *Server) Publish(p settings.RenderParams) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
}

func (s *Server) Current() settings.RenderParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/params", s.handleParams)
	return mux
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		cur := s.Current()
		json.NewEncoder(w).Encode(Reply{OK: true, Params: &cur})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "err", err)
		return
	}
	s.logger.Info("control client connected", "remote", r.RemoteAddr)
	defer func() {
		conn.Close()
		s.logger.Info("control client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := conn.WriteJSON(s.accept(message)); err != nil {
			return
		}
	}
}

func (s *Server) accept(patch []byte) Reply {
	preview, err := settings.ApplyJSON(s.Current(), patch)
	if err != nil {
		return Reply{Error: err.Error()}
	}
	select {
	case s.patches <- append([]byte(nil), patch...):
		return Reply{OK: true, Params: &preview}
	default:
		return Reply{Error: "too many pending updates"}
	}
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("control server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
