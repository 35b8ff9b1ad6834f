package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlevelbuilder/agentd/internal/config"
	"github.com/nextlevelbuilder/agentd/internal/session"
	"github.com/nextlevelbuilder/agentd/pkg/protocol"
)

// Server hosts the loopback HTTP listener and upgrades /ws into session
// clients. Grounded on the teacher's gateway.Server: same
// upgrader/CheckOrigin/BuildMux/Start shape, with every managed-mode
// HTTP API handler dropped since this daemon exposes nothing but the
// session WebSocket and a health probe.
type Server struct {
	cfg    *config.Config
	hub    *session.Hub
	daemon *Daemon

	upgrader websocket.Upgrader
	mux      *http.ServeMux
	http     *http.Server
}

// NewServer builds a Server bound to cfg, backed by hub and daemon.
func NewServer(cfg *config.Config, hub *session.Hub, daemon *Daemon) *Server {
	s := &Server{cfg: cfg, hub: hub, daemon: daemon}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin allows non-browser clients (empty Origin, the common case
// for a loopback CLI/SDK client) and otherwise always allows — this
// daemon's real access control is the bearer token checked at connect
// time, not browser CORS, matching spec section 6's loopback-by-default
// posture rather than a multi-origin web deployment.
func (s *Server) checkOrigin(r *http.Request) bool {
	return true
}

// BuildMux constructs the HTTP mux, caching it for reuse.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	s.mux = mux
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := session.NewClient(conn, s.hub, s.daemon, s.cfg.Token, session.ServerInfo{
		Name:    "agentd",
		Version: fmt.Sprintf("%d", protocol.ProtocolVersion),
	})
	client.Run(r.Context())
	client.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","protocol":%d}`, protocol.ProtocolVersion)
}

// Start begins listening until ctx is cancelled, then shuts down with a
// 5s grace period — matching the teacher's Start().
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{Addr: addr, Handler: mux}

	slog.Info("agentd listening", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("agentd server: %w", err)
	}
	return nil
}

// StartTestServer binds s to a random loopback port and returns the
// address plus a start function the caller runs in its own goroutine,
// matching the teacher's StartTestServer helper used by its gateway
// integration tests.
func StartTestServer(s *Server, ctx context.Context) (addr string, start func()) {
	mux := s.BuildMux()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic("listen: " + err.Error())
	}

	s.http = &http.Server{Handler: mux}
	addr = ln.Addr().String()

	start = func() {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.http.Shutdown(shutdownCtx)
		}()
		s.http.Serve(ln)
	}

	return addr, start
}
