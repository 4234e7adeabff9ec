package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"social-relay/observability"
	"social-relay/services"
)

// Server mounts the websocket endpoint and the small HTTP read surface.
// Every accepted socket gets a uuid connection id and is wired into the
// relay for its whole lifetime.
type Server struct {
	log            *slog.Logger
	service        services.IRelayService
	stats          *observability.RelayStats
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

func NewServer(log *slog.Logger, service services.IRelayService, stats *observability.RelayStats, allowedOrigins []string) *Server {
	s := &Server{
		log:            log,
		service:        service,
		stats:          stats,
		allowedOrigins: allowedOrigins,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts same-origin requests and any configured origin. An
// empty allow-list accepts everything, for local development.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allowedOrigins) == 0 {
		return true
	}
	return lo.Contains(s.allowedOrigins, origin)
}

// Register mounts the handlers on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleSocket)
	mux.HandleFunc("/online", s.handleOnline)
	mux.HandleFunc("/notifications", s.handleNotifications)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, s.log, s.stats)
	s.service.Connect(client.ID, client)

	ctx := context.WithoutCancel(r.Context())
	go client.WritePump()

	client.ReadPump(ctx, s.service.HandleEvent)

	// Read loop ended: the socket is gone, tear everything down.
	s.service.Disconnect(ctx, client.ID)
	client.Close()
}

func (s *Server) handleOnline(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.service.OnlineUsers())
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("userId")
	if recipient == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	notifications, err := s.service.Notifications(recipient)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, notifications)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
