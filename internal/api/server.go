// Package api exposes the control server: REST endpoints for windows,
// profiles and sessions, plus a websocket event stream. The stream carries
// session metadata only, never pixel data.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AreteDriver/EVE-Overview/internal/config"
	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/scheduler"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

// Version reported by the health endpoint.
const Version = "0.2.0"

// WindowService lists and activates desktop windows.
type WindowService interface {
	List(ctx context.Context) ([]window.Handle, error)
	Activate(ctx context.Context, h window.Handle) error
}

// SessionService controls the running preview sessions.
type SessionService interface {
	Sessions() []scheduler.Status
	Pause(id string)
	Resume(id string)
}

// ProfileStore persists preview profiles. *config.Manager satisfies it.
type ProfileStore interface {
	ListProfiles() ([]string, error)
	LoadProfile(name string) (*config.Profile, error)
	SaveProfile(p *config.Profile) error
	DeleteProfile(name string) error
}

// Server is the HTTP control server.
type Server struct {
	router   *mux.Router
	windows  WindowService
	sessions SessionService
	profiles ProfileStore
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zerolog.Logger

	httpServer *http.Server
}

// NewServer wires the control server. hub may be shared with other
// publishers; a nil hub gets a private one.
func NewServer(windows WindowService, sessions SessionService, profiles ProfileStore, hub *Hub) *Server {
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{
		router:   mux.NewRouter(),
		windows:  windows,
		sessions: sessions,
		profiles: profiles,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.WithComponent("api"),
	}
	s.setupRoutes()
	// Built here, before Start's goroutine exists, so Shutdown never
	// races the field write.
	s.httpServer = &http.Server{Handler: s.router}
	return s
}

// Hub returns the event hub the server broadcasts on.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/windows", s.handleListWindows).Methods("GET")
	api.HandleFunc("/activate/{id}", s.handleActivate).Methods("POST")

	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleSaveProfile).Methods("PUT")
	api.HandleFunc("/profiles/{name}", s.handleDeleteProfile).Methods("DELETE")

	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}/pause", s.handlePauseSession).Methods("POST")
	api.HandleFunc("/sessions/{id}/resume", s.handleResumeSession).Methods("POST")

	api.HandleFunc("/events", s.handleEvents)
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start serves until Shutdown is called. A Shutdown issued before Start
// makes Start return immediately.
func (s *Server) Start(port int) error {
	s.httpServer.Addr = fmt.Sprintf(":%d", port)
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("Control server listening")

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server and disconnects event clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	handles, err := s.windows.List(r.Context())
	if err != nil {
		if errors.Is(err, window.ErrNoTool) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, handles)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := window.ParseID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid window id: %v", err), http.StatusBadRequest)
		return
	}

	err = s.windows.Activate(r.Context(), window.Handle{ID: id})
	switch {
	case errors.Is(err, window.ErrWindowGone):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, window.ErrNoTool):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast(Event{Type: EventWindowActivated, Detail: window.FormatHex(id)})
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.profiles.ListProfiles()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, names)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.LoadProfile(mux.Vars(r)["name"])
	if err != nil {
		if errors.Is(err, config.ErrProfileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p config.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// The URL names the profile; the body may omit it.
	if p.Name == "" {
		p.Name = mux.Vars(r)["name"]
	}
	if p.Name != mux.Vars(r)["name"] {
		http.Error(w, "profile name does not match URL", http.StatusBadRequest)
		return
	}

	if err := s.profiles.SaveProfile(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.hub.Broadcast(Event{Type: EventProfileChanged, Detail: p.Name})
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	err := s.profiles.DeleteProfile(name)
	switch {
	case errors.Is(err, config.ErrProtectedProfile):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case errors.Is(err, config.ErrProfileNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.hub.Broadcast(Event{Type: EventProfileChanged, Detail: name})
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sessions.Sessions())
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.sessions.Pause(id)
	s.hub.Broadcast(Event{Type: EventSessionPaused, SessionID: id})
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.sessions.Resume(id)
	s.hub.Broadcast(Event{Type: EventSessionResumed, SessionID: id})
	writeJSON(w, map[string]string{"status": "success"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// Drain the client; exit when it disconnects. All writes come from
	// the hub.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":        "healthy",
		"version":       Version,
		"event_clients": s.hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
