// Package web serves session statistics over HTTP and streams the live game
// to websocket spectators.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/amalg/proutman/internal/game"
	"github.com/amalg/proutman/internal/stats"
)

var upgrader = websocket.Upgrader{
	// Spectating is read-only, so any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the HTTP side of a hosted game.
type Server struct {
	hub     *Hub
	stats   func() stats.Session
	state   func() game.GameState
	handler http.Handler
	srv     *http.Server
	ln      net.Listener
}

// NewServer builds the router. statsFn and stateFn supply the documents
// served by /stats and /state.
func NewServer(statsFn func() stats.Session, stateFn func() game.GameState) *Server {
	s := &Server{
		hub:   NewHub(),
		stats: statsFn,
		state: stateFn,
	}

	r := mux.NewRouter()
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	s.handler = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the spectator hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Broadcast pushes a state frame to every spectator.
func (s *Server) Broadcast(state game.GameState) {
	s.hub.Broadcast(state)
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}

	log.Printf("[WEB] Serving on %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[WEB] Serve error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.stats())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.state())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WEB] Upgrade failed: %v", err)
		return
	}
	log.Printf("[WEB] Spectator connected from %s", ws.RemoteAddr())

	sp := s.hub.add(ws)
	go s.hub.writePump(sp)
	go s.hub.readPump(sp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WEB] Failed to write response: %v", err)
	}
}
