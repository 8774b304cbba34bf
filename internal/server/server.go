// Package server provides the local HTTP API for gesture mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"

	"github.com/talkheal/gesturemode/internal/app"
	"github.com/talkheal/gesturemode/internal/server/api"
	"github.com/talkheal/gesturemode/internal/store"
)

// Controller starts and stops gesture mode.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Status() app.Status
}

// FrameSource yields encoded preview frames.
type FrameSource interface {
	Next(ctx context.Context, after uint64) ([]byte, uint64, error)
}

// Config holds the server dependencies. Nil members disable their routes.
type Config struct {
	Log        logs.Log
	StaticDir  string
	Controller Controller
	Store      *store.Store
	Hooks      api.HookLookup
	Preview    FrameSource
}

// Server is the HTTP front of the app.
type Server struct {
	config Config
	log    logs.Log
	router *httprouter.Router
	hub    *Hub
	start  time.Time
	http   *http.Server
}

func New(config Config) *Server {
	log := config.Log
	if log == nil {
		log, _ = logs.NewLog()
	}
	s := &Server{
		config: config,
		log:    log,
		router: httprouter.New(),
		hub:    NewHub(log),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.handleHealth)
	s.router.GET("/api/events", s.hub.serveWS)

	if s.config.Controller != nil {
		s.router.GET("/api/gesture/status", s.handleStatus)
		s.router.POST("/api/gesture/start", s.handleStart)
		s.router.POST("/api/gesture/stop", s.handleStop)
	}

	if s.config.Store != nil {
		api.NewBindingHandler(s.config.Store, s.config.Hooks).Register(s.router)
		api.NewHistoryHandler(s.config.Store).Register(s.router)
	}

	if s.config.Preview != nil {
		s.router.Handler(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.StaticDir != "" {
		s.router.NotFound = http.FileServer(http.Dir(s.config.StaticDir))
	}
}

// Hub returns the websocket hub. Register it with the app as a Reporter.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	writeJSON(w, http.StatusOK, response)
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infof("Listening on %v", addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes websocket clients and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
