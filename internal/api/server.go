package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"echo-loop/internal/game"

	"github.com/go-chi/chi/v5"
)

// SnapshotInterval is how often the hub pushes game state
const SnapshotInterval = 100 * time.Millisecond

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for real-time updates.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates an API server around a running engine. The hub is
// created before the engine so it can be passed in as its presentation and
// feedback sink.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine *game.Engine, hub *WebSocketHub, renderer FrameRenderer) *Server {
	s := &Server{
		engine:      engine,
		wsHub:       hub,
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Renderer:    renderer,
		RateLimiter: s.rateLimiter,
	})
	hub.SetCommander(engine)

	// WebSocket routes need the hub instance, so they live outside NewRouter
	s.router.Get("/ws", hub.HandleWebSocket)

	return s
}

// Start runs the hub, the snapshot broadcaster and the HTTP listener.
// It blocks until the listener stops; a Stop-initiated shutdown returns nil.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, SnapshotInterval)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 State: http://localhost%s/api/state", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop shuts the listener down and stops background workers
func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}
