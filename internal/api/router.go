package api

import (
	"io"
	"net/http"
	"time"

	"echo-loop/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns a copy of the latest published snapshot
	GetSnapshot() game.GameSnapshot
	// LoopHistory summarizes the stored loop records
	LoopHistory() []game.LoopSummary
	// LoopRecord returns the record of loop n (1-based)
	LoopRecord(n int) (*game.LoopRecord, bool)
	// Arsenal returns the configured weapons
	Arsenal() game.Arsenal
	// HighScore returns the persisted best score
	HighScore() int
	// RecentEvents returns the latest audit events, oldest first
	RecentEvents(n int) []game.Event
	// GetEventLogStats returns audit log counters
	GetEventLogStats() map[string]interface{}

	StartNewLoop() error
	ConfirmNextLoop()
	TogglePause()
	Restart() error
	SetInput(in game.Input)
}

// FrameRenderer rasterizes a snapshot for /api/frame.png
type FrameRenderer interface {
	RenderPNG(w io.Writer, snap game.GameSnapshot) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the loop engine (required)
	Engine EngineInterface

	// Renderer draws /api/frame.png. If nil the endpoint returns 501.
	Renderer FrameRenderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, localhost on any port is allowed.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	renderer FrameRenderer
	limiter  *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE apart from the rate limiter's cleanup
// goroutine: no listeners are opened and no tick loop is started.
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: cfg.Renderer,
		limiter:  rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		// Read side
		r.Get("/state", h.handleGetState)
		r.Get("/loops", h.handleGetLoops)
		r.Get("/loops/{n}", h.handleGetLoop)
		r.Get("/weapons", h.handleGetWeapons)
		r.Get("/highscore", h.handleGetHighScore)
		r.Get("/events", h.handleGetEvents)
		r.Get("/stats", h.handleGetStats)
		r.Get("/frame.png", h.handleGetFrame)

		// Loop control
		r.Post("/loop/start", h.handleLoopStart)
		r.Post("/loop/confirm", h.handleLoopConfirm)
		r.Post("/pause", h.handlePause)
		r.Post("/restart", h.handleRestart)
		r.Post("/input", h.handleInput)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}

// metricsMiddleware records latency per route pattern (bounded cardinality)
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
