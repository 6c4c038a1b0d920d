package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"sync"
	"time"

	"echo-loop/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-session labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in game tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.02},
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frame_render_duration_seconds",
		Help:    "Time spent rasterizing /api/frame.png",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1},
	})

	loopsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_loops_total",
		Help: "Resolved loops by outcome",
	}, []string{"result"}) // Bounded: "won", "lost"

	echoKills = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_echo_kills_total",
		Help: "Echoes (and dummies) destroyed",
	})

	playerDeaths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_player_deaths_total",
		Help: "Live player deaths",
	})

	echoesAlive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_echoes_alive",
		Help: "Live echoes in the current loop, dummy included",
	})

	loopNumber = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_loop_number",
		Help: "Current loop number",
	})

	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // loopback unless ALLOW_DEBUG_EXTERNAL=true
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugHandler serves pprof, /metrics and /health
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server.
// It binds to loopback only so pprof cannot be reached from outside.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if !isLoopbackAddr(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost for security")
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	handler := DebugHandler(cfg)

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MetricsObserver turns loop signals into counters. Subscribe it on the engine.
func MetricsObserver() game.Observer {
	return func(s game.Signal) {
		switch s.Kind {
		case game.SignalLoopStarted:
			loopNumber.Set(float64(s.Loop))
		case game.SignalLoopCompleted:
			loopsTotal.WithLabelValues("won").Inc()
		case game.SignalLoopFailed:
			loopsTotal.WithLabelValues("lost").Inc()
		case game.SignalEnemyDeath:
			echoKills.Inc()
		case game.SignalPlayerDeath:
			playerDeaths.Inc()
		}
	}
}

// RecordTick records tick timing for metrics
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordRender records render timing for metrics
func RecordRender(duration time.Duration) {
	renderDuration.Observe(duration.Seconds())
}

// UpdateEchoCount updates the live echo gauge
func UpdateEchoCount(count int) {
	echoesAlive.Set(float64(count))
}

var eventLogSeen struct {
	sync.Mutex
	total, dropped uint64
}

// UpdateEventLogStats adds the growth since the previous call to the
// event log counters
func UpdateEventLogStats(total, dropped uint64) {
	eventLogSeen.Lock()
	defer eventLogSeen.Unlock()

	if total > eventLogSeen.total {
		eventLogTotal.Add(float64(total - eventLogSeen.total))
		eventLogSeen.total = total
	}
	if dropped > eventLogSeen.dropped {
		eventLogDropped.Add(float64(dropped - eventLogSeen.dropped))
		eventLogSeen.dropped = dropped
	}
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
