package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"echo-loop/internal/api"
	"echo-loop/internal/game"

	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// MockEngine implements api.EngineInterface for testing
type MockEngine struct {
	state     game.LoopState
	loop      int
	score     int
	highScore int
	history   []*game.LoopRecord
	events    []game.Event
	input     game.Input
	startErr  error

	starts, confirms, pauses, restarts int
}

func NewMockEngine() *MockEngine {
	return &MockEngine{state: game.StateIdle}
}

func (m *MockEngine) GetSnapshot() game.GameSnapshot {
	return game.GameSnapshot{
		State:     m.state,
		Loop:      m.loop,
		Score:     m.score,
		HighScore: m.highScore,
		MapWidth:  25,
		MapHeight: 25,
		Echoes:    []game.EchoSnapshot{{ID: 0, Alive: true, IsDummy: true}},
	}
}

func (m *MockEngine) LoopHistory() []game.LoopSummary {
	out := make([]game.LoopSummary, 0, len(m.history))
	for i, rec := range m.history {
		out = append(out, game.LoopSummary{Loop: i + 1, WeaponIndex: rec.WeaponIndex(), Frames: rec.Len()})
	}
	return out
}

func (m *MockEngine) LoopRecord(n int) (*game.LoopRecord, bool) {
	if n < 1 || n > len(m.history) {
		return nil, false
	}
	return m.history[n-1], true
}

func (m *MockEngine) Arsenal() game.Arsenal { return game.DefaultArsenal() }

func (m *MockEngine) HighScore() int { return m.highScore }

func (m *MockEngine) RecentEvents(n int) []game.Event {
	if n > len(m.events) {
		n = len(m.events)
	}
	return m.events[len(m.events)-n:]
}

func (m *MockEngine) GetEventLogStats() map[string]interface{} {
	return map[string]interface{}{"total_events": uint64(len(m.events)), "running": false}
}

func (m *MockEngine) StartNewLoop() error {
	m.starts++
	if m.startErr != nil {
		return m.startErr
	}
	if m.state == game.StateIdle {
		m.state = game.StateIntro
		m.loop++
	}
	return nil
}

func (m *MockEngine) ConfirmNextLoop() { m.confirms++ }

func (m *MockEngine) TogglePause() {
	m.pauses++
	switch m.state {
	case game.StatePlaying:
		m.state = game.StatePaused
	case game.StatePaused:
		m.state = game.StatePlaying
	}
}

func (m *MockEngine) Restart() error {
	m.restarts++
	m.loop = 1
	m.score = 0
	m.state = game.StateIntro
	return nil
}

func (m *MockEngine) SetInput(in game.Input) { m.input = in }

// stubRenderer writes a fixed body
type stubRenderer struct {
	err error
}

func (s stubRenderer) RenderPNG(w io.Writer, snap game.GameSnapshot) error {
	if s.err != nil {
		return s.err
	}
	_, err := fmt.Fprintf(w, "\x89PNG loop=%d", snap.Loop)
	return err
}

func newTestServer(t *testing.T, m *MockEngine, r api.FrameRenderer) *httptest.Server {
	t.Helper()
	limiter := api.NewIPRateLimiter(api.RateLimitConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		CleanupInterval:   time.Hour,
	})
	t.Cleanup(limiter.Stop)

	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Engine:         m,
		Renderer:       r,
		RateLimiter:    limiter,
		DisableLogging: true,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// ============================================================================
// API Endpoint Tests
// ============================================================================

// TestAPIGetState tests the snapshot endpoint
func TestAPIGetState(t *testing.T) {
	m := NewMockEngine()
	m.state = game.StatePlaying
	m.loop = 3
	m.score = 250
	ts := newTestServer(t, m, nil)

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	decode(t, resp, &result)

	if result["state"] != "playing" {
		t.Errorf("Expected state 'playing', got '%v'", result["state"])
	}
	if result["loop"] != float64(3) || result["score"] != float64(250) {
		t.Errorf("Unexpected loop/score %v/%v", result["loop"], result["score"])
	}
	echoes, ok := result["echoes"].([]interface{})
	if !ok || len(echoes) != 1 {
		t.Errorf("Expected 1 echo, got %v", result["echoes"])
	}
}

// TestAPILoops tests loop history and single record endpoints
func TestAPILoops(t *testing.T) {
	m := NewMockEngine()
	m.history = []*game.LoopRecord{
		game.NewLoopRecord(1, []game.FrameSample{{Position: mgl64.Vec2{1, 2}}, {Position: mgl64.Vec2{2, 2}, IsFiring: true}}),
	}
	ts := newTestServer(t, m, nil)

	resp, err := http.Get(ts.URL + "/api/loops")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var loops []game.LoopSummary
	decode(t, resp, &loops)
	if len(loops) != 1 || loops[0].Frames != 2 || loops[0].WeaponIndex != 1 {
		t.Errorf("Unexpected history %+v", loops)
	}

	resp, err = http.Get(ts.URL + "/api/loops/1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var rec struct {
		Loop   int                `json:"loop"`
		Frames []game.FrameSample `json:"frames"`
	}
	decode(t, resp, &rec)
	if len(rec.Frames) != 2 || !rec.Frames[1].IsFiring || rec.Frames[0].Position.X() != 1 {
		t.Errorf("Unexpected record %+v", rec)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/loops/2", http.StatusNotFound},
		{"/api/loops/0", http.StatusNotFound},
		{"/api/loops/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

// TestAPIGetWeapons tests the weapons endpoint
func TestAPIGetWeapons(t *testing.T) {
	ts := newTestServer(t, NewMockEngine(), nil)

	resp, err := http.Get(ts.URL + "/api/weapons")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var weapons []game.WeaponProfile
	decode(t, resp, &weapons)

	if len(weapons) != 3 || weapons[0].Name != "PISTOL" {
		t.Errorf("Expected the default arsenal, got %+v", weapons)
	}
}

// TestAPIHighScore tests the high score endpoint
func TestAPIHighScore(t *testing.T) {
	m := NewMockEngine()
	m.highScore = 4600
	ts := newTestServer(t, m, nil)

	resp, err := http.Get(ts.URL + "/api/highscore")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var result map[string]int
	decode(t, resp, &result)
	if result["highScore"] != 4600 {
		t.Errorf("Expected 4600, got %d", result["highScore"])
	}
}

// TestAPIEvents tests the recent events endpoint and its limit validation
func TestAPIEvents(t *testing.T) {
	m := NewMockEngine()
	for i := 0; i < 5; i++ {
		m.events = append(m.events, game.NewEvent(game.EventTypeEchoKilled, uint64(i), "s", nil))
	}
	ts := newTestServer(t, m, nil)

	resp, err := http.Get(ts.URL + "/api/events?limit=2")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var events []map[string]interface{}
	decode(t, resp, &events)
	if len(events) != 2 || events[1]["type"] != "echo_killed" {
		t.Errorf("Unexpected events %v", events)
	}

	resp, err = http.Get(ts.URL + "/api/events?limit=-3")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

// TestAPIStats tests the counters endpoint
func TestAPIStats(t *testing.T) {
	m := NewMockEngine()
	m.events = append(m.events, game.NewEvent(game.EventTypeLoopStart, 1, "s", nil))
	ts := newTestServer(t, m, nil)

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var stats struct {
		EventLog  map[string]interface{} `json:"eventLog"`
		RateLimit map[string]uint64      `json:"rateLimit"`
	}
	decode(t, resp, &stats)
	if stats.EventLog["total_events"] != float64(1) {
		t.Errorf("Expected 1 event, got %v", stats.EventLog["total_events"])
	}
	if stats.RateLimit["allowed"] == 0 {
		t.Errorf("Expected the stats request itself to be counted, got %v", stats.RateLimit)
	}
}

// TestAPIFrame tests the PNG endpoint with and without a renderer
func TestAPIFrame(t *testing.T) {
	tests := []struct {
		name     string
		renderer api.FrameRenderer
		want     int
	}{
		{"no renderer", nil, http.StatusNotImplemented},
		{"renderer ok", stubRenderer{}, http.StatusOK},
		{"renderer error", stubRenderer{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, NewMockEngine(), tt.renderer)
			resp, err := http.Get(ts.URL + "/api/frame.png")
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
			if tt.want == http.StatusOK && resp.Header.Get("Content-Type") != "image/png" {
				t.Errorf("Expected image/png, got %s", resp.Header.Get("Content-Type"))
			}
		})
	}
}

// TestAPILoopControl tests the control endpoints
func TestAPILoopControl(t *testing.T) {
	m := NewMockEngine()
	ts := newTestServer(t, m, nil)

	resp, err := http.Post(ts.URL+"/api/loop/start", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var ack map[string]interface{}
	decode(t, resp, &ack)
	if ack["state"] != "intro" || ack["loop"] != float64(1) {
		t.Errorf("Unexpected ack %v", ack)
	}

	m.state = game.StatePlaying
	resp, _ = http.Post(ts.URL+"/api/pause", "application/json", nil)
	decode(t, resp, &ack)
	if ack["state"] != "paused" {
		t.Errorf("Expected paused, got %v", ack["state"])
	}

	resp, _ = http.Post(ts.URL+"/api/loop/confirm", "application/json", nil)
	resp.Body.Close()
	resp, _ = http.Post(ts.URL+"/api/restart", "application/json", nil)
	resp.Body.Close()

	if m.starts != 1 || m.pauses != 1 || m.confirms != 1 || m.restarts != 1 {
		t.Errorf("Unexpected call counts start=%d pause=%d confirm=%d restart=%d",
			m.starts, m.pauses, m.confirms, m.restarts)
	}
}

// TestAPILoopStartRefused tests configuration errors surfacing as 422
func TestAPILoopStartRefused(t *testing.T) {
	m := NewMockEngine()
	m.startErr = game.ErrEmptyArsenal
	ts := newTestServer(t, m, nil)

	resp, err := http.Post(ts.URL+"/api/loop/start", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var result map[string]string
	decode(t, resp, &result)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", resp.StatusCode)
	}
	if result["error"] == "" {
		t.Error("Expected an error message")
	}
}

// TestAPIInput tests input decoding and validation
func TestAPIInput(t *testing.T) {
	m := NewMockEngine()
	ts := newTestServer(t, m, nil)

	body := bytes.NewReader([]byte(`{"move": [1, 0], "aim": [0, -1], "fire": true, "dash": true}`))
	resp, err := http.Post(ts.URL+"/api/input", "application/json", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	want := game.Input{Move: mgl64.Vec2{1, 0}, Aim: mgl64.Vec2{0, -1}, Fire: true, Dash: true}
	if m.input != want {
		t.Errorf("Expected %+v, got %+v", want, m.input)
	}

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid}`},
		{"wrong vector shape", `{"move": "left"}`},
		{"oversized body", `{"fire": true, "pad": "` + string(bytes.Repeat([]byte("x"), 2048)) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/input", "application/json", bytes.NewReader([]byte(tt.body)))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

// ============================================================================
// Middleware Tests
// ============================================================================

// TestAPICORSHeaders verifies CORS headers are set correctly
func TestAPICORSHeaders(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Engine:         NewMockEngine(),
		DisableLogging: true,
		CORSOrigins:    []string{"http://test.example.com"},
	}))
	defer ts.Close()

	req, _ := http.NewRequest("GET", ts.URL+"/api/state", nil)
	req.Header.Set("Origin", "http://test.example.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://test.example.com" {
		t.Errorf("Expected Access-Control-Allow-Origin 'http://test.example.com', got '%s'", got)
	}
}

// TestAPIRateLimiting verifies rate limiting works
func TestAPIRateLimiting(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Engine: NewMockEngine(),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	}))
	defer ts.Close()

	var gotRateLimited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			gotRateLimited = true
			break
		}
	}

	if !gotRateLimited {
		t.Error("Expected to be rate limited after burst exceeded")
	}
}

// BenchmarkAPIGetState benchmarks the state endpoint
func BenchmarkAPIGetState(b *testing.B) {
	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Engine:          NewMockEngine(),
		DisableLogging:  true,
		RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1e9, Burst: 1e9, CleanupInterval: time.Hour},
	}))
	defer ts.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			b.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
	}
}
