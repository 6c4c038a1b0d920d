package game

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(DefaultSettings(), EngineDeps{Seed: 7})
	t.Cleanup(e.Stop)
	return e
}

func stepUntil(t *testing.T, e *Engine, want LoopState) {
	t.Helper()
	for i := 0; i < 1000 && e.State() != want; i++ {
		e.Step()
	}
	if e.State() != want {
		t.Fatalf("Expected %s, got %s", want, e.State())
	}
}

// TestNewEngine tests the initial session
func TestNewEngine(t *testing.T) {
	e := newTestEngine(t)

	if e.State() != StateIdle {
		t.Errorf("Expected Idle, got %s", e.State())
	}
	if e.SessionID() == "" {
		t.Error("Expected a session id")
	}
	if e.Seed() != 7 {
		t.Errorf("Expected seed 7, got %d", e.Seed())
	}
	if e.TickRate() != 50 {
		t.Errorf("Expected 50 TPS, got %d", e.TickRate())
	}
	if len(e.Arsenal()) != len(DefaultArsenal()) {
		t.Errorf("Expected default arsenal, got %d weapons", len(e.Arsenal()))
	}

	snap := e.GetSnapshot()
	if snap.State != StateIdle || snap.MapWidth != 25 || snap.MapHeight != 25 {
		t.Errorf("Unexpected initial snapshot: state=%s map=%vx%v", snap.State, snap.MapWidth, snap.MapHeight)
	}
}

// TestEngineStepPublishesSnapshots tests snapshot sequencing across ticks
func TestEngineStepPublishesSnapshots(t *testing.T) {
	e := newTestEngine(t)
	if err := e.StartNewLoop(); err != nil {
		t.Fatalf("StartNewLoop failed: %v", err)
	}

	before := e.GetSnapshot()
	if before.State != StateIntro || before.Loop != 1 {
		t.Fatalf("Expected loop 1 intro, got %s loop %d", before.State, before.Loop)
	}
	if len(before.Echoes) != 1 || !before.Echoes[0].IsDummy {
		t.Errorf("Expected only the dummy in loop 1, got %d echoes", len(before.Echoes))
	}

	e.Step()
	after := e.GetSnapshot()
	if after.Sequence <= before.Sequence {
		t.Errorf("Expected sequence to advance, got %d -> %d", before.Sequence, after.Sequence)
	}
	if after.TickNumber != 1 {
		t.Errorf("Expected tick 1, got %d", after.TickNumber)
	}

	// Mutating a copy must not leak into the next read
	after.Echoes[0].Alive = false
	if !e.GetSnapshot().Echoes[0].Alive {
		t.Error("Snapshot copies should be independent")
	}
}

// TestEngineInput tests held movement and the dash latch
func TestEngineInput(t *testing.T) {
	e := newTestEngine(t)
	e.StartNewLoop()
	stepUntil(t, e, StatePlaying)

	// Walk toward the center so the border never clamps
	start := e.GetSnapshot().Player
	dir := 1.0
	if start.X > 0 {
		dir = -1
	}
	e.SetInput(Input{Move: mgl64.Vec2{dir, 0}})
	for i := 0; i < 10; i++ {
		e.Step()
	}
	moved := e.GetSnapshot().Player
	if math.Abs(moved.X-start.X) < 0.9 {
		t.Errorf("Expected the player to move, got %f -> %f", start.X, moved.X)
	}

	// A tap released before the tick still dashes
	e.SetInput(Input{Dash: true})
	e.SetInput(Input{})
	e.Step()
	if !e.GetSnapshot().Player.IsDashing {
		t.Error("Latched dash should be consumed on the next tick")
	}
}

// TestEngineLoopHistory tests loop summaries after a win
func TestEngineLoopHistory(t *testing.T) {
	e := newTestEngine(t)
	e.StartNewLoop()
	stepUntil(t, e, StatePlaying)
	for i := 0; i < 10; i++ {
		e.Step()
	}
	e.EndLoop(true)

	history := e.LoopHistory()
	if len(history) != 1 {
		t.Fatalf("Expected 1 stored loop, got %d", len(history))
	}
	h := history[0]
	if h.Loop != 1 || h.Frames != 10 || h.Weapon == "" {
		t.Errorf("Unexpected summary %+v", h)
	}
	if h.Seconds != 0.2 {
		t.Errorf("Expected 0.2s, got %f", h.Seconds)
	}

	if rec, ok := e.LoopRecord(1); !ok || rec.Len() != 10 {
		t.Error("Expected record 1 with 10 frames")
	}
	if _, ok := e.LoopRecord(2); ok {
		t.Error("Loop 2 should not exist")
	}
	if e.State() != StateLoopTransition {
		t.Errorf("Expected LoopTransition, got %s", e.State())
	}

	e.ConfirmNextLoop()
	stepUntil(t, e, StateIntro)
	if snap := e.GetSnapshot(); snap.Loop != 2 || len(snap.Echoes) != 2 {
		t.Errorf("Expected loop 2 with 2 echoes, got loop %d with %d", snap.Loop, len(snap.Echoes))
	}
}

// TestEngineRestart tests session reset
func TestEngineRestart(t *testing.T) {
	e := newTestEngine(t)
	e.StartNewLoop()
	stepUntil(t, e, StatePlaying)
	e.EndLoop(true)

	prev := e.SessionID()
	if err := e.Restart(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if e.SessionID() == prev {
		t.Error("Restart should issue a new session id")
	}
	snap := e.GetSnapshot()
	if snap.Loop != 1 || snap.Score != 0 || snap.HistoryLen != 0 {
		t.Errorf("Expected a clean loop 1, got loop %d score %d history %d", snap.Loop, snap.Score, snap.HistoryLen)
	}
	if snap.SessionID != e.SessionID() {
		t.Error("Snapshot should carry the new session id")
	}
}

// TestEnginePause tests pause through the engine
func TestEnginePause(t *testing.T) {
	e := newTestEngine(t)
	e.StartNewLoop()
	stepUntil(t, e, StatePlaying)

	e.TogglePause()
	left := e.GetSnapshot().TimeLeft
	for i := 0; i < 20; i++ {
		e.Step()
	}
	if e.State() != StatePaused || e.GetSnapshot().TimeLeft != left {
		t.Error("Paused engine should freeze the loop timer")
	}
	e.TogglePause()
	if e.State() != StatePlaying {
		t.Errorf("Expected Playing, got %s", e.State())
	}
}

// TestEngineStartStop tests the ticker goroutine lifecycle
func TestEngineStartStop(t *testing.T) {
	e := newTestEngine(t)
	ticked := make(chan time.Duration, 1)
	e.OnTick = func(d time.Duration) {
		select {
		case ticked <- d:
		default:
		}
	}

	e.Start()
	e.Start()
	if !e.IsRunning() {
		t.Fatal("Engine should be running")
	}

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a tick within 2s")
	}

	e.Stop()
	e.Stop()
	if e.IsRunning() {
		t.Error("Engine should be stopped")
	}
}

// TestEngineAuditLog tests that signals reach the event log
func TestEngineAuditLog(t *testing.T) {
	e := newTestEngine(t)
	if err := e.StartEventLog(""); err != nil {
		t.Fatalf("StartEventLog failed: %v", err)
	}

	e.StartNewLoop()
	stepUntil(t, e, StatePlaying)
	e.EndLoop(true)

	seen := make(map[EventType]int)
	for _, ev := range e.GetEventLog().Recent(50) {
		seen[ev.Type]++
		if ev.SessionID != e.SessionID() {
			t.Errorf("Event %s has session %q", ev.Type, ev.SessionID)
		}
	}
	if seen[EventTypeLoopStart] != 1 {
		t.Errorf("Expected 1 loop_start, got %d", seen[EventTypeLoopStart])
	}
	if seen[EventTypeLoopWon] != 1 {
		t.Errorf("Expected 1 loop_won, got %d", seen[EventTypeLoopWon])
	}
	if seen[EventTypeStateChange] < 3 {
		t.Errorf("Expected Idle->Intro->Playing->LoopTransition changes, got %d", seen[EventTypeStateChange])
	}
}

// TestEngineSubscribe tests external observers
func TestEngineSubscribe(t *testing.T) {
	e := newTestEngine(t)
	var kinds []SignalKind
	e.Subscribe(func(s Signal) {
		kinds = append(kinds, s.Kind)
	})

	e.StartNewLoop()
	found := false
	for _, k := range kinds {
		if k == SignalLoopStarted {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected LoopStarted, got %v", kinds)
	}
}
