package game

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EngineDeps are the collaborators of a running engine.
// Zero values fall back to no-op implementations and a time-based seed.
type EngineDeps struct {
	Arsenal      Arsenal
	Spawner      SpawnProvider
	Presentation PresentationSink
	Feedback     FeedbackSink
	Prefs        Prefs
	Seed         int64
}

// LoopSummary describes one stored loop record
type LoopSummary struct {
	Loop        int     `json:"loop"`
	WeaponIndex int     `json:"weaponIndex"`
	Weapon      string  `json:"weapon"`
	Frames      int     `json:"frames"`
	Seconds     float64 `json:"seconds"`
}

// Engine drives the orchestrator at a fixed tick rate. A single mutex
// serializes ticks and every control call, so the core always runs as one
// logical thread.
type Engine struct {
	mu   sync.RWMutex
	orch *Orchestrator

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	tickCount uint64
	input     Input
	dashLatch bool

	snapshotPool *SnapshotPool
	eventLog     *EventLog
	limits       ResourceLimits

	sessionID string
	rngSeed   int64

	// OnTick runs after every tick with the tick duration, outside the lock
	OnTick func(d time.Duration)
}

// NewEngine builds a session around a fresh orchestrator
func NewEngine(settings Settings, deps EngineDeps) *Engine {
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	orch := NewOrchestrator(settings, Deps{
		Arsenal:      deps.Arsenal,
		Spawner:      deps.Spawner,
		Presentation: deps.Presentation,
		Feedback:     deps.Feedback,
		Prefs:        deps.Prefs,
		Rand:         rng,
	})

	e := &Engine{
		orch:         orch,
		tickRate:     settings.TickRate,
		stopChan:     make(chan struct{}),
		snapshotPool: NewSnapshotPool(DefaultLimits),
		eventLog:     NewEventLog(),
		limits:       DefaultLimits,
		sessionID:    uuid.NewString(),
		rngSeed:      seed,
	}
	orch.Bus().Subscribe(e.audit)
	e.publishSnapshot()
	return e
}

// Subscribe registers an observer on the signal bus. Observers run on the
// tick thread while the engine lock is held and must not call the engine.
func (e *Engine) Subscribe(fn Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.Bus().Subscribe(fn)
}

// StartEventLog begins writing the audit trail to path
func (e *Engine) StartEventLog(path string) error {
	return e.eventLog.Start(path)
}

// StopEventLog flushes and closes the audit log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// Start begins the ticker goroutine
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.tickRate <= 0 {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	e.stopChan = make(chan struct{})
	ticker, stop := e.ticker, e.stopChan
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.Step()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Echo loop engine started at %d TPS (session %s)", e.tickRate, e.sessionID)
}

// Stop halts the ticker and flushes the event log
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		e.eventLog.Stop()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	e.mu.Unlock()

	e.eventLog.Stop()
	log.Println("🛑 Echo loop engine stopped")
}

// IsRunning reports whether the ticker goroutine is active
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Step runs exactly one tick. The ticker calls it; tests and tools may too.
func (e *Engine) Step() {
	start := time.Now()

	e.mu.Lock()
	e.tickCount++
	in := e.input
	in.Dash = e.dashLatch
	e.dashLatch = false

	e.orch.Tick(in)
	e.publishSnapshot()
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(time.Since(start))
	}
}

// SetInput replaces the held input. A dash request stays latched until the
// next tick consumes it.
func (e *Engine) SetInput(in Input) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input = in
	if in.Dash {
		e.dashLatch = true
	}
}

// StartNewLoop begins the next loop from Idle or Rewinding
func (e *Engine) StartNewLoop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.orch.StartNewLoop()
	e.publishSnapshot()
	return err
}

// ConfirmNextLoop skips the win summary delay
func (e *Engine) ConfirmNextLoop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.ConfirmNextLoop()
	e.publishSnapshot()
}

// TogglePause switches between Playing and Paused
func (e *Engine) TogglePause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.TogglePause()
	e.publishSnapshot()
}

// EndLoop resolves the current loop; ignored outside Playing
func (e *Engine) EndLoop(isWin bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.EndLoop(isWin)
	e.publishSnapshot()
}

// CheckWinCondition re-evaluates the win condition
func (e *Engine) CheckWinCondition() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orch.CheckWinCondition()
	e.publishSnapshot()
}

// Restart begins a new session at loop 1
func (e *Engine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.sessionID
	e.sessionID = uuid.NewString()
	e.input = Input{}
	e.dashLatch = false
	if err := e.orch.Restart(); err != nil {
		e.sessionID = prev
		return err
	}
	e.publishSnapshot()
	log.Printf("🔄 Session restarted (%s)", e.sessionID)
	return nil
}

// publishSnapshot must be called with the lock held
func (e *Engine) publishSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.SessionID = e.sessionID
	fillSnapshot(snap, e.orch, e.limits)
	e.snapshotPool.PublishWrite()
}

// GetSnapshot returns a copy of the latest published snapshot
func (e *Engine) GetSnapshot() GameSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotPool.AcquireRead().Clone()
}

// State returns the orchestrator state
func (e *Engine) State() LoopState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orch.State()
}

// LoopHistory summarizes the stored loop records
func (e *Engine) LoopHistory() []LoopSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	history := e.orch.History()
	arsenal := e.orch.Arsenal()
	out := make([]LoopSummary, 0, len(history))
	for i, rec := range history {
		name := ""
		if w, ok := arsenal.Get(rec.WeaponIndex()); ok {
			name = w.Name
		}
		out = append(out, LoopSummary{
			Loop:        i + 1,
			WeaponIndex: rec.WeaponIndex(),
			Weapon:      name,
			Frames:      rec.Len(),
			Seconds:     float64(rec.Len()) / float64(e.tickRate),
		})
	}
	return out
}

// LoopRecord returns the stored record of loop n (1-based)
func (e *Engine) LoopRecord(n int) (*LoopRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	history := e.orch.History()
	if n < 1 || n > len(history) {
		return nil, false
	}
	return history[n-1], true
}

// Arsenal returns the configured weapons
func (e *Engine) Arsenal() Arsenal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append(Arsenal(nil), e.orch.Arsenal()...)
}

// HighScore returns the persisted best score
func (e *Engine) HighScore() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orch.HighScore()
}

// SessionID returns the current session id
func (e *Engine) SessionID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessionID
}

// TickRate returns ticks per second
func (e *Engine) TickRate() int {
	return e.tickRate
}

// Seed returns the seed of the session random source
func (e *Engine) Seed() int64 {
	return e.rngSeed
}

// GetEventLog returns the audit log
func (e *Engine) GetEventLog() *EventLog {
	return e.eventLog
}

// RecentEvents returns up to n of the latest audit events
func (e *Engine) RecentEvents(n int) []Event {
	return e.eventLog.Recent(n)
}

// GetEventLogStats returns audit log counters
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// audit mirrors signals into the event log. Runs on the tick thread.
func (e *Engine) audit(s Signal) {
	tick := e.tickCount
	sid := e.sessionID

	switch s.Kind {
	case SignalLoopStarted:
		e.eventLog.EmitSimple(EventTypeLoopStart, tick, sid, LoopStartPayload{
			Loop:   s.Loop,
			Weapon: e.orch.Weapon().Name,
			Echoes: len(e.orch.echoes),
			SpawnX: s.Position.X(),
			SpawnY: s.Position.Y(),
		})
	case SignalLoopCompleted:
		r := e.orch.LastResult()
		frames := 0
		if h := e.orch.history; len(h) > 0 {
			frames = h[len(h)-1].Len()
		}
		e.eventLog.EmitSimple(EventTypeLoopWon, tick, sid, LoopWonPayload{
			Loop:      r.Loop,
			BaseScore: r.BaseScore,
			TimeLeft:  r.TimeLeft,
			TimeBonus: r.TimeBonus,
			Total:     r.Total,
			Frames:    frames,
		})
	case SignalLoopFailed:
		r := e.orch.LastResult()
		e.eventLog.EmitSimple(EventTypeLoopLost, tick, sid, LoopLostPayload{
			Loop:          r.Loop,
			FinalScore:    r.Total,
			LoopsSurvived: r.LoopsSurvived,
			HighScore:     r.HighScore,
			NewRecord:     r.NewRecord,
		})
		if r.NewRecord {
			e.eventLog.EmitSimple(EventTypeHighScore, tick, sid, HighScorePayload{Score: r.HighScore})
		}
	case SignalEnemyDeath:
		e.eventLog.EmitSimple(EventTypeEchoKilled, tick, sid, EchoKilledPayload{
			Loop:   e.orch.Loop(),
			EchoID: s.EchoID,
			X:      s.Position.X(),
			Y:      s.Position.Y(),
			Score:  e.orch.Score(),
		})
	case SignalPlayerDeath:
		e.eventLog.EmitSimple(EventTypePlayerDeath, tick, sid, PlayerDeathPayload{
			Loop: e.orch.Loop(),
			X:    s.Position.X(),
			Y:    s.Position.Y(),
		})
	case SignalStateChanged:
		e.eventLog.EmitSimple(EventTypeStateChange, tick, sid, StateChangePayload{
			From: s.Previous,
			To:   s.State,
			Loop: s.Loop,
		})
	}
}
