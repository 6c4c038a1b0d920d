package game

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// LoopState is the orchestrator's finite state
type LoopState uint8

const (
	StateIdle LoopState = iota // before the first loop of a session
	StateIntro
	StatePlaying
	StatePaused
	StateLoopTransition
	StateRewinding
	StateGameOver
)

func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIntro:
		return "intro"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateLoopTransition:
		return "loop_transition"
	case StateRewinding:
		return "rewinding"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MarshalText lets states appear by name in JSON
func (s LoopState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText
func (s *LoopState) UnmarshalText(text []byte) error {
	for st := StateIdle; st <= StateGameOver; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown loop state %q", text)
}

// Settings are the tunables of a session
type Settings struct {
	TickRate           int
	LoopDuration       float64 // seconds
	IntroDuration      float64 // seconds
	SummaryDelay       float64 // seconds before auto-advance from the win summary
	RewindDuration     float64 // seconds
	KillReward         int
	TimeBonusPerSecond int

	Spawn  SpawnRules
	Arena  ArenaRules
	Player PlayerTuning
}

// DefaultSettings returns the stock session tunables
func DefaultSettings() Settings {
	mapSize := mgl64.Vec2{25, 25}
	return Settings{
		TickRate:           50,
		LoopDuration:       60,
		IntroDuration:      2.5,
		SummaryDelay:       3,
		RewindDuration:     1.5,
		KillReward:         100,
		TimeBonusPerSecond: 100,
		Spawn: SpawnRules{
			MapSize:                mapSize,
			MinDistanceFromCenter:  3,
			MinDistanceFromHistory: 3,
			Attempts:               100,
			FallbackRange:          10,
		},
		Arena: ArenaRules{
			MapSize:        mapSize,
			EchoRadius:     0.5,
			BulletRadius:   0.15,
			BulletLifetime: 3,
		},
		Player: DefaultPlayerTuning(),
	}
}

// Ticks converts seconds to whole ticks at the configured rate
func (s Settings) Ticks(seconds float64) int {
	return int(math.Round(seconds * float64(s.TickRate)))
}

// Deps are the collaborators handed to the orchestrator.
// Nil fields are replaced with no-op implementations.
type Deps struct {
	Arsenal      Arsenal
	Spawner      SpawnProvider
	Presentation PresentationSink
	Feedback     FeedbackSink
	Prefs        Prefs
	Bus          *SignalBus
	Rand         *rand.Rand
}

// Orchestrator owns the loop lifecycle: score, timer, weapon choice, loop
// history and the active echo population. Every method must be called from
// the single tick thread.
type Orchestrator struct {
	settings Settings

	arsenal      Arsenal
	spawner      SpawnProvider
	presentation PresentationSink
	feedback     FeedbackSink
	prefs        Prefs
	bus          *SignalBus
	rng          *rand.Rand

	planner   *SpawnPlanner
	recorder  *Recorder
	scheduler *TickScheduler
	arena     *Arena
	player    *Player

	state          LoopState
	loop           int
	score          int
	remainingTicks int
	weaponIndex    int
	history        []*LoopRecord
	echoes         []*EchoPlayer
	echoHandles    []Handle
	spawnHistory   []mgl64.Vec2
	pendingAdvance *Task
	lastResult     LoopResult
}

// LoopResult summarizes the most recent resolution
type LoopResult struct {
	Loop          int     `json:"loop"`
	Won           bool    `json:"won"`
	BaseScore     int     `json:"baseScore"`
	TimeLeft      float64 `json:"timeLeft"`
	TimeBonus     int     `json:"timeBonus"`
	Total         int     `json:"total"`
	HighScore     int     `json:"highScore"`
	NewRecord     bool    `json:"newRecord"`
	LoopsSurvived int     `json:"loopsSurvived"`
}

// NewOrchestrator wires a session. The orchestrator subscribes to the bus
// before anything else so score and win checks run ahead of other observers.
func NewOrchestrator(settings Settings, deps Deps) *Orchestrator {
	if deps.Spawner == nil {
		deps.Spawner = &NopSpawner{}
	}
	if deps.Presentation == nil {
		deps.Presentation = NopPresentation{}
	}
	if deps.Feedback == nil {
		deps.Feedback = NopFeedback{}
	}
	if deps.Prefs == nil {
		deps.Prefs = NewMemoryPrefs()
	}
	if deps.Bus == nil {
		deps.Bus = NewSignalBus()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	o := &Orchestrator{
		settings:     settings,
		arsenal:      deps.Arsenal,
		spawner:      deps.Spawner,
		presentation: deps.Presentation,
		feedback:     deps.Feedback,
		prefs:        deps.Prefs,
		bus:          deps.Bus,
		rng:          deps.Rand,
		planner:      NewSpawnPlanner(settings.Spawn, deps.Rand),
		recorder:     NewRecorder(settings.Ticks(settings.LoopDuration)),
		scheduler:    NewTickScheduler(),
		player:       NewPlayer(settings.Player, settings.Spawn.MapSize),
	}
	o.arena = NewArena(settings.Arena, o.spawner, o.feedback, o.bus)
	o.bus.Subscribe(o.onSignal)
	return o
}

func (o *Orchestrator) validate() error {
	if o.settings.TickRate <= 0 {
		return ErrInvalidTickRate
	}
	if err := o.arsenal.Validate(); err != nil {
		return err
	}
	return o.settings.Spawn.Validate()
}

// StartNewLoop enters Intro for the next loop. It is honored from Idle and
// Rewinding only; other states ignore it. Configuration errors refuse the
// loop and leave every piece of state untouched.
func (o *Orchestrator) StartNewLoop() error {
	if o.state != StateIdle && o.state != StateRewinding {
		return nil
	}
	if err := o.validate(); err != nil {
		log.Printf("⚠️ Refusing to start loop %d: %v", o.loop+1, err)
		return err
	}

	o.loop++
	o.enterIntro()
	return nil
}

func (o *Orchestrator) enterIntro() {
	o.weaponIndex = o.rng.Intn(len(o.arsenal))
	weapon := o.arsenal[o.weaponIndex]

	spawn, fellBack := o.planner.Pick(o.spawnHistory)
	if fellBack {
		log.Printf("⚠️ Spawn constraints not met in %d attempts, using fallback point", o.planner.Rules().Attempts)
	}
	o.spawnHistory = append(o.spawnHistory, spawn)
	o.player.Respawn(spawn, weapon)

	o.arena.Clear()
	o.rebuildEchoes()

	o.setState(StateIntro)
	o.presentation.LoopIntro(o.loop, weapon.Name)
	o.feedback.Notify(Cue{Kind: CueLoopStart, Sound: SoundLoopStart, Position: spawn})
	o.feedback.Notify(Cue{Kind: CueWeaponLoad, Sound: weapon.LoadSound, Position: spawn})
	o.bus.Emit(Signal{Kind: SignalLoopStarted, Loop: o.loop, Position: spawn})

	o.scheduler.After(o.settings.Ticks(o.settings.IntroDuration), o.beginPlaying)
}

// rebuildEchoes tears down the previous population and creates a dummy plus
// one echo per stored record.
func (o *Orchestrator) rebuildEchoes() {
	for _, h := range o.echoHandles {
		o.spawner.Despawn(h)
	}

	o.echoes = make([]*EchoPlayer, 0, len(o.history)+1)
	o.echoHandles = make([]Handle, 0, len(o.history)+1)

	o.echoes = append(o.echoes, NewDummy(0, mgl64.Vec2{}, o.bus))
	o.echoHandles = append(o.echoHandles, o.spawner.Spawn(DummyKind))

	for i, rec := range o.history {
		w, ok := o.arsenal.GetOrFirst(rec.WeaponIndex())
		if !ok {
			log.Printf("⚠️ Echo %d: weapon index %d out of range, using %s", i+1, rec.WeaponIndex(), w.Name)
		}
		w.BulletTag = EnemyBulletTag
		o.echoes = append(o.echoes, NewEcho(i+1, rec, w, o.bus))
		o.echoHandles = append(o.echoHandles, o.spawner.Spawn(EchoKind))
	}
}

func (o *Orchestrator) beginPlaying() {
	if o.state != StateIntro {
		return
	}
	o.recorder.Arm()
	o.remainingTicks = o.settings.Ticks(o.settings.LoopDuration)
	o.setState(StatePlaying)
	log.Printf("🎮 Loop %d started with %s against %d echoes", o.loop, o.arsenal[o.weaponIndex].Name, len(o.echoes))
}

// Tick runs one fixed simulation step followed by due scheduled tasks.
// While Paused nothing advances, the scheduler included.
func (o *Orchestrator) Tick(in Input) {
	if o.state == StatePaused {
		return
	}
	if o.state == StatePlaying {
		o.simulate(in)
	}
	o.scheduler.Advance()
}

func (o *Orchestrator) simulate(in Input) {
	dt := 1.0 / float64(o.settings.TickRate)

	ev := o.player.Step(in, dt)
	o.recorder.Sample(o.player.Position, o.player.Facing, ev)
	if ev.DashStarted {
		o.feedback.Notify(Cue{Kind: CueDash, Sound: SoundDash, Position: o.player.Position})
	}
	if ev.Fired {
		o.arena.FirePlayer(o.player, o.rng)
	}

	for _, e := range o.echoes {
		step := e.Advance(o.rng)
		if step.DashStarted {
			o.feedback.Notify(Cue{Kind: CueDash, Sound: SoundDash, Position: e.Position()})
		}
		if len(step.Shots) > 0 {
			o.arena.FireShot(e.Position(), step.Shots, e.Weapon(), true, e.ID)
		}
	}

	o.arena.Update(dt, o.player, o.echoes)

	if o.state != StatePlaying {
		return
	}
	o.remainingTicks--
	if o.remainingTicks <= 0 {
		o.remainingTicks = 0
		o.EndLoop(false)
	}
}

func (o *Orchestrator) onSignal(s Signal) {
	switch s.Kind {
	case SignalEnemyDeath:
		if o.state != StatePlaying {
			return
		}
		o.score += o.settings.KillReward
		o.feedback.Notify(Cue{Kind: CueEnemyDeath, Sound: SoundEnemyDeath, Position: s.Position})
		o.bus.Emit(Signal{Kind: SignalScoreChanged, Loop: o.loop, Score: o.score, Delta: o.settings.KillReward})
		o.CheckWinCondition()
	case SignalPlayerDeath:
		if o.state != StatePlaying {
			return
		}
		o.player.Alive = false
		o.feedback.Notify(Cue{Kind: CuePlayerDeath, Position: s.Position})
		o.EndLoop(false)
	}
}

// CheckWinCondition resolves a win once no echo, the dummy included, is alive.
// Ignored outside Playing.
func (o *Orchestrator) CheckWinCondition() {
	if o.state != StatePlaying {
		return
	}
	if o.AliveEchoes() == 0 {
		o.EndLoop(true)
	}
}

// EndLoop resolves the current loop. Only the first call while Playing has
// any effect; stale or duplicate resolutions are ignored.
func (o *Orchestrator) EndLoop(isWin bool) {
	if o.state != StatePlaying {
		return
	}
	o.recorder.Disarm()
	if isWin {
		o.resolveWin()
	} else {
		o.resolveLoss()
	}
}

func (o *Orchestrator) resolveWin() {
	base := o.score
	timeLeft := o.RemainingSeconds()
	bonus := o.remainingTicks * o.settings.TimeBonusPerSecond / o.settings.TickRate
	o.score += bonus

	o.history = append(o.history, o.recorder.Snapshot(o.weaponIndex))
	o.lastResult = LoopResult{
		Loop:          o.loop,
		Won:           true,
		BaseScore:     base,
		TimeLeft:      timeLeft,
		TimeBonus:     bonus,
		Total:         o.score,
		LoopsSurvived: len(o.history),
	}

	o.setState(StateLoopTransition)
	log.Printf("🏆 Loop %d won: %d + %d time bonus = %d", o.loop, base, bonus, o.score)

	o.presentation.WinSummary(base, timeLeft, o.score)
	o.feedback.Notify(Cue{Kind: CueLoopCompleted, Sound: SoundWin, Position: o.player.Position})
	o.bus.Emit(Signal{Kind: SignalScoreChanged, Loop: o.loop, Score: o.score, Delta: bonus})
	o.bus.Emit(Signal{Kind: SignalLoopCompleted, Loop: o.loop, Score: o.score, Delta: bonus})

	o.pendingAdvance = o.scheduler.After(o.settings.Ticks(o.settings.SummaryDelay), o.enterRewinding)
}

func (o *Orchestrator) resolveLoss() {
	o.player.Alive = false

	high := o.prefs.GetInt(HighScoreKey, 0)
	isNew := o.score > high
	if isNew {
		high = o.score
		o.prefs.SetInt(HighScoreKey, high)
		if err := o.prefs.Flush(); err != nil {
			log.Printf("⚠️ Failed to persist high score: %v", err)
		}
	}

	o.lastResult = LoopResult{
		Loop:          o.loop,
		Total:         o.score,
		TimeLeft:      o.RemainingSeconds(),
		HighScore:     high,
		NewRecord:     isNew,
		LoopsSurvived: len(o.history),
	}

	o.setState(StateGameOver)
	log.Printf("💀 Game over on loop %d: score %d (high %d, new record: %v)", o.loop, o.score, high, isNew)

	o.presentation.GameOver(o.score, len(o.history), high, isNew)
	o.bus.Emit(Signal{Kind: SignalLoopFailed, Loop: o.loop, Score: o.score})
}

// ConfirmNextLoop skips the rest of the win summary delay
func (o *Orchestrator) ConfirmNextLoop() {
	if o.state != StateLoopTransition {
		return
	}
	if !o.pendingAdvance.Cancel() {
		return
	}
	o.enterRewinding()
}

func (o *Orchestrator) enterRewinding() {
	if o.state != StateLoopTransition {
		return
	}
	o.pendingAdvance = nil
	o.setState(StateRewinding)
	o.feedback.Notify(Cue{Kind: CueRewind, Sound: SoundLoopRewind, Position: o.player.Position})
	log.Printf("🔁 Rewinding into loop %d", o.loop+1)

	o.scheduler.After(o.settings.Ticks(o.settings.RewindDuration), func() {
		if err := o.StartNewLoop(); err != nil {
			log.Printf("⚠️ Next loop did not start: %v", err)
		}
	})
}

// TogglePause switches between Playing and Paused; other states ignore it
func (o *Orchestrator) TogglePause() {
	switch o.state {
	case StatePlaying:
		o.setState(StatePaused)
	case StatePaused:
		o.setState(StatePlaying)
	}
}

// Restart drops the session (history, score, echoes, pending tasks) and
// starts loop 1.
func (o *Orchestrator) Restart() error {
	if err := o.validate(); err != nil {
		log.Printf("⚠️ Refusing to restart: %v", err)
		return err
	}

	o.scheduler.Clear()
	o.pendingAdvance = nil
	o.recorder.Disarm()
	o.arena.Clear()
	for _, h := range o.echoHandles {
		o.spawner.Despawn(h)
	}
	o.echoes = nil
	o.echoHandles = nil
	o.history = nil
	o.spawnHistory = nil
	o.score = 0
	o.loop = 0
	o.remainingTicks = 0
	o.lastResult = LoopResult{}
	o.setState(StateIdle)
	o.bus.Emit(Signal{Kind: SignalScoreChanged, Score: 0})

	return o.StartNewLoop()
}

func (o *Orchestrator) setState(s LoopState) {
	if s == o.state {
		return
	}
	prev := o.state
	o.state = s
	o.bus.Emit(Signal{Kind: SignalStateChanged, Loop: o.loop, State: s, Previous: prev})
}

// State returns the current finite state
func (o *Orchestrator) State() LoopState { return o.state }

// Loop returns the current loop number, 0 before the first loop
func (o *Orchestrator) Loop() int { return o.loop }

// Score returns the cumulative score
func (o *Orchestrator) Score() int { return o.score }

// RemainingTicks returns the ticks left on the loop timer
func (o *Orchestrator) RemainingTicks() int { return o.remainingTicks }

// RemainingSeconds returns the loop timer in seconds
func (o *Orchestrator) RemainingSeconds() float64 {
	if o.settings.TickRate <= 0 {
		return 0
	}
	return float64(o.remainingTicks) / float64(o.settings.TickRate)
}

// HighScore returns the persisted best score
func (o *Orchestrator) HighScore() int {
	return o.prefs.GetInt(HighScoreKey, 0)
}

// Weapon returns this loop's weapon
func (o *Orchestrator) Weapon() WeaponProfile {
	if len(o.arsenal) == 0 {
		return WeaponProfile{}
	}
	w, _ := o.arsenal.GetOrFirst(o.weaponIndex)
	return w
}

// WeaponIndex returns this loop's arsenal index
func (o *Orchestrator) WeaponIndex() int { return o.weaponIndex }

// Arsenal returns the configured weapons
func (o *Orchestrator) Arsenal() Arsenal { return o.arsenal }

// History returns the stored loop records in loop order
func (o *Orchestrator) History() []*LoopRecord {
	out := make([]*LoopRecord, len(o.history))
	copy(out, o.history)
	return out
}

// Echoes returns the active echoes, dummy first
func (o *Orchestrator) Echoes() []*EchoPlayer {
	out := make([]*EchoPlayer, len(o.echoes))
	copy(out, o.echoes)
	return out
}

// AliveEchoes counts echoes still alive, the dummy included
func (o *Orchestrator) AliveEchoes() int {
	n := 0
	for _, e := range o.echoes {
		if e.Alive() {
			n++
		}
	}
	return n
}

// SpawnHistory returns every spawn point used this session
func (o *Orchestrator) SpawnHistory() []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(o.spawnHistory))
	copy(out, o.spawnHistory)
	return out
}

// Player returns the live player
func (o *Orchestrator) Player() *Player { return o.player }

// Arena returns the bullet arena
func (o *Orchestrator) Arena() *Arena { return o.arena }

// Recorder returns the live recorder
func (o *Orchestrator) Recorder() *Recorder { return o.recorder }

// Scheduler returns the tick scheduler
func (o *Orchestrator) Scheduler() *TickScheduler { return o.scheduler }

// Bus returns the signal bus
func (o *Orchestrator) Bus() *SignalBus { return o.bus }

// Settings returns the session tunables
func (o *Orchestrator) Settings() Settings { return o.settings }

// LastResult returns the most recent loop resolution
func (o *Orchestrator) LastResult() LoopResult { return o.lastResult }
