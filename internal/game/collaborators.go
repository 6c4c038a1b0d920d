package game

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Configuration errors reported by StartNewLoop. The loop is refused, state is untouched.
var (
	ErrEmptyArsenal       = errors.New("arsenal has no weapons")
	ErrInvalidSpawnBounds = errors.New("spawn bounds must be positive")
	ErrInvalidTickRate    = errors.New("tick rate must be positive")
)

// HighScoreKey is the persistence key of the best score
const HighScoreKey = "HighScore"

// SoundID identifies a sound effect for the audio sink
type SoundID string

const (
	SoundShootPistol        SoundID = "Shoot_Pistol"
	SoundLoadPistol         SoundID = "Load_Pistol"
	SoundShootSpreadshooter SoundID = "Shoot_Spreadshooter"
	SoundLoadSpreadshooter  SoundID = "Load_Spreadshooter"
	SoundShootSMG           SoundID = "Shoot_SMG"
	SoundLoadSMG            SoundID = "Load_SMG"
	SoundDash               SoundID = "Dash"
	SoundEnemyHit           SoundID = "EnemyHit"
	SoundEnemyDeath         SoundID = "EnemyDeath"
	SoundLoopRewind         SoundID = "LoopRewind"
	SoundLoopStart          SoundID = "LoopStart"
	SoundWin                SoundID = "Win"
)

// AllSounds lists every sound identity the core can emit
func AllSounds() []SoundID {
	return []SoundID{
		SoundShootPistol, SoundLoadPistol,
		SoundShootSpreadshooter, SoundLoadSpreadshooter,
		SoundShootSMG, SoundLoadSMG,
		SoundDash, SoundEnemyHit, SoundEnemyDeath,
		SoundLoopRewind, SoundLoopStart, SoundWin,
	}
}

// CueKind classifies a discrete audio/VFX event
type CueKind uint8

const (
	CueShot CueKind = iota + 1
	CueWeaponLoad
	CueDash
	CueEnemyHit
	CueEnemyDeath
	CueLoopStart
	CueLoopCompleted
	CueRewind
	CuePlayerDeath
)

func (k CueKind) String() string {
	switch k {
	case CueShot:
		return "shot"
	case CueWeaponLoad:
		return "weapon_load"
	case CueDash:
		return "dash"
	case CueEnemyHit:
		return "enemy_hit"
	case CueEnemyDeath:
		return "enemy_death"
	case CueLoopStart:
		return "loop_start"
	case CueLoopCompleted:
		return "loop_completed"
	case CueRewind:
		return "rewind"
	case CuePlayerDeath:
		return "player_death"
	default:
		return "unknown"
	}
}

// Cue is a fire-and-forget notification for audio and VFX collaborators
type Cue struct {
	Kind     CueKind    `json:"kind"`
	Sound    SoundID    `json:"sound,omitempty"`
	Position mgl64.Vec2 `json:"position"`
	Shake    float64    `json:"shake,omitempty"`
}

// Handle is an opaque token returned by a SpawnProvider
type Handle uint64

// SpawnProvider owns visual entities (bullets, echo bodies).
// The core only tracks logical alive/dead state.
type SpawnProvider interface {
	Spawn(kind string) Handle
	Despawn(h Handle)
}

// PresentationSink receives one-way UI calls. Implementations must not block.
type PresentationSink interface {
	LoopIntro(loop int, weaponName string)
	WinSummary(baseScore int, timeLeft float64, total int)
	GameOver(finalScore, loopsSurvived, highScore int, isNewRecord bool)
}

// FeedbackSink receives audio/VFX cues. Implementations must not block.
type FeedbackSink interface {
	Notify(c Cue)
}

// Prefs persists the high-score scalar
type Prefs interface {
	GetInt(key string, def int) int
	SetInt(key string, value int)
	Flush() error
}

// NopSpawner hands out sequential handles and tracks nothing else
type NopSpawner struct {
	next Handle
}

func (s *NopSpawner) Spawn(string) Handle {
	s.next++
	return s.next
}

func (s *NopSpawner) Despawn(Handle) {}

// NopPresentation discards presentation calls
type NopPresentation struct{}

func (NopPresentation) LoopIntro(int, string)        {}
func (NopPresentation) WinSummary(int, float64, int) {}
func (NopPresentation) GameOver(int, int, int, bool) {}

// NopFeedback discards cues
type NopFeedback struct{}

func (NopFeedback) Notify(Cue) {}

// MemoryPrefs is an in-process Prefs used by tests and headless runs
type MemoryPrefs struct {
	values  map[string]int
	Flushes int
}

// NewMemoryPrefs creates an empty in-memory store
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{values: make(map[string]int)}
}

func (p *MemoryPrefs) GetInt(key string, def int) int {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

func (p *MemoryPrefs) SetInt(key string, value int) {
	p.values[key] = value
}

func (p *MemoryPrefs) Flush() error {
	p.Flushes++
	return nil
}
