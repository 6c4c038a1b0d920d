package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits caps what a single snapshot may carry
type ResourceLimits struct {
	MaxEchoes  int
	MaxBullets int
}

// DefaultLimits are the snapshot caps used by the engine
var DefaultLimits = ResourceLimits{
	MaxEchoes:  64,
	MaxBullets: MaxBullets,
}

// PlayerSnapshot is an immutable copy of the live player for rendering
type PlayerSnapshot struct {
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Facing    float64 `json:"facing" msgpack:"f"`
	IsDashing bool    `json:"isDashing" msgpack:"d"`
	Alive     bool    `json:"alive" msgpack:"al"`
	Weapon    string  `json:"weapon" msgpack:"w"`
	Color     string  `json:"color" msgpack:"c"`
}

// GameSnapshot is a complete immutable view of one tick.
// Slices are preallocated by the pool and never grow past the limits.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence" msgpack:"seq"`
	Timestamp  time.Time `json:"timestamp" msgpack:"ts"`
	TickNumber uint64    `json:"tick" msgpack:"tick"`
	SessionID  string    `json:"sessionId" msgpack:"sid"`

	State     LoopState `json:"state" msgpack:"st"`
	Loop      int       `json:"loop" msgpack:"loop"`
	Score     int       `json:"score" msgpack:"score"`
	HighScore int       `json:"highScore" msgpack:"hi"`
	TimeLeft  float64   `json:"timeLeft" msgpack:"tl"`
	Weapon    string    `json:"weapon" msgpack:"wpn"`
	MapWidth  float64   `json:"mapWidth" msgpack:"mw"`
	MapHeight float64   `json:"mapHeight" msgpack:"mh"`

	Player  PlayerSnapshot   `json:"player" msgpack:"p"`
	Echoes  []EchoSnapshot   `json:"echoes" msgpack:"e"`
	Bullets []BulletSnapshot `json:"bullets" msgpack:"b"`

	AliveEchoes int        `json:"aliveEchoes" msgpack:"ae"`
	HistoryLen  int        `json:"historyLen" msgpack:"hl"`
	LastResult  LoopResult `json:"lastResult" msgpack:"lr"`
}

// Clone returns a deep copy safe to hand to another goroutine
func (s *GameSnapshot) Clone() GameSnapshot {
	out := *s
	out.Echoes = append([]EchoSnapshot(nil), s.Echoes...)
	out.Bullets = append([]BulletSnapshot(nil), s.Bullets...)
	return out
}

// SnapshotPool triple-buffers snapshots so the tick never allocates
type SnapshotPool struct {
	snapshots [3]GameSnapshot
	limits    ResourceLimits
	writeIdx  uint32
	readIdx   uint32
	sequence  uint64
}

// NewSnapshotPool creates a pool with preallocated slices
func NewSnapshotPool(limits ResourceLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}
	for i := range pool.snapshots {
		pool.snapshots[i] = GameSnapshot{
			Echoes:  make([]EchoSnapshot, 0, limits.MaxEchoes),
			Bullets: make([]BulletSnapshot, 0, limits.MaxBullets),
		}
	}
	return pool
}

// AcquireWrite returns the next write slot with slices reset (tick thread only)
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Echoes = snap.Echoes[:0]
	snap.Bullets = snap.Bullets[:0]
	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite makes the last written slot visible to readers
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest published snapshot
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// fillSnapshot copies orchestrator state into snap, respecting limits
func fillSnapshot(snap *GameSnapshot, o *Orchestrator, limits ResourceLimits) {
	snap.State = o.State()
	snap.Loop = o.Loop()
	snap.Score = o.Score()
	snap.HighScore = o.HighScore()
	snap.TimeLeft = o.RemainingSeconds()
	snap.Weapon = o.Weapon().Name
	size := o.Settings().Spawn.MapSize
	snap.MapWidth = size.X()
	snap.MapHeight = size.Y()
	snap.Player = o.Player().ToSnapshot()
	snap.AliveEchoes = o.AliveEchoes()
	snap.HistoryLen = len(o.history)
	snap.LastResult = o.LastResult()

	for _, e := range o.echoes {
		if len(snap.Echoes) >= limits.MaxEchoes {
			break
		}
		snap.Echoes = append(snap.Echoes, e.ToSnapshot())
	}
	for _, b := range o.arena.Bullets() {
		if len(snap.Bullets) >= limits.MaxBullets {
			break
		}
		snap.Bullets = append(snap.Bullets, b.ToSnapshot())
	}
}
