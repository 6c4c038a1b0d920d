package game

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Spawn-provider kinds for echo bodies
const (
	EchoKind  = "Echo"
	DummyKind = "Dummy"
)

// EchoStep reports what an echo did during one tick
type EchoStep struct {
	Moved       bool
	DashStarted bool
	DashEnded   bool
	Shots       []float64 // facing angle of each projectile fired this tick
}

// EchoPlayer replays a LoopRecord frame by frame. A nil record makes it the
// stationary dummy target. Instances are built fresh for every loop.
type EchoPlayer struct {
	ID int

	record  *LoopRecord
	weapon  WeaponProfile
	cursor  int
	alive   bool
	dashing bool

	position mgl64.Vec2
	facing   float64
	bus      *SignalBus
}

// NewEcho creates a replay echo positioned on the record's first frame
func NewEcho(id int, record *LoopRecord, weapon WeaponProfile, bus *SignalBus) *EchoPlayer {
	e := &EchoPlayer{
		ID:     id,
		record: record,
		weapon: weapon,
		alive:  true,
		bus:    bus,
	}
	if record != nil && record.Len() > 0 {
		f := record.Frame(0)
		e.position = f.Position
		e.facing = f.Facing
	}
	return e
}

// NewDummy creates the stationary target at pos
func NewDummy(id int, pos mgl64.Vec2, bus *SignalBus) *EchoPlayer {
	return &EchoPlayer{
		ID:       id,
		alive:    true,
		position: pos,
		bus:      bus,
	}
}

// IsDummy reports whether the echo has no recording
func (e *EchoPlayer) IsDummy() bool {
	return e.record == nil
}

// Alive reports whether the echo still counts as a live enemy
func (e *EchoPlayer) Alive() bool {
	return e.alive
}

// Dashing reports whether the echo is in a replayed dash
func (e *EchoPlayer) Dashing() bool {
	return e.dashing
}

// Lethal reports whether touching the echo kills the player
func (e *EchoPlayer) Lethal() bool {
	return e.alive && !e.dashing
}

// Finished reports whether every recorded frame has been consumed
func (e *EchoPlayer) Finished() bool {
	return e.record == nil || e.cursor >= e.record.Len()
}

// Cursor returns the index of the next frame to replay
func (e *EchoPlayer) Cursor() int {
	return e.cursor
}

// Position returns the current replayed position
func (e *EchoPlayer) Position() mgl64.Vec2 {
	return e.position
}

// Facing returns the current replayed facing in degrees
func (e *EchoPlayer) Facing() float64 {
	return e.facing
}

// Weapon returns the profile the echo fires with
func (e *EchoPlayer) Weapon() WeaponProfile {
	return e.weapon
}

// Record returns the replayed record, nil for the dummy
func (e *EchoPlayer) Record() *LoopRecord {
	return e.record
}

// Advance replays the frame under the cursor and moves the cursor by one.
// Dead echoes and the dummy do nothing. A finished echo only closes a dash
// its record ended in, then stands still.
// Spread offsets are drawn from rng at fire time, so bullet angles vary
// between playbacks of the same record.
func (e *EchoPlayer) Advance(rng *rand.Rand) EchoStep {
	var step EchoStep
	if !e.alive || e.record == nil {
		return step
	}
	if e.Finished() {
		if e.dashing {
			e.dashing = false
			step.DashEnded = true
		}
		return step
	}

	f := e.record.Frame(e.cursor)
	e.position = f.Position
	e.facing = f.Facing
	step.Moved = true

	if f.IsDashing && !e.dashing {
		e.dashing = true
		step.DashStarted = true
	} else if !f.IsDashing && e.dashing {
		e.dashing = false
		step.DashEnded = true
	}

	if f.IsFiring && !f.IsDashing {
		step.Shots = ShotSpread(e.weapon, e.facing, rng)
	}

	e.cursor++
	return step
}

// Die marks the echo dead and emits one enemy-death signal.
// Returns false when it was already dead.
func (e *EchoPlayer) Die() bool {
	if !e.alive {
		return false
	}
	e.alive = false
	e.dashing = false
	if e.bus != nil {
		e.bus.Emit(Signal{Kind: SignalEnemyDeath, EchoID: e.ID, Position: e.position})
	}
	return true
}

// EchoSnapshot is an immutable copy of echo state for rendering
type EchoSnapshot struct {
	ID        int     `json:"id" msgpack:"id"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Facing    float64 `json:"facing" msgpack:"f"`
	Alive     bool    `json:"alive" msgpack:"al"`
	IsDashing bool    `json:"isDashing" msgpack:"d"`
	IsDummy   bool    `json:"isDummy" msgpack:"dm"`
	Finished  bool    `json:"finished" msgpack:"fin"`
	Weapon    string  `json:"weapon" msgpack:"w"`
	Color     string  `json:"color" msgpack:"c"`
}

// ToSnapshot creates an immutable snapshot for rendering
func (e *EchoPlayer) ToSnapshot() EchoSnapshot {
	return EchoSnapshot{
		ID:        e.ID,
		X:         e.position.X(),
		Y:         e.position.Y(),
		Facing:    e.facing,
		Alive:     e.alive,
		IsDashing: e.dashing,
		IsDummy:   e.IsDummy(),
		Finished:  e.Finished(),
		Weapon:    e.weapon.Name,
		Color:     e.weapon.Color,
	}
}
