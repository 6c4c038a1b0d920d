package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Input is the live player's intent for a single tick
type Input struct {
	Move mgl64.Vec2 `json:"move"` // desired direction, any length; clamped to unit
	Aim  mgl64.Vec2 `json:"aim"`  // facing direction; zero keeps the movement facing
	Fire bool       `json:"fire"` // trigger held
	Dash bool       `json:"dash"` // dash pressed this tick
}

// PlayerTuning holds movement constants for the live player
type PlayerTuning struct {
	MoveSpeed    float64 // units per second
	DashSpeed    float64 // units per second while dashing
	DashDuration float64 // seconds
	DashCooldown float64 // seconds, counted from dash start
	Radius       float64
}

// DefaultPlayerTuning returns the stock movement constants
func DefaultPlayerTuning() PlayerTuning {
	return PlayerTuning{
		MoveSpeed:    5,
		DashSpeed:    18,
		DashDuration: 0.15,
		DashCooldown: 0.8,
		Radius:       0.5,
	}
}

// Player is the live, input-driven combatant whose ticks are recorded
type Player struct {
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Facing   float64 // degrees
	Weapon   WeaponProfile
	Alive    bool

	tuning       PlayerTuning
	bounds       mgl64.Vec2 // half extents of the map
	fireCooldown float64
	dashCooldown float64
	dashTimer    float64
	dashDir      mgl64.Vec2
}

// NewPlayer creates a player confined to a map of the given full size
func NewPlayer(tuning PlayerTuning, mapSize mgl64.Vec2) *Player {
	return &Player{
		Alive:  true,
		tuning: tuning,
		bounds: mapSize.Mul(0.5),
	}
}

// Reset clears transient state: dash, cooldowns and velocity.
// Position, facing and weapon are left to the caller.
func (p *Player) Reset() {
	p.Velocity = mgl64.Vec2{}
	p.fireCooldown = 0
	p.dashCooldown = 0
	p.dashTimer = 0
	p.dashDir = mgl64.Vec2{}
	p.Alive = true
}

// Respawn resets transient state and moves the player to pos
func (p *Player) Respawn(pos mgl64.Vec2, weapon WeaponProfile) {
	p.Reset()
	p.Position = pos
	p.Weapon = weapon
}

// IsDashing reports whether a dash is in progress
func (p *Player) IsDashing() bool {
	return p.dashTimer > 0
}

// Radius returns the player's collision radius
func (p *Player) Radius() float64 {
	return p.tuning.Radius
}

// Step advances the player one fixed tick and returns what happened during it.
// The returned events are consumed by the recorder; nothing is latched on the player.
func (p *Player) Step(in Input, dt float64) TickEvents {
	var ev TickEvents
	if !p.Alive {
		return ev
	}

	if p.fireCooldown > 0 {
		p.fireCooldown -= dt
	}
	if p.dashCooldown > 0 {
		p.dashCooldown -= dt
	}

	move := in.Move
	if l := move.Len(); l > 1 {
		move = move.Mul(1 / l)
	}

	if in.Dash && p.dashTimer <= 0 && p.dashCooldown <= 0 {
		dir := move
		if dir.Len() == 0 {
			dir = DirectionFromDegrees(p.Facing)
		}
		p.dashDir = dir.Normalize()
		p.dashTimer = p.tuning.DashDuration
		p.dashCooldown = p.tuning.DashCooldown
		ev.DashStarted = true
	}

	if p.dashTimer > 0 {
		ev.Dashing = true
		p.Velocity = p.dashDir.Mul(p.tuning.DashSpeed)
		p.dashTimer -= dt
	} else {
		p.Velocity = move.Mul(p.tuning.MoveSpeed)
	}

	p.Position = p.clamp(p.Position.Add(p.Velocity.Mul(dt)))

	switch {
	case in.Aim.Len() > 0:
		p.Facing = DegreesFromDirection(in.Aim)
	case move.Len() > 0:
		p.Facing = DegreesFromDirection(move)
	}

	if in.Fire && !ev.Dashing && p.fireCooldown <= 0 {
		ev.Fired = true
		p.fireCooldown = p.Weapon.Cooldown()
	}

	return ev
}

func (p *Player) clamp(pos mgl64.Vec2) mgl64.Vec2 {
	mx := p.bounds.X() - p.tuning.Radius
	my := p.bounds.Y() - p.tuning.Radius
	return mgl64.Vec2{
		math.Max(-mx, math.Min(mx, pos.X())),
		math.Max(-my, math.Min(my, pos.Y())),
	}
}

// ToSnapshot creates an immutable copy for rendering
func (p *Player) ToSnapshot() PlayerSnapshot {
	return PlayerSnapshot{
		X:         p.Position.X(),
		Y:         p.Position.Y(),
		Facing:    p.Facing,
		IsDashing: p.IsDashing(),
		Alive:     p.Alive,
		Weapon:    p.Weapon.Name,
		Color:     p.Weapon.Color,
	}
}

// DegreesFromDirection converts a direction vector to a facing angle in degrees
func DegreesFromDirection(v mgl64.Vec2) float64 {
	return mgl64.RadToDeg(math.Atan2(v.Y(), v.X()))
}

// DirectionFromDegrees converts a facing angle in degrees to a unit vector
func DirectionFromDegrees(deg float64) mgl64.Vec2 {
	r := mgl64.DegToRad(deg)
	return mgl64.Vec2{math.Cos(r), math.Sin(r)}
}
