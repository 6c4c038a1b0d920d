package game

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Bullet is a straight-line projectile fired by the player or an echo
type Bullet struct {
	ID      uint32
	Pos     mgl64.Vec2
	Dir     mgl64.Vec2 // unit vector
	Speed   float64    // units per second
	Damage  float64
	Hostile bool // fired by an echo; hurts only the live player
	Tag     string
	Color   string
	Handle  Handle
	Owner   int // echo id for hostile bullets, -1 for the player

	ttl float64
}

// Update moves the bullet and ages it.
// Returns false once it expired or left the map.
func (b *Bullet) Update(dt float64, half mgl64.Vec2) bool {
	b.Pos = b.Pos.Add(b.Dir.Mul(b.Speed * dt))
	b.ttl -= dt

	if b.ttl <= 0 {
		return false
	}
	if b.Pos.X() < -half.X() || b.Pos.X() > half.X() || b.Pos.Y() < -half.Y() || b.Pos.Y() > half.Y() {
		return false
	}
	return true
}

// Hits reports whether the bullet overlaps a circle at pos
func (b *Bullet) Hits(pos mgl64.Vec2, radius, bulletRadius float64) bool {
	return b.Pos.Sub(pos).Len() < radius+bulletRadius
}

// ShotSpread returns one facing angle per projectile of a shot.
// Each angle is facing plus an independent offset drawn from
// [-spread/2, spread/2]; offsets are drawn fresh for every shot.
func ShotSpread(w WeaponProfile, facing float64, rng *rand.Rand) []float64 {
	n := w.BulletCount
	if n < 1 {
		n = 1
	}
	angles := make([]float64, n)
	for i := range angles {
		offset := 0.0
		if w.SpreadAngle > 0 {
			offset = (rng.Float64() - 0.5) * w.SpreadAngle
		}
		angles[i] = facing + offset
	}
	return angles
}

// BulletSnapshot is an immutable copy of bullet state for rendering
type BulletSnapshot struct {
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	Angle   float64 `json:"angle" msgpack:"a"`
	Hostile bool    `json:"hostile" msgpack:"h"`
	Color   string  `json:"color" msgpack:"c"`
}

// ToSnapshot creates an immutable snapshot for rendering
func (b *Bullet) ToSnapshot() BulletSnapshot {
	return BulletSnapshot{
		X:       b.Pos.X(),
		Y:       b.Pos.Y(),
		Angle:   DegreesFromDirection(b.Dir),
		Hostile: b.Hostile,
		Color:   b.Color,
	}
}
