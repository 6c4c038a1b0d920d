package game

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"echo-loop/internal/game/spatial"
)

// MaxBullets caps live projectiles; the oldest are dropped first
const MaxBullets = 512

// ArenaRules are the collision and projectile constants
type ArenaRules struct {
	MapSize        mgl64.Vec2
	EchoRadius     float64
	BulletRadius   float64
	BulletLifetime float64 // seconds
}

// Arena owns live bullets and turns overlaps into signals.
// It never mutates score or loop state.
type Arena struct {
	rules    ArenaRules
	half     mgl64.Vec2
	bullets  []*Bullet
	grid     *spatial.SpatialGrid
	nextID   uint32
	spawner  SpawnProvider
	feedback FeedbackSink
	bus      *SignalBus
}

// NewArena creates an empty arena
func NewArena(rules ArenaRules, spawner SpawnProvider, feedback FeedbackSink, bus *SignalBus) *Arena {
	cell := 2.0
	if d := 2 * (rules.EchoRadius + rules.BulletRadius); d > cell {
		cell = d
	}
	return &Arena{
		rules:    rules,
		half:     rules.MapSize.Mul(0.5),
		bullets:  make([]*Bullet, 0, 64),
		grid:     spatial.NewSpatialGrid(rules.MapSize.X(), rules.MapSize.Y(), cell, 64),
		spawner:  spawner,
		feedback: feedback,
		bus:      bus,
	}
}

// Bullets returns the live bullets. The slice is owned by the arena.
func (a *Arena) Bullets() []*Bullet {
	return a.bullets
}

// FireShot spawns one bullet per angle from origin
func (a *Arena) FireShot(origin mgl64.Vec2, angles []float64, w WeaponProfile, hostile bool, owner int) {
	tag := w.BulletTag
	if hostile {
		tag = EnemyBulletTag
	} else if tag == "" {
		tag = PlayerBulletTag
	}

	for _, deg := range angles {
		if len(a.bullets) >= MaxBullets {
			a.remove(0)
		}
		a.nextID++
		b := &Bullet{
			ID:      a.nextID,
			Pos:     origin,
			Dir:     DirectionFromDegrees(deg),
			Speed:   w.BulletSpeed,
			Damage:  w.Damage,
			Hostile: hostile,
			Tag:     tag,
			Color:   w.Color,
			Owner:   owner,
			ttl:     a.rules.BulletLifetime,
		}
		b.Handle = a.spawner.Spawn(tag)
		a.bullets = append(a.bullets, b)
	}

	a.feedback.Notify(Cue{Kind: CueShot, Sound: w.ShootSound, Position: origin, Shake: w.ShakeIntensity})
}

// FirePlayer fires the player's weapon along its facing
func (a *Arena) FirePlayer(p *Player, rng *rand.Rand) {
	a.FireShot(p.Position, ShotSpread(p.Weapon, p.Facing, rng), p.Weapon, false, -1)
}

// Update moves bullets and resolves overlaps for one tick.
// Player bullets pass through dashing echoes and kill the rest. Hostile bullets and
// lethal contact kill a non-dashing player; at most one player-death signal
// is emitted per call.
func (a *Arena) Update(dt float64, player *Player, echoes []*EchoPlayer) {
	a.grid.Clear()
	for i, e := range echoes {
		if e.Alive() {
			pos := e.Position()
			a.grid.Insert(uint32(i), pos.X(), pos.Y())
		}
	}

	playerHit := false
	reach := a.rules.EchoRadius + a.rules.BulletRadius

	n := 0
	for _, b := range a.bullets {
		keep := b.Update(dt, a.half)

		if keep && b.Hostile {
			if player.Alive && !player.IsDashing() && b.Hits(player.Position, player.Radius(), a.rules.BulletRadius) {
				playerHit = true
				keep = false
			}
		} else if keep {
			for _, idx := range a.grid.QueryRadius(b.Pos.X(), b.Pos.Y(), reach) {
				e := echoes[idx]
				if !e.Alive() || e.Dashing() || !b.Hits(e.Position(), a.rules.EchoRadius, a.rules.BulletRadius) {
					continue
				}
				a.feedback.Notify(Cue{Kind: CueEnemyHit, Sound: SoundEnemyHit, Position: e.Position()})
				e.Die()
				keep = false
				break
			}
		}

		if keep {
			a.bullets[n] = b
			n++
		} else {
			a.spawner.Despawn(b.Handle)
		}
	}
	for i := n; i < len(a.bullets); i++ {
		a.bullets[i] = nil
	}
	a.bullets = a.bullets[:n]

	if !playerHit && player.Alive && !player.IsDashing() {
		touch := player.Radius() + a.rules.EchoRadius
		for _, idx := range a.grid.QueryRadius(player.Position.X(), player.Position.Y(), touch) {
			e := echoes[idx]
			if e.Lethal() && e.Position().Sub(player.Position).Len() < touch {
				playerHit = true
				break
			}
		}
	}

	if playerHit {
		a.bus.Emit(Signal{Kind: SignalPlayerDeath, Position: player.Position})
	}
}

// Clear despawns every bullet
func (a *Arena) Clear() {
	for _, b := range a.bullets {
		a.spawner.Despawn(b.Handle)
	}
	for i := range a.bullets {
		a.bullets[i] = nil
	}
	a.bullets = a.bullets[:0]
}

func (a *Arena) remove(i int) {
	a.spawner.Despawn(a.bullets[i].Handle)
	copy(a.bullets[i:], a.bullets[i+1:])
	a.bullets[len(a.bullets)-1] = nil
	a.bullets = a.bullets[:len(a.bullets)-1]
}
