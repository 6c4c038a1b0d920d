package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const testDT = 1.0 / 50

func newTestPlayer(weapon WeaponProfile) *Player {
	p := NewPlayer(DefaultPlayerTuning(), mgl64.Vec2{25, 25})
	p.Respawn(mgl64.Vec2{}, weapon)
	return p
}

// TestPlayerMovement tests speed and facing from movement
func TestPlayerMovement(t *testing.T) {
	p := newTestPlayer(DefaultArsenal()[0])
	for i := 0; i < 50; i++ {
		p.Step(Input{Move: mgl64.Vec2{1, 0}}, testDT)
	}
	if math.Abs(p.Position.X()-5) > 1e-9 || p.Position.Y() != 0 {
		t.Errorf("Expected (5, 0) after 1s, got %v", p.Position)
	}
	if p.Facing != 0 {
		t.Errorf("Expected facing 0, got %f", p.Facing)
	}

	p.Step(Input{Move: mgl64.Vec2{0, 1}}, testDT)
	if math.Abs(p.Facing-90) > 1e-9 {
		t.Errorf("Expected facing 90, got %f", p.Facing)
	}

	p.Step(Input{Move: mgl64.Vec2{0, 1}, Aim: mgl64.Vec2{-1, 0}}, testDT)
	if math.Abs(p.Facing-180) > 1e-9 {
		t.Errorf("Aim should override movement facing, got %f", p.Facing)
	}
}

// TestPlayerClampedToMap tests the arena border
func TestPlayerClampedToMap(t *testing.T) {
	p := newTestPlayer(DefaultArsenal()[0])
	for i := 0; i < 500; i++ {
		p.Step(Input{Move: mgl64.Vec2{1, 1}}, testDT)
	}
	limit := 12.5 - DefaultPlayerTuning().Radius
	if p.Position.X() > limit || p.Position.Y() > limit {
		t.Errorf("Player escaped the map: %v", p.Position)
	}
}

// TestPlayerFireRate tests the weapon cooldown
func TestPlayerFireRate(t *testing.T) {
	p := newTestPlayer(DefaultArsenal()[0]) // 5 shots per second
	shots := 0
	for i := 0; i < 50; i++ {
		if p.Step(Input{Fire: true}, testDT).Fired {
			shots++
		}
	}
	if shots != 5 {
		t.Errorf("Expected 5 shots in 1s, got %d", shots)
	}
}

// TestPlayerDash tests dash timing, cooldown and fire suppression
func TestPlayerDash(t *testing.T) {
	p := newTestPlayer(DefaultArsenal()[0])

	ev := p.Step(Input{Move: mgl64.Vec2{1, 0}, Dash: true, Fire: true}, testDT)
	if !ev.Dashing || !ev.DashStarted {
		t.Fatal("Dash should start on the press tick")
	}
	if ev.Fired {
		t.Error("Player must not fire while dashing")
	}

	dashTicks := 1
	for i := 0; i < 20; i++ {
		ev := p.Step(Input{Move: mgl64.Vec2{1, 0}, Dash: true, Fire: true}, testDT)
		if ev.DashStarted {
			t.Fatalf("Dash restarted during cooldown on tick %d", i+2)
		}
		if ev.Dashing {
			dashTicks++
			if ev.Fired {
				t.Error("Player must not fire while dashing")
			}
		}
	}
	if dashTicks < 7 || dashTicks > 8 {
		t.Errorf("Expected a 0.15s dash (7-8 ticks), got %d", dashTicks)
	}
	if p.Position.X() <= 18*0.14 {
		t.Errorf("Dash should cover ground quickly, got x=%f", p.Position.X())
	}
}

// TestPlayerReset tests that transient state is cleared
func TestPlayerReset(t *testing.T) {
	p := newTestPlayer(DefaultArsenal()[0])
	p.Step(Input{Move: mgl64.Vec2{1, 0}, Dash: true}, testDT)
	p.Step(Input{Fire: true}, testDT)

	p.Respawn(mgl64.Vec2{3, 3}, DefaultArsenal()[2])
	if p.IsDashing() || p.Velocity != (mgl64.Vec2{}) {
		t.Error("Respawn should clear dash and velocity")
	}
	ev := p.Step(Input{Fire: true, Dash: true, Move: mgl64.Vec2{1, 0}}, testDT)
	if !ev.DashStarted {
		t.Error("Dash cooldown should be cleared by Reset")
	}
	if p.Weapon.Name != "SMG" {
		t.Errorf("Expected SMG after respawn, got %s", p.Weapon.Name)
	}
}

// TestDeadPlayerDoesNothing tests that a dead player reports no events
func TestDeadPlayerDoesNothing(t *testing.T) {
	p := newTestPlayer(DefaultArsenal()[0])
	p.Alive = false
	ev := p.Step(Input{Fire: true, Dash: true, Move: mgl64.Vec2{1, 0}}, testDT)
	if ev.Fired || ev.Dashing || p.Position != (mgl64.Vec2{}) {
		t.Error("Dead player should not act")
	}
}
