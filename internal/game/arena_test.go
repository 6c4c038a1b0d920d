package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type arenaRig struct {
	arena   *Arena
	bus     *SignalBus
	spawner *countingSpawner
	fb      *recordingFeedback
	deaths  int
	kills   int
}

func newArenaRig() *arenaRig {
	r := &arenaRig{
		bus:     NewSignalBus(),
		spawner: newCountingSpawner(),
		fb:      &recordingFeedback{},
	}
	r.bus.Subscribe(func(s Signal) {
		switch s.Kind {
		case SignalPlayerDeath:
			r.deaths++
		case SignalEnemyDeath:
			r.kills++
		}
	})
	r.arena = NewArena(DefaultSettings().Arena, r.spawner, r.fb, r.bus)
	return r
}

// TestPlayerBulletKillsEcho tests the player shot path against the dummy
func TestPlayerBulletKillsEcho(t *testing.T) {
	r := newArenaRig()
	p := newTestPlayer(DefaultArsenal()[0])
	p.Position = mgl64.Vec2{-4, 0}
	dummy := NewDummy(0, mgl64.Vec2{}, r.bus)
	echoes := []*EchoPlayer{dummy}

	r.arena.FireShot(p.Position, []float64{0}, p.Weapon, false, -1)
	if r.spawner.liveOf(PlayerBulletTag) != 1 {
		t.Fatalf("Expected one spawned bullet, got %d", r.spawner.liveOf(PlayerBulletTag))
	}

	for i := 0; i < 50 && dummy.Alive(); i++ {
		r.arena.Update(testDT, p, echoes)
	}

	if dummy.Alive() {
		t.Fatal("Dummy should be hit")
	}
	if r.kills != 1 {
		t.Errorf("Expected one enemy death signal, got %d", r.kills)
	}
	if len(r.arena.Bullets()) != 0 || r.spawner.liveOf(PlayerBulletTag) != 0 {
		t.Error("Bullet should be consumed and despawned")
	}
	if r.fb.count(CueShot) != 1 || r.fb.count(CueEnemyHit) != 1 {
		t.Errorf("Expected shot and hit cues, got %d/%d", r.fb.count(CueShot), r.fb.count(CueEnemyHit))
	}
}

// TestPlayerBulletPassesDashingEcho tests that a dashing echo is intangible to bullets
func TestPlayerBulletPassesDashingEcho(t *testing.T) {
	r := newArenaRig()
	p := newTestPlayer(DefaultArsenal()[0])
	p.Position = mgl64.Vec2{-4, 0}

	rec := NewLoopRecord(0, []FrameSample{
		{Position: mgl64.Vec2{}, IsDashing: true},
		{Position: mgl64.Vec2{}, IsDashing: true},
	})
	e := NewEcho(1, rec, DefaultArsenal()[0], r.bus)
	e.Advance(nil)
	if !e.Dashing() {
		t.Fatal("Echo should be dashing")
	}

	r.arena.FireShot(p.Position, []float64{0}, p.Weapon, false, -1)
	for i := 0; i < 50 && len(r.arena.Bullets()) > 0; i++ {
		r.arena.Update(testDT, p, []*EchoPlayer{e})
	}
	if !e.Alive() || r.kills != 0 {
		t.Errorf("Expected dashing echo to survive, alive=%v kills=%d", e.Alive(), r.kills)
	}
	if r.fb.count(CueEnemyHit) != 0 {
		t.Errorf("Expected no hit cue, got %d", r.fb.count(CueEnemyHit))
	}

	// once the dash is over the same shot lands
	e.Advance(nil)
	e.Advance(nil)
	if e.Dashing() {
		t.Fatal("Echo should have left its dash")
	}
	r.arena.FireShot(p.Position, []float64{0}, p.Weapon, false, -1)
	for i := 0; i < 50 && e.Alive(); i++ {
		r.arena.Update(testDT, p, []*EchoPlayer{e})
	}
	if e.Alive() || r.kills != 1 {
		t.Errorf("Expected echo killed after its dash, alive=%v kills=%d", e.Alive(), r.kills)
	}
}

// TestHostileBulletKillsPlayer tests enemy fire and the dash exemption
func TestHostileBulletKillsPlayer(t *testing.T) {
	tests := []struct {
		name      string
		dash      bool
		wantDeath bool
	}{
		{"standing player dies", false, true},
		{"dashing player is spared", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newArenaRig()
			p := newTestPlayer(DefaultArsenal()[0])
			if tt.dash {
				p.Step(Input{Move: mgl64.Vec2{0, 1}, Dash: true}, testDT)
			}

			// Bullet already overlapping the player
			r.arena.FireShot(p.Position, []float64{0}, DefaultArsenal()[0], true, 1)
			r.arena.Update(testDT, p, nil)

			if (r.deaths == 1) != tt.wantDeath {
				t.Errorf("Expected death=%v, got %d death signals", tt.wantDeath, r.deaths)
			}
		})
	}
}

// TestHostileBulletIgnoresEchoes tests that echo fire never kills echoes
func TestHostileBulletIgnoresEchoes(t *testing.T) {
	r := newArenaRig()
	p := newTestPlayer(DefaultArsenal()[0])
	p.Position = mgl64.Vec2{10, 10}
	dummy := NewDummy(0, mgl64.Vec2{}, r.bus)

	r.arena.FireShot(mgl64.Vec2{-3, 0}, []float64{0}, DefaultArsenal()[0], true, 1)
	for i := 0; i < 50; i++ {
		r.arena.Update(testDT, p, []*EchoPlayer{dummy})
	}
	if !dummy.Alive() {
		t.Error("Hostile bullets must not hit echoes")
	}
}

// TestContactWithEcho tests lethal touch and the ghost exemptions
func TestContactWithEcho(t *testing.T) {
	r := newArenaRig()
	p := newTestPlayer(DefaultArsenal()[0])
	p.Position = mgl64.Vec2{0.5, 0}

	dummy := NewDummy(0, mgl64.Vec2{}, r.bus)
	r.arena.Update(testDT, p, []*EchoPlayer{dummy})
	if r.deaths != 1 {
		t.Fatalf("Touching a lethal echo should kill, got %d signals", r.deaths)
	}

	// ghost echo
	r = newArenaRig()
	rec := NewLoopRecord(0, []FrameSample{{Position: mgl64.Vec2{}, IsDashing: true}})
	ghost := NewEcho(1, rec, DefaultArsenal()[0], r.bus)
	ghost.Advance(nil)
	r.arena.Update(testDT, p, []*EchoPlayer{ghost})
	if r.deaths != 0 {
		t.Error("Dashing echo should be intangible")
	}

	// dashing player
	r = newArenaRig()
	p.Step(Input{Move: mgl64.Vec2{0, 1}, Dash: true}, testDT)
	p.Position = mgl64.Vec2{0.5, 0}
	r.arena.Update(testDT, p, []*EchoPlayer{NewDummy(0, mgl64.Vec2{}, r.bus)})
	if r.deaths != 0 {
		t.Error("Dashing player should pass through echoes")
	}
}

// TestBulletsExpire tests lifetime and map bounds
func TestBulletsExpire(t *testing.T) {
	r := newArenaRig()
	p := newTestPlayer(DefaultArsenal()[0])
	p.Position = mgl64.Vec2{10, 10}

	r.arena.FireShot(mgl64.Vec2{}, []float64{90}, DefaultArsenal()[0], false, -1)
	for i := 0; i < 200; i++ {
		r.arena.Update(testDT, p, nil)
	}
	if len(r.arena.Bullets()) != 0 {
		t.Errorf("Expected bullets to expire, %d left", len(r.arena.Bullets()))
	}

	r.arena.FireShot(mgl64.Vec2{}, []float64{0, 90, 180}, DefaultArsenal()[0], false, -1)
	r.arena.Clear()
	if r.spawner.liveOf(PlayerBulletTag) != 0 {
		t.Error("Clear should despawn every bullet")
	}
}
