package game

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// SpawnRules are the placement constraints for the live player spawn
type SpawnRules struct {
	MapSize                mgl64.Vec2 // full width/height, centered at origin
	MinDistanceFromCenter  float64
	MinDistanceFromHistory float64
	Attempts               int
	FallbackRange          float64 // fallback draws from [-r, r) on each axis
}

// Validate reports missing or unusable bounds
func (r SpawnRules) Validate() error {
	if r.MapSize.X() <= 0 || r.MapSize.Y() <= 0 || r.FallbackRange <= 0 {
		return ErrInvalidSpawnBounds
	}
	return nil
}

// SpawnPlanner picks player spawn points by rejection sampling
type SpawnPlanner struct {
	rules SpawnRules
	rng   *rand.Rand
}

// NewSpawnPlanner creates a planner drawing from rng
func NewSpawnPlanner(rules SpawnRules, rng *rand.Rand) *SpawnPlanner {
	if rules.Attempts <= 0 {
		rules.Attempts = 100
	}
	return &SpawnPlanner{rules: rules, rng: rng}
}

// Rules returns the planner's constraints
func (p *SpawnPlanner) Rules() SpawnRules {
	return p.rules
}

// Pick draws up to Attempts candidates inside the map and returns the first
// one far enough from the center and from every point in history. When the
// budget runs out it returns a looser draw from the fallback range.
// fellBack reports which path produced the point.
func (p *SpawnPlanner) Pick(history []mgl64.Vec2) (point mgl64.Vec2, fellBack bool) {
	half := p.rules.MapSize.Mul(0.5)

	for i := 0; i < p.rules.Attempts; i++ {
		c := mgl64.Vec2{
			(p.rng.Float64()*2 - 1) * half.X(),
			(p.rng.Float64()*2 - 1) * half.Y(),
		}
		if c.Len() < p.rules.MinDistanceFromCenter {
			continue
		}
		if tooClose(c, history, p.rules.MinDistanceFromHistory) {
			continue
		}
		return c, false
	}

	r := p.rules.FallbackRange
	return mgl64.Vec2{
		(p.rng.Float64()*2 - 1) * r,
		(p.rng.Float64()*2 - 1) * r,
	}, true
}

func tooClose(c mgl64.Vec2, history []mgl64.Vec2, minDist float64) bool {
	for _, h := range history {
		if c.Sub(h).Len() < minDist {
			return true
		}
	}
	return false
}
