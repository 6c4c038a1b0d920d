package game

import (
	"github.com/go-gl/mathgl/mgl64"
)

// FrameSample is one fixed-step tick of sampled player state.
// Values are immutable after creation; playback order is capture order.
type FrameSample struct {
	Position  mgl64.Vec2 `json:"position" msgpack:"p"`
	Facing    float64    `json:"facing" msgpack:"f"` // degrees
	IsFiring  bool       `json:"isFiring" msgpack:"s"`
	IsDashing bool       `json:"isDashing" msgpack:"d"`
}

// LoopRecord bundles a finished recording with the weapon used that loop.
// Created once, at win resolution, and never mutated afterwards.
type LoopRecord struct {
	weaponIndex int
	frames      []FrameSample
}

// NewLoopRecord copies frames so later recorder reuse cannot rewrite history.
func NewLoopRecord(weaponIndex int, frames []FrameSample) *LoopRecord {
	owned := make([]FrameSample, len(frames))
	copy(owned, frames)
	return &LoopRecord{
		weaponIndex: weaponIndex,
		frames:      owned,
	}
}

// WeaponIndex returns the arsenal index active when the loop was recorded.
func (r *LoopRecord) WeaponIndex() int {
	return r.weaponIndex
}

// Len returns the number of recorded frames.
func (r *LoopRecord) Len() int {
	return len(r.frames)
}

// Frame returns the i-th frame. Callers must stay within [0, Len()).
func (r *LoopRecord) Frame(i int) FrameSample {
	return r.frames[i]
}

// Frames returns a copy of the recorded frames.
func (r *LoopRecord) Frames() []FrameSample {
	out := make([]FrameSample, len(r.frames))
	copy(out, r.frames)
	return out
}
