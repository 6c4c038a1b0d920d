package game

import (
	"github.com/go-gl/mathgl/mgl64"
)

// TickEvents are the one-shot facts a live player reports for a single tick.
// They are returned from Player.Step and consumed exactly once by the Recorder,
// so nothing stays latched across ticks.
type TickEvents struct {
	Fired       bool // a shot left the weapon during this tick
	Dashing     bool // the player was inside a dash during this tick
	DashStarted bool // the dash began this tick; feedback only, not recorded
}

// Recorder samples live player state into an ordered FrameSample buffer.
type Recorder struct {
	frames []FrameSample
	armed  bool
}

// NewRecorder creates a recorder with capacity hinted for one loop.
func NewRecorder(capacityHint int) *Recorder {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Recorder{frames: make([]FrameSample, 0, capacityHint)}
}

// Arm clears the buffer and starts sampling. Arming twice restarts the buffer.
func (r *Recorder) Arm() {
	r.frames = r.frames[:0]
	r.armed = true
}

// Disarm stops sampling; the buffer is kept.
func (r *Recorder) Disarm() {
	r.armed = false
}

// Armed reports whether the recorder is sampling.
func (r *Recorder) Armed() bool {
	return r.armed
}

// Sample appends one frame while armed. The events value is consumed here:
// each frame carries only what happened during this exact tick.
func (r *Recorder) Sample(pos mgl64.Vec2, facing float64, ev TickEvents) {
	if !r.armed {
		return
	}
	r.frames = append(r.frames, FrameSample{
		Position:  pos,
		Facing:    facing,
		IsFiring:  ev.Fired,
		IsDashing: ev.Dashing,
	})
}

// Len returns the number of captured frames.
func (r *Recorder) Len() int {
	return len(r.frames)
}

// Snapshot builds an immutable LoopRecord from the current buffer.
func (r *Recorder) Snapshot(weaponIndex int) *LoopRecord {
	return NewLoopRecord(weaponIndex, r.frames)
}
