package audio

import (
	"time"

	"echo-loop/internal/game"

	"github.com/gopxl/beep"
)

// soundPatches describes every sound identity the core emits as a short
// synthesized phrase
var soundPatches = map[game.SoundID][]note{
	game.SoundShootPistol: {
		{freq: 720, endFreq: 360, dur: 60 * time.Millisecond, wave: WaveSquare, gain: 0.35},
	},
	game.SoundShootSpreadshooter: {
		{freq: 0, dur: 90 * time.Millisecond, wave: WaveNoise, gain: 0.4},
	},
	game.SoundShootSMG: {
		{freq: 960, endFreq: 640, dur: 35 * time.Millisecond, wave: WaveSquare, gain: 0.25},
	},
	game.SoundLoadPistol: {
		{freq: 440, dur: 50 * time.Millisecond, wave: WaveSquare, gain: 0.3},
		{freq: 660, dur: 70 * time.Millisecond, wave: WaveSquare, gain: 0.3},
	},
	game.SoundLoadSpreadshooter: {
		{freq: 220, dur: 60 * time.Millisecond, wave: WaveSaw, gain: 0.35},
		{freq: 0, dur: 60 * time.Millisecond, wave: WaveNoise, gain: 0.25},
		{freq: 330, dur: 80 * time.Millisecond, wave: WaveSaw, gain: 0.35},
	},
	game.SoundLoadSMG: {
		{freq: 880, dur: 30 * time.Millisecond, wave: WaveSquare, gain: 0.25},
		{freq: 880, dur: 30 * time.Millisecond, wave: WaveSquare, gain: 0.25},
		{freq: 1320, dur: 50 * time.Millisecond, wave: WaveSquare, gain: 0.25},
	},
	game.SoundDash: {
		{freq: 0, dur: 120 * time.Millisecond, wave: WaveNoise, gain: 0.2},
	},
	game.SoundEnemyHit: {
		{freq: 300, endFreq: 150, dur: 70 * time.Millisecond, wave: WaveSaw, gain: 0.4},
	},
	game.SoundEnemyDeath: {
		{freq: 523.25, dur: 80 * time.Millisecond, wave: WaveSquare, gain: 0.3},
		{freq: 392, dur: 80 * time.Millisecond, wave: WaveSquare, gain: 0.3},
		{freq: 261.63, endFreq: 130, dur: 160 * time.Millisecond, wave: WaveSquare, gain: 0.3},
	},
	game.SoundLoopRewind: {
		{freq: 1200, endFreq: 200, dur: 600 * time.Millisecond, wave: WaveSine, gain: 0.4},
	},
	game.SoundLoopStart: {
		{freq: 392, dur: 100 * time.Millisecond, wave: WaveSine, gain: 0.4},
		{freq: 523.25, dur: 100 * time.Millisecond, wave: WaveSine, gain: 0.4},
		{freq: 783.99, dur: 200 * time.Millisecond, wave: WaveSine, gain: 0.4},
	},
	game.SoundWin: {
		{freq: 523.25, dur: 120 * time.Millisecond, wave: WaveSquare, gain: 0.3},
		{freq: 659.25, dur: 120 * time.Millisecond, wave: WaveSquare, gain: 0.3},
		{freq: 783.99, dur: 120 * time.Millisecond, wave: WaveSquare, gain: 0.3},
		{freq: 1046.5, dur: 300 * time.Millisecond, wave: WaveSquare, gain: 0.3},
	},
}

// playerDeath has no sound identity in the core; it gets a low buzz
var playerDeath = []note{
	{freq: 110, endFreq: 55, dur: 450 * time.Millisecond, wave: WaveSaw, gain: 0.45},
}

// Bank builds streamers for cues at a fixed sample rate
type Bank struct {
	rate   beep.SampleRate
	volume float64
}

// NewBank creates a bank; volume is a linear master gain (0..1)
func NewBank(rate beep.SampleRate, volume float64) *Bank {
	return &Bank{rate: rate, volume: volume}
}

// Sound returns a fresh streamer for id, or nil if id is unknown
func (b *Bank) Sound(id game.SoundID) beep.Streamer {
	notes, ok := soundPatches[id]
	if !ok {
		return nil
	}
	return b.phrase(notes)
}

// ForCue picks the streamer for a cue. Cues without a sound identity
// fall back on their kind.
func (b *Bank) ForCue(c game.Cue) beep.Streamer {
	if c.Sound != "" {
		return b.Sound(c.Sound)
	}
	if c.Kind == game.CuePlayerDeath {
		return b.phrase(playerDeath)
	}
	return nil
}

func (b *Bank) phrase(notes []note) beep.Streamer {
	parts := make([]beep.Streamer, len(notes))
	for i, n := range notes {
		parts[i] = n.streamer(b.rate)
	}
	return newVolume(beep.Seq(parts...), b.volume)
}

// Duration is the length of a phrase for id
func Duration(id game.SoundID) time.Duration {
	var d time.Duration
	for _, n := range soundPatches[id] {
		d += n.dur
	}
	return d
}
