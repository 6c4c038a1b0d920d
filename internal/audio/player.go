package audio

import (
	"log"
	"sync"
	"time"

	"echo-loop/internal/game"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// MaxVoices caps concurrently playing cues
const MaxVoices = 12

// Config holds cue player settings
type Config struct {
	SampleRate int
	Volume     float64 // master volume for cues (0..1)
	Enabled    bool
	MusicPath  string // optional OGG Vorbis background track
	MusicLevel float64
}

// CuePlayer turns feedback cues into synthesized sounds on the speaker.
// It implements game.FeedbackSink. Notify never blocks on audio output.
type CuePlayer struct {
	mu      sync.Mutex
	cfg     Config
	rate    beep.SampleRate
	bank    *Bank
	mixer   *beep.Mixer
	music   *MusicPlayer
	started bool

	// guards mixer against the speaker goroutine
	lock, unlock func()

	played  uint64
	dropped uint64
}

// NewCuePlayer creates a player. Audio output starts with Start.
func NewCuePlayer(cfg Config) *CuePlayer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	rate := beep.SampleRate(cfg.SampleRate)
	return &CuePlayer{
		cfg:    cfg,
		rate:   rate,
		bank:   NewBank(rate, cfg.Volume),
		mixer:  &beep.Mixer{},
		lock:   speaker.Lock,
		unlock: speaker.Unlock,
	}
}

// Start opens the speaker and begins mixing. Failure leaves the player
// silent; the game keeps running without sound.
func (p *CuePlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || !p.cfg.Enabled {
		return nil
	}

	if err := speaker.Init(p.rate, p.rate.N(50*time.Millisecond)); err != nil {
		log.Printf("⚠️ Audio disabled: %v", err)
		return err
	}

	if p.cfg.MusicPath != "" {
		p.music = NewMusicPlayer(p.cfg.MusicPath, p.cfg.MusicLevel, p.rate)
		if p.music.IsLoaded() {
			p.mixer.Add(p.music)
		}
	}

	speaker.Play(p.mixer)
	p.started = true
	log.Printf("🔊 Audio started at %d Hz", p.cfg.SampleRate)
	return nil
}

// Stop silences all voices and releases the speaker
func (p *CuePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	speaker.Clear()
	if p.music != nil {
		p.music.Close()
	}
	speaker.Close()
	p.started = false
}

// Notify implements game.FeedbackSink
func (p *CuePlayer) Notify(c game.Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	s := p.bank.ForCue(c)
	if s == nil {
		return
	}
	p.add(s)
}

// add must be called with mu held
func (p *CuePlayer) add(s beep.Streamer) {
	p.lock()
	defer p.unlock()

	if p.mixer.Len() >= MaxVoices {
		p.dropped++
		return
	}
	p.mixer.Add(s)
	p.played++
}

// SetMusicEnabled toggles the background track
func (p *CuePlayer) SetMusicEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.music != nil {
		p.music.SetEnabled(on)
	}
}

// Stats returns cues played and cues dropped by the voice cap
func (p *CuePlayer) Stats() (played, dropped uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played, p.dropped
}
