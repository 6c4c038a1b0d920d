package audio

import (
	"log"
	"os"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/vorbis"
)

// MusicPlayer streams an OGG Vorbis track on a loop. It decodes on demand
// rather than holding the whole PCM track in memory.
//
// If the file fails to load the player streams silence, so the game
// continues with sound effects only.
type MusicPlayer struct {
	mu sync.Mutex

	streamer  beep.StreamSeekCloser
	format    beep.Format
	resampled beep.Streamer

	volume  float64
	enabled bool
	loaded  bool

	filePath   string
	targetRate beep.SampleRate
}

// NewMusicPlayer opens filePath for looping playback at rate
func NewMusicPlayer(filePath string, volume float64, rate beep.SampleRate) *MusicPlayer {
	mp := &MusicPlayer{
		filePath:   filePath,
		volume:     clampUnit(volume),
		enabled:    true,
		targetRate: rate,
	}

	if err := mp.load(); err != nil {
		log.Printf("⚠️ Background music disabled: %v", err)
		mp.loaded = false
	}

	return mp
}

func (mp *MusicPlayer) load() error {
	file, err := os.Open(mp.filePath)
	if err != nil {
		return err
	}

	streamer, format, err := vorbis.Decode(file)
	if err != nil {
		file.Close()
		return err
	}

	mp.streamer = streamer
	mp.format = format
	mp.loaded = true

	log.Printf("✅ Background music loaded: %s", mp.filePath)
	log.Printf("   Sample rate: %d Hz, Channels: %d", format.SampleRate, format.NumChannels)

	if format.SampleRate != mp.targetRate {
		log.Printf("   Resampling from %d Hz to %d Hz", format.SampleRate, mp.targetRate)
		mp.resampled = beep.Resample(4, format.SampleRate, mp.targetRate, mp.streamer)
	} else {
		mp.resampled = mp.streamer
	}

	return nil
}

// Stream implements beep.Streamer. It never drains: at the end of the
// track it seeks back to the start, and when disabled or unloaded it
// yields silence.
func (mp *MusicPlayer) Stream(samples [][2]float64) (int, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if !mp.loaded || !mp.enabled || mp.resampled == nil {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	n, ok := mp.resampled.Stream(samples)
	if !ok || n < len(samples) {
		if err := mp.streamer.Seek(0); err != nil {
			log.Printf("⚠️ Music loop seek failed: %v", err)
			mp.loaded = false
		} else if n < len(samples) {
			m, _ := mp.resampled.Stream(samples[n:])
			n += m
		}
		for i := n; i < len(samples); i++ {
			samples[i] = [2]float64{}
		}
	}

	vol := mp.volume
	for i := range samples {
		samples[i][0] *= vol
		samples[i][1] *= vol
	}
	return len(samples), true
}

// Err implements beep.Streamer
func (mp *MusicPlayer) Err() error {
	return nil
}

// SetVolume adjusts the music volume (0.0 to 1.0)
func (mp *MusicPlayer) SetVolume(v float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.volume = clampUnit(v)
}

// SetEnabled enables or disables music playback without closing the stream
func (mp *MusicPlayer) SetEnabled(e bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.enabled = e
}

// IsLoaded returns true if music was successfully loaded
func (mp *MusicPlayer) IsLoaded() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.loaded
}

// Close releases the decoder and file
func (mp *MusicPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.loaded = false
	if mp.streamer != nil {
		return mp.streamer.Close()
	}
	return nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
