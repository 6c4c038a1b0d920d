package config

import (
	"reflect"
	"testing"

	"echo-loop/internal/game"
)

// TestDefaultsMatchGameSettings tests that the stock config reproduces the engine defaults
func TestDefaultsMatchGameSettings(t *testing.T) {
	cfg := AppConfig{
		Loop:    DefaultLoop(),
		Arena:   DefaultArena(),
		Player:  DefaultPlayer(),
		Server:  DefaultServer(),
		Debug:   DefaultDebug(),
		Storage: DefaultStorage(),
		Audio:   DefaultAudio(),
	}

	got := cfg.GameSettings()
	want := game.DefaultSettings()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

// TestLoadFromEnv tests environment overrides
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TICK_RATE", "60")
	t.Setenv("LOOP_DURATION", "30")
	t.Setenv("MAP_SIZE", "30x20")
	t.Setenv("PORT", "8080")
	t.Setenv("RNG_SEED", "42")
	t.Setenv("PREFS_PATH", "/tmp/p.ini")
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("ARSENAL_PATH", "weapons.json")
	t.Setenv("MUSIC_ENABLED", "false")
	t.Setenv("MUSIC_VOLUME", "0.5")
	t.Setenv("MUSIC_PATH", "theme.ogg")

	cfg := Load()

	if cfg.Loop.TickRate != 60 || cfg.Loop.LoopDuration != 30 {
		t.Errorf("Unexpected loop config %+v", cfg.Loop)
	}
	if cfg.Arena.MapWidth != 30 || cfg.Arena.MapHeight != 20 {
		t.Errorf("Expected 30x20 map, got %vx%v", cfg.Arena.MapWidth, cfg.Arena.MapHeight)
	}
	if cfg.Server.Port != 8080 || cfg.Server.RNGSeed != 42 {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if cfg.Storage.PrefsPath != "/tmp/p.ini" || cfg.Storage.EventLogPath != "" || cfg.Storage.ArsenalPath != "weapons.json" {
		t.Errorf("Unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Audio.Enabled || cfg.Audio.Volume != 0.5 || cfg.Audio.MusicPath != "theme.ogg" {
		t.Errorf("Unexpected audio config %+v", cfg.Audio)
	}

	s := cfg.GameSettings()
	if s.Ticks(s.LoopDuration) != 1800 {
		t.Errorf("Expected 1800 loop ticks, got %d", s.Ticks(s.LoopDuration))
	}
}

// TestInvalidEnvFallsBack tests that malformed values keep defaults
func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("MAP_SIZE", "huge")
	t.Setenv("PORT", "-1")
	t.Setenv("MUSIC_ENABLED", "maybe")

	cfg := Load()
	if cfg.Loop.TickRate != 50 {
		t.Errorf("Expected default tick rate, got %d", cfg.Loop.TickRate)
	}
	if cfg.Arena.MapWidth != 25 || cfg.Arena.MapHeight != 25 {
		t.Errorf("Expected default map, got %vx%v", cfg.Arena.MapWidth, cfg.Arena.MapHeight)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}
	if !cfg.Audio.Enabled {
		t.Error("Expected audio to stay enabled")
	}
}

// TestParseSize tests MAP_SIZE formats
func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		w, h float64
		ok   bool
	}{
		{"25", 25, 25, true},
		{"30x20", 30, 20, true},
		{"40 X 10", 40, 10, true},
		{"0", 0, 0, false},
		{"10x", 0, 0, false},
		{"abc", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, ok := parseSize(tt.in)
			if ok != tt.ok || w != tt.w || h != tt.h {
				t.Errorf("parseSize(%q) = %v, %v, %v", tt.in, w, h, ok)
			}
		})
	}
}
