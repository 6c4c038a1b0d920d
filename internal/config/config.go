// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for loop timing, arena geometry and
// server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"echo-loop/internal/game"
)

// =============================================================================
// LOOP CONFIGURATION
// =============================================================================

// LoopConfig holds the loop lifecycle timings and scoring.
type LoopConfig struct {
	TickRate           int     // Simulation ticks per second
	LoopDuration       float64 // Seconds per loop
	IntroDuration      float64 // Seconds of intro before Playing
	SummaryDelay       float64 // Seconds before the win summary auto-advances
	RewindDuration     float64 // Seconds of rewind before the next intro
	KillReward         int     // Points per echo kill
	TimeBonusPerSecond int     // Points per remaining second on a win
}

// DefaultLoop returns the default loop configuration.
func DefaultLoop() LoopConfig {
	return LoopConfig{
		TickRate:           50,
		LoopDuration:       60,
		IntroDuration:      2.5,
		SummaryDelay:       3,
		RewindDuration:     1.5,
		KillReward:         100,
		TimeBonusPerSecond: 100,
	}
}

// LoopFromEnv returns loop configuration with environment variable overrides.
func LoopFromEnv() LoopConfig {
	cfg := DefaultLoop()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if d := getEnvFloat("LOOP_DURATION", 0); d > 0 {
		cfg.LoopDuration = d
	}

	return cfg
}

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds map bounds, spawn rules and collision radii.
type ArenaConfig struct {
	MapWidth               float64
	MapHeight              float64
	MinDistanceFromCenter  float64
	MinDistanceFromHistory float64
	SpawnAttempts          int
	FallbackRange          float64 // fallback spawn draws from [-r, r) per axis
	PlayerRadius           float64
	EchoRadius             float64
	BulletRadius           float64
	BulletLifetime         float64 // seconds
}

// DefaultArena returns the default arena configuration.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		MapWidth:               25,
		MapHeight:              25,
		MinDistanceFromCenter:  3,
		MinDistanceFromHistory: 3,
		SpawnAttempts:          100,
		FallbackRange:          10,
		PlayerRadius:           0.5,
		EchoRadius:             0.5,
		BulletRadius:           0.15,
		BulletLifetime:         3,
	}
}

// ArenaFromEnv returns arena configuration with environment variable overrides.
// MAP_SIZE accepts "25" (square) or "30x20".
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()

	if v := os.Getenv("MAP_SIZE"); v != "" {
		if w, h, ok := parseSize(v); ok {
			cfg.MapWidth = w
			cfg.MapHeight = h
		}
	}

	return cfg
}

// =============================================================================
// PLAYER CONFIGURATION
// =============================================================================

// PlayerConfig holds live player movement tuning.
type PlayerConfig struct {
	MoveSpeed    float64 // units per second
	DashSpeed    float64 // units per second while dashing
	DashDuration float64 // seconds
	DashCooldown float64 // seconds
}

// DefaultPlayer returns the default player configuration.
func DefaultPlayer() PlayerConfig {
	return PlayerConfig{
		MoveSpeed:    5,
		DashSpeed:    18,
		DashDuration: 0.15,
		DashCooldown: 0.8,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int
	RNGSeed int64 // 0 picks a time-based seed
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v := os.Getenv("RNG_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.RNGSeed = seed
		}
	}

	return cfg
}

// DebugConfig holds the pprof/metrics listener settings.
type DebugConfig struct {
	Enabled bool
	Addr    string
}

// DefaultDebug returns the default debug configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled: true,
		Addr:    "127.0.0.1:6060", // localhost only
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	cfg.Enabled = getEnvBool("DEBUG_SERVER", cfg.Enabled)
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	return cfg
}

// =============================================================================
// STORAGE CONFIGURATION
// =============================================================================

// StorageConfig holds file locations.
type StorageConfig struct {
	PrefsPath    string // INI file holding the high score
	EventLogPath string // JSONL audit log, empty keeps events in memory
	ArsenalPath  string // optional JSON weapon override
}

// DefaultStorage returns the default storage configuration.
func DefaultStorage() StorageConfig {
	return StorageConfig{
		PrefsPath:    "prefs.ini",
		EventLogPath: "events.jsonl",
	}
}

// StorageFromEnv returns storage configuration with environment variable overrides.
func StorageFromEnv() StorageConfig {
	cfg := DefaultStorage()

	if v, ok := os.LookupEnv("PREFS_PATH"); ok {
		cfg.PrefsPath = v
	}
	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = v
	}
	if v := os.Getenv("ARSENAL_PATH"); v != "" {
		cfg.ArsenalPath = v
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds audio mixer settings.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool    // Whether cues and music play
	MusicPath  string  // Optional OGG background track
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.15,
		Enabled:    true,
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("MUSIC_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	cfg.Enabled = getEnvBool("MUSIC_ENABLED", cfg.Enabled)
	if p := os.Getenv("MUSIC_PATH"); p != "" {
		cfg.MusicPath = p
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Loop    LoopConfig
	Arena   ArenaConfig
	Player  PlayerConfig
	Server  ServerConfig
	Debug   DebugConfig
	Storage StorageConfig
	Audio   AudioConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Loop:    LoopFromEnv(),
		Arena:   ArenaFromEnv(),
		Player:  DefaultPlayer(),
		Server:  ServerFromEnv(),
		Debug:   DebugFromEnv(),
		Storage: StorageFromEnv(),
		Audio:   AudioFromEnv(),
	}
}

// GameSettings converts the configuration into engine settings.
func (c AppConfig) GameSettings() game.Settings {
	mapSize := mgl64.Vec2{c.Arena.MapWidth, c.Arena.MapHeight}
	return game.Settings{
		TickRate:           c.Loop.TickRate,
		LoopDuration:       c.Loop.LoopDuration,
		IntroDuration:      c.Loop.IntroDuration,
		SummaryDelay:       c.Loop.SummaryDelay,
		RewindDuration:     c.Loop.RewindDuration,
		KillReward:         c.Loop.KillReward,
		TimeBonusPerSecond: c.Loop.TimeBonusPerSecond,
		Spawn: game.SpawnRules{
			MapSize:                mapSize,
			MinDistanceFromCenter:  c.Arena.MinDistanceFromCenter,
			MinDistanceFromHistory: c.Arena.MinDistanceFromHistory,
			Attempts:               c.Arena.SpawnAttempts,
			FallbackRange:          c.Arena.FallbackRange,
		},
		Arena: game.ArenaRules{
			MapSize:        mapSize,
			EchoRadius:     c.Arena.EchoRadius,
			BulletRadius:   c.Arena.BulletRadius,
			BulletLifetime: c.Arena.BulletLifetime,
		},
		Player: game.PlayerTuning{
			MoveSpeed:    c.Player.MoveSpeed,
			DashSpeed:    c.Player.DashSpeed,
			DashDuration: c.Player.DashDuration,
			DashCooldown: c.Player.DashCooldown,
			Radius:       c.Arena.PlayerRadius,
		},
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func parseSize(v string) (float64, float64, bool) {
	parts := strings.SplitN(strings.ToLower(v), "x", 2)
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return w, w, true
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
