package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echo-loop/internal/game"
)

var _ game.Prefs = (*IniStore)(nil)

// TestMissingFileStartsEmpty tests the default on first run
func TestMissingFileStartsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.ini"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := s.GetInt(game.HighScoreKey, 0); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}

// TestFlushRoundTrip tests that a flushed value survives reopening
func TestFlushRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.ini")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	s.SetInt(game.HighScoreKey, 4600)
	if got := s.GetInt(game.HighScoreKey, 0); got != 4600 {
		t.Errorf("Expected in-memory 4600, got %d", got)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "[scores]") || !strings.Contains(string(data), "4600") {
		t.Errorf("Unexpected file contents:\n%s", data)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if got := reopened.GetInt(game.HighScoreKey, 0); got != 4600 {
		t.Errorf("Expected 4600 after reopen, got %d", got)
	}
}

// TestUnflushedValueIsLost tests that SetInt alone does not persist
func TestUnflushedValueIsLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.ini")
	s, _ := Open(path)
	s.SetInt(game.HighScoreKey, 900)

	reopened, _ := Open(path)
	if got := reopened.GetInt(game.HighScoreKey, 0); got != 0 {
		t.Errorf("Expected 0 without Flush, got %d", got)
	}
}

// TestMalformedValue tests the default for unparsable values
func TestMalformedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.ini")
	if err := os.WriteFile(path, []byte("[scores]\nHighScore = lots\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := s.GetInt(game.HighScoreKey, 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}
}

// TestMemoryOnlyStore tests the empty-path store
func TestMemoryOnlyStore(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.SetInt("x", 1)
	if err := s.Flush(); err != nil {
		t.Errorf("Expected no-op flush, got %v", err)
	}
	if s.GetInt("x", 0) != 1 {
		t.Error("Expected value kept in memory")
	}
}

// TestFlushError tests that write failures are reported
func TestFlushError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "prefs.ini")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.SetInt(game.HighScoreKey, 1)
	if err := s.Flush(); err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}

// TestHighScorePersistsAcrossSessions tests the store behind a real engine
func TestHighScorePersistsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.ini")
	store, _ := Open(path)

	e := game.NewEngine(game.DefaultSettings(), game.EngineDeps{Prefs: store, Seed: 3})
	defer e.Stop()
	e.StartNewLoop()
	for i := 0; i < 1000 && e.State() != game.StatePlaying; i++ {
		e.Step()
	}
	e.EndLoop(true)
	e.ConfirmNextLoop()
	for i := 0; i < 1000 && e.State() != game.StatePlaying; i++ {
		e.Step()
	}
	score := e.GetSnapshot().Score
	e.EndLoop(false)

	if score <= 0 {
		t.Fatalf("Expected a positive score, got %d", score)
	}
	reopened, _ := Open(path)
	if got := reopened.GetInt(game.HighScoreKey, 0); got != score {
		t.Errorf("Expected persisted high score %d, got %d", score, got)
	}
}
