// Package prefs persists small player preferences (the high score) in an INI file.
package prefs

import (
	"fmt"
	"strconv"
	"sync"

	"gopkg.in/ini.v1"
)

// ScoresSection is the INI section holding score keys
const ScoresSection = "scores"

// IniStore is a file-backed game.Prefs. Values live in memory until Flush.
type IniStore struct {
	mu   sync.Mutex
	path string
	file *ini.File
}

// Open loads path, starting empty when the file does not exist yet.
// An empty path yields a store whose Flush is a no-op.
func Open(path string) (*IniStore, error) {
	opts := ini.LoadOptions{
		Loose:                   true,
		InsensitiveSections:     true,
		SkipUnrecognizableLines: true,
	}

	var (
		f   *ini.File
		err error
	)
	if path == "" {
		f = ini.Empty(opts)
	} else {
		f, err = ini.LoadSources(opts, path)
		if err != nil {
			return nil, fmt.Errorf("load prefs %s: %w", path, err)
		}
	}

	return &IniStore{path: path, file: f}, nil
}

// GetInt returns the stored value or def when missing or malformed
func (s *IniStore) GetInt(key string, def int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Section(ScoresSection).Key(key).MustInt(def)
}

// SetInt stores value in memory
func (s *IniStore) SetInt(key string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Section(ScoresSection).Key(key).SetValue(strconv.Itoa(value))
}

// Flush writes the file to disk
func (s *IniStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	if err := s.file.SaveTo(s.path); err != nil {
		return fmt.Errorf("save prefs %s: %w", s.path, err)
	}
	return nil
}

// Path returns the backing file, empty for memory-only stores
func (s *IniStore) Path() string {
	return s.path
}
