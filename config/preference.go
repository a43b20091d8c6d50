package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/use-agent/charscrape/models"
)

// PreferenceStore persists the last backend that initialized successfully.
// It is safe for concurrent use.
type PreferenceStore struct {
	mu   sync.Mutex
	path string
}

// NewPreferenceStore returns a store backed by the JSON file at path.
func NewPreferenceStore(path string) *PreferenceStore {
	return &PreferenceStore{path: path}
}

// Path returns the backing file.
func (s *PreferenceStore) Path() string { return s.path }

// Load reads the stored preference. A missing file yields the zero value.
func (s *PreferenceStore) Load() (models.BrowserPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pref models.BrowserPreference
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return pref, nil
	}
	if err != nil {
		return pref, fmt.Errorf("preference: read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &pref); err != nil {
		return models.BrowserPreference{}, fmt.Errorf("preference: decode %s: %w", s.path, err)
	}
	return pref, nil
}

// Save writes pref atomically (temp file + rename).
func (s *PreferenceStore) Save(pref models.BrowserPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(pref, "", "  ")
	if err != nil {
		return fmt.Errorf("preference: encode: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("preference: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".browser-*.json")
	if err != nil {
		return fmt.Errorf("preference: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("preference: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("preference: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("preference: rename: %w", err)
	}
	return nil
}

// SaveIfChanged writes pref only when it differs from old. It reports
// whether a write happened.
func (s *PreferenceStore) SaveIfChanged(old, pref models.BrowserPreference) (bool, error) {
	if pref.IsZero() || old.Equal(pref) {
		return false, nil
	}
	if err := s.Save(pref); err != nil {
		return false, err
	}
	return true, nil
}
