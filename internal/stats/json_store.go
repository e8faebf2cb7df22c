package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore keeps the session in a local JSON file.
type JSONStore struct {
	filePath string
	mutex    sync.Mutex
}

// NewJSONStore creates a store backed by filePath. The file is created on
// the first Save.
func NewJSONStore(filePath string) *JSONStore {
	return &JSONStore{filePath: filePath}
}

// Load reads the session. A missing or unreadable file gives empty
// statistics rather than an error.
func (js *JSONStore) Load() (*Session, error) {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	data, err := os.ReadFile(js.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[STATS] could not read %s, starting fresh: %v", js.filePath, err)
		}
		return NewSession(), nil
	}

	s := NewSession()
	if err := json.Unmarshal(data, s); err != nil {
		log.Printf("[STATS] %s is corrupt, starting fresh: %v", js.filePath, err)
		return NewSession(), nil
	}
	if s.Players == nil {
		s.Players = make(map[string]*PlayerTotals)
	}
	return s, nil
}

// Save writes the session, replacing the file.
func (js *JSONStore) Save(s *Session) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if dir := filepath.Dir(js.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create stats dir: %w", err)
		}
	}

	tmp := js.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	if err := os.Rename(tmp, js.filePath); err != nil {
		return fmt.Errorf("replace stats: %w", err)
	}
	return nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}
