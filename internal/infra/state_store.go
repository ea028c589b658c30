package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eliteGoblin/expurgate/internal/domain"
)

const (
	stateFileName = "state.json"
	stateVersion  = 1
)

// stateDocument is the on-disk JSON layout. Unknown fields are ignored and
// missing ones decode to their zero value.
type stateDocument struct {
	Version int      `json:"version"`
	Allow   []string `json:"allow_list"`
	Kill    []string `json:"kill_list"`
	ShowAll bool     `json:"show_all"`
}

// JSONListStore implements domain.ListStore using a JSON file.
type JSONListStore struct {
	path string
}

// NewJSONListStore creates a store at <dataDir>/state.json.
func NewJSONListStore(dataDir string) *JSONListStore {
	return &JSONListStore{path: filepath.Join(dataDir, stateFileName)}
}

// NewJSONListStoreWithPath creates a store at a specific path (for testing).
func NewJSONListStoreWithPath(path string) *JSONListStore {
	return &JSONListStore{path: path}
}

// Path returns the state file path.
func (s *JSONListStore) Path() string {
	return s.path
}

// Load reads the state file. A missing file is an empty state, not an error.
func (s *JSONListStore) Load() (domain.ListState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ListState{}, nil
		}
		return domain.ListState{}, err
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.ListState{}, fmt.Errorf("corrupt state file %s: %w", s.path, err)
	}
	if doc.Version > stateVersion {
		return domain.ListState{}, fmt.Errorf("state file %s has unsupported version %d", s.path, doc.Version)
	}

	return domain.ListState{
		Allow:   doc.Allow,
		Kill:    doc.Kill,
		ShowAll: doc.ShowAll,
	}, nil
}

// Save writes the state atomically (write + rename).
func (s *JSONListStore) Save(state domain.ListState) error {
	doc := stateDocument{
		Version: stateVersion,
		Allow:   nonNil(state.Allow),
		Kill:    nonNil(state.Kill),
		ShowAll: state.ShowAll,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write to temp file first (unique per process to avoid race)
	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // Clean up on failure
		return err
	}
	return nil
}

// Close is a no-op; the file is not held open.
func (s *JSONListStore) Close() error {
	return nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// Ensure JSONListStore implements domain.ListStore.
var _ domain.ListStore = (*JSONListStore)(nil)
