package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/fokuslabs/fokus/internal/focus"
)

// LocalFile is the single durable key of the client: one JSON document
// holding the full schema-version-tagged state.
type LocalFile struct {
	path string
}

func NewLocalFile(path string) LocalFile {
	return LocalFile{path: path}
}

// DefaultStatePath returns ~/.config/fokus/state.json.
func DefaultStatePath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "fokus", "state.json"), nil
}

// Load reads the persisted state. A missing file, unreadable JSON, or a
// schema version other than 1 all report ok=false: the caller synthesizes a
// fresh default state instead of trusting a partial document.
func (f LocalFile) Load() (focus.State, bool) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return focus.State{}, false
	}
	var state focus.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return focus.State{}, false
	}
	if state.Version != focus.Version {
		return focus.State{}, false
	}
	return state, true
}

// Save writes the state atomically so a crash mid-write never leaves a
// truncated document behind.
func (f LocalFile) Save(state focus.State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
