package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Store persists the plan state
type Store interface {
	// Load returns ErrNoState when nothing has been saved yet
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// JSONStore keeps the state in an indented JSON file
type JSONStore struct {
	stateFile string
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewJSONStore creates a new JSON file store
func NewJSONStore(stateFile string, logger *zap.Logger) *JSONStore {
	return &JSONStore{
		stateFile: stateFile,
		logger:    logger,
	}
}

// Load loads the plan state from file
func (s *JSONStore) Load(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet - will be created on first save
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	s.logger.Info("Plan state loaded",
		zap.String("file", s.stateFile),
		zap.Int("items", len(state.Items)))

	return &state, nil
}

// Save saves the plan state to file
func (s *JSONStore) Save(ctx context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(s.stateFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	if err := os.WriteFile(s.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	s.logger.Info("Plan state saved",
		zap.String("file", s.stateFile),
		zap.Int("items", len(state.Items)))

	return nil
}
