package simpledb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvh2/market-bias/internal/libs/logger"
	"go.uber.org/zap"
)

type DB interface {
	Save(state any) error
	Load(target any) error
}

// Storage implements file-based state persistence
type Storage struct {
	logger    *logger.Logger
	stateFile string
}

// NewStorage creates a new file-based persistence manager
func NewStorage(logger *logger.Logger, stateFile string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(stateFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &Storage{
		logger:    logger,
		stateFile: stateFile,
	}, nil
}

// Save saves the state to file
func (fp *Storage) Save(state any) error {
	// Create a temporary file first
	tempFile := fp.stateFile + ".tmp"

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}

	// Atomic move from temp to actual file
	if err := os.Rename(tempFile, fp.stateFile); err != nil {
		// Clean up temp file on error
		os.Remove(tempFile)
		return fmt.Errorf("failed to move temporary state file: %w", err)
	}

	fp.logger.Debug("[Storage] state saved", zap.String("file", fp.stateFile))
	return nil
}

// Load loads the state from file into target
func (fp *Storage) Load(target any) error {
	if _, err := os.Stat(fp.stateFile); os.IsNotExist(err) {
		return fmt.Errorf("state file does not exist: %s", fp.stateFile)
	}

	data, err := os.ReadFile(fp.stateFile)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}

	fp.logger.Info("[Storage] state loaded", zap.String("file", fp.stateFile))

	return nil
}
