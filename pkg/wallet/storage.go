package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

const (
	DefaultStorageFileName = ".intent-swap-wallet.json"
)

// walletFile represents the JSON structure for storage
type walletFile struct {
	Connected bool                       `json:"connected"`
	Balances  map[string]decimal.Decimal `json:"balances"`
}

// fileStorage persists wallet state to a JSON file. An empty path keeps
// everything in memory.
type fileStorage struct {
	filePath string
}

// DefaultStoragePath returns the wallet file location in the home directory.
func DefaultStoragePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultStorageFileName), nil
}

// load reads wallet state. A missing file yields (nil, nil).
func (s *fileStorage) load() (*walletFile, error) {
	if s.filePath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	if wf.Balances == nil {
		wf.Balances = make(map[string]decimal.Decimal)
	}

	return &wf, nil
}

// save writes wallet state to the storage file
func (s *fileStorage) save(wf *walletFile) error {
	if s.filePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write wallet: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// remove deletes the storage file if it exists. A missing file reads back
// as a disconnected wallet.
func (s *fileStorage) remove() error {
	if s.filePath == "" {
		return nil
	}
	if err := os.Remove(s.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove wallet: %w", err)
	}
	return nil
}
